// Package diagnostics is the loopback-only HTTP surface supervised
// alongside the TLS request server: liveness, Prometheus metrics, and a
// manual LCD board toggle. Grounded on cmd/hlsd/main.go's chi wiring
// (healthz + promhttp.Handler registration style).
package diagnostics

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fryholic/cctv-coordinator/internal/serial"
)

// Mux builds the loopback diagnostics handler. boards maps a board id
// (matching the route's {id} segment) to its serial controller; a board
// not present in the map yields 404.
func Mux(boards map[string]*serial.Controller, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Post("/boards/{id}/lcd", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		board, ok := boards[id]
		if !ok {
			http.NotFound(w, r)
			return
		}

		var in struct {
			On bool `json:"on"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var ok2 bool
		if in.On {
			ok2 = board.SendLCDOnWithAck(3, 500*time.Millisecond)
		} else {
			ok2 = board.SendLCDOffWithAck(3, 500*time.Millisecond)
		}
		if !ok2 {
			log.Warn().Str("board_id", id).Bool("on", in.On).Msg("lcd command unacknowledged")
			http.Error(w, "no ack", http.StatusGatewayTimeout)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	return r
}
