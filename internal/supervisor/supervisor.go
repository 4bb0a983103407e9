// Package supervisor is the process entry point's wiring (spec.md C10,
// §4.10): open the store from an already loaded configuration, initialize
// TLS, launch the metadata parser, the TLS request server and the ambient
// watchers, and join on context cancellation. No RTSP relay is started
// here. Grounded on cmd/server/main.go's numbered-phase wiring style,
// trimmed to this protocol's long-running goroutines instead of that
// teacher's dozen HTTP route groups.
package supervisor

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fryholic/cctv-coordinator/internal/auditlog"
	"github.com/fryholic/cctv-coordinator/internal/authtoken"
	"github.com/fryholic/cctv-coordinator/internal/bbox"
	"github.com/fryholic/cctv-coordinator/internal/cameraclient"
	"github.com/fryholic/cctv-coordinator/internal/config"
	"github.com/fryholic/cctv-coordinator/internal/diagnostics"
	"github.com/fryholic/cctv-coordinator/internal/lockout"
	"github.com/fryholic/cctv-coordinator/internal/metadata"
	"github.com/fryholic/cctv-coordinator/internal/otp"
	"github.com/fryholic/cctv-coordinator/internal/risk"
	"github.com/fryholic/cctv-coordinator/internal/serial"
	"github.com/fryholic/cctv-coordinator/internal/store"
	"github.com/fryholic/cctv-coordinator/internal/tlsserver"
)

// Supervisor owns every long-lived component's lifecycle.
type Supervisor struct {
	cfg   config.Config
	log   zerolog.Logger
	store *store.Store

	parser *metadata.Parser
	buffer *bbox.Buffer
	tls    *tlsserver.Server
	nats   *nats.Conn
	boards map[string]*serial.Controller
	diag   *http.Server
}

// New performs phases 1-4 of §4.10: it has already been handed a loaded
// Config (phase 1-2), opens the store (phase 3), and initializes the TLS
// context (phase 4) — all fatal on failure, per spec.
func New(cfg config.Config, log zerolog.Logger) (*Supervisor, error) {
	st, err := store.Open(cfg.Store.DBFile)
	if err != nil {
		return nil, fmt.Errorf("supervisor: open store: %w", err)
	}

	buffer := bbox.New()
	natsConn := connectNATS(cfg, log)
	audience := buildAuditPublisher(cfg, log, natsConn)

	riskTracker, err := risk.NewTracker(cfg.Detection.DistThreshold, cfg.Detection.ParallelismThreshold,
		cfg.Cache.FrameCacheSize, cfg.Cache.HistorySize, audience)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("supervisor: build risk tracker: %w", err)
	}

	parser := metadata.New(cfg.Camera.RTSPURL(), func(frame metadata.Frame) {
		buffer.Enqueue(frame)
		riskTracker.Observe(frame)
	}, log)

	deps := tlsserver.Deps{
		Store:         st,
		Camera:        cameraclient.New(cameraclient.Config{Host: cfg.Camera.Host, Username: cfg.Camera.Username, Password: cfg.Camera.Password, TrackID: cfg.Camera.TrackID}),
		CameraType:    "CCTV",
		Scale:         cfg.Scale,
		OTP:           otp.NewManager(),
		Challenges:    authtoken.NewManager(randomSigningKey()),
		Lockout:       buildLockout(cfg),
		Risk:          riskTracker,
		Audit:         audience,
		Buffer:        buffer,
		Parser:        parser,
		BufferDelayMs: cfg.Bbox.BufferDelayMs,
		SendInterval:  cfg.Bbox.SendIntervalMs,
		Log:           log,
	}

	tlsSrv, err := tlsserver.New(cfg.TLS.ListenAddr, cfg.TLS.CertFile, cfg.TLS.KeyFile, deps)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("supervisor: init tls server: %w", err)
	}

	boards := openBoards(cfg, log)

	var diag *http.Server
	if cfg.Diagnostics.ListenAddr != "" {
		diag = &http.Server{Addr: cfg.Diagnostics.ListenAddr, Handler: diagnostics.Mux(boards, log)}
	}

	return &Supervisor{
		cfg: cfg, log: log, store: st, parser: parser, buffer: buffer, tls: tlsSrv,
		nats: natsConn, boards: boards, diag: diag,
	}, nil
}

func connectNATS(cfg config.Config, log zerolog.Logger) *nats.Conn {
	if cfg.NATS.URL == "" {
		return nil
	}
	conn, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		log.Warn().Err(err).Msg("nats connect failed, audit events will log-only")
		return nil
	}
	return conn
}

func buildAuditPublisher(cfg config.Config, log zerolog.Logger, conn *nats.Conn) *auditlog.Publisher {
	subject := cfg.NATS.Subject
	if subject == "" {
		subject = "cctv.events"
	}
	return auditlog.NewPublisher(conn, subject, 3, log)
}

// openBoards opens one serial.Controller per configured display board,
// keyed by the same id string used in config.Board.Ports and in the
// diagnostics /boards/{id}/lcd route. A board whose port fails to open is
// logged and skipped rather than aborting startup.
func openBoards(cfg config.Config, log zerolog.Logger) map[string]*serial.Controller {
	boards := make(map[string]*serial.Controller, len(cfg.Board.Ports))
	for id, device := range cfg.Board.Ports {
		numericID, err := strconv.Atoi(id)
		if err != nil {
			log.Warn().Str("board_id", id).Msg("board id is not numeric, skipping")
			continue
		}
		ctrl, err := serial.Open(device, numericID, log)
		if err != nil {
			log.Warn().Err(err).Str("board_id", id).Str("device", device).Msg("failed to open display board")
			continue
		}
		boards[id] = ctrl
	}
	return boards
}

func buildLockout(cfg config.Config) *lockout.Manager {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return lockout.NewManager(redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr}))
}

func randomSigningKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("supervisor: generate challenge signing key: %v", err))
	}
	return key
}

// Run starts the metadata parser, the cert/key change watcher, the
// diagnostics HTTP server (when configured) and the TLS request server,
// then blocks until ctx is cancelled or the TLS server exits. It does not
// launch an RTSP relay.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.parser.Start(); err != nil {
		s.log.Warn().Err(err).Msg("metadata parser failed to start, bbox pipeline will stay empty")
	}

	go config.WatchCertFiles(ctx, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile, s.log)

	if s.diag != nil {
		go func() {
			if err := s.diag.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.log.Warn().Err(err).Msg("diagnostics server exited")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.tls.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
		s.tls.Close()
		<-errCh
		return s.shutdown()
	case err := <-errCh:
		s.shutdown()
		return err
	}
}

func (s *Supervisor) shutdown() error {
	s.parser.Stop()
	if s.diag != nil {
		s.diag.Close()
	}
	for _, ctrl := range s.boards {
		ctrl.Close()
	}
	if s.nats != nil {
		s.nats.Close()
	}
	return s.store.Close()
}
