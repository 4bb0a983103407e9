package tlsserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fryholic/cctv-coordinator/internal/apperr"
	"github.com/fryholic/cctv-coordinator/internal/codec"
	"github.com/fryholic/cctv-coordinator/internal/metrics"
)

// handlerFunc is one request's business logic. It returns the fields to
// merge into the response envelope (see wire.go's envelope helper) and
// the response_id to tag them with.
type handlerFunc func(ctx context.Context, c *connection, data json.RawMessage) (responseID int, fields any, err error)

var dispatchTable = map[int]handlerFunc{
	reqSelectDetections: handleSelectDetections,
	reqInsertLine:       handleInsertLine,
	reqReconcileLines:   handleReconcileLines,
	reqTeardown:         handleTeardown,
	reqInsertBaseLine:   handleInsertBaseLine,
	reqInsertVertical:   handleInsertVertical,
	reqSelectBaseLines:  handleSelectBaseLines,
	reqAuthStep1:        handleAuthStep1,
	reqCreateAccount:    handleCreateAccount,
	reqAuthStep2:        handleAuthStep2,
	reqStartPusher:      handleStartPusher,
	reqStopPusher:       handleStopPusher,
}

// connection is one accepted TLS client, its auth state, and its write
// lock. writeMu serializes every frame this connection sends — both
// request/response replies and the bbox pusher's unsolicited pushes share
// it, so bytes from the two never interleave (spec.md §4.9 "per-connection
// write serialization").
type connection struct {
	nc net.Conn
	r  *bufio.Reader

	writeMu sync.Mutex
	deps    Deps
	log     zerolog.Logger
	sess    session
}

func newConnection(nc net.Conn, deps Deps, log zerolog.Logger) *connection {
	return &connection{
		nc:   nc,
		r:    bufio.NewReader(nc),
		deps: deps,
		log:  log.With().Str("remote", nc.RemoteAddr().String()).Logger(),
	}
}

// serve runs the read-dispatch-write loop until the connection errors or
// ctx is cancelled. It never returns an error to the caller — every
// failure is logged and ends the loop by closing the connection.
func (c *connection) serve(ctx context.Context) {
	defer c.teardown()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		raw, err := codec.ReadFrame(c.r)
		if err != nil {
			c.log.Debug().Err(err).Msg("connection closed")
			return
		}

		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			c.log.Warn().Err(err).Msg("malformed request envelope")
			return
		}

		c.dispatch(ctx, req)
	}
}

func (c *connection) dispatch(ctx context.Context, req Request) {
	metrics.RequestsTotal.WithLabelValues(strconv.Itoa(req.RequestID)).Inc()

	h, ok := dispatchTable[req.RequestID]
	if !ok {
		c.log.Warn().Int("request_id", req.RequestID).Msg("unknown request_id, ignored")
		return
	}

	if requiresAuth(req.RequestID) && !c.sess.authenticated {
		c.writeError(req.RequestID, apperr.KindAuth, errors.New("not authenticated"))
		return
	}

	responseID, fields, err := h(ctx, c, req.Data)
	if err != nil {
		c.writeError(req.RequestID, apperr.KindOf(err), err)
		return
	}
	c.writeEnvelope(responseID, fields)
}

func (c *connection) writeEnvelope(responseID int, fields any) {
	body, err := json.Marshal(envelope(responseID, fields))
	if err != nil {
		c.log.Error().Err(err).Msg("marshal response")
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := codec.WriteFrame(c.nc, body); err != nil {
		c.log.Debug().Err(err).Msg("write response")
	}
}

func (c *connection) writeError(requestID int, kind apperr.Kind, err error) {
	metrics.RequestErrorsTotal.WithLabelValues(string(kind)).Inc()
	c.log.Warn().Err(err).Int("request_id", requestID).Str("kind", string(kind)).Msg("request failed")
	c.writeEnvelope(requestID, map[string]any{
		"error": err.Error(),
		"kind":  string(kind),
	})
}

// sendPush writes an unsolicited frame (the bbox pusher's response_id 200
// messages), sharing writeEnvelope's serialization.
func (c *connection) sendPush(v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return codec.WriteFrame(c.nc, body)
}

func (c *connection) teardown() {
	if c.sess.releasePusher != nil {
		c.sess.releasePusher()
	}
	if c.sess.pusher != nil {
		c.sess.pusher.Stop()
	}
	c.nc.Close()
}
