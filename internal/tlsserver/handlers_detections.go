package tlsserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fryholic/cctv-coordinator/internal/apperr"
	"github.com/fryholic/cctv-coordinator/internal/bbox"
	"github.com/fryholic/cctv-coordinator/internal/codec"
)

// handleSelectDetections is request 1: return every detection snapshot
// between start and end, images base64-encoded, ordered oldest first.
func handleSelectDetections(ctx context.Context, c *connection, data json.RawMessage) (int, any, error) {
	var in struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return 0, nil, apperr.Wrap(apperr.KindFraming, "decode request 1", err)
	}

	c.deps.Store.Mu.Lock()
	detections, err := c.deps.Store.SelectDetectionsBetween(ctx, in.Start, in.End)
	c.deps.Store.Mu.Unlock()
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.KindStore, "select detections", err)
	}

	out := make([]map[string]any, len(detections))
	for i, d := range detections {
		out[i] = map[string]any{
			"id":        d.ID,
			"image":     codec.Base64Encode(d.Image),
			"timestamp": d.Timestamp.Format(time.RFC3339Nano),
		}
	}
	return respDetections, map[string]any{"detections": out}, nil
}

// handleStartPusher is request 31: ensure the metadata parser is running
// and claim the single bbox-pushing slot for this connection. Per spec,
// losing the race for that slot is not an error: the request still
// returns normally with started=false/busy=true, and every other handler
// on this or any other connection keeps working.
func handleStartPusher(ctx context.Context, c *connection, data json.RawMessage) (int, any, error) {
	if c.sess.pusher != nil {
		return respStartPusher, map[string]any{"started": true, "busy": false}, nil
	}

	if err := c.deps.Parser.Start(); err != nil {
		return 0, nil, apperr.Wrap(apperr.KindParser, "start metadata parser", err)
	}

	release, err := bbox.Acquire()
	if err != nil {
		return respStartPusher, map[string]any{"started": false, "busy": true}, nil
	}

	sendInterval := time.Duration(c.deps.SendInterval) * time.Millisecond
	bufferDelay := time.Duration(c.deps.BufferDelayMs) * time.Millisecond
	pusher := bbox.NewPusher(c.deps.Buffer, sendInterval, bufferDelay, func(m bbox.PushMessage) error {
		return c.sendPush(m)
	})
	pusher.Start()

	c.sess.pusher = pusher
	c.sess.releasePusher = release
	return respStartPusher, map[string]any{"started": true, "busy": false}, nil
}

// handleStopPusher is request 32: stop this connection's pusher, release
// the pushing slot, and stop the metadata parser.
func handleStopPusher(ctx context.Context, c *connection, data json.RawMessage) (int, any, error) {
	if c.sess.pusher != nil {
		c.sess.pusher.Stop()
		c.sess.pusher = nil
	}
	if c.sess.releasePusher != nil {
		c.sess.releasePusher()
		c.sess.releasePusher = nil
	}
	c.deps.Parser.Stop()
	c.deps.Buffer.Clear()
	return respStopPusher, map[string]any{"stopped": true}, nil
}
