package auditlog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Publisher fans Events out to a NATS subject on a best-effort basis,
// grounded on internal/nvr/nats_publisher.go's retry-with-backoff shape.
// Publish failures are logged, never returned to the caller — this is an
// observability side channel, not part of any request's success path.
type Publisher struct {
	conn       *nats.Conn
	subject    string
	maxRetries int
	log        zerolog.Logger
}

// NewPublisher wraps an already-connected NATS client. conn may be nil,
// in which case Publish is a no-op (NATS fan-out is optional).
func NewPublisher(conn *nats.Conn, subject string, maxRetries int, log zerolog.Logger) *Publisher {
	return &Publisher{conn: conn, subject: subject, maxRetries: maxRetries, log: log.With().Str("component", "auditlog").Logger()}
}

// Publish logs the event and, if a NATS connection is configured,
// publishes it with bounded retry.
func (p *Publisher) Publish(evt Event) {
	p.log.Info().Str("event_type", evt.EventType).Str("event_id", evt.EventID.String()).Msg("event")

	if p.conn == nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		p.log.Warn().Err(err).Msg("marshal event for NATS publish failed")
		return
	}

	var lastErr error
	for i := 0; i <= p.maxRetries; i++ {
		if lastErr = p.conn.Publish(p.subject, data); lastErr == nil {
			return
		}
		time.Sleep(time.Duration(i*100) * time.Millisecond)
	}
	p.log.Warn().Err(fmt.Errorf("publish failed after %d retries: %w", p.maxRetries, lastErr)).Msg("NATS publish failed")
}
