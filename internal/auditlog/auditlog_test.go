package auditlog

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestPublishWithoutConnDoesNotPanic(t *testing.T) {
	p := NewPublisher(nil, "cctv.events", 1, zerolog.Nop())
	assert.NotPanics(t, func() {
		p.Publish(NewEvent("line_reconciliation", map[string]any{"kept": 2}))
	})
}

func TestNewEventStampsIDAndSource(t *testing.T) {
	evt := NewEvent("risk_alert", nil)
	assert.NotEmpty(t, evt.EventID.String())
	assert.Equal(t, "cctv-coordinator", evt.Source)
	assert.Equal(t, "risk_alert", evt.EventType)
}
