package bbox

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fryholic/cctv-coordinator/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueDequeueOrderPreserved(t *testing.T) {
	b := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.nowFn = func() time.Time { return base }

	b.Enqueue(metadata.Frame{Timestamp: base, Events: []metadata.Event{{ObjectID: 1}}})
	b.Enqueue(metadata.Frame{Timestamp: base, Events: []metadata.Event{{ObjectID: 2}}})

	b.nowFn = func() time.Time { return base.Add(time.Second) }
	f1, ok := b.DequeueIfAged(500 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 1, f1.Events[0].ObjectID)

	f2, ok := b.DequeueIfAged(500 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 2, f2.Events[0].ObjectID)
}

func TestDequeueRejectsFrameTooYoung(t *testing.T) {
	b := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.nowFn = func() time.Time { return base }
	b.Enqueue(metadata.Frame{Timestamp: base})

	b.nowFn = func() time.Time { return base.Add(100 * time.Millisecond) }
	_, ok := b.DequeueIfAged(2 * time.Second)
	assert.False(t, ok)
}

func TestEvictionByAge(t *testing.T) {
	b := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.nowFn = func() time.Time { return base }
	b.Enqueue(metadata.Frame{Timestamp: base})

	b.nowFn = func() time.Time { return base.Add(11 * time.Second) }
	b.Enqueue(metadata.Frame{Timestamp: base.Add(11 * time.Second)})

	size, processed := b.Info()
	assert.Equal(t, 1, size, "frame older than 10s must be evicted on the next enqueue")
	assert.Equal(t, int64(2), processed)
}

func TestEvictionByDepth(t *testing.T) {
	b := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.nowFn = func() time.Time { return base }

	for i := 0; i < maxDepth+10; i++ {
		b.Enqueue(metadata.Frame{Timestamp: base})
	}

	size, processed := b.Info()
	assert.Equal(t, maxDepth, size)
	assert.Equal(t, int64(maxDepth+10), processed)
}

func TestAcquireEnforcesSinglePusher(t *testing.T) {
	release, err := Acquire()
	require.NoError(t, err)
	defer release()

	_, err = Acquire()
	assert.ErrorIs(t, err, ErrPusherBusy)
}

func TestClearEmptiesBufferWithoutResettingProcessedCount(t *testing.T) {
	b := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.nowFn = func() time.Time { return base }

	b.Enqueue(metadata.Frame{Timestamp: base})
	b.Enqueue(metadata.Frame{Timestamp: base})
	b.Clear()

	size, processed := b.Info()
	assert.Equal(t, 0, size)
	assert.Equal(t, int64(2), processed)
}

func TestPusherDeliversAgedFrame(t *testing.T) {
	b := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.nowFn = func() time.Time { return base }
	b.Enqueue(metadata.Frame{Timestamp: base, Events: []metadata.Event{{ObjectID: 9, Left: 1, Top: 2, Right: 11, Bottom: 22}}})
	b.nowFn = func() time.Time { return base.Add(time.Second) }

	delivered := make(chan PushMessage, 1)
	p := NewPusher(b, 5*time.Millisecond, 0, func(m PushMessage) error {
		delivered <- m
		return nil
	})
	p.Start()
	defer p.Stop()

	select {
	case msg := <-delivered:
		require.Len(t, msg.Bboxes, 1)
		assert.Equal(t, 9, msg.Bboxes[0].ID)
		assert.Equal(t, 10, msg.Bboxes[0].Width)
		assert.Equal(t, 20, msg.Bboxes[0].Height)
	case <-time.After(time.Second):
		t.Fatal("expected a push within 1s")
	}
}

func TestPusherTerminatesOnSendError(t *testing.T) {
	b := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.nowFn = func() time.Time { return base }
	b.Enqueue(metadata.Frame{Timestamp: base})
	b.nowFn = func() time.Time { return base.Add(time.Second) }

	var attempts int32
	p := NewPusher(b, 5*time.Millisecond, 0, func(m PushMessage) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("connection closed")
	})
	p.Start()

	// Stop must return promptly: the loop already terminated itself after
	// the first failed send, rather than retrying every tick.
	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the pusher's send failed")
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "a failed send must stop the loop, not retry it")
}
