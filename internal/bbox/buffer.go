// Package bbox implements the time-delayed FIFO buffer and per-connection
// pusher for detection events (spec.md C7). The buffer sits between the
// metadata parser (C6, the producer) and the TLS request server (C9,
// whose per-connection pushers are the consumers).
package bbox

import (
	"container/list"
	"sync"
	"time"

	"github.com/fryholic/cctv-coordinator/internal/metadata"
)

const (
	maxAge   = 10 * time.Second
	maxDepth = 50
)

// Buffer is a FIFO queue of metadata.Frame, trimmed on every enqueue to
// the invariants in spec.md §4.7: no frame older than 10s, depth capped
// at 50. Only one client pushes from this buffer at a time (Open
// Question (c) in spec.md §9 — see DESIGN.md).
type Buffer struct {
	mu             sync.Mutex
	frames         *list.List // of metadata.Frame
	processedCount int64

	nowFn func() time.Time
}

// New constructs an empty Buffer.
func New() *Buffer {
	return &Buffer{frames: list.New(), nowFn: time.Now}
}

// Enqueue appends frame (possibly empty) and then evicts per the age and
// depth invariants.
func (b *Buffer) Enqueue(frame metadata.Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frames.PushBack(frame)
	b.processedCount++
	b.evictLocked()
}

func (b *Buffer) evictLocked() {
	now := b.nowFn()
	for b.frames.Len() > 0 {
		head := b.frames.Front().Value.(metadata.Frame)
		if now.Sub(head.Timestamp) > maxAge {
			b.frames.Remove(b.frames.Front())
			continue
		}
		break
	}
	for b.frames.Len() > maxDepth {
		b.frames.Remove(b.frames.Front())
	}
}

// DequeueIfAged removes and returns the head frame if its age is at least
// minAge. Returns ok=false and leaves the buffer untouched otherwise.
func (b *Buffer) DequeueIfAged(minAge time.Duration) (frame metadata.Frame, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.evictLocked()
	if b.frames.Len() == 0 {
		return metadata.Frame{}, false
	}
	front := b.frames.Front()
	head := front.Value.(metadata.Frame)
	if b.nowFn().Sub(head.Timestamp) < minAge {
		return metadata.Frame{}, false
	}
	b.frames.Remove(front)
	return head, true
}

// Info reports the current depth and the running count of frames ever
// enqueued, for the buffer_info push field.
func (b *Buffer) Info() (size int, processed int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames.Len(), b.processedCount
}

// Clear empties the buffer without resetting the lifetime processed count.
// Called when request 32 stops the pusher (spec.md §4.9).
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames.Init()
}
