package bbox

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrPusherBusy is returned by Acquire when another connection already
// owns the single pushing slot (spec.md §9 Open Question, resolved as
// option (c): only one pushing client at a time).
var ErrPusherBusy = errors.New("bbox: a pusher is already active")

// PushMessage is the exact shape of an unsolicited response_id 200 push
// (spec.md §4.7).
type PushMessage struct {
	ResponseID int        `json:"response_id"`
	Bboxes     []PushBox  `json:"bboxes"`
	BufferInfo BufferInfo `json:"buffer_info"`
}

// PushBox is one bbox on the wire: width/height are derived from the
// stored right/bottom at push time.
type PushBox struct {
	ID         int     `json:"id"`
	Type       string  `json:"type"`
	Confidence float32 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// BufferInfo mirrors the buffer's depth and lifetime processed count.
type BufferInfo struct {
	BufferSize     int   `json:"buffer_size"`
	ProcessedCount int64 `json:"processed_count"`
}

// pusherSlot enforces the single-active-pusher invariant process-wide.
var pusherSlot int32

// Acquire claims the single pushing slot. Callers must call the returned
// release func exactly once when the connection's pusher stops.
func Acquire() (release func(), err error) {
	if !atomic.CompareAndSwapInt32(&pusherSlot, 0, 1) {
		return nil, ErrPusherBusy
	}
	var once sync.Once
	return func() {
		once.Do(func() { atomic.StoreInt32(&pusherSlot, 0) })
	}, nil
}

// Pusher runs the per-connection egress loop: on each tick, dequeue the
// head frame if it is old enough and hand it to Send.
type Pusher struct {
	buffer       *Buffer
	sendInterval time.Duration
	bufferDelay  time.Duration
	send         func(PushMessage) error

	quit     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPusher builds a Pusher. send is invoked once per delivered frame,
// already serialized by the connection's write lock.
func NewPusher(buffer *Buffer, sendInterval, bufferDelay time.Duration, send func(PushMessage) error) *Pusher {
	return &Pusher{
		buffer:       buffer,
		sendInterval: sendInterval,
		bufferDelay:  bufferDelay,
		send:         send,
		quit:         make(chan struct{}),
	}
}

// Start begins the tick loop on its own goroutine.
func (p *Pusher) Start() {
	p.wg.Add(1)
	go p.run()
}

// Stop requests the loop to exit and waits for it. Safe to call after the
// loop has already terminated itself on a send error.
func (p *Pusher) Stop() {
	p.stopOnce.Do(func() { close(p.quit) })
	p.wg.Wait()
}

func (p *Pusher) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.sendInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !p.tick() {
				return
			}
		case <-p.quit:
			return
		}
	}
}

// tick delivers one frame, if any is due, and reports whether the loop
// should keep running. Per spec.md §4.7 point 3, a failed transmission
// terminates the worker rather than retrying against a dead connection.
func (p *Pusher) tick() bool {
	frame, ok := p.buffer.DequeueIfAged(p.bufferDelay)
	if !ok {
		return true
	}
	size, processed := p.buffer.Info()

	boxes := make([]PushBox, 0, len(frame.Events))
	for _, e := range frame.Events {
		boxes = append(boxes, PushBox{
			ID:         e.ObjectID,
			Type:       e.Type,
			Confidence: e.Confidence,
			X:          e.Left,
			Y:          e.Top,
			Width:      e.Right - e.Left,
			Height:     e.Bottom - e.Top,
		})
	}

	msg := PushMessage{
		ResponseID: 200,
		Bboxes:     boxes,
		BufferInfo: BufferInfo{BufferSize: size, ProcessedCount: processed},
	}
	if err := p.send(msg); err != nil {
		p.stopOnce.Do(func() { close(p.quit) })
		return false
	}
	return true
}
