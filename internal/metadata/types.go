// Package metadata spawns and parses the camera's ONVIF metadata stream
// (spec.md C6): an ffmpeg subprocess emits raw metadata XML on stdout,
// which is parsed in rolling blocks and turned into BboxFrames.
package metadata

import "time"

// Event is one detected object within a BboxFrame.
type Event struct {
	ObjectID   int
	Type       string
	Confidence float32
	Left       int
	Top        int
	Right      int
	Bottom     int
}

// Frame is the complete, possibly-empty set of Events extracted from one
// metadata block, stamped with the monotonic time it was enqueued.
type Frame struct {
	Timestamp time.Time
	Events    []Event
}
