package serial

import (
	"fmt"
	"time"

	"github.com/fryholic/cctv-coordinator/internal/codec"
	"github.com/rs/zerolog"
	goserial "go.bug.st/serial"
)

// Controller drives one display board over a dedicated serial port.
// Grounded on original_source/src/metadata/board_control.cpp's
// BoardController: 115200 8N1, no flow control, one port per board.
type Controller struct {
	port    goserial.Port
	boardID int
	log     zerolog.Logger
}

// Open opens device at 115200 8N1 for boardID (1-based).
func Open(device string, boardID int, log zerolog.Logger) (*Controller, error) {
	mode := &goserial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	}
	port, err := goserial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", device, err)
	}
	return &Controller{port: port, boardID: boardID, log: log.With().Int("board_id", boardID).Logger()}, nil
}

// Close releases the underlying port.
func (c *Controller) Close() error {
	return c.port.Close()
}

// SendLCDOn fires a fire-and-forget LCD ON frame (no ack wait).
func (c *Controller) SendLCDOn() error {
	return c.writeFrame(encodeFrame(c.boardID, CmdLCDOn, nil))
}

// SendLCDOff fires a fire-and-forget LCD OFF frame.
func (c *Controller) SendLCDOff() error {
	return c.writeFrame(encodeFrame(c.boardID, CmdLCDOff, nil))
}

// SendTimeSyncFromSystem sends a CMD_SYNC_TIME frame built from the local
// system clock, 12-hour converted.
func (c *Controller) SendTimeSyncFromSystem() error {
	return c.writeFrame(encodeFrame(c.boardID, CmdSyncTime, timeSyncPayload(time.Now())))
}

func (c *Controller) writeFrame(frame []byte) error {
	_, err := c.port.Write(frame)
	if err != nil {
		return fmt.Errorf("serial: write frame: %w", err)
	}
	return nil
}

// SendLCDOnWithAck sends LCD ON and retries until an ACK is received or
// retries are exhausted.
func (c *Controller) SendLCDOnWithAck(retries int, timeout time.Duration) bool {
	return c.sendWithAck(CmdLCDOn, retries, timeout)
}

// SendLCDOffWithAck sends LCD OFF and retries until an ACK is received or
// retries are exhausted.
func (c *Controller) SendLCDOffWithAck(retries int, timeout time.Duration) bool {
	return c.sendWithAck(CmdLCDOff, retries, timeout)
}

func (c *Controller) sendWithAck(command byte, retries int, timeout time.Duration) bool {
	frame := encodeFrame(c.boardID, command, nil)

	for attempt := 0; attempt < retries; attempt++ {
		if err := c.port.ResetInputBuffer(); err != nil {
			c.log.Warn().Err(err).Msg("reset input buffer failed")
		}
		if _, err := c.port.Write(frame); err != nil {
			c.log.Warn().Err(err).Msg("write frame failed")
			continue
		}

		if resp, ok := c.awaitResponse(timeout); ok && resp.OK {
			return true
		}
		c.log.Warn().Int("attempt", attempt+1).Msg("timeout or nack waiting for ack, retrying")
		time.Sleep(100 * time.Millisecond)
	}
	c.log.Error().Int("retries", retries).Msg("failed to get ack")
	return false
}

// receiveState mirrors the C++ WAIT_DLE/WAIT_STX/IN_FRAME/WAIT_ETX machine.
type receiveState int

const (
	stateWaitDLE receiveState = iota
	stateWaitSTX
	stateInFrame
	stateWaitETX
)

// awaitResponse reads byte-by-byte with a short per-read timeout, reassembling
// one DLE/STX/ETX frame within the overall timeout budget.
func (c *Controller) awaitResponse(timeout time.Duration) (responseFrame, bool) {
	const step = 10 * time.Millisecond
	if err := c.port.SetReadTimeout(step); err != nil {
		c.log.Warn().Err(err).Msg("set read timeout failed")
	}

	state := stateWaitDLE
	var payload []byte
	rx := make([]byte, 1)

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		n, err := c.port.Read(rx)
		if err != nil || n == 0 {
			continue
		}
		b := rx[0]

		switch state {
		case stateWaitDLE:
			if b == codec.DLE {
				state = stateWaitSTX
			}
		case stateWaitSTX:
			switch {
			case b == codec.STX:
				payload = payload[:0]
				state = stateInFrame
			case b != codec.DLE:
				state = stateWaitDLE
			}
		case stateInFrame:
			if b == codec.DLE {
				state = stateWaitETX
			} else {
				payload = append(payload, b)
			}
		case stateWaitETX:
			if b == codec.ETX {
				if resp, ok := decodeResponse(payload); ok {
					return resp, true
				}
			}
			state = stateWaitDLE
			payload = payload[:0]
		}
	}
	return responseFrame{}, false
}
