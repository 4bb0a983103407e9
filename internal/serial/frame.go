// Package serial drives the display boards over RS-232 (spec.md C8):
// DLE/STX/ETX framed commands with a CRC-16 trailer, an ack/nack
// retry state machine, and 12-hour time synchronization.
package serial

import "github.com/fryholic/cctv-coordinator/internal/codec"

// Command codes, grounded on original_source/src/metadata/board_control.h.
const (
	CmdLCDOn    byte = 0x01
	CmdLCDOff   byte = 0x02
	CmdSyncTime byte = 0x03

	ack  byte = 0xAA
	nack byte = 0x55
)

// encodeFrame builds dst_mask, command, extra_data..., crc_hi, crc_lo and
// wraps it as a DLE/STX/ETX frame. boardID is 1-based; dst_mask is a
// single set bit at position boardID-1.
func encodeFrame(boardID int, command byte, extra []byte) []byte {
	dstMask := byte(1) << uint(boardID-1)

	payload := make([]byte, 0, 2+len(extra)+2)
	payload = append(payload, dstMask, command)
	payload = append(payload, extra...)

	crc := codec.CRC16Bytes(payload)
	payload = append(payload, crc[0], crc[1])

	return codec.EncodeFrame(payload)
}

// responseFrame is a decoded 3-byte ack/nack payload: command echo plus CRC.
type responseFrame struct {
	Command byte
	OK      bool
}

// decodeResponse validates a 3-byte unstuffed payload (command, crc_hi, crc_lo)
// against its CRC and classifies it as ack or nack.
func decodeResponse(payload []byte) (responseFrame, bool) {
	if len(payload) != 3 {
		return responseFrame{}, false
	}
	respCmd := payload[0]
	recvCRC := uint16(payload[1])<<8 | uint16(payload[2])
	if codec.CRC16([]byte{respCmd}) != recvCRC {
		return responseFrame{}, false
	}
	switch respCmd {
	case ack:
		return responseFrame{Command: respCmd, OK: true}, true
	case nack:
		return responseFrame{Command: respCmd, OK: false}, true
	default:
		return responseFrame{}, false
	}
}
