package serial

import (
	"testing"
	"time"

	"github.com/fryholic/cctv-coordinator/internal/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFrameThenDecodeRoundTrip(t *testing.T) {
	frame := encodeFrame(1, CmdLCDOn, nil)
	payload, ok := codec.DecodeFrame(frame)
	require.True(t, ok)
	require.Len(t, payload, 4)
	assert.Equal(t, byte(1), payload[0]) // dst_mask for board 1
	assert.Equal(t, CmdLCDOn, payload[1])

	crc := codec.CRC16(payload[:2])
	assert.Equal(t, byte(crc>>8), payload[2])
	assert.Equal(t, byte(crc), payload[3])
}

func TestEncodeFrameDstMaskForBoard3(t *testing.T) {
	frame := encodeFrame(3, CmdLCDOff, nil)
	payload, ok := codec.DecodeFrame(frame)
	require.True(t, ok)
	assert.Equal(t, byte(0b100), payload[0])
}

func TestDecodeResponseAck(t *testing.T) {
	crc := codec.CRC16Bytes([]byte{ack})
	resp, ok := decodeResponse([]byte{ack, crc[0], crc[1]})
	require.True(t, ok)
	assert.True(t, resp.OK)
}

func TestDecodeResponseNack(t *testing.T) {
	crc := codec.CRC16Bytes([]byte{nack})
	resp, ok := decodeResponse([]byte{nack, crc[0], crc[1]})
	require.True(t, ok)
	assert.False(t, resp.OK)
}

func TestDecodeResponseBadCRCRejected(t *testing.T) {
	_, ok := decodeResponse([]byte{ack, 0x00, 0x00})
	assert.False(t, ok)
}

func TestTwelveHourMidnightIsTwelveAM(t *testing.T) {
	hour, isPM := twelveHour(0)
	assert.Equal(t, byte(12), hour)
	assert.False(t, isPM)
}

func TestTwelveHourNoonIsTwelvePM(t *testing.T) {
	hour, isPM := twelveHour(12)
	assert.Equal(t, byte(12), hour)
	assert.True(t, isPM)
}

func TestTwelveHourAfternoon(t *testing.T) {
	hour, isPM := twelveHour(15)
	assert.Equal(t, byte(3), hour)
	assert.True(t, isPM)
}

func TestTimeSyncPayloadShape(t *testing.T) {
	ts := time.Date(2026, time.March, 5, 15, 30, 45, 0, time.UTC)
	payload := timeSyncPayload(ts)
	require.Len(t, payload, 7)
	assert.Equal(t, byte(26), payload[0])
	assert.Equal(t, byte(3), payload[1])
	assert.Equal(t, byte(5), payload[2])
	assert.Equal(t, byte(3), payload[3]) // 15:00 -> 3 PM
	assert.Equal(t, byte(30), payload[4])
	assert.Equal(t, byte(45), payload[5])
	assert.Equal(t, byte(1), payload[6]) // PM flag
}
