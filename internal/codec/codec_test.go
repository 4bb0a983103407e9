package codec

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"request_id":1,"data":{}}`)
	require.NoError(t, WriteFrame(&buf, payload))

	got, err := ReadFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadFrameZeroLength(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0, 0})
	_, err := ReadFrame(bufio.NewReader(buf))
	assert.ErrorIs(t, err, ErrZeroLength)
}

func TestBase64RoundTrip(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 0x10, 0xff}
	encoded := Base64Encode(data)
	assert.Equal(t, 0, len(encoded)%4)

	decoded, err := Base64Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestEncodeDecodeFrameWithDLEBytes(t *testing.T) {
	payloads := [][]byte{
		{0x01, 0x02, 0x03},
		{DLE, DLE, DLE},
		{0xAA, DLE, 0x55, DLE, DLE},
		{},
	}
	for _, payload := range payloads {
		frame := EncodeFrame(payload)
		decoded, ok := DecodeFrame(frame)
		require.True(t, ok)
		assert.Equal(t, payload, decoded)
	}
}

func TestCRC16KnownVector(t *testing.T) {
	// CRC-16/ARC of ASCII "123456789" is the well known check value 0xBB3D.
	sum := CRC16([]byte("123456789"))
	assert.Equal(t, uint16(0xBB3D), sum)
}
