package datalogger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbarmory/canbridge/cobs"
	"github.com/usbarmory/canbridge/hidproto"
)

func TestWriterEncodesFrameBoundaryAndCOBS(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	ok := w.WriteRecord(InfoString{Text: "hello"})

	require.True(t, ok)

	out := buf.Bytes()
	require.NotEmpty(t, out)
	assert.Equal(t, byte(0x00), out[0])

	decoded, ok := cobs.Decode(out[1:])
	require.True(t, ok)

	length, n, ok := hidproto.DecodeVarint(decoded)
	require.True(t, ok)

	body := decoded[n:]
	require.Len(t, body, length)
	assert.Equal(t, TagInfoString, body[0])
	assert.Equal(t, "hello", string(body[1:]))
}

func TestWriterReturnsFalseWithNoOpenFile(t *testing.T) {
	w := NewWriter(nil)

	ok := w.WriteRecord(InfoString{Text: "x"})

	assert.False(t, ok)
}

func TestReceivedCanMessageEncodesFields(t *testing.T) {
	r := ReceivedCanMessage{
		SourceID:  1,
		ID:        0x123,
		FrameType: FrameStandard,
		RTRType:   RTRData,
		Data:      []byte{0xAA, 0xBB},
	}

	body := r.Encode(nil)

	assert.Equal(t, uint8(1), body[0])
	assert.Equal(t, []byte{0x00, 0x00, 0x01, 0x23}, body[1:5])
	assert.Equal(t, byte(FrameStandard), body[5])
	assert.Equal(t, byte(RTRData), body[6])
	assert.Equal(t, byte(2), body[7])
	assert.Equal(t, []byte{0xAA, 0xBB}, body[8:])
}
