package hidproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	msg := Message{Op: 0x01, Payload: []byte{0xDE, 0xAD, 0xBE, 0xEF}}

	got, ok := DecodeMessage(msg.Encode())

	require.True(t, ok)
	assert.Equal(t, msg, got)
}

func TestDecodeMessageEmptyBufferNotOK(t *testing.T) {
	_, ok := DecodeMessage(nil)

	assert.False(t, ok)
}

func TestMessageFragmentReassembleRoundTrip(t *testing.T) {
	msg := Message{Op: 0x02, Payload: make([]byte, 150)}
	for i := range msg.Payload {
		msg.Payload[i] = byte(i)
	}

	reports := Fragment(msg.Encode(), DefaultReportSize)

	r := NewReassembler()
	var buf []byte
	var ready bool
	for _, report := range reports {
		buf, ready = r.Feed(report)
	}
	require.True(t, ready)

	got, ok := DecodeMessage(buf)
	require.True(t, ok)
	assert.Equal(t, msg, got)
}
