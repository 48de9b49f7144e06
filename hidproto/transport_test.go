package hidproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarintRoundTripSmallValue(t *testing.T) {
	buf := EncodeVarint(nil, 42)
	require.Len(t, buf, 1)

	v, n, ok := DecodeVarint(buf)
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, n)
}

func TestVarintRoundTripMultiByteValue(t *testing.T) {
	buf := EncodeVarint(nil, 150)
	require.Len(t, buf, 2)

	v, n, ok := DecodeVarint(buf)
	require.True(t, ok)
	assert.Equal(t, 150, v)
	assert.Equal(t, 2, n)
}

func TestDecodeVarintIncompleteBufferNotOK(t *testing.T) {
	_, _, ok := DecodeVarint([]byte{0x96}) // continuation bit set, no terminator

	assert.False(t, ok)
}

func TestFragmentSingleReportMessage(t *testing.T) {
	msg := make([]byte, 40)
	reports := Fragment(msg, DefaultReportSize)

	require.Len(t, reports, 1)
	assert.NotEqual(t, byte(0x00), reports[0][0]) // length varint, not a continuation marker (len=40 has high bit clear)
}

func TestFragmentMultiReportRoundTrip(t *testing.T) {
	msg := make([]byte, 150)
	for i := range msg {
		msg[i] = byte(i)
	}

	reports := Fragment(msg, DefaultReportSize)
	require.Len(t, reports, 3)
	assert.NotEqual(t, byte(0x00), reports[0][0])
	assert.Equal(t, byte(0x00), reports[1][0])
	assert.Equal(t, byte(0x00), reports[2][0])

	r := NewReassembler()

	_, ready := r.Feed(reports[0])
	assert.False(t, ready)
	_, ready = r.Feed(reports[1])
	assert.False(t, ready)
	got, ready := r.Feed(reports[2])

	require.True(t, ready)
	assert.Equal(t, msg, got)
}

func TestReassemblerDiscardsContinuationWithoutAssembly(t *testing.T) {
	r := NewReassembler()
	report := make([]byte, DefaultReportSize) // all zero: marker with no prior start

	_, ready := r.Feed(report)

	assert.False(t, ready)
}

func TestReassemblerAbortsPriorPartialOnNewMessage(t *testing.T) {
	r := NewReassembler()

	first := Fragment(make([]byte, 150), DefaultReportSize)
	_, ready := r.Feed(first[0])
	require.False(t, ready)
	_, ready = r.Feed(first[1])
	require.False(t, ready)

	// A fresh, complete short message arrives before the prior one
	// finished assembling.
	second := Fragment([]byte{0xAA, 0xBB, 0xCC}, DefaultReportSize)
	got, ready := r.Feed(second[0])

	require.True(t, ready)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, got)
}
