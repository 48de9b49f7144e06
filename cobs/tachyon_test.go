package cobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTachyonRoundTrip(t *testing.T) {
	data := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}
	frame, err := EncodeTachyon(0x123, data)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(frame), 13)

	id, got, err := DecodeTachyon(frame)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x123), id)
	assert.Equal(t, data, got)
}

func TestTachyonChecksumZeroSums(t *testing.T) {
	frame, err := EncodeTachyon(0x7FF, []byte{1, 2, 3})
	require.NoError(t, err)

	buf, ok := Decode(frame)
	require.True(t, ok)

	var sum byte
	for _, b := range buf {
		sum += b
	}
	assert.Equal(t, byte(0), sum)
}

func TestTachyonRejectsOversizedPayload(t *testing.T) {
	_, err := EncodeTachyon(0x100, make([]byte, 9))
	assert.ErrorIs(t, err, ErrDLC)
}

func TestTachyonDetectsCorruption(t *testing.T) {
	frame, err := EncodeTachyon(0x42, []byte{0xAA})
	require.NoError(t, err)

	buf, ok := Decode(frame)
	require.True(t, ok)
	buf[0] ^= 0xFF // corrupt the id_low byte in the decoded payload

	corrupted := Encode(buf)
	_, _, err = DecodeTachyon(corrupted)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestTachyonEmptyPayload(t *testing.T) {
	frame, err := EncodeTachyon(0, nil)
	require.NoError(t, err)

	id, data, err := DecodeTachyon(frame)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), id)
	assert.Empty(t, data)
}
