package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSLCANLineDataFrame(t *testing.T) {
	ev, ok := decodeSLCANLine([]byte("t1233AABBCC"))

	require.True(t, ok)
	assert.Equal(t, uint32(0x123), ev.ID)
	assert.False(t, ev.Extended)
	assert.False(t, ev.RTR)
	assert.Equal(t, uint8(3), ev.Len)
	assert.Equal(t, [8]byte{0xAA, 0xBB, 0xCC}, ev.Data)
}

func TestDecodeSLCANLineExtendedRemoteFrame(t *testing.T) {
	ev, ok := decodeSLCANLine([]byte("R120001230"))

	require.True(t, ok)
	assert.Equal(t, uint32(0x12000123), ev.ID)
	assert.True(t, ev.Extended)
	assert.True(t, ev.RTR)
	assert.Equal(t, uint8(0), ev.Len)
}

func TestDecodeSLCANLineRejectsUnknownPrefix(t *testing.T) {
	_, ok := decodeSLCANLine([]byte("S6"))

	assert.False(t, ok)
}

func TestDecodeSLCANLineRejectsShortPayload(t *testing.T) {
	_, ok := decodeSLCANLine([]byte("t1238AABB"))

	assert.False(t, ok)
}

func TestScanSLCANLinesSplitsOnCR(t *testing.T) {
	advance, token, err := scanSLCANLines([]byte("t1230\rt4560\r"), false)

	require.NoError(t, err)
	assert.Equal(t, 6, advance)
	assert.Equal(t, "t1230", string(token))
}

func TestScanSLCANLinesFlushesAtEOF(t *testing.T) {
	advance, token, err := scanSLCANLines([]byte("t1230"), true)

	require.NoError(t, err)
	assert.Equal(t, 5, advance)
	assert.Equal(t, "t1230", string(token))
}

func TestScanSLCANLinesWaitsForMoreData(t *testing.T) {
	advance, token, err := scanSLCANLines([]byte("t1230"), false)

	require.NoError(t, err)
	assert.Equal(t, 0, advance)
	assert.Nil(t, token)
}
