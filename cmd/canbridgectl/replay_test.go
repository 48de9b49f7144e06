package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbarmory/canbridge/cobs"
)

func TestReadTraceRecordsRoundTrip(t *testing.T) {
	frame1, err := cobs.EncodeTachyon(0x100, []byte{1, 2, 3})
	require.NoError(t, err)
	frame2, err := cobs.EncodeTachyon(0x200, []byte{4, 5})
	require.NoError(t, err)

	var data []byte
	data = append(data, 0, 0, 0, 0)
	data = append(data, frame1...)
	data = append(data, 0, 0, 0x03, 0xE8) // 1000us delay
	data = append(data, frame2...)

	delays, frames, err := readTraceRecords(data)

	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, uint32(0), delays[0])
	assert.Equal(t, uint32(1000), delays[1])

	id, payload, err := cobs.DecodeTachyon(frames[0])
	require.NoError(t, err)
	assert.Equal(t, uint16(0x100), id)
	assert.Equal(t, []byte{1, 2, 3}, payload)

	id, payload, err = cobs.DecodeTachyon(frames[1])
	require.NoError(t, err)
	assert.Equal(t, uint16(0x200), id)
	assert.Equal(t, []byte{4, 5}, payload)
}

func TestReadTraceRecordsRejectsTruncatedTrailer(t *testing.T) {
	_, _, err := readTraceRecords([]byte{0, 0, 0})

	assert.Error(t, err)
}

func TestReadTraceRecordsRejectsMissingDelimiter(t *testing.T) {
	_, _, err := readTraceRecords([]byte{0, 0, 0, 0, 1, 2, 3})

	assert.Error(t, err)
}
