package main

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbarmory/canbridge/datalogger"
)

func TestParseLogRecordsDecodesWriterOutput(t *testing.T) {
	var buf bytes.Buffer
	w := datalogger.NewWriter(&buf)

	require.True(t, w.WriteRecord(datalogger.InfoString{Text: "boot"}))
	require.True(t, w.WriteRecord(datalogger.ReceivedCanMessage{
		SourceID:  1,
		ID:        0x123,
		FrameType: datalogger.FrameStandard,
		RTRType:   datalogger.RTRData,
		Data:      []byte{0xAA, 0xBB},
	}))

	records, err := parseLogRecords(buf.Bytes())

	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, datalogger.TagInfoString, records[0].Tag)
	assert.Equal(t, "boot", string(records[0].Fields))

	assert.Equal(t, datalogger.TagReceivedCanMessage, records[1].Tag)
	fields := records[1].Fields
	require.True(t, len(fields) >= 8)
	assert.Equal(t, uint8(1), fields[0])
	assert.Equal(t, uint32(0x123), binary.BigEndian.Uint32(fields[1:5]))
	assert.Equal(t, byte(datalogger.FrameStandard), fields[5])
	assert.Equal(t, byte(datalogger.RTRData), fields[6])
	assert.Equal(t, byte(2), fields[7])
	assert.Equal(t, []byte{0xAA, 0xBB}, fields[8:10])
}

func TestParseLogRecordsRejectsTruncatedTrailer(t *testing.T) {
	var buf bytes.Buffer
	w := datalogger.NewWriter(&buf)
	require.True(t, w.WriteRecord(datalogger.InfoString{Text: "x"}))

	data := append(buf.Bytes(), 1, 2, 3) // trailing bytes after the last delimiter

	_, err := parseLogRecords(data)

	assert.Error(t, err)
}

func TestParseLogRecordsEmptyInput(t *testing.T) {
	records, err := parseLogRecords(nil)

	require.NoError(t, err)
	assert.Empty(t, records)
}
