package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/usbarmory/canbridge/cobs"
	"github.com/usbarmory/canbridge/datalogger"
	"github.com/usbarmory/canbridge/hidproto"
)

// logRecord is one decode-log entry: a record tag and its undecoded
// fields, as datalogger.Writer framed them.
type logRecord struct {
	Tag    byte
	Fields []byte
}

// parseLogRecords splits data on datalogger.Writer's 0x00 record
// boundaries and COBS-decodes and varint-unframes each record.
// Malformed individual records are skipped (logged, not fatal); a
// truncated trailer — bytes after the last delimiter — is an error,
// since it means the file was cut off mid-write.
func parseLogRecords(data []byte) ([]logRecord, error) {
	var records []logRecord

	for len(data) > 0 {
		end := bytes.IndexByte(data, 0x00)
		if end < 0 {
			return nil, fmt.Errorf("decode-log: trailing %d bytes without a frame delimiter", len(data))
		}

		frame := data[:end+1]
		data = data[end+1:]

		if len(frame) == 1 {
			// A lone delimiter between records: datalogger.Writer puts a
			// 0x00 marker before every record, right after the previous
			// record's own trailing 0x00 (or at the start of the file).
			continue
		}

		decoded, ok := cobs.Decode(frame)
		if !ok {
			log.Warn("decode-log: skipping frame with invalid COBS encoding")
			continue
		}

		length, consumed, ok := hidproto.DecodeVarint(decoded)
		if !ok || consumed+length > len(decoded) {
			log.Warn("decode-log: skipping frame with invalid length prefix")
			continue
		}

		body := decoded[consumed : consumed+length]
		if len(body) == 0 {
			log.Warn("decode-log: skipping empty record")
			continue
		}

		records = append(records, logRecord{Tag: body[0], Fields: body[1:]})
	}

	return records, nil
}

// runDecodeLog implements `canbridgectl decode-log <file>` (spec §6):
// it parses the captured datalogger file and prints each record.
func runDecodeLog(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("decode-log: exactly one file argument is required")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	records, err := parseLogRecords(data)
	if err != nil {
		return err
	}

	for i, r := range records {
		printRecord(i, r.Tag, r.Fields)
	}

	log.WithField("records", len(records)).Info("decode-log done")

	return nil
}

// printRecord decodes fields the way the matching Payload.Encode in
// datalogger/record.go wrote them (there is no decode side in that
// package, only Encode; this is decode-log's own mirror of it).
func printRecord(index int, tag byte, fields []byte) {
	switch tag {
	case datalogger.TagInfoString:
		fmt.Printf("%d InfoString %q\n", index, string(fields))

	case datalogger.TagSourceDef:
		if len(fields) < 2 {
			break
		}
		fmt.Printf("%d SourceDef source=%d type=%d name=%q\n", index, fields[0], fields[1], string(fields[2:]))

	case datalogger.TagRtcTime:
		if len(fields) < 8 {
			break
		}
		fmt.Printf("%d RtcTime unix=%d\n", index, int64(binary.BigEndian.Uint64(fields)))

	case datalogger.TagReceivedCanMessage:
		if len(fields) < 8 {
			break
		}
		id := binary.BigEndian.Uint32(fields[1:5])
		dataLen := int(fields[7])
		if len(fields) < 8+dataLen {
			break
		}
		data := fields[8 : 8+dataLen]
		fmt.Printf("%d ReceivedCanMessage source=%d id=%X frameType=%d rtr=%d data=% X\n",
			index, fields[0], id, fields[5], fields[6], data)

	case datalogger.TagCanError:
		if len(fields) < 2 {
			break
		}
		fmt.Printf("%d CanError source=%d kind=%d\n", index, fields[0], fields[1])

	case datalogger.TagStatisticalAggregate:
		if len(fields) < 21 {
			break
		}
		n := binary.BigEndian.Uint32(fields[1:5])
		min := math.Float32frombits(binary.BigEndian.Uint32(fields[5:9]))
		max := math.Float32frombits(binary.BigEndian.Uint32(fields[9:13]))
		avg := math.Float32frombits(binary.BigEndian.Uint32(fields[13:17]))
		stdev := math.Float32frombits(binary.BigEndian.Uint32(fields[17:21]))
		fmt.Printf("%d StatisticalAggregate source=%d n=%d min=%.3f max=%.3f avg=%.3f stdev=%.3f\n",
			index, fields[0], n, min, max, avg, stdev)

	default:
		fmt.Printf("%d tag=0x%02X raw=% X\n", index, tag, fields)
	}
}
