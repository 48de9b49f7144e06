package datalogger

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/usbarmory/canbridge/cobs"
	"github.com/usbarmory/canbridge/hidproto"
)

// Payload is a typed datalogger record, spec §6's abstract record
// schema.
type Payload interface {
	// Tag identifies the record's concrete type on the wire.
	Tag() byte
	// Encode appends the record's fields (not including the tag) to
	// dst and returns the extended slice.
	Encode(dst []byte) []byte
}

// Record tags.
const (
	TagInfoString byte = iota + 1
	TagSourceDef
	TagRtcTime
	TagReceivedCanMessage
	TagCanError
	TagStatisticalAggregate
	TagIntHistogram
)

// SourceKind enumerates what a source-id refers to, for SourceDef.
type SourceKind uint8

const (
	SourceUnknown SourceKind = iota
	SourceCAN
	SourceTime
	SourceVoltage
	SourceTemperature
)

// FrameType distinguishes standard and extended CAN identifiers.
type FrameType uint8

const (
	FrameStandard FrameType = iota
	FrameExtended
)

// RTRType distinguishes data and remote frames.
type RTRType uint8

const (
	RTRData RTRType = iota
	RTRRemote
)

// CanErrorSource enumerates the bus error conditions CanError reports.
type CanErrorSource uint8

const (
	ErrSourceUnknown CanErrorSource = iota
	ErrSourceErrorWarning
	ErrSourceDataOverrun
	ErrSourceErrorPassive
	ErrSourceArbitrationLost
	ErrSourceBusOff
)

// InfoString is a human-readable annotation record.
type InfoString struct{ Text string }

func (r InfoString) Tag() byte { return TagInfoString }
func (r InfoString) Encode(dst []byte) []byte {
	return append(dst, r.Text...)
}

// SourceDef declares what a source-id means; written once at file
// open for each source in use.
type SourceDef struct {
	SourceID uint8
	Type     SourceKind
	Name     string
}

func (r SourceDef) Tag() byte { return TagSourceDef }
func (r SourceDef) Encode(dst []byte) []byte {
	dst = append(dst, r.SourceID, byte(r.Type))
	return append(dst, r.Name...)
}

// RtcTime records a real-time-clock reading.
type RtcTime struct{ UnixSeconds int64 }

func (r RtcTime) Tag() byte { return TagRtcTime }
func (r RtcTime) Encode(dst []byte) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(r.UnixSeconds))
	return append(dst, b[:]...)
}

// ReceivedCanMessage records one inbound CAN data frame.
type ReceivedCanMessage struct {
	SourceID  uint8
	ID        uint32
	FrameType FrameType
	RTRType   RTRType
	Data      []byte
}

func (r ReceivedCanMessage) Tag() byte { return TagReceivedCanMessage }
func (r ReceivedCanMessage) Encode(dst []byte) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], r.ID)
	dst = append(dst, r.SourceID)
	dst = append(dst, b[:]...)
	dst = append(dst, byte(r.FrameType), byte(r.RTRType), byte(len(r.Data)))
	return append(dst, r.Data...)
}

// CanError records a bus error condition.
type CanError struct {
	SourceID uint8
	Source   CanErrorSource
}

func (r CanError) Tag() byte { return TagCanError }
func (r CanError) Encode(dst []byte) []byte {
	return append(dst, r.SourceID, byte(r.Source))
}

// StatisticalAggregate summarizes a rail's samples since the last
// flush, emitted by the VoltageSaveTicker.
type StatisticalAggregate struct {
	SourceID   uint8
	N          uint32
	Min, Max   float32
	Avg, Stdev float32
}

func (r StatisticalAggregate) Tag() byte { return TagStatisticalAggregate }
func (r StatisticalAggregate) Encode(dst []byte) []byte {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], r.N)
	dst = append(dst, r.SourceID)
	dst = append(dst, n[:]...)
	for _, f := range []float32{r.Min, r.Max, r.Avg, r.Stdev} {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], math.Float32bits(f))
		dst = append(dst, b[:]...)
	}
	return dst
}

// IntHistogram records a bucketed distribution, e.g. loop-time.
type IntHistogram struct {
	SourceID uint8
	Buckets  []int32
	Counts   []uint32
}

func (r IntHistogram) Tag() byte { return TagIntHistogram }
func (r IntHistogram) Encode(dst []byte) []byte {
	dst = append(dst, r.SourceID, byte(len(r.Buckets)), byte(len(r.Counts)))
	for _, v := range r.Buckets {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v))
		dst = append(dst, b[:]...)
	}
	for _, v := range r.Counts {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		dst = append(dst, b[:]...)
	}
	return dst
}

// Writer appends records to an open log file, per spec §4.L's record
// writer: a 0x00 frame-boundary marker, then the length-delimited
// record COBS-encoded (cobs.Encode's own trailing 0x00 ends it).
type Writer struct {
	file io.Writer
}

// NewWriter constructs a Writer over file. A nil file is valid and
// makes WriteRecord a no-op returning false, matching spec's
// "on file-not-open, return failure silently".
func NewWriter(file io.Writer) *Writer {
	return &Writer{file: file}
}

// WriteRecord encodes p and appends it to the file, returning whether
// the write succeeded.
func (w *Writer) WriteRecord(p Payload) bool {
	if w.file == nil {
		return false
	}

	body := make([]byte, 0, 32)
	body = append(body, p.Tag())
	body = p.Encode(body)

	framed := hidproto.EncodeVarint(make([]byte, 0, len(body)+2), len(body))
	framed = append(framed, body...)

	encoded := cobs.Encode(framed)

	out := make([]byte, 0, len(encoded)+1)
	out = append(out, 0x00)
	out = append(out, encoded...)

	_, err := w.file.Write(out)
	return err == nil
}
