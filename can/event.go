// Package can implements the CAN receive event model and the
// single-producer/single-consumer ring that bridges an ISR-context CAN
// controller to the cooperative main loop (spec §3/§4.E).
package can

// ErrorKind enumerates the CAN controller error conditions the spec's
// Error event variant can carry.
type ErrorKind uint8

const (
	ErrorUnknown ErrorKind = iota
	ErrorWarning
	ErrorDataOverrun
	ErrorPassive
	ErrorArbitrationLost
	ErrorBusOff
)

// Kind tags which variant of Event is populated.
type Kind uint8

const (
	KindData Kind = iota
	KindError
)

// Event is the tagged CAN RX event: either a data frame or a
// controller error, each timestamped at the moment it was pushed onto
// the ring.
type Event struct {
	Kind Kind

	// Data frame fields, valid when Kind == KindData.
	ID       uint32
	Extended bool
	RTR      bool
	Len      uint8
	Data     [8]byte

	// Error fields, valid when Kind == KindError.
	Error ErrorKind

	// Source distinguishes the logical origin of the event when more
	// than one CAN controller or virtual source feeds the same ring
	// (SPEC_FULL.md §3); zero for the single physical bus case.
	Source uint8

	TimestampUS uint64
}

// DataEvent builds a KindData Event. data must be 0..8 bytes.
func DataEvent(id uint32, extended, rtr bool, data []byte, timestampUS uint64) Event {
	var e Event
	e.Kind = KindData
	e.ID = id
	e.Extended = extended
	e.RTR = rtr
	e.Len = uint8(len(data))
	copy(e.Data[:], data)
	e.TimestampUS = timestampUS
	return e
}

// ErrorEvent builds a KindError Event.
func ErrorEvent(kind ErrorKind, timestampUS uint64) Event {
	return Event{Kind: KindError, Error: kind, TimestampUS: timestampUS}
}
