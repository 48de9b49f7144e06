// Package pd implements the USB-PD controller driver (spec §4.H) and
// negotiation state machine (spec §4.I) for a FUSB302-style Type-C
// port controller, grounded on oxplot/go-typec's fusb302 driver.
package pd

// Header is the 16-bit little-endian USB-PD message header (spec §3).
type Header uint16

// Control message types (valid when Header.NumDataObjects() == 0).
const (
	CtrlGoodCRC MessageType = 1
	CtrlAccept  MessageType = 3
	CtrlReject  MessageType = 4
	CtrlPSRDY   MessageType = 6
)

// Data message types (valid when Header.NumDataObjects() > 0).
const (
	DataSourceCapabilities MessageType = 1
	DataRequest            MessageType = 2
)

// MessageType is the 5-bit type field, interpreted as a control or
// data message type depending on NumDataObjects.
type MessageType uint8

func (h Header) Type() MessageType   { return MessageType(h & 0x1F) }
func (h Header) DataRole() bool      { return h&(1<<5) != 0 }
func (h Header) Revision() uint8     { return uint8((h >> 6) & 0x3) }
func (h Header) PowerRole() bool     { return h&(1<<8) != 0 }
func (h Header) MessageID() uint8    { return uint8((h >> 9) & 0x7) }
func (h Header) NumDataObjects() int { return int((h >> 12) & 0x7) }
func (h Header) Extended() bool      { return h&(1<<15) != 0 }
func (h Header) IsData() bool        { return h.NumDataObjects() > 0 }

// BuildHeader constructs a Header for a message with msgType, carrying
// numObjects data objects, tagged with messageID (0..7) and the
// Sink power role (this driver only ever operates as a PD sink).
func BuildHeader(msgType MessageType, numObjects int, messageID uint8) Header {
	var h uint16
	h |= uint16(msgType) & 0x1F
	h |= uint16(1) << 6 // spec revision 2.0, matching fusb302's SpecRev1 switch setting
	h |= (uint16(messageID) & 0x7) << 9
	h |= (uint16(numObjects) & 0x7) << 12
	return Header(h)
}

// Message is a decoded USB-PD message: a header plus up to 7 raw
// 32-bit data objects.
type Message struct {
	Header Header
	Data   [7]uint32
}

// CapabilityType enumerates the PDO variants spec §3 names.
type CapabilityType uint8

const (
	FixedSupply CapabilityType = iota
	Battery
	Variable
	Augmented
)

// Capability is one decoded Power Data Object.
type Capability struct {
	Type               CapabilityType
	VoltageMV          uint16
	MaxCurrentMA       uint16
	DualRolePower      bool
	UnconstrainedPower bool
	Raw                uint32
}

// DecodeCapability decodes one raw PDO per spec §6's fixed-supply bit
// layout. Non-fixed-supply PDOs are returned with only Type and Raw
// populated — the spec's capability scenarios only exercise fixed
// supplies.
func DecodeCapability(raw uint32) Capability {
	c := Capability{Raw: raw}

	switch (raw >> 30) & 0x3 {
	case 0:
		c.Type = FixedSupply
		c.DualRolePower = raw&(1<<29) != 0
		c.UnconstrainedPower = raw&(1<<27) != 0
		c.VoltageMV = uint16((raw>>10)&0x3FF) * 50
		c.MaxCurrentMA = uint16(raw&0x3FF) * 10
	case 1:
		c.Type = Battery
	case 2:
		c.Type = Variable
	case 3:
		c.Type = Augmented
	}

	return c
}

// requestNoUSBSuspend is bit 24 of the Request data object: set to
// tell the source this sink is not invoking USB suspend, matching
// sendRequestCapability's UsbPd::maskAndShift(1, 10, 24) in the
// original firmware.
const requestNoUSBSuspend = 1 << 24

// RequestObject builds the 32-bit Request data object for
// object position pos (1-indexed) at currentMA, per spec §4.I.
func RequestObject(pos uint8, currentMA uint16) uint32 {
	units := uint32(currentMA / 10)
	var obj uint32
	obj |= units & 0x3FF         // operating current
	obj |= (units & 0x3FF) << 10 // max operating current
	obj |= requestNoUSBSuspend
	obj |= uint32(pos&0x7) << 28 // object position
	return obj
}
