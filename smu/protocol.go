package smu

import "encoding/binary"

// Host<->device opcodes carried in a hidproto.Message, spec §4.K/§6.
const (
	// OpSetTarget (host to device) requests a new voltage/current
	// setpoint and whether the output should be driven at all.
	OpSetTarget uint8 = 0x01
	// OpTelemetry (device to host) reports the measured output and PD
	// negotiation status, sent on the heartbeat ticker and in reply to
	// OpSetTarget.
	OpTelemetry uint8 = 0x02
)

// SetTargetPayload is OpSetTarget's 9-byte payload.
type SetTargetPayload struct {
	VoltageMV int32
	CurrentMA int32
	Enable    bool
}

// Encode serializes p as big-endian voltage, current, then a single
// enable byte.
func (p SetTargetPayload) Encode() []byte {
	buf := make([]byte, 9)
	binary.BigEndian.PutUint32(buf[0:4], uint32(p.VoltageMV))
	binary.BigEndian.PutUint32(buf[4:8], uint32(p.CurrentMA))
	if p.Enable {
		buf[8] = 1
	}
	return buf
}

// DecodeSetTargetPayload parses an OpSetTarget payload.
func DecodeSetTargetPayload(payload []byte) (SetTargetPayload, bool) {
	if len(payload) < 9 {
		return SetTargetPayload{}, false
	}
	return SetTargetPayload{
		VoltageMV: int32(binary.BigEndian.Uint32(payload[0:4])),
		CurrentMA: int32(binary.BigEndian.Uint32(payload[4:8])),
		Enable:    payload[8] != 0,
	}, true
}

// TelemetryPayload is OpTelemetry's 11-byte payload.
type TelemetryPayload struct {
	VoltageMV   int32
	CurrentMA   int32
	DriveState  DriveState
	PowerStable bool
	CurrentCap  uint8
}

// Encode serializes p as big-endian voltage, current, drive state,
// power-stable flag, then the accepted PD capability position.
func (p TelemetryPayload) Encode() []byte {
	buf := make([]byte, 11)
	binary.BigEndian.PutUint32(buf[0:4], uint32(p.VoltageMV))
	binary.BigEndian.PutUint32(buf[4:8], uint32(p.CurrentMA))
	buf[8] = byte(p.DriveState)
	if p.PowerStable {
		buf[9] = 1
	}
	buf[10] = p.CurrentCap
	return buf
}

// DecodeTelemetryPayload parses an OpTelemetry payload, mainly for
// host-side tooling and tests.
func DecodeTelemetryPayload(payload []byte) (TelemetryPayload, bool) {
	if len(payload) < 11 {
		return TelemetryPayload{}, false
	}
	return TelemetryPayload{
		VoltageMV:   int32(binary.BigEndian.Uint32(payload[0:4])),
		CurrentMA:   int32(binary.BigEndian.Uint32(payload[4:8])),
		DriveState:  DriveState(payload[8]),
		PowerStable: payload[9] != 0,
		CurrentCap:  payload[10],
	}, true
}
