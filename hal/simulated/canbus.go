package simulated

import (
	"github.com/usbarmory/canbridge/can"
)

// CANBus is an in-memory hal.CANBus: transmitted frames are recorded
// rather than put on a wire, and a self-reset can be injected by tests.
type CANBus struct {
	Sent    []can.Event
	Bitrate uint32

	TransmitErr error
	selfReset   bool
}

// Transmit implements hal.CANBus.
func (b *CANBus) Transmit(e can.Event) error {
	if b.TransmitErr != nil {
		return b.TransmitErr
	}
	b.Sent = append(b.Sent, e)
	return nil
}

// SetBitrate implements hal.CANBus.
func (b *CANBus) SetBitrate(bitsPerSecond uint32) error {
	b.Bitrate = bitsPerSecond
	return nil
}

// SelfResetDetected implements hal.CANBus. It reports, and clears, any
// self-reset condition injected with InjectSelfReset.
func (b *CANBus) SelfResetDetected() bool {
	v := b.selfReset
	b.selfReset = false
	return v
}

// InjectSelfReset marks the controller as having self-reset, for the
// next SelfResetDetected call.
func (b *CANBus) InjectSelfReset() {
	b.selfReset = true
}
