// Package runloop implements the cooperative main loop spec §4.M
// describes: watchdog feed, monotonic clock update, CAN RX ring drain,
// device-specific tickers, and status LED reporting, shared by all
// three firmware personalities (CAN adapter, datalogger, SMU).
package runloop

import (
	"github.com/usbarmory/canbridge/can"
	"github.com/usbarmory/canbridge/hal"
)

// Device is the per-device behavior the shared Loop dispatches to.
// cmd/canadapter, cmd/datalogger and cmd/smu each provide one,
// wrapping their SLCAN engine, Tachyon encoder, datalogger FSM or PD
// negotiator behind this common shape.
type Device interface {
	// PollInputs samples reset/user-dismount switches and any other
	// digital inputs through their debounce filters. Called once per
	// loop pass before the CAN ring is drained.
	PollInputs()

	// HandleCANEvent processes one popped CAN RX event — SLCAN ASCII
	// echo, Tachyon COBS framing, or a datalogger record — per device
	// configuration.
	HandleCANEvent(can.Event)

	// RunTickers advances device-specific periodic duties: heartbeat,
	// voltage sense, file sync, LCD refresh.
	RunTickers()

	// StatusColor reports this pass's status LED color, per spec §6.
	StatusColor() hal.Color
}

// HardwareCounterAdapter adapts a hal.HardwareTimer (Now32) to
// timeutil.HardwareCounter (Read), the two driver-facing shapes the
// spec's chip-register boundary and the clock-virtualization package
// happen to name differently.
type HardwareCounterAdapter struct {
	Timer hal.HardwareTimer
}

// Read implements timeutil.HardwareCounter.
func (a HardwareCounterAdapter) Read() uint32 { return a.Timer.Now32() }
