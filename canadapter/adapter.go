// Package canadapter implements the CAN Adapter firmware personality:
// a host-facing SLCAN ASCII link or Tachyon binary telemetry stream
// bridged to a physical CAN bus (spec §1, §4.D, §4.G).
package canadapter

import (
	"github.com/usbarmory/canbridge/can"
	"github.com/usbarmory/canbridge/cobs"
	"github.com/usbarmory/canbridge/datalogger"
	"github.com/usbarmory/canbridge/hal"
	"github.com/usbarmory/canbridge/slcan"
	"github.com/usbarmory/canbridge/timeutil"
)

// SelfResetPollPeriodUS is how often the run loop checks the CAN
// controller's self-reset flag (spec §7's "CAN controller self-reset").
const SelfResetPollPeriodUS = 100_000

// RedPulseUS and YellowPulseUS are how long the status LED holds its
// error/activity color after the triggering event, spec §6.
const (
	RedPulseUS    = 300_000
	YellowPulseUS = 100_000
)

// Adapter implements runloop.Device for the CAN Adapter firmware: an
// SLCAN engine (ASCII mode) or direct Tachyon framing (binary
// telemetry mode) over a non-blocking serial endpoint, backed by a
// physical CAN controller.
type Adapter struct {
	serial hal.SerialEndpoint
	bus    hal.CANBus
	clock  *timeutil.Clock

	engine    *slcan.Engine
	telemetry *can.Ring

	tachyonMode bool
	mode        slcan.Mode

	heartbeatTicker *timeutil.Ticker
	selfResetTicker *timeutil.Ticker

	lastTXAt    uint64
	lastResetAt uint64
	haveResetAt bool

	// EnableSelfTest is an advisory boot flag for a chip self-test
	// bring-up mode, false by default. Nothing in this package reads
	// it: no self-test sequence exists in this tree (chip-internal
	// self-test bits sit below hal.CANBus's abstraction line), so
	// setting it changes no behavior.
	EnableSelfTest bool
}

// New constructs an Adapter. clock must already have had Start called.
func New(serial hal.SerialEndpoint, bus hal.CANBus, clock *timeutil.Clock, tachyonMode bool) *Adapter {
	a := &Adapter{
		serial:      serial,
		bus:         bus,
		clock:       clock,
		tachyonMode: tachyonMode,
		telemetry:   can.NewRing(),
	}

	a.engine = slcan.New(serial, a.telemetry, slcan.Callbacks{
		Transmit: a.transmit,
		Bitrate:  a.setBitrate,
		Mode:     a.setMode,
	})
	a.engine.IgnoreConfig = tachyonMode
	if tachyonMode {
		// Tachyon mode has no ASCII O/L/C control surface; the link is
		// open for business as soon as the host connects, and
		// IgnoreConfig above makes a stray SLCAN command harmlessly
		// succeed instead of reaching setMode.
		a.mode = slcan.ModeOpen
	}

	a.heartbeatTicker = datalogger.NewHeartbeatTicker(clock)
	a.selfResetTicker = timeutil.NewTicker(clock, SelfResetPollPeriodUS)

	return a
}

func (a *Adapter) transmit(e can.Event) bool {
	if a.mode != slcan.ModeOpen {
		return false
	}
	if err := a.bus.Transmit(e); err != nil {
		return false
	}
	a.lastTXAt = a.clock.NowUS()
	return true
}

func (a *Adapter) setBitrate(bitrate uint32) bool {
	return a.bus.SetBitrate(bitrate) == nil
}

func (a *Adapter) setMode(m slcan.Mode) bool {
	a.mode = m
	return true
}

// Mode reports the bus mode last set by an O/L/C command. It starts as
// ModeClosed in SLCAN mode and as ModeOpen in Tachyon mode.
func (a *Adapter) Mode() slcan.Mode { return a.mode }

// PollInputs implements runloop.Device. The CAN Adapter has no
// front-panel input beyond its host serial link.
func (a *Adapter) PollInputs() {}

// HandleCANEvent implements runloop.Device: in Tachyon mode, encode
// and write the frame directly; in SLCAN mode, queue it onto the
// engine's own telemetry ring for formatting on the next Update.
func (a *Adapter) HandleCANEvent(e can.Event) {
	if a.mode == slcan.ModeClosed {
		return
	}

	if !a.tachyonMode {
		if e.Kind != can.KindData {
			// Only data-frame events are meaningful on the wire (see
			// slcan.formatEvent); error events never reach the host.
			return
		}
		a.telemetry.Push(e)
		return
	}

	if e.Kind != can.KindData || e.Extended || e.RTR || e.ID > 0x7FF {
		// Tachyon's compact record only represents 11-bit data
		// frames (spec §3); anything else has no wire form here.
		return
	}

	frame, err := cobs.EncodeTachyon(uint16(e.ID), e.Data[:e.Len])
	if err != nil {
		return
	}

	a.serial.WriteBlockNB(frame)
}

// RunTickers implements runloop.Device.
func (a *Adapter) RunTickers() {
	a.engine.Update()

	if a.selfResetTicker.CheckExpired() && a.bus.SelfResetDetected() {
		a.lastResetAt = a.clock.NowUS()
		a.haveResetAt = true
	}

	if a.heartbeatTicker.CheckExpired() {
		heartbeat, status := datalogger.HeartbeatFrames(0, 0)
		a.transmit(heartbeat)
		a.transmit(status)
	}
}

// StatusColor implements runloop.Device, per spec §6's color code.
func (a *Adapter) StatusColor() hal.Color {
	now := a.clock.NowUS()

	if !a.serial.Connected() {
		return hal.LEDOff
	}

	if a.haveResetAt && now-a.lastResetAt < RedPulseUS {
		return hal.LEDRed
	}

	if a.mode == slcan.ModeClosed {
		return hal.LEDBlue
	}

	if now-a.lastTXAt < YellowPulseUS {
		return hal.LEDYellow
	}

	return hal.LEDGreen
}
