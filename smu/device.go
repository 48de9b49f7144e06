package smu

import (
	"github.com/usbarmory/canbridge/can"
	"github.com/usbarmory/canbridge/datalogger"
	"github.com/usbarmory/canbridge/filter"
	"github.com/usbarmory/canbridge/hal"
	"github.com/usbarmory/canbridge/hidproto"
	"github.com/usbarmory/canbridge/pd"
	"github.com/usbarmory/canbridge/timeutil"
)

// ADCReader reads the SMU's raw voltage and current ADC codes.
type ADCReader interface {
	ReadVoltageCode() (int32, error)
	ReadCurrentCode() (int32, error)
}

// defaultTargetVoltageMV, defaultTargetCurrentMA are the setpoint the
// output starts at before a host OpSetTarget or panel button changes
// it; panelVoltageStepMV is the per-click/hold-repeat panel adjustment.
const (
	defaultTargetVoltageMV = 0
	defaultTargetCurrentMA = 100
	panelVoltageStepMV     = 100
)

// RedPulseUS is how long the status LED holds red after an ADC read
// error, spec §6's error color held for a fixed dwell (same idiom as
// canadapter.RedPulseUS).
const RedPulseUS = 300_000

func clampCode(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Device implements runloop.Device for the SMU firmware personality:
// panel buttons and a host HID report channel both drive a target
// voltage/current through the staged output sequencer, while a PD
// negotiator sources the bus rail needed to supply it.
type Device struct {
	sequencer  *Sequencer
	adc        ADCReader
	negotiator *pd.Negotiator
	bus        hal.CANBus
	serial     hal.SerialEndpoint
	clock      *timeutil.Clock

	calVoltageADC, calCurrentADC Calibration
	calVoltageDAC, calCurrentDAC Calibration
	minCode, maxCode             int32

	upPin, downPin, togglePin             hal.DigitalIn
	upDigital, downDigital, toggleDigital *filter.Digital
	upButton, downButton, toggleButton    *filter.Button

	targetVoltageMV int32
	targetCurrentMA int32
	enabled         bool

	reassembler *hidproto.Reassembler
	reportBuf   []byte

	heartbeatTicker *timeutil.Ticker

	lastADCErrAt uint64
	haveADCErr   bool
}

// NewDevice constructs a Device. buttonDebounceUS is the shared
// rise/fall dwell for the three panel buttons.
func NewDevice(
	sequencer *Sequencer, adc ADCReader, negotiator *pd.Negotiator, bus hal.CANBus, serial hal.SerialEndpoint, clock *timeutil.Clock,
	upPin, downPin, togglePin hal.DigitalIn, buttonDebounceUS uint64,
	calVoltageADC, calCurrentADC, calVoltageDAC, calCurrentDAC Calibration,
	minCode, maxCode int32,
) *Device {
	return &Device{
		sequencer:  sequencer,
		adc:        adc,
		negotiator: negotiator,
		bus:        bus,
		serial:     serial,
		clock:      clock,

		calVoltageADC: calVoltageADC,
		calCurrentADC: calCurrentADC,
		calVoltageDAC: calVoltageDAC,
		calCurrentDAC: calCurrentDAC,
		minCode:       minCode,
		maxCode:       maxCode,

		upPin:     upPin,
		downPin:   downPin,
		togglePin: togglePin,

		upDigital:     filter.NewDigital(clock.NowUS, buttonDebounceUS, buttonDebounceUS),
		downDigital:   filter.NewDigital(clock.NowUS, buttonDebounceUS, buttonDebounceUS),
		toggleDigital: filter.NewDigital(clock.NowUS, buttonDebounceUS, buttonDebounceUS),

		upButton:     filter.NewButton(clock.NowUS, filter.DefaultButtonTimings()),
		downButton:   filter.NewButton(clock.NowUS, filter.DefaultButtonTimings()),
		toggleButton: filter.NewButton(clock.NowUS, filter.DefaultButtonTimings()),

		targetVoltageMV: defaultTargetVoltageMV,
		targetCurrentMA: defaultTargetCurrentMA,

		reassembler: hidproto.NewReassembler(),

		heartbeatTicker: datalogger.NewHeartbeatTicker(clock),
	}
}

// Sequencer returns the underlying output drive sequencer.
func (d *Device) Sequencer() *Sequencer { return d.sequencer }

// Negotiator returns the underlying USB-PD negotiation state machine.
func (d *Device) Negotiator() *pd.Negotiator { return d.negotiator }

// Target reports the currently requested voltage and current
// setpoint, mainly for tests and status reporting.
func (d *Device) Target() (voltageMV, currentMA int32) {
	return d.targetVoltageMV, d.targetCurrentMA
}

// Enabled reports whether the output sequencer has been started.
func (d *Device) Enabled() bool { return d.enabled }

func (d *Device) voltageCode(mv int32) int32 {
	return clampCode(d.calVoltageDAC.MVToRaw(mv), d.minCode, d.maxCode)
}

func (d *Device) currentCode(ma int32) int32 {
	return clampCode(d.calCurrentDAC.MVToRaw(ma), d.minCode, d.maxCode)
}

func (d *Device) recordADCErr() {
	d.lastADCErrAt = d.clock.NowUS()
	d.haveADCErr = true
}

// presentVoltageCode converts the last measured output voltage into
// the voltage DAC's code space, for Sequencer.Enable's startup
// polarity decision. A read error falls back to the target code,
// which picks PolaritySource — the safer default when present voltage
// is unknown.
func (d *Device) presentVoltageCode() int32 {
	raw, err := d.adc.ReadVoltageCode()
	if err != nil {
		d.recordADCErr()
		return d.voltageCode(d.targetVoltageMV)
	}
	return d.voltageCode(d.calVoltageADC.RawToMV(raw))
}

func (d *Device) enableOutput() {
	present := d.presentVoltageCode()
	d.sequencer.Enable(d.voltageCode(d.targetVoltageMV), d.currentCode(d.targetCurrentMA), present)
	d.enabled = true
}

func (d *Device) disableOutput() {
	d.sequencer.Disable()
	d.enabled = false
}

func (d *Device) applyTarget() {
	if d.enabled {
		d.sequencer.SetTarget(d.voltageCode(d.targetVoltageMV), d.currentCode(d.targetCurrentMA))
	}
}

func (d *Device) handleSetTarget(p SetTargetPayload) {
	d.targetVoltageMV = p.VoltageMV
	d.targetCurrentMA = p.CurrentMA

	switch {
	case p.Enable && !d.enabled:
		d.enableOutput()
	case !p.Enable && d.enabled:
		d.disableOutput()
	case p.Enable:
		d.applyTarget()
	}

	d.sendTelemetry()
}

func (d *Device) handleMessage(msg hidproto.Message) {
	switch msg.Op {
	case OpSetTarget:
		if p, ok := DecodeSetTargetPayload(msg.Payload); ok {
			d.handleSetTarget(p)
		}
	}
}

func (d *Device) sendTelemetry() {
	voltageRaw, vErr := d.adc.ReadVoltageCode()
	currentRaw, cErr := d.adc.ReadCurrentCode()
	if vErr != nil || cErr != nil {
		d.recordADCErr()
	}

	payload := TelemetryPayload{
		VoltageMV:   d.calVoltageADC.RawToMV(voltageRaw),
		CurrentMA:   d.calCurrentADC.RawToMV(currentRaw),
		DriveState:  d.sequencer.State(),
		PowerStable: d.negotiator.PowerStable(),
		CurrentCap:  d.negotiator.CurrentCap(),
	}

	msg := hidproto.Message{Op: OpTelemetry, Payload: payload.Encode()}
	for _, report := range hidproto.Fragment(msg.Encode(), hidproto.DefaultReportSize) {
		d.serial.WriteBlockNB(report)
	}
}

// readReport accumulates bytes off the serial link — standing in for
// a USB HID report endpoint, see board/usbarmory/mk2's serial adapter
// doc comment — until a full fixed-size report has arrived.
func (d *Device) readReport() ([]byte, bool) {
	for len(d.reportBuf) < hidproto.DefaultReportSize {
		b, ok := d.serial.ReadByte()
		if !ok {
			return nil, false
		}
		d.reportBuf = append(d.reportBuf, b)
	}

	report := d.reportBuf
	d.reportBuf = nil
	return report, true
}

func (d *Device) pollButton(pin hal.DigitalIn, digital *filter.Digital, button *filter.Button) filter.Gesture {
	level := digital.Update(pin.Read())
	return button.Update(level)
}

// PollInputs implements runloop.Device: the up/down buttons step the
// voltage target (on click and on hold-repeat, for fast adjustment);
// the toggle button starts or stops the output sequencer on a
// complete click.
func (d *Device) PollInputs() {
	switch d.pollButton(d.upPin, d.upDigital, d.upButton) {
	case filter.ClickPress, filter.HoldRepeat:
		d.targetVoltageMV += panelVoltageStepMV
		d.applyTarget()
	}

	switch d.pollButton(d.downPin, d.downDigital, d.downButton) {
	case filter.ClickPress, filter.HoldRepeat:
		d.targetVoltageMV -= panelVoltageStepMV
		d.applyTarget()
	}

	if d.pollButton(d.togglePin, d.toggleDigital, d.toggleButton) == filter.ClickRelease {
		if d.enabled {
			d.disableOutput()
		} else {
			d.enableOutput()
		}
	}
}

// HandleCANEvent implements runloop.Device. The SMU has no CAN-driven
// behavior beyond the shared heartbeat/core-status injection in
// RunTickers.
func (d *Device) HandleCANEvent(can.Event) {}

// RunTickers implements runloop.Device: advances the PD negotiator and
// output sequencer every pass, dispatches one completed host report if
// available, and injects the shared heartbeat/core-status frames plus
// a telemetry report on its tick.
func (d *Device) RunTickers() {
	d.negotiator.Poll()
	d.sequencer.Poll()

	if report, ok := d.readReport(); ok {
		if payload, complete := d.reassembler.Feed(report); complete {
			if msg, ok := hidproto.DecodeMessage(payload); ok {
				d.handleMessage(msg)
			}
		}
	}

	if d.heartbeatTicker.CheckExpired() {
		heartbeat, status := datalogger.HeartbeatFrames(0, 0)
		_ = d.bus.Transmit(heartbeat)
		_ = d.bus.Transmit(status)
		d.sendTelemetry()
	}
}

// StatusColor implements runloop.Device, per spec §6's color code:
// red on a recent ADC fault, off until PD negotiation completes, blue
// once connected but the output is disabled, yellow while the enable
// sequencer is staging, green once fully enabled.
func (d *Device) StatusColor() hal.Color {
	now := d.clock.NowUS()

	if d.haveADCErr && now-d.lastADCErrAt < RedPulseUS {
		return hal.LEDRed
	}

	if d.negotiator.CurrentState() != pd.Connected {
		return hal.LEDOff
	}

	switch d.sequencer.State() {
	case Disabled:
		return hal.LEDBlue
	case Enabled:
		return hal.LEDGreen
	default:
		return hal.LEDYellow
	}
}
