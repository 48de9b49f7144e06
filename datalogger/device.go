package datalogger

import (
	"math"

	"github.com/usbarmory/canbridge/can"
	"github.com/usbarmory/canbridge/filter"
	"github.com/usbarmory/canbridge/hal"
	"github.com/usbarmory/canbridge/timeutil"
)

// voltageStats accumulates the supercap rail samples taken between two
// VoltageSaveTicker flushes, per spec §4.L's rail statistics record.
type voltageStats struct {
	n        uint32
	sum      float64
	sumSq    float64
	min, max float32
}

func (s *voltageStats) add(mv int32) {
	v := float32(mv)

	if s.n == 0 {
		s.min, s.max = v, v
	} else {
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
	}

	s.n++
	s.sum += float64(v)
	s.sumSq += float64(v) * float64(v)
}

func (s *voltageStats) aggregate(sourceID uint8) StatisticalAggregate {
	if s.n == 0 {
		return StatisticalAggregate{SourceID: sourceID}
	}

	avg := s.sum / float64(s.n)
	variance := s.sumSq/float64(s.n) - avg*avg
	if variance < 0 {
		variance = 0
	}

	return StatisticalAggregate{
		SourceID: sourceID,
		N:        s.n,
		Min:      s.min,
		Max:      s.max,
		Avg:      float32(avg),
		Stdev:    float32(math.Sqrt(variance)),
	}
}

func (s *voltageStats) reset() { *s = voltageStats{} }

// VoltageSensor reads the supercap backup rail the FSM gates
// mount/dismount on, in millivolts.
type VoltageSensor interface {
	ReadMV() (int32, error)
}

// ledColors maps the FSM's LED enum onto the run loop's shared
// hal.Color code (spec §6); the datalogger has no yellow/cyan state.
var ledColors = map[LED]hal.Color{
	LEDOff:    hal.LEDOff,
	LEDRed:    hal.LEDRed,
	LEDGreen:  hal.LEDGreen,
	LEDPurple: hal.LEDPurple,
	LEDBlue:   hal.LEDBlue,
}

// Device implements runloop.Device for the Datalogger firmware
// personality: it drives an FSM from card-detect/voltage/dismount
// inputs, appends inbound CAN traffic to the open log file, and
// injects the shared heartbeat/core-status frames onto the bus.
type Device struct {
	fsm   *FSM
	bus   hal.CANBus
	clock *timeutil.Clock

	cardDetect hal.DigitalIn
	voltage    VoltageSensor

	dismountPin     hal.DigitalIn
	dismountDigital *filter.Digital
	dismountButton  *filter.Button

	fileSyncTicker    *timeutil.Ticker
	voltageSaveTicker *timeutil.Ticker
	heartbeatTicker   *timeutil.Ticker

	sourceID uint8
	stats    voltageStats
}

// NewDevice constructs a Device. buttonDebounceUS is the rise/fall
// dwell time for the dismount button GPIO; card-detect debounce is
// configured on the FSM by NewFSM.
func NewDevice(fsm *FSM, bus hal.CANBus, clock *timeutil.Clock, cardDetect, dismountPin hal.DigitalIn, voltage VoltageSensor, buttonDebounceUS uint64) *Device {
	return &Device{
		fsm:        fsm,
		bus:        bus,
		clock:      clock,
		cardDetect: cardDetect,
		voltage:    voltage,

		dismountPin:     dismountPin,
		dismountDigital: filter.NewDigital(clock.NowUS, buttonDebounceUS, buttonDebounceUS),
		dismountButton:  filter.NewButton(clock.NowUS, filter.DefaultButtonTimings()),

		fileSyncTicker:    NewFileSyncTicker(clock),
		voltageSaveTicker: NewVoltageSaveTicker(clock),
		heartbeatTicker:   NewHeartbeatTicker(clock),

		sourceID: 0,
	}
}

// FSM returns the underlying file-lifecycle state machine.
func (d *Device) FSM() *FSM { return d.fsm }

// PollInputs implements runloop.Device: it samples card presence,
// supercap voltage and the dismount button, advancing the FSM and
// gesture recognizer by one step each.
func (d *Device) PollInputs() {
	voltageMV, err := d.voltage.ReadMV()
	if err != nil {
		voltageMV = 0
	}

	d.fsm.Update(d.cardDetect.Read(), voltageMV)
	d.stats.add(voltageMV)

	level := d.dismountDigital.Update(d.dismountPin.Read())
	if d.dismountButton.Update(level) == filter.ClickRelease {
		d.fsm.RequestUserDismount()
	}
}

// HandleCANEvent implements runloop.Device: while a file is open, it
// appends the event as a ReceivedCanMessage or CanError record
// depending on its Kind.
func (d *Device) HandleCANEvent(e can.Event) {
	w := d.fsm.Writer()
	if w == nil {
		return
	}

	if e.Kind == can.KindError {
		w.WriteRecord(CanError{
			SourceID: d.sourceID,
			Source:   canErrorSource(e.Error),
		})
		return
	}

	frameType := FrameStandard
	if e.Extended {
		frameType = FrameExtended
	}

	rtrType := RTRData
	if e.RTR {
		rtrType = RTRRemote
	}

	w.WriteRecord(ReceivedCanMessage{
		SourceID:  d.sourceID,
		ID:        e.ID,
		FrameType: frameType,
		RTRType:   rtrType,
		Data:      e.Data[:e.Len],
	})
}

// canErrorSource maps a can.ErrorKind onto its CanError wire enum.
func canErrorSource(kind can.ErrorKind) CanErrorSource {
	switch kind {
	case can.ErrorWarning:
		return ErrSourceErrorWarning
	case can.ErrorDataOverrun:
		return ErrSourceDataOverrun
	case can.ErrorPassive:
		return ErrSourceErrorPassive
	case can.ErrorArbitrationLost:
		return ErrSourceArbitrationLost
	case can.ErrorBusOff:
		return ErrSourceBusOff
	default:
		return ErrSourceUnknown
	}
}

// RunTickers implements runloop.Device: periodic fsync, rail-statistics
// flush and the shared heartbeat/core-status liveness frames.
func (d *Device) RunTickers() {
	if d.fileSyncTicker.CheckExpired() {
		if s, ok := d.fsm.File().(Syncer); ok {
			_ = s.Sync()
		}
	}

	if d.voltageSaveTicker.CheckExpired() {
		if w := d.fsm.Writer(); w != nil {
			w.WriteRecord(d.stats.aggregate(d.sourceID))
		}
		d.stats.reset()
	}

	if d.heartbeatTicker.CheckExpired() {
		heartbeat, status := HeartbeatFrames(0, 0)
		_ = d.bus.Transmit(heartbeat)
		_ = d.bus.Transmit(status)
	}
}

// StatusColor implements runloop.Device, per spec §6's SD indicator
// color code.
func (d *Device) StatusColor() hal.Color {
	return ledColors[d.fsm.LED()]
}
