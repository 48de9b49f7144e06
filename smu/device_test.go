package smu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbarmory/canbridge/hal"
	"github.com/usbarmory/canbridge/hal/simulated"
	"github.com/usbarmory/canbridge/hidproto"
	"github.com/usbarmory/canbridge/pd"
	"github.com/usbarmory/canbridge/timeutil"
)

// pdMeasureTimeUS mirrors pd's unexported measureTimeUS (1ms), so the
// CC-detection dance below waits long enough between polls.
const pdMeasureTimeUS = 1_000

type fakeADC struct {
	voltageCode, currentCode int32
	err                      error
}

func (f *fakeADC) ReadVoltageCode() (int32, error) { return f.voltageCode, f.err }
func (f *fakeADC) ReadCurrentCode() (int32, error) { return f.currentCode, f.err }

// fakeCC reports level1 > level0, so CC2 always wins detection, the
// same double pd's own tests use.
type fakeCC struct {
	enabled []uint8
}

func (c *fakeCC) EnableMeasure(pin uint8) error {
	c.enabled = append(c.enabled, pin)
	return nil
}

func (c *fakeCC) ReadLevel() (uint8, error) {
	if len(c.enabled) == 0 {
		return 0, nil
	}
	if c.enabled[len(c.enabled)-1] == 0 {
		return 1, nil
	}
	return 3, nil
}

type fakeCounter struct{ v uint32 }

func (f *fakeCounter) Read() uint32 { return f.v }

func newTestDevice(t *testing.T) (*Device, *fakeADC, *simulated.CANBus, *simulated.Serial, *simulated.DigitalIn, *simulated.DigitalIn, *simulated.DigitalIn, *fakeCounter) {
	t.Helper()

	hw := &fakeCounter{}
	clock := timeutil.NewClock(hw)
	clock.Start()

	seq := NewSequencer(&fakeDAC{}, clock.NowUS, 0, 4095)
	adc := &fakeADC{voltageCode: 2048, currentCode: 2048}

	i2cBus := simulated.NewI2CBus()
	ctrl := pd.NewController(i2cBus, 0x22)
	cc := &fakeCC{}
	negotiator := pd.NewNegotiator(ctrl, cc, clock.NowUS)

	bus := &simulated.CANBus{}
	serial := simulated.NewSerial()
	up := simulated.NewDigitalIn(false)
	down := simulated.NewDigitalIn(false)
	toggle := simulated.NewDigitalIn(false)

	d := NewDevice(
		seq, adc, negotiator, bus, serial, clock,
		up, down, toggle, 0,
		DefaultVoltageADC(), DefaultCurrentADC(), DefaultVoltageDAC(), DefaultCurrentDAC(),
		0, 4095,
	)

	return d, adc, bus, serial, up, down, toggle, hw
}

func TestDeviceToggleButtonClickEnablesThenDisablesOutput(t *testing.T) {
	d, _, _, _, _, _, toggle, _ := newTestDevice(t)

	toggle.Set(true)
	d.PollInputs() // pending rise
	d.PollInputs() // latches Rising -> ClickPress

	toggle.Set(false)
	d.PollInputs() // pending fall
	d.PollInputs() // latches Falling -> ClickRelease, toggles output on

	assert.True(t, d.Enabled())
	assert.Equal(t, ResetIntegrator, d.Sequencer().State())

	toggle.Set(true)
	d.PollInputs()
	d.PollInputs()
	toggle.Set(false)
	d.PollInputs()
	d.PollInputs()

	assert.False(t, d.Enabled())
	assert.Equal(t, Disabled, d.Sequencer().State())
}

func TestDeviceUpButtonClickStepsVoltageTargetUp(t *testing.T) {
	d, _, _, _, up, _, _, _ := newTestDevice(t)

	before, _ := d.Target()

	up.Set(true)
	d.PollInputs()
	d.PollInputs()
	up.Set(false)
	d.PollInputs()
	d.PollInputs()

	after, _ := d.Target()
	assert.Equal(t, before+panelVoltageStepMV, after)
}

func TestDeviceHandleSetTargetReportEnablesOutputAndRepliesWithTelemetry(t *testing.T) {
	d, _, _, serial, _, _, _, _ := newTestDevice(t)

	req := SetTargetPayload{VoltageMV: 3300, CurrentMA: 500, Enable: true}
	msg := hidproto.Message{Op: OpSetTarget, Payload: req.Encode()}
	for _, report := range hidproto.Fragment(msg.Encode(), hidproto.DefaultReportSize) {
		serial.FeedHost(report)
	}

	d.RunTickers()

	voltageMV, currentMA := d.Target()
	assert.Equal(t, int32(3300), voltageMV)
	assert.Equal(t, int32(500), currentMA)
	assert.True(t, d.Enabled())

	out := serial.TakeDeviceOutput()
	require.NotEmpty(t, out)

	r := hidproto.NewReassembler()
	var payload []byte
	var ready bool
	for i := 0; i < len(out); i += hidproto.DefaultReportSize {
		payload, ready = r.Feed(out[i : i+hidproto.DefaultReportSize])
	}
	require.True(t, ready)

	reply, ok := hidproto.DecodeMessage(payload)
	require.True(t, ok)
	assert.Equal(t, OpTelemetry, reply.Op)
}

func TestDeviceStatusColorOffBeforePDConnectedThenTracksSequencer(t *testing.T) {
	d, _, _, _, _, _, toggle, hw := newTestDevice(t)

	assert.Equal(t, hal.LEDOff, d.StatusColor())

	d.Negotiator().Poll() // Start -> DetectCc

	hw.v += pdMeasureTimeUS + 1
	d.Negotiator().Poll() // records level0, swaps pin

	hw.v += pdMeasureTimeUS + 1
	d.Negotiator().Poll() // records level1, resolves ccPin -> EnableTransceiver

	d.Negotiator().Poll() // -> WaitSourceCaps

	fivevolt := uint32(100)<<10 | uint32(300)
	caps := pd.BuildHeader(pd.DataSourceCapabilities, 1, 0)
	capsMsg := pd.Message{Header: caps}
	capsMsg.Data[0] = fivevolt
	d.Negotiator().HandleRX(capsMsg)

	require.Equal(t, pd.Connected, d.Negotiator().CurrentState())
	assert.Equal(t, hal.LEDBlue, d.StatusColor())

	toggle.Set(true)
	d.PollInputs()
	d.PollInputs()
	toggle.Set(false)
	d.PollInputs()
	d.PollInputs()
	require.True(t, d.Enabled())

	assert.Equal(t, hal.LEDYellow, d.StatusColor())
}
