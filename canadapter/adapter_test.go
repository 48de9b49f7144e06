package canadapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbarmory/canbridge/can"
	"github.com/usbarmory/canbridge/hal"
	"github.com/usbarmory/canbridge/hal/simulated"
	"github.com/usbarmory/canbridge/slcan"
	"github.com/usbarmory/canbridge/timeutil"
)

type fakeCounter struct{ v uint32 }

func (f *fakeCounter) Read() uint32 { return f.v }

func newTestAdapter(t *testing.T, tachyon bool) (*Adapter, *simulated.Serial, *simulated.CANBus, *fakeCounter, *timeutil.Clock) {
	t.Helper()

	hw := &fakeCounter{}
	clock := timeutil.NewClock(hw)
	clock.Start()

	serial := simulated.NewSerial()
	bus := &simulated.CANBus{}

	a := New(serial, bus, clock, tachyon)

	return a, serial, bus, hw, clock
}

func TestStatusColorOffWhenDisconnected(t *testing.T) {
	a, serial, _, _, _ := newTestAdapter(t, false)
	serial.Disconnect()

	assert.Equal(t, hal.LEDOff, a.StatusColor())
}

func TestStatusColorBlueWhenClosed(t *testing.T) {
	a, _, _, _, _ := newTestAdapter(t, false)

	assert.Equal(t, hal.LEDBlue, a.StatusColor())
}

func TestStatusColorYellowPulseAfterTransmit(t *testing.T) {
	a, serial, bus, hw, clock := newTestAdapter(t, false)

	serial.FeedHost([]byte("O\r"))
	a.RunTickers()
	require.Equal(t, slcan.ModeOpen, a.Mode())

	serial.FeedHost([]byte("t1232DEAD\r"))
	a.RunTickers()

	require.NotEmpty(t, bus.Sent)
	assert.Equal(t, uint32(0x123), bus.Sent[len(bus.Sent)-1].ID)
	assert.Equal(t, hal.LEDYellow, a.StatusColor())

	hw.v += YellowPulseUS + 1
	clock.Update()
	assert.Equal(t, hal.LEDGreen, a.StatusColor())
}

func TestStatusColorRedPulseAfterSelfReset(t *testing.T) {
	a, _, bus, hw, clock := newTestAdapter(t, false)
	a.selfResetTicker.Reset()

	bus.InjectSelfReset()
	hw.v += SelfResetPollPeriodUS + 1
	clock.Update()
	a.RunTickers()

	assert.Equal(t, hal.LEDRed, a.StatusColor())

	hw.v += RedPulseUS + 1
	clock.Update()
	assert.Equal(t, hal.LEDBlue, a.StatusColor())
}

func TestHandleCANEventSLCANModeQueuesTelemetry(t *testing.T) {
	a, serial, _, _, _ := newTestAdapter(t, false)
	serial.FeedHost([]byte("O\r"))
	a.RunTickers()

	ev := can.DataEvent(0x123, false, false, []byte{0xde, 0xad}, 0)
	a.HandleCANEvent(ev)
	a.RunTickers()

	out := serial.TakeDeviceOutput()
	assert.Contains(t, string(out), "t1232DEAD")
}

func TestHandleCANEventSLCANModeDropsErrorEvents(t *testing.T) {
	a, serial, _, _, _ := newTestAdapter(t, false)
	serial.FeedHost([]byte("O\r"))
	a.RunTickers()
	serial.TakeDeviceOutput()

	a.HandleCANEvent(can.ErrorEvent(can.ErrorBusOff, 0))
	a.RunTickers()

	out := serial.TakeDeviceOutput()
	assert.Empty(t, out)
}

func TestHandleCANEventTachyonModeWritesFrame(t *testing.T) {
	a, serial, _, _, _ := newTestAdapter(t, true)
	require.Equal(t, slcan.ModeOpen, a.Mode())

	ev := can.DataEvent(0x123, false, false, []byte{0xde, 0xad}, 0)
	a.HandleCANEvent(ev)

	out := serial.TakeDeviceOutput()
	assert.NotEmpty(t, out)
}

func TestHandleCANEventTachyonModeDropsExtended(t *testing.T) {
	a, serial, _, _, _ := newTestAdapter(t, true)

	ev := can.DataEvent(0x1ABCDE, true, false, []byte{0x01}, 0)
	a.HandleCANEvent(ev)

	out := serial.TakeDeviceOutput()
	assert.Empty(t, out)
}

func TestListenOnlyModeRejectsTransmit(t *testing.T) {
	a, serial, bus, _, _ := newTestAdapter(t, false)
	serial.FeedHost([]byte("L\r"))
	a.RunTickers()
	require.Equal(t, slcan.ModeListenOnly, a.Mode())

	ok := a.transmit(can.DataEvent(0x10, false, false, nil, 0))
	assert.False(t, ok)
	assert.Empty(t, bus.Sent)
}

func TestHeartbeatTickerTransmitsOnceChannelIsOpen(t *testing.T) {
	a, serial, bus, _, _ := newTestAdapter(t, false)

	serial.FeedHost([]byte("O\r"))
	a.RunTickers()

	require.NotEmpty(t, bus.Sent)
	assert.Equal(t, uint32(0x049), bus.Sent[0].ID)
}

func TestHeartbeatDoesNotTransmitBeforeChannelOpen(t *testing.T) {
	a, _, bus, _, _ := newTestAdapter(t, false)

	a.RunTickers()

	assert.Empty(t, bus.Sent)
}
