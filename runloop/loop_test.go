package runloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbarmory/canbridge/can"
	"github.com/usbarmory/canbridge/hal"
	"github.com/usbarmory/canbridge/hal/simulated"
	"github.com/usbarmory/canbridge/timeutil"
)

type fakeDevice struct {
	polls      int
	events     []can.Event
	tickerRuns int
	color      hal.Color
}

func (d *fakeDevice) PollInputs()                { d.polls++ }
func (d *fakeDevice) HandleCANEvent(e can.Event) { d.events = append(d.events, e) }
func (d *fakeDevice) RunTickers()                { d.tickerRuns++ }
func (d *fakeDevice) StatusColor() hal.Color     { return d.color }

func newTestLoop(dev Device) (*Loop, *simulated.Watchdog, *simulated.LED, *can.Ring) {
	wdg := &simulated.Watchdog{}
	led := &simulated.LED{}
	ring := can.NewRing()
	timer := &simulated.Timer{}
	clock := timeutil.NewClock(HardwareCounterAdapter{Timer: timer})
	clock.Start()

	return NewLoop(wdg, clock, ring, led, dev), wdg, led, ring
}

func TestStepFeedsWatchdogEveryPass(t *testing.T) {
	dev := &fakeDevice{}
	loop, wdg, _, _ := newTestLoop(dev)

	loop.Step()
	loop.Step()
	loop.Step()

	assert.Equal(t, 3, wdg.FeedCount)
	assert.Equal(t, 3, dev.polls)
	assert.Equal(t, 3, dev.tickerRuns)
}

func TestStepDrainsQueuedCANEventsInOrder(t *testing.T) {
	dev := &fakeDevice{}
	loop, _, _, ring := newTestLoop(dev)

	ring.Push(can.DataEvent(0x100, false, false, []byte{1}, 0))
	ring.Push(can.DataEvent(0x101, false, false, []byte{2}, 0))

	loop.Step()

	require.Len(t, dev.events, 2)
	assert.Equal(t, uint32(0x100), dev.events[0].ID)
	assert.Equal(t, uint32(0x101), dev.events[1].ID)
}

func TestStepSetsStatusLEDFromDevice(t *testing.T) {
	dev := &fakeDevice{color: hal.LEDGreen}
	loop, _, led, _ := newTestLoop(dev)

	loop.Step()

	assert.Equal(t, hal.LEDGreen, led.Current)
}

func TestStepBoundsEventsDrainedPerPass(t *testing.T) {
	dev := &fakeDevice{}
	loop, _, _, ring := newTestLoop(dev)
	loop.MaxEventsPerPass = 2

	ring.Push(can.DataEvent(1, false, false, nil, 0))
	ring.Push(can.DataEvent(2, false, false, nil, 0))
	ring.Push(can.DataEvent(3, false, false, nil, 0))

	loop.Step()
	assert.Len(t, dev.events, 2)

	loop.Step()
	assert.Len(t, dev.events, 3)
}

func TestStepReportsLoopTime(t *testing.T) {
	dev := &fakeDevice{}
	loop, _, _, _ := newTestLoop(dev)

	var reported uint64
	var called bool
	loop.LoopTimeUS = func(deltaUS uint64) {
		called = true
		reported = deltaUS
	}

	loop.Step()

	assert.True(t, called)
	assert.GreaterOrEqual(t, reported, uint64(0))
}
