package runloop

import (
	"github.com/usbarmory/canbridge/can"
	"github.com/usbarmory/canbridge/hal"
	"github.com/usbarmory/canbridge/timeutil"
)

// defaultMaxEventsPerPass bounds how many ring events a single Step
// drains, so a CAN traffic burst cannot starve the watchdog feed
// within the spec's 3s budget.
const defaultMaxEventsPerPass = 32

// Loop is the shared cooperative main loop of spec §4.M: feed the
// watchdog, advance the monotonic clock, poll inputs, drain the CAN RX
// ring, run the device's tickers, and set the status LED — forever,
// with no suspension points anywhere in the pass.
type Loop struct {
	wdg   hal.Watchdog
	clock *timeutil.Clock
	ring  *can.Ring
	led   hal.StatusLED
	dev   Device

	// MaxEventsPerPass overrides defaultMaxEventsPerPass; zero keeps
	// the default.
	MaxEventsPerPass int

	// LoopTimeUS, if set, is called after every Step with the wall
	// time spent in that pass. Nothing in this tree sets it, and no
	// loop-time histogram is kept or written.
	LoopTimeUS func(deltaUS uint64)
}

// NewLoop constructs a Loop. clock must already have had Start called.
func NewLoop(wdg hal.Watchdog, clock *timeutil.Clock, ring *can.Ring, led hal.StatusLED, dev Device) *Loop {
	return &Loop{wdg: wdg, clock: clock, ring: ring, led: led, dev: dev}
}

func (l *Loop) maxEventsPerPass() int {
	if l.MaxEventsPerPass > 0 {
		return l.MaxEventsPerPass
	}
	return defaultMaxEventsPerPass
}

// Step runs exactly one pass of the loop. Run calls it forever; tests
// call it directly for deterministic, single-iteration assertions.
func (l *Loop) Step() {
	start := l.clock.NowUS()

	l.wdg.Feed()
	l.clock.Update()
	l.dev.PollInputs()

	max := l.maxEventsPerPass()
	for i := 0; i < max; i++ {
		ev, ok := l.ring.Pop()
		if !ok {
			break
		}
		l.dev.HandleCANEvent(ev)
	}

	l.dev.RunTickers()
	l.led.Set(l.dev.StatusColor())

	if l.LoopTimeUS != nil {
		l.LoopTimeUS(l.clock.NowUS() - start)
	}
}

// Run executes Step forever. It never returns — the watchdog is the
// only way to recover a stalled iteration.
func (l *Loop) Run() {
	for {
		l.Step()
	}
}
