package filter

// Gesture is the button event emitted once per poll of Button.Update.
type Gesture int

const (
	Up Gesture = iota
	ClickPress
	Down
	ClickRelease
	HoldTransition
	Hold
	HoldRepeat
	HoldRelease
)

// ButtonTimings configures a Button's gesture thresholds. Spec §4.C
// defaults.
type ButtonTimings struct {
	ClickUS      uint64
	HoldRepeatUS uint64
}

// DefaultButtonTimings returns the spec's default timings: 700ms click
// threshold, 100ms hold-repeat interval.
func DefaultButtonTimings() ButtonTimings {
	return ButtonTimings{ClickUS: 700_000, HoldRepeatUS: 100_000}
}

// Button turns debounced down/up edges into the click/hold/repeat
// gesture sequence described in spec §4.C.
type Button struct {
	nowUS   func() uint64
	timings ButtonTimings

	pressedAt    uint64
	longPress    bool
	lastRepeatAt uint64
}

// NewButton constructs a Button gesture recognizer.
func NewButton(nowUS func() uint64, timings ButtonTimings) *Button {
	return &Button{nowUS: nowUS, timings: timings}
}

// Update consumes one debounced level transition (as returned by a
// Digital filter wired to this button's GPIO) and returns the gesture
// for this poll.
func (b *Button) Update(level Level) Gesture {
	switch level {
	case Rising:
		b.pressedAt = b.nowUS()
		b.longPress = false
		b.lastRepeatAt = b.pressedAt
		return ClickPress

	case High:
		elapsed := b.nowUS() - b.pressedAt

		if !b.longPress {
			if elapsed < b.timings.ClickUS {
				return Down
			}
			b.longPress = true
			b.lastRepeatAt = b.nowUS()
			return HoldTransition
		}

		if b.nowUS()-b.lastRepeatAt >= b.timings.HoldRepeatUS {
			b.lastRepeatAt = b.nowUS()
			return HoldRepeat
		}
		return Hold

	case Falling:
		wasLong := b.longPress
		b.longPress = false
		if wasLong {
			return HoldRelease
		}
		return ClickRelease

	default: // Low
		return Up
	}
}
