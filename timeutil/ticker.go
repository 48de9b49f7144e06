package timeutil

// Ticker is a periodic deadline checker backed by a Clock. Unlike a
// time.Ticker it never fires on its own — CheckExpired must be polled
// from the main loop, and fires at most once per call no matter how
// much time has elapsed.
type Ticker struct {
	clock    *Clock
	periodUS uint64
	nextFire uint64
}

// NewTicker constructs a Ticker with nextFire = 0, so the first
// CheckExpired call after construction returns true immediately unless
// Reset is called first.
func NewTicker(clock *Clock, periodUS uint64) *Ticker {
	return &Ticker{clock: clock, periodUS: periodUS}
}

// CheckExpired returns true at most once per period. On expiry it
// advances the deadline by exactly one period, not to now+period, so a
// caller that falls behind catches up one period per call rather than
// losing elapsed periods.
func (t *Ticker) CheckExpired() bool {
	if t.clock.NowUS() < t.nextFire {
		return false
	}

	t.nextFire += t.periodUS

	return true
}

// Reset schedules the next expiry at now + period, discarding any
// catch-up debt.
func (t *Ticker) Reset() {
	t.nextFire = t.clock.NowUS() + t.periodUS
}

// Period returns the ticker's configured period in microseconds.
func (t *Ticker) Period() uint64 {
	return t.periodUS
}
