package simulated

// Watchdog is an in-memory hal.Watchdog recording feed/reset calls so
// tests can assert the run loop is feeding it on every pass.
type Watchdog struct {
	FeedCount  int
	ResetCount int
}

// Feed implements hal.Watchdog.
func (w *Watchdog) Feed() { w.FeedCount++ }

// Reset implements hal.Watchdog.
func (w *Watchdog) Reset() { w.ResetCount++ }
