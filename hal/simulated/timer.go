// Package simulated implements hal's chip-register interfaces with
// in-memory state, for exercising timeutil/filter/can/slcan/pd/smu/
// datalogger end to end without real silicon. Grounded on gocanopen's
// virtual bus idiom (an in-memory stand-in behind the same interface
// the real driver satisfies), simplified here since no network
// transport is needed.
package simulated

import "sync/atomic"

// Timer is an in-memory hal.HardwareTimer: a free-running counter the
// test advances explicitly instead of reading real hardware.
type Timer struct {
	counter atomic.Uint32
}

// Now32 implements hal.HardwareTimer.
func (t *Timer) Now32() uint32 { return t.counter.Load() }

// Advance moves the counter forward by deltaUS microseconds, wrapping
// at 2^32 exactly like the real counter.
func (t *Timer) Advance(deltaUS uint32) {
	t.counter.Add(deltaUS)
}

// Set forces the counter to an exact value, mainly for exercising the
// wraparound boundary.
func (t *Timer) Set(v uint32) {
	t.counter.Store(v)
}
