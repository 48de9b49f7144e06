// Package timeutil provides the monotonic microsecond timebase and the
// periodic tickers that every device in this repository schedules its
// cooperative main loop against.
package timeutil

import "sync/atomic"

// HardwareCounter is a free-running microsecond counter that wraps at
// 2^32, as exposed by the MCU's free-running timer peripheral.
type HardwareCounter interface {
	Read() uint32
}

// Clock virtualizes a 32-bit free-running hardware microsecond counter
// into a 64-bit monotonic timestamp. Clock must not be copied after
// first use.
//
// Update must be called from the main loop at least once per hardware
// wrap period (2^32 us, roughly 71 minutes at 1MHz) or the virtualized
// timestamp silently falls behind — this is a timing-budget requirement
// on the caller, not a condition Clock can detect or report.
type Clock struct {
	hw HardwareCounter

	// upperHalf and lastLow are only ever touched by Update, which the
	// caller guarantees runs on the main loop alone. now() also reads
	// upperHalf from a possible ISR context (time.Now equivalents used
	// for event timestamping), so it is stored with atomic ops even
	// though there is a single writer.
	upperHalf atomic.Uint64
	lastLow   atomic.Uint32
}

// NewClock constructs a Clock reading from hw. Until Start is called,
// NowUS returns the raw hardware reading.
func NewClock(hw HardwareCounter) *Clock {
	return &Clock{hw: hw}
}

// Start initializes the upper half from the current hardware reading.
// Call once before the main loop begins.
func (c *Clock) Start() {
	c.lastLow.Store(c.hw.Read())
	c.upperHalf.Store(0)
}

// Update samples the hardware counter and advances the upper half by
// one wrap (2^32 us) if the raw value has decreased since the previous
// sample. Main-loop only.
func (c *Clock) Update() {
	low := c.hw.Read()

	if low < c.lastLow.Load() {
		c.upperHalf.Add(1 << 32)
	}

	c.lastLow.Store(low)
}

// NowUS returns the current monotonic time in microseconds. Safe to
// call from any context, including an ISR, at the cost of up to one
// hardware wrap of staleness if Update has fallen behind.
func (c *Clock) NowUS() uint64 {
	upper := c.upperHalf.Load()
	low := c.hw.Read()

	// A wrap may have happened between the last Update and this read;
	// detect it locally without mutating shared state so this method
	// stays safe to call concurrently with Update.
	if low < c.lastLow.Load() {
		upper += 1 << 32
	}

	return upper + uint64(low)
}
