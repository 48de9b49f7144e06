package timeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClock(start uint32) (*Clock, *fakeCounter) {
	hw := &fakeCounter{v: start}
	c := NewClock(hw)
	c.Start()
	return c, hw
}

func TestTickerFiresEveryPeriod(t *testing.T) {
	clock, hw := newTestClock(0)
	ticker := NewTicker(clock, 100)
	ticker.Reset()

	fires := 0
	for us := uint32(1); us <= 1000; us++ {
		hw.v = us
		clock.Update()
		if ticker.CheckExpired() {
			fires++
		}
	}

	// Reset() fires at t=100,200,...,1000 — exactly 10 times.
	assert.Equal(t, 10, fires)
}

func TestTickerFirstCallExpiresImmediatelyWithoutReset(t *testing.T) {
	clock, _ := newTestClock(0)
	ticker := NewTicker(clock, 50)

	assert.True(t, ticker.CheckExpired())
}

func TestTickerResetDelaysNextFire(t *testing.T) {
	clock, hw := newTestClock(1000)
	ticker := NewTicker(clock, 100)
	ticker.Reset()

	hw.v = 1050
	clock.Update()
	assert.False(t, ticker.CheckExpired())

	hw.v = 1100
	clock.Update()
	assert.True(t, ticker.CheckExpired())
}
