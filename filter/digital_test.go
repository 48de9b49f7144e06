package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type clockStub struct{ t uint64 }

func (c *clockStub) now() uint64 { return c.t }

func TestDigitalGlitchNeverFlips(t *testing.T) {
	clk := &clockStub{}
	f := NewDigital(clk.now, 100, 100)

	assert.Equal(t, Low, f.Update(false))

	// glitch high for less than the rise delay
	clk.t = 0
	f.Update(true)
	clk.t = 50 // < 100us deadline
	level := f.Update(true)
	assert.Equal(t, Low, level)

	// glitch falls back to low before the deadline: never committed
	clk.t = 60
	level = f.Update(false)
	assert.Equal(t, Low, level)
}

func TestDigitalStableChangeFlipsOnce(t *testing.T) {
	clk := &clockStub{}
	f := NewDigital(clk.now, 100, 100)

	clk.t = 0
	assert.Equal(t, Low, f.Update(true)) // records transient, returns old level

	clk.t = 99
	assert.Equal(t, Low, f.Update(true)) // not yet past deadline

	clk.t = 100
	assert.Equal(t, Rising, f.Update(true)) // commits

	clk.t = 101
	assert.Equal(t, High, f.Update(true)) // steady state afterwards
}

func TestDigitalAsymmetricRiseFall(t *testing.T) {
	clk := &clockStub{}
	f := NewDigital(clk.now, 10, 1000)

	clk.t = 0
	f.Update(true)
	clk.t = 10
	assert.Equal(t, Rising, f.Update(true))

	clk.t = 10
	f.Update(false)
	clk.t = 500
	assert.Equal(t, High, f.Update(false)) // fall delay not yet elapsed
	clk.t = 1010
	assert.Equal(t, Falling, f.Update(false))
}

func TestAnalogHysteresisThresholds(t *testing.T) {
	clk := &clockStub{}
	a := NewAnalog(clk.now, 0, 0, 3000, 2800)

	assert.Equal(t, Low, a.Update(2000))
	assert.Equal(t, Low, a.Update(3100))    // crosses rising threshold, records transient
	assert.Equal(t, Rising, a.Update(3100)) // zero delay: second call commits
	assert.Equal(t, High, a.Update(2900))   // between thresholds: holds high
	assert.Equal(t, High, a.Update(2700))   // records falling transient
	assert.Equal(t, Falling, a.Update(2700))
}
