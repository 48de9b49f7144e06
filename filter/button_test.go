package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestButtonClickSequence(t *testing.T) {
	clk := &clockStub{}
	b := NewButton(clk.now, DefaultButtonTimings())

	clk.t = 0
	assert.Equal(t, ClickPress, b.Update(Rising))

	clk.t = 100_000
	assert.Equal(t, Down, b.Update(High))

	clk.t = 150_000
	assert.Equal(t, ClickRelease, b.Update(Falling))

	assert.Equal(t, Up, b.Update(Low))
}

func TestButtonHoldAndRepeat(t *testing.T) {
	clk := &clockStub{}
	b := NewButton(clk.now, DefaultButtonTimings())

	clk.t = 0
	b.Update(Rising)

	clk.t = 700_000
	assert.Equal(t, HoldTransition, b.Update(High))

	clk.t = 750_000
	assert.Equal(t, Hold, b.Update(High))

	clk.t = 800_000
	assert.Equal(t, HoldRepeat, b.Update(High))

	clk.t = 850_000
	assert.Equal(t, Hold, b.Update(High))

	clk.t = 900_000
	assert.Equal(t, HoldRepeat, b.Update(High))

	clk.t = 950_000
	assert.Equal(t, HoldRelease, b.Update(Falling))
}
