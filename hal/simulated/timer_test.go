package simulated

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimerAdvanceAccumulates(t *testing.T) {
	var tm Timer
	assert.Equal(t, uint32(0), tm.Now32())

	tm.Advance(1000)
	tm.Advance(2500)

	assert.Equal(t, uint32(3500), tm.Now32())
}

func TestTimerAdvanceWrapsAt32Bits(t *testing.T) {
	var tm Timer
	tm.Set(4294967000)

	tm.Advance(1000)

	assert.Equal(t, uint32(704), tm.Now32())
}
