package datalogger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMovingAverage8RampsInBeforeWindowFills(t *testing.T) {
	var m movingAverage8

	assert.Equal(t, int32(3000), m.Add(3000))
	assert.Equal(t, int32(2900), m.Add(2800))
}

func TestMovingAverage8DropsOldestOnceWindowFull(t *testing.T) {
	var m movingAverage8

	for i := 0; i < 8; i++ {
		m.Add(3000)
	}
	assert.Equal(t, int32(3000), m.Add(3000)) // still full of 3000s

	avg := m.Add(2000) // evicts one 3000, admits one 2000
	assert.Equal(t, int32((3000*7+2000)/8), avg)
}
