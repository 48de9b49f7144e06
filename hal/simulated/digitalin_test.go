package simulated

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigitalInReadsSetLevel(t *testing.T) {
	d := NewDigitalIn(false)
	assert.False(t, d.Read())

	d.Set(true)
	assert.True(t, d.Read())

	d.Set(false)
	assert.False(t, d.Read())
}
