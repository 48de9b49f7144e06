package smu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalibrationDefaultIsIdentity(t *testing.T) {
	c := DefaultVoltageADC()

	assert.Equal(t, int32(2500), c.RawToMV(2500))
	assert.Equal(t, int32(2500), c.MVToRaw(2500))
}

func TestCalibrationAppliesSlopeAndIntercept(t *testing.T) {
	// Actual gain of 2x with a 100-code offset: slope scaled to
	// 2,000,000, intercept 100.
	c := Calibration{Slope: 2_000_000, Intercept: 100}

	mv := c.RawToMV(600)
	assert.Equal(t, int32(250), mv) // (600-100)*1e6/2e6 = 250

	raw := c.MVToRaw(250)
	assert.Equal(t, int32(600), raw)
}

func TestCalibrationRoundTripsNegativeValues(t *testing.T) {
	c := Calibration{Slope: 1_000_000, Intercept: -50}

	mv := c.RawToMV(0)
	assert.Equal(t, int32(50), mv)

	raw := c.MVToRaw(50)
	assert.Equal(t, int32(0), raw)
}
