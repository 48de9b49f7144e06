// Package smu implements the Source-Measure Unit's analog stage: linear
// ADC/DAC calibration and the staged enable sequencer that keeps the
// output integrator from slewing across its full range on enable,
// spec §4.J.
package smu

// Calibration holds a linear slope/intercept pair for one ADC or DAC
// channel, fixed-point scaled by 1000 to avoid floating point on
// hardware without an FPU.
type Calibration struct {
	Slope     int64
	Intercept int64
}

// unityGain is the slope value that makes RawToMV/MVToRaw the identity
// function: slope pre-scaled by 1e6 per spec §4.J's conversion
// formulas cancels to a 1:1 mapping.
const unityGain = 1_000_000

// DefaultVoltageADC, DefaultCurrentADC, DefaultVoltageDAC and
// DefaultCurrentDAC are unity-gain placeholders used until a unit is
// individually calibrated.
func DefaultVoltageADC() Calibration { return Calibration{Slope: unityGain, Intercept: 0} }
func DefaultCurrentADC() Calibration { return Calibration{Slope: unityGain, Intercept: 0} }
func DefaultVoltageDAC() Calibration { return Calibration{Slope: unityGain, Intercept: 0} }
func DefaultCurrentDAC() Calibration { return Calibration{Slope: unityGain, Intercept: 0} }

// RawToMV converts a raw ADC code to millivolts (or milliamps, for a
// current channel), per spec §4.J: adc_to_mv(raw) = (raw - intercept)
// * 1e6 / slope, with slope/intercept pre-scaled by 1000.
func (c Calibration) RawToMV(raw int32) int32 {
	return int32((int64(raw) - c.Intercept) * 1_000_000 / c.Slope)
}

// MVToRaw converts millivolts (or milliamps) to a raw DAC code, per
// spec §4.J: mv_to_dac(mv) = mv * slope / 1e6 + intercept.
func (c Calibration) MVToRaw(mv int32) int32 {
	return int32(int64(mv)*c.Slope/1_000_000 + c.Intercept)
}
