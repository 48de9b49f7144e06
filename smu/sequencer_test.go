package smu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDAC struct {
	voltageCode, currentCode int32
	sourceOn, sinkOn         bool
	sourceEvents, sinkEvents []bool
}

func (d *fakeDAC) SetVoltageDAC(code int32) { d.voltageCode = code }
func (d *fakeDAC) SetCurrentDAC(code int32) { d.currentCode = code }
func (d *fakeDAC) SetSourceEnable(on bool) {
	d.sourceOn = on
	d.sourceEvents = append(d.sourceEvents, on)
}
func (d *fakeDAC) SetSinkEnable(on bool) {
	d.sinkOn = on
	d.sinkEvents = append(d.sinkEvents, on)
}

type seqClock struct{ t uint64 }

func (c *seqClock) now() uint64      { return c.t }
func (c *seqClock) advance(d uint64) { c.t += d }

func TestSequencerEnableFromBelowDrivesRailLowFirst(t *testing.T) {
	dac := &fakeDAC{}
	clk := &seqClock{}
	s := NewSequencer(dac, clk.now, 0, 4095)

	s.Enable(2000, 500, 0) // target above present -> source first

	assert.Equal(t, ResetIntegrator, s.State())
	assert.Equal(t, int32(0), dac.voltageCode) // driven to minCode
	assert.Equal(t, int32(500), dac.currentCode)
	assert.False(t, dac.sourceOn)
	assert.False(t, dac.sinkOn)

	clk.advance(integratorResetTimeUS + 1)
	s.Poll()

	require.Equal(t, SingleEnable, s.State())
	assert.Equal(t, int32(2000), dac.voltageCode)
	assert.True(t, dac.sourceOn)
	assert.False(t, dac.sinkOn)

	clk.advance(integratorResetTimeUS + 1)
	s.Poll()

	assert.Equal(t, Enabled, s.State())
	assert.True(t, dac.sourceOn)
	assert.True(t, dac.sinkOn)
}

func TestSequencerEnableFromAboveDrivesRailHighFirst(t *testing.T) {
	dac := &fakeDAC{}
	clk := &seqClock{}
	s := NewSequencer(dac, clk.now, 0, 4095)

	s.Enable(1000, 200, 3000) // target below present -> sink first

	assert.Equal(t, int32(4095), dac.voltageCode)

	clk.advance(integratorResetTimeUS + 1)
	s.Poll()
	assert.True(t, dac.sinkOn)
	assert.False(t, dac.sourceOn)

	clk.advance(integratorResetTimeUS + 1)
	s.Poll()
	assert.Equal(t, Enabled, s.State())
	assert.True(t, dac.sourceOn)
	assert.True(t, dac.sinkOn)
}

func TestSequencerDoesNotAdvanceBeforeDeadline(t *testing.T) {
	dac := &fakeDAC{}
	clk := &seqClock{}
	s := NewSequencer(dac, clk.now, 0, 4095)

	s.Enable(2000, 500, 0)
	clk.advance(integratorResetTimeUS / 2)
	s.Poll()

	assert.Equal(t, ResetIntegrator, s.State())
}

func TestSequencerSetTargetBufferedUntilEnabled(t *testing.T) {
	dac := &fakeDAC{}
	clk := &seqClock{}
	s := NewSequencer(dac, clk.now, 0, 4095)

	s.Enable(2000, 500, 0)
	s.SetTarget(2500, 600)

	// Not applied yet: still mid-sequence with rail driven low.
	assert.Equal(t, int32(0), dac.voltageCode)

	clk.advance(integratorResetTimeUS + 1)
	s.Poll()
	clk.advance(integratorResetTimeUS + 1)
	s.Poll()

	require.Equal(t, Enabled, s.State())

	s.SetTarget(2800, 700)
	assert.Equal(t, int32(2800), dac.voltageCode)
	assert.Equal(t, int32(700), dac.currentCode)
}

func TestSequencerDisableTurnsOffBothTransistorsImmediately(t *testing.T) {
	dac := &fakeDAC{}
	clk := &seqClock{}
	s := NewSequencer(dac, clk.now, 0, 4095)

	s.Enable(2000, 500, 0)
	clk.advance(integratorResetTimeUS + 1)
	s.Poll()
	clk.advance(integratorResetTimeUS + 1)
	s.Poll()
	require.Equal(t, Enabled, s.State())

	s.Disable()

	assert.Equal(t, Disabled, s.State())
	assert.False(t, dac.sourceOn)
	assert.False(t, dac.sinkOn)
}
