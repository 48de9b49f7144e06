package smu

// DriveState is one of the four stages of the output enable sequencer,
// spec §4.J.
type DriveState int

const (
	Disabled DriveState = iota
	ResetIntegrator
	SingleEnable
	Enabled
)

// integratorResetTimeUS is kIntegratorResetTimeMs (10 ms) expressed in
// microseconds, matching timeutil's clock resolution.
const integratorResetTimeUS = 10_000

// Polarity selects which transistor is enabled first during
// ResetIntegrator/SingleEnable, chosen so the integrator pre-charges
// toward the target rather than away from it.
type Polarity int

const (
	PolaritySource Polarity = iota
	PolaritySink
)

// DACWriter is the output side of the analog stage: the voltage and
// current DAC codes, and the two output transistor enables.
type DACWriter interface {
	SetVoltageDAC(code int32)
	SetCurrentDAC(code int32)
	SetSourceEnable(on bool)
	SetSinkEnable(on bool)
}

// Sequencer drives a DACWriter through the four-stage enable sequence
// spec §4.J describes, so closing both output transistors at once
// never forces the integrator to slew across its full range.
type Sequencer struct {
	dac DACWriter
	now func() uint64

	state DriveState

	minCode, maxCode int32
	startupPolarity  Polarity

	targetVoltageCode int32
	targetCurrentCode int32

	stageDeadline uint64
}

// NewSequencer constructs a Sequencer. minCode/maxCode are the
// voltage DAC's rail-low and rail-high output codes.
func NewSequencer(dac DACWriter, nowUS func() uint64, minCode, maxCode int32) *Sequencer {
	return &Sequencer{dac: dac, now: nowUS, minCode: minCode, maxCode: maxCode}
}

// State returns the sequencer's current drive state.
func (s *Sequencer) State() DriveState { return s.state }

// Enable begins the staged sequence toward targetVoltageCode, with
// currentCode loaded into the current-source/sink DAC. presentCode is
// the last measured output voltage code, used to pick the startup
// polarity: if the target is at or above present, the source
// transistor is enabled first (rail pulled up toward target); if
// below, the sink transistor is enabled first.
func (s *Sequencer) Enable(targetVoltageCode, currentCode, presentCode int32) {
	s.targetVoltageCode = targetVoltageCode
	s.targetCurrentCode = currentCode

	if targetVoltageCode >= presentCode {
		s.startupPolarity = PolaritySource
		s.dac.SetVoltageDAC(s.minCode)
	} else {
		s.startupPolarity = PolaritySink
		s.dac.SetVoltageDAC(s.maxCode)
	}

	s.dac.SetCurrentDAC(currentCode)
	s.dac.SetSourceEnable(false)
	s.dac.SetSinkEnable(false)

	s.stageDeadline = s.now() + integratorResetTimeUS
	s.state = ResetIntegrator
}

// Disable returns the sequencer to Disabled, turning off both
// transistors immediately.
func (s *Sequencer) Disable() {
	s.dac.SetSourceEnable(false)
	s.dac.SetSinkEnable(false)
	s.state = Disabled
}

// SetTarget updates the live voltage/current setpoint. While Enabled,
// the new codes are written immediately; in any other state they are
// buffered and take effect once the sequence reaches Enabled.
func (s *Sequencer) SetTarget(voltageCode, currentCode int32) {
	s.targetVoltageCode = voltageCode
	s.targetCurrentCode = currentCode

	if s.state == Enabled {
		s.dac.SetVoltageDAC(voltageCode)
		s.dac.SetCurrentDAC(currentCode)
	}
}

// Poll advances the sequencer; call it from the main loop on every
// pass while not Disabled.
func (s *Sequencer) Poll() {
	switch s.state {
	case ResetIntegrator:
		if s.now() < s.stageDeadline {
			return
		}
		s.dac.SetVoltageDAC(s.targetVoltageCode)
		if s.startupPolarity == PolaritySource {
			s.dac.SetSourceEnable(true)
		} else {
			s.dac.SetSinkEnable(true)
		}
		s.stageDeadline = s.now() + integratorResetTimeUS
		s.state = SingleEnable

	case SingleEnable:
		if s.now() < s.stageDeadline {
			return
		}
		if s.startupPolarity == PolaritySource {
			s.dac.SetSinkEnable(true)
		} else {
			s.dac.SetSourceEnable(true)
		}
		s.state = Enabled
	}
}
