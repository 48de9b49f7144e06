package simulated

// DigitalIn is an in-memory hal.DigitalIn: a settable boolean standing
// in for a GPIO pin read, for card-detect and button inputs.
type DigitalIn struct {
	level bool
}

// NewDigitalIn constructs a DigitalIn at the given initial level.
func NewDigitalIn(level bool) *DigitalIn {
	return &DigitalIn{level: level}
}

// Read implements hal.DigitalIn.
func (d *DigitalIn) Read() bool { return d.level }

// Set changes the pin level, as if the test flipped a switch.
func (d *DigitalIn) Set(level bool) { d.level = level }
