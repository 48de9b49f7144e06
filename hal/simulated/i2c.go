package simulated

// I2CBus is an in-memory hal.I2CBus: a map of device address to
// register file, standing in for a real I2C peripheral. A write whose
// first byte is the register address updates Regs[addr][reg...]; a
// read-only transfer (empty w) streams back whatever was last latched
// into Regs[addr] starting at LastReg[addr], matching how the FUSB302
// FIFO register streams sequential bytes from one address.
type I2CBus struct {
	Regs    map[uint8]map[uint8]byte
	LastReg map[uint8]uint8

	// Err, if set, is returned by every Transfer call, modeling a bus
	// that NAKs.
	Err error
}

// NewI2CBus constructs an empty I2CBus.
func NewI2CBus() *I2CBus {
	return &I2CBus{Regs: map[uint8]map[uint8]byte{}, LastReg: map[uint8]uint8{}}
}

// Transfer implements hal.I2CBus.
func (b *I2CBus) Transfer(addr uint8, w, r []byte) error {
	if b.Err != nil {
		return b.Err
	}
	dev, ok := b.Regs[addr]
	if !ok {
		dev = map[uint8]byte{}
		b.Regs[addr] = dev
	}

	if len(w) > 0 {
		reg := w[0]
		for i, v := range w[1:] {
			dev[reg+uint8(i)] = v
		}
		b.LastReg[addr] = reg + uint8(len(w)-1)
	}

	if len(r) > 0 {
		reg := b.LastReg[addr]
		for i := range r {
			r[i] = dev[reg+uint8(i)]
		}
		b.LastReg[addr] = reg + uint8(len(r))
	}
	return nil
}

// SetReg seeds a register's value directly, for test setup.
func (b *I2CBus) SetReg(addr, reg, value uint8) {
	dev, ok := b.Regs[addr]
	if !ok {
		dev = map[uint8]byte{}
		b.Regs[addr] = dev
	}
	dev[reg] = value
}
