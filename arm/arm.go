// ARM processor
// https://github.com/f-secure-foundry/tamago
//
// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.
//
// +build tamago,arm

package arm

type CPU struct {
	features features
}

func (cpu *CPU) Init() {
	cpu.features.init()
}

// Mode returns the processor's current execution mode, the low 5 bits
// of CPSR (p1139, B9.3.1, ARM Architecture Reference Manual ARMv7-A
// and ARMv7-R edition).
func (cpu *CPU) Mode() int {
	return int(read_cpsr() & 0x1f)
}
