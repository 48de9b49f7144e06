// USB armory Mk II support for tamago/arm
// https://github.com/usbarmory/tamago
//
// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && arm

package mk2

import (
	"github.com/usbarmory/canbridge/can"
)

// Register map of the board's I2C-attached CAN controller. The i.MX6UL
// has no native CAN peripheral, so the CAN Adapter and Datalogger
// daughterboards carry a small external controller bridged onto the
// same I2C bus the PD and PMIC chips share, addressed the same way
// I2CAdapter already treats them (a register byte followed by a
// write or read phase).
const (
	canRegTXID    = 0x00 // 2 bytes, little-endian 11/29-bit ID plus flags
	canRegTXLEN   = 0x02 // 1 byte, data length code
	canRegTXDATA  = 0x03 // up to 8 bytes
	canRegTXCTRL  = 0x0B // write 1 to request transmission of the staged frame
	canRegBITRATE = 0x0C // 4 bytes, little-endian bits/s
	canRegSTATUS  = 0x10 // 1 byte, bit 0 = self-reset-occurred (write-1-to-clear)
	canRegVCAP    = 0x14 // 2 bytes, big-endian millivolts: the Datalogger daughterboard's supercap voltage-sense ADC, wired to the same controller
)

const statusSelfReset = 1 << 0

// CANControllerAddr is the I2C address of the CAN Adapter and
// Datalogger daughterboards' external CAN controller.
const CANControllerAddr = 0x63

const txIDExtendedFlag = 1 << 15
const txIDRTRFlag = 1 << 14

// CANBusAdapter satisfies hal.CANBus over the board's I2C-attached CAN
// controller.
type CANBusAdapter struct {
	Bus  I2CAdapter
	Addr uint8
}

func (a *CANBusAdapter) writeReg(reg uint8, data []byte) error {
	return a.Bus.Transfer(a.Addr, append([]byte{reg}, data...), nil)
}

func (a *CANBusAdapter) readReg(reg uint8, n int) ([]byte, error) {
	out := make([]byte, n)
	if err := a.Bus.Transfer(a.Addr, []byte{reg}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transmit implements hal.CANBus: it stages e's ID, flags and data
// into the controller's TX mailbox and strobes the transmit-request
// bit. Only classic (non-FD) 0..8 byte payloads are representable.
func (a *CANBusAdapter) Transmit(e can.Event) error {
	if e.Kind != can.KindData {
		return nil
	}

	id := uint16(e.ID)
	if e.Extended {
		id |= txIDExtendedFlag
	}
	if e.RTR {
		id |= txIDRTRFlag
	}

	if err := a.writeReg(canRegTXID, []byte{byte(id), byte(id >> 8)}); err != nil {
		return err
	}
	if err := a.writeReg(canRegTXLEN, []byte{e.Len}); err != nil {
		return err
	}
	if err := a.writeReg(canRegTXDATA, e.Data[:e.Len]); err != nil {
		return err
	}

	return a.writeReg(canRegTXCTRL, []byte{1})
}

// SetBitrate implements hal.CANBus.
func (a *CANBusAdapter) SetBitrate(bitsPerSecond uint32) error {
	buf := []byte{
		byte(bitsPerSecond),
		byte(bitsPerSecond >> 8),
		byte(bitsPerSecond >> 16),
		byte(bitsPerSecond >> 24),
	}
	return a.writeReg(canRegBITRATE, buf)
}

// SelfResetDetected implements hal.CANBus: it reads the status
// register and, if the self-reset bit is set, clears it with a
// write-1-to-clear before reporting true. A read error is treated as
// no reset observed — the next poll tries again.
func (a *CANBusAdapter) SelfResetDetected() bool {
	status, err := a.readReg(canRegSTATUS, 1)
	if err != nil || status[0]&statusSelfReset == 0 {
		return false
	}

	a.writeReg(canRegSTATUS, []byte{statusSelfReset})

	return true
}

// VoltageSenseAdapter satisfies datalogger.VoltageSensor over the
// Datalogger daughterboard's supercap voltage-sense ADC register,
// which lives on the same I2C-attached controller as the CAN
// interface above.
type VoltageSenseAdapter struct {
	Bus  I2CAdapter
	Addr uint8
}

// ReadMV implements datalogger.VoltageSensor.
func (a VoltageSenseAdapter) ReadMV() (int32, error) {
	out, err := (&CANBusAdapter{Bus: a.Bus, Addr: a.Addr}).readReg(canRegVCAP, 2)
	if err != nil {
		return 0, err
	}
	return int32(uint16(out[0])<<8 | uint16(out[1])), nil
}
