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
	"github.com/usbarmory/canbridge/soc/nxp/uart"
)

// UARTSerialAdapter satisfies hal.SerialEndpoint over a UART. The
// firmware's SLCAN/Tachyon/HID-report host link runs here rather than
// over a USB CDC-ACM or HID endpoint: no USB class driver exists in
// this tree (see soc/nxp/usb's package comment), and composing one is
// register/pin-level work hal's boundary comment (hal.go) places out
// of scope. UA-MKII-β/γ reach this UART through the side receptacle's
// debug accessory mode (see DetectDebugAccessory); UA-MKII-LAN exposes
// it on test pads.
type UARTSerialAdapter struct {
	UART *uart.UART

	connected bool

	// pending holds a byte Readable received but ReadByte has not yet
	// returned.
	pending    byte
	hasPending bool
}

// Connected implements hal.SerialEndpoint. A UART has no detach
// signal of its own; Connected reports whatever the caller last
// recorded with SetConnected (cmd/smu sets it from the result of
// DetectDebugAccessory).
func (a *UARTSerialAdapter) Connected() bool { return a.connected }

// SetConnected records the host link state, driven by debug-accessory
// detection (see DetectDebugAccessory) on UA-MKII-β/γ, or left true by
// the caller on UA-MKII-LAN where the pads are always wired.
func (a *UARTSerialAdapter) SetConnected(v bool) { a.connected = v }

// Configured implements hal.SerialEndpoint. A UART link has no
// enumeration step distinct from Connected.
func (a *UARTSerialAdapter) Configured() bool { return a.connected }

// Readable implements hal.SerialEndpoint. The UART driver has no
// non-consuming status poll, so a byte received here is held for the
// next ReadByte.
func (a *UARTSerialAdapter) Readable() bool {
	if a.hasPending {
		return true
	}
	a.pending, a.hasPending = a.UART.Rx()
	return a.hasPending
}

// ReadByte implements hal.SerialEndpoint, returning the byte Readable
// held, if any, before polling the receiver.
func (a *UARTSerialAdapter) ReadByte() (byte, bool) {
	if a.hasPending {
		a.hasPending = false
		return a.pending, true
	}
	return a.UART.Rx()
}

// WriteBlockNB implements hal.SerialEndpoint: it transmits p in full,
// which only blocks the caller if the UART's TX FIFO itself blocks —
// at the SLCAN/Tachyon link's baud rate and frame sizes this never
// stalls long enough to miss the watchdog deadline.
func (a *UARTSerialAdapter) WriteBlockNB(p []byte) bool {
	for _, c := range p {
		a.UART.Tx(c)
	}
	return true
}

// Reset implements hal.SerialEndpoint. There is no receive FIFO flush
// exposed by the driver, and the connection state set by SetConnected
// is kept, so Reset does nothing.
func (a *UARTSerialAdapter) Reset() {}
