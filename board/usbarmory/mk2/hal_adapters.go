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
	"github.com/usbarmory/canbridge/hal"
	"github.com/usbarmory/canbridge/soc/nxp/gpio"
	"github.com/usbarmory/canbridge/soc/nxp/i2c"
	"github.com/usbarmory/canbridge/soc/nxp/imx6ul"
	"github.com/usbarmory/canbridge/soc/nxp/wdog"
)

// watchdogTimeoutMS is the run loop's hard budget (spec §4.M): the
// watchdog must be serviced within this window or the board resets.
const watchdogTimeoutMS = 3000

// WatchdogAdapter satisfies hal.Watchdog over the SoC's WDOG1 module.
type WatchdogAdapter struct {
	WDOG *wdog.WDOG
}

// Feed implements hal.Watchdog.
func (a WatchdogAdapter) Feed() { a.WDOG.Service(watchdogTimeoutMS) }

// Reset implements hal.Watchdog.
func (a WatchdogAdapter) Reset() { a.WDOG.SoftwareReset() }

// Watchdog is the board's primary watchdog, adapted for the run loop.
var Watchdog = WatchdogAdapter{WDOG: imx6ul.WDOG1}

// I2CAdapter satisfies hal.I2CBus (and pd.I2CBus) over a register-indexed
// I2C controller, folding the combined write-then-read transaction the
// FUSB302-style PD controller and the PMIC both use onto the SoC
// driver's separate Write/Read calls.
type I2CAdapter struct {
	Bus  *i2c.I2C
	Addr uint8
}

// Transfer implements hal.I2CBus. w[0], when present, addresses the
// target register; any remaining bytes in w are written there, and r,
// when present, is filled by reading from the same register onward.
func (a I2CAdapter) Transfer(addr uint8, w, r []byte) error {
	var reg uint32
	if len(w) > 0 {
		reg = uint32(w[0])
		if len(w) > 1 {
			if err := a.Bus.Write(w[1:], addr, reg, 1); err != nil {
				return err
			}
		}
	}

	if len(r) > 0 {
		buf, err := a.Bus.Read(addr, reg, 1, len(r))
		if err != nil {
			return err
		}
		copy(r, buf)
	}

	return nil
}

// DigitalInAdapter satisfies hal.DigitalIn over a single GPIO pin, for
// card-detect and reset/dismount buttons.
type DigitalInAdapter struct {
	Pin *gpio.Pin
}

// Read implements hal.DigitalIn.
func (a DigitalInAdapter) Read() bool { return a.Pin.Value() }

// LEDAdapter satisfies hal.StatusLED over the board's two discrete
// LEDs, white and blue, approximating the spec's six-color code with
// what a bi-LED indicator can show: red/green/yellow all light white
// alone (the run loop's color and the board's LED count genuinely
// don't line up, so these three collapse), blue lights blue alone,
// purple lights both together, and off/cyan leave both dark.
type LEDAdapter struct{}

// Set implements hal.StatusLED.
func (LEDAdapter) Set(c hal.Color) {
	white, blue := false, false

	switch c {
	case hal.LEDRed, hal.LEDGreen, hal.LEDYellow:
		white = true
	case hal.LEDBlue:
		blue = true
	case hal.LEDPurple:
		white, blue = true, true
	}

	LED("white", white)
	LED("blue", blue)
}
