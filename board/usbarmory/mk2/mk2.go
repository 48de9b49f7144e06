// USB armory Mk II support for tamago/arm
// https://github.com/usbarmory/tamago
//
// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package mk2 provides hardware initialization, automatically on import, for
// the USB armory Mk II single board computer.
//
// This package is only meant to be used with `GOOS=tamago GOARCH=arm` as
// supported by the TamaGo framework for bare metal Go on ARM SoCs, see
// https://github.com/usbarmory/tamago.
package mk2

import (
	"github.com/usbarmory/canbridge/soc/nxp/imx6ul"

	_ "unsafe"
)

// Peripheral instances
var (
	I2C1 = imx6ul.I2C1
	I2C2 = imx6ul.I2C2

	UART1 = imx6ul.UART1
	UART2 = imx6ul.UART2

	USDHC1 = imx6ul.USDHC1
	USDHC2 = imx6ul.USDHC2

	// Timer is the board's hal.HardwareTimer, backing timeutil.Clock.
	Timer = imx6ul.HardwareTimerAdapter{}
)

// Model returns the USB armory model name. Board revision is normally
// read from OTP fuses; none of this board's three firmware personalities
// need that distinction, so it is reported generically. To further
// detect SoC variants imx6ul.Model() can be used.
func Model() string {
	return "UA-MKII"
}

// Init takes care of the lower level SoC initialization triggered early in
// runtime setup.
//
//go:linkname Init runtime.hwinit
func Init() {
	// initialize SoC
	imx6ul.Init()

	// initialize serial console
	imx6ul.UART2.Init()
}
