// NXP USBOH3USBO2 / USBPHY driver
// https://github.com/usbarmory/tamago
//
// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package usb carries the register map for the NXP USBOH3USBO2 / USBPHY
// controller, included in several i.MX SoCs, adopting the following
// specifications:
//   - IMX6ULLRM - i.MX 6ULL Applications Processor Reference Manual - Rev 1 2017/11
//   - USB2.0    - USB Specification Revision 2.0
//
// No USB class driver runs anywhere in this tree (HID and serial
// transports are both carried over UART, see
// board/usbarmory/mk2/serial.go), so only the USBMODE/USBCMD register
// offsets soc/nxp/imx6ul's Serial Download Protocol boot check reads
// are kept; the full device/endpoint/descriptor machinery the
// upstream driver built on top of this register map has been removed
// as unexercised.
//
// This package is only meant to be used with `GOOS=tamago GOARCH=arm` as
// supported by the TamaGo framework for bare metal Go on ARM SoCs, see
// https://github.com/usbarmory/tamago.
package usb

// USB registers
//
// p3823, 56.6 USB Core Memory Map/Register Definition, IMX6ULLRM
const (
	USB_UOGx_USBCMD = 0x140
	USBCMD_RS       = 0

	USB_UOGx_USBMODE  = 0x1a8
	USBMODE_CM        = 0
	USBMODE_CM_DEVICE = 0b10
	USBMODE_CM_HOST   = 0b11
)
