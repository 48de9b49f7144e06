// NXP i.MX6UL timer support
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package imx6ul

import (
	"github.com/usbarmory/canbridge/arm"
)

// Timer registers (p178, Table 2-3, IMX6ULLRM)
const SYS_CNT_BASE = 0x021dc000

func initTimers() {
	if !Native {
		// use QEMU fixed CNTFRQ value (62.5MHz)
		arm.InitGenericTimers(62500000)
	} else {
		// U-Boot value for i.MX6 family (8.0MHz)
		arm.InitGenericTimers(8000000)
	}
}

// HardwareTimerAdapter satisfies hal.HardwareTimer over the SoC's
// generic timer, truncating arm.Now's nanosecond count to the 32-bit
// microsecond window timeutil.Clock virtualizes into a 64-bit
// timestamp.
type HardwareTimerAdapter struct{}

// Now32 implements hal.HardwareTimer.
func (HardwareTimerAdapter) Now32() uint32 {
	return uint32(arm.Now() / 1000)
}
