// Command canadapter runs the CAN Adapter firmware personality on the
// USB armory Mk II: a host-facing SLCAN or Tachyon link bridged to a
// physical CAN bus, driven by the shared cooperative run loop.
//
//go:build tamago && arm

package main

import (
	"github.com/usbarmory/canbridge/board/usbarmory/mk2"
	"github.com/usbarmory/canbridge/can"
	"github.com/usbarmory/canbridge/canadapter"
	"github.com/usbarmory/canbridge/runloop"
	"github.com/usbarmory/canbridge/timeutil"
)

// defaultBitrate is the CAN bus bitrate configured at boot, overridable
// at runtime through the SLCAN S/s commands.
const defaultBitrate = 500_000

// tachyonMode selects the binary Tachyon telemetry stream instead of
// Lawicel-style SLCAN ASCII (spec §1). Both personalities share the
// same Adapter logic; a build that wants the other mode flips this
// constant and relinks.
const tachyonMode = false

func main() {
	clock := timeutil.NewClock(runloop.HardwareCounterAdapter{Timer: mk2.Timer})
	clock.Start()

	bus := &mk2.CANBusAdapter{
		Bus:  mk2.I2CAdapter{Bus: mk2.I2C1},
		Addr: mk2.CANControllerAddr,
	}
	if err := bus.SetBitrate(defaultBitrate); err != nil {
		panic(err)
	}

	serial := &mk2.UARTSerialAdapter{UART: mk2.UART1}
	serial.SetConnected(true)

	adapter := canadapter.New(serial, bus, clock, tachyonMode)

	// The run loop's CAN RX ring is fed by the controller's interrupt
	// handler, below hal.CANBus's abstraction line (see
	// board/usbarmory/mk2/can.go); on this board that handler does not
	// yet exist, so the ring starts and stays empty until one is
	// wired in.
	ring := can.NewRing()

	loop := runloop.NewLoop(mk2.Watchdog, clock, ring, mk2.LEDAdapter{}, adapter)
	loop.Run()
}
