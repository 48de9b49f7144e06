// Command datalogger runs the Datalogger firmware personality on the
// USB armory Mk II: it mounts the SD card on supercap power and card
// presence, streams inbound CAN traffic to a COBS-framed record file,
// and periodically injects the shared heartbeat/core-status frames.
//
//go:build tamago && arm

package main

import (
	"github.com/usbarmory/canbridge/board/usbarmory/mk2"
	"github.com/usbarmory/canbridge/can"
	"github.com/usbarmory/canbridge/datalogger"
	"github.com/usbarmory/canbridge/runloop"
	"github.com/usbarmory/canbridge/soc/nxp/imx6ul"
	"github.com/usbarmory/canbridge/timeutil"
)

// cardDebounceUS and buttonDebounceUS are the GPIO debounce windows
// for the card-detect line and the front-panel dismount button.
const (
	cardDebounceUS   = 50_000
	buttonDebounceUS = 20_000
)

// noRTC reports time as always unavailable: no real-time-clock driver
// exists anywhere in this tree (the i.MX6UL's SNVS RTC block was
// dropped along with the rest of its OTP/calibration init, see
// DESIGN.md), so every boot takes the FSM's documented bad-RTC path
// and logs under /NOTIME/.
type noRTC struct{}

func (noRTC) Now() (datalogger.RTCTime, bool) { return datalogger.RTCTime{}, false }

func main() {
	clock := timeutil.NewClock(runloop.HardwareCounterAdapter{Timer: mk2.Timer})
	clock.Start()

	// Card-detect and dismount-button lines are carried on the
	// Datalogger daughterboard, wired to otherwise-unused GPIO5 pins.
	cardDetectPin, err := imx6ul.GPIO5.Init(8)
	if err != nil {
		panic(err)
	}
	cardDetectPin.In()

	dismountPin, err := imx6ul.GPIO5.Init(9)
	if err != nil {
		panic(err)
	}
	dismountPin.In()

	fs := &mk2.SDFS{Card: mk2.SD}
	fsm := datalogger.NewFSM(fs, noRTC{}, clock.NowUS, cardDebounceUS)

	bus := &mk2.CANBusAdapter{
		Bus:  mk2.I2CAdapter{Bus: mk2.I2C1},
		Addr: mk2.CANControllerAddr,
	}
	voltage := mk2.VoltageSenseAdapter{
		Bus:  mk2.I2CAdapter{Bus: mk2.I2C1},
		Addr: mk2.CANControllerAddr,
	}

	device := datalogger.NewDevice(
		fsm, bus, clock,
		mk2.DigitalInAdapter{Pin: cardDetectPin},
		mk2.DigitalInAdapter{Pin: dismountPin},
		voltage,
		buttonDebounceUS,
	)

	// The run loop's CAN RX ring is fed by the controller's interrupt
	// handler, below hal.CANBus's abstraction line (see
	// board/usbarmory/mk2/can.go); that handler does not yet exist on
	// this board, so the ring starts and stays empty until one is
	// wired in.
	ring := can.NewRing()

	loop := runloop.NewLoop(mk2.Watchdog, clock, ring, mk2.LEDAdapter{}, device)
	loop.Run()
}
