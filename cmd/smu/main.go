// Command smu runs the Source-Measure Unit firmware personality on
// the USB armory Mk II: it negotiates a USB-PD source contract,
// sequences an analog output stage to a host- or panel-selected
// voltage/current setpoint, and reports telemetry over a
// length-delimited HID-style report channel.
//
//go:build tamago && arm

package main

import (
	"time"

	"github.com/usbarmory/canbridge/board/usbarmory/mk2"
	"github.com/usbarmory/canbridge/can"
	"github.com/usbarmory/canbridge/pd"
	"github.com/usbarmory/canbridge/runloop"
	"github.com/usbarmory/canbridge/smu"
	"github.com/usbarmory/canbridge/soc/nxp/imx6ul"
	"github.com/usbarmory/canbridge/timeutil"
)

// debugAccessoryTimeout bounds how long boot waits for the side
// receptacle's debug accessory mode before giving up on UART2.
const debugAccessoryTimeout = 500 * time.Millisecond

// buttonDebounceUS is the GPIO debounce window for the panel's
// up/down/toggle buttons, matching the Datalogger's dismount button.
const buttonDebounceUS = 20_000

// minCode, maxCode bound the analog front end's DAC/ADC code range
// (12-bit, matching the SMU daughterboard's converters).
const (
	minCode = 0
	maxCode = 4095
)

func main() {
	clock := timeutil.NewClock(runloop.HardwareCounterAdapter{Timer: mk2.Timer})
	clock.Start()

	// Up/down/toggle panel buttons are carried on the SMU
	// daughterboard, wired to otherwise-unused GPIO5 pins above the
	// Datalogger daughterboard's card-detect/dismount pair.
	upPin, err := imx6ul.GPIO5.Init(10)
	if err != nil {
		panic(err)
	}
	upPin.In()

	downPin, err := imx6ul.GPIO5.Init(11)
	if err != nil {
		panic(err)
	}
	downPin.In()

	togglePin, err := imx6ul.GPIO5.Init(12)
	if err != nil {
		panic(err)
	}
	togglePin.In()

	i2c := mk2.I2CAdapter{Bus: mk2.I2C1}

	analog := &mk2.AnalogAdapter{Bus: i2c, Addr: mk2.SMUAnalogAddr}
	sequencer := smu.NewSequencer(analog, clock.NowUS, minCode, maxCode)

	ctrl := pd.NewController(i2c, mk2.PDControllerAddr)
	cc := mk2.CCMeasurerAdapter{Bus: i2c, Addr: mk2.PDControllerAddr}
	negotiator := pd.NewNegotiator(ctrl, cc, clock.NowUS)

	// The HID report channel rides UART2 rather than a USB HID class
	// driver (see board/usbarmory/mk2/serial.go); the length-delimited
	// report framing in hidproto does not care which byte stream
	// carries it. On UA-MKII-β/γ UART2 only reaches the outside world
	// once the side receptacle is in debug accessory mode, so boot
	// waits for that detection instead of assuming the link is live.
	serial := &mk2.UARTSerialAdapter{UART: mk2.UART2}

	ready, err := mk2.DetectDebugAccessory(debugAccessoryTimeout)
	if err != nil {
		panic(err)
	}
	serial.SetConnected(<-ready)

	bus := &mk2.CANBusAdapter{
		Bus:  i2c,
		Addr: mk2.CANControllerAddr,
	}

	device := smu.NewDevice(
		sequencer, analog, negotiator, bus, serial, clock,
		mk2.DigitalInAdapter{Pin: upPin},
		mk2.DigitalInAdapter{Pin: downPin},
		mk2.DigitalInAdapter{Pin: togglePin},
		buttonDebounceUS,
		smu.DefaultVoltageADC(), smu.DefaultCurrentADC(),
		smu.DefaultVoltageDAC(), smu.DefaultCurrentDAC(),
		minCode, maxCode,
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
