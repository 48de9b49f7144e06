// Package hal defines the chip-register abstraction boundary spec §1
// draws between vendor pin/pad and bit-banging minutiae (out of
// scope) and the testable core logic in timeutil, filter, can, slcan,
// pd, smu, hidproto and datalogger. board/usbarmory/mk2, over the
// soc/nxp drivers, implements these interfaces for the real i.MX6UL
// silicon (soc/nxp/imx6ul provides the HardwareTimerAdapter);
// hal/simulated implements
// them in memory for tests and the host-side tooling.
package hal

import "github.com/usbarmory/canbridge/can"

// I2CBus is a combined write-then-read I2C transaction, matching
// pd.I2CBus.
type I2CBus interface {
	Transfer(addr uint8, w, r []byte) error
}

// Watchdog is the hardware watchdog timer backing the run loop's
// liveness guarantee (spec §4.M).
type Watchdog interface {
	Feed()
	Reset()
}

// SerialEndpoint is a non-blocking host serial connection (carried
// over a UART by board/usbarmory/mk2's UARTSerialAdapter),
// matching slcan.Port plus the lifecycle spec §4.F describes.
type SerialEndpoint interface {
	Connected() bool
	Configured() bool
	Readable() bool
	ReadByte() (byte, bool)
	WriteBlockNB(p []byte) bool
	Reset()
}

// SDCard is the datalogger's storage device: presence detection plus a
// minimal mount/append surface.
type SDCard interface {
	Inserted() bool
	Mount() error
	Unmount() error
	AppendAndSync(name string, p []byte) error
}

// DigitalIn is a single debounced-at-the-hardware-level GPIO input,
// feeding filter.Digital/filter.Button.
type DigitalIn interface {
	Read() bool
}

// HardwareTimer is the free-running microsecond counter timeutil.Clock
// extends into a 64-bit monotonic timestamp.
type HardwareTimer interface {
	Now32() uint32
}

// Color is a status LED color, per spec §6's device-consistent code.
type Color int

const (
	LEDOff Color = iota
	LEDRed
	LEDGreen
	LEDYellow
	LEDBlue
	LEDPurple
	LEDCyan
)

// StatusLED is the run loop's single status indicator. Boards with
// fewer physical LEDs than colors (the USB armory Mk II has two)
// multiplex or approximate; see board/usbarmory/mk2.
type StatusLED interface {
	Set(Color)
}

// CANBus is the physical CAN transceiver/controller: transmit a frame,
// and report the controller's self-reset flag spec §4 ties to a status
// LED pulse. Inbound frames arrive out-of-band, pushed onto a can.Ring
// from ISR context; CANBus itself only carries the TX direction plus
// control-register state a driver can't express through the ring.
type CANBus interface {
	Transmit(can.Event) error
	SetBitrate(bitsPerSecond uint32) error
	SelfResetDetected() bool
}
