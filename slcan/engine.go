// Package slcan implements the Lawicel-style ASCII command/response
// engine described in spec §4.G: it parses single-letter commands from
// a non-blocking serial endpoint, formats inbound CAN frames as ASCII,
// and dispatches configuration/transmit requests to caller-supplied
// callbacks.
package slcan

import (
	"github.com/usbarmory/canbridge/can"
)

// Port is the subset of a non-blocking serial endpoint (spec §4.F) the
// engine needs. hal.SerialEndpoint satisfies it structurally.
type Port interface {
	Readable() bool
	ReadByte() (byte, bool)
	WriteBlockNB(p []byte) bool
}

// Mode selects the bus mode requested by an O/L/C command.
type Mode int

const (
	ModeClosed Mode = iota
	ModeOpen
	ModeListenOnly
)

// TransmitFunc is invoked for a t/T/r/R command; it should enqueue the
// frame for transmission on the bus and report whether it was
// accepted.
type TransmitFunc func(can.Event) bool

// BitrateFunc is invoked for an S<n> command with the decoded bit/s
// value.
type BitrateFunc func(bitrate uint32) bool

// BTRFunc is invoked for an s<xxxx> command with the raw 16-bit timing
// register pair.
type BTRFunc func(raw uint16) bool

// ModeFunc is invoked for O/L/C commands.
type ModeFunc func(Mode) bool

// Callbacks bundles the engine's dispatch targets. A nil field means
// the corresponding command always fails (bell response).
type Callbacks struct {
	Transmit TransmitFunc
	Bitrate  BitrateFunc
	BTR      BTRFunc
	Mode     ModeFunc
}

// Engine is the SLCAN command/response state machine. The zero value
// is not usable; construct with New.
type Engine struct {
	serial Port
	rx     *can.Ring
	cb     Callbacks

	// IgnoreConfig makes S/s/O/L/C commands succeed without invoking
	// callbacks, per spec §4.G.
	IgnoreConfig bool

	inputBuf      [inputBufferSize]byte
	inputLen      int
	commandQueued bool

	outputBuf [outputBufferSize]byte
	outputLen int

	heldMsg  can.Event
	haveHeld bool
}

// New constructs an Engine. rx is the bounded queue of inbound CAN
// events awaiting formatting onto the host link (spec §3's
// rx_buffer<CanEvent, K>); the caller feeds it from the CAN RX ring.
func New(serial Port, rx *can.Ring, cb Callbacks) *Engine {
	return &Engine{serial: serial, rx: rx, cb: cb}
}

// Reset discards any partial input, pending output, and the held-over
// message, per spec §4.G's host-disconnect semantics. The next byte
// read after Reset starts a fresh command.
func (e *Engine) Reset() {
	e.inputLen = 0
	e.commandQueued = false
	e.outputLen = 0
	e.haveHeld = false
	for e.rx.Len() > 0 {
		e.rx.Pop()
	}
}

// maxResponseLen bounds the longest possible single response: a bell,
// or a full extended-frame echo line.
const maxResponseLen = 1 + 8 + 1 + 16 + 1

// Update runs one pass of the engine: drain input into the line
// buffer, execute a queued command, drain outbound telemetry into the
// output buffer, and attempt a non-blocking flush.
func (e *Engine) Update() {
	e.fillInput()

	if e.commandQueued && outputBufferSize-e.outputLen >= maxResponseLen {
		e.executeQueuedCommand()
	}

	e.drainTelemetry()

	if e.outputLen > 0 {
		if e.serial.WriteBlockNB(e.outputBuf[:e.outputLen]) {
			e.outputLen = 0
		}
	}
}

func (e *Engine) fillInput() {
	for !e.commandQueued && e.serial.Readable() {
		b, ok := e.serial.ReadByte()
		if !ok {
			return
		}

		if b == cr {
			e.commandQueued = true
			return
		}

		if e.inputLen < len(e.inputBuf) {
			e.inputBuf[e.inputLen] = b
			e.inputLen++
		}
		// A line that overflows the buffer without a terminator is
		// silently truncated; the eventual \r still queues whatever
		// fit.
	}
}

func (e *Engine) executeQueuedCommand() {
	ok := e.dispatch(e.inputBuf[:e.inputLen])

	e.inputLen = 0
	e.commandQueued = false

	if ok {
		e.appendOutput([]byte{cr})
	} else {
		e.appendOutput([]byte{bell})
	}
}

func (e *Engine) drainTelemetry() {
	for outputBufferSize-e.outputLen >= maxResponseLen {
		var ev can.Event
		if e.haveHeld {
			ev = e.heldMsg
			e.haveHeld = false
		} else if next, ok := e.rx.Pop(); ok {
			ev = next
		} else {
			return
		}

		line := formatEvent(ev)
		if len(line) > outputBufferSize-e.outputLen {
			// Shouldn't happen given maxResponseLen, but hold the
			// message rather than truncate it.
			e.heldMsg = ev
			e.haveHeld = true
			return
		}

		e.appendOutput(line)
	}
}

func (e *Engine) appendOutput(p []byte) {
	n := copy(e.outputBuf[e.outputLen:], p)
	e.outputLen += n
}
