package slcan

import (
	"github.com/usbarmory/canbridge/can"
)

// dispatch parses one terminator-stripped command line and executes it,
// reporting whether the response should be the success terminator (\r)
// or the bell.
func (e *Engine) dispatch(line []byte) bool {
	if len(line) == 0 {
		return false
	}

	switch line[0] {
	case 'S':
		return e.dispatchBitrate(line[1:])
	case 's':
		return e.dispatchBTR(line[1:])
	case 'O':
		return e.dispatchMode(ModeOpen)
	case 'L':
		return e.dispatchMode(ModeListenOnly)
	case 'C':
		return e.dispatchMode(ModeClosed)
	case 't':
		return e.dispatchTransmit(line[1:], false, false)
	case 'T':
		return e.dispatchTransmit(line[1:], true, false)
	case 'r':
		return e.dispatchTransmit(line[1:], false, true)
	case 'R':
		return e.dispatchTransmit(line[1:], true, true)
	case 'V', 'N', 'F':
		return true
	default:
		return false
	}
}

func (e *Engine) dispatchBitrate(arg []byte) bool {
	if len(arg) != 1 {
		return false
	}
	digit, ok := hexNibble(arg[0])
	if !ok || int(digit) >= len(BitrateCode) {
		return false
	}

	if e.IgnoreConfig {
		return true
	}
	if e.cb.Bitrate == nil {
		return false
	}
	return e.cb.Bitrate(BitrateCode[digit])
}

func (e *Engine) dispatchBTR(arg []byte) bool {
	if len(arg) != 4 {
		return false
	}
	raw, ok := parseHex16(arg)
	if !ok {
		return false
	}

	if e.IgnoreConfig {
		return true
	}
	if e.cb.BTR == nil {
		return false
	}
	return e.cb.BTR(raw)
}

func (e *Engine) dispatchMode(mode Mode) bool {
	if e.IgnoreConfig {
		return true
	}
	if e.cb.Mode == nil {
		return false
	}
	return e.cb.Mode(mode)
}

func (e *Engine) dispatchTransmit(arg []byte, extended, rtr bool) bool {
	idDigits := 3
	if extended {
		idDigits = 8
	}

	if len(arg) < idDigits+1 {
		return false
	}

	id, ok := parseHexN(arg[:idDigits])
	if !ok {
		return false
	}

	dlcDigit, ok := hexNibble(arg[idDigits])
	if !ok || dlcDigit > 8 {
		return false
	}
	dlc := int(dlcDigit)

	arg = arg[idDigits+1:]

	var data [8]byte
	if !rtr {
		if len(arg) != dlc*2 {
			return false
		}
		for i := 0; i < dlc; i++ {
			b, ok := parseHexByte(arg[i*2 : i*2+2])
			if !ok {
				return false
			}
			data[i] = b
		}
	}

	if e.cb.Transmit == nil {
		return false
	}

	ev := can.Event{
		Kind:     can.KindData,
		ID:       id,
		Extended: extended,
		RTR:      rtr,
		Len:      uint8(dlc),
		Data:     data,
	}

	return e.cb.Transmit(ev)
}
