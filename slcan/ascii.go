package slcan

import "github.com/usbarmory/canbridge/can"

const hexDigits = "0123456789ABCDEF"

func hexNibble(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	default:
		return 0, false
	}
}

func parseHexByte(b []byte) (byte, bool) {
	if len(b) != 2 {
		return 0, false
	}
	hi, ok := hexNibble(b[0])
	if !ok {
		return 0, false
	}
	lo, ok := hexNibble(b[1])
	if !ok {
		return 0, false
	}
	return hi<<4 | lo, true
}

func parseHex16(b []byte) (uint16, bool) {
	v, ok := parseHexN(b)
	return uint16(v), ok
}

// parseHexN parses up to 8 hex nibbles into a uint32, most significant
// digit first.
func parseHexN(b []byte) (uint32, bool) {
	var v uint32
	for _, c := range b {
		n, ok := hexNibble(c)
		if !ok {
			return 0, false
		}
		v = v<<4 | uint32(n)
	}
	return v, true
}

func appendHexN(dst []byte, v uint32, digits int) []byte {
	for i := digits - 1; i >= 0; i-- {
		dst = append(dst, hexDigits[(v>>(4*uint(i)))&0xF])
	}
	return dst
}

// formatEvent renders a CAN event as its SLCAN ASCII response line,
// terminator included. Only data-frame events are meaningful on the
// wire; callers should not enqueue error events into the RX queue fed
// to slcan.Engine.
func formatEvent(ev can.Event) []byte {
	var line []byte

	switch {
	case ev.Extended && ev.RTR:
		line = append(line, 'R')
		line = appendHexN(line, ev.ID, 8)
	case ev.Extended:
		line = append(line, 'T')
		line = appendHexN(line, ev.ID, 8)
	case ev.RTR:
		line = append(line, 'r')
		line = appendHexN(line, ev.ID, 3)
	default:
		line = append(line, 't')
		line = appendHexN(line, ev.ID, 3)
	}

	line = append(line, hexDigits[ev.Len&0xF])

	if !ev.RTR {
		for i := 0; i < int(ev.Len); i++ {
			line = appendHexN(line, uint32(ev.Data[i]), 2)
		}
	}

	line = append(line, cr)

	return line
}
