package cobs

import "errors"

// ErrDLC is returned when a CAN data length exceeds the 8-byte classic
// CAN payload limit the Tachyon record format can represent.
var ErrDLC = errors.New("cobs: dlc exceeds tachyon's 8-byte limit")

// ErrShortFrame is returned by DecodeTachyon when a COBS-decoded
// payload is too short to be a valid Tachyon record.
var ErrShortFrame = errors.New("cobs: tachyon frame too short")

// ErrChecksum is returned by DecodeTachyon when the trailing checksum
// byte does not zero-sum with the rest of the record.
var ErrChecksum = errors.New("cobs: tachyon checksum mismatch")

// EncodeTachyon packs an 11-bit CAN ID frame into the compact Tachyon
// record (spec §3/§4.D) and returns it COBS-framed, delimiter included.
// id must fit in 11 bits; only id and len<=8 are supported — extended
// and RTR frames are not representable in this compact format.
func EncodeTachyon(id uint16, data []byte) ([]byte, error) {
	if len(data) > 8 {
		return nil, ErrDLC
	}

	dlc := byte(len(data))
	buf := make([]byte, 2+len(data)+1)
	buf[0] = byte(id)
	buf[1] = byte(id>>8&0x0F) | (dlc << 4)
	copy(buf[2:], data)

	var sum byte
	for _, b := range buf[:len(buf)-1] {
		sum += b
	}
	buf[len(buf)-1] = byte(-int8(sum))

	return Encode(buf), nil
}

// DecodeTachyon reverses EncodeTachyon. frame must include the COBS
// delimiter.
func DecodeTachyon(frame []byte) (id uint16, data []byte, err error) {
	buf, ok := Decode(frame)
	if !ok {
		return 0, nil, ErrShortFrame
	}
	if len(buf) < 3 {
		return 0, nil, ErrShortFrame
	}

	var sum byte
	for _, b := range buf {
		sum += b
	}
	if sum != 0 {
		return 0, nil, ErrChecksum
	}

	dlc := buf[1] >> 4
	if int(dlc) > len(buf)-3 {
		return 0, nil, ErrShortFrame
	}

	id = uint16(buf[0]) | uint16(buf[1]&0x0F)<<8
	data = append([]byte(nil), buf[2:2+dlc]...)

	return id, data, nil
}
