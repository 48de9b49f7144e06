package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"strconv"

	brutellacan "github.com/brutella/can"
	log "github.com/sirupsen/logrus"

	"github.com/usbarmory/canbridge/can"
)

// extendedIDFlag marks an extended 29-bit identifier in brutella/can's
// Frame.ID, matching that library's SocketCAN CAN_EFF_FLAG convention.
const extendedIDFlag = 0x80000000

// scanSLCANLines is a bufio.SplitFunc that splits a byte stream on the
// '\r' terminator slcan.Engine's formatEvent uses, the ASCII counterpart
// to bufio.ScanLines.
func scanSLCANLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.IndexByte(data, '\r'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// decodeSLCANLine is slcan.Engine.dispatchTransmit run in reverse: it
// parses a 't'/'T'/'r'/'R' line emitted by the firmware's SLCAN
// transport back into a can.Event. slcan's own parsing helpers are
// unexported, so this mirrors their grammar directly rather than
// reaching across the package boundary.
func decodeSLCANLine(line []byte) (can.Event, bool) {
	if len(line) == 0 {
		return can.Event{}, false
	}

	var extended, rtr bool
	switch line[0] {
	case 't':
	case 'T':
		extended = true
	case 'r':
		rtr = true
	case 'R':
		extended, rtr = true, true
	default:
		return can.Event{}, false
	}

	arg := line[1:]
	idDigits := 3
	if extended {
		idDigits = 8
	}
	if len(arg) < idDigits+1 {
		return can.Event{}, false
	}

	id, err := strconv.ParseUint(string(arg[:idDigits]), 16, 32)
	if err != nil {
		return can.Event{}, false
	}

	dlc, err := strconv.ParseUint(string(arg[idDigits:idDigits+1]), 16, 8)
	if err != nil || dlc > 8 {
		return can.Event{}, false
	}

	arg = arg[idDigits+1:]

	var data [8]byte
	if !rtr {
		if len(arg) != int(dlc)*2 {
			return can.Event{}, false
		}
		for i := 0; i < int(dlc); i++ {
			b, err := strconv.ParseUint(string(arg[i*2:i*2+2]), 16, 8)
			if err != nil {
				return can.Event{}, false
			}
			data[i] = byte(b)
		}
	}

	return can.Event{
		Kind:     can.KindData,
		ID:       uint32(id),
		Extended: extended,
		RTR:      rtr,
		Len:      uint8(dlc),
		Data:     data,
	}, true
}

// runSniff implements `canbridgectl sniff`: it opens the serial port,
// decodes each inbound SLCAN ASCII line, logs it at info level, and
// optionally republishes it as a brutella/can.Frame on a local
// SocketCAN interface.
func runSniff(args []string) error {
	fs := flag.NewFlagSet("sniff", flag.ExitOnError)
	port := fs.String("port", "", "serial port device, e.g. /dev/ttyACM0")
	baud := fs.Int("baud", 0, "serial baud rate")
	iface := fs.String("socketcan", "", "optional SocketCAN interface to republish frames on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := loadConfig(defaultConfigPath())
	if *port == "" {
		*port = cfg.Port
	}
	if *baud == 0 {
		*baud = cfg.Baud
	}

	p, err := openPort(*port, *baud)
	if err != nil {
		return fmt.Errorf("open %s: %w", *port, err)
	}
	defer p.Close()

	var bus *brutellacan.Bus
	if *iface != "" {
		b, err := brutellacan.NewBusForInterfaceWithName(*iface)
		if err != nil {
			return fmt.Errorf("open socketcan %s: %w", *iface, err)
		}
		bus = b
		go bus.ConnectAndPublish()
	}

	log.WithFields(log.Fields{"port": *port, "baud": *baud}).Info("sniffing")

	scanner := bufio.NewScanner(p)
	scanner.Split(scanSLCANLines)

	for scanner.Scan() {
		ev, ok := decodeSLCANLine(scanner.Bytes())
		if !ok {
			continue
		}

		log.WithFields(log.Fields{
			"id":       fmt.Sprintf("%X", ev.ID),
			"extended": ev.Extended,
			"rtr":      ev.RTR,
			"len":      ev.Len,
			"data":     fmt.Sprintf("% X", ev.Data[:ev.Len]),
		}).Info("frame")

		if bus == nil {
			continue
		}

		frame := brutellacan.Frame{ID: ev.ID, Length: ev.Len}
		copy(frame.Data[:], ev.Data[:ev.Len])
		if ev.Extended {
			frame.ID |= extendedIDFlag
		}
		if err := bus.Publish(frame); err != nil {
			log.WithError(err).Warn("socketcan publish failed")
		}
	}

	return scanner.Err()
}
