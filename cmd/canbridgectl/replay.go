package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/usbarmory/canbridge/cobs"
)

// Trace file format: a sequence of records, each a 4-byte big-endian
// microsecond delay (time since the previous record) followed by one
// complete, self-delimiting cobs.EncodeTachyon frame (which already
// ends in the 0x00 COBS delimiter, so records need no length prefix
// of their own).
const traceDelayBytes = 4

func readTraceRecords(data []byte) (delays []uint32, frames [][]byte, err error) {
	for len(data) > 0 {
		if len(data) < traceDelayBytes {
			return nil, nil, fmt.Errorf("replay: truncated trace, %d trailing bytes", len(data))
		}

		delay := binary.BigEndian.Uint32(data[:traceDelayBytes])
		data = data[traceDelayBytes:]

		end := bytes.IndexByte(data, 0x00)
		if end < 0 {
			return nil, nil, fmt.Errorf("replay: trace frame missing COBS delimiter")
		}

		delays = append(delays, delay)
		frames = append(frames, data[:end+1])
		data = data[end+1:]
	}

	return delays, frames, nil
}

// runReplay implements `canbridgectl replay`: it reads a previously
// captured Tachyon-framed trace and writes each frame to the serial
// port, sleeping for the recorded inter-frame delay beforehand.
func runReplay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	file := fs.String("file", "", "captured trace file")
	port := fs.String("port", "", "serial port device, e.g. /dev/ttyACM0")
	baud := fs.Int("baud", 0, "serial baud rate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("replay: -file is required")
	}

	cfg := loadConfig(defaultConfigPath())
	if *port == "" {
		*port = cfg.Port
	}
	if *baud == 0 {
		*baud = cfg.Baud
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read %s: %w", *file, err)
	}

	delays, frames, err := readTraceRecords(data)
	if err != nil {
		return err
	}

	p, err := openPort(*port, *baud)
	if err != nil {
		return fmt.Errorf("open %s: %w", *port, err)
	}
	defer p.Close()

	log.WithFields(log.Fields{"port": *port, "frames": len(frames)}).Info("replaying trace")

	for i, frame := range frames {
		if delays[i] > 0 {
			time.Sleep(time.Duration(delays[i]) * time.Microsecond)
		}

		id, payload, err := cobs.DecodeTachyon(frame)
		if err != nil {
			log.WithError(err).Warn("skipping malformed trace frame")
			continue
		}

		if _, err := p.Write(frame); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}

		log.WithFields(log.Fields{
			"id":   fmt.Sprintf("%X", id),
			"len":  len(payload),
			"data": fmt.Sprintf("% X", payload),
		}).Debug("replayed frame")
	}

	return nil
}
