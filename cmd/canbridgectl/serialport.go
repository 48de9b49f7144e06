package main

import (
	"fmt"
	"time"

	"github.com/daedaluz/goserial"
)

// openPort opens name in raw mode at baud, the shared setup sniff and
// replay both need before they touch the byte stream.
func openPort(name string, baud int) (*goserial.Port, error) {
	opts := goserial.NewOptions().SetReadTimeout(200 * time.Millisecond)

	p, err := goserial.Open(name, opts)
	if err != nil {
		return nil, err
	}

	attrs, err := p.GetAttr2()
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("get termios: %w", err)
	}

	attrs.MakeRaw()
	attrs.Cflag |= goserial.CREAD | goserial.CLOCAL
	attrs.SetCustomSpeed(uint32(baud))

	if err := p.SetAttr2(goserial.TCSANOW, attrs); err != nil {
		p.Close()
		return nil, fmt.Errorf("set termios: %w", err)
	}

	return p, nil
}
