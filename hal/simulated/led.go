package simulated

import "github.com/usbarmory/canbridge/hal"

// LED is an in-memory hal.StatusLED recording every color it is set
// to, so tests can assert on the run loop's status reporting without a
// physical indicator.
type LED struct {
	Current hal.Color
	History []hal.Color
}

// Set implements hal.StatusLED.
func (l *LED) Set(c hal.Color) {
	l.Current = c
	l.History = append(l.History, c)
}
