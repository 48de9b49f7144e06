package simulated

// Serial is an in-memory hal.SerialEndpoint: two byte queues standing
// in for the USB CDC-ACM link's host-to-device and device-to-host
// directions.
type Serial struct {
	connected  bool
	configured bool

	rx []byte // host -> device, drained by ReadByte
	tx []byte // device -> host, appended by WriteBlockNB

	// WriteBlocked makes the next WriteBlockNB call report congestion,
	// modeling a full USB IN endpoint.
	WriteBlocked bool
}

// NewSerial constructs a Serial endpoint that reports connected and
// configured.
func NewSerial() *Serial {
	return &Serial{connected: true, configured: true}
}

// Connected implements hal.SerialEndpoint.
func (s *Serial) Connected() bool { return s.connected }

// Configured implements hal.SerialEndpoint.
func (s *Serial) Configured() bool { return s.configured }

// Readable implements hal.SerialEndpoint.
func (s *Serial) Readable() bool { return len(s.rx) > 0 }

// ReadByte implements hal.SerialEndpoint.
func (s *Serial) ReadByte() (byte, bool) {
	if len(s.rx) == 0 {
		return 0, false
	}
	b := s.rx[0]
	s.rx = s.rx[1:]
	return b, true
}

// WriteBlockNB implements hal.SerialEndpoint.
func (s *Serial) WriteBlockNB(p []byte) bool {
	if s.WriteBlocked {
		return false
	}
	s.tx = append(s.tx, p...)
	return true
}

// Reset implements hal.SerialEndpoint.
func (s *Serial) Reset() {
	s.rx = nil
	s.tx = nil
}

// Disconnect simulates a host disconnect/reconnect cycle.
func (s *Serial) Disconnect() { s.connected = false; s.configured = false }

// Connect simulates the host reattaching.
func (s *Serial) Connect() { s.connected = true; s.configured = true }

// FeedHost queues bytes as if typed/sent by the host.
func (s *Serial) FeedHost(p []byte) { s.rx = append(s.rx, p...) }

// TakeDeviceOutput drains and returns everything the device has
// written so far.
func (s *Serial) TakeDeviceOutput() []byte {
	out := s.tx
	s.tx = nil
	return out
}
