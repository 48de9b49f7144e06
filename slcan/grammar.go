package slcan

// BitrateCode maps an SLCAN 'S' command digit to a nominal CAN bitrate
// in bit/s, per spec §4.G.
var BitrateCode = [9]uint32{
	0: 10_000,
	1: 20_000,
	2: 50_000,
	3: 100_000,
	4: 125_000,
	5: 250_000,
	6: 500_000,
	7: 800_000,
	8: 1_000_000,
}

const (
	cr   = '\r'
	bell = 0x07
)

// inputBufferSize bounds the accumulated command line, per spec §3.
const inputBufferSize = 32

// outputBufferSize bounds the accumulated response/telemetry buffer,
// per spec §3.
const outputBufferSize = 256
