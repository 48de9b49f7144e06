package datalogger

import (
	"github.com/usbarmory/canbridge/can"
	"github.com/usbarmory/canbridge/timeutil"
)

// Periods for the datalogger's periodic duties, spec §4.L.
const (
	FileSyncPeriodUS    = 5 * 60 * 1_000_000
	VoltageSavePeriodUS = 1 * 1_000_000
	HeartbeatPeriodUS   = 1 * 1_000_000
)

// Heartbeat CAN IDs, spec §6.
const (
	CanHeartDatalogger      = 0x049
	CanCoreStatusDatalogger = 0x749
)

// Syncer is the subset of an open file the FileSyncTicker needs.
type Syncer interface {
	Sync() error
}

// NewFileSyncTicker builds the ticker that periodically fsyncs the
// active log file.
func NewFileSyncTicker(clock *timeutil.Clock) *timeutil.Ticker {
	return timeutil.NewTicker(clock, FileSyncPeriodUS)
}

// NewVoltageSaveTicker builds the ticker that periodically flushes
// rail statistics. No loop-time histogram record is written.
func NewVoltageSaveTicker(clock *timeutil.Clock) *timeutil.Ticker {
	return timeutil.NewTicker(clock, VoltageSavePeriodUS)
}

// NewHeartbeatTicker builds the ticker that periodically injects a
// heartbeat frame onto the CAN TX path.
func NewHeartbeatTicker(clock *timeutil.Clock) *timeutil.Ticker {
	return timeutil.NewTicker(clock, HeartbeatPeriodUS)
}

// CoreStatusPayload encodes the 2xu16 big-endian core-status frame
// body, spec §6.
func CoreStatusPayload(temperatureCentiC, vrefBandgapMV uint16) [4]byte {
	var b [4]byte
	b[0] = byte(temperatureCentiC >> 8)
	b[1] = byte(temperatureCentiC)
	b[2] = byte(vrefBandgapMV >> 8)
	b[3] = byte(vrefBandgapMV)
	return b
}

// HeartbeatFrames returns the two CAN TX frames the HeartbeatTicker
// injects: the bare heartbeat and the core-status frame.
func HeartbeatFrames(temperatureCentiC, vrefBandgapMV uint16) (heartbeat, status can.Event) {
	heartbeat = can.DataEvent(CanHeartDatalogger, false, false, nil, 0)

	payload := CoreStatusPayload(temperatureCentiC, vrefBandgapMV)
	status = can.DataEvent(CanCoreStatusDatalogger, false, false, payload[:], 0)

	return heartbeat, status
}
