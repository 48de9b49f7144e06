package datalogger

import (
	"fmt"
	"io"

	"github.com/usbarmory/canbridge/filter"
)

// State is one of the datalogger mount/dismount FSM states, spec
// §4.L's mount table.
type State int

const (
	Inactive State = iota
	BadCard
	Active
	UserDismount
	UnsafeEject
)

// LED mirrors the status color codes spec §6 assigns to the
// datalogger's SD indicator.
type LED int

const (
	LEDOff LED = iota
	LEDRed
	LEDGreen
	LEDPurple
	LEDBlue
)

// Default voltage hysteresis thresholds, spec §4.L.
const (
	DefaultMountThresholdMV    = 3100
	DefaultDismountThresholdMV = 2850
)

// undismountTimeoutUS bounds how long UserDismount waits for physical
// card removal before giving up and returning to Inactive on its own.
const undismountTimeoutUS = 10_000_000

// remountIntervalUS is how often BadCard retries mounting.
const remountIntervalUS = 2_000_000

// FS is the filesystem surface the FSM needs: directory listing for
// filename sequencing (Dir), mount/unmount, and file creation.
// hal.SDCard's filesystem layer satisfies it.
type FS interface {
	Dir
	Mount() error
	Unmount() error
	OpenFile(path string) (io.WriteCloser, error)
}

// RTCTime is a real-time-clock reading used to name the log directory.
type RTCTime struct {
	Year, Month, Day, Hour, Minute int
}

// RTC reports the current wall-clock time; ok is false if the clock
// has lost power and its reading cannot be trusted.
type RTC interface {
	Now() (t RTCTime, ok bool)
}

// FSM drives the datalogger's file lifecycle: it decides when to
// mount, open a new file, dismount, and close, from card-detect and
// supply-voltage inputs.
type FSM struct {
	fs  FS
	rtc RTC
	now func() uint64

	cardDetect *filter.Digital
	voltage    *filter.Analog
	voltageAvg movingAverage8

	state State
	led   LED

	writer   *Writer
	file     io.WriteCloser
	basename string

	remountDeadline    uint64
	undismountDeadline uint64
	failedMountCount   int
}

// NewFSM constructs an FSM. nowUS should be a *timeutil.Clock.NowUS
// method value.
func NewFSM(fs FS, rtc RTC, nowUS func() uint64, cardDebounceUS uint64) *FSM {
	return &FSM{
		fs:         fs,
		rtc:        rtc,
		now:        nowUS,
		cardDetect: filter.NewDigital(nowUS, cardDebounceUS, cardDebounceUS),
		voltage:    filter.NewAnalog(nowUS, 0, 0, DefaultMountThresholdMV, DefaultDismountThresholdMV),
		led:        LEDOff,
	}
}

// State returns the FSM's current state.
func (f *FSM) State() State { return f.state }

// LED returns the current status LED color.
func (f *FSM) LED() LED { return f.led }

// Writer returns the record writer for the currently open file, or
// nil if no file is open.
func (f *FSM) Writer() *Writer { return f.writer }

// File returns the currently open file, or nil, so callers can drive
// periodic fsync (see Syncer) without the FSM needing to know about
// tickers.
func (f *FSM) File() io.WriteCloser { return f.file }

// Update feeds the latest card-detect and supercap-voltage samples and
// advances the FSM by one step.
func (f *FSM) Update(cardPresentRaw bool, voltageMV int32) {
	cardLevel := f.cardDetect.Update(cardPresentRaw)
	smoothedMV := f.voltageAvg.Add(voltageMV)
	voltLevel := f.voltage.Update(smoothedMV)

	cardPresent := cardLevel.IsHigh()
	voltageOK := voltLevel.IsHigh()

	switch f.state {
	case Inactive:
		f.updateInactive(cardPresent, voltageOK)
	case BadCard:
		f.updateBadCard(cardPresent, voltageOK)
	case Active:
		f.updateActive(cardPresent, voltageOK)
	case UserDismount:
		f.updateUserDismount(cardPresent)
	case UnsafeEject:
		f.updateUnsafeEject(cardPresent)
	}
}

func (f *FSM) updateInactive(cardPresent, voltageOK bool) {
	if !voltageOK {
		f.led = LEDPurple
		return
	}
	if !cardPresent {
		f.led = LEDOff
		return
	}

	if f.tryMount() {
		f.state = Active
		f.led = LEDGreen
	} else {
		f.state = BadCard
		f.failedMountCount = 1
		f.remountDeadline = f.now() + remountIntervalUS
		f.led = LEDRed
	}
}

func (f *FSM) updateBadCard(cardPresent, voltageOK bool) {
	if !cardPresent || !voltageOK {
		f.state = Inactive
		f.failedMountCount = 0
		return
	}

	if f.now() < f.remountDeadline {
		return
	}

	if f.tryMount() {
		f.state = Active
		f.led = LEDGreen
		// A production build would log f.failedMountCount here.
		f.failedMountCount = 0
	} else {
		f.failedMountCount++
		f.remountDeadline = f.now() + remountIntervalUS
	}
}

func (f *FSM) updateActive(cardPresent, voltageOK bool) {
	if !cardPresent {
		f.closeFile()
		f.state = UnsafeEject
		f.led = LEDRed
		return
	}

	if !voltageOK {
		f.writer.WriteRecord(InfoString{Text: "Undervoltage dismount"})
		f.closeFile()
		_ = f.fs.Unmount()
		f.state = Inactive
		f.led = LEDOff
		return
	}
}

// RequestUserDismount handles the dismount button press while Active.
func (f *FSM) RequestUserDismount() {
	if f.state != Active {
		return
	}

	f.writer.WriteRecord(InfoString{Text: "User dismount"})
	f.closeFile()
	_ = f.fs.Unmount()
	f.state = UserDismount
	f.led = LEDBlue
	f.undismountDeadline = f.now() + undismountTimeoutUS
}

func (f *FSM) updateUserDismount(cardPresent bool) {
	if !cardPresent || f.now() >= f.undismountDeadline {
		f.state = Inactive
		f.led = LEDOff
	}
}

func (f *FSM) updateUnsafeEject(cardPresent bool) {
	if !cardPresent {
		f.state = Inactive
		f.led = LEDOff
	}
}

// tryMount mounts the filesystem and opens a new log file, writing the
// header records on success.
func (f *FSM) tryMount() bool {
	if err := f.fs.Mount(); err != nil {
		return false
	}

	dirname, basename, badRTC := f.namingComponents()

	path, err := NextName(f.fs, dirname, basename)
	if err != nil {
		_ = f.fs.Unmount()
		return false
	}

	file, err := f.fs.OpenFile(path)
	if err != nil {
		_ = f.fs.Unmount()
		return false
	}

	f.file = file
	f.writer = NewWriter(file)
	f.basename = basename

	f.writer.WriteRecord(SourceDef{SourceID: 0, Type: SourceCAN, Name: "can0"})
	if badRTC {
		f.writer.WriteRecord(InfoString{Text: "RTC stopped"})
	}

	return true
}

// namingComponents derives the mount-time directory/basename pair,
// applying the Open-Question #3 fix: a bad RTC reading routes the file
// under /NOTIME/ instead of a fabricated date directory, per
// DESIGN.md.
func (f *FSM) namingComponents() (dirname, basename string, badRTC bool) {
	t, ok := f.rtc.Now()
	if !ok {
		return "NOTIME", fmt.Sprintf("%02d%02d", t.Hour, t.Minute), true
	}
	return fmt.Sprintf("%04d%02d%02d", t.Year, t.Month, t.Day), fmt.Sprintf("%02d%02d", t.Hour, t.Minute), false
}

func (f *FSM) closeFile() {
	if f.file != nil {
		_ = f.file.Close()
	}
	f.file = nil
	f.writer = nil
}
