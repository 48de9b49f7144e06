package datalogger

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbarmory/canbridge/can"
	"github.com/usbarmory/canbridge/cobs"
	"github.com/usbarmory/canbridge/hal/simulated"
	"github.com/usbarmory/canbridge/hidproto"
	"github.com/usbarmory/canbridge/timeutil"
)

type fakeCounter struct{ v uint32 }

func (f *fakeCounter) Read() uint32 { return f.v }

type fakeVoltage struct {
	mv  int32
	err error
}

func (f *fakeVoltage) ReadMV() (int32, error) { return f.mv, f.err }

type fakeDeviceFS struct {
	*fakeDir
	mounted  bool
	lastFile *fakeFile
	opened   string
}

func (fs *fakeDeviceFS) Mount() error   { fs.mounted = true; return nil }
func (fs *fakeDeviceFS) Unmount() error { fs.mounted = false; return nil }
func (fs *fakeDeviceFS) OpenFile(path string) (io.WriteCloser, error) {
	f := &fakeFile{}
	fs.lastFile = f
	fs.opened = path
	return f, nil
}

func newTestDevice(t *testing.T) (*Device, *fakeDeviceFS, *simulated.CANBus, *simulated.DigitalIn, *simulated.DigitalIn, *fakeVoltage, *timeutil.Clock) {
	t.Helper()

	hw := &fakeCounter{}
	clock := timeutil.NewClock(hw)
	clock.Start()

	fs := &fakeDeviceFS{fakeDir: newFakeDir()}
	rtc := fakeRTC{t: RTCTime{Year: 2024, Month: 1, Day: 15, Hour: 8, Minute: 30}, ok: true}
	fsm := NewFSM(fs, rtc, clock.NowUS, 0)

	bus := &simulated.CANBus{}
	cardDetect := simulated.NewDigitalIn(false)
	dismount := simulated.NewDigitalIn(false)
	voltage := &fakeVoltage{mv: 3200}

	d := NewDevice(fsm, bus, clock, cardDetect, dismount, voltage, 0)

	return d, fs, bus, cardDetect, dismount, voltage, clock
}

func TestDevicePollInputsMountsOnCardInsert(t *testing.T) {
	d, fs, _, cardDetect, _, _, _ := newTestDevice(t)

	cardDetect.Set(true)
	d.PollInputs()
	d.PollInputs()

	assert.Equal(t, Active, d.FSM().State())
	assert.True(t, fs.mounted)
}

func TestDeviceStatusColorTracksFSMLED(t *testing.T) {
	d, _, _, _, _, _, _ := newTestDevice(t)

	assert.Equal(t, LEDOff, d.FSM().LED())
	assert.Equal(t, ledColors[LEDOff], d.StatusColor())
}

func TestDeviceHandleCANEventAppendsRecordOnlyWhenMounted(t *testing.T) {
	d, _, _, cardDetect, _, _, _ := newTestDevice(t)

	ev := can.DataEvent(0x123, false, false, []byte{0xaa}, 0)
	d.HandleCANEvent(ev)
	assert.Nil(t, d.FSM().Writer())

	cardDetect.Set(true)
	d.PollInputs()
	d.PollInputs()
	require.Equal(t, Active, d.FSM().State())

	d.HandleCANEvent(ev)
	require.NotNil(t, d.FSM().Writer())
}

func TestDeviceHandleCANEventWritesCanErrorRecordForErrorKind(t *testing.T) {
	d, fs, _, cardDetect, _, _, _ := newTestDevice(t)

	cardDetect.Set(true)
	d.PollInputs()
	d.PollInputs()
	require.Equal(t, Active, d.FSM().State())

	d.HandleCANEvent(can.ErrorEvent(can.ErrorBusOff, 0))

	require.NotEmpty(t, fs.lastFile.writes)
	frame := fs.lastFile.writes[len(fs.lastFile.writes)-1]

	require.NotEmpty(t, frame)
	decoded, ok := cobs.Decode(frame[1:]) // frame[0] is Writer's 0x00 record separator
	require.True(t, ok)

	length, consumed, ok := hidproto.DecodeVarint(decoded)
	require.True(t, ok)
	body := decoded[consumed : consumed+length]

	require.NotEmpty(t, body)
	assert.Equal(t, byte(TagCanError), body[0])
	require.Len(t, body, 3)
	assert.Equal(t, byte(ErrSourceBusOff), body[2])
}

func TestDeviceRunTickersTransmitsHeartbeatOnFirstPass(t *testing.T) {
	d, _, bus, _, _, _, _ := newTestDevice(t)

	d.RunTickers()

	require.Len(t, bus.Sent, 2)
	assert.Equal(t, uint32(CanHeartDatalogger), bus.Sent[0].ID)
	assert.Equal(t, uint32(CanCoreStatusDatalogger), bus.Sent[1].ID)
}

func TestDeviceDismountButtonClickTriggersRequestUserDismount(t *testing.T) {
	d, _, _, cardDetect, dismount, _, _ := newTestDevice(t)

	cardDetect.Set(true)
	d.PollInputs()
	d.PollInputs()
	require.Equal(t, Active, d.FSM().State())

	dismount.Set(true)
	d.PollInputs() // pending rise
	d.PollInputs() // latches Rising -> ClickPress

	dismount.Set(false)
	d.PollInputs() // pending fall
	d.PollInputs() // latches Falling -> ClickRelease

	assert.Equal(t, UserDismount, d.FSM().State())
}
