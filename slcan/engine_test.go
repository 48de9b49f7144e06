package slcan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbarmory/canbridge/can"
)

type mockPort struct {
	in  []byte
	out []byte
}

func (p *mockPort) feed(s string) { p.in = append(p.in, s...) }

func (p *mockPort) Readable() bool { return len(p.in) > 0 }

func (p *mockPort) ReadByte() (byte, bool) {
	if len(p.in) == 0 {
		return 0, false
	}
	b := p.in[0]
	p.in = p.in[1:]
	return b, true
}

func (p *mockPort) WriteBlockNB(b []byte) bool {
	p.out = append(p.out, b...)
	return true
}

func newTestEngine(cb Callbacks) (*Engine, *mockPort, *can.Ring) {
	port := &mockPort{}
	rx := can.NewRing()
	return New(port, rx, cb), port, rx
}

func TestEngineUnknownCommandRepliesBell(t *testing.T) {
	e, port, _ := newTestEngine(Callbacks{})
	port.feed("Z\r")

	e.Update()

	require.Len(t, port.out, 1)
	assert.Equal(t, byte(bell), port.out[0])
}

func TestEngineOpenInvokesModeCallback(t *testing.T) {
	var got Mode
	called := false
	e, port, _ := newTestEngine(Callbacks{Mode: func(m Mode) bool {
		called = true
		got = m
		return true
	}})
	port.feed("O\r")

	e.Update()

	assert.True(t, called)
	assert.Equal(t, ModeOpen, got)
	require.Len(t, port.out, 1)
	assert.Equal(t, byte(cr), port.out[0])
}

func TestEngineBitrateDecodesCode(t *testing.T) {
	var got uint32
	e, port, _ := newTestEngine(Callbacks{Bitrate: func(b uint32) bool {
		got = b
		return true
	}})
	port.feed("S6\r")

	e.Update()

	assert.Equal(t, uint32(500_000), got)
	assert.Equal(t, []byte{cr}, port.out)
}

func TestEngineIgnoreConfigSkipsCallback(t *testing.T) {
	called := false
	e, port, _ := newTestEngine(Callbacks{Mode: func(Mode) bool {
		called = true
		return false
	}})
	e.IgnoreConfig = true
	port.feed("O\r")

	e.Update()

	assert.False(t, called)
	assert.Equal(t, []byte{cr}, port.out)
}

func TestEngineTransmitStandardFrame(t *testing.T) {
	var got can.Event
	e, port, _ := newTestEngine(Callbacks{Transmit: func(ev can.Event) bool {
		got = ev
		return true
	}})
	port.feed("t1232AABB\r")

	e.Update()

	assert.Equal(t, uint32(0x123), got.ID)
	assert.False(t, got.Extended)
	assert.Equal(t, uint8(2), got.Len)
	assert.Equal(t, []byte{0xAA, 0xBB}, got.Data[:2])
	assert.Equal(t, []byte{cr}, port.out)
}

func TestEngineTransmitExtendedFrame(t *testing.T) {
	var got can.Event
	e, port, _ := newTestEngine(Callbacks{Transmit: func(ev can.Event) bool {
		got = ev
		return true
	}})
	port.feed("T123456781FF\r")

	e.Update()

	assert.Equal(t, uint32(0x12345678), got.ID)
	assert.True(t, got.Extended)
	assert.Equal(t, uint8(1), got.Len)
	assert.Equal(t, byte(0xFF), got.Data[0])
	assert.Equal(t, []byte{cr}, port.out)
}

func TestEngineMalformedTransmitRepliesBell(t *testing.T) {
	e, port, _ := newTestEngine(Callbacks{Transmit: func(can.Event) bool { return true }})
	port.feed("t12\r") // missing dlc digit

	e.Update()

	assert.Equal(t, []byte{bell}, port.out)
}

func TestEngineFormatsInboundFrameFromRXQueue(t *testing.T) {
	e, port, rx := newTestEngine(Callbacks{})
	rx.Push(can.DataEvent(0x321, false, false, []byte{0xDE, 0xAD}, 0))

	e.Update()

	assert.Equal(t, "t3212DEAD\r", string(port.out))
}

func TestEngineResetDiscardsPartialInputAndQueue(t *testing.T) {
	e, port, rx := newTestEngine(Callbacks{
		Mode: func(Mode) bool { return true },
	})
	port.feed("t123") // no terminator yet
	e.Update()
	rx.Push(can.DataEvent(1, false, false, nil, 0))

	e.Reset()
	e.Update()

	assert.Empty(t, port.out)

	// A fresh command after reset still works.
	port.feed("O\r")
	e.Update()
	assert.Equal(t, []byte{cr}, port.out)
}

func TestEngineExactlyOneResponsePerCommand(t *testing.T) {
	e, port, _ := newTestEngine(Callbacks{
		Mode: func(Mode) bool { return true },
	})
	port.feed("O\rL\rC\r")

	e.Update()
	e.Update()
	e.Update()

	assert.Equal(t, []byte{cr, cr, cr}, port.out)
}
