package pd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBus is an I2CBus double. Writes are recorded verbatim; reads are
// served from a FIFO byte stream regardless of the register addressed,
// modeling how the chip's single FIFO register address streams
// whatever bytes are next queued.
type fakeBus struct {
	writes [][]byte
	stream []byte
}

func (b *fakeBus) Transfer(addr uint8, w, r []byte) error {
	if len(w) > 0 {
		b.writes = append(b.writes, append([]byte(nil), w...))
	}
	if len(r) > 0 {
		n := copy(r, b.stream)
		b.stream = b.stream[n:]
	}
	return nil
}

func TestControllerWriteFIFOMessageFramesSOP(t *testing.T) {
	bus := &fakeBus{}
	c := NewController(bus, 0x22)

	msg := Message{Header: BuildHeader(DataRequest, 1, 0)}
	msg.Data[0] = 0xAABBCCDD

	require.NoError(t, c.WriteFIFOMessage(msg))
	require.Len(t, bus.writes, 1)

	got := bus.writes[0]
	assert.Equal(t, byte(regFIFOs), got[0])
	assert.Equal(t, []byte{fifoSOP1, fifoSOP1, fifoSOP1, fifoSOP2}, got[1:5])
	assert.Equal(t, byte(fifoPackSym|6), got[5]) // 2 header + 4 data bytes
	assert.Equal(t, []byte{fifoJamCRC, fifoEOP, fifoTxOff, fifoTxOn}, got[len(got)-4:])
}

func TestControllerReadNextRxFIFODecodesMessage(t *testing.T) {
	bus := &fakeBus{}
	c := NewController(bus, 0x22)

	hdr := BuildHeader(DataSourceCapabilities, 1, 3)
	bus.stream = append(bus.stream, sopTokenMask)
	bus.stream = append(bus.stream, byte(hdr), byte(hdr>>8))
	bus.stream = append(bus.stream, 0x00, 0x0A, 0x00, 0x00) // 2560 raw
	bus.stream = append(bus.stream, 0, 0, 0, 0)             // trailing CRC, discarded

	msg, err := c.ReadNextRxFIFO()

	require.NoError(t, err)
	assert.Equal(t, DataSourceCapabilities, msg.Header.Type())
	assert.Equal(t, uint32(0x00000A00), msg.Data[0])
}

func TestControllerReadNextRxFIFORejectsBadSOPToken(t *testing.T) {
	bus := &fakeBus{}
	c := NewController(bus, 0x22)
	bus.stream = append(bus.stream, 0x00)

	_, err := c.ReadNextRxFIFO()

	assert.ErrorIs(t, err, ErrUnknownRxStructure)
}
