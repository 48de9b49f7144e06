package pd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildHeaderRoundTrip(t *testing.T) {
	h := BuildHeader(DataRequest, 1, 5)

	assert.Equal(t, DataRequest, h.Type())
	assert.Equal(t, 1, h.NumDataObjects())
	assert.Equal(t, uint8(5), h.MessageID())
	assert.True(t, h.IsData())
}

func TestBuildHeaderControlMessageHasNoDataObjects(t *testing.T) {
	h := BuildHeader(CtrlAccept, 0, 2)

	assert.Equal(t, CtrlAccept, h.Type())
	assert.Equal(t, 0, h.NumDataObjects())
	assert.False(t, h.IsData())
}

func TestDecodeCapabilityFixedSupply(t *testing.T) {
	// 5V @ 3A fixed supply: voltage field = 100 (x50mV), current field
	// = 300 (x10mA).
	raw := uint32(100)<<10 | uint32(300)

	c := DecodeCapability(raw)

	assert.Equal(t, FixedSupply, c.Type)
	assert.Equal(t, uint16(5000), c.VoltageMV)
	assert.Equal(t, uint16(3000), c.MaxCurrentMA)
}

func TestDecodeCapabilityNonFixedType(t *testing.T) {
	raw := uint32(2) << 30 // Variable supply marker

	c := DecodeCapability(raw)

	assert.Equal(t, Variable, c.Type)
}

func TestRequestObjectEncodesPositionAndCurrent(t *testing.T) {
	obj := RequestObject(2, 1500)

	assert.Equal(t, uint32(2), (obj>>28)&0x7)
	assert.Equal(t, uint32(150), obj&0x3FF)
	assert.Equal(t, uint32(150), (obj>>10)&0x3FF)
}

func TestRequestObjectSetsNoUSBSuspend(t *testing.T) {
	obj := RequestObject(1, 900)

	assert.NotZero(t, obj&(1<<24))
}
