package simulated

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestI2CBusWriteThenReadFollowsRegisterPointer(t *testing.T) {
	b := NewI2CBus()
	b.SetReg(0x22, 0x10, 0xAA)
	b.SetReg(0x22, 0x11, 0xBB)
	b.SetReg(0x22, 0x12, 0xCC)

	require.NoError(t, b.Transfer(0x22, []byte{0x10}, nil))

	r := make([]byte, 3)
	require.NoError(t, b.Transfer(0x22, nil, r))

	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, r)
}

func TestI2CBusCombinedWriteReadUsesRepeatedStart(t *testing.T) {
	b := NewI2CBus()
	b.SetReg(0x22, 0x10, 0xAA)
	b.SetReg(0x22, 0x11, 0xBB)

	r := make([]byte, 2)
	require.NoError(t, b.Transfer(0x22, []byte{0x10}, r))

	assert.Equal(t, []byte{0xAA, 0xBB}, r)
}

func TestI2CBusWriteWithDataLatchesRegisters(t *testing.T) {
	b := NewI2CBus()

	require.NoError(t, b.Transfer(0x22, []byte{0x02, 0x01, 0x02}, nil))

	assert.Equal(t, byte(0x01), b.Regs[0x22][0x02])
	assert.Equal(t, byte(0x02), b.Regs[0x22][0x03])
}

func TestI2CBusErrShortCircuitsTransfer(t *testing.T) {
	b := NewI2CBus()
	b.Err = errors.New("nak")

	err := b.Transfer(0x22, []byte{0x02, 0x01}, nil)

	assert.ErrorIs(t, err, b.Err)
	assert.Nil(t, b.Regs[0x22])
}

func TestI2CBusKeepsSeparateDevicesIsolated(t *testing.T) {
	b := NewI2CBus()
	b.SetReg(0x22, 0x00, 0x11)
	b.SetReg(0x23, 0x00, 0x22)

	assert.Equal(t, byte(0x11), b.Regs[0x22][0x00])
	assert.Equal(t, byte(0x22), b.Regs[0x23][0x00])
}
