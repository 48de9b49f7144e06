package datalogger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/usbarmory/canbridge/can"
)

func TestCoreStatusPayloadBigEndian(t *testing.T) {
	b := CoreStatusPayload(0x0102, 0x0304)

	assert.Equal(t, [4]byte{0x01, 0x02, 0x03, 0x04}, b)
}

func TestHeartbeatFramesUseSpecIDs(t *testing.T) {
	heartbeat, status := HeartbeatFrames(2550, 1205)

	assert.Equal(t, uint32(CanHeartDatalogger), heartbeat.ID)
	assert.Equal(t, uint8(0), heartbeat.Len)

	assert.Equal(t, uint32(CanCoreStatusDatalogger), status.ID)
	assert.Equal(t, uint8(4), status.Len)
	assert.Equal(t, can.KindData, status.Kind)
}
