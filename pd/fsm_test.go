package pd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCC is a CCMeasurer double that reports level1 > level0, so CC2
// always wins detection.
type fakeCC struct {
	enabled []uint8
}

func (c *fakeCC) EnableMeasure(pin uint8) error {
	c.enabled = append(c.enabled, pin)
	return nil
}

func (c *fakeCC) ReadLevel() (uint8, error) {
	if len(c.enabled) == 0 {
		return 0, nil
	}
	if c.enabled[len(c.enabled)-1] == 0 {
		return 1, nil
	}
	return 3, nil
}

type fakeClock struct{ t uint64 }

func (c *fakeClock) now() uint64     { return c.t }
func (c *fakeClock) advance(d uint64) { c.t += d }

func newTestNegotiator() (*Negotiator, *fakeBus, *fakeClock) {
	bus := &fakeBus{}
	ctrl := NewController(bus, 0x22)
	cc := &fakeCC{}
	clock := &fakeClock{}
	n := NewNegotiator(ctrl, cc, clock.now)
	return n, bus, clock
}

// driveToConnected runs the FSM from Start through DetectCc and
// EnableTransceiver up to WaitSourceCaps, then delivers a one-PDO
// SourceCapabilities message, landing in Connected with a Request
// already sent for position 1.
func driveToConnected(t *testing.T, n *Negotiator, clock *fakeClock, pdo uint32) {
	t.Helper()

	n.Poll() // Start -> DetectCc, first measure armed

	clock.advance(measureTimeUS + 1)
	n.Poll() // records level0, swaps to pin 1

	clock.advance(measureTimeUS + 1)
	n.Poll() // records level1, resolves ccPin, -> EnableTransceiver

	n.Poll() // -> WaitSourceCaps

	require.Equal(t, WaitSourceCaps, n.CurrentState())

	caps := BuildHeader(DataSourceCapabilities, 1, 0)
	msg := Message{Header: caps}
	msg.Data[0] = pdo
	n.HandleRX(msg)
}

func TestNegotiatorColdPlugFixed5VOnly(t *testing.T) {
	n, bus, clock := newTestNegotiator()

	fivevolt3a := uint32(100)<<10 | uint32(300)
	driveToConnected(t, n, clock, fivevolt3a)

	assert.Equal(t, Connected, n.CurrentState())
	require.Len(t, n.SourceCaps(), 1)
	assert.Equal(t, uint16(5000), n.SourceCaps()[0].VoltageMV)

	// Auto-request for position 1 should already be in flight.
	require.NotEmpty(t, bus.writes)
	assert.Equal(t, uint8(1), n.requestedCap)
	assert.False(t, n.PowerStable())

	n.HandleRX(Message{Header: BuildHeader(CtrlAccept, 0, 1)})
	assert.Equal(t, uint8(1), n.CurrentCap())

	n.HandleRX(Message{Header: BuildHeader(CtrlPSRDY, 0, 2)})
	assert.True(t, n.PowerStable())
}

func TestNegotiatorRenegotiateHigherRail(t *testing.T) {
	n, _, clock := newTestNegotiator()

	fivevolt := uint32(100)<<10 | uint32(300)
	driveToConnected(t, n, clock, fivevolt)
	n.HandleRX(Message{Header: BuildHeader(CtrlAccept, 0, 1)})
	n.HandleRX(Message{Header: BuildHeader(CtrlPSRDY, 0, 2)})
	require.Equal(t, uint8(1), n.CurrentCap())

	require.NoError(t, n.RequestCapability(2, 2000))
	assert.True(t, n.awaitingResponse)
	assert.False(t, n.PowerStable())

	n.HandleRX(Message{Header: BuildHeader(CtrlAccept, 0, 3)})
	assert.Equal(t, uint8(2), n.CurrentCap())

	n.HandleRX(Message{Header: BuildHeader(CtrlPSRDY, 0, 4)})
	assert.True(t, n.PowerStable())
}

func TestNegotiatorRequestRejectedRollsBackToPreviousCap(t *testing.T) {
	n, _, clock := newTestNegotiator()
	fivevolt := uint32(100)<<10 | uint32(300)
	driveToConnected(t, n, clock, fivevolt)
	n.HandleRX(Message{Header: BuildHeader(CtrlAccept, 0, 1)})
	require.Equal(t, uint8(1), n.CurrentCap())

	require.NoError(t, n.RequestCapability(2, 2000))
	n.HandleRX(Message{Header: BuildHeader(CtrlReject, 0, 2)})

	assert.Equal(t, uint8(1), n.requestedCap)
	assert.False(t, n.awaitingResponse)
}

func TestNegotiatorDisconnectDetectionResetsToStart(t *testing.T) {
	n, _, clock := newTestNegotiator()
	fivevolt := uint32(100)<<10 | uint32(300)
	driveToConnected(t, n, clock, fivevolt)
	require.Equal(t, Connected, n.CurrentState())

	n.OnCompChanged(true)
	clock.advance(compLowResetTimeUS + 1)
	n.Poll()

	assert.Equal(t, Start, n.CurrentState())

	// The next pass re-enters Start's reset logic, clearing caps and
	// the accepted capability.
	n.Poll()
	assert.Empty(t, n.SourceCaps())
	assert.Equal(t, uint8(0), n.CurrentCap())
}

func TestNegotiatorCompLowBriefBlipDoesNotReset(t *testing.T) {
	n, _, clock := newTestNegotiator()
	fivevolt := uint32(100)<<10 | uint32(300)
	driveToConnected(t, n, clock, fivevolt)

	n.OnCompChanged(true)
	clock.advance(compLowResetTimeUS / 2)
	n.OnCompChanged(false)
	n.Poll()

	assert.Equal(t, Connected, n.CurrentState())
}

func TestNegotiatorRequestTimeoutRetriesThenFallsBackTo5V(t *testing.T) {
	n, _, clock := newTestNegotiator()
	fivevolt := uint32(100)<<10 | uint32(300)
	driveToConnected(t, n, clock, fivevolt)
	n.HandleRX(Message{Header: BuildHeader(CtrlAccept, 0, 1)})

	require.NoError(t, n.RequestCapability(3, 3000))

	for i := 0; i < maxRequestRetries; i++ {
		clock.advance(senderResponseTimeoutUS + 1)
		n.Poll()
		assert.Equal(t, uint8(3), n.requestedCap)
	}

	// One more timeout past the retry budget falls back to 5V.
	clock.advance(senderResponseTimeoutUS + 1)
	n.Poll()

	assert.Equal(t, uint8(1), n.requestedCap)
}

func TestNegotiatorUnhandledControlMessageIsIgnored(t *testing.T) {
	n, _, clock := newTestNegotiator()
	fivevolt := uint32(100)<<10 | uint32(300)
	driveToConnected(t, n, clock, fivevolt)

	before := n.CurrentState()
	n.HandleRX(Message{Header: BuildHeader(CtrlGoodCRC, 0, 7)})

	assert.Equal(t, before, n.CurrentState())
}
