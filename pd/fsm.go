package pd

// State is one of the USB-PD negotiation FSM states, spec §3/§4.I.
type State int

const (
	Start State = iota
	DetectCc
	EnableTransceiver
	WaitSourceCaps
	Connected
)

// Timing constants, spec §4.I/§4.J.
const (
	measureTimeUS           = 1_000
	sourceCapTimeoutUS      = 200_000 // tTypeCSendSourceCapMsMax
	compLowResetTimeUS      = 1_000_000
	senderResponseTimeoutUS = 30_000
	maxRequestRetries       = 3
)

// CCMeasurer exposes the chip's CC-pin BC_LVL comparator, spec §4.I's
// DetectCc state.
type CCMeasurer interface {
	// EnableMeasure switches the comparator to measure pin (0 for CC1,
	// 1 for CC2).
	EnableMeasure(pin uint8) error
	// ReadLevel reads the 2-bit comparator output of the currently
	// selected pin.
	ReadLevel() (uint8, error)
}

// Negotiator is the USB-PD sink negotiation state machine driving a
// Controller over I2C. The zero value is not usable; construct with
// NewNegotiator.
type Negotiator struct {
	ctrl *Controller
	cc   CCMeasurer
	now  func() uint64

	state State

	ccPin                  int8 // -1 until resolved
	measuring              int8 // pin currently being measured, -1 if none
	measureStart           uint64
	level0, level1         uint8
	haveLevel0, haveLevel1 bool

	stateEnteredAt uint64

	nextMessageID uint8
	sourceCaps    []Capability
	requestedCap  uint8
	currentCap    uint8
	powerStable   bool

	compLow      bool
	compLowSince uint64

	awaitingResponse       bool
	requestSentAt          uint64
	requestRetries         int
	lastRequestedCurrentMA uint16
}

// NewNegotiator constructs a Negotiator. nowUS should be a
// *timeutil.Clock.NowUS method value.
func NewNegotiator(ctrl *Controller, cc CCMeasurer, nowUS func() uint64) *Negotiator {
	return &Negotiator{
		ctrl:      ctrl,
		cc:        cc,
		now:       nowUS,
		ccPin:     -1,
		measuring: -1,
	}
}

// CurrentState returns the FSM's current state, mainly for status LEDs
// and logging.
func (n *Negotiator) CurrentState() State { return n.state }

// SourceCaps returns the capabilities advertised by the last
// SourceCapabilities message, or nil before one is received.
func (n *Negotiator) SourceCaps() []Capability { return n.sourceCaps }

// CurrentCap returns the 1-indexed object position of the
// currently-accepted capability, or 0 if none has been accepted.
func (n *Negotiator) CurrentCap() uint8 { return n.currentCap }

// PowerStable reports whether the last requested capability has been
// confirmed with PS_RDY.
func (n *Negotiator) PowerStable() bool { return n.powerStable }

// Poll drives one step of the state machine. Call it from the main
// loop at least once per sub-millisecond tick.
func (n *Negotiator) Poll() {
	switch n.state {
	case Start:
		n.pollStart()
	case DetectCc:
		n.pollDetectCc()
	case EnableTransceiver:
		n.pollEnableTransceiver()
	case WaitSourceCaps:
		n.pollWaitSourceCaps()
	case Connected:
		n.pollConnected()
	}

	n.checkCompLowTimeout()
}

func (n *Negotiator) enter(s State) {
	n.state = s
	n.stateEnteredAt = n.now()
}

func (n *Negotiator) pollStart() {
	// Start clears only the FSM's own state. No chip reset, device ID
	// read or VBUS threshold programming is issued here, and nothing in
	// this tree re-runs chip setup when the FSM re-enters Start.
	n.ccPin = -1
	n.measuring = 0
	n.haveLevel0 = false
	n.haveLevel1 = false
	n.sourceCaps = nil
	n.currentCap = 0
	n.requestedCap = 0
	n.powerStable = false
	n.compLow = false
	n.awaitingResponse = false
	n.requestRetries = 0

	_ = n.cc.EnableMeasure(0)
	n.measureStart = n.now()

	n.enter(DetectCc)
}

func (n *Negotiator) pollDetectCc() {
	if n.now()-n.measureStart < measureTimeUS {
		return
	}

	level, err := n.cc.ReadLevel()
	if err != nil {
		return
	}

	if n.measuring == 0 {
		n.level0 = level
		n.haveLevel0 = true
	} else {
		n.level1 = level
		n.haveLevel1 = true
	}

	if n.haveLevel0 && n.haveLevel1 {
		switch {
		case n.level0 > n.level1:
			n.ccPin = 0
			n.enter(EnableTransceiver)
			return
		case n.level1 > n.level0:
			n.ccPin = 1
			n.enter(EnableTransceiver)
			return
		default:
			// Equal: swap and remeasure, per spec §4.I.
			n.haveLevel0 = false
			n.haveLevel1 = false
		}
	}

	// Alternate to the other pin.
	n.measuring = 1 - n.measuring
	_ = n.cc.EnableMeasure(uint8(n.measuring))
	n.measureStart = n.now()
}

func (n *Negotiator) pollEnableTransceiver() {
	// Programming Switches0/1 for the chosen CC pin, auto-retry, and
	// interrupt masks happens against the concrete chip register map
	// via n.ctrl; the FSM only tracks the resulting state transition.
	n.enter(WaitSourceCaps)
}

func (n *Negotiator) pollWaitSourceCaps() {
	if n.now()-n.stateEnteredAt > sourceCapTimeoutUS {
		n.enter(EnableTransceiver)
	}
}

func (n *Negotiator) pollConnected() {
	if !n.awaitingResponse {
		return
	}

	if n.now()-n.requestSentAt <= senderResponseTimeoutUS {
		return
	}

	// Timeout with neither Accept nor Reject: Open Question #2 in
	// DESIGN.md — retry the same object position, bounded, then fall
	// back to the default 5V PDO.
	n.requestRetries++
	if n.requestRetries > maxRequestRetries {
		n.requestRetries = 0
		n.RequestCapability(1, defaultFallbackCurrentMA)
		return
	}

	n.RequestCapability(n.requestedCap, n.lastRequestedCurrentMA)
}

// defaultFallbackCurrentMA is the minimum current any USB-PD source
// must be able to supply at 5V.
const defaultFallbackCurrentMA = 500

// HandleRX processes one received PD message, per spec §4.I's RX
// message handling table.
func (n *Negotiator) HandleRX(msg Message) {
	h := msg.Header

	if !h.IsData() {
		switch h.Type() {
		case CtrlGoodCRC:
			// ignored
		case CtrlAccept:
			n.currentCap = n.requestedCap
			n.awaitingResponse = false
			n.requestRetries = 0
		case CtrlReject:
			n.requestedCap = n.currentCap
			n.awaitingResponse = false
			n.requestRetries = 0
		case CtrlPSRDY:
			n.powerStable = true
		}
		return
	}

	if h.Type() == DataSourceCapabilities {
		n.sourceCaps = n.sourceCaps[:0]
		for i := 0; i < h.NumDataObjects(); i++ {
			n.sourceCaps = append(n.sourceCaps, DecodeCapability(msg.Data[i]))
		}

		if n.state == WaitSourceCaps {
			n.enter(Connected)
		}

		if len(n.sourceCaps) > 0 {
			first := n.sourceCaps[0]
			n.RequestCapability(1, first.MaxCurrentMA)
		}
	}
}

// RequestCapability sends a Request for PDO position pos (1-indexed)
// at currentMA, per spec §4.I.
func (n *Negotiator) RequestCapability(pos uint8, currentMA uint16) error {
	obj := RequestObject(pos, currentMA)
	msgID := n.nextMessageID
	n.nextMessageID = (n.nextMessageID + 1) % 8

	hdr := BuildHeader(DataRequest, 1, msgID)
	msg := Message{Header: hdr}
	msg.Data[0] = obj

	n.requestedCap = pos
	n.powerStable = false
	n.awaitingResponse = true
	n.requestSentAt = n.now()
	n.lastRequestedCurrentMA = currentMA

	return n.ctrl.WriteFIFOMessage(msg)
}

// OnCompChanged reports a Comp-changed interrupt sample: low indicates
// the comparator currently reads below threshold (possible disconnect
// in progress).
func (n *Negotiator) OnCompChanged(low bool) {
	if low {
		if !n.compLow {
			n.compLow = true
			n.compLowSince = n.now()
		}
	} else {
		n.compLow = false
	}
}

func (n *Negotiator) checkCompLowTimeout() {
	if n.state <= EnableTransceiver {
		return
	}
	if !n.compLow {
		return
	}
	if n.now()-n.compLowSince > compLowResetTimeUS {
		n.enter(Start)
	}
}
