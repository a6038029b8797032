package telnet

import (
	"go.uber.org/zap"

	"github.com/jquast/telnetlib3-go/observability"
)

// CommandHandler receives the out-of-band events the Interpreter parses
// off the wire. Engine implements this; it is kept as an interface so the
// interpreter can be tested without a full negotiation engine attached.
type CommandHandler interface {
	// HandleCommand handles a bare 2-byte IAC command: NOP, DM, BRK, IP,
	// AO, AYT, EC, EL, GA, EOR, SUSP, ABORT, or EOF.
	HandleCommand(cmd byte)
	// HandleNegotiation handles a 3-byte DO/DONT/WILL/WONT opt command.
	HandleNegotiation(cmd byte, opt byte)
	// HandleSubnegotiation handles a committed SB opt ... SE payload.
	HandleSubnegotiation(opt byte, payload []byte)
}

// Sink receives in-band application bytes as the Interpreter parses them
// off the wire. *stream.Reader implements this via its Feed method.
type Sink interface {
	Feed(data []byte) error
}

// interpState is the Interpreter's position in the byte-at-a-time grammar
// of spec §4.D.
type interpState int

const (
	stateData interpState = iota
	stateIAC
	stateNegotiating // awaiting the option byte after DO/DONT/WILL/WONT
	stateSBOption    // awaiting the option byte after SB
	stateSBData
	stateSBIAC // IAC seen while inside SB data
)

// Interpreter is the core IAC byte-at-a-time state machine (spec §4.D). It
// owns no transport; it is fed bytes by whatever reads the raw connection
// and forwards in-band bytes to sink while dispatching out-of-band events
// to handler.
type Interpreter struct {
	state    interpState
	cmd      byte // DO/DONT/WILL/WONT awaiting its option byte
	sbOption byte
	sbBuf    []byte
	maxSB    int

	sink    Sink
	handler CommandHandler
	logger  *zap.Logger
}

// NewInterpreter creates an Interpreter. maxSB bounds the sub-negotiation
// buffer (spec §5 hard limit); sink receives in-band bytes; handler
// receives every out-of-band event.
func NewInterpreter(maxSB int, sink Sink, handler CommandHandler, logger *zap.Logger) *Interpreter {
	if maxSB <= 0 {
		maxSB = MaxSB
	}
	return &Interpreter{
		maxSB:   maxSB,
		sink:    sink,
		handler: handler,
		logger:  observability.OrNop(logger),
	}
}

// FeedByte advances the state machine by one byte. It returns true iff the
// byte was in-band; FeedByte does not call sink itself (FeedBytes forwards
// the in-band runs). The interpreter never
// returns an error to the caller — every failure is logged (spec §4.D
// "the IAC interpreter itself never throws into the caller").
func (ip *Interpreter) FeedByte(b byte) bool {
	switch ip.state {
	case stateData:
		return ip.feedData(b)
	case stateIAC:
		return ip.feedIAC(b)
	case stateNegotiating:
		ip.handler.HandleNegotiation(ip.cmd, b)
		ip.state = stateData
		return false
	case stateSBOption:
		ip.sbOption = b
		ip.sbBuf = ip.sbBuf[:0]
		ip.state = stateSBData
		return false
	case stateSBData:
		return ip.feedSBData(b)
	case stateSBIAC:
		return ip.feedSBIAC(b)
	default:
		ip.state = stateData
		return false
	}
}

// FeedBytes feeds every byte of data in order and forwards the contiguous
// in-band runs to sink in as few Feed calls as practical.
func (ip *Interpreter) FeedBytes(data []byte) {
	start := -1
	flush := func(end int) {
		if start >= 0 {
			if err := ip.sink.Feed(data[start:end]); err != nil {
				ip.logger.Warn("forwarding in-band bytes to sink", zap.Error(err))
			}
			start = -1
		}
	}
	for i, b := range data {
		if ip.FeedByte(b) {
			if start < 0 {
				start = i
			}
		} else {
			flush(i)
		}
	}
	flush(len(data))
}

func (ip *Interpreter) feedData(b byte) bool {
	if b == IAC {
		ip.state = stateIAC
		return false
	}
	return true
}

func (ip *Interpreter) feedIAC(b byte) bool {
	switch b {
	case IAC:
		ip.state = stateData
		return true // literal 0xFF, forwarded
	case DO, DONT, WILL, WONT:
		ip.cmd = b
		ip.state = stateNegotiating
		return false
	case SB:
		ip.state = stateSBOption
		return false
	default:
		ip.handler.HandleCommand(b)
		ip.state = stateData
		return false
	}
}

func (ip *Interpreter) feedSBData(b byte) bool {
	if b == IAC {
		ip.state = stateSBIAC
		return false
	}
	ip.appendSB(b)
	return false
}

func (ip *Interpreter) feedSBIAC(b byte) bool {
	switch b {
	case IAC:
		ip.state = stateSBData
		ip.appendSB(IAC)
		return false
	case SE:
		payload := append([]byte(nil), ip.sbBuf...)
		opt := ip.sbOption
		ip.sbBuf = ip.sbBuf[:0]
		ip.state = stateData
		ip.handler.HandleSubnegotiation(opt, payload)
		return false
	default:
		ip.logger.Warn("sub-negotiation interrupted by IAC command",
			zap.Uint8("option", ip.sbOption),
			zap.Int("buffered", len(ip.sbBuf)),
			zap.String("command", commandName(b)))
		ip.sbBuf = ip.sbBuf[:0]
		switch b {
		case DO, DONT, WILL, WONT:
			ip.cmd = b
			ip.state = stateNegotiating
		default:
			ip.state = stateData
		}
		return false
	}
}

func (ip *Interpreter) appendSB(b byte) {
	if len(ip.sbBuf) >= ip.maxSB {
		ip.logger.Error("sub-negotiation buffer exceeded limit, dropping",
			zap.Uint8("option", ip.sbOption), zap.Int("limit", ip.maxSB))
		ip.sbBuf = ip.sbBuf[:0]
		ip.state = stateData
		return
	}
	ip.sbBuf = append(ip.sbBuf, b)
}
