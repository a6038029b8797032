package subneg

import "fmt"

// LFLOW switch values.
const (
	LflowOFF        byte = 0
	LflowON         byte = 1
	LflowRestartAny byte = 2
	LflowRestartXon byte = 3
)

// LflowState is the decoded effect of an LFLOW sub-negotiation on the
// connection's flow-control flags.
type LflowState struct {
	// FlowControlOn toggles whether XON/XOFF flow control is honored at
	// all; only set when the payload selects OFF or ON.
	FlowControlOn  bool
	SetFlowControl bool
	// XonAny toggles whether any byte restarts output (true) versus only
	// XON (false); only set when the payload selects RESTART_ANY or
	// RESTART_XON.
	XonAny    bool
	SetXonAny bool
}

// DecodeLflow parses an LFLOW payload (the single switch byte).
func DecodeLflow(buf []byte) (LflowState, error) {
	if len(buf) != 1 {
		return LflowState{}, fmt.Errorf("subneg: LFLOW payload must be 1 byte, got %d", len(buf))
	}
	switch buf[0] {
	case LflowOFF:
		return LflowState{FlowControlOn: false, SetFlowControl: true}, nil
	case LflowON:
		return LflowState{FlowControlOn: true, SetFlowControl: true}, nil
	case LflowRestartAny:
		return LflowState{XonAny: true, SetXonAny: true}, nil
	case LflowRestartXon:
		return LflowState{XonAny: false, SetXonAny: true}, nil
	default:
		return LflowState{}, fmt.Errorf("subneg: unknown LFLOW switch %d", buf[0])
	}
}

// EncodeLflow renders a single LFLOW switch byte.
func EncodeLflow(value byte) []byte {
	return []byte{value}
}
