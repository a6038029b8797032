package telnet

import (
	"go.uber.org/zap"

	"github.com/jquast/telnetlib3-go/observability"
)

// triState mirrors spec §3's {true, false, -1} option value: enabled,
// disabled, or refused.
type triState int8

const (
	stateDisabled triState = 0
	stateEnabled  triState = 1
	stateRefused  triState = -1
)

// pendingKind distinguishes the two shapes of composite pending key described
// in spec §3: a DO/WILL reply we're waiting on, or a sub-negotiation reply.
type pendingKind byte

const (
	pendingDO pendingKind = DO
	pendingSB pendingKind = SB
)

type pendingKey struct {
	kind   pendingKind
	option byte
}

// OptionTable holds the three parallel mappings spec §3 names: local and
// remote willingness per option, and the set of requests we are still
// awaiting a reply for. It is owned by a single connection and is not
// safe for concurrent use — all mutation happens from the IAC
// interpreter's synchronous callback dispatch (spec §3 Lifecycle).
type OptionTable struct {
	local   map[byte]triState
	remote  map[byte]triState
	pending map[pendingKey]bool
	logger  *zap.Logger
}

// NewOptionTable creates an empty option table.
func NewOptionTable(logger *zap.Logger) *OptionTable {
	return &OptionTable{
		local:   make(map[byte]triState),
		remote:  make(map[byte]triState),
		pending: make(map[pendingKey]bool),
		logger:  observability.OrNop(logger),
	}
}

// LocalEnabled reports whether we have an option enabled locally.
func (t *OptionTable) LocalEnabled(opt byte) bool {
	return t.local[opt] == stateEnabled
}

// RemoteEnabled reports whether the peer has an option enabled.
func (t *OptionTable) RemoteEnabled(opt byte) bool {
	return t.remote[opt] == stateEnabled
}

// LocalRefused reports whether we refused the peer's DO for opt (by us, WONT).
func (t *OptionTable) LocalRefused(opt byte) bool {
	return t.local[opt] == stateRefused
}

// RemoteRefused reports whether a WILL the peer sent for opt was refused (by us, DONT).
func (t *OptionTable) RemoteRefused(opt byte) bool {
	return t.remote[opt] == stateRefused
}

// SetLocal sets the local state for opt, logging the transition.
func (t *OptionTable) SetLocal(opt byte, enabled bool) {
	prev := t.local[opt]
	next := stateDisabled
	if enabled {
		next = stateEnabled
	}
	if prev == next {
		return
	}
	t.local[opt] = next
	t.logger.Debug("local option state changed",
		zap.Uint8("option", opt), zap.Bool("enabled", enabled))
}

// SetLocalRefused marks opt as requested by the peer (DO) and refused by us (WONT).
func (t *OptionTable) SetLocalRefused(opt byte) {
	t.local[opt] = stateRefused
	t.logger.Debug("local option refused", zap.Uint8("option", opt))
}

// SetRemote sets the remote state for opt, logging the transition.
func (t *OptionTable) SetRemote(opt byte, enabled bool) {
	prev := t.remote[opt]
	next := stateDisabled
	if enabled {
		next = stateEnabled
	}
	if prev == next {
		return
	}
	t.remote[opt] = next
	t.logger.Debug("remote option state changed",
		zap.Uint8("option", opt), zap.Bool("enabled", enabled))
}

// SetRemoteRefused marks opt as remotely proposed but refused by us.
func (t *OptionTable) SetRemoteRefused(opt byte) {
	t.remote[opt] = stateRefused
	t.logger.Debug("remote option refused", zap.Uint8("option", opt))
}

// SetPendingDO records that we've sent DO/WILL opt and are awaiting the reply.
func (t *OptionTable) SetPendingDO(opt byte) {
	t.pending[pendingKey{pendingDO, opt}] = true
}

// ClearPendingDO clears a pending DO/WILL reply wait, if any.
func (t *OptionTable) ClearPendingDO(opt byte) {
	delete(t.pending, pendingKey{pendingDO, opt})
}

// IsPendingDO reports whether we're still waiting on a DO/WILL reply for opt.
func (t *OptionTable) IsPendingDO(opt byte) bool {
	return t.pending[pendingKey{pendingDO, opt}]
}

// SetPendingSB records that we're awaiting a follow-up sub-negotiation for opt.
func (t *OptionTable) SetPendingSB(opt byte) {
	t.pending[pendingKey{pendingSB, opt}] = true
}

// ClearPendingSB clears a pending sub-negotiation wait, if any.
func (t *OptionTable) ClearPendingSB(opt byte) {
	delete(t.pending, pendingKey{pendingSB, opt})
}

// IsPendingSB reports whether we're still waiting on a sub-negotiation reply for opt.
func (t *OptionTable) IsPendingSB(opt byte) bool {
	return t.pending[pendingKey{pendingSB, opt}]
}

// AnyPending reports whether any request we sent is still unanswered — the
// negotiation-complete predicate of spec §4.J.
func (t *OptionTable) AnyPending() bool {
	for _, v := range t.pending {
		if v {
			return true
		}
	}
	return false
}

// PendingKeys returns a human-readable snapshot of every outstanding
// pending key, used to report "failed-reply" entries (spec §4.J, §7).
func (t *OptionTable) PendingKeys() []string {
	var out []string
	for k, v := range t.pending {
		if !v {
			continue
		}
		kindName := "DO"
		if k.kind == pendingSB {
			kindName = "SB"
		}
		out = append(out, kindName+"+"+optionName(k.option))
	}
	return out
}

// EnabledLocalOptions returns every option byte currently enabled locally,
// in ascending order. Used by the STATUS codec (spec §4.C).
func (t *OptionTable) EnabledLocalOptions() []byte {
	return enabledOptions(t.local)
}

// EnabledRemoteOptions returns every option byte currently enabled by the
// peer, in ascending order. Used by the STATUS codec (spec §4.C).
func (t *OptionTable) EnabledRemoteOptions() []byte {
	return enabledOptions(t.remote)
}

func enabledOptions(m map[byte]triState) []byte {
	var out []byte
	for i := 0; i < 256; i++ {
		if m[byte(i)] == stateEnabled {
			out = append(out, byte(i))
		}
	}
	return out
}

// optionName returns a short mnemonic for an option byte, for logging.
func optionName(opt byte) string {
	switch opt {
	case OptBINARY:
		return "BINARY"
	case OptECHO:
		return "ECHO"
	case OptSGA:
		return "SGA"
	case OptSTATUS:
		return "STATUS"
	case OptTM:
		return "TM"
	case OptLOGOUT:
		return "LOGOUT"
	case OptTTYPE:
		return "TTYPE"
	case OptEOR:
		return "EOR"
	case OptNAWS:
		return "NAWS"
	case OptTSPEED:
		return "TSPEED"
	case OptLFLOW:
		return "LFLOW"
	case OptLINEMODE:
		return "LINEMODE"
	case OptXDISPLOC:
		return "XDISPLOC"
	case OptSNDLOC:
		return "SNDLOC"
	case OptNEWENVIRON:
		return "NEW-ENVIRON"
	case OptCHARSET:
		return "CHARSET"
	case OptCOMPORT:
		return "COM-PORT"
	case OptMSP:
		return "MSP"
	case OptMXP:
		return "MXP"
	case OptZMP:
		return "ZMP"
	case OptAARDWOLF:
		return "AARDWOLF"
	case OptMSDP:
		return "MSDP"
	case OptMSSP:
		return "MSSP"
	case OptATCP:
		return "ATCP"
	case OptGMCP:
		return "GMCP"
	default:
		return "UNKNOWN"
	}
}
