package telnet

import (
	"strings"

	"go.uber.org/zap"

	"github.com/jquast/telnetlib3-go/charsetreg"
	"github.com/jquast/telnetlib3-go/linemode"
	"github.com/jquast/telnetlib3-go/mud"
	"github.com/jquast/telnetlib3-go/observability"
	"github.com/jquast/telnetlib3-go/subneg"
)

// Sender is the minimal write surface the engine needs: the ability to
// emit a verbatim IAC-prefixed command sequence. *stream.Writer satisfies
// this via its SendIAC method.
type Sender interface {
	SendIAC(p []byte) error
}

// Engine implements CommandHandler, driving an OptionTable through the
// negotiation rules of spec §4.E and dispatching committed
// sub-negotiations to the codec packages (spec §4.C) and the line
// discipline (spec §4.G).
type Engine struct {
	role   Role
	table  *OptionTable
	policy Policy
	hooks  Hooks
	sender Sender
	logger *zap.Logger

	slcTable    linemode.Table
	slcDefaults linemode.Table
	lmMode      linemode.Mode

	environEncoding string
	ttypeSeen       []string
	windowSize      subneg.WindowSize
}

// NewEngine creates an Engine for the given role.
func NewEngine(role Role, policy Policy, hooks Hooks, sender Sender, logger *zap.Logger) *Engine {
	defaults := linemode.DefaultTable()
	return &Engine{
		role:            role,
		table:           NewOptionTable(logger),
		policy:          policy,
		hooks:           hooks,
		sender:          sender,
		logger:          observability.OrNop(logger),
		slcTable:        defaults.Clone(),
		slcDefaults:     defaults,
		environEncoding: "US-ASCII",
	}
}

// Table exposes the underlying OptionTable, e.g. for the connect-time
// driver to poll pending state.
func (e *Engine) Table() *OptionTable { return e.table }

// HandleCommand implements CommandHandler for the bare 2-byte commands:
// NOP, DM, BRK, IP, AO, AYT, EC, EL, GA, EOR, SUSP, ABORT, EOF. None of
// these carry persistent state in the engine; they are surfaced to the
// embedder via Hooks.Signal.
func (e *Engine) HandleCommand(cmd byte) {
	e.hooks.signal(cmd)
}

// HandleNegotiation implements CommandHandler for DO/DONT/WILL/WONT opt.
func (e *Engine) HandleNegotiation(cmd byte, opt byte) {
	switch cmd {
	case WILL:
		e.handleWill(opt)
	case WONT:
		e.handleWont(opt)
	case DO:
		e.handleDo(opt)
	case DONT:
		e.handleDont(opt)
	}
}

func (e *Engine) handleWill(opt byte) {
	if opt == OptTM {
		if !e.table.IsPendingDO(OptTM) {
			e.logger.Warn("WILL TM received without a prior DO TM, ignoring")
			return
		}
		e.table.ClearPendingDO(OptTM)
		e.hooks.timingMark()
		return
	}
	if opt == OptLOGOUT {
		e.hooks.logout(false)
		return
	}
	if !e.policy.known(opt) || e.policy.willExcluded(e.role, opt) {
		e.send(DONT, opt)
		e.table.SetRemoteRefused(opt)
		return
	}
	if e.table.RemoteEnabled(opt) {
		return // duplicate-suppression
	}
	e.send(DO, opt)
	e.table.SetRemote(opt, true)
	if optionsWithFollowupSB[opt] {
		e.table.SetPendingSB(opt)
		e.initiateFollowup(opt)
	}
}

func (e *Engine) handleWont(opt byte) {
	e.table.SetRemote(opt, false)
	e.table.ClearPendingDO(opt)
}

func (e *Engine) handleDo(opt byte) {
	if opt == OptTM {
		e.send(WILL, OptTM)
		e.hooks.timingMark()
		return
	}
	if opt == OptLOGOUT {
		if e.role == RoleServer {
			e.hooks.logout(true)
		}
		return
	}
	if !e.policy.known(opt) {
		e.send(WONT, opt)
		e.table.SetLocalRefused(opt)
		return
	}
	if e.table.LocalEnabled(opt) {
		return // duplicate-suppression
	}
	e.send(WILL, opt)
	e.table.SetLocal(opt, true)
	e.table.ClearPendingDO(opt)
	e.initiateFollowup(opt)
}

func (e *Engine) handleDont(opt byte) {
	e.table.SetLocal(opt, false)
	e.table.ClearPendingDO(opt)
}

func (e *Engine) send(cmd byte, opt byte) {
	if err := e.sender.SendIAC([]byte{IAC, cmd, opt}); err != nil {
		e.logger.Warn("sending negotiation reply", zap.String("cmd", commandName(cmd)),
			zap.Uint8("option", opt), zap.Error(err))
	}
}

// initiateFollowup sends the proactive sub-negotiation that naturally
// follows acceptance of opt, mirroring the behavior real telnet client and
// server libraries exhibit for the options that have an obvious initiator
// side (spec §4.E leaves which side initiates implicit for this list).
func (e *Engine) initiateFollowup(opt byte) {
	switch opt {
	case OptTTYPE:
		e.sendRaw(wrapSB(OptTTYPE, []byte{subneg.SubSEND}))
	case OptTSPEED:
		e.sendRaw(wrapSB(OptTSPEED, []byte{subneg.SubSEND}))
	case OptXDISPLOC:
		e.sendRaw(wrapSB(OptXDISPLOC, []byte{subneg.SubSEND}))
	case OptSTATUS:
		e.sendRaw(wrapSB(OptSTATUS, subneg.EncodeStatusSend()))
	}
}

func (e *Engine) sendRaw(buf []byte) {
	if err := e.sender.SendIAC(buf); err != nil {
		e.logger.Warn("sending sub-negotiation", zap.Error(err))
	}
}

// HandleSubnegotiation implements CommandHandler, dispatching a committed
// SB opt ... SE payload to its codec (spec §4.C).
func (e *Engine) HandleSubnegotiation(opt byte, payload []byte) {
	switch opt {
	case OptCHARSET:
		e.handleCharset(payload)
	case OptNEWENVIRON:
		e.handleEnviron(payload)
	case OptNAWS:
		e.handleNAWS(payload)
	case OptTTYPE:
		e.handleTTYPE(payload)
	case OptTSPEED:
		e.handleTSpeed(payload)
	case OptXDISPLOC:
		e.handleXDisploc(payload)
	case OptSTATUS:
		e.handleStatus(payload)
	case OptLFLOW:
		e.handleLflow(payload)
	case OptLINEMODE:
		e.handleLinemode(payload)
	case OptSNDLOC:
		e.handleSndloc(payload)
	case OptGMCP:
		e.handleGMCP(payload)
	case OptMSDP:
		e.handleMSDP(payload)
	case OptMSSP:
		e.handleMSSP(payload)
	case OptATCP:
		e.handleATCP(payload)
	case OptZMP:
		e.handleZMP(payload)
	case OptAARDWOLF:
		e.handleAardwolf(payload)
	case OptCOMPORT:
		e.handleComPort(payload)
	default:
		e.logger.Warn("sub-negotiation for unsupported option", zap.Uint8("option", opt))
	}
}

func (e *Engine) handleCharset(payload []byte) {
	if len(payload) == 0 {
		return
	}
	e.table.ClearPendingSB(OptCHARSET)
	switch payload[0] {
	case subneg.CharsetREQUEST:
		req, err := subneg.DecodeCharsetRequest(payload[1:])
		if err != nil {
			e.logger.Warn("decoding CHARSET REQUEST", zap.Error(err))
			return
		}
		if name, ok := e.hooks.charsetOffer(req.Offers); ok {
			e.environEncoding = name
			e.sendRaw(wrapSB(OptCHARSET, subneg.EncodeCharsetAccepted(name)))
		} else {
			e.sendRaw(wrapSB(OptCHARSET, subneg.EncodeCharsetRejected()))
		}
	case subneg.CharsetACCEPTED:
		e.environEncoding = subneg.DecodeCharsetAccepted(payload[1:])
	case subneg.CharsetREJECTED:
		e.logger.Info("peer rejected every offered charset")
	default:
		e.logger.Warn("unimplemented CHARSET sub-command", zap.Uint8("command", payload[0]))
	}
}

func (e *Engine) handleEnviron(payload []byte) {
	if len(payload) == 0 {
		return
	}
	e.table.ClearPendingSB(OptNEWENVIRON)
	switch payload[0] {
	case subneg.EnvironSEND:
		keys := environRequestedKeys(payload[1:])
		values := e.hooks.environment(keys)
		var vars []subneg.EnvironVar
		for k, v := range values {
			vars = append(vars, subneg.EnvironVar{Kind: subneg.EnvironVAR, Key: k, Value: v})
		}
		e.sendRaw(wrapSB(OptNEWENVIRON, append([]byte{subneg.EnvironIS}, subneg.EncodeEnviron(vars)...)))
	case subneg.EnvironIS, subneg.EnvironINFO:
		vars := subneg.DecodeEnviron(payload[1:])
		values := make(map[string]string, len(vars))
		for i, v := range vars {
			decoded := charsetreg.Decode([]byte(v.Value), e.environEncoding)
			vars[i].Value = decoded
			values[v.Key] = decoded
			if v.Key == "LANG" {
				if cs, ok := langCharset(decoded); ok {
					e.environEncoding = cs
				}
			}
		}
		e.hooks.environmentReceived(values)
	}
}

// langCharset extracts the charset suffix from a Unix-style LANG value
// (language[_territory][.charset]), e.g. "uk_UA.KOI8-U" -> "KOI8-U".
func langCharset(lang string) (string, bool) {
	idx := strings.IndexByte(lang, '.')
	if idx < 0 || idx == len(lang)-1 {
		return "", false
	}
	return lang[idx+1:], true
}

// environRequestedKeys extracts the VAR/USERVAR key list from a SEND
// payload. A bare VAR or USERVAR (no key bytes at all) is the "send
// everything" sentinel, returned here as an empty, non-nil slice. An empty
// SEND body also yields an empty, non-nil slice, so the two cases are not
// distinguished.
func environRequestedKeys(body []byte) []string {
	if len(body) == 0 {
		return []string{}
	}
	vars := subneg.DecodeEnviron(body)
	keys := make([]string, 0, len(vars))
	for _, v := range vars {
		if v.Key != "" {
			keys = append(keys, v.Key)
		}
	}
	return keys
}

func (e *Engine) handleNAWS(payload []byte) {
	ws, err := subneg.DecodeNAWS(payload)
	if err != nil {
		e.logger.Warn("decoding NAWS", zap.Error(err))
		return
	}
	e.table.ClearPendingSB(OptNAWS)
	e.windowSize = ws
	if e.hooks.WindowSize != nil {
		e.hooks.WindowSize(ws)
	}
}

// WindowSize returns the most recently negotiated terminal dimensions.
func (e *Engine) WindowSize() subneg.WindowSize { return e.windowSize }

func (e *Engine) handleTTYPE(payload []byte) {
	if len(payload) == 0 {
		return
	}
	switch payload[0] {
	case subneg.SubIS:
		value := subneg.DecodeTTYPE(payload[1:])
		done := subneg.IsCycleComplete(value, e.ttypeSeen)
		e.ttypeSeen = append(e.ttypeSeen, value)
		if !done {
			e.sendRaw(wrapSB(OptTTYPE, []byte{subneg.SubSEND}))
		} else {
			e.table.ClearPendingSB(OptTTYPE)
		}
	case subneg.SubSEND:
		e.sendRaw(wrapSB(OptTTYPE, subneg.EncodeTTYPEIs("UNKNOWN")))
	}
}

func (e *Engine) handleTSpeed(payload []byte) {
	if len(payload) == 0 {
		return
	}
	e.table.ClearPendingSB(OptTSPEED)
	if payload[0] == subneg.SubIS {
		if _, err := subneg.DecodeTSpeed(payload[1:]); err != nil {
			e.logger.Warn("decoding TSPEED", zap.Error(err))
		}
	}
}

func (e *Engine) handleXDisploc(payload []byte) {
	if len(payload) == 0 {
		return
	}
	e.table.ClearPendingSB(OptXDISPLOC)
	if payload[0] == subneg.SubIS {
		_ = subneg.DecodeXDisploc(payload[1:])
	}
}

func (e *Engine) handleStatus(payload []byte) {
	if len(payload) == 0 {
		return
	}
	switch payload[0] {
	case subneg.StatusSEND:
		e.sendRaw(wrapSB(OptSTATUS,
			subneg.EncodeStatusIs(e.table.EnabledLocalOptions(), e.table.EnabledRemoteOptions())))
	case subneg.StatusIS:
		entries := subneg.DecodeStatusIs(payload[1:])
		for _, entry := range entries {
			e.verifyStatusEntry(entry)
		}
	}
}

func (e *Engine) verifyStatusEntry(entry subneg.StatusEntry) {
	var ours bool
	switch entry.Command {
	case WILL:
		ours = e.table.RemoteEnabled(entry.Option)
	case WONT:
		ours = !e.table.RemoteEnabled(entry.Option)
	case DO:
		ours = e.table.LocalEnabled(entry.Option)
	case DONT:
		ours = !e.table.LocalEnabled(entry.Option)
	default:
		return
	}
	if !ours {
		e.logger.Warn("peer STATUS disagrees with local table",
			zap.String("command", commandName(entry.Command)), zap.Uint8("option", entry.Option))
	}
}

func (e *Engine) handleLflow(payload []byte) {
	if _, err := subneg.DecodeLflow(payload); err != nil {
		e.logger.Warn("decoding LFLOW", zap.Error(err))
	}
}

func (e *Engine) handleLinemode(payload []byte) {
	if len(payload) == 0 {
		return
	}
	switch payload[0] {
	case subneg.LinemodeMODE:
		e.handleLinemodeMode(payload[1:])
	case subneg.LinemodeSLC:
		e.handleLinemodeSLC(payload[1:])
	case subneg.LinemodeFORWARDMASK:
		if len(payload) < 2 {
			return
		}
		e.handleLinemodeForwardmaskCommand(payload[1], payload[2:])
	}
}

// handleLinemodeForwardmaskCommand handles the FORWARDMASK (DO/DONT/WILL/
// WONT) framing of spec §4.G: a DO requests we transmit our forwardmask, a
// WILL carries the peer's mask, which is decoded and not retained.
func (e *Engine) handleLinemodeForwardmaskCommand(cmd byte, mask []byte) {
	switch cmd {
	case DO:
		e.sendRaw(wrapSB(OptLINEMODE, subneg.EncodeLinemodeForwardmask(
			linemode.Forwardmask(e.slcTable, e.table.LocalEnabled(OptBINARY)))))
	case WILL:
		_ = subneg.DecodeLinemodeForwardmask(mask)
	}
}

func (e *Engine) handleLinemodeMode(payload []byte) {
	incoming, err := subneg.DecodeLinemodeMode(payload)
	if err != nil {
		e.logger.Warn("decoding LINEMODE MODE", zap.Error(err))
		return
	}
	e.table.ClearPendingSB(OptLINEMODE)
	result := linemode.Negotiate(e.lmMode, incoming, e.role == RoleServer)
	e.lmMode = result.Stored
	if result.ShouldAck {
		e.sendRaw(wrapSB(OptLINEMODE, subneg.EncodeLinemodeMode(result.Reply)))
	}
}

func (e *Engine) handleLinemodeSLC(payload []byte) {
	triplets := subneg.DecodeLinemodeSLC(payload)
	var reply []subneg.SLCTriplet
	for _, t := range triplets {
		outcome := linemode.Process(e.slcTable, e.slcDefaults, t.Func, t.Entry)
		if outcome.Changed {
			e.slcTable[t.Func] = outcome.Reply
		}
		if outcome.ShouldReply {
			reply = append(reply, subneg.SLCTriplet{Func: t.Func, Entry: outcome.Reply})
		}
		if outcome.SendDefaultTab {
			reply = append(reply, tableToTriplets(e.slcDefaults)...)
		}
		if outcome.SendCurrentTab {
			reply = append(reply, tableToTriplets(e.slcTable)...)
		}
	}
	if len(reply) > 0 {
		e.sendRaw(wrapSB(OptLINEMODE, subneg.EncodeLinemodeSLC(reply)))
	}
	e.sendRaw(wrapSB(OptLINEMODE, subneg.EncodeLinemodeForwardmaskRequest(DO)))
}

func tableToTriplets(table linemode.Table) []subneg.SLCTriplet {
	out := make([]subneg.SLCTriplet, 0, len(table))
	for f, entry := range table {
		out = append(out, subneg.SLCTriplet{Func: f, Entry: entry})
	}
	return out
}

func (e *Engine) handleSndloc(payload []byte) {
	e.table.ClearPendingSB(OptSNDLOC)
	_ = string(payload)
}

func (e *Engine) handleGMCP(payload []byte) {
	msg, err := mud.DecodeGMCP(payload)
	if err != nil {
		e.logger.Warn("decoding GMCP", zap.Error(err))
		return
	}
	if e.hooks.GMCP != nil {
		e.hooks.GMCP(msg)
	}
}

func (e *Engine) handleMSDP(payload []byte) {
	vars := mud.DecodeMSDP(payload)
	if e.hooks.MSDP != nil {
		e.hooks.MSDP(vars)
	}
}

func (e *Engine) handleMSSP(payload []byte) {
	vars := mud.DecodeMSSP(payload)
	if e.hooks.MSSP != nil {
		e.hooks.MSSP(vars)
	}
}

func (e *Engine) handleATCP(payload []byte) {
	msg := mud.DecodeATCP(payload)
	if e.hooks.ATCP != nil {
		e.hooks.ATCP(msg)
	}
}

func (e *Engine) handleZMP(payload []byte) {
	parts := mud.DecodeZMP(payload)
	if e.hooks.ZMP != nil {
		e.hooks.ZMP(parts)
	}
}

func (e *Engine) handleAardwolf(payload []byte) {
	msg := mud.DecodeAardwolf(payload)
	if e.hooks.Aardwolf != nil {
		e.hooks.Aardwolf(msg)
	}
}

func (e *Engine) handleComPort(payload []byte) {
	if _, err := subneg.DecodeComPort(payload); err != nil {
		e.logger.Warn("decoding COM-PORT-OPTION", zap.Error(err))
	}
}

// wrapSB frames payload as a complete SB opt ... SE command, doubling any
// IAC byte embedded in payload (spec §4.C: "any embedded IAC in the
// payload is doubled").
func wrapSB(opt byte, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+5)
	out = append(out, IAC, SB, opt)
	for _, b := range payload {
		out = append(out, b)
		if b == IAC {
			out = append(out, IAC)
		}
	}
	out = append(out, IAC, SE)
	return out
}
