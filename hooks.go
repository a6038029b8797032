package telnet

import (
	"github.com/jquast/telnetlib3-go/mud"
	"github.com/jquast/telnetlib3-go/subneg"
)

// Hooks are the application-level callbacks the engine invokes when a
// negotiation or sub-negotiation needs a decision only the embedder can
// make (spec §6 "Collaborator contracts"). Every field is optional; a nil
// hook is treated as "decline" or "ignore" as appropriate.
type Hooks struct {
	// CharsetOffer is given the peer's offered codepage names and returns
	// the chosen one, or ok=false to reject every offer.
	CharsetOffer func(offers []string) (name string, ok bool)

	// Environment is given the requested variable keys (empty means the
	// peer asked for everything, which the hook must refuse per spec
	// §4.C's security rule) and returns the values to disclose.
	Environment func(keys []string) map[string]string

	// EnvironmentReceived fires when the peer sends NEW-ENVIRON IS/INFO,
	// with values already decoded through the negotiated charset.
	EnvironmentReceived func(vars map[string]string)

	// TimingMark fires on a WILL/DO TM exchange.
	TimingMark func()

	// Logout fires when the peer signals LOGOUT. fromDO is true when the
	// peer sent DO LOGOUT (asking the server to hang up); false when the
	// peer sent WILL LOGOUT (a client's graceful-logout hint).
	Logout func(fromDO bool)

	// Signal fires for a bare 2-byte IAC command with no dedicated hook
	// (IP, AO, AYT, EC, EL, GA, EOR, SUSP, ABORT, EOF, NOP, DM, BRK).
	Signal func(cmd byte)

	// WindowSize fires when the peer sends a NAWS sub-negotiation.
	WindowSize func(ws subneg.WindowSize)

	GMCP     func(msg mud.GMCPMessage)
	MSDP     func(vars map[string]mud.MSDPValue)
	MSSP     func(vars map[string]any)
	ATCP     func(msg mud.ATCPMessage)
	ZMP      func(parts []string)
	Aardwolf func(msg mud.AardwolfMessage)
}

func (h Hooks) charsetOffer(offers []string) (string, bool) {
	if h.CharsetOffer == nil {
		return "", false
	}
	return h.CharsetOffer(offers)
}

func (h Hooks) environment(keys []string) map[string]string {
	if h.Environment == nil {
		return nil
	}
	return h.Environment(keys)
}

func (h Hooks) environmentReceived(vars map[string]string) {
	if h.EnvironmentReceived != nil {
		h.EnvironmentReceived(vars)
	}
}

func (h Hooks) timingMark() {
	if h.TimingMark != nil {
		h.TimingMark()
	}
}

func (h Hooks) logout(fromDO bool) {
	if h.Logout != nil {
		h.Logout(fromDO)
	}
}

func (h Hooks) signal(cmd byte) {
	if h.Signal != nil {
		h.Signal(cmd)
	}
}
