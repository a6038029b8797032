package telnet

import (
	"github.com/jquast/telnetlib3-go/linemode"
	"github.com/jquast/telnetlib3-go/mud"
	"github.com/jquast/telnetlib3-go/subneg"
)

// Services is the set of proactive operations a connected session can
// issue once negotiation has enabled the relevant option — component F of
// the design, layered directly on Engine's Sender and OptionTable.
type Services struct {
	engine *Engine
}

// NewServices wraps engine with its request/send operations.
func NewServices(engine *Engine) *Services {
	return &Services{engine: engine}
}

// RequestTTYPE asks the peer for its next terminal type value.
func (s *Services) RequestTTYPE() error {
	return s.engine.sender.SendIAC(wrapSB(OptTTYPE, []byte{subneg.SubSEND}))
}

// RequestCharset offers charset names to the peer, separated by sep, and
// marks CHARSET negotiation as pending a reply.
func (s *Services) RequestCharset(sep byte, offers []string) error {
	body := []byte{subneg.CharsetREQUEST, sep}
	for i, name := range offers {
		if i > 0 {
			body = append(body, sep)
		}
		body = append(body, name...)
	}
	s.engine.table.SetPendingSB(OptCHARSET)
	return s.engine.sender.SendIAC(wrapSB(OptCHARSET, body))
}

// RequestEnviron asks the peer for the named environment variable keys. An
// empty keys list requests everything (the bare VAR/USERVAR sentinel);
// only the server side should do this, per spec §4.C's security rule
// about not answering such a request with the full environment.
func (s *Services) RequestEnviron(keys []string) error {
	s.engine.table.SetPendingSB(OptNEWENVIRON)
	body := append([]byte{subneg.EnvironSEND}, subneg.EncodeEnvironSend(keys)...)
	return s.engine.sender.SendIAC(wrapSB(OptNEWENVIRON, body))
}

// RequestTSpeed asks the peer for its terminal speed.
func (s *Services) RequestTSpeed() error {
	s.engine.table.SetPendingSB(OptTSPEED)
	return s.engine.sender.SendIAC(wrapSB(OptTSPEED, []byte{subneg.SubSEND}))
}

// RequestXDisploc asks the peer for its X display location.
func (s *Services) RequestXDisploc() error {
	s.engine.table.SetPendingSB(OptXDISPLOC)
	return s.engine.sender.SendIAC(wrapSB(OptXDISPLOC, []byte{subneg.SubSEND}))
}

// RequestForwardmask asks the peer to transmit its forwardmask (DO
// FORWARDMASK within LINEMODE).
func (s *Services) RequestForwardmask() error {
	return s.engine.sender.SendIAC(wrapSB(OptLINEMODE, subneg.EncodeLinemodeForwardmaskRequest(DO)))
}

// SendLineflowMode transmits an LFLOW switch (OFF/ON/RESTART_ANY/RESTART_XON).
func (s *Services) SendLineflowMode(value byte) error {
	return s.engine.sender.SendIAC(wrapSB(OptLFLOW, subneg.EncodeLflow(value)))
}

// SendLinemode proposes a LINEMODE MODE bitmask, storing it locally as our
// unacked proposal.
func (s *Services) SendLinemode(mode linemode.Mode) error {
	s.engine.lmMode = mode
	return s.engine.sender.SendIAC(wrapSB(OptLINEMODE, subneg.EncodeLinemodeMode(mode)))
}

// SendStatus transmits an unsolicited STATUS IS reply describing the
// current option table.
func (s *Services) SendStatus() error {
	body := subneg.EncodeStatusIs(s.engine.table.EnabledLocalOptions(), s.engine.table.EnabledRemoteOptions())
	return s.engine.sender.SendIAC(wrapSB(OptSTATUS, body))
}

// SendNAWS transmits the local terminal dimensions.
func (s *Services) SendNAWS(ws subneg.WindowSize) error {
	return s.engine.sender.SendIAC(wrapSB(OptNAWS, subneg.EncodeNAWS(ws)))
}

// SendGMCP transmits a GMCP message.
func (s *Services) SendGMCP(pkg, data string) error {
	return s.engine.sender.SendIAC(wrapSB(OptGMCP, mud.EncodeGMCP(mud.GMCPMessage{Package: pkg, Data: data})))
}
