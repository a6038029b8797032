// Package linemode implements the LINEMODE option's MODE state machine and
// its Special-Line-Character (SLC) function table, plus forwardmask
// generation — spec.md §3 "Linemode"/"Forwardmask" and §4.G.
package linemode

// Mode is the LINEMODE MODE bitmask (spec §3, §4.G).
type Mode byte

const (
	EDIT    Mode = 1 << 0
	TRAPSIG Mode = 1 << 1
	ACK     Mode = 1 << 2
	SOFTTAB Mode = 1 << 3
	LITECHO Mode = 1 << 4
)

// Edit reports whether the EDIT bit is set.
func (m Mode) Edit() bool { return m&EDIT != 0 }

// TrapSig reports whether the TRAPSIG bit is set.
func (m Mode) TrapSig() bool { return m&TRAPSIG != 0 }

// Acked reports whether the ACK bit is set.
func (m Mode) Acked() bool { return m&ACK != 0 }

// SoftTab reports whether the SOFT_TAB bit is set.
func (m Mode) SoftTab() bool { return m&SOFTTAB != 0 }

// LitEcho reports whether the LIT_ECHO bit is set.
func (m Mode) LitEcho() bool { return m&LITECHO != 0 }

// WithAck returns m with the ACK bit set.
func (m Mode) WithAck() Mode { return m | ACK }

// WithoutAck returns m with the ACK bit cleared.
func (m Mode) WithoutAck() Mode { return m &^ ACK }

// Equal reports whether m and other propose the same mode, ignoring the ACK
// bit — spec §3: "two Linemodes are equal iff their masks are equal modulo
// the ACK bit when comparing proposals."
func (m Mode) Equal(other Mode) bool {
	return m.WithoutAck() == other.WithoutAck()
}

func (m Mode) String() string {
	out := []byte{'['}
	first := true
	add := func(s string) {
		if !first {
			out = append(out, ' ')
		}
		out = append(out, s...)
		first = false
	}
	if m.Edit() {
		add("EDIT")
	}
	if m.TrapSig() {
		add("TRAPSIG")
	}
	if m.SoftTab() {
		add("SOFTTAB")
	}
	if m.LitEcho() {
		add("LITECHO")
	}
	if m.Acked() {
		add("ACK")
	}
	out = append(out, ']')
	return string(out)
}

// TransitionResult is the outcome of feeding an incoming MODE byte through
// the state machine of spec §4.G.
type TransitionResult struct {
	// Stored is the mode value that should now be held as the authoritative
	// local record.
	Stored Mode
	// Reply is the MODE byte that should be sent back, if any.
	Reply     Mode
	ShouldAck bool
}

// Negotiate implements spec §4.G's MODE algorithm.
//
//   - If the proposal lacks ACK, reply with the proposal ORed with ACK and
//     store it locally. Never reply to a MODE that already has ACK set.
//   - Duplicate-suppression: if an incoming MODE (with ACK) equals the
//     stored mode, do not re-ACK and do not rewrite state.
//   - Role asymmetry: a client that receives an ACKed MODE whose mask
//     differs from the stored mode keeps its own stored mode (the server's
//     ACK of a different value is ignored). The server trusts the client's
//     value unconditionally.
func Negotiate(stored Mode, incoming Mode, isServer bool) TransitionResult {
	if !incoming.Acked() {
		newStored := incoming.WithAck()
		return TransitionResult{Stored: newStored, Reply: newStored, ShouldAck: true}
	}

	// Incoming carries ACK.
	if incoming.Equal(stored) {
		// Nothing has changed; suppress re-ACK (spec open question: suppress
		// redundant MODE-ACK on the client, per the "newer" implementation).
		return TransitionResult{Stored: stored}
	}

	if !isServer {
		// Client: a server ACK of a value we didn't propose is ignored.
		return TransitionResult{Stored: stored}
	}

	// Server: trust the client's acknowledged value.
	return TransitionResult{Stored: incoming}
}
