package subneg

import (
	"fmt"

	"github.com/jquast/telnetlib3-go/linemode"
)

// LINEMODE sub-option bytes.
const (
	LinemodeMODE        byte = 1
	LinemodeFORWARDMASK byte = 2
	LinemodeSLC         byte = 3
)

// DecodeLinemodeMode extracts the MODE byte from a LINEMODE MODE
// sub-negotiation payload (everything after the MODE sub-option byte).
func DecodeLinemodeMode(buf []byte) (linemode.Mode, error) {
	if len(buf) != 1 {
		return 0, fmt.Errorf("subneg: LINEMODE MODE payload must be 1 byte, got %d", len(buf))
	}
	return linemode.Mode(buf[0]), nil
}

// EncodeLinemodeMode renders a MODE byte as a LINEMODE MODE payload.
func EncodeLinemodeMode(mode linemode.Mode) []byte {
	return []byte{LinemodeMODE, byte(mode)}
}

// SLCTriplet pairs an SLC function with its level/flags/value entry, the
// unit the LINEMODE SLC sub-negotiation exchanges three bytes at a time.
type SLCTriplet struct {
	Func  linemode.Function
	Entry linemode.Entry
}

// DecodeLinemodeSLC parses the triplets of a LINEMODE SLC sub-negotiation
// payload (everything after the SLC sub-option byte) into (function,
// entry) pairs, in wire order. A trailing partial triplet is dropped.
func DecodeLinemodeSLC(buf []byte) []SLCTriplet {
	var out []SLCTriplet
	for i := 0; i+3 <= len(buf); i += 3 {
		out = append(out, SLCTriplet{
			Func:  linemode.Function(buf[i]),
			Entry: linemode.DecodeEntry(buf[i+1], buf[i+2]),
		})
	}
	return out
}

// EncodeLinemodeSLC renders a set of (function, entry) replies as a
// LINEMODE SLC payload, including the leading SLC sub-option byte.
func EncodeLinemodeSLC(triplets []SLCTriplet) []byte {
	out := []byte{LinemodeSLC}
	for _, t := range triplets {
		out = append(out, byte(t.Func), t.Entry.Mask(), t.Entry.Value)
	}
	return out
}

// EncodeLinemodeForwardmaskRequest renders a DO/DONT/WILL/WONT
// FORWARDMASK request, given the command byte to use.
func EncodeLinemodeForwardmaskRequest(cmd byte) []byte {
	return []byte{LinemodeFORWARDMASK, cmd}
}

// EncodeLinemodeForwardmask renders a FORWARDMASK payload carrying a mask.
func EncodeLinemodeForwardmask(mask []byte) []byte {
	return append([]byte{LinemodeFORWARDMASK}, mask...)
}

// DecodeLinemodeForwardmask extracts the mask bytes from a FORWARDMASK
// payload (everything after the FORWARDMASK sub-option byte).
func DecodeLinemodeForwardmask(buf []byte) []byte {
	return append([]byte(nil), buf...)
}
