package subneg

// Shared IS/SEND sub-option bytes used by TTYPE, TSPEED, and XDISPLOC.
const (
	SubIS   byte = 0
	SubSEND byte = 1
)

// DecodeTTYPE extracts the terminal type string from an IS payload
// (everything after the IS sub-option byte).
func DecodeTTYPE(buf []byte) string {
	return string(buf)
}

// EncodeTTYPEIs renders an IS reply carrying the given terminal type.
func EncodeTTYPEIs(ttype string) []byte {
	return append([]byte{SubIS}, ttype...)
}

// EncodeTTYPESend renders a SEND request.
func EncodeTTYPESend() []byte {
	return []byte{SubSEND}
}

// IsCycleComplete reports whether the TTYPE request/response cycle has
// terminated: the peer repeated a previous value, sent an empty value, or
// began the value with "MTTS " (a MUD client capability bitmask string
// used in place of the classic repeat-to-terminate convention).
func IsCycleComplete(value string, seen []string) bool {
	if value == "" {
		return true
	}
	if len(value) >= 5 && value[:5] == "MTTS " {
		return true
	}
	for _, prior := range seen {
		if prior == value {
			return true
		}
	}
	return false
}
