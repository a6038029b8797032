package subneg

// DecodeXDisploc extracts the X display location string from an IS
// payload (everything after the IS sub-option byte).
func DecodeXDisploc(buf []byte) string {
	return string(buf)
}

// EncodeXDisplocIs renders an IS reply carrying the given display string.
func EncodeXDisplocIs(display string) []byte {
	return append([]byte{SubIS}, display...)
}

// EncodeXDisplocSend renders a SEND request.
func EncodeXDisplocSend() []byte {
	return []byte{SubSEND}
}

// DecodeSndloc extracts the physical location string from an SNDLOC
// payload (RFC 779).
func DecodeSndloc(buf []byte) string {
	return string(buf)
}

// EncodeSndloc renders a location string as an SNDLOC payload.
func EncodeSndloc(location string) []byte {
	return []byte(location)
}
