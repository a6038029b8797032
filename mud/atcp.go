package mud

import "bytes"

// ATCPMessage is one Achaea Telnet Client Protocol message.
type ATCPMessage struct {
	Package string
	Value   string
}

// DecodeATCP splits an ATCP payload into package and value at the first
// space. A payload with no space yields an empty Value.
func DecodeATCP(buf []byte) ATCPMessage {
	idx := bytes.IndexByte(buf, ' ')
	if idx < 0 {
		return ATCPMessage{Package: decodeBestEffort(buf)}
	}
	return ATCPMessage{
		Package: decodeBestEffort(buf[:idx]),
		Value:   decodeBestEffort(buf[idx+1:]),
	}
}

// EncodeATCP renders m as an ATCP payload.
func EncodeATCP(m ATCPMessage) []byte {
	if m.Value == "" {
		return []byte(m.Package)
	}
	return []byte(m.Package + " " + m.Value)
}
