package subneg

import (
	"encoding/binary"
	"fmt"
)

// WindowSize is a negotiated terminal size.
type WindowSize struct {
	Rows, Cols uint16
}

// DecodeNAWS parses a NAWS payload: exactly 4 bytes, cols then rows, both
// big-endian u16.
func DecodeNAWS(buf []byte) (WindowSize, error) {
	if len(buf) != 4 {
		return WindowSize{}, fmt.Errorf("subneg: NAWS payload must be 4 bytes, got %d", len(buf))
	}
	cols := binary.BigEndian.Uint16(buf[0:2])
	rows := binary.BigEndian.Uint16(buf[2:4])
	return WindowSize{Rows: rows, Cols: cols}, nil
}

// EncodeNAWS renders a window size as a NAWS payload, clamping both
// dimensions to the 0..65535 range the wire format can carry.
func EncodeNAWS(size WindowSize) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], size.Cols)
	binary.BigEndian.PutUint16(buf[2:4], size.Rows)
	return buf
}
