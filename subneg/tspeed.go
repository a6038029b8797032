package subneg

import (
	"fmt"
	"strconv"
	"strings"
)

// TSpeed is a decoded terminal speed pair.
type TSpeed struct {
	Receive, Transmit int
}

// DecodeTSpeed parses an IS payload of the form "rx,tx" (everything after
// the IS sub-option byte). Malformed numerics return an error; callers
// should log and drop per spec §4.C rather than propagate it as a
// protocol fault.
func DecodeTSpeed(buf []byte) (TSpeed, error) {
	parts := strings.SplitN(string(buf), ",", 2)
	if len(parts) != 2 {
		return TSpeed{}, fmt.Errorf("subneg: malformed TSPEED payload %q", buf)
	}
	rx, err := strconv.Atoi(parts[0])
	if err != nil {
		return TSpeed{}, fmt.Errorf("subneg: bad TSPEED receive value %q: %w", parts[0], err)
	}
	tx, err := strconv.Atoi(parts[1])
	if err != nil {
		return TSpeed{}, fmt.Errorf("subneg: bad TSPEED transmit value %q: %w", parts[1], err)
	}
	return TSpeed{Receive: rx, Transmit: tx}, nil
}

// EncodeTSpeedIs renders an IS reply carrying the given speed pair.
func EncodeTSpeedIs(speed TSpeed) []byte {
	return append([]byte{SubIS}, fmt.Sprintf("%d,%d", speed.Receive, speed.Transmit)...)
}

// EncodeTSpeedSend renders a SEND request.
func EncodeTSpeedSend() []byte {
	return []byte{SubSEND}
}
