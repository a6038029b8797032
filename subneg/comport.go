package subneg

import (
	"encoding/binary"
	"fmt"
)

// COM-PORT-OPTION command bytes (RFC 2217), client-to-server half.
const (
	ComPortSignature          byte = 0
	ComPortSetBaudrate        byte = 1
	ComPortSetDatasize        byte = 2
	ComPortSetParity          byte = 3
	ComPortSetStopsize        byte = 4
	ComPortSetControl         byte = 5
	ComPortNotifyLinestate    byte = 6
	ComPortNotifyModemstate   byte = 7
	ComPortFlowControlSuspend byte = 8
	ComPortFlowControlResume  byte = 9
	ComPortSetLinestateMask   byte = 10
	ComPortSetModemstateMask  byte = 11
	ComPortPurgeData          byte = 12
)

// ComPortMessage is one decoded COM-PORT-OPTION sub-negotiation.
type ComPortMessage struct {
	Command  byte
	Baudrate uint32 // valid when Command == ComPortSetBaudrate
	Value    byte   // valid for the single-byte datasize/parity/stopsize/control commands
	Tail     []byte // signature text or any other variable-length trailer
}

// DecodeComPort dispatches on the leading payload byte per spec §4.C.
func DecodeComPort(buf []byte) (ComPortMessage, error) {
	if len(buf) == 0 {
		return ComPortMessage{}, fmt.Errorf("subneg: COM-PORT-OPTION payload is empty")
	}
	msg := ComPortMessage{Command: buf[0]}
	rest := buf[1:]
	switch msg.Command {
	case ComPortSetBaudrate:
		if len(rest) != 4 {
			return ComPortMessage{}, fmt.Errorf("subneg: COM-PORT SET-BAUDRATE needs 4 bytes, got %d", len(rest))
		}
		msg.Baudrate = binary.BigEndian.Uint32(rest)
	case ComPortSetDatasize, ComPortSetParity, ComPortSetStopsize, ComPortSetControl:
		if len(rest) != 1 {
			return ComPortMessage{}, fmt.Errorf("subneg: COM-PORT command %d needs 1 byte, got %d", msg.Command, len(rest))
		}
		msg.Value = rest[0]
	default:
		msg.Tail = append([]byte(nil), rest...)
	}
	return msg, nil
}

// EncodeComPortBaudrate renders a SET-BAUDRATE request.
func EncodeComPortBaudrate(baud uint32) []byte {
	out := make([]byte, 5)
	out[0] = ComPortSetBaudrate
	binary.BigEndian.PutUint32(out[1:], baud)
	return out
}

// EncodeComPortValue renders a single-byte COM-PORT command (datasize,
// parity, stopsize, or control).
func EncodeComPortValue(command, value byte) []byte {
	return []byte{command, value}
}

// EncodeComPortSignature renders a SIGNATURE exchange carrying the given
// text.
func EncodeComPortSignature(text string) []byte {
	return append([]byte{ComPortSignature}, text...)
}
