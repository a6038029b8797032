package mud

import "bytes"

// DecodeZMP splits a Zenith MUD Protocol payload into its NUL-delimited
// fields: element zero is the command name, the rest are arguments. A
// trailing empty field from the final terminating NUL is dropped.
func DecodeZMP(buf []byte) []string {
	if len(buf) == 0 {
		return nil
	}
	parts := bytes.Split(buf, []byte{0})
	if len(parts) > 0 && len(parts[len(parts)-1]) == 0 {
		parts = parts[:len(parts)-1]
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = decodeBestEffort(p)
	}
	return out
}

// EncodeZMP joins command and arguments into a NUL-delimited, NUL-terminated
// ZMP payload.
func EncodeZMP(fields []string) []byte {
	var out []byte
	for _, f := range fields {
		out = append(out, f...)
		out = append(out, 0)
	}
	return out
}
