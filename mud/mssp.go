package mud

// MSSP marker bytes (MUD Server Status Protocol, option 70).
const (
	msspVar byte = 1
	msspVal byte = 2
)

// EncodeMSSP renders variables as an MSSP payload. A []string value
// produces repeated MSSP_VAL entries under the same MSSP_VAR.
func EncodeMSSP(variables map[string]any) []byte {
	var out []byte
	for key, value := range variables {
		out = append(out, msspVar)
		out = append(out, key...)
		switch v := value.(type) {
		case []string:
			for _, item := range v {
				out = append(out, msspVal)
				out = append(out, item...)
			}
		case string:
			out = append(out, msspVal)
			out = append(out, v...)
		}
	}
	return out
}

// DecodeMSSP parses an MSSP payload. A variable with a single VAL decodes
// to string; a variable repeated with more than one VAL is promoted to
// []string, in encounter order.
func DecodeMSSP(buf []byte) map[string]any {
	result := make(map[string]any)
	idx := 0
	var currentVar string
	haveVar := false

	for idx < len(buf) {
		switch buf[idx] {
		case msspVar:
			idx++
			start := idx
			for idx < len(buf) && buf[idx] != msspVal && buf[idx] != msspVar {
				idx++
			}
			currentVar = decodeBestEffort(buf[start:idx])
			haveVar = true
		case msspVal:
			idx++
			start := idx
			for idx < len(buf) && buf[idx] != msspVal && buf[idx] != msspVar {
				idx++
			}
			value := decodeBestEffort(buf[start:idx])
			if haveVar {
				if existing, ok := result[currentVar]; ok {
					switch e := existing.(type) {
					case []string:
						result[currentVar] = append(e, value)
					case string:
						result[currentVar] = []string{e, value}
					}
				} else {
					result[currentVar] = value
				}
			}
		default:
			idx++
		}
	}
	return result
}
