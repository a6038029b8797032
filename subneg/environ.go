package subneg

import "strings"

// NEW-ENVIRON markers (RFC 1572).
const (
	EnvironVAR     byte = 0
	EnvironVALUE   byte = 1
	EnvironESC     byte = 2
	EnvironUSERVAR byte = 3
)

// NEW-ENVIRON sub-option bytes, shared with several other options.
const (
	EnvironIS   byte = 0
	EnvironSEND byte = 1
	EnvironINFO byte = 2
)

// EnvironVar is one decoded NEW-ENVIRON record. Kind distinguishes VAR
// from USERVAR on the wire; this package carries it through but does not
// otherwise treat the two differently, matching upstream's choice not to
// distinguish them at the decode layer.
type EnvironVar struct {
	Kind  byte // EnvironVAR or EnvironUSERVAR
	Key   string
	Value string
}

// escapeEnviron doubles ESC ahead of any VAR, VALUE, USERVAR, or ESC byte,
// per spec §4.C: "ESC escapes VAR, VALUE, USERVAR, ESC."
func escapeEnviron(buf []byte) []byte {
	r := strings.NewReplacer(
		string(rune(EnvironVAR)), string([]byte{EnvironESC, EnvironVAR}),
		string(rune(EnvironVALUE)), string([]byte{EnvironESC, EnvironVALUE}),
		string(rune(EnvironUSERVAR)), string([]byte{EnvironESC, EnvironUSERVAR}),
		string(rune(EnvironESC)), string([]byte{EnvironESC, EnvironESC}),
	)
	return []byte(r.Replace(string(buf)))
}

// unescapeEnviron reverses escapeEnviron.
func unescapeEnviron(buf []byte) []byte {
	out := make([]byte, 0, len(buf))
	for i := 0; i < len(buf); i++ {
		if buf[i] == EnvironESC && i+1 < len(buf) {
			out = append(out, buf[i+1])
			i++
			continue
		}
		out = append(out, buf[i])
	}
	return out
}

// DecodeEnviron parses the record portion of a NEW-ENVIRON payload
// (everything after the IS/SEND/INFO sub-option byte) into an ordered list
// of VAR/USERVAR records. A record with no VALUE marker decodes to an
// empty-string value; a record with no key bytes (a bare VAR/USERVAR)
// decodes to an empty-string key.
func DecodeEnviron(buf []byte) []EnvironVar {
	var breaks []int
	for i, b := range buf {
		if (b == EnvironVAR || b == EnvironUSERVAR) && (i == 0 || buf[i-1] != EnvironESC) {
			breaks = append(breaks, i)
		}
	}
	if len(breaks) == 0 {
		return nil
	}
	breaks = append(breaks, len(buf))

	var out []EnvironVar
	for i := 0; i < len(breaks)-1; i++ {
		start, end := breaks[i], breaks[i+1]
		kind := buf[start]
		record := buf[start+1 : end]

		valueIdx := -1
		for j, b := range record {
			if b == EnvironVALUE && (j == 0 || record[j-1] != EnvironESC) {
				valueIdx = j
				break
			}
		}
		var key, value string
		if valueIdx < 0 {
			key = string(unescapeEnviron(record))
		} else {
			key = string(unescapeEnviron(record[:valueIdx]))
			value = string(unescapeEnviron(record[valueIdx+1:]))
		}
		out = append(out, EnvironVar{Kind: kind, Key: key, Value: value})
	}
	return out
}

// EncodeEnviron renders a list of records as a NEW-ENVIRON record payload
// (everything after the IS/SEND/INFO sub-option byte), escaping VAR,
// USERVAR, and ESC bytes inside keys and values.
func EncodeEnviron(vars []EnvironVar) []byte {
	var out []byte
	for _, v := range vars {
		kind := v.Kind
		if kind != EnvironVAR && kind != EnvironUSERVAR {
			kind = EnvironVAR
		}
		out = append(out, kind)
		out = append(out, escapeEnviron([]byte(v.Key))...)
		out = append(out, EnvironVALUE)
		out = append(out, escapeEnviron([]byte(v.Value))...)
	}
	return out
}

// EncodeEnvironSend renders a SEND request for the given keys. A nil or
// empty keys list encodes a bare VAR and USERVAR (request everything);
// per spec §4.C's security rule, callers representing the client side
// must never honor the symmetric bare request by replying with the full
// environment.
func EncodeEnvironSend(keys []string) []byte {
	if len(keys) == 0 {
		return []byte{EnvironVAR, EnvironUSERVAR}
	}
	var out []byte
	for _, k := range keys {
		out = append(out, EnvironVAR)
		out = append(out, escapeEnviron([]byte(k))...)
	}
	return out
}
