// Package mud implements encode/decode for the MUD-era sub-negotiation
// family layered atop Telnet: GMCP, MSDP, MSSP, ATCP, ZMP, and AARDWOLF
// (spec.md §3 "MUD protocols", §4.H).
//
// Every Decode function in this package accepts the payload bytes between
// IAC SB <option> and IAC SE; every Encode function returns exactly that
// payload, leaving sub-negotiation framing to the caller.
package mud

import (
	"fmt"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/text/encoding/charmap"
)

// GMCPMessage is one Generic MUD Communication Protocol message: a
// dotted package name optionally followed by a JSON payload.
type GMCPMessage struct {
	Package string
	// Data holds the raw JSON text of the payload, or "" if the message
	// carries no data. Build it with sjson (see SetField) or any JSON
	// encoder; this package never interprets its structure beyond
	// validating it parses.
	Data string
}

// EncodeGMCP renders m as a GMCP payload.
func EncodeGMCP(m GMCPMessage) []byte {
	if m.Data == "" {
		return []byte(m.Package)
	}
	return []byte(m.Package + " " + m.Data)
}

// DecodeGMCP parses a GMCP payload. If the payload carries a JSON body it
// must be syntactically valid JSON, checked with gjson.Valid.
func DecodeGMCP(buf []byte) (GMCPMessage, error) {
	text := decodeBestEffort(buf)
	parts := splitN2(text, ' ')
	if len(parts) == 1 {
		return GMCPMessage{Package: parts[0]}, nil
	}
	if !gjson.Valid(parts[1]) {
		return GMCPMessage{}, fmt.Errorf("mud: invalid JSON in GMCP payload for package %q", parts[0])
	}
	return GMCPMessage{Package: parts[0], Data: parts[1]}, nil
}

// SetField sets path within a GMCP/MSDP-adjacent JSON data blob to value,
// creating objects as needed, using sjson's path syntax.
func SetField(data, path string, value any) (string, error) {
	return sjson.Set(data, path, value)
}

// Field reads path out of a JSON data blob using gjson's path syntax. The
// second return value is false if the path does not exist.
func Field(data, path string) (gjson.Result, bool) {
	r := gjson.Get(data, path)
	return r, r.Exists()
}

func splitN2(s string, sep byte) []string {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return []string{s[:i], s[i+1:]}
		}
	}
	return []string{s}
}

// decodeBestEffort decodes buf as UTF-8, falling back to Latin-1 (ISO
// 8859-1) when it isn't valid UTF-8 — MUD clients and servers do not
// reliably negotiate CHARSET before sending these sub-negotiations.
func decodeBestEffort(buf []byte) string {
	if utf8.Valid(buf) {
		return string(buf)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(buf)
	if err != nil {
		return string(buf)
	}
	return string(out)
}
