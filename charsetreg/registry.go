// Package charsetreg resolves CHARSET negotiation names (e.g. "UTF-8",
// "ISO-8859-1", "US-ASCII") to golang.org/x/text encodings, and supplies
// the codec used to decode NEW-ENVIRON values once a non-ASCII charset has
// been negotiated (spec.md §4.C).
package charsetreg

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// wellKnown short-circuits the handful of names MUD clients and servers
// actually send, ahead of the slower IANA index lookup.
var wellKnown = map[string]encoding.Encoding{
	"US-ASCII":   charmap.Windows1252, // superset; ASCII range is identical
	"ASCII":      charmap.Windows1252,
	"UTF-8":      unicode.UTF8,
	"ISO-8859-1": charmap.ISO8859_1,
	"LATIN1":     charmap.ISO8859_1,
	"CP437":      charmap.CodePage437,
}

// Lookup resolves a CHARSET name to an encoding, trying the well-known
// table first and falling back to the IANA name index. The match is
// case-insensitive, per RFC 2066's advice that charset names be compared
// without regard to case.
func Lookup(name string) (encoding.Encoding, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if enc, ok := wellKnown[upper]; ok {
		return enc, true
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, false
	}
	return enc, true
}

// Decode decodes buf using the named charset, falling back to Latin-1 for
// byte sequences invalid in that charset or for an unrecognized charset
// name — the same best-effort fallback spec §4.C requires of NEW-ENVIRON
// decoding.
func Decode(buf []byte, charsetName string) string {
	enc, ok := Lookup(charsetName)
	if !ok {
		enc = charmap.ISO8859_1
	}
	out, err := enc.NewDecoder().Bytes(buf)
	if err != nil || (enc == unicode.UTF8 && !utf8.Valid(buf)) {
		out, _ = charmap.ISO8859_1.NewDecoder().Bytes(buf)
	}
	return string(out)
}

// Encode encodes s using the named charset. Unencodable runes are replaced
// per encoding.ReplaceUnsupported rather than erroring, since a dropped or
// mangled display string is preferable to aborting the sub-negotiation.
func Encode(s string, charsetName string) ([]byte, error) {
	enc, ok := Lookup(charsetName)
	if !ok {
		enc = charmap.ISO8859_1
	}
	encoder := encoding.ReplaceUnsupported(enc.NewEncoder())
	return encoder.Bytes([]byte(s))
}
