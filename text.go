package mimekit

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// textProbeSize is how much of the prefix is checked for control bytes
const textProbeSize = 512

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

func hasBOM(b []byte) bool {
	return bytes.HasPrefix(b, utf8BOM) || bytes.HasPrefix(b, utf16LEBOM) || bytes.HasPrefix(b, utf16BEBOM)
}

// decodeBOM strips a byte order mark and transcodes UTF-16 to UTF-8. The
// second result is false when b does not start with a BOM.
func decodeBOM(b []byte) ([]byte, bool) {
	if !hasBOM(b) {
		return b, false
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), b)
	if err != nil {
		// truncated in the middle of a code unit
		if bytes.HasPrefix(b, utf8BOM) {
			return b[len(utf8BOM):], true
		}
		return b[2:], true
	}
	return out, true
}

// looksLikeText reports whether the start of b is free of the control bytes
// that never appear in plain text. ESC and the usual whitespace controls are
// allowed; bytes >= 0x80 are accepted since the encoding is unknown.
func looksLikeText(b []byte) bool {
	if len(b) > textProbeSize {
		b = b[:textProbeSize]
	}
	for _, c := range b {
		if isControlByte(c) {
			return false
		}
	}
	return true
}

func isControlByte(c byte) bool {
	return c <= 0x08 || (0x0E <= c && c <= 0x1A) || (0x1C <= c && c <= 0x1F)
}
