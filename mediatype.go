package mimekit

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// MediaType is an immutable type/subtype pair with optional parameters.
//
// MediaType values are comparable and may be used as map keys. Two values are
// equal when their canonical forms are equal, which makes equality independent of
// the order in which parameters were supplied.
type MediaType struct {
	typ     string
	subtype string
	// params holds the canonical "; key=value" tail, sorted by key
	params string
}

// Well-known media types
var (
	OctetStream     = NewMediaType("application", "octet-stream", nil)
	TextPlain       = NewMediaType("text", "plain", nil)
	TextHTML        = NewMediaType("text", "html", nil)
	TextXML         = NewMediaType("text", "xml", nil)
	ApplicationXML  = NewMediaType("application", "xml", nil)
	ApplicationZip  = NewMediaType("application", "zip", nil)
	ApplicationJSON = NewMediaType("application", "json", nil)
)

// NewMediaType builds a media type from its parts. Type, subtype and parameter
// names are lower-cased; parameter values are kept as given.
func NewMediaType(typ, subtype string, params map[string]string) MediaType {
	m := MediaType{
		typ:     strings.ToLower(strings.TrimSpace(typ)),
		subtype: strings.ToLower(strings.TrimSpace(subtype)),
	}
	if len(params) > 0 {
		lowered := make(map[string]string, len(params))
		for k, v := range params {
			k = strings.ToLower(strings.TrimSpace(k))
			if k == "" {
				continue
			}
			lowered[k] = v
		}
		m.params = renderParams(lowered)
	}
	return m
}

// Parse parses a media type string such as "text/html; charset=UTF-8".
//
// Parsing is tolerant: surrounding whitespace is ignored, parameters without a
// name or without "=" are skipped and quoted values are unquoted. The only
// rejected input is a string without any "/".
func Parse(s string) (MediaType, error) {
	s = strings.TrimSpace(s)
	slash := strings.IndexByte(s, '/')
	if slash < 0 {
		return MediaType{}, &TypeError{Op: "parse", Type: s, Err: ErrFormat}
	}

	head := s[:slash]
	if i := strings.IndexByte(head, ';'); i >= 0 {
		head = head[:i]
	}
	rest := s[slash+1:]
	sub, tail, _ := strings.Cut(rest, ";")

	return NewMediaType(head, sub, parseParams(tail)), nil
}

// MustParse is like Parse but panics on malformed input. It is intended for
// package-level variables and tests.
func MustParse(s string) MediaType {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Type returns the top-level type, e.g. "text"
func (m MediaType) Type() string { return m.typ }

// Subtype returns the subtype, e.g. "html"
func (m MediaType) Subtype() string { return m.subtype }

// IsZero reports whether m is the zero MediaType
func (m MediaType) IsZero() bool {
	return m.typ == "" && m.subtype == "" && m.params == ""
}

// HasParameters reports whether m carries any parameters
func (m MediaType) HasParameters() bool { return m.params != "" }

// Parameters returns a copy of the parameters. The map is nil when there are none.
func (m MediaType) Parameters() map[string]string {
	if m.params == "" {
		return nil
	}
	return parseParams(m.params)
}

// Parameter returns the value of a single parameter
func (m MediaType) Parameter(key string) (string, bool) {
	if m.params == "" {
		return "", false
	}
	v, ok := parseParams(m.params)[strings.ToLower(key)]
	return v, ok
}

// BaseType returns m without its parameters
func (m MediaType) BaseType() MediaType {
	return MediaType{typ: m.typ, subtype: m.subtype}
}

// String returns the canonical form: type/subtype followed by "; key=value"
// pairs sorted by key.
func (m MediaType) String() string {
	if m.IsZero() {
		return ""
	}
	return m.typ + "/" + m.subtype + m.params
}

// Equal reports whether two media types have the same canonical form
func (m MediaType) Equal(other MediaType) bool {
	return m == other
}

// Hash returns a 64-bit hash of the canonical form
func (m MediaType) Hash() uint64 {
	return xxhash.Sum64String(m.String())
}

// MarshalText implements encoding.TextMarshaler
func (m MediaType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *MediaType) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func renderParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString("; ")
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(quoteValue(params[k]))
	}
	return b.String()
}

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\r\n;\"") {
		return v
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(v); i++ {
		if v[i] == '"' || v[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(v[i])
	}
	b.WriteByte('"')
	return b.String()
}

// parseParams splits a "; a=b; c="d;e"" tail into a map. Semicolons inside
// quoted values do not terminate the value.
func parseParams(tail string) map[string]string {
	var params map[string]string
	for len(tail) > 0 {
		var part string
		part, tail = nextParam(tail)
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if params == nil {
			params = make(map[string]string)
		}
		params[key] = unquoteValue(strings.TrimSpace(value))
	}
	return params
}

func nextParam(s string) (part, rest string) {
	quoted := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if quoted {
				i++
			}
		case '"':
			quoted = !quoted
		case ';':
			if !quoted {
				return s[:i], s[i+1:]
			}
		}
	}
	return s, ""
}

func unquoteValue(v string) string {
	if len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return v
	}
	v = v[1 : len(v)-1]
	if !strings.Contains(v, "\\") {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			i++
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

func sortMediaTypes(types []MediaType) {
	sort.Slice(types, func(i, j int) bool {
		return types[i].String() < types[j].String()
	})
}
