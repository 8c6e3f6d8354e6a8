package mimekit

import (
	"bytes"
	_ "embed"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"gopkg.in/yaml.v3"
)

//go:embed mimetypes.yaml
var defaultDefinitions []byte

// DefaultDefinitions returns the built-in definition set
func DefaultDefinitions() ([]Definition, error) {
	return ReadDefinitions(bytes.NewReader(defaultDefinitions))
}

// definitionFile is the YAML document layout:
//
//	types:
//	  - name: image/png
//	    globs: ["*.png"]
//	    magics:
//	      - priority: 50
//	        matches:
//	          - {type: string, offset: "0", value: '\x89PNG\r\n\x1a\n'}
type definitionFile struct {
	Types []typeDoc `yaml:"types"`
}

type typeDoc struct {
	Name             string     `yaml:"name"`
	Aliases          []string   `yaml:"aliases"`
	Parent           string     `yaml:"parent"`
	Description      string     `yaml:"description"`
	Acronym          string     `yaml:"acronym"`
	UTI              string     `yaml:"uti"`
	Links            []string   `yaml:"links"`
	Extensions       []string   `yaml:"extensions"`
	Globs            []globDoc  `yaml:"globs"`
	Magics           []magicDoc `yaml:"magics"`
	ContainerEntries []string   `yaml:"containerEntries"`
	RootXML          []rootDoc  `yaml:"rootXML"`
}

type globDoc struct {
	Pattern       string `yaml:"pattern"`
	Priority      int    `yaml:"priority"`
	CaseSensitive bool   `yaml:"caseSensitive"`
}

// UnmarshalYAML accepts a bare pattern string as shorthand
func (g *globDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		g.Pattern = node.Value
		return nil
	}
	type plain globDoc
	return node.Decode((*plain)(g))
}

type magicDoc struct {
	Priority int        `yaml:"priority"`
	Matches  []matchDoc `yaml:"matches"`
}

type matchDoc struct {
	Offset         string     `yaml:"offset"`
	Type           string     `yaml:"type"`
	Value          string     `yaml:"value"`
	Mask           string     `yaml:"mask"`
	MinShouldMatch *int       `yaml:"minShouldMatch"`
	Matches        []matchDoc `yaml:"matches"`
}

type rootDoc struct {
	Namespace string `yaml:"namespace"`
	LocalName string `yaml:"localName"`
}

// ReadDefinitions decodes a YAML definition document. Malformed magics,
// including out of range minShouldMatch values, fail the whole document.
func ReadDefinitions(r io.Reader) ([]Definition, error) {
	var doc definitionFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &TypeError{Op: "load", Err: fmt.Errorf("%w: %v", ErrDefinition, err)}
	}

	defs := make([]Definition, 0, len(doc.Types))
	for _, td := range doc.Types {
		def, err := td.definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (td typeDoc) definition() (Definition, error) {
	def := Definition{
		Name:                  td.Name,
		Aliases:               td.Aliases,
		Parent:                td.Parent,
		Description:           td.Description,
		Acronym:               td.Acronym,
		UniformTypeIdentifier: td.UTI,
		Links:                 td.Links,
		Extensions:            td.Extensions,
		ContainerEntries:      td.ContainerEntries,
	}
	for _, g := range td.Globs {
		def.Globs = append(def.Globs, GlobPattern(g))
	}
	for _, root := range td.RootXML {
		def.RootElements = append(def.RootElements, RootElement(root))
	}
	for i, md := range td.Magics {
		if len(md.Matches) == 0 {
			return Definition{}, definitionError(td.Name, "magic %d has no matches", i)
		}
		clauses := make([]Clause, 0, len(md.Matches))
		for _, m := range md.Matches {
			c, err := m.clause(td.Name)
			if err != nil {
				return Definition{}, err
			}
			clauses = append(clauses, c)
		}
		clause := clauses[0]
		if len(clauses) > 1 {
			clause = AnyOf(clauses...)
		}
		def.Magics = append(def.Magics, MagicRule{Priority: md.Priority, Clause: clause})
	}
	return def, nil
}

// clause converts a match. A match with a value and nested matches requires
// the value and at least minShouldMatch nested matches; a match without a value
// is a plain group.
func (m matchDoc) clause(name string) (Clause, error) {
	if m.MinShouldMatch != nil && len(m.Matches) == 0 {
		return Clause{}, definitionError(name, "minShouldMatch given without nested matches")
	}
	n := 1
	if m.MinShouldMatch != nil {
		n = *m.MinShouldMatch
	}
	if len(m.Matches) > 0 && (n <= 0 || n > len(m.Matches)) {
		return Clause{}, definitionError(name, "minShouldMatch %d out of range for %d matches", n, len(m.Matches))
	}

	children := make([]Clause, 0, len(m.Matches))
	for _, child := range m.Matches {
		c, err := child.clause(name)
		if err != nil {
			return Clause{}, err
		}
		children = append(children, c)
	}

	if m.Value == "" {
		if len(children) == 0 {
			return Clause{}, definitionError(name, "match has neither a value nor nested matches")
		}
		return AtLeast(n, children...), nil
	}

	leaf, err := m.leaf(name)
	if err != nil {
		return Clause{}, err
	}
	if len(children) == 0 {
		return leaf, nil
	}
	return AllOf(leaf, AtLeast(n, children...)), nil
}

func (m matchDoc) leaf(name string) (Clause, error) {
	offset, err := parseOffset(m.Offset)
	if err != nil {
		return Clause{}, definitionError(name, "offset %q: %v", m.Offset, err)
	}

	kind := m.Type
	if kind == "" {
		kind = "string"
	}
	var c Clause
	switch kind {
	case "regex":
		re, err := regexp.Compile(m.Value)
		if err != nil {
			return Clause{}, definitionError(name, "regex %q: %v", m.Value, err)
		}
		c = Regexp(offset, re)
	case "string-ignore-case":
		pattern, err := unescapeString(m.Value)
		if err != nil {
			return Clause{}, definitionError(name, "value %q: %v", m.Value, err)
		}
		c = Clause{Kind: LeafClause, Offset: offset, Pattern: pattern, IgnoreCase: true}
	default:
		pattern, err := encodeValue(kind, m.Value)
		if err != nil {
			return Clause{}, definitionError(name, "%s value %q: %v", kind, m.Value, err)
		}
		c = Bytes(offset, pattern)
	}

	if m.Mask != "" {
		maskKind := kind
		if kind == "string" || kind == "string-ignore-case" || kind == "unicode-le" {
			maskKind = "hex"
		}
		mask, err := encodeValue(maskKind, m.Mask)
		if err != nil {
			return Clause{}, definitionError(name, "mask %q: %v", m.Mask, err)
		}
		c.Mask = mask
	}
	if err := c.Validate(); err != nil {
		return Clause{}, withTypeName(err, name)
	}
	return c, nil
}

func parseOffset(s string) (OffsetRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return At(0), nil
	}
	lo, hi, ranged := strings.Cut(s, ":")
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return OffsetRange{}, err
	}
	if !ranged {
		return At(start), nil
	}
	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return OffsetRange{}, err
	}
	return Between(start, end), nil
}

// encodeValue turns a typed match value into the bytes to compare
func encodeValue(kind, value string) ([]byte, error) {
	switch kind {
	case "string":
		return unescapeString(value)
	case "unicode-le":
		s, err := unescapeString(value)
		if err != nil {
			return nil, err
		}
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes(s)
	case "hex":
		v := strings.TrimPrefix(strings.TrimPrefix(value, "0x"), "0X")
		v = strings.Join(strings.Fields(v), "")
		return hex.DecodeString(v)
	case "byte":
		n, err := strconv.ParseUint(value, 0, 8)
		return []byte{byte(n)}, err
	case "big16", "little16":
		n, err := strconv.ParseUint(value, 0, 16)
		if kind == "big16" {
			return binary.BigEndian.AppendUint16(nil, uint16(n)), err
		}
		return binary.LittleEndian.AppendUint16(nil, uint16(n)), err
	case "big32", "little32":
		n, err := strconv.ParseUint(value, 0, 32)
		if kind == "big32" {
			return binary.BigEndian.AppendUint32(nil, uint32(n)), err
		}
		return binary.LittleEndian.AppendUint32(nil, uint32(n)), err
	}
	return nil, fmt.Errorf("unknown match type %q", kind)
}

// unescapeString decodes \xNN, octal \NNN, \n, \r, \t and \\ escapes.
// Unknown escapes stand for the escaped character.
func unescapeString(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(s) {
			return nil, errors.New("trailing backslash")
		}
		switch e := s[i]; {
		case e == 'x':
			if i+3 > len(s) {
				return nil, errors.New("short \\x escape")
			}
			b, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return nil, err
			}
			out = append(out, byte(b))
			i += 2
		case '0' <= e && e <= '7':
			j := i
			for j < len(s) && j < i+3 && '0' <= s[j] && s[j] <= '7' {
				j++
			}
			b, err := strconv.ParseUint(s[i:j], 8, 8)
			if err != nil {
				return nil, err
			}
			out = append(out, byte(b))
			i = j - 1
		case e == 'n':
			out = append(out, '\n')
		case e == 'r':
			out = append(out, '\r')
		case e == 't':
			out = append(out, '\t')
		default:
			out = append(out, e)
		}
	}
	return out, nil
}
