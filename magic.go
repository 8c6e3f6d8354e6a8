package mimekit

import (
	"bytes"
	"regexp"
)

// ClauseKind tags the variant held by a Clause
type ClauseKind uint8

const (
	// LeafClause compares bytes (or a regular expression) at an offset range
	LeafClause ClauseKind = iota + 1
	// GroupClause combines child clauses with a minimum match count
	GroupClause
)

// OffsetRange is an inclusive range of start offsets
type OffsetRange struct {
	Min int
	Max int
}

// At returns the single-offset range [offset, offset]
func At(offset int) OffsetRange {
	return OffsetRange{Min: offset, Max: offset}
}

// Between returns the inclusive range [lo, hi]
func Between(lo, hi int) OffsetRange {
	return OffsetRange{Min: lo, Max: hi}
}

// Clause is one node of a magic signature tree.
//
// A leaf matches when Pattern (after Mask, if set) occurs at any start offset in
// Offset. A group matches when at least MinShouldMatch of its Children match:
// MinShouldMatch 1 behaves as OR and len(Children) as AND.
type Clause struct {
	Kind ClauseKind

	// Leaf fields
	Offset     OffsetRange
	Pattern    []byte
	Mask       []byte
	IgnoreCase bool
	Regexp     *regexp.Regexp

	// Group fields
	Children       []Clause
	MinShouldMatch int
}

// Magic is a top-level signature attached to a type
type Magic struct {
	Type     MediaType
	Priority int
	Clause   Clause
}

// Bytes matches a literal byte sequence
func Bytes(offset OffsetRange, pattern []byte) Clause {
	return Clause{Kind: LeafClause, Offset: offset, Pattern: pattern}
}

// Literal matches a literal string
func Literal(offset OffsetRange, s string) Clause {
	return Bytes(offset, []byte(s))
}

// Folded matches a string ignoring ASCII case
func Folded(offset OffsetRange, s string) Clause {
	return Clause{Kind: LeafClause, Offset: offset, Pattern: []byte(s), IgnoreCase: true}
}

// Masked matches pattern after AND-ing both sides with mask
func Masked(offset OffsetRange, pattern, mask []byte) Clause {
	return Clause{Kind: LeafClause, Offset: offset, Pattern: pattern, Mask: mask}
}

// Regexp matches when re finds a match starting within the offset range
func Regexp(offset OffsetRange, re *regexp.Regexp) Clause {
	return Clause{Kind: LeafClause, Offset: offset, Regexp: re}
}

// AnyOf matches when at least one child matches
func AnyOf(children ...Clause) Clause {
	return AtLeast(1, children...)
}

// AllOf matches when every child matches
func AllOf(children ...Clause) Clause {
	return AtLeast(len(children), children...)
}

// AtLeast matches when at least n children match
func AtLeast(n int, children ...Clause) Clause {
	return Clause{Kind: GroupClause, Children: children, MinShouldMatch: n}
}

// Validate reports definition errors in the clause tree
func (c Clause) Validate() error {
	switch c.Kind {
	case LeafClause:
		if c.Offset.Min < 0 || c.Offset.Max < c.Offset.Min {
			return definitionError("", "invalid offset range %d:%d", c.Offset.Min, c.Offset.Max)
		}
		if c.Regexp != nil {
			return nil
		}
		if len(c.Pattern) == 0 {
			return definitionError("", "empty magic pattern")
		}
		if c.Mask != nil && len(c.Mask) != len(c.Pattern) {
			return definitionError("", "mask length %d does not match pattern length %d", len(c.Mask), len(c.Pattern))
		}
	case GroupClause:
		if c.MinShouldMatch <= 0 || c.MinShouldMatch > len(c.Children) {
			return definitionError("", "minShouldMatch %d out of range for %d clauses", c.MinShouldMatch, len(c.Children))
		}
		for _, child := range c.Children {
			if err := child.Validate(); err != nil {
				return err
			}
		}
	default:
		return definitionError("", "unknown clause kind %d", c.Kind)
	}
	return nil
}

// Test evaluates the clause against a bounded prefix of the stream
func (c Clause) Test(buf []byte) bool {
	switch c.Kind {
	case LeafClause:
		return c.testLeaf(buf)
	case GroupClause:
		return c.testGroup(buf)
	}
	return false
}

func (c Clause) testGroup(buf []byte) bool {
	matched := 0
	for i, child := range c.Children {
		if child.Test(buf) {
			matched++
			if matched >= c.MinShouldMatch {
				return true
			}
		}
		if matched+len(c.Children)-i-1 < c.MinShouldMatch {
			return false
		}
	}
	return false
}

func (c Clause) testLeaf(buf []byte) bool {
	if c.Offset.Min >= len(buf) {
		return false
	}
	if c.Regexp != nil {
		// The match must start inside the range but may run to the end of the prefix
		loc := c.Regexp.FindIndex(buf[c.Offset.Min:])
		return loc != nil && loc[0] <= c.Offset.Max-c.Offset.Min
	}

	n := len(c.Pattern)
	end := min(len(buf), c.Offset.Max+n)
	window := buf[c.Offset.Min:end]
	if len(window) < n {
		return false
	}
	if c.Mask == nil && !c.IgnoreCase {
		return bytes.Contains(window, c.Pattern)
	}
	for off := 0; off+n <= len(window); off++ {
		if c.equalAt(window[off : off+n]) {
			return true
		}
	}
	return false
}

func (c Clause) equalAt(b []byte) bool {
	for i, p := range c.Pattern {
		v := b[i]
		if c.Mask != nil {
			v &= c.Mask[i]
			p &= c.Mask[i]
		}
		if c.IgnoreCase {
			v = foldASCII(v)
			p = foldASCII(p)
		}
		if v != p {
			return false
		}
	}
	return true
}

func foldASCII(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}

// extent is the number of prefix bytes a clause needs before it can match.
// A regular expression needs only its first byte inside the range.
func (c Clause) extent() int {
	switch c.Kind {
	case LeafClause:
		if c.Regexp != nil {
			return c.Offset.Max + 1
		}
		return c.Offset.Max + len(c.Pattern)
	case GroupClause:
		n := 0
		for _, child := range c.Children {
			n = max(n, child.extent())
		}
		return n
	}
	return 0
}
