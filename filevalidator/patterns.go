package filevalidator

import (
	"fmt"
	"strings"

	"github.com/gobeaver/mimekit"
)

// typePattern is one compiled entry of AcceptedTypes or BlockedTypes
type typePattern struct {
	source string
	all    bool
	top    string
	typ    mimekit.MediaType
}

func (p typePattern) String() string { return p.source }

func (p typePattern) matches(reg *mimekit.Registry, t mimekit.MediaType) bool {
	switch {
	case p.all:
		return true
	case p.top != "":
		return t.Type() == p.top
	}
	return reg.IsSpecializationOf(t, p.typ)
}

// compilePatterns parses type patterns, expanding AllowAllDocuments
func compilePatterns(patterns []string) ([]typePattern, error) {
	var out []typePattern
	for _, s := range patterns {
		s = strings.TrimSpace(s)
		switch {
		case s == "":
			continue
		case strings.EqualFold(s, string(AllowAllDocuments)):
			for _, doc := range documentTypes {
				out = append(out, typePattern{source: doc, typ: mimekit.MustParse(doc)})
			}
			continue
		case s == string(AllowAll):
			out = append(out, typePattern{source: s, all: true})
			continue
		case strings.HasSuffix(s, "/*"):
			top := strings.ToLower(strings.TrimSuffix(s, "/*"))
			if top == "" || strings.ContainsAny(top, "/*") {
				return nil, fmt.Errorf("filevalidator: invalid type group %q", s)
			}
			out = append(out, typePattern{source: s, top: top})
			continue
		}
		t, err := mimekit.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("filevalidator: %w", err)
		}
		out = append(out, typePattern{source: s, typ: t})
	}
	return out, nil
}

func matchAny(patterns []typePattern, reg *mimekit.Registry, t mimekit.MediaType) (typePattern, bool) {
	for _, p := range patterns {
		if p.matches(reg, t) {
			return p, true
		}
	}
	return typePattern{}, false
}
