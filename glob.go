package mimekit

import (
	"net/url"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultPriority is the priority given to globs and magics that do not declare one
const DefaultPriority = 50

// GlobPattern is a filename pattern attached to a type entry
type GlobPattern struct {
	// Pattern is matched against the filename component only, e.g. "*.tar.gz"
	Pattern string

	// Priority orders competing matches; higher wins
	Priority int

	// CaseSensitive disables the default case-insensitive comparison
	CaseSensitive bool
}

// GlobRule binds a pattern to the media type it identifies
type GlobRule struct {
	Type MediaType
	GlobPattern
}

// GlobMatch is a single result of GlobMatcher.Match
type GlobMatch struct {
	Type     MediaType
	Priority int
	Pattern  string
}

type compiledGlob struct {
	rule    GlobRule
	matcher glob.Glob
}

// GlobMatcher maps filenames to candidate media types. It is immutable once
// built and safe for concurrent use.
type GlobMatcher struct {
	// literal names ("Makefile") and simple suffixes ("*.txt") are indexed;
	// everything else goes through a compiled glob.
	exact       map[string][]GlobRule
	exactFolded map[string][]GlobRule
	suffix      map[string][]GlobRule
	suffixFold  map[string][]GlobRule
	patterns    []compiledGlob
}

// NewGlobMatcher compiles the given rules
func NewGlobMatcher(rules []GlobRule) (*GlobMatcher, error) {
	m := &GlobMatcher{
		exact:       make(map[string][]GlobRule),
		exactFolded: make(map[string][]GlobRule),
		suffix:      make(map[string][]GlobRule),
		suffixFold:  make(map[string][]GlobRule),
	}
	for _, rule := range rules {
		if err := m.add(rule); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *GlobMatcher) add(rule GlobRule) error {
	pattern := rule.Pattern
	if pattern == "" {
		return definitionError(rule.Type.String(), "empty glob pattern")
	}
	if rule.Priority == 0 {
		rule.Priority = DefaultPriority
	}
	key := pattern
	if !rule.CaseSensitive {
		key = strings.ToLower(pattern)
	}

	switch {
	case !hasGlobMeta(pattern):
		if rule.CaseSensitive {
			m.exact[key] = append(m.exact[key], rule)
		} else {
			m.exactFolded[key] = append(m.exactFolded[key], rule)
		}
	case strings.HasPrefix(pattern, "*.") && !hasGlobMeta(pattern[1:]):
		if rule.CaseSensitive {
			m.suffix[key[1:]] = append(m.suffix[key[1:]], rule)
		} else {
			m.suffixFold[key[1:]] = append(m.suffixFold[key[1:]], rule)
		}
	default:
		g, err := glob.Compile(key)
		if err != nil {
			return definitionError(rule.Type.String(), "invalid glob %q: %v", pattern, err)
		}
		m.patterns = append(m.patterns, compiledGlob{rule: rule, matcher: g})
	}
	return nil
}

// Match returns the types whose patterns match filename, one entry per type,
// sorted by priority (highest first) and then by canonical type string.
// filename must already be reduced to its last path component; see FileName.
func (m *GlobMatcher) Match(filename string) []GlobMatch {
	if filename == "" {
		return nil
	}
	folded := strings.ToLower(filename)
	best := make(map[MediaType]GlobMatch)
	consider := func(rules []GlobRule) {
		for _, rule := range rules {
			if current, ok := best[rule.Type]; ok && current.Priority >= rule.Priority {
				continue
			}
			best[rule.Type] = GlobMatch{Type: rule.Type, Priority: rule.Priority, Pattern: rule.Pattern}
		}
	}

	consider(m.exact[filename])
	consider(m.exactFolded[folded])
	for i := 0; i < len(filename); i++ {
		if filename[i] != '.' {
			continue
		}
		consider(m.suffix[filename[i:]])
		consider(m.suffixFold[folded[i:]])
	}
	for _, p := range m.patterns {
		name := folded
		if p.rule.CaseSensitive {
			name = filename
		}
		if p.matcher.Match(name) {
			consider([]GlobRule{p.rule})
		}
	}

	if len(best) == 0 {
		return nil
	}
	out := make([]GlobMatch, 0, len(best))
	for _, match := range best {
		out = append(out, match)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Type.String() < out[j].Type.String()
	})
	return out
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[]{}\\!")
}

// FileName reduces a resource name hint to its filename component. The hint may
// be a plain name, a Unix or Windows path, or a URL; for URLs the query and
// fragment are dropped. "." and ".." yield an empty name.
func FileName(hint string) string {
	if hint == "" {
		return ""
	}
	path := hint
	if strings.Contains(hint, "://") {
		if u, err := url.Parse(hint); err == nil {
			path = u.Path
		}
	}
	cut := strings.LastIndexAny(path, "/\\:")
	name := path[cut+1:]
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// Extension returns the last dot-suffix of a filename, including the dot,
// lower-cased. It returns "" when there is none.
func Extension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i <= 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i:])
}
