package mimekit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Definition is the ingestion record for one media type. Several definitions
// with the same Name are merged: scalar fields are overwritten by non-empty
// values, lists are appended.
type Definition struct {
	Name                  string
	Aliases               []string
	Parent                string
	Description           string
	Acronym               string
	UniformTypeIdentifier string
	Links                 []string

	// Extensions are registered as "*.ext" globs with the default priority and
	// listed before any extension derived from Globs.
	Extensions []string
	Globs      []GlobPattern
	Magics     []MagicRule

	// ContainerEntries name zip entries identifying the type. An entry ending
	// in "/" matches any entry below that directory.
	ContainerEntries []string
	RootElements     []RootElement
}

// MagicRule is a content signature with its priority
type MagicRule struct {
	Priority int
	Clause   Clause
}

// Builder collects definitions while the engine is loading. It is not safe for
// concurrent use. Build freezes the collected state into a Detector; adding
// definitions afterwards is a programming error and panics.
type Builder struct {
	opts     Options
	registry *Registry
	entries  map[MediaType]*TypeEntry
	err      error
	frozen   bool
}

// NewBuilder creates an empty builder
func NewBuilder(opts ...Option) *Builder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Builder{
		opts:     o,
		registry: newRegistry(),
		entries:  make(map[MediaType]*TypeEntry),
	}
}

// Add registers definitions. The first invalid definition aborts the call and
// poisons the builder, so Build reports the same error.
func (b *Builder) Add(defs ...Definition) error {
	if b.frozen {
		panic("mimekit: Add called after Build")
	}
	if b.err != nil {
		return b.err
	}
	for _, def := range defs {
		if err := b.add(def); err != nil {
			b.err = err
			return err
		}
	}
	return nil
}

// AddDefaults registers the built-in definition set
func (b *Builder) AddDefaults() error {
	defs, err := DefaultDefinitions()
	if err != nil {
		return err
	}
	return b.Add(defs...)
}

// Load reads a YAML definition document and registers its types
func (b *Builder) Load(r io.Reader) error {
	defs, err := ReadDefinitions(r)
	if err != nil {
		return err
	}
	return b.Add(defs...)
}

// LoadFile is Load for a file on disk
func (b *Builder) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &TypeError{Op: "load", Type: path, Err: fmt.Errorf("%w: %w", ErrIO, err)}
	}
	defer f.Close()
	return b.Load(f)
}

func (b *Builder) add(def Definition) error {
	name := strings.TrimSpace(def.Name)
	t, err := Parse(name)
	if err != nil || t.Type() == "" || t.Subtype() == "" {
		return definitionError(name, "invalid type name")
	}

	entry, ok := b.entries[t]
	if !ok {
		entry = &TypeEntry{typ: t}
		b.entries[t] = entry
		b.registry.addType(t)
	}

	for _, a := range def.Aliases {
		alias, err := Parse(a)
		if err != nil {
			return definitionError(name, "invalid alias %q", a)
		}
		if err := b.registry.addAlias(alias, t); err != nil {
			return err
		}
	}

	if def.Parent != "" {
		parent, err := Parse(def.Parent)
		if err != nil {
			return definitionError(name, "invalid parent %q", def.Parent)
		}
		if parent == t {
			return definitionError(name, "type is its own parent")
		}
		if err := b.registry.addParent(t, parent); err != nil {
			return err
		}
	}

	if def.Description != "" {
		entry.description = def.Description
	}
	if def.Acronym != "" {
		entry.acronym = def.Acronym
	}
	if def.UniformTypeIdentifier != "" {
		entry.uti = def.UniformTypeIdentifier
	}
	entry.links = append(entry.links, def.Links...)

	for _, ext := range normalizeExtensions(def.Extensions) {
		entry.extensions = appendUnique(entry.extensions, ext)
		entry.globs = append(entry.globs, GlobPattern{Pattern: "*" + ext, Priority: DefaultPriority})
	}
	for _, g := range def.Globs {
		if strings.TrimSpace(g.Pattern) == "" {
			return definitionError(name, "empty glob pattern")
		}
		if g.Priority == 0 {
			g.Priority = DefaultPriority
		}
		entry.globs = append(entry.globs, g)
	}
	for _, ext := range globExtensions(def.Globs) {
		entry.extensions = appendUnique(entry.extensions, ext)
	}

	for i, rule := range def.Magics {
		if err := rule.Clause.Validate(); err != nil {
			return withTypeName(err, fmt.Sprintf("%s (magic %d)", name, i))
		}
		priority := rule.Priority
		if priority == 0 {
			priority = DefaultPriority
		}
		entry.magics = append(entry.magics, Magic{Type: t, Priority: priority, Clause: rule.Clause})
	}

	for _, marker := range def.ContainerEntries {
		if marker == "" || marker == "/" {
			return definitionError(name, "empty container entry")
		}
		entry.containerEntries = appendUnique(entry.containerEntries, marker)
	}
	for _, root := range def.RootElements {
		if root.LocalName == "" {
			return definitionError(name, "root element without a local name")
		}
		entry.rootElements = append(entry.rootElements, root)
	}
	return nil
}

// Build validates the hierarchy and freezes everything into a Detector
func (b *Builder) Build() (*Detector, error) {
	if b.frozen {
		panic("mimekit: Build called twice")
	}
	if b.err != nil {
		return nil, b.err
	}
	b.frozen = true

	// The fallbacks the detector returns are always registered
	for _, t := range []MediaType{OctetStream, TextPlain} {
		if _, ok := b.entries[t]; !ok && !b.registry.IsRegistered(t) {
			b.entries[t] = &TypeEntry{typ: t}
			b.registry.addType(t)
		}
	}

	if err := b.registry.freeze(); err != nil {
		return nil, err
	}

	d := &Detector{
		registry:  b.registry,
		entries:   b.entries,
		opts:      b.opts,
		logger:    b.opts.Logger,
		lookahead: b.opts.LookaheadSize,
		scripts:   make(map[string]struct{}, len(b.opts.ScriptExtensions)),
	}
	for _, ext := range b.opts.ScriptExtensions {
		d.scripts[ext] = struct{}{}
	}

	var rules []GlobRule
	for _, t := range b.registry.Types() {
		entry := b.entries[t]
		for _, m := range entry.magics {
			d.magics = append(d.magics, m)
			if n := m.Clause.extent(); n > d.lookahead {
				b.opts.Logger.Warn("magic reaches beyond the lookahead window",
					"type", t.String(), "extent", n, "lookahead", d.lookahead)
			}
		}
		for _, g := range entry.globs {
			rules = append(rules, GlobRule{Type: t, GlobPattern: g})
		}
		if len(entry.containerEntries) > 0 {
			d.containers = append(d.containers, containerRule{typ: t, entries: entry.containerEntries})
		}
		for _, root := range entry.rootElements {
			d.roots = append(d.roots, rootRule{typ: t, root: root})
		}
	}

	// Types() is sorted, so a stable sort by priority keeps the type order
	// within each priority band.
	sort.SliceStable(d.magics, func(i, j int) bool {
		return d.magics[i].Priority > d.magics[j].Priority
	})
	sort.SliceStable(d.containers, func(i, j int) bool {
		return len(d.containers[i].entries) > len(d.containers[j].entries)
	})
	sort.SliceStable(d.roots, func(i, j int) bool {
		return d.roots[i].root.Namespace != "" && d.roots[j].root.Namespace == ""
	})

	globs, err := NewGlobMatcher(rules)
	if err != nil {
		return nil, err
	}
	d.globs = globs

	b.opts.Logger.Info("media type registry frozen",
		"types", len(b.entries),
		"magics", len(d.magics),
		"globs", len(rules),
		"lookahead", d.lookahead)
	return d, nil
}

func withTypeName(err error, name string) error {
	var te *TypeError
	if errors.As(err, &te) && te.Type == "" {
		te.Type = name
	}
	return err
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
