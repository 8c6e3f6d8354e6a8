package mimekit

import "strings"

// maxHierarchyDepth bounds supertype walks. Build rejects cycles, so a frozen
// registry never gets close to it.
const maxHierarchyDepth = 64

// Registry is the media type hierarchy: canonical types, aliases and parent
// declarations, plus the derived specialization rules.
//
// A Registry is produced by Builder.Build and never changes afterwards, so all
// methods are safe for concurrent use without locking.
type Registry struct {
	types     map[MediaType]struct{}
	aliases   map[MediaType]MediaType
	parents   map[MediaType]MediaType
	children  map[MediaType][]MediaType
	aliasesOf map[MediaType][]MediaType
}

func newRegistry() *Registry {
	return &Registry{
		types:     make(map[MediaType]struct{}),
		aliases:   make(map[MediaType]MediaType),
		parents:   make(map[MediaType]MediaType),
		children:  make(map[MediaType][]MediaType),
		aliasesOf: make(map[MediaType][]MediaType),
	}
}

// IsRegistered reports whether t (after alias resolution) is a canonical type
func (r *Registry) IsRegistered(t MediaType) bool {
	_, ok := r.types[r.Normalize(t)]
	return ok
}

// Types returns all canonical types sorted by their string form
func (r *Registry) Types() []MediaType {
	out := make([]MediaType, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sortMediaTypes(out)
	return out
}

// Normalize resolves aliases. A parameterized alias keeps its parameters on the
// canonical base type. Unknown types are returned unchanged.
func (r *Registry) Normalize(t MediaType) MediaType {
	if canonical, ok := r.aliases[t]; ok {
		return canonical
	}
	if t.HasParameters() {
		if canonical, ok := r.aliases[t.BaseType()]; ok {
			return MediaType{typ: canonical.typ, subtype: canonical.subtype, params: t.params}
		}
	}
	return t
}

// Supertype returns the direct supertype of t. The second result is false only
// for the universal root, application/octet-stream.
//
// Explicit parent declarations win. Otherwise a parameterized type specializes
// its base type, "+xml" subtypes specialize application/xml (text/xml for the
// text top-level type), "+zip" subtypes specialize application/zip, text/*
// specializes text/plain, and everything else specializes the root.
func (r *Registry) Supertype(t MediaType) (MediaType, bool) {
	t = r.Normalize(t)
	if parent, ok := r.parents[t]; ok {
		return parent, true
	}
	if t.HasParameters() {
		return t.BaseType(), true
	}
	return r.derivedSupertype(t)
}

func (r *Registry) derivedSupertype(t MediaType) (MediaType, bool) {
	switch {
	case strings.HasSuffix(t.subtype, "+xml"):
		if t.typ == "text" {
			return r.Normalize(TextXML), true
		}
		return r.Normalize(ApplicationXML), true
	case strings.HasSuffix(t.subtype, "+zip"):
		return ApplicationZip, true
	case t.typ == "text" && t != TextPlain:
		return TextPlain, true
	case t != OctetStream:
		return OctetStream, true
	}
	return MediaType{}, false
}

// IsSpecializationOf reports whether a equals b or a's supertype chain reaches b
func (r *Registry) IsSpecializationOf(a, b MediaType) bool {
	a = r.Normalize(a)
	b = r.Normalize(b)
	for depth := 0; depth < maxHierarchyDepth; depth++ {
		if a == b {
			return true
		}
		var ok bool
		if a, ok = r.Supertype(a); !ok {
			return false
		}
		a = r.Normalize(a)
	}
	return false
}

// ChildTypes returns the known types whose direct supertype is t, whether the
// edge is declared or derived.
func (r *Registry) ChildTypes(t MediaType) []MediaType {
	children := r.children[r.Normalize(t)]
	out := make([]MediaType, len(children))
	copy(out, children)
	return out
}

// Aliases returns every alias that resolves to t, excluding t itself
func (r *Registry) Aliases(t MediaType) []MediaType {
	aliases := r.aliasesOf[r.Normalize(t)]
	out := make([]MediaType, len(aliases))
	copy(out, aliases)
	return out
}

func (r *Registry) addType(t MediaType) {
	r.types[t] = struct{}{}
}

func (r *Registry) addAlias(alias, canonical MediaType) error {
	if alias == canonical {
		return nil
	}
	if existing, ok := r.aliases[alias]; ok && existing != canonical {
		return definitionError(canonical.String(), "alias %s already resolves to %s", alias, existing)
	}
	r.aliases[alias] = canonical
	return nil
}

func (r *Registry) addParent(t, parent MediaType) error {
	if existing, ok := r.parents[t]; ok && existing != parent {
		return definitionError(t.String(), "parent already declared as %s", existing)
	}
	r.parents[t] = parent
	return nil
}

// freeze validates the graph and builds the reverse indexes. It must be called
// exactly once, after the last add call.
func (r *Registry) freeze() error {
	for alias, canonical := range r.aliases {
		if _, ok := r.types[alias]; ok {
			return definitionError(alias.String(), "declared both as a type and as an alias of %s", canonical)
		}
		if _, ok := r.aliases[canonical]; ok {
			return definitionError(alias.String(), "alias target %s is itself an alias", canonical)
		}
	}

	// Parent targets are stored canonical so lookups stay single-step.
	for t, parent := range r.parents {
		r.parents[t] = r.Normalize(parent)
	}

	known := make(map[MediaType]struct{}, len(r.types)+len(r.parents))
	for t := range r.types {
		known[t] = struct{}{}
	}
	for _, parent := range r.parents {
		known[parent] = struct{}{}
	}

	for t := range known {
		if err := r.checkAcyclic(t); err != nil {
			return err
		}
		if parent, ok := r.Supertype(t); ok {
			r.children[parent] = append(r.children[parent], t)
		}
	}
	for _, children := range r.children {
		sortMediaTypes(children)
	}

	for alias, canonical := range r.aliases {
		r.aliasesOf[canonical] = append(r.aliasesOf[canonical], alias)
	}
	for _, aliases := range r.aliasesOf {
		sortMediaTypes(aliases)
	}
	return nil
}

func (r *Registry) checkAcyclic(t MediaType) error {
	seen := map[MediaType]struct{}{t: {}}
	current := t
	for {
		parent, ok := r.Supertype(current)
		if !ok {
			return nil
		}
		if _, dup := seen[parent]; dup {
			return definitionError(t.String(), "supertype cycle through %s", parent)
		}
		seen[parent] = struct{}{}
		current = parent
	}
}
