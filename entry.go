package mimekit

import "strings"

// RootElement identifies an XML document type by its root element. An empty
// Namespace matches any namespace.
type RootElement struct {
	Namespace string
	LocalName string
}

// TypeEntry is the registered record for one canonical media type. Entries are
// created by Builder.Build and are read-only afterwards; the accessors return
// copies of slice fields.
type TypeEntry struct {
	typ         MediaType
	description string
	acronym     string
	uti         string
	links       []string
	extensions  []string
	magics      []Magic
	globs       []GlobPattern

	containerEntries []string
	rootElements     []RootElement
}

// Type returns the canonical media type
func (e *TypeEntry) Type() MediaType { return e.typ }

// Description returns the human readable description
func (e *TypeEntry) Description() string { return e.description }

// Acronym returns the short name of the format, e.g. "BMP"
func (e *TypeEntry) Acronym() string { return e.acronym }

// UniformTypeIdentifier returns the Apple UTI, e.g. "public.xml"
func (e *TypeEntry) UniformTypeIdentifier() string { return e.uti }

// Links returns reference URIs describing the format
func (e *TypeEntry) Links() []string { return cloneStrings(e.links) }

// Extension returns the canonical extension including the leading dot, or ""
// when the type has none.
func (e *TypeEntry) Extension() string {
	if len(e.extensions) == 0 {
		return ""
	}
	return e.extensions[0]
}

// Extensions returns every known extension, canonical first
func (e *TypeEntry) Extensions() []string { return cloneStrings(e.extensions) }

// Magics returns the content signatures of the type
func (e *TypeEntry) Magics() []Magic {
	out := make([]Magic, len(e.magics))
	copy(out, e.magics)
	return out
}

// HasMagic reports whether the type can be recognized from content
func (e *TypeEntry) HasMagic() bool { return len(e.magics) > 0 }

// Globs returns the filename patterns of the type
func (e *TypeEntry) Globs() []GlobPattern {
	out := make([]GlobPattern, len(e.globs))
	copy(out, e.globs)
	return out
}

// ContainerEntries returns the zip entry names that identify the type
func (e *TypeEntry) ContainerEntries() []string { return cloneStrings(e.containerEntries) }

// RootElements returns the XML root elements that identify the type
func (e *TypeEntry) RootElements() []RootElement {
	out := make([]RootElement, len(e.rootElements))
	copy(out, e.rootElements)
	return out
}

// String returns the canonical type string
func (e *TypeEntry) String() string { return e.typ.String() }

// globExtensions derives extensions from simple "*.ext" patterns, in order
func globExtensions(globs []GlobPattern) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, g := range globs {
		if !strings.HasPrefix(g.Pattern, "*.") || hasGlobMeta(g.Pattern[1:]) {
			continue
		}
		ext := strings.ToLower(g.Pattern[1:])
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
