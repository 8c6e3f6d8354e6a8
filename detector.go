package mimekit

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// Detector is a frozen detection engine. All methods are safe for concurrent
// use; no method mutates shared state.
type Detector struct {
	registry   *Registry
	entries    map[MediaType]*TypeEntry
	magics     []Magic
	globs      *GlobMatcher
	containers []containerRule
	roots      []rootRule
	scripts    map[string]struct{}
	opts       Options
	logger     *slog.Logger
	lookahead  int
}

// hints is the evidence taken from the metadata bag
type hints struct {
	declared    MediaType
	hasDeclared bool
	globs       []GlobMatch
}

// Verdict is a detection result together with the evidence behind it
type Verdict struct {
	// Type is the detected type, the value Detect returns
	Type MediaType
	// Content is what the bytes alone support. It is zero when the bytes
	// matched nothing, which includes an empty or missing stream.
	Content MediaType
	// Source names the evidence that decided Type: magic, bom, text,
	// container, declared, name or fallback
	Source string

	confirmed bool
}

// Verified returns the type the content vouches for. That is Type when the
// bytes confirm it, Content when a hint overrode the bytes, and
// application/octet-stream when the bytes were not recognized. Callers that
// must not trust names or declared types, such as upload filters, should
// decide on Verified rather than Type.
func (v Verdict) Verified() MediaType {
	switch {
	case v.Content.IsZero():
		return OctetStream
	case v.confirmed:
		return v.Type
	}
	return v.Content
}

// Detect identifies the type of r using the hints in md. r may be nil when only
// hints are available.
//
// Detect reads at most the lookahead window. Readers that can peek, such as
// *bufio.Reader, are only peeked and never consumed, so their window is capped
// at the reader's buffer size. Wrap them with a buffer of at least the
// lookahead size, or use DetectReader, to see the whole window.
func (d *Detector) Detect(r io.Reader, md Metadata) (MediaType, error) {
	return d.DetectWithContext(context.Background(), r, md)
}

// DetectWithContext is Detect with a context checked before reading
func (d *Detector) DetectWithContext(ctx context.Context, r io.Reader, md Metadata) (MediaType, error) {
	v, err := d.Inspect(ctx, r, md)
	if err != nil {
		return MediaType{}, err
	}
	return v.Type, nil
}

// Inspect is DetectWithContext returning the full verdict
func (d *Detector) Inspect(ctx context.Context, r io.Reader, md Metadata) (Verdict, error) {
	select {
	case <-ctx.Done():
		return Verdict{}, ctx.Err()
	default:
	}

	if r == nil {
		return d.detect(ctx, nil, false, md), nil
	}
	prefix, capped, err := readPrefix(r, d.lookahead)
	if err != nil {
		return Verdict{}, err
	}
	if capped {
		d.logger.DebugContext(ctx, "peek window capped by reader buffer",
			"window", len(prefix),
			"lookahead", d.lookahead)
	}
	return d.detect(ctx, prefix, true, md), nil
}

// DetectBytes identifies in-memory content. A nil slice means no content is
// available, while an empty non-nil slice is an empty stream.
func (d *Detector) DetectBytes(data []byte, md Metadata) MediaType {
	return d.InspectBytes(data, md).Type
}

// InspectBytes is DetectBytes returning the full verdict
func (d *Detector) InspectBytes(data []byte, md Metadata) Verdict {
	if len(data) > d.lookahead {
		data = data[:d.lookahead]
	}
	return d.detect(context.Background(), data, data != nil, md)
}

// DetectReader detects the type of a one-shot stream and returns a reader that
// yields the complete stream, including the bytes consumed for detection.
// Unlike Detect it always reads the full lookahead window.
func (d *Detector) DetectReader(r io.Reader, md Metadata) (MediaType, io.Reader, error) {
	v, replay, err := d.InspectReader(r, md)
	if err != nil {
		return MediaType{}, nil, err
	}
	return v.Type, replay, nil
}

// InspectReader is DetectReader returning the full verdict
func (d *Detector) InspectReader(r io.Reader, md Metadata) (Verdict, io.Reader, error) {
	prefix, err := consumePrefix(r, d.lookahead)
	if err != nil {
		return Verdict{}, nil, err
	}
	v := d.detect(context.Background(), prefix, true, md)
	return v, io.MultiReader(bytes.NewReader(prefix), r), nil
}

// Annotate detects the type and records it in md under ContentTypeKey
func (d *Detector) Annotate(r io.Reader, md Metadata) (MediaType, error) {
	t, err := d.Detect(r, md)
	if err != nil {
		return MediaType{}, err
	}
	if md != nil {
		md.Set(ContentTypeKey, t.String())
	}
	return t, nil
}

// ForName returns the entry registered under name, resolving aliases first
func (d *Detector) ForName(name string) (*TypeEntry, error) {
	t, err := Parse(name)
	if err != nil {
		return nil, err
	}
	if entry, ok := d.entries[d.registry.Normalize(t)]; ok {
		return entry, nil
	}
	return nil, &TypeError{Op: "lookup", Type: name, Err: ErrNotFound}
}

// Registered returns the registered form of name: the exact type when it is
// registered, otherwise its base type. Unknown parameters are dropped.
func (d *Detector) Registered(name string) (MediaType, error) {
	t, err := Parse(name)
	if err != nil {
		return MediaType{}, err
	}
	if registered, ok := d.registered(t); ok {
		return registered, nil
	}
	return MediaType{}, &TypeError{Op: "lookup", Type: name, Err: ErrNotFound}
}

// Types returns every registered type, sorted
func (d *Detector) Types() []MediaType { return d.registry.Types() }

// Registry returns the frozen type hierarchy
func (d *Detector) Registry() *Registry { return d.registry }

// Globs returns the filename matcher
func (d *Detector) Globs() *GlobMatcher { return d.globs }

// MatchName returns the glob matches for a name hint. The hint is reduced to
// its filename first, and script names behind http(s) locators match nothing.
func (d *Detector) MatchName(name string) []GlobMatch {
	filename := FileName(name)
	if d.isScriptLocator(name, filename) {
		return nil
	}
	return d.globs.Match(filename)
}

func (d *Detector) registered(t MediaType) (MediaType, bool) {
	t = d.registry.Normalize(t)
	if _, ok := d.entries[t]; ok {
		return t, true
	}
	base := d.registry.Normalize(t.BaseType())
	if _, ok := d.entries[base]; ok {
		return base, true
	}
	return MediaType{}, false
}

func (d *Detector) isScriptLocator(name, filename string) bool {
	if len(d.scripts) == 0 || !strings.Contains(name, "://") {
		return false
	}
	u, err := url.Parse(name)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}
	_, ok := d.scripts[Extension(filename)]
	return ok
}

func (d *Detector) readHints(md Metadata) hints {
	var h hints
	if declared := md.ContentType(); declared != "" {
		if t, err := Parse(declared); err == nil {
			h.declared, h.hasDeclared = d.registered(t)
		}
	}
	if name := md.ResourceName(); name != "" {
		h.globs = d.MatchName(name)
	}
	return h
}

func (d *Detector) detect(ctx context.Context, prefix []byte, hasStream bool, md Metadata) Verdict {
	v := d.resolve(prefix, hasStream, md)
	if d.logger.Enabled(ctx, slog.LevelDebug) {
		d.logger.DebugContext(ctx, "media type detected",
			"type", v.Type.String(),
			"content", v.Content.String(),
			"source", v.Source,
			"prefix", len(prefix))
	}
	return v
}

// resolve applies the evidence precedence and reports which source decided
func (d *Detector) resolve(prefix []byte, hasStream bool, md Metadata) Verdict {
	h := d.readHints(md)

	// An empty or missing stream says nothing about the content
	if !hasStream || len(prefix) == 0 {
		return d.fromHints(h)
	}

	content, source, ok := d.detectContent(prefix, h)
	if !ok {
		return d.fromHints(h)
	}
	if d.opts.DeclaredTypePolicy == PolicyDeclared && h.hasDeclared {
		return Verdict{
			Type:      h.declared,
			Content:   content,
			Source:    "declared",
			confirmed: d.registry.IsSpecializationOf(h.declared, content),
		}
	}

	// Hints may only narrow the content verdict
	v := Verdict{Type: content, Content: content, Source: source, confirmed: true}
	if h.hasDeclared && h.declared != content && d.registry.IsSpecializationOf(h.declared, content) {
		v.Type, v.Source = h.declared, "declared"
		return v
	}
	for _, g := range h.globs {
		if g.Type != content && d.registry.IsSpecializationOf(g.Type, content) {
			v.Type, v.Source = g.Type, "name"
			return v
		}
	}
	return v
}

func (d *Detector) fromHints(h hints) Verdict {
	if h.hasDeclared {
		return Verdict{Type: h.declared, Source: "declared"}
	}
	if len(h.globs) > 0 {
		return Verdict{Type: h.globs[0].Type, Source: "name"}
	}
	return Verdict{Type: OctetStream, Source: "fallback"}
}

// detectContent runs the magics, falling back to BOM decoding and the plain
// text heuristic. ok is false when the bytes gave no usable evidence.
func (d *Detector) detectContent(prefix []byte, h hints) (MediaType, string, bool) {
	buf := prefix
	source := "magic"
	candidates := d.matchMagics(buf)
	if len(candidates) == 0 {
		text, bom := decodeBOM(prefix)
		switch {
		case bom:
			buf = text
			source = "bom"
			if candidates = d.matchMagics(buf); len(candidates) == 0 {
				return TextPlain, source, true
			}
		case looksLikeText(prefix):
			return TextPlain, "text", true
		default:
			return MediaType{}, "", false
		}
	}

	t := d.breakTie(candidates, h)
	if refined, ok := d.refine(t, buf); ok {
		return refined, "container", true
	}
	return t, source, true
}

// matchMagics returns the types whose magics match at the highest matching
// priority. d.magics is sorted by priority, so the scan stops at the first
// magic below that priority.
func (d *Detector) matchMagics(buf []byte) []MediaType {
	var (
		matched []MediaType
		best    int
	)
	for _, m := range d.magics {
		if len(matched) > 0 && m.Priority < best {
			break
		}
		if !m.Clause.Test(buf) {
			continue
		}
		best = m.Priority
		if !containsType(matched, m.Type) {
			matched = append(matched, m.Type)
		}
	}
	return matched
}

// breakTie picks one of several equally prioritized candidates: the ones
// consistent with the filename first, then the most specific, then the one
// whose canonical string sorts last.
func (d *Detector) breakTie(candidates []MediaType, h hints) MediaType {
	if len(candidates) == 1 {
		return candidates[0]
	}

	var consistent []MediaType
	for _, c := range candidates {
		for _, g := range h.globs {
			if d.registry.IsSpecializationOf(g.Type, c) {
				consistent = append(consistent, c)
				break
			}
		}
	}
	if len(consistent) > 0 {
		candidates = consistent
	}

	specific := make([]MediaType, 0, len(candidates))
	for _, c := range candidates {
		general := false
		for _, other := range candidates {
			if other != c && d.registry.IsSpecializationOf(other, c) {
				general = true
				break
			}
		}
		if !general {
			specific = append(specific, c)
		}
	}
	if len(specific) > 0 {
		candidates = specific
	}

	sortMediaTypes(candidates)
	return candidates[len(candidates)-1]
}

// refine narrows zip and XML verdicts by looking inside the container
func (d *Detector) refine(t MediaType, buf []byte) (MediaType, bool) {
	var (
		refined MediaType
		ok      bool
	)
	switch {
	case d.registry.IsSpecializationOf(t, ApplicationZip):
		refined, ok = d.refineZip(buf)
	case d.registry.IsSpecializationOf(t, ApplicationXML):
		refined, ok = d.refineXML(buf)
	}
	if !ok || refined == t || !d.registry.IsSpecializationOf(refined, t) {
		return MediaType{}, false
	}
	return refined, true
}

func containsType(types []MediaType, t MediaType) bool {
	for _, existing := range types {
		if existing == t {
			return true
		}
	}
	return false
}
