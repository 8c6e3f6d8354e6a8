package mimekit

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	zipLocalHeaderLen  = 30
	zipDataDescriptor  = 0x0008
	zipMethodStored    = 0
	maxZipEntries      = 64
	maxMimetypeEntry   = 256
	maxXMLPrologTokens = 64
)

var zipLocalHeaderSig = []byte("PK\x03\x04")

type containerRule struct {
	typ     MediaType
	entries []string
}

func (r containerRule) matches(names []string) bool {
	for _, marker := range r.entries {
		if !hasEntry(names, marker) {
			return false
		}
	}
	return true
}

func hasEntry(names []string, marker string) bool {
	dir := strings.HasSuffix(marker, "/")
	for _, name := range names {
		if name == marker || (dir && strings.HasPrefix(name, marker)) {
			return true
		}
	}
	return false
}

type rootRule struct {
	typ  MediaType
	root RootElement
}

type zipEntry struct {
	name   string
	stored bool
	// data is the (possibly truncated) body of a stored entry
	data   []byte
}

// zipEntries walks the local file headers found in a zip prefix. The central
// directory lives at the end of the archive and is never available here, so
// entries are discovered front to back until the prefix runs out.
func zipEntries(buf []byte) []zipEntry {
	var entries []zipEntry
	off := 0
	for len(entries) < maxZipEntries && off+zipLocalHeaderLen <= len(buf) {
		if !bytes.Equal(buf[off:off+4], zipLocalHeaderSig) {
			break
		}
		flags := binary.LittleEndian.Uint16(buf[off+6:])
		method := binary.LittleEndian.Uint16(buf[off+8:])
		size := int(binary.LittleEndian.Uint32(buf[off+18:]))
		nameLen := int(binary.LittleEndian.Uint16(buf[off+26:]))
		extraLen := int(binary.LittleEndian.Uint16(buf[off+28:]))

		nameEnd := off + zipLocalHeaderLen + nameLen
		if nameEnd > len(buf) {
			break
		}
		entry := zipEntry{name: string(buf[off+zipLocalHeaderLen : nameEnd])}
		dataStart := nameEnd + extraLen
		sized := flags&zipDataDescriptor == 0
		if method == zipMethodStored && sized && dataStart <= len(buf) {
			entry.stored = true
			entry.data = buf[dataStart:min(len(buf), dataStart+size)]
		}
		entries = append(entries, entry)

		if dataStart >= len(buf) {
			break
		}
		if sized {
			off = dataStart + size
			continue
		}
		// sizes live in a trailing data descriptor; resync on the next header
		next := bytes.Index(buf[dataStart:], zipLocalHeaderSig)
		if next < 0 {
			break
		}
		off = dataStart + next
	}
	return entries
}

// refineZip looks for a more specific zip-derived type. A stored "mimetype"
// entry naming a registered type wins; otherwise the type with the most
// satisfied marker entries is chosen.
func (d *Detector) refineZip(buf []byte) (MediaType, bool) {
	entries := zipEntries(buf)
	if len(entries) == 0 {
		return MediaType{}, false
	}
	for _, e := range entries {
		if e.name != "mimetype" || !e.stored || len(e.data) > maxMimetypeEntry {
			continue
		}
		t, err := Parse(strings.TrimSpace(string(e.data)))
		if err != nil {
			continue
		}
		if registered, ok := d.registered(t); ok {
			return registered, true
		}
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	for _, rule := range d.containers {
		if rule.matches(names) {
			return rule.typ, true
		}
	}
	return MediaType{}, false
}

// refineXML maps the document's root element to a registered type
func (d *Detector) refineXML(buf []byte) (MediaType, bool) {
	if len(d.roots) == 0 {
		return MediaType{}, false
	}
	root, ok := xmlRoot(buf)
	if !ok {
		return MediaType{}, false
	}
	for _, rule := range d.roots {
		if rule.root.LocalName != root.LocalName {
			continue
		}
		if rule.root.Namespace == "" || rule.root.Namespace == root.Namespace {
			return rule.typ, true
		}
	}
	return MediaType{}, false
}

// xmlRoot returns the first start element of an XML prefix
func xmlRoot(buf []byte) (RootElement, bool) {
	data := buf
	transcoded := false
	if order, ok := utf16Order(buf); ok {
		decoded, _, err := transform.Bytes(unicode.UTF16(order, unicode.UseBOM).NewDecoder(), buf)
		if err != nil {
			return RootElement{}, false
		}
		data = decoded
		transcoded = true
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		if transcoded {
			return input, nil
		}
		enc, err := ianaindex.IANA.Encoding(label)
		if err != nil || enc == nil {
			return input, nil
		}
		return transform.NewReader(input, enc.NewDecoder()), nil
	}

	for i := 0; i < maxXMLPrologTokens; i++ {
		tok, err := dec.Token()
		if err != nil {
			return RootElement{}, false
		}
		if se, ok := tok.(xml.StartElement); ok {
			return RootElement{Namespace: se.Name.Space, LocalName: se.Name.Local}, true
		}
	}
	return RootElement{}, false
}

func utf16Order(b []byte) (unicode.Endianness, bool) {
	switch {
	case bytes.HasPrefix(b, utf16LEBOM), bytes.HasPrefix(b, []byte{'<', 0}):
		return unicode.LittleEndian, true
	case bytes.HasPrefix(b, utf16BEBOM), bytes.HasPrefix(b, []byte{0, '<'}):
		return unicode.BigEndian, true
	}
	return unicode.BigEndian, false
}
