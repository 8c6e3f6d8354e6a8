package mimekit

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"
)

// zipFile is one local entry written by storedZip
type zipFile struct {
	name       string
	data       string
	deflated   bool
	descriptor bool
}

// storedZip lays out local file headers the way archivers do, without a
// central directory since detection never sees one.
func storedZip(files ...zipFile) []byte {
	var buf bytes.Buffer
	for _, f := range files {
		var flags, method uint16
		if f.deflated {
			method = 8
		}
		size := uint32(len(f.data))
		if f.descriptor {
			flags |= zipDataDescriptor
			size = 0
		}
		buf.WriteString("PK\x03\x04")
		binary.Write(&buf, binary.LittleEndian, uint16(20))
		binary.Write(&buf, binary.LittleEndian, flags)
		binary.Write(&buf, binary.LittleEndian, method)
		binary.Write(&buf, binary.LittleEndian, uint32(0)) // time, date
		binary.Write(&buf, binary.LittleEndian, crc32.ChecksumIEEE([]byte(f.data)))
		binary.Write(&buf, binary.LittleEndian, size)
		binary.Write(&buf, binary.LittleEndian, size)
		binary.Write(&buf, binary.LittleEndian, uint16(len(f.name)))
		binary.Write(&buf, binary.LittleEndian, uint16(0))
		buf.WriteString(f.name)
		buf.WriteString(f.data)
		if f.descriptor {
			buf.WriteString("PK\x07\x08")
			binary.Write(&buf, binary.LittleEndian, crc32.ChecksumIEEE([]byte(f.data)))
			binary.Write(&buf, binary.LittleEndian, uint32(len(f.data)))
			binary.Write(&buf, binary.LittleEndian, uint32(len(f.data)))
		}
	}
	return buf.Bytes()
}

// writtenZip builds a complete archive with archive/zip
func writtenZip(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
		if _, err := f.Write([]byte("<content for " + name + ">")); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestZipEntries(t *testing.T) {
	data := storedZip(
		zipFile{name: "mimetype", data: "application/epub+zip"},
		zipFile{name: "META-INF/container.xml", data: "xxxxxxxx", deflated: true},
		zipFile{name: "OEBPS/content.opf", data: "yyyy", deflated: true, descriptor: true},
		zipFile{name: "OEBPS/toc.ncx", data: "zz"},
	)
	entries := zipEntries(data)
	if len(entries) != 4 {
		t.Fatalf("zipEntries() found %d entries, want 4", len(entries))
	}
	wantNames := []string{"mimetype", "META-INF/container.xml", "OEBPS/content.opf", "OEBPS/toc.ncx"}
	for i, e := range entries {
		if e.name != wantNames[i] {
			t.Errorf("entry %d = %s, want %s", i, e.name, wantNames[i])
		}
	}
	if !entries[0].stored || string(entries[0].data) != "application/epub+zip" {
		t.Errorf("mimetype entry = %+v", entries[0])
	}
	if entries[1].stored || entries[2].stored {
		t.Errorf("deflated entries reported as stored")
	}

	truncated := data[:40]
	if got := zipEntries(truncated); len(got) != 1 || got[0].name != "mimetype" || len(got[0].data) != 2 {
		t.Errorf("zipEntries(truncated) = %+v", got)
	}
	if got := zipEntries([]byte("PK\x03\x04short")); len(got) != 0 {
		t.Errorf("zipEntries(header fragment) = %+v", got)
	}
}

func TestDetectZipContainers(t *testing.T) {
	d := newDefaultDetector(t)

	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{
			name:    "docx",
			content: writtenZip(t, "[Content_Types].xml", "_rels/.rels", "word/document.xml"),
			want:    "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
		{
			name:    "xlsx",
			content: writtenZip(t, "[Content_Types].xml", "xl/workbook.xml"),
			want:    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		},
		{
			name:    "pptx",
			content: writtenZip(t, "[Content_Types].xml", "ppt/presentation.xml"),
			want:    "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		},
		{
			name:    "generic ooxml",
			content: writtenZip(t, "[Content_Types].xml", "custom/part.xml"),
			want:    "application/x-tika-ooxml",
		},
		{
			name:    "jar",
			content: writtenZip(t, "META-INF/MANIFEST.MF", "com/example/Main.class"),
			want:    "application/java-archive",
		},
		{
			name:    "apk",
			content: writtenZip(t, "AndroidManifest.xml", "classes.dex", "META-INF/MANIFEST.MF"),
			want:    "application/vnd.android.package-archive",
		},
		{
			name:    "keynote",
			content: writtenZip(t, "index.apxl", "thumbs/st0.tiff"),
			want:    "application/vnd.apple.keynote",
		},
		{
			name: "odt",
			content: storedZip(
				zipFile{name: "mimetype", data: "application/vnd.oasis.opendocument.text"},
				zipFile{name: "content.xml", data: "<x/>", deflated: true},
			),
			want: "application/vnd.oasis.opendocument.text",
		},
		{
			name:    "epub",
			content: storedZip(zipFile{name: "mimetype", data: "application/epub+zip"}),
			want:    "application/epub+zip",
		},
		{
			name:    "mimetype alias",
			content: storedZip(zipFile{name: "mimetype", data: "application/x-java-archive\n"}),
			want:    "application/java-archive",
		},
		{
			name: "unknown mimetype falls through to markers",
			content: storedZip(
				zipFile{name: "mimetype", data: "application/x-unknown"},
				zipFile{name: "META-INF/MANIFEST.MF", data: "Manifest-Version: 1.0\n"},
			),
			want: "application/java-archive",
		},
		{
			name:    "mimetype behind a data descriptor",
			content: storedZip(zipFile{name: "mimetype", data: "application/epub+zip", descriptor: true}),
			want:    "application/zip",
		},
		{
			name:    "plain zip",
			content: writtenZip(t, "readme.txt", "src/main.go"),
			want:    "application/zip",
		},
		{
			name:    "truncated header",
			content: []byte("PK\x03\x04\x14\x00"),
			want:    "application/zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.DetectBytes(tt.content, nil); got.String() != tt.want {
				t.Errorf("DetectBytes() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectZipNameHint(t *testing.T) {
	d := newDefaultDetector(t)
	plain := writtenZip(t, "readme.txt")

	if got := d.DetectBytes(plain, NewMetadata("report.docx", "")); got.String() != "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		t.Errorf("zip named .docx = %s", got)
	}
	if got := d.DetectBytes(plain, NewMetadata("archive.zipx", "")); got.String() != "application/zip" {
		t.Errorf("zip named .zipx = %s", got)
	}
	// container evidence is more specific than the declared zip type
	docx := writtenZip(t, "[Content_Types].xml", "word/document.xml")
	if got := d.DetectBytes(docx, NewMetadata("", "application/zip")); got.String() != "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		t.Errorf("docx declared as zip = %s", got)
	}
}

func TestDetectXMLRoots(t *testing.T) {
	d := newDefaultDetector(t)

	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{
			name:    "svg",
			content: []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg" width="10"/>`),
			want:    "image/svg+xml",
		},
		{
			name:    "svg without prolog",
			content: []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`),
			want:    "image/svg+xml",
		},
		{
			name:    "xslt",
			content: []byte(`<?xml version="1.0"?><xsl:stylesheet xmlns:xsl="http://www.w3.org/1999/XSL/Transform" version="1.0"/>`),
			want:    "application/xslt+xml",
		},
		{
			name:    "rdf",
			content: []byte("<?xml version=\"1.0\"?>\n<rdf:RDF xmlns:rdf=\"http://www.w3.org/1999/02/22-rdf-syntax-ns#\">\n<rdf:Desc"),
			want:    "application/rdf+xml",
		},
		{
			name:    "atom",
			content: []byte(`<?xml version="1.0" encoding="utf-8"?><feed xmlns="http://www.w3.org/2005/Atom"><title>x</title></feed>`),
			want:    "application/atom+xml",
		},
		{
			name:    "rss in latin1",
			content: []byte(`<?xml version="1.0" encoding="ISO-8859-1"?><rss version="2.0"><channel><title>caf` + "\xe9" + `</title></channel></rss>`),
			want:    "application/rss+xml",
		},
		{
			name:    "dita map with doctype",
			content: []byte(`<?xml version="1.0"?><!DOCTYPE map PUBLIC "-//OASIS//DTD DITA Map//EN" "map.dtd"><map title="x"/>`),
			want:    "application/dita+xml; format=map",
		},
		{
			name:    "dita topic by architecture namespace",
			content: []byte(`<?xml version="1.0"?><topic id="t" xmlns:ditaarch="http://dita.oasis-open.org/architecture/2005/" ditaarch:DITAArchVersion="1.3"/>`),
			want:    "application/dita+xml; format=topic",
		},
		{
			name:    "dita task doctype without prolog",
			content: []byte(`<!DOCTYPE task PUBLIC "-//OASIS//DTD DITA Task//EN" "task.dtd"><task id="t"/>`),
			want:    "application/dita+xml; format=task",
		},
		{
			name:    "map root alone is plain xml",
			content: []byte(`<?xml version="1.0"?><map/>`),
			want:    "application/xml",
		},
		{
			name:    "topic root alone is plain xml",
			content: []byte(`<?xml version="1.0"?><topic id="t"><title>x</title></topic>`),
			want:    "application/xml",
		},
		{
			name:    "wrong namespace",
			content: []byte(`<?xml version="1.0"?><feed xmlns="urn:other"/>`),
			want:    "application/xml",
		},
		{
			name:    "unknown root",
			content: []byte(`<?xml version="1.0"?><!-- note --><note/>`),
			want:    "application/xml",
		},
		{
			name:    "utf-16 svg",
			content: utf16LE(`<?xml version="1.0" encoding="UTF-16"?><svg xmlns="http://www.w3.org/2000/svg"/>`),
			want:    "image/svg+xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.DetectBytes(tt.content, nil); got.String() != tt.want {
				t.Errorf("DetectBytes() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestXMLRoot(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    RootElement
		ok      bool
	}{
		{name: "plain", content: `<a/>`, want: RootElement{LocalName: "a"}, ok: true},
		{name: "default namespace", content: `<a xmlns="urn:x"/>`, want: RootElement{Namespace: "urn:x", LocalName: "a"}, ok: true},
		{name: "prefixed", content: `<p:a xmlns:p="urn:y"><p:b/>`, want: RootElement{Namespace: "urn:y", LocalName: "a"}, ok: true},
		{name: "utf-8 bom", content: "\xEF\xBB\xBF<?xml version=\"1.0\"?><r/>", want: RootElement{LocalName: "r"}, ok: true},
		{name: "prolog only", content: `<?xml version="1.0"?><!-- nothing -->`, ok: false},
		{name: "not xml", content: "hello", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := xmlRoot([]byte(tt.content))
			if ok != tt.ok || got != tt.want {
				t.Errorf("xmlRoot() = %+v, %v, want %+v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}
