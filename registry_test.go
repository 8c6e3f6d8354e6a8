package mimekit

import (
	"reflect"
	"testing"
)

func newTestDetector(t testing.TB, defs ...Definition) *Detector {
	t.Helper()
	b := NewBuilder()
	if err := b.Add(defs...); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	d, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return d
}

func newDefaultDetector(t testing.TB, opts ...Option) *Detector {
	t.Helper()
	d, err := NewDefault(opts...)
	if err != nil {
		t.Fatalf("NewDefault() error = %v", err)
	}
	return d
}

func typeStrings(types []MediaType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}

func TestIsSpecializationOf(t *testing.T) {
	reg := newDefaultDetector(t).Registry()

	tests := []struct {
		a, b string
		want bool
	}{
		{"text/plain", "text/plain", true},
		{"text/something; charset=UTF-8", "text/something", true},
		{"text/something; charset=UTF-8", "text/plain", true},
		{"text/something", "text/plain", true},
		{"text/something", "application/octet-stream", true},
		{"application/something+xml", "application/xml", true},
		{"application/something+xml", "text/plain", true},
		{"text/something+xml", "application/xml", true},
		{"application/something+zip", "application/zip", true},
		{"application/xml", "text/plain", true},
		{"text/xml", "text/plain", true},
		{"application/json", "text/plain", true},
		{"application/vnd.apple.iwork", "application/zip", true},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip", true},
		{"application/msword", "application/x-tika-msoffice", true},
		{"image/png", "application/octet-stream", true},
		{"text/plain", "application/xml", false},
		{"application/zip", "application/x-tika-ooxml", false},
		{"image/png", "text/plain", false},
		{"application/octet-stream", "text/plain", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+" <: "+tt.b, func(t *testing.T) {
			got := reg.IsSpecializationOf(MustParse(tt.a), MustParse(tt.b))
			if got != tt.want {
				t.Errorf("IsSpecializationOf(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestEveryTypeReachesRoot(t *testing.T) {
	d := newDefaultDetector(t)
	reg := d.Registry()
	for _, typ := range d.Types() {
		if !reg.IsSpecializationOf(typ, OctetStream) {
			t.Errorf("%s does not specialize %s", typ, OctetStream)
		}
	}
}

func TestSupertype(t *testing.T) {
	reg := newDefaultDetector(t).Registry()

	tests := []struct {
		typ  string
		want string
	}{
		{"application/x-berkeley-db; format=btree; version=4", "application/x-berkeley-db; format=btree"},
		{"application/x-berkeley-db; format=btree", "application/x-berkeley-db"},
		{"application/x-berkeley-db; format=btree; version=99", "application/x-berkeley-db"},
		{"application/x-berkeley-db", "application/octet-stream"},
		{"text/something; charset=UTF-8", "text/something"},
		{"text/something", "text/plain"},
		{"text/plain", "application/octet-stream"},
		{"application/something+xml", "application/xml"},
		{"text/something+xml", "application/xml"},
		{"application/something+zip", "application/zip"},
		{"text/xml", "text/plain"},
		{"application/json", "text/javascript"},
		{"application/vnd.ms-powerpoint", "application/x-tika-msoffice"},
		{"image/png", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got, ok := reg.Supertype(MustParse(tt.typ))
			if !ok {
				t.Fatalf("Supertype(%s) reported root", tt.typ)
			}
			if got.String() != tt.want {
				t.Errorf("Supertype(%s) = %s, want %s", tt.typ, got, tt.want)
			}
		})
	}

	if got, ok := reg.Supertype(OctetStream); ok {
		t.Errorf("Supertype(root) = %s, want none", got)
	}
}

func TestChildTypes(t *testing.T) {
	reg := newDefaultDetector(t).Registry()

	got := typeStrings(reg.ChildTypes(MustParse("application/x-berkeley-db; format=btree")))
	want := []string{
		"application/x-berkeley-db; format=btree; version=2",
		"application/x-berkeley-db; format=btree; version=3",
		"application/x-berkeley-db; format=btree; version=4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ChildTypes(btree) = %v, want %v", got, want)
	}

	office := typeStrings(reg.ChildTypes(MustParse("application/x-tika-msoffice")))
	for _, name := range []string{"application/msword", "application/vnd.ms-excel", "application/vnd.ms-powerpoint"} {
		if !containsString(office, name) {
			t.Errorf("ChildTypes(x-tika-msoffice) = %v, missing %s", office, name)
		}
	}

	xmlChildren := typeStrings(reg.ChildTypes(ApplicationXML))
	for _, name := range []string{"image/svg+xml", "application/xslt+xml", "application/rdf+xml"} {
		if !containsString(xmlChildren, name) {
			t.Errorf("ChildTypes(application/xml) = %v, missing %s", xmlChildren, name)
		}
	}
	if containsString(xmlChildren, "text/plain") {
		t.Errorf("ChildTypes(application/xml) contains its own parent")
	}
}

func TestAliases(t *testing.T) {
	reg := newDefaultDetector(t).Registry()

	got := typeStrings(reg.Aliases(MustParse("text/javascript")))
	want := []string{"application/javascript", "application/x-javascript"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Aliases(text/javascript) = %v, want %v", got, want)
	}

	if aliases := reg.Aliases(MustParse("application/x-javascript")); !reflect.DeepEqual(typeStrings(aliases), want) {
		t.Errorf("Aliases via alias = %v, want %v", typeStrings(aliases), want)
	}
	if aliases := reg.Aliases(MustParse("image/png")); len(aliases) != 0 {
		t.Errorf("Aliases(image/png) = %v, want none", aliases)
	}
}

func TestNormalize(t *testing.T) {
	reg := newDefaultDetector(t).Registry()

	tests := []struct {
		in   string
		want string
	}{
		{"text/xml", "application/xml"},
		{"application/x-javascript", "text/javascript"},
		{"text/xml; charset=UTF-8", "application/xml; charset=UTF-8"},
		{"application/xml", "application/xml"},
		{"unknown/type", "unknown/type"},
	}
	for _, tt := range tests {
		if got := reg.Normalize(MustParse(tt.in)); got.String() != tt.want {
			t.Errorf("Normalize(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if !reg.IsRegistered(MustParse("text/xml")) {
		t.Errorf("IsRegistered(text/xml) = false")
	}
	if reg.IsRegistered(MustParse("unknown/type")) {
		t.Errorf("IsRegistered(unknown/type) = true")
	}
}

func TestRegistryDefinitionErrors(t *testing.T) {
	tests := []struct {
		name string
		defs []Definition
	}{
		{
			name: "parent cycle",
			defs: []Definition{
				{Name: "x/a", Parent: "x/b"},
				{Name: "x/b", Parent: "x/a"},
			},
		},
		{
			name: "alias declared twice",
			defs: []Definition{
				{Name: "x/a", Aliases: []string{"x/alias"}},
				{Name: "x/b", Aliases: []string{"x/alias"}},
			},
		},
		{
			name: "alias is also a type",
			defs: []Definition{
				{Name: "x/a", Aliases: []string{"x/b"}},
				{Name: "x/b"},
			},
		},
		{
			name: "two parents",
			defs: []Definition{
				{Name: "x/a", Parent: "x/b"},
				{Name: "x/a", Parent: "x/c"},
			},
		},
		{
			name: "self parent",
			defs: []Definition{{Name: "x/a", Parent: "x/a"}},
		},
		{
			name: "bad name",
			defs: []Definition{{Name: "nonsense"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			err := b.Add(tt.defs...)
			if err == nil {
				_, err = b.Build()
			}
			if err == nil {
				t.Fatalf("expected a definition error")
			}
			if !IsDefinition(err) {
				t.Errorf("error = %v, want definition error", err)
			}
		})
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
