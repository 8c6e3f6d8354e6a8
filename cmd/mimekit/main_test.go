package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gobeaver/mimekit"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func TestDetectCommand(t *testing.T) {
	pdf := writeFile(t, "report.bin", []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"))
	png := writeFile(t, "image.dat", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{name: "single file", args: []string{"detect", pdf}, want: "application/pdf\n"},
		{name: "several files", args: []string{"detect", pdf, png}, want: pdf + ": application/pdf\n" + png + ": image/png\n"},
		{name: "stdin with name", stdin: "id,name\n1,beaver\n", args: []string{"detect", "--name", "animals.csv"}, want: "text/csv\n"},
		{name: "stdin dash", stdin: "plain words\n", args: []string{"detect", "-"}, want: "text/plain\n"},
		{name: "hints only", args: []string{"detect", "--hints-only", "--name", "photo.png", pdf}, want: "image/png\n"},
		{name: "declared type", stdin: "", args: []string{"detect", "--type", "text/xml"}, want: "application/xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := run(t, "", "detect", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("detect(missing file) succeeded")
	}
}

func TestInfoCommand(t *testing.T) {
	got, err := run(t, "", "info", "application/x-javascript")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"text/javascript", ".js, .mjs", "application/x-javascript", "text/plain > application/octet-stream"} {
		if !strings.Contains(got, want) {
			t.Errorf("info output missing %q:\n%s", want, got)
		}
	}

	_, err = run(t, "", "info", "x-unknown/thing")
	if !mimekit.IsNotFound(err) {
		t.Errorf("info(unknown) error = %v, want not found", err)
	}
}

func TestTypesAndMatchCommands(t *testing.T) {
	got, err := run(t, "", "types")
	if err != nil {
		t.Fatalf("types error = %v", err)
	}
	if !strings.Contains(got, "\nimage/png\n") || !strings.HasPrefix(got, "application/") {
		t.Errorf("types output = %q", got)
	}

	got, err = run(t, "", "match", "photo.JPG", "README.zzz")
	if err != nil {
		t.Fatalf("match error = %v", err)
	}
	if !strings.Contains(got, "photo.JPG: image/jpeg") || !strings.Contains(got, "README.zzz: no match") {
		t.Errorf("match output = %q", got)
	}
}

func TestValidateCommand(t *testing.T) {
	png := writeFile(t, "photo.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	pdf := writeFile(t, "scan.png", []byte("%PDF-1.7\n"))

	got, err := run(t, "", "validate", "--accept", "image/*", png)
	if err != nil {
		t.Fatalf("validate error = %v\n%s", err, got)
	}
	if !strings.Contains(got, "image/png ok") {
		t.Errorf("validate output = %q", got)
	}

	got, err = run(t, "", "validate", "--accept", "image/*", png, pdf)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("validate error = %v, want one failure", err)
	}
	if !strings.Contains(got, "application/pdf is not accepted") {
		t.Errorf("validate output = %q", got)
	}
}

func TestCustomDefinitionsFlag(t *testing.T) {
	defs := writeFile(t, "hello.yaml", []byte(`
types:
  - name: application/x-hello
    magics:
      - matches:
          - {offset: "0", value: 'Hello'}
`))
	got, err := run(t, "Hello there", "--definitions", defs, "detect")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != "application/x-hello\n" {
		t.Errorf("output = %q", got)
	}

	if _, err := run(t, "", "--policy", "filename", "types"); err == nil {
		t.Errorf("invalid policy accepted")
	}
}
