package mimekit

import (
	"io"
	"log/slog"
	"strings"
)

// DefaultLookaheadSize is the number of leading bytes read for content detection
const DefaultLookaheadSize = 64 * 1024

// minLookaheadSize keeps the text and container probes meaningful
const minLookaheadSize = 8 * 1024

// HintPolicy decides between a declared type and a conflicting content verdict
type HintPolicy string

const (
	// PolicyContent lets magic evidence from the bytes override a declared type
	PolicyContent HintPolicy = "content"

	// PolicyDeclared trusts a registered declared type over content
	PolicyDeclared HintPolicy = "declared"
)

// DefaultScriptExtensions are server-side script suffixes whose names say
// nothing about the content served over HTTP
var DefaultScriptExtensions = []string{
	".php", ".php3", ".php4", ".php5", ".phtml",
	".cgi", ".pl",
	".jsp", ".jspx",
	".asp", ".aspx",
	".cfm",
}

// Option represents a detector configuration option
type Option func(*Options)

// Options contains the tunables of a Detector
type Options struct {
	// LookaheadSize caps the stream prefix examined by magics. Every clause sees
	// the same window.
	LookaheadSize int

	// DeclaredTypePolicy resolves a declared type that conflicts with content
	DeclaredTypePolicy HintPolicy

	// ScriptExtensions are ignored as filename evidence for http(s) locators
	ScriptExtensions []string

	// Logger receives load and detection diagnostics
	Logger *slog.Logger
}

func defaultOptions() Options {
	return Options{
		LookaheadSize:      DefaultLookaheadSize,
		DeclaredTypePolicy: PolicyContent,
		ScriptExtensions:   DefaultScriptExtensions,
		Logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithLookaheadSize sets the stream prefix size used for magic tests
func WithLookaheadSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.LookaheadSize = max(n, minLookaheadSize)
		}
	}
}

// WithDeclaredTypePolicy sets how a declared type competes with content
func WithDeclaredTypePolicy(p HintPolicy) Option {
	return func(o *Options) {
		o.DeclaredTypePolicy = p
	}
}

// WithScriptExtensions replaces the server-side script extension list
func WithScriptExtensions(exts ...string) Option {
	return func(o *Options) {
		o.ScriptExtensions = normalizeExtensions(exts)
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		o.Logger = logger
	}
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
