package mimekit

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gobeaver/beaver-kit/config"
)

type Config struct {
	// Number of leading bytes examined by content magics
	LookaheadSize int `env:"MIMEKIT_LOOKAHEAD_SIZE,default:65536"`

	// Winner when a declared type conflicts with content (content, declared)
	DeclaredTypePolicy string `env:"MIMEKIT_DECLARED_TYPE_POLICY,default:content"`

	// Server-side script extensions ignored for http(s) names; comma-separated,
	// empty keeps the built-in list
	ScriptExtensions string `env:"MIMEKIT_SCRIPT_EXTENSIONS"`

	// Extra YAML definition files loaded after the built-in set; comma-separated
	CustomDefinitions string `env:"MIMEKIT_CUSTOM_DEFINITIONS"`

	// Logging (debug, info, warn, error) and (text, json)
	LogLevel  string `env:"MIMEKIT_LOG_LEVEL,default:warn"`
	LogFormat string `env:"MIMEKIT_LOG_FORMAT,default:text"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateConfig checks configuration validity
func validateConfig(cfg *Config) error {
	if cfg.LookaheadSize < 0 {
		return fmt.Errorf("lookahead size must not be negative: %d", cfg.LookaheadSize)
	}
	switch HintPolicy(strings.ToLower(cfg.DeclaredTypePolicy)) {
	case "", PolicyContent, PolicyDeclared:
	default:
		return fmt.Errorf("unknown declared type policy: %s", cfg.DeclaredTypePolicy)
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", cfg.LogFormat)
	}
	return nil
}

// options converts a validated config into detector options
func (cfg *Config) options(w io.Writer) []Option {
	opts := []Option{WithLogger(newLogger(w, cfg.LogLevel, cfg.LogFormat))}
	if cfg.LookaheadSize > 0 {
		opts = append(opts, WithLookaheadSize(cfg.LookaheadSize))
	}
	if cfg.DeclaredTypePolicy != "" {
		opts = append(opts, WithDeclaredTypePolicy(HintPolicy(strings.ToLower(cfg.DeclaredTypePolicy))))
	}
	if exts := splitList(cfg.ScriptExtensions); len(exts) > 0 {
		opts = append(opts, WithScriptExtensions(exts...))
	}
	return opts
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, _ := parseLogLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
