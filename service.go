package mimekit

import (
	"fmt"
	"io"
	"sync"

	"github.com/gobeaver/beaver-kit/config"
)

// Global instance
var (
	defaultDetector *Detector
	defaultOnce     sync.Once
	defaultErr      error
)

// ConfigBuilder creates detectors from environment variables with a custom prefix
type ConfigBuilder struct {
	prefix string
}

// WithPrefix creates a new ConfigBuilder with the specified prefix
func WithPrefix(prefix string) *ConfigBuilder {
	return &ConfigBuilder{prefix: prefix}
}

// Init initializes the global Detector using the builder's prefix
func (b *ConfigBuilder) Init() error {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return err
	}
	return Init(cfg)
}

// New creates a new Detector using the builder's prefix
func (b *ConfigBuilder) New() (*Detector, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return New(cfg)
}

// Init initializes the global detector. With no config, or a nil one, the
// config is read from the environment.
func Init(configs ...*Config) error {
	defaultOnce.Do(func() {
		var cfg *Config
		if len(configs) > 0 && configs[0] != nil {
			cfg = configs[0]
		} else {
			cfg, defaultErr = GetConfig()
			if defaultErr != nil {
				return
			}
		}

		defaultDetector, defaultErr = New(cfg)
	})

	return defaultErr
}

// New creates a detector with the built-in definitions plus any custom
// definition files named in cfg. A nil cfg is read from the environment.
func New(cfg *Config) (*Detector, error) {
	return newDetector(cfg, nil)
}

func newDetector(cfg *Config, logOutput io.Writer) (*Detector, error) {
	if cfg == nil {
		var err error
		if cfg, err = GetConfig(); err != nil {
			return nil, err
		}
	}
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	b := NewBuilder(cfg.options(logOutput)...)
	if err := b.AddDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load built-in definitions: %w", err)
	}
	for _, path := range splitList(cfg.CustomDefinitions) {
		if err := b.LoadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load definitions from %s: %w", path, err)
		}
	}
	return b.Build()
}

// NewDefault builds a detector from the built-in definitions only
func NewDefault(opts ...Option) (*Detector, error) {
	b := NewBuilder(opts...)
	if err := b.AddDefaults(); err != nil {
		return nil, err
	}
	return b.Build()
}

// Default returns the global instance, initializing if needed with error handling
func Default() (*Detector, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return defaultDetector, nil
}

// Reset clears the global instance (for testing)
func Reset() {
	defaultDetector = nil
	defaultOnce = sync.Once{}
	defaultErr = nil
}

// Detect runs the global detector
func Detect(r io.Reader, md Metadata) (MediaType, error) {
	d, err := Default()
	if err != nil {
		return MediaType{}, err
	}
	return d.Detect(r, md)
}

// ForName looks a type up in the global detector
func ForName(name string) (*TypeEntry, error) {
	d, err := Default()
	if err != nil {
		return nil, err
	}
	return d.ForName(name)
}
