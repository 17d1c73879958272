// Package config loads participant settings from YAML or HCL files. Command
// line flags are applied on top of the loaded values by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mj1618/winsync/internal/model"
	"github.com/mj1618/winsync/internal/platform"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds everything a participant needs to join a roster.
type Config struct {
	// Store is a store location: a directory, file://dir, s3://bucket/prefix
	// or "memory" for a store private to this process.
	Store        string
	Key          string
	PollInterval time.Duration
	Shape        model.Shape
	Drift        platform.Drift
	Bounds       *model.Shape
	FPS          int
	// Duration bounds how long join runs. Zero runs until interrupted.
	Duration    time.Duration
	Metadata    map[string]any
	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// DefaultStore is the directory shared by every process on the machine when
// no store is configured.
func DefaultStore() string {
	return filepath.Join(os.TempDir(), "winsync")
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Store:     DefaultStore(),
		Key:       "windows",
		Shape:     model.Shape{W: 800, H: 600},
		FPS:       60,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// fileConfig is the on-disk shape shared by both formats. Unset fields leave
// the defaults alone.
type fileConfig struct {
	Store        *string `yaml:"store"`
	Key          *string `yaml:"key"`
	PollInterval *string `yaml:"poll_interval"`
	Shape        *string `yaml:"shape"`
	Drift        *string `yaml:"drift"`
	Bounds       *string `yaml:"bounds"`
	FPS          *int    `yaml:"fps"`
	Duration     *string `yaml:"duration"`
	MetricsAddr  *string `yaml:"metrics_addr"`
	LogLevel     *string `yaml:"log_level"`
	LogFormat    *string `yaml:"log_format"`

	Metadata map[string]any `yaml:"metadata"`
}

// Load reads path on top of Default. The format is chosen by extension:
// .yaml/.yml or .hcl.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var fc *fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		fc, err = parseYAML(data)
	case ".hcl":
		fc, err = parseHCL(path, data)
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q (expected .yaml, .yml or .hcl)", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	cfg := Default()
	if err := cfg.apply(fc); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) apply(f *fileConfig) error {
	if f.Store != nil {
		c.Store = *f.Store
	}
	if f.Key != nil {
		c.Key = *f.Key
	}
	if f.PollInterval != nil {
		d, err := time.ParseDuration(*f.PollInterval)
		if err != nil {
			return fmt.Errorf("poll_interval: %w", err)
		}
		c.PollInterval = d
	}
	if f.Shape != nil {
		s, err := platform.ParseShape(*f.Shape)
		if err != nil {
			return err
		}
		c.Shape = s
	}
	if f.Drift != nil {
		d, err := platform.ParseDrift(*f.Drift)
		if err != nil {
			return err
		}
		c.Drift = d
	}
	if f.Bounds != nil {
		b, err := platform.ParseShape(*f.Bounds)
		if err != nil {
			return fmt.Errorf("bounds: %w", err)
		}
		c.Bounds = &b
	}
	if f.FPS != nil {
		c.FPS = *f.FPS
	}
	if f.Duration != nil {
		d, err := time.ParseDuration(*f.Duration)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		c.Duration = d
	}
	if f.MetricsAddr != nil {
		c.MetricsAddr = *f.MetricsAddr
	}
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	if f.LogFormat != nil {
		c.LogFormat = *f.LogFormat
	}
	if f.Metadata != nil {
		c.Metadata = f.Metadata
	}
	return nil
}

// Validate checks ranges.
func (c *Config) Validate() error {
	switch {
	case c.Key == "":
		return fmt.Errorf("%w: key must not be empty", ErrInvalid)
	case c.FPS < 1 || c.FPS > 240:
		return fmt.Errorf("%w: fps must be between 1 and 240, got %d", ErrInvalid, c.FPS)
	case c.PollInterval < 0:
		return fmt.Errorf("%w: poll_interval must not be negative", ErrInvalid)
	case c.Duration < 0:
		return fmt.Errorf("%w: duration must not be negative", ErrInvalid)
	case c.Shape.W < 0 || c.Shape.H < 0:
		return fmt.Errorf("%w: shape width and height must not be negative", ErrInvalid)
	}
	if c.Bounds != nil && (c.Bounds.W < c.Shape.W || c.Bounds.H < c.Shape.H) {
		return fmt.Errorf("%w: bounds %s cannot contain shape %s", ErrInvalid, c.Bounds, c.Shape)
	}
	return nil
}
