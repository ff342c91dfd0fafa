// Package config loads the formphoto-mcp YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/formphoto-mcp/internal/pipeline"
)

// EnvPath names the environment variable consulted when no --config flag is
// given.
const EnvPath = "FORMPHOTO_CONFIG"

// DefaultDebounceMs is the hot-folder settle time when none is configured.
const DefaultDebounceMs = 500

// Config represents the application configuration
type Config struct {
	Defaults DefaultsConfig `yaml:"defaults"`
	Watch    WatchConfig    `yaml:"watch"`
}

// DefaultsConfig holds the output spec applied when a request (or a file
// dropped into the hot folder) does not say otherwise.
type DefaultsConfig struct {
	TargetWidth       int    `yaml:"target_width"`
	TargetHeight      int    `yaml:"target_height"`
	MinBytes          int    `yaml:"min_bytes"`
	MaxBytes          int    `yaml:"max_bytes"`
	QualityPreference int    `yaml:"quality_preference"`
	AddDateBand       bool   `yaml:"add_date_band"`
	InkColor          string `yaml:"ink_color"`
}

// WatchConfig configures the hot folder.
type WatchConfig struct {
	InputDir   string `yaml:"input_dir"`
	OutputDir  string `yaml:"output_dir"`
	DebounceMs int    `yaml:"debounce_ms"`
}

// Default returns the built-in configuration: a 200x230 exam photo between
// 10KB and 50KB with a date band.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			TargetWidth:       200,
			TargetHeight:      230,
			MinBytes:          10 * 1024,
			MaxBytes:          50 * 1024,
			QualityPreference: pipeline.DefaultQualityPreference,
			AddDateBand:       true,
		},
		Watch: WatchConfig{
			DebounceMs: DefaultDebounceMs,
		},
	}
}

// Load reads and parses the configuration file. Fields absent from the file
// keep their Default values. An empty path yields Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Resolve picks the config path from the flag value or FORMPHOTO_CONFIG and
// loads it. A path from the environment that does not exist falls back to
// Default; an explicit flag path must exist.
func Resolve(flagPath string) (*Config, error) {
	if flagPath != "" {
		return Load(flagPath)
	}
	envPath := os.Getenv(EnvPath)
	if envPath == "" {
		return Default(), nil
	}
	cfg, err := Load(envPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks the defaults form a usable output spec.
func (c *Config) Validate() error {
	spec, err := c.Defaults.OutputSpec()
	if err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if err := spec.Validate(nil); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if c.Watch.DebounceMs < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative")
	}
	return nil
}

// ValidateWatch checks the fields the hot folder needs.
func (c *Config) ValidateWatch() error {
	if c.Watch.InputDir == "" {
		return fmt.Errorf("watch.input_dir is required")
	}
	if c.Watch.OutputDir == "" {
		return fmt.Errorf("watch.output_dir is required")
	}
	if c.Watch.InputDir == c.Watch.OutputDir {
		return fmt.Errorf("watch.output_dir must differ from watch.input_dir")
	}
	return nil
}

// OutputSpec converts the defaults into a pipeline spec.
func (d DefaultsConfig) OutputSpec() (pipeline.OutputSpec, error) {
	ink, err := pipeline.ParseInkColor(d.InkColor)
	if err != nil {
		return pipeline.OutputSpec{}, err
	}
	return pipeline.OutputSpec{
		TargetWidth:       d.TargetWidth,
		TargetHeight:      d.TargetHeight,
		MinBytes:          d.MinBytes,
		MaxBytes:          d.MaxBytes,
		QualityPreference: d.QualityPreference,
		AddDateBand:       d.AddDateBand,
		InkColor:          ink,
	}, nil
}
