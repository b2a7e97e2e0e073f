// Package config loads the YAML configuration shared by every command and
// builds the process logger.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/x956606865/reiChan-sub000/internal/batch"
	"github.com/x956606865/reiChan-sub000/internal/core"
	"github.com/x956606865/reiChan-sub000/internal/edgetex"
)

// ErrUnsupportedMode is returned for an accelerator or log format the
// program does not know.
var ErrUnsupportedMode = errors.New("unsupported mode")

// Config is the whole configuration file.
type Config struct {
	Accelerator string          `yaml:"accelerator"`
	Edge        edgetex.Config  `yaml:"edge"`
	Thresholds  core.Thresholds `yaml:"thresholds"`
	Batch       BatchConfig     `yaml:"batch"`
	Logging     LoggingConfig   `yaml:"logging"`
}

// BatchConfig tunes the batch worker pool.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// LoggingConfig selects the log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Accelerator: "auto",
		Edge:        edgetex.DefaultConfig(),
		Thresholds:  core.DefaultThresholds(),
		Batch:       BatchConfig{Workers: batch.DefaultWorkerCap},
		Logging:     LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Edge.Validate(); err != nil {
		return fmt.Errorf("edge: %w", err)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers must not be negative, got %d", c.Batch.Workers)
	}
	if _, err := c.Directive(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("%w: log format %q", ErrUnsupportedMode, c.Logging.Format)
	}
	return nil
}

// Directive resolves the accelerator. EDGE_TEXTURE_ACCELERATOR wins over
// the file.
func (c Config) Directive() (edgetex.Directive, error) {
	value := c.Accelerator
	if env, ok := os.LookupEnv(edgetex.EnvAccelerator); ok && env != "" {
		value = env
	}
	d, err := edgetex.ParseDirective(value)
	if err != nil {
		return edgetex.Auto, fmt.Errorf("%w: accelerator %q", ErrUnsupportedMode, value)
	}
	return d, nil
}
