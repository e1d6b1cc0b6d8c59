// Package config loads driver settings from defaults, BLEHCI_*
// environment variables and an optional blehci.yaml, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfig reports an invalid or inconsistent configuration. Nothing
// is opened and no goroutine is started when it is returned.
var ErrConfig = errors.New("CONFIG")

// Config carries every tunable of the driver. Zero values are filled
// in by Default(); a Config that passes Validate is safe to open with.
type Config struct {
	// PortID is the OS identifier of the serial device, e.g.
	// /dev/ttyUSB0 or COM5.
	PortID string `yaml:"port_id"`

	// Baud is the serial line rate. The controller side must agree.
	Baud int `yaml:"baud"`

	// CommandTimeout bounds one wait for a command completion event.
	CommandTimeout time.Duration `yaml:"command_timeout"`

	// Retries is the number of identical re-sends after a completion
	// wait times out. Zero means a single attempt.
	Retries int `yaml:"retries"`

	// ReadTimeout is the OS-level serial read timeout the reader uses
	// to poll, so it can observe shutdown between frames.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// QueueDepth is the capacity of the event and data queues.
	QueueDepth int `yaml:"queue_depth"`

	// TraceDir enables JSONL frame tracing when non-empty.
	TraceDir string `yaml:"trace_dir"`

	// LogLevel is a zerolog level name (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Baud:           115200,
		CommandTimeout: time.Second,
		Retries:        0,
		ReadTimeout:    2 * time.Second,
		QueueDepth:     64,
		LogLevel:       "info",
	}
}

// Load merges Default() + env overrides (BLEHCI_*) + optional blehci.yaml.
func Load() (*Config, error) {
	cfg := Default()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if _, err := os.Stat("blehci.yaml"); err == nil {
		if err := loadFromFile("blehci.yaml", cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies BLEHCI_* environment variables to the config.
func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("BLEHCI_PORT"); val != "" {
		cfg.PortID = val
	}

	if val := os.Getenv("BLEHCI_BAUD"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: BLEHCI_BAUD=%q: %v", ErrConfig, val, err)
		}
		cfg.Baud = baud
	}

	if val := os.Getenv("BLEHCI_COMMAND_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("%w: BLEHCI_COMMAND_TIMEOUT=%q: %v", ErrConfig, val, err)
		}
		cfg.CommandTimeout = d
	}

	if val := os.Getenv("BLEHCI_RETRIES"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: BLEHCI_RETRIES=%q: %v", ErrConfig, val, err)
		}
		cfg.Retries = n
	}

	if val := os.Getenv("BLEHCI_READ_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("%w: BLEHCI_READ_TIMEOUT=%q: %v", ErrConfig, val, err)
		}
		cfg.ReadTimeout = d
	}

	if val := os.Getenv("BLEHCI_QUEUE_DEPTH"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: BLEHCI_QUEUE_DEPTH=%q: %v", ErrConfig, val, err)
		}
		cfg.QueueDepth = n
	}

	if val := os.Getenv("BLEHCI_TRACE_DIR"); val != "" {
		cfg.TraceDir = val
	}

	if val := os.Getenv("BLEHCI_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}

	return nil
}

// loadFromFile overlays settings from a YAML file onto cfg. Fields
// absent from the file keep their current values.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrConfig, path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrConfig, path, err)
	}
	return nil
}

// Validate checks the configuration for values the driver cannot run
// with.
func (c *Config) Validate() error {
	if c.Baud <= 0 {
		return fmt.Errorf("%w: baud must be positive, got %d", ErrConfig, c.Baud)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("%w: command timeout must be positive, got %v", ErrConfig, c.CommandTimeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("%w: retries must not be negative, got %d", ErrConfig, c.Retries)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("%w: read timeout must be positive, got %v", ErrConfig, c.ReadTimeout)
	}
	if c.QueueDepth <= 0 {
		return fmt.Errorf("%w: queue depth must be positive, got %d", ErrConfig, c.QueueDepth)
	}
	return nil
}
