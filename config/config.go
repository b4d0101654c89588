// Package config loads termtick settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/termtick/mux"
)

// Driver names accepted in Config.Driver
const (
	DriverANSI  = "ansi"
	DriverTcell = "tcell"
)

type Config struct {
	TickInterval  time.Duration `yaml:"tick_interval"`
	Driver        string        `yaml:"driver"`
	Mouse         bool          `yaml:"mouse"`
	ForwardResize bool          `yaml:"forward_resize"`
	ForwardMouse  bool          `yaml:"forward_mouse"`
	Sound         bool          `yaml:"sound"`
	Log           LogConfig     `yaml:"log"`
}

type LogConfig struct {
	Debug     bool   `yaml:"debug"`
	Dir       string `yaml:"dir"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// Default returns the settings used when no file is given
func Default() *Config {
	return &Config{
		TickInterval:  200 * time.Millisecond,
		Driver:        DriverANSI,
		Mouse:         true,
		ForwardResize: true,
		Log: LogConfig{
			Dir:       "logs",
			MaxSizeMB: 10,
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges and names
func (c *Config) Validate() error {
	var errs []error
	if err := c.Mux().Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Driver {
	case DriverANSI, DriverTcell:
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q (want %q or %q)", c.Driver, DriverANSI, DriverTcell))
	}
	if c.Log.MaxSizeMB < 0 {
		errs = append(errs, fmt.Errorf("log.max_size_mb must not be negative: %d", c.Log.MaxSizeMB))
	}
	return errors.Join(errs...)
}

// Mux returns the multiplexer settings; Clock, Logger and Status are left for the caller
func (c *Config) Mux() mux.Config {
	return mux.Config{
		TickInterval:  c.TickInterval,
		ForwardResize: c.ForwardResize,
		ForwardMouse:  c.ForwardMouse,
	}
}

// MaxLogBytes returns the rotation threshold in bytes
func (c *Config) MaxLogBytes() int64 {
	return int64(c.Log.MaxSizeMB) * 1024 * 1024
}
