// Package config handles frmetool configuration loading and management.
package config

import (
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

// Config holds all frmetool settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Decode  DecodeConfig  `yaml:"decode"`
	Dump    DumpConfig    `yaml:"dump"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DecodeConfig holds frame decoder settings.
type DecodeConfig struct {
	StrictPrimitives bool `yaml:"strict_primitives"` // fail on unsupported draw opcodes
	MaxWidgets       int  `yaml:"max_widgets"`       // 0 means unlimited
}

// DumpConfig controls the dump command output.
type DumpConfig struct {
	MaxDepth        int    `yaml:"max_depth"`
	Indent          string `yaml:"indent"`
	HidePointers    bool   `yaml:"hide_pointers"`
	IncludeGeometry bool   `yaml:"include_geometry"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
		Decode: DecodeConfig{
			StrictPrimitives: false,
			MaxWidgets:       0,
		},
		Dump: DumpConfig{
			MaxDepth:     6,
			Indent:       "  ",
			HidePointers: true,
		},
	}
}

// Validate reports settings that cannot be applied.
func (c *Config) Validate() error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return errors.Wrapf(err, "logging.level %q", c.Logging.Level)
	}
	if c.Decode.MaxWidgets < 0 {
		return errors.Errorf("decode.max_widgets must not be negative, got %d", c.Decode.MaxWidgets)
	}
	if c.Dump.MaxDepth < 0 {
		return errors.Errorf("dump.max_depth must not be negative, got %d", c.Dump.MaxDepth)
	}
	return nil
}
