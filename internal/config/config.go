// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	"firestige.xyz/pktforge/internal/capture"
	"firestige.xyz/pktforge/internal/core"
	"firestige.xyz/pktforge/internal/core/buffer"
	"firestige.xyz/pktforge/internal/log"
)

// GlobalConfig represents the top-level configuration.
// Maps to the `pktforge:` root key in YAML.
type GlobalConfig struct {
	Log       log.Config      `mapstructure:"log"`
	Buffer    BufferConfig    `mapstructure:"buffer"`
	Allocator AllocatorConfig `mapstructure:"allocator"`
	Capture   CaptureConfig   `mapstructure:"capture"`
}

// ─── Buffers ───

// BufferConfig selects the buffer variant every PacketBuffer is built with.
type BufferConfig struct {
	Variant string `mapstructure:"variant"` // length | capacity
	Growth  string `mapstructure:"growth"`  // exact | double, capacity variant only
}

// ─── Allocation ───

// AllocatorConfig describes the allocator chain behind owned buffers:
// a base strategy, optionally bounded by a byte budget and instrumented.
type AllocatorConfig struct {
	Type       string `mapstructure:"type"`       // heap | pool
	Budget     int    `mapstructure:"budget"`     // bytes outstanding, 0 = unlimited
	Instrument bool   `mapstructure:"instrument"` // export allocation metrics
	Name       string `mapstructure:"name"`       // metrics label
}

// ─── Capture Files ───

// CaptureConfig controls how capture files are read and written.
type CaptureConfig struct {
	Format   string `mapstructure:"format"`    // pcap | pcapng, for writing
	LinkType string `mapstructure:"link_type"` // link type of crafted packets
	Borrow   bool   `mapstructure:"borrow"`    // read without copying
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `pktforge: ...`.
type configRoot struct {
	Pktforge GlobalConfig `mapstructure:"pktforge"`
}

// Load loads configuration from file. An empty path yields the defaults.
// Env vars override file values under the PKTFORGE_ prefix, e.g.
// PKTFORGE_LOG_LEVEL.
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Key "pktforge.log.level" maps to env "PKTFORGE_LOG_LEVEL".
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Pktforge

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *GlobalConfig {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

// setDefaults sets default values for configuration.
// All keys use "pktforge." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("pktforge.log.level", log.DefaultLevel)
	v.SetDefault("pktforge.log.pattern", log.DefaultPattern)
	v.SetDefault("pktforge.log.time", log.DefaultTime)
	v.SetDefault("pktforge.log.appenders", []map[string]any{{"type": "stdout"}})

	v.SetDefault("pktforge.buffer.variant", buffer.LengthOnly.String())
	v.SetDefault("pktforge.buffer.growth", "double")

	v.SetDefault("pktforge.allocator.type", "heap")
	v.SetDefault("pktforge.allocator.budget", 0)
	v.SetDefault("pktforge.allocator.instrument", false)
	v.SetDefault("pktforge.allocator.name", "pktforge")

	v.SetDefault("pktforge.capture.format", "pcap")
	v.SetDefault("pktforge.capture.link_type", "ethernet")
	v.SetDefault("pktforge.capture.borrow", false)
}

var validLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true,
}

// ValidateAndApplyDefaults validates configuration and normalizes values.
// All problems are reported together.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	var result *multierror.Error
	invalid := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("%w: "+format, append([]any{core.ErrConfigInvalid}, args...)...))
	}

	// ── Log ──
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if !validLevels[cfg.Log.Level] {
		invalid("log level %q (must be trace/debug/info/warn/error)", cfg.Log.Level)
	}
	for i, a := range cfg.Log.Appenders {
		switch a.Type {
		case "stdout", "stderr":
		case "file":
			if a.File.Filename == "" {
				invalid("log.appenders[%d]: file appender requires filename", i)
			}
		default:
			invalid("log.appenders[%d]: unknown type %q", i, a.Type)
		}
	}

	// ── Buffer ──
	if _, err := buffer.ParseVariant(cfg.Buffer.Variant); err != nil {
		invalid("buffer.variant: %v", err)
	}
	if _, err := buffer.ParseGrowth(cfg.Buffer.Growth); err != nil {
		invalid("buffer.growth: %v", err)
	}

	// ── Allocator ──
	cfg.Allocator.Type = strings.ToLower(cfg.Allocator.Type)
	if cfg.Allocator.Type != "heap" && cfg.Allocator.Type != "pool" {
		invalid("allocator.type %q (must be heap/pool)", cfg.Allocator.Type)
	}
	if cfg.Allocator.Budget < 0 {
		invalid("allocator.budget %d must not be negative", cfg.Allocator.Budget)
	}
	if cfg.Allocator.Instrument && cfg.Allocator.Name == "" {
		cfg.Allocator.Name = "pktforge"
	}

	// ── Capture ──
	if _, err := capture.ParseFormat(cfg.Capture.Format); err != nil {
		invalid("capture.format: %v", err)
	}
	if _, err := ParseLinkType(cfg.Capture.LinkType); err != nil {
		invalid("capture.link_type: %v", err)
	}

	return result.ErrorOrNil()
}
