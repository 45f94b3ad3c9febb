// Package config provides docfold configuration.
//
// Configuration is assembled from several sources, later sources overriding
// earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A configuration file, TOML or YAML (LoadFile)
//  3. A .env file and DOCFOLD_* environment variables (ApplyEnv)
//  4. Command-line flags, applied by the caller
//
// Example file:
//
//	[fold]
//	start_match = "exact"
//	delay_ms = 100
//	attach_prefixes = ["class", "export", "module.exports"]
//
//	[logging]
//	level = "debug"
//	file = "/tmp/docfold.log"
package config

import (
	"time"

	"github.com/dshills/docfold/internal/fold"
)

// Config is the complete docfold configuration.
type Config struct {
	Fold    FoldConfig    `toml:"fold" yaml:"fold" envconfig:"FOLD"`
	Logging LoggingConfig `toml:"logging" yaml:"logging" envconfig:"LOGGING"`
	Plugins PluginsConfig `toml:"plugins" yaml:"plugins" envconfig:"PLUGINS"`
	View    ViewConfig    `toml:"view" yaml:"view" envconfig:"VIEW"`
}

// FoldConfig controls JSDoc detection and the automatic fold passes.
type FoldConfig struct {
	// StartMatch is "exact" (trimmed line equals "/**") or "prefix"
	// (trimmed line starts with "/**").
	StartMatch string `toml:"start_match" yaml:"start_match" envconfig:"START_MATCH"`

	// DelayMS is the delay before a scheduled fold pass runs.
	DelayMS int `toml:"delay_ms" yaml:"delay_ms" envconfig:"DELAY_MS"`

	// AttachPrefixes are the line prefixes that mark a block as attached
	// to a declaration.
	AttachPrefixes []string `toml:"attach_prefixes" yaml:"attach_prefixes" envconfig:"ATTACH_PREFIXES"`

	// UnfoldClassesIntervalMS enables periodic class unfolding when positive.
	UnfoldClassesIntervalMS int `toml:"unfold_classes_interval_ms" yaml:"unfold_classes_interval_ms" envconfig:"UNFOLD_CLASSES_INTERVAL_MS"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level" yaml:"level" envconfig:"LEVEL"`

	// File receives log output. Empty means stderr, except in the
	// interactive viewer where logging is discarded.
	File string `toml:"file" yaml:"file" envconfig:"FILE"`

	// JSON selects JSON lines instead of console formatting.
	JSON bool `toml:"json" yaml:"json" envconfig:"JSON"`
}

// PluginsConfig lists Lua plugin scripts to load at startup.
type PluginsConfig struct {
	Scripts []string `toml:"scripts" yaml:"scripts" envconfig:"SCRIPTS"`
}

// ViewConfig controls the interactive viewer.
type ViewConfig struct {
	TabWidth    int  `toml:"tab_width" yaml:"tab_width" envconfig:"TAB_WIDTH"`
	LineNumbers bool `toml:"line_numbers" yaml:"line_numbers" envconfig:"LINE_NUMBERS"`

	// Theme names a chroma style used for syntax colouring. Empty disables
	// colouring.
	Theme string `toml:"theme" yaml:"theme" envconfig:"THEME"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Fold: FoldConfig{
			StartMatch:     fold.MatchExact.String(),
			DelayMS:        int(fold.DefaultDelay / time.Millisecond),
			AttachPrefixes: append([]string(nil), fold.DefaultAttachPrefixes...),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		View: ViewConfig{
			TabWidth:    4,
			LineNumbers: true,
			Theme:       "monokai",
		},
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Fold.AttachPrefixes = append([]string(nil), c.Fold.AttachPrefixes...)
	out.Plugins.Scripts = append([]string(nil), c.Plugins.Scripts...)
	return &out
}

// Delay returns the fold pass delay.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Fold.DelayMS) * time.Millisecond
}

// UnfoldClassesInterval returns the class unfold interval, zero when disabled.
func (c *Config) UnfoldClassesInterval() time.Duration {
	if c.Fold.UnfoldClassesIntervalMS <= 0 {
		return 0
	}
	return time.Duration(c.Fold.UnfoldClassesIntervalMS) * time.Millisecond
}

// StartMatch returns the parsed start rule. Call Validate first; an
// invalid value yields MatchExact.
func (c *Config) StartMatch() fold.StartMatch {
	m, err := fold.ParseStartMatch(c.Fold.StartMatch)
	if err != nil {
		return fold.MatchExact
	}
	return m
}

// ScannerOptions returns the scanner options described by the configuration.
func (c *Config) ScannerOptions() []fold.ScannerOption {
	opts := []fold.ScannerOption{fold.WithStartMatch(c.StartMatch())}
	if len(c.Fold.AttachPrefixes) > 0 {
		opts = append(opts, fold.WithAttachPrefixes(c.Fold.AttachPrefixes...))
	}
	return opts
}
