package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LoadOptions names the sources Load reads.
type LoadOptions struct {
	// File is a TOML or YAML configuration file. Empty skips the file.
	File string

	// EnvFile is a .env file loaded into the process environment before
	// DOCFOLD_* variables are read. Empty means ".env".
	EnvFile string

	// SkipEnv disables .env and environment overrides.
	SkipEnv bool
}

// Load assembles a validated configuration from defaults, the file and the
// environment.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	if opts.File != "" {
		if err := LoadFile(cfg, opts.File); err != nil {
			return nil, err
		}
	}

	if !opts.SkipEnv {
		if err := LoadDotEnv(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
		if err := ApplyEnv(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes the file at path over cfg. Settings missing from the
// file keep their current values. A file that does not exist is not an
// error.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Decode(cfg, path, data)
}

// Decode parses data over cfg using the format implied by name's extension.
func Decode(cfg *Config, name string, data []byte) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			pe := &ParseError{Path: name, Err: err}
			var de *toml.DecodeError
			if errors.As(err, &de) {
				pe.Line, pe.Column = de.Position()
			}
			return pe
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return &ParseError{Path: name, Err: err}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	return nil
}
