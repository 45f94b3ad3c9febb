package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable, e.g.
// DOCFOLD_FOLD_START_MATCH or DOCFOLD_LOGGING_LEVEL.
const EnvPrefix = "DOCFOLD"

// ApplyEnv overrides cfg with DOCFOLD_* environment variables. Unset
// variables leave the current value alone. Lists are comma separated.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}

// dotenv remembers the variables written from .env files and the value
// written, so a reload can replace them without touching variables that
// came from the real environment.
var dotenv = struct {
	mu  sync.Mutex
	set map[string]string
}{set: make(map[string]string)}

// LoadDotEnv loads variables from a .env file into the process environment.
// If path is empty, it loads ".env" in the current directory. A missing
// file is not an error. Variables already set in the environment win, but
// variables written by an earlier call follow the file: changed values are
// replaced and removed ones are unset.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	vars, err := godotenv.Read(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	dotenv.mu.Lock()
	defer dotenv.mu.Unlock()

	for key, val := range dotenv.set {
		if _, ok := vars[key]; ok {
			continue
		}
		if cur, ok := os.LookupEnv(key); ok && cur == val {
			_ = os.Unsetenv(key)
		}
		delete(dotenv.set, key)
	}

	for key, val := range vars {
		if cur, ok := os.LookupEnv(key); ok {
			if prev, owned := dotenv.set[key]; !owned || prev != cur {
				delete(dotenv.set, key)
				continue
			}
		}
		if err := os.Setenv(key, val); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
		dotenv.set[key] = val
	}
	return nil
}
