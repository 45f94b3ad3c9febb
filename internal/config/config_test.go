package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docfold/internal/fold"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, fold.MatchExact, cfg.StartMatch())
	assert.Equal(t, 100*time.Millisecond, cfg.Delay())
	assert.Zero(t, cfg.UnfoldClassesInterval())
	assert.Equal(t, fold.DefaultAttachPrefixes, cfg.Fold.AttachPrefixes)
	assert.Len(t, cfg.ScannerOptions(), 2)
}

func TestLoadFile_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "docfold.toml", `
[fold]
start_match = "prefix"
delay_ms = 250

[logging]
level = "debug"
`)

	cfg := Default()
	require.NoError(t, LoadFile(cfg, path))

	assert.Equal(t, fold.MatchPrefix, cfg.StartMatch())
	assert.Equal(t, 250*time.Millisecond, cfg.Delay())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, fold.DefaultAttachPrefixes, cfg.Fold.AttachPrefixes, "unset keys keep defaults")
	assert.Equal(t, 4, cfg.View.TabWidth)
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "docfold.yaml", `
fold:
  attach_prefixes: [class, export]
  unfold_classes_interval_ms: 2000
plugins:
  scripts: [a.lua, b.lua]
`)

	cfg := Default()
	require.NoError(t, LoadFile(cfg, path))

	assert.Equal(t, []string{"class", "export"}, cfg.Fold.AttachPrefixes)
	assert.Equal(t, 2*time.Second, cfg.UnfoldClassesInterval())
	assert.Equal(t, []string{"a.lua", "b.lua"}, cfg.Plugins.Scripts)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()

	require.NoError(t, LoadFile(cfg, filepath.Join(dir, "missing.toml")))

	bad := writeFile(t, dir, "bad.toml", "[fold\nstart_match = 1\n")
	err := LoadFile(cfg, bad)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, bad, pe.Path)

	ini := writeFile(t, dir, "docfold.ini", "x=1")
	assert.ErrorIs(t, LoadFile(cfg, ini), ErrUnsupportedFormat)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DOCFOLD_FOLD_START_MATCH", "prefix")
	t.Setenv("DOCFOLD_FOLD_ATTACH_PREFIXES", "class,export default")
	t.Setenv("DOCFOLD_LOGGING_LEVEL", "warn")

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg))

	assert.Equal(t, "prefix", cfg.Fold.StartMatch)
	assert.Equal(t, []string{"class", "export default"}, cfg.Fold.AttachPrefixes)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Fold.DelayMS, "unset variables keep current values")
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "docfold.toml", `
[fold]
delay_ms = 300
start_match = "prefix"
`)
	envFile := writeFile(t, dir, ".env", "DOCFOLD_FOLD_DELAY_MS=400\n")

	t.Setenv("DOCFOLD_LOGGING_LEVEL", "error")
	// godotenv.Load sets variables in the process environment; clear it
	// afterwards so other tests are not affected.
	t.Setenv("DOCFOLD_FOLD_DELAY_MS", "")
	require.NoError(t, os.Unsetenv("DOCFOLD_FOLD_DELAY_MS"))

	cfg, err := Load(LoadOptions{File: file, EnvFile: envFile})
	require.NoError(t, err)

	assert.Equal(t, fold.MatchPrefix, cfg.StartMatch(), "file overrides default")
	assert.Equal(t, 400*time.Millisecond, cfg.Delay(), ".env overrides file")
	assert.Equal(t, "error", cfg.Logging.Level, "environment overrides default")
}

func TestLoadDotEnv_Reload(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "DOCFOLD_LOGGING_LEVEL=warn\nDOCFOLD_FOLD_DELAY_MS=250\n")

	t.Setenv("DOCFOLD_FOLD_START_MATCH", "prefix")
	for _, key := range []string{"DOCFOLD_LOGGING_LEVEL", "DOCFOLD_FOLD_DELAY_MS"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(LoadOptions{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Delay())

	writeFile(t, dir, ".env", "DOCFOLD_LOGGING_LEVEL=error\nDOCFOLD_FOLD_START_MATCH=exact\n")
	cfg, err = Load(LoadOptions{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level, "a changed .env value replaces the earlier one")
	assert.Equal(t, 100*time.Millisecond, cfg.Delay(), "a removed .env value is unset")
	assert.Equal(t, fold.MatchPrefix, cfg.StartMatch(), "the real environment still wins")

	require.NoError(t, os.Remove(envFile))
	cfg, err = Load(LoadOptions{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_SkipEnv(t *testing.T) {
	t.Setenv("DOCFOLD_LOGGING_LEVEL", "debug")

	cfg, err := Load(LoadOptions{SkipEnv: true})
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Fold.StartMatch = "fuzzy"
	cfg.Fold.DelayMS = -1
	cfg.Logging.Level = "loud"
	cfg.View.TabWidth = 0
	cfg.View.Theme = "no-such-style"
	cfg.Fold.AttachPrefixes = []string{"class", " "}

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "fold.start_match", ve.Field)

	for _, field := range []string{"fold.delay_ms", "logging.level", "view.tab_width", "view.theme", "fold.attach_prefixes"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestValidate_Defaults(t *testing.T) {
	require.NoError(t, Default().Validate())

	cfg := Default()
	cfg.View.Theme = ""
	assert.NoError(t, cfg.Validate(), "an empty theme disables colouring")
}

func TestClone(t *testing.T) {
	cfg := Default()
	cp := cfg.Clone()
	cp.Fold.AttachPrefixes[0] = "changed"
	assert.Equal(t, "class", cfg.Fold.AttachPrefixes[0])
}
