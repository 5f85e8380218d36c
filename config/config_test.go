package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadLayersFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitetrans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: openai
batch_size: 5
delay: 250ms
workers: 2
output_dir: /tmp/out
`), 0o644))

	t.Setenv("SITETRANS_WORKERS", "4")
	t.Setenv("SITETRANS_FETCH_TIMEOUT", "5s")
	t.Setenv("SITETRANS_VIEWER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Backend)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Delay)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, 9100, cfg.ViewerPort)
	// untouched keys keep their defaults
	assert.Equal(t, "de", cfg.SourceLang)
	assert.Equal(t, 2000, cfg.MaxTokensPerBatch)
	assert.True(t, cfg.CacheEnabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadEnvValue(t *testing.T) {
	t.Setenv("SITETRANS_BATCH_SIZE", "many")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]func(*Config){
		"same languages":    func(c *Config) { c.TargetLang = "DE" },
		"missing language":  func(c *Config) { c.SourceLang = " " },
		"unknown backend":   func(c *Config) { c.Backend = "deepl" },
		"zero batch":        func(c *Config) { c.BatchSize = 0 },
		"zero tokens":       func(c *Config) { c.MaxTokensPerBatch = 0 },
		"negative retries":  func(c *Config) { c.MaxRetries = -1 },
		"inverted backoff":  func(c *Config) { c.BackoffMax = c.BackoffInitial / 2 },
		"no workers":        func(c *Config) { c.Workers = 0 },
		"negative delay":    func(c *Config) { c.Delay = -time.Second },
		"cache without dsn": func(c *Config) { c.CacheDSN = "" },
		"report format":     func(c *Config) { c.ReportFormat = "xml" },
		"viewer port":       func(c *Config) { c.ViewerPort = 70000 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SITETRANS_TEST_ONLY_KEY=from-file\n"), 0o644))
	t.Setenv("SITETRANS_TEST_ONLY_KEY", "")
	os.Unsetenv("SITETRANS_TEST_ONLY_KEY")

	got, err := LoadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, "from-file", os.Getenv("SITETRANS_TEST_ONLY_KEY"))

	got, err = LoadEnvFile(filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
