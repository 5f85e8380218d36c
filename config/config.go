// Package config holds the sitetrans settings. Values are layered:
// built-in defaults, then an optional YAML file, then environment
// variables. The CLI applies explicitly set flags on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/sitetrans/core/backend"
)

// DefaultEnvFile is the .env file read when --env is not given.
const DefaultEnvFile = ".env"

type Config struct {
	Environment string `yaml:"environment" envconfig:"ENVIRONMENT"`
	LogLevel    string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	SourceLang string `yaml:"source_lang" envconfig:"SITETRANS_SOURCE_LANG"`
	TargetLang string `yaml:"target_lang" envconfig:"SITETRANS_TARGET_LANG"`

	Backend         string        `yaml:"backend" envconfig:"SITETRANS_BACKEND"`
	Token           string        `yaml:"token" envconfig:"HF_API_TOKEN"`
	BackendEndpoint string        `yaml:"backend_endpoint" envconfig:"SITETRANS_BACKEND_ENDPOINT"`
	BackendModel    string        `yaml:"backend_model" envconfig:"SITETRANS_BACKEND_MODEL"`
	BackendTimeout  time.Duration `yaml:"backend_timeout" envconfig:"SITETRANS_BACKEND_TIMEOUT"`

	BatchSize         int           `yaml:"batch_size" envconfig:"SITETRANS_BATCH_SIZE"`
	MaxTokensPerBatch int           `yaml:"max_tokens_per_batch" envconfig:"SITETRANS_MAX_TOKENS_PER_BATCH"`
	MaxRetries        int           `yaml:"max_retries" envconfig:"SITETRANS_MAX_RETRIES"`
	BackoffInitial    time.Duration `yaml:"backoff_initial" envconfig:"SITETRANS_BACKOFF_INITIAL"`
	BackoffMax        time.Duration `yaml:"backoff_max" envconfig:"SITETRANS_BACKOFF_MAX"`

	CacheDSN     string `yaml:"cache_dsn" envconfig:"SITETRANS_CACHE_DSN"`
	CacheEnabled bool   `yaml:"cache_enabled" envconfig:"SITETRANS_CACHE_ENABLED"`

	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"SITETRANS_FETCH_TIMEOUT"`
	FetchRetries int           `yaml:"fetch_retries" envconfig:"SITETRANS_FETCH_RETRIES"`
	UserAgent    string        `yaml:"user_agent" envconfig:"SITETRANS_USER_AGENT"`
	Delay        time.Duration `yaml:"delay" envconfig:"SITETRANS_DELAY"`
	Workers      int           `yaml:"workers" envconfig:"SITETRANS_WORKERS"`

	OutputDir      string `yaml:"output_dir" envconfig:"SITETRANS_OUTPUT_DIR"`
	SitemapHost    string `yaml:"sitemap_host" envconfig:"SITETRANS_SITEMAP_HOST"`
	ReviewMarkdown bool   `yaml:"review_markdown" envconfig:"SITETRANS_REVIEW_MARKDOWN"`
	ReportFormat   string `yaml:"report_format" envconfig:"SITETRANS_REPORT_FORMAT"`

	ViewerHost string `yaml:"viewer_host" envconfig:"SITETRANS_VIEWER_HOST"`
	ViewerPort int    `yaml:"viewer_port" envconfig:"SITETRANS_VIEWER_PORT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Environment:       "local",
		LogLevel:          "info",
		SourceLang:        "de",
		TargetLang:        "en",
		Backend:           backend.NameHF,
		BackendTimeout:    60 * time.Second,
		BatchSize:         20,
		MaxTokensPerBatch: 2000,
		MaxRetries:        3,
		BackoffInitial:    time.Second,
		BackoffMax:        10 * time.Second,
		CacheDSN:          "translation_cache.db",
		CacheEnabled:      true,
		FetchTimeout:      30 * time.Second,
		FetchRetries:      3,
		Delay:             time.Second,
		Workers:           1,
		OutputDir:         "output",
		ReportFormat:      "json",
		ViewerHost:        "127.0.0.1",
		ViewerPort:        8000,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}

// LoadEnvFile loads variables from a .env file without overriding ones
// already set. A missing file is not an error; the returned path is empty
// in that case.
func LoadEnvFile(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err := godotenv.Load(path); err != nil {
		return "", fmt.Errorf("loading %s: %w", path, err)
	}
	return path, nil
}

var reportFormats = map[string]bool{"json": true, "markdown": true, "md": true, "pdf": true}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.SourceLang) == "" || strings.TrimSpace(c.TargetLang) == "" {
		return fmt.Errorf("source and target languages are required")
	}
	if strings.EqualFold(c.SourceLang, c.TargetLang) {
		return fmt.Errorf("source and target languages must differ (both %q)", c.SourceLang)
	}
	known := false
	for _, name := range backend.Names() {
		if strings.EqualFold(c.Backend, name) {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("SITETRANS_BACKEND %q is not one of %s", c.Backend, strings.Join(backend.Names(), ", "))
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("SITETRANS_BATCH_SIZE must be >= 1")
	}
	if c.MaxTokensPerBatch < 1 {
		return fmt.Errorf("SITETRANS_MAX_TOKENS_PER_BATCH must be >= 1")
	}
	if c.MaxRetries < 0 || c.FetchRetries < 0 {
		return fmt.Errorf("retry counts must be >= 0")
	}
	if c.BackoffInitial <= 0 || c.BackoffMax < c.BackoffInitial {
		return fmt.Errorf("SITETRANS_BACKOFF_INITIAL must be > 0 and <= SITETRANS_BACKOFF_MAX")
	}
	if c.BackendTimeout <= 0 || c.FetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0")
	}
	if c.Delay < 0 {
		return fmt.Errorf("SITETRANS_DELAY must be >= 0")
	}
	if c.Workers < 1 {
		return fmt.Errorf("SITETRANS_WORKERS must be >= 1")
	}
	if c.CacheEnabled && strings.TrimSpace(c.CacheDSN) == "" {
		return fmt.Errorf("SITETRANS_CACHE_DSN is required when the cache is enabled")
	}
	if c.ViewerPort < 1 || c.ViewerPort > 65535 {
		return fmt.Errorf("SITETRANS_VIEWER_PORT %d is out of range", c.ViewerPort)
	}
	if !reportFormats[strings.ToLower(c.ReportFormat)] {
		return fmt.Errorf("SITETRANS_REPORT_FORMAT %q is not supported", c.ReportFormat)
	}
	return nil
}
