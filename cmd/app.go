package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/gaurav-prasanna/sitetrans/config"
	"github.com/gaurav-prasanna/sitetrans/core"
	"github.com/gaurav-prasanna/sitetrans/core/backend"
	"github.com/gaurav-prasanna/sitetrans/core/cache"
	"github.com/gaurav-prasanna/sitetrans/core/fetch"
	"github.com/gaurav-prasanna/sitetrans/core/output"
	"github.com/gaurav-prasanna/sitetrans/core/pipeline"
	"github.com/gaurav-prasanna/sitetrans/core/review"
	"github.com/gaurav-prasanna/sitetrans/core/translate"
)

// Flags shared by translate and batch. Each overrides its config key only
// when set on the command line.
var (
	flagSourceLang     string
	flagTargetLang     string
	flagBackend        string
	flagOutputDir      string
	flagDryRun         bool
	flagNoCache        bool
	flagReviewMarkdown bool
	flagTimeout        time.Duration
	flagRetries        int
)

// Flags only batch registers.
var (
	flagDelay        time.Duration
	flagWorkers      int
	flagReportFormat string
)

func addPipelineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagSourceLang, "source-lang", "", "Source language code (default de)")
	f.StringVar(&flagTargetLang, "target-lang", "", "Target language code (default en)")
	f.StringVar(&flagBackend, "backend", "", "Translation backend: "+fmt.Sprint(backend.Names()))
	f.StringVar(&flagOutputDir, "output-dir", "", "Output directory (default: output)")
	f.BoolVar(&flagDryRun, "dry-run", false, "Fetch and plan only; no backend calls, no files written")
	f.BoolVar(&flagNoCache, "no-cache", false, "Disable the translation cache")
	f.BoolVar(&flagReviewMarkdown, "review-markdown", false, "Also write Markdown review copies of translated pages")
	f.DurationVar(&flagTimeout, "timeout", 0, "Per-request fetch timeout (default 30s)")
	f.IntVar(&flagRetries, "retries", 0, "Fetch retries for network errors and 5xx responses (default 3)")
}

// applyFlags copies explicitly set flags into c.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Lookup(name) != nil && f.Changed(name) {
			apply()
		}
	}
	set("source-lang", func() { c.SourceLang = flagSourceLang })
	set("target-lang", func() { c.TargetLang = flagTargetLang })
	set("backend", func() { c.Backend = flagBackend })
	set("output-dir", func() { c.OutputDir = flagOutputDir })
	set("no-cache", func() { c.CacheEnabled = !flagNoCache })
	set("review-markdown", func() { c.ReviewMarkdown = flagReviewMarkdown })
	set("timeout", func() { c.FetchTimeout = flagTimeout })
	set("retries", func() { c.FetchRetries = flagRetries })
	set("delay", func() { c.Delay = flagDelay })
	set("workers", func() { c.Workers = flagWorkers })
	set("report-format", func() { c.ReportFormat = flagReportFormat })
	set("host", func() { c.ViewerHost = flagViewerHost })
	set("port", func() { c.ViewerPort = flagViewerPort })
}

// app is the wired set of components one command works with.
type app struct {
	cfg      *config.Config
	fetcher  *fetch.HTTPFetcher
	cache    *cache.Cache
	writer   *output.Writer
	pipeline *pipeline.Pipeline
}

// newApp wires configuration into components. In dry-run mode a backend
// that cannot be constructed (for example without a token) is tolerated
// since it is never called.
func newApp(ctx context.Context, c *config.Config, log zerolog.Logger, dryRun bool) (*app, error) {
	be, err := backend.New(c.Backend, backend.Options{
		Endpoint: c.BackendEndpoint,
		Model:    c.BackendModel,
		Token:    c.Token,
		Timeout:  c.BackendTimeout,
	})
	if err != nil {
		if !dryRun {
			return nil, err
		}
		log.Debug().Err(err).Msg("backend unavailable, continuing with dry run")
	}

	if hc, ok := be.(core.HealthChecker); ok && !dryRun {
		if err := hc.Check(ctx, c.SourceLang, c.TargetLang); err != nil {
			if core.IsPermanent(err) {
				return nil, fmt.Errorf("backend check failed: %w", err)
			}
			log.Warn().Err(err).Msg("backend check failed, continuing")
		}
	}

	var limiter *rate.Limiter
	if c.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(c.Delay), 1)
	}
	fetcher := fetch.New(fetch.Options{
		Timeout:    c.FetchTimeout,
		MaxRetries: c.FetchRetries,
		UserAgent:  c.UserAgent,
		Limiter:    limiter,
	}, log)

	tc := openCache(ctx, c, log)

	writer, err := output.New(c.OutputDir, c.SourceLang, c.TargetLang)
	if err != nil {
		tc.Close()
		return nil, fmt.Errorf("initializing output writer: %w", err)
	}

	tr := translate.New(be, tc, translate.Options{
		BatchSize:      c.BatchSize,
		MaxTokens:      c.MaxTokensPerBatch,
		MaxRetries:     c.MaxRetries,
		InitialBackoff: c.BackoffInitial,
		MaxBackoff:     c.BackoffMax,
		BatchTimeout:   c.BackendTimeout,
	}, log)

	deps := pipeline.Deps{Fetcher: fetcher, Translator: tr, Writer: writer, Logger: log}
	if c.ReviewMarkdown {
		deps.Review = review.New()
	}
	p, err := pipeline.New(c.SourceLang, c.TargetLang, deps)
	if err != nil {
		tc.Close()
		return nil, err
	}

	return &app{cfg: c, fetcher: fetcher, cache: tc, writer: writer, pipeline: p}, nil
}

func (a *app) Close() {
	_ = a.cache.Close()
}

// openCache returns nil when the cache is disabled or its store cannot be
// opened; translation then proceeds uncached.
func openCache(ctx context.Context, c *config.Config, log zerolog.Logger) *cache.Cache {
	if !c.CacheEnabled {
		return nil
	}
	store, err := cache.OpenStore(ctx, c.CacheDSN, c.LogLevel)
	if err != nil {
		log.Warn().Err(err).Str("dsn", c.CacheDSN).Msg("translation cache unavailable, continuing without it")
		return nil
	}
	return cache.New(store, log)
}
