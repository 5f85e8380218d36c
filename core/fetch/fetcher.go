// Package fetch implements the Fetcher interface.
// It performs HTTP GET requests with retries, decodes the body to UTF-8 and
// rejects responses that are not HTML pages.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/gaurav-prasanna/sitetrans/core"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRetries   = 3
	defaultBaseDelay = 500 * time.Millisecond
	defaultBodyLimit = 10 << 20
	DefaultUserAgent = "sitetrans/1.0 (+https://github.com/gaurav-prasanna/sitetrans)"
)

// Options configures an HTTPFetcher.
type Options struct {
	Timeout    time.Duration // per attempt
	MaxRetries int
	BaseDelay  time.Duration // first retry delay, doubled per attempt
	UserAgent  string
	BodyLimit  int64
	Limiter    *rate.Limiter // shared across workers; nil disables
	Client     *http.Client
}

// HTTPFetcher fetches web pages via HTTP.
type HTTPFetcher struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
	log     zerolog.Logger
}

// New creates an HTTPFetcher. Zero options take sensible defaults.
func New(opts Options, logger zerolog.Logger) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = defaultBodyLimit
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPFetcher{
		client:  client,
		opts:    opts,
		limiter: opts.Limiter,
		log:     logger.With().Str("component", "fetcher").Logger(),
	}
}

// DefaultOptions returns the options used by the CLI when nothing is
// configured.
func DefaultOptions() Options {
	return Options{
		Timeout:    defaultTimeout,
		MaxRetries: defaultRetries,
		BaseDelay:  defaultBaseDelay,
		UserAgent:  DefaultUserAgent,
		BodyLimit:  defaultBodyLimit,
	}
}

// Fetch retrieves the HTML document at rawURL. Network failures and 5xx
// responses are retried; 4xx responses and non-HTML content are not.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*core.FetchResult, error) {
	var result *core.FetchResult
	attempt := 0
	op := func() error {
		attempt++
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(&core.FetchError{Kind: core.FetchNetwork, URL: rawURL, Err: err})
			}
		}
		res, err := f.fetchOnce(ctx, rawURL)
		if err != nil {
			if retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		result = res
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.opts.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.opts.MaxRetries)), ctx)

	notify := func(err error, wait time.Duration) {
		f.log.Warn().Err(err).Str("url", rawURL).Int("attempt", attempt).Dur("retry_in", wait).Msg("fetch failed, retrying")
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return result, nil
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, rawURL string) (*core.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &core.FetchError{Kind: core.FetchHTTPStatus, URL: rawURL, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "de,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, transportError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &core.FetchError{Kind: core.FetchHTTPStatus, URL: rawURL, Status: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return nil, &core.FetchError{Kind: core.FetchNonDocument, URL: rawURL, Status: resp.StatusCode,
			Err: fmt.Errorf("content type %q", contentType)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.BodyLimit+1))
	if err != nil {
		return nil, transportError(rawURL, fmt.Errorf("reading response body: %w", err))
	}
	if int64(len(body)) > f.opts.BodyLimit {
		return nil, &core.FetchError{Kind: core.FetchTooLarge, URL: rawURL, Status: resp.StatusCode,
			Err: fmt.Errorf("exceeds %d bytes", f.opts.BodyLimit)}
	}

	enc, name, _ := charset.DetermineEncoding(body, contentType)
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, &core.FetchError{Kind: core.FetchNonDocument, URL: rawURL, Status: resp.StatusCode,
			Err: fmt.Errorf("decoding %s body: %w", name, err)}
	}

	return &core.FetchResult{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Encoding:    name,
		HTML:        string(decoded),
		Raw:         body,
	}, nil
}

// isHTML accepts text/html and XHTML. A missing content type is treated
// as HTML.
func isHTML(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func transportError(rawURL string, err error) error {
	kind := core.FetchNetwork
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = core.FetchTimeout
	}
	return &core.FetchError{Kind: kind, URL: rawURL, Err: err}
}

func retryable(err error) bool {
	var fe *core.FetchError
	if !errors.As(err, &fe) {
		return false
	}
	switch fe.Kind {
	case core.FetchTimeout, core.FetchNetwork:
		return !errors.Is(fe.Err, context.Canceled)
	case core.FetchHTTPStatus:
		return fe.Status >= 500 || fe.Status == http.StatusTooManyRequests
	default:
		return false
	}
}
