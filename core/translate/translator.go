// Package translate turns an ordered list of fragments into an ordered list
// of result strings. Skipped fragments pass through unchanged, cached
// fragments are served from the cache, and the rest go to the backend in
// bounded batches with retry.
package translate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/sitetrans/core"
	"github.com/gaurav-prasanna/sitetrans/core/cache"
	"github.com/gaurav-prasanna/sitetrans/core/chunk"
	"github.com/gaurav-prasanna/sitetrans/core/classify"
	"github.com/gaurav-prasanna/sitetrans/core/normalize"
)

// ErrCountMismatch is wrapped when a backend returns a different number
// of results than it was sent.
var ErrCountMismatch = errors.New("translation count mismatch")

// Options tunes batching and retries.
type Options struct {
	BatchSize      int
	MaxTokens      int
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BatchTimeout   time.Duration
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		BatchSize:      chunk.DefaultMaxItems,
		MaxTokens:      chunk.DefaultMaxTokens,
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
		BatchTimeout:   60 * time.Second,
	}
}

// Translator is safe for concurrent use if its backend and cache are.
type Translator struct {
	backend core.Backend
	cache   *cache.Cache
	chunker *chunk.Chunker
	opts    Options
	log     zerolog.Logger
}

// New creates a Translator. c may be nil to disable caching.
func New(backend core.Backend, c *cache.Cache, opts Options, logger zerolog.Logger) *Translator {
	defaults := DefaultOptions()
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaults.InitialBackoff
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = max(defaults.MaxBackoff, opts.InitialBackoff)
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = defaults.BatchTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Translator{
		backend: backend,
		cache:   c,
		chunker: chunk.New(opts.BatchSize, opts.MaxTokens),
		opts:    opts,
		log:     logger.With().Str("component", "translator").Logger(),
	}
}

// pendingText is one distinct normalized text awaiting the backend and the
// item positions that share it.
type pendingText struct {
	text      string
	positions []int
}

// Plan is the resolved state of a fragment list before any backend call.
type Plan struct {
	Src   string
	Dst   string
	Stats core.PageStats

	results []string
	pending []pendingText
}

// Pending returns the distinct texts that still need the backend, in
// first-occurrence order.
func (p *Plan) Pending() []string {
	texts := make([]string, len(p.pending))
	for i, pt := range p.pending {
		texts[i] = pt.text
	}
	return texts
}

// Plan classifies items and consults the cache without calling the
// backend. It backs dry runs.
func (t *Translator) Plan(ctx context.Context, items []core.TranslatableItem, src, dst string) *Plan {
	plan := &Plan{
		Src:     src,
		Dst:     dst,
		results: make([]string, len(items)),
	}
	plan.Stats.Texts = len(items)

	cls := classify.New(dst)
	index := make(map[string]int)
	var candidates []pendingText
	for i, it := range items {
		if cls.Classify(normalize.Text(it.Text)) == classify.Skip {
			plan.results[i] = it.Text
			plan.Stats.Skipped++
			continue
		}
		key := normalize.Key(it.Text)
		if at, ok := index[key]; ok {
			candidates[at].positions = append(candidates[at].positions, i)
			continue
		}
		index[key] = len(candidates)
		candidates = append(candidates, pendingText{text: key, positions: []int{i}})
	}

	keys := make([]string, len(candidates))
	for i, c := range candidates {
		keys[i] = c.text
	}
	hits := t.cache.LookupMany(ctx, keys, src, dst)

	for _, c := range candidates {
		if translated, ok := hits[c.text]; ok {
			for _, pos := range c.positions {
				plan.results[pos] = translated
			}
			plan.Stats.CacheHits += len(c.positions)
			continue
		}
		plan.pending = append(plan.pending, c)
	}
	plan.Stats.Pending = len(plan.pending)
	return plan
}

// Translate returns one result per item, in item order. A permanent
// backend failure is returned as is; a batch that keeps failing
// transiently is returned once its retries are spent. Cancellation of ctx
// is honored between batches only.
func (t *Translator) Translate(ctx context.Context, items []core.TranslatableItem, src, dst string) ([]string, core.PageStats, error) {
	plan := t.Plan(ctx, items, src, dst)
	if len(plan.pending) == 0 {
		return plan.results, plan.Stats, nil
	}

	texts := plan.Pending()
	batches := t.chunker.Split(texts)
	for bi, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, plan.Stats, fmt.Errorf("translation stopped before batch %d of %d: %w", bi+1, len(batches), err)
		}

		input := make([]string, len(batch))
		for j, p := range batch {
			input[j] = texts[p]
		}

		out, err := t.translateBatch(ctx, input, src, dst)
		if err != nil {
			return nil, plan.Stats, err
		}
		plan.Stats.Batches++

		pairs := make([]cache.Pair, len(batch))
		for j, p := range batch {
			pairs[j] = cache.Pair{Text: input[j], Translation: out[j]}
			for _, pos := range plan.pending[p].positions {
				plan.results[pos] = out[j]
				plan.Stats.Translated++
			}
		}
		// A finished batch is paid for; keep it even if ctx is cancelled.
		t.cache.StoreMany(context.WithoutCancel(ctx), pairs, src, dst)

		t.log.Debug().
			Int("batch", bi+1).
			Int("batches", len(batches)).
			Int("size", len(batch)).
			Msg("batch translated")
	}
	return plan.results, plan.Stats, nil
}

// translateBatch calls the backend with retries. The call runs on a context
// detached from cancellation so a started batch is never cut short.
func (t *Translator) translateBatch(ctx context.Context, texts []string, src, dst string) ([]string, error) {
	var out []string
	attempts := 0
	op := func() error {
		attempts++
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.opts.BatchTimeout)
		defer cancel()

		res, err := t.backend.TranslateBatch(callCtx, texts, src, dst)
		if err == nil && len(res) != len(texts) {
			err = &core.BackendError{
				Kind: core.BackendUnavailable,
				Err:  fmt.Errorf("%w: sent %d, got %d", ErrCountMismatch, len(texts), len(res)),
			}
		}
		if err != nil {
			if core.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = res
		return nil
	}

	notify := func(err error, wait time.Duration) {
		t.log.Warn().
			Err(err).
			Int("attempt", attempts).
			Int("size", len(texts)).
			Dur("retry_in", wait).
			Msg("backend call failed, retrying")
	}

	policy := backoff.WithMaxRetries(t.newBackOff(), uint64(t.opts.MaxRetries))
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if core.IsTransient(err) {
			return nil, fmt.Errorf("batch of %d failed after %d attempts: %w", len(texts), attempts, err)
		}
		return nil, err
	}
	return out, nil
}

func (t *Translator) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.opts.InitialBackoff
	b.MaxInterval = t.opts.MaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
