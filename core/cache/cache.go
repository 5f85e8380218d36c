// Package cache provides the translation cache. Keys are derived from the
// normalized source text and the language pair, so fragments that differ
// only in invisible characters share an entry.
//
// The cache is an optimization: storage failures are logged and treated as
// misses, never returned to the translator.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/sitetrans/core"
	"github.com/gaurav-prasanna/sitetrans/core/normalize"
)

// Pair is a source text and its translation.
type Pair struct {
	Text        string
	Translation string
}

// Cache wraps a CacheStore. A nil *Cache is valid and never hits.
type Cache struct {
	store core.CacheStore
	log   zerolog.Logger
	now   func() time.Time
}

// New creates a Cache on store.
func New(store core.CacheStore, logger zerolog.Logger) *Cache {
	return &Cache{
		store: store,
		log:   logger.With().Str("component", "cache").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Key returns the storage key for text translated from src to dst.
func Key(text, src, dst string) string {
	sum := sha256.Sum256([]byte(normalize.Key(text) + "|" + src + "|" + dst))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached translation of text.
func (c *Cache) Lookup(ctx context.Context, text, src, dst string) (string, bool) {
	found := c.LookupMany(ctx, []string{text}, src, dst)
	v, ok := found[normalize.Key(text)]
	return v, ok
}

// LookupMany returns cached translations keyed by normalize.Key of each
// input text.
func (c *Cache) LookupMany(ctx context.Context, texts []string, src, dst string) map[string]string {
	hits := make(map[string]string)
	if c == nil || len(texts) == 0 {
		return hits
	}

	byKey := make(map[string]string, len(texts))
	keys := make([]string, 0, len(texts))
	for _, text := range texts {
		k := Key(text, src, dst)
		if _, dup := byKey[k]; dup {
			continue
		}
		byKey[k] = normalize.Key(text)
		keys = append(keys, k)
	}

	stored, err := c.store.GetMany(ctx, keys)
	if err != nil {
		c.log.Warn().Err(err).Int("keys", len(keys)).Msg("cache lookup failed, treating as miss")
		return hits
	}
	for k, translation := range stored {
		if text, ok := byKey[k]; ok {
			hits[text] = translation
		}
	}
	return hits
}

// Store records one translation.
func (c *Cache) Store(ctx context.Context, text, src, dst, translation string) {
	c.StoreMany(ctx, []Pair{{Text: text, Translation: translation}}, src, dst)
}

// StoreMany records translations for one language pair.
func (c *Cache) StoreMany(ctx context.Context, pairs []Pair, src, dst string) {
	if c == nil || len(pairs) == 0 {
		return
	}
	now := c.now()
	entries := make([]core.CacheEntry, 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, core.CacheEntry{
			Key:         Key(p.Text, src, dst),
			Text:        normalize.Key(p.Text),
			Src:         src,
			Dst:         dst,
			Translation: p.Translation,
			CreatedAt:   now,
		})
	}
	if err := c.store.PutMany(ctx, entries); err != nil {
		c.log.Warn().Err(err).Int("entries", len(entries)).Msg("cache store failed, continuing without caching")
	}
}

// Stats reports store statistics.
func (c *Cache) Stats(ctx context.Context) (core.CacheStats, error) {
	if c == nil {
		return core.CacheStats{}, nil
	}
	return c.store.Stats(ctx)
}

// Clear removes all entries.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	if c == nil {
		return 0, nil
	}
	return c.store.Clear(ctx)
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.store.Close()
}
