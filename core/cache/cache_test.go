package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/sitetrans/core"
)

func openTestCache(t *testing.T, path string) *Cache {
	t.Helper()
	store, err := OpenStore(context.Background(), path, "silent")
	require.NoError(t, err)
	c := New(store, zerolog.Nop())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLookupAfterStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := openTestCache(t, filepath.Join(t.TempDir(), "cache.db"))

	_, ok := c.Lookup(ctx, "Hallo", "de", "en")
	assert.False(t, ok)

	c.Store(ctx, "Hallo", "de", "en", "Hello")

	got, ok := c.Lookup(ctx, "Hallo", "de", "en")
	require.True(t, ok)
	assert.Equal(t, "Hello", got)

	_, ok = c.Lookup(ctx, "Hallo", "de", "fr")
	assert.False(t, ok, "language pair is part of the key")
}

func TestNormalizationSharesEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := openTestCache(t, filepath.Join(t.TempDir(), "cache.db"))

	assert.Equal(t, Key("Über\u00ADsetzung", "de", "en"), Key("Übersetzung", "de", "en"))

	c.Store(ctx, "Über\u00ADsetzung", "de", "en", "Translation")
	got, ok := c.Lookup(ctx, "Übersetzung", "de", "en")
	require.True(t, ok)
	assert.Equal(t, "Translation", got)
}

func TestFirstWriteWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := openTestCache(t, filepath.Join(t.TempDir(), "cache.db"))

	c.Store(ctx, "Haus", "de", "en", "house")
	c.Store(ctx, "Haus", "de", "en", "home")

	got, _ := c.Lookup(ctx, "Haus", "de", "en")
	assert.Equal(t, "house", got)
}

func TestSurvivesReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := OpenStore(ctx, path, "silent")
	require.NoError(t, err)
	first := New(store, zerolog.Nop())
	first.StoreMany(ctx, []Pair{{Text: "Eins", Translation: "One"}, {Text: "Zwei", Translation: "Two"}}, "de", "en")
	require.NoError(t, first.Close())

	second := openTestCache(t, path)
	hits := second.LookupMany(ctx, []string{"Eins", " Zwei ", "Drei"}, "de", "en")
	assert.Equal(t, map[string]string{"Eins": "One", "Zwei": "Two"}, hits)
}

func TestStatsAndClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := openTestCache(t, filepath.Join(t.TempDir(), "cache.db"))

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
	assert.Nil(t, stats.Oldest)

	c.StoreMany(ctx, []Pair{{Text: "a b", Translation: "x"}, {Text: "c d", Translation: "y"}}, "de", "en")
	stats, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Entries)
	require.NotNil(t, stats.Oldest)
	require.NotNil(t, stats.Newest)
	assert.False(t, stats.Newest.Before(*stats.Oldest))

	removed, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	_, ok := c.Lookup(ctx, "a b", "de", "en")
	assert.False(t, ok)
}

type brokenStore struct{}

func (brokenStore) GetMany(context.Context, []string) (map[string]string, error) {
	return nil, errors.New("disk gone")
}
func (brokenStore) PutMany(context.Context, []core.CacheEntry) error { return errors.New("disk gone") }
func (brokenStore) Clear(context.Context) (int64, error)            { return 0, errors.New("disk gone") }
func (brokenStore) Stats(context.Context) (core.CacheStats, error) {
	return core.CacheStats{}, errors.New("disk gone")
}
func (brokenStore) Close() error { return nil }

func TestUnavailableStoreIsAMiss(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := New(brokenStore{}, zerolog.Nop())

	c.Store(ctx, "Hallo", "de", "en", "Hello")
	_, ok := c.Lookup(ctx, "Hallo", "de", "en")
	assert.False(t, ok)
}

func TestNilCache(t *testing.T) {
	t.Parallel()
	var c *Cache

	c.Store(context.Background(), "Hallo", "de", "en", "Hello")
	assert.Empty(t, c.LookupMany(context.Background(), []string{"Hallo"}, "de", "en"))
	assert.NoError(t, c.Close())
}
