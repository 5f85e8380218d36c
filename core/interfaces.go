// Package core defines the shared types and stage interfaces for sitetrans.
// Each stage of the translation pipeline sits behind a small interface so it
// can be replaced in tests or swapped for another implementation.
package core

import (
	"context"
	"time"
)

// FetchResult holds the decoded HTML and response metadata from a fetch.
type FetchResult struct {
	URL         string // requested URL
	FinalURL    string // URL after redirects
	StatusCode  int
	ContentType string
	Encoding    string // charset the body was decoded from
	HTML        string // UTF-8 document text
	Raw         []byte // body bytes as received
}

// ItemKind discriminates the two kinds of translatable locations.
type ItemKind int

const (
	TextNode ItemKind = iota
	Attribute
)

func (k ItemKind) String() string {
	switch k {
	case TextNode:
		return "text"
	case Attribute:
		return "attribute"
	default:
		return "unknown"
	}
}

// TranslatableItem is one extracted fragment. Index addresses the slot in
// the owning document's slot table; it stays valid until the document is
// discarded.
type TranslatableItem struct {
	Index int
	Kind  ItemKind
	Attr  string // attribute name, empty for text nodes
	Text  string // raw text at extraction time
}

// Fetcher retrieves an HTML document from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Backend translates an ordered list of strings. The returned slice must
// have the same length and order as texts.
type Backend interface {
	Name() string
	TranslateBatch(ctx context.Context, texts []string, src, dst string) ([]string, error)
}

// HealthChecker is implemented by backends that can verify credentials and
// model availability before a run starts.
type HealthChecker interface {
	Check(ctx context.Context, src, dst string) error
}

// CacheEntry is one stored translation.
type CacheEntry struct {
	Key         string
	Text        string
	Src         string
	Dst         string
	Translation string
	CreatedAt   time.Time
}

// CacheStats summarizes a cache store.
type CacheStats struct {
	Entries int64      `json:"entries"`
	Oldest  *time.Time `json:"oldest,omitempty"`
	Newest  *time.Time `json:"newest,omitempty"`
}

// CacheStore is the durable key-value storage behind the translation cache.
type CacheStore interface {
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	PutMany(ctx context.Context, entries []CacheEntry) error
	Clear(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (CacheStats, error)
	Close() error
}

// Renderer converts a run report into a persisted output format.
type Renderer interface {
	Render(report *RunReport) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".json", ".pdf").
	Extension() string
}
