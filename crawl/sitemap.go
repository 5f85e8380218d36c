// Package crawl loads the list of URLs a batch run works through.
// Sources are sitemap files (JSON or XML) on disk or over HTTP, or a
// bounded link crawl from a start page.
package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// SitemapOptions scope the URLs taken from a sitemap.
type SitemapOptions struct {
	Host       string // keep only URLs on this host; empty keeps all
	SourceLang string // keep only URLs under /<SourceLang>; empty keeps all
	Limit      int    // 0 means no limit
	Client     *http.Client
}

// sitemapURL holds a URL from a sitemap.xml.
type sitemapURL struct {
	Loc string `xml:"loc"`
}

// urlSet is the root element of a sitemap.xml.
type urlSet struct {
	URLs []sitemapURL `xml:"url"`
}

// LoadSitemap reads source (a file path or http(s) URL) and returns the
// filtered, normalized, deduplicated and sorted page URLs.
func LoadSitemap(ctx context.Context, source string, opts SitemapOptions) ([]string, error) {
	data, err := readSource(ctx, source, opts.Client)
	if err != nil {
		return nil, err
	}

	raw, err := ParseSitemap(data)
	if err != nil {
		return nil, fmt.Errorf("parsing sitemap %s: %w", source, err)
	}
	return Filter(raw, opts), nil
}

// ParseSitemap accepts JSON (an array of strings, an array of objects with
// "url" or "loc", or an object with a "urls" array) or an XML urlset.
func ParseSitemap(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '<' {
		var set urlSet
		if err := xml.Unmarshal(trimmed, &set); err != nil {
			return nil, err
		}
		urls := make([]string, 0, len(set.URLs))
		for _, u := range set.URLs {
			urls = append(urls, u.Loc)
		}
		return urls, nil
	}

	if trimmed[0] == '{' {
		var wrapper struct {
			URLs json.RawMessage `json:"urls"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, err
		}
		if wrapper.URLs == nil {
			return nil, fmt.Errorf(`object sitemap has no "urls" field`)
		}
		trimmed = wrapper.URLs
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			urls = append(urls, s)
			continue
		}
		var obj struct {
			URL string `json:"url"`
			Loc string `json:"loc"`
		}
		if err := json.Unmarshal(e, &obj); err != nil {
			return nil, fmt.Errorf("unsupported sitemap entry %s", string(e))
		}
		if obj.URL != "" {
			urls = append(urls, obj.URL)
		} else if obj.Loc != "" {
			urls = append(urls, obj.Loc)
		}
	}
	return urls, nil
}

// Filter applies the host, language and asset rules, then dedupes, sorts
// and truncates to the limit.
func Filter(urls []string, opts SitemapOptions) []string {
	// The limit applies after sorting, so the frontier itself is unbounded.
	f := NewFrontier(Scope{Host: opts.Host, Lang: opts.SourceLang}, 0)
	for _, u := range urls {
		f.Offer(u)
	}

	out := f.Sorted()
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func readSource(ctx context.Context, source string, client *http.Client) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("reading sitemap: %w", err)
		}
		return data, nil
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching sitemap: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sitemap returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
