package crawl

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/sitetrans/core"
)

// DefaultMaxPages bounds a link crawl.
const DefaultMaxPages = 100

// Discover performs a BFS crawl from startURL through internal links,
// keeping pages on the same host under the /<sourceLang> segment.
// Pages that fail to fetch are skipped. The result is sorted.
func Discover(ctx context.Context, startURL, sourceLang string, maxPages int, fetcher core.Fetcher, logger zerolog.Logger) ([]string, error) {
	parsed, err := url.Parse(startURL)
	if err != nil {
		return nil, err
	}
	host := parsed.Host
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	frontier := NewFrontier(Scope{Host: host, Lang: sourceLang}, maxPages)
	frontier.Seed(startURL)

	for {
		currentURL, ok := frontier.Pop()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := fetcher.Fetch(ctx, currentURL)
		if err != nil {
			logger.Debug().Err(err).Str("url", currentURL).Msg("crawl fetch failed")
			continue
		}

		links, err := extractLinks(result.HTML, currentURL)
		if err != nil {
			continue
		}

		for _, link := range links {
			if frontier.Full() {
				break
			}
			frontier.Offer(link)
		}
	}
	return frontier.Sorted(), nil
}

// extractLinks extracts all href values from <a> tags, resolving relative URLs.
func extractLinks(html string, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	base, _ := url.Parse(baseURL)
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}

		if resolved := resolveURL(href, base); resolved != "" {
			links = append(links, resolved)
		}
	})

	return links, nil
}

// resolveURL resolves a potentially relative URL against a base.
func resolveURL(href string, base *url.URL) string {
	if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "#") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	resolved.Fragment = ""
	return resolved.String()
}
