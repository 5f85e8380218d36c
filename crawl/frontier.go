package crawl

import (
	"sort"
	"strings"
)

// Scope decides which URLs belong to a translation run: http(s) pages on
// Host below the /<Lang> segment that are not static assets. An empty
// Host admits any host.
type Scope struct {
	Host string
	Lang string
}

// Admits reports whether rawURL is in scope.
func (s Scope) Admits(rawURL string) bool {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return false
	}
	if s.Host != "" && !IsSameHost(rawURL, s.Host) {
		return false
	}
	return InLanguage(rawURL, s.Lang) && !IsStaticAsset(rawURL)
}

// Frontier collects in-scope page URLs in discovery order. URLs are
// normalized before deduplication, so "/de/a/" and "/de/a#top" are one
// page. Once limit URLs are held, further offers are refused; a limit of
// zero means no bound.
type Frontier struct {
	scope Scope
	limit int
	urls  []string
	seen  map[string]struct{}
	next  int
}

// NewFrontier creates an empty Frontier.
func NewFrontier(scope Scope, limit int) *Frontier {
	return &Frontier{scope: scope, limit: limit, seen: make(map[string]struct{})}
}

// Seed adds rawURL without checking the scope.
func (f *Frontier) Seed(rawURL string) bool {
	return f.add(NormalizeURL(strings.TrimSpace(rawURL)))
}

// Offer adds rawURL when it is in scope, new and the frontier is not full.
func (f *Frontier) Offer(rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || !f.scope.Admits(rawURL) {
		return false
	}
	return f.add(NormalizeURL(rawURL))
}

func (f *Frontier) add(u string) bool {
	if u == "" || f.Full() {
		return false
	}
	if _, dup := f.seen[u]; dup {
		return false
	}
	f.seen[u] = struct{}{}
	f.urls = append(f.urls, u)
	return true
}

// Full reports whether the limit is reached.
func (f *Frontier) Full() bool {
	return f.limit > 0 && len(f.urls) >= f.limit
}

// Pop returns the oldest URL not yet popped.
func (f *Frontier) Pop() (string, bool) {
	if f.next >= len(f.urls) {
		return "", false
	}
	u := f.urls[f.next]
	f.next++
	return u, true
}

// Sorted returns every collected URL in lexical order.
func (f *Frontier) Sorted() []string {
	out := append([]string(nil), f.urls...)
	sort.Strings(out)
	return out
}
