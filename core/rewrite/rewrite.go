// Package rewrite writes translation results back into a document: fragment
// text, internal links and the language marker.
package rewrite

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/sitetrans/core"
	"github.com/gaurav-prasanna/sitetrans/core/document"
)

// Apply writes texts[i] into the slot of items[i]. The whitespace that
// surrounded the original fragment is kept, so spacing next to inline
// elements survives translation.
func Apply(doc *document.Document, items []core.TranslatableItem, texts []string) error {
	if len(items) != len(texts) {
		return fmt.Errorf("have %d items but %d texts", len(items), len(texts))
	}
	for i, it := range items {
		if err := doc.Set(it.Index, KeepWhitespace(it.Text, texts[i])); err != nil {
			return fmt.Errorf("writing item %d: %w", i, err)
		}
	}
	return nil
}

// KeepWhitespace returns translated surrounded by the leading and trailing
// whitespace of original.
func KeepWhitespace(original, translated string) string {
	body := strings.TrimFunc(original, unicode.IsSpace)
	if body == "" {
		return original
	}
	lead := original[:len(original)-len(strings.TrimLeftFunc(original, unicode.IsSpace))]
	trail := original[len(lead)+len(body):]
	return lead + strings.TrimFunc(translated, unicode.IsSpace) + trail
}

// linkAttrs lists the reference attributes that are rewritten.
var linkAttrs = []struct {
	selector string
	attr     string
}{
	{"a[href]", "href"},
	{"area[href]", "href"},
	{"link[href]", "href"},
	{"form[action]", "action"},
}

// LinkRewriter moves internal links from one language path segment to
// another.
type LinkRewriter struct {
	From string // e.g. "/de/"
	To   string // e.g. "/en/"
	Host string // absolute links on this host are rewritten too; empty disables
}

// Rewrite updates every reference attribute in doc and returns how many
// values changed.
func (r LinkRewriter) Rewrite(doc *document.Document) int {
	from := segmentPrefix(r.From)
	to := segmentPrefix(r.To)
	if from == "/" || from == to {
		return 0
	}

	changed := 0
	for _, la := range linkAttrs {
		doc.Find(la.selector).Each(func(_ int, s *goquery.Selection) {
			val, _ := s.Attr(la.attr)
			if next, ok := r.rewrite(strings.TrimSpace(val), from, to); ok {
				s.SetAttr(la.attr, next)
				changed++
			}
		})
	}
	return changed
}

// RewriteValue rewrites a single reference value.
func (r LinkRewriter) RewriteValue(ref string) (string, bool) {
	return r.rewrite(strings.TrimSpace(ref), segmentPrefix(r.From), segmentPrefix(r.To))
}

func (r LinkRewriter) rewrite(ref, from, to string) (string, bool) {
	if ref == "" {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}

	// The swap works on the reference text as written so escapes such as
	// %2F and raw non-ASCII characters come out unchanged.
	var raw string
	switch {
	case u.Scheme == "" && u.Host == "":
		if !strings.HasPrefix(ref, "/") {
			return "", false
		}
		raw = ref
	case (u.Scheme == "http" || u.Scheme == "https") && r.Host != "" && strings.EqualFold(u.Hostname(), r.Host):
		raw = afterAuthority(ref)
	default:
		return "", false
	}

	path, rest := raw, ""
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		path, rest = raw[:i], raw[i:]
	}
	p, ok := swapSegment(path, from, to)
	if !ok {
		return "", false
	}
	return p + rest, true
}

// afterAuthority returns the part of an absolute reference following
// scheme://host.
func afterAuthority(ref string) string {
	i := strings.Index(ref, "://")
	if i < 0 {
		return ""
	}
	tail := ref[i+3:]
	j := strings.IndexAny(tail, "/?#")
	if j < 0 {
		return ""
	}
	return tail[j:]
}

// swapSegment replaces the leading from segment of p with to. "/de" and
// "/de/..." match; "/deposit/..." does not.
func swapSegment(p, from, to string) (string, bool) {
	bare := strings.TrimSuffix(from, "/")
	switch {
	case p == bare:
		return strings.TrimSuffix(to, "/"), true
	case strings.HasPrefix(p, from):
		return to + p[len(from):], true
	default:
		return "", false
	}
}

// segmentPrefix normalizes "de", "/de" or "/de/" to "/de/".
func segmentPrefix(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "/")
	if s == "" {
		return "/"
	}
	return "/" + s + "/"
}

// SetCharset declares UTF-8 in the document's meta tags. Fetched pages are
// decoded to UTF-8 before parsing, so a leftover iso-8859-1 declaration
// would be wrong for the written copy.
func SetCharset(doc *document.Document) {
	doc.Find("meta[charset]").SetAttr("charset", "utf-8")
	doc.Find("meta[http-equiv]").Each(func(_ int, s *goquery.Selection) {
		equiv, _ := s.Attr("http-equiv")
		if strings.EqualFold(strings.TrimSpace(equiv), "content-type") {
			s.SetAttr("content", "text/html; charset=utf-8")
		}
	})
}

// SetLanguage sets the lang attribute of the root element, and xml:lang
// when the page already carries one.
func SetLanguage(doc *document.Document, lang string) {
	root := doc.Find("html").First()
	root.SetAttr("lang", lang)
	if _, ok := root.Attr("xml:lang"); ok {
		root.SetAttr("xml:lang", lang)
	}
}
