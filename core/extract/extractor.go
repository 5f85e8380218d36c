// Package extract walks a parsed page and registers every translatable
// location on it:
//  1. Visible text nodes inside content elements (headings, paragraphs, links, ...)
//  2. Descriptive attributes (alt, title, placeholder, aria-label)
//  3. The content of description and social-preview <meta> tags
//
// Script, style and code regions never produce items.
package extract

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gaurav-prasanna/sitetrans/core"
	"github.com/gaurav-prasanna/sitetrans/core/document"
)

// contentTags are the elements whose descendant text is translated.
var contentTags = map[atom.Atom]bool{
	atom.Title: true,
	atom.H1:    true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.P: true, atom.Li: true, atom.A: true, atom.Span: true,
	atom.Strong: true, atom.Em: true, atom.B: true, atom.I: true,
	atom.Blockquote: true, atom.Td: true, atom.Th: true,
	atom.Figcaption: true, atom.Button: true, atom.Label: true,
	atom.Dt: true, atom.Dd: true, atom.Caption: true, atom.Summary: true,
}

// blockedTags hide their text from extraction.
var blockedTags = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Code: true, atom.Pre: true,
	atom.Noscript: true, atom.Textarea: true, atom.Template: true,
}

var translatableAttrs = []string{"alt", "title", "placeholder", "aria-label"}

var (
	metaSelector = cascadia.MustCompile("meta[content]")

	metaNames = map[string]bool{
		"description": true,
		"keywords":    true,
	}
	metaProperties = map[string]bool{
		"og:title":            true,
		"og:description":      true,
		"og:image:alt":        true,
		"twitter:title":       true,
		"twitter:description": true,
	}
)

// FragmentExtractor registers translatable slots on a document.
type FragmentExtractor struct{}

// New creates a FragmentExtractor.
func New() *FragmentExtractor {
	return &FragmentExtractor{}
}

// Extract registers the translatable slots of doc in pre-order and returns
// one item per slot. An element's attribute slots come before the text of
// its children. Any slots registered by an earlier call are dropped first,
// so repeated calls on an unmodified document return the same items.
func (e *FragmentExtractor) Extract(doc *document.Document) ([]core.TranslatableItem, error) {
	doc.Reset()

	var items []core.TranslatableItem
	var walk func(n *html.Node, inContent, blocked bool) error
	walk = func(n *html.Node, inContent, blocked bool) error {
		switch n.Type {
		case html.TextNode:
			if inContent && !blocked && isTranslatableText(n.Data) {
				idx, err := doc.AddText(n)
				if err != nil {
					return err
				}
				items = append(items, core.TranslatableItem{Index: idx, Kind: core.TextNode, Text: n.Data})
			}
			return nil

		case html.ElementNode:
			for _, name := range attributeSlots(n) {
				idx, err := doc.AddAttr(n, name)
				if err != nil {
					return err
				}
				val, _ := doc.Get(idx)
				items = append(items, core.TranslatableItem{Index: idx, Kind: core.Attribute, Attr: name, Text: val})
			}
			if blockedTags[n.DataAtom] {
				blocked = true
			}
			if contentTags[n.DataAtom] {
				inContent = true
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := walk(c, inContent, blocked); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(doc.Root(), false, false); err != nil {
		return nil, fmt.Errorf("extracting fragments: %w", err)
	}
	return items, nil
}

// attributeSlots returns the names of the translatable attributes on n.
func attributeSlots(n *html.Node) []string {
	var names []string
	for _, name := range translatableAttrs {
		if v, ok := attr(n, name); ok && strings.TrimSpace(v) != "" {
			names = append(names, name)
		}
	}
	if metaSelector.Match(n) && isTranslatableMeta(n) {
		if v, _ := attr(n, "content"); strings.TrimSpace(v) != "" {
			names = append(names, "content")
		}
	}
	return names
}

func isTranslatableMeta(n *html.Node) bool {
	if name, ok := attr(n, "name"); ok && metaNames[strings.ToLower(strings.TrimSpace(name))] {
		return true
	}
	if prop, ok := attr(n, "property"); ok && metaProperties[strings.ToLower(strings.TrimSpace(prop))] {
		return true
	}
	return false
}

// isTranslatableText drops whitespace-only nodes and markup that leaked
// into text (e.g. unparsed fragments).
func isTranslatableText(s string) bool {
	return strings.TrimSpace(s) != "" && !strings.Contains(s, "<")
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
