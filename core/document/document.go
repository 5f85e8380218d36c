// Package document wraps a parsed HTML tree with a flat table of
// addressable text and attribute slots. Slots are referenced by index, so
// writers target the exact location that was extracted even when the same
// text appears more than once on a page.
package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/sitetrans/core"
)

type slot struct {
	kind core.ItemKind
	node *html.Node
	attr string
}

// Document is a parsed HTML page. It is not safe for concurrent use.
type Document struct {
	doc   *goquery.Document
	slots []slot
}

// Parse reads HTML from r.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString parses an HTML string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.doc.Nodes[0]
}

// Find runs a CSS selector against the whole document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// FindMatcher runs a precompiled matcher against the whole document.
func (d *Document) FindMatcher(m goquery.Matcher) *goquery.Selection {
	return d.doc.FindMatcher(m)
}

// Reset drops all registered slots.
func (d *Document) Reset() {
	d.slots = d.slots[:0]
}

// AddText registers a text node slot and returns its index.
func (d *Document) AddText(n *html.Node) (int, error) {
	if n == nil || n.Type != html.TextNode {
		return 0, fmt.Errorf("slot target is not a text node")
	}
	d.slots = append(d.slots, slot{kind: core.TextNode, node: n})
	return len(d.slots) - 1, nil
}

// AddAttr registers an attribute slot on element n and returns its index.
func (d *Document) AddAttr(n *html.Node, attr string) (int, error) {
	if n == nil || n.Type != html.ElementNode {
		return 0, fmt.Errorf("slot target is not an element")
	}
	if attr == "" {
		return 0, fmt.Errorf("attribute name is required")
	}
	d.slots = append(d.slots, slot{kind: core.Attribute, node: n, attr: attr})
	return len(d.slots) - 1, nil
}

// Len returns the number of registered slots.
func (d *Document) Len() int {
	return len(d.slots)
}

// Kind returns the kind of slot i.
func (d *Document) Kind(i int) (core.ItemKind, error) {
	s, err := d.slot(i)
	if err != nil {
		return 0, err
	}
	return s.kind, nil
}

// Get returns the current string content of slot i.
func (d *Document) Get(i int) (string, error) {
	s, err := d.slot(i)
	if err != nil {
		return "", err
	}
	if s.kind == core.TextNode {
		return s.node.Data, nil
	}
	for _, a := range s.node.Attr {
		if a.Namespace == "" && a.Key == s.attr {
			return a.Val, nil
		}
	}
	return "", nil
}

// Set overwrites the string content of slot i.
func (d *Document) Set(i int, value string) error {
	s, err := d.slot(i)
	if err != nil {
		return err
	}
	if s.kind == core.TextNode {
		s.node.Data = value
		return nil
	}
	setAttr(s.node, s.attr, value)
	return nil
}

// Render serializes the document. The same tree always renders to the same
// bytes.
func (d *Document) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.Root()); err != nil {
		return nil, fmt.Errorf("rendering HTML: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *Document) slot(i int) (slot, error) {
	if i < 0 || i >= len(d.slots) {
		return slot{}, fmt.Errorf("slot %d out of range (have %d)", i, len(d.slots))
	}
	return d.slots[i], nil
}

func setAttr(n *html.Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}
