// Package review produces Markdown copies of translated pages so a human
// reviewer can read the translation without a browser.
package review

import (
	"fmt"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// MarkdownConverter converts HTML pages to Markdown using html-to-markdown.
type MarkdownConverter struct{}

// New creates a MarkdownConverter.
func New() *MarkdownConverter {
	return &MarkdownConverter{}
}

// Convert renders a full HTML page as Markdown.
func (c *MarkdownConverter) Convert(html []byte) ([]byte, error) {
	markdown, err := htmltomarkdown.ConvertString(string(html))
	if err != nil {
		return nil, fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return []byte(markdown), nil
}
