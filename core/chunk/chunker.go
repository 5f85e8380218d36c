// Package chunk partitions pending fragments into backend batches.
// A batch is bounded by an item count and by an approximate token budget
// (about four characters per token).
package chunk

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxItems  = 20
	DefaultMaxTokens = 2000
)

// Chunker splits texts into order-preserving batches.
type Chunker struct {
	MaxItems  int // items per batch
	MaxTokens int // summed token estimate per batch
}

// New creates a Chunker. Non-positive limits fall back to the defaults.
func New(maxItems, maxTokens int) *Chunker {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Chunker{MaxItems: maxItems, MaxTokens: maxTokens}
}

// EstimateTokens approximates the token count of text. Non-empty text is
// at least one token.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n == 0 {
		return 0
	}
	return max(1, (n+3)/4)
}

// Split groups the positions of texts into consecutive batches. A text
// whose estimate alone exceeds MaxTokens forms a batch by itself.
func (c *Chunker) Split(texts []string) [][]int {
	var batches [][]int
	var current []int
	tokens := 0

	for i, text := range texts {
		est := EstimateTokens(text)
		full := len(current) >= c.MaxItems || tokens+est > c.MaxTokens
		if len(current) > 0 && full {
			batches = append(batches, current)
			current, tokens = nil, 0
		}
		current = append(current, i)
		tokens += est
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
