// Package normalize strips invisible formatting characters from fragment
// text so that visually identical strings share one cache entry.
package normalize

import "strings"

// invisible lists the characters removed by Text: soft hyphen, zero-width
// space, zero-width non-joiner and zero-width joiner.
var invisible = strings.NewReplacer(
	"\u00AD", "",
	"\u200B", "",
	"\u200C", "",
	"\u200D", "",
)

// Text removes invisible formatting characters. It is idempotent.
func Text(s string) string {
	return invisible.Replace(s)
}

// Key returns the form of s used for cache keys and backend input:
// normalized and trimmed of surrounding whitespace.
func Key(s string) string {
	return strings.TrimSpace(Text(s))
}
