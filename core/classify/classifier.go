// Package classify decides which fragments need translation.
//
// The destination-language check is a heuristic rather than a detector:
// short foreign strings made of common words can be skipped, and short
// destination-language strings without stopwords are sent for translation.
package classify

import (
	"regexp"
	"strings"
)

// Decision is the classifier verdict for one fragment.
type Decision int

const (
	Translate Decision = iota
	Skip
)

func (d Decision) String() string {
	if d == Skip {
		return "skip"
	}
	return "translate"
}

// Reason explains a Skip decision.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonEmpty       Reason = "empty"
	ReasonPunctuation Reason = "punctuation"
	ReasonTargetLang  Reason = "target_language"
)

// separators is the allow-list for punctuation-only fragments.
const separators = "|\u00B7\u2022\u2023\u00A0-\u2010\u2011\u2012\u2013\u2014\u2015\t "

const wordTrim = ".,!?'\"()-[]{}:;"

var asciiText = regexp.MustCompile(`^[a-zA-Z0-9\s.,!?'"()-]+$`)

var stopwords = map[string][]string{
	"en": {
		"the", "and", "of", "to", "a", "in", "is", "it", "for", "on",
		"with", "as", "at", "by", "from", "or", "an", "be", "this", "that",
	},
}

// Classifier is safe for concurrent use.
type Classifier struct {
	stopwords map[string]struct{}
}

// New returns a classifier for the destination language dst. The
// destination-language check is disabled for languages without a stopword
// list.
func New(dst string) *Classifier {
	c := &Classifier{}
	words, ok := stopwords[strings.ToLower(strings.TrimSpace(dst))]
	if !ok {
		return c
	}
	c.stopwords = make(map[string]struct{}, len(words))
	for _, w := range words {
		c.stopwords[w] = struct{}{}
	}
	return c
}

// Classify returns the decision for text.
func (c *Classifier) Classify(text string) Decision {
	d, _ := c.ClassifyReason(text)
	return d
}

// ClassifyReason returns the decision and, for Skip, why.
func (c *Classifier) ClassifyReason(text string) (Decision, Reason) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Skip, ReasonEmpty
	}
	if strings.Trim(trimmed, separators) == "" {
		return Skip, ReasonPunctuation
	}
	if c.looksLikeTarget(trimmed) {
		return Skip, ReasonTargetLang
	}
	return Translate, ReasonNone
}

func (c *Classifier) looksLikeTarget(text string) bool {
	if len(c.stopwords) == 0 || !asciiText.MatchString(text) {
		return false
	}

	var words, hits int
	for _, field := range strings.Fields(strings.ToLower(text)) {
		w := strings.Trim(field, wordTrim)
		if w == "" {
			continue
		}
		words++
		if _, ok := c.stopwords[w]; ok {
			hits++
		}
	}
	if words == 0 {
		return false
	}

	ratio := float64(hits) / float64(words)
	if words <= 4 {
		return hits >= 1 && ratio >= 0.25
	}
	return hits >= 2 && ratio >= 0.3
}
