package render

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/sitetrans/core"
)

// Formats lists the supported report formats.
var Formats = []string{"json", "markdown", "pdf"}

// ForFormat returns the renderer for a report format name.
func ForFormat(format string) (core.Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "":
		return NewJSONRenderer(), nil
	case "markdown", "md":
		return NewMarkdownRenderer(), nil
	case "pdf":
		return NewPDFRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}
