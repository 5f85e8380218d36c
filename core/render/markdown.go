// Package render provides run report renderers.
// Each renderer turns a core.RunReport into one persisted format.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/gaurav-prasanna/sitetrans/core"
)

// MarkdownRenderer writes the report as a Markdown document with a
// summary table and one row per URL.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render formats the report as Markdown.
func (r *MarkdownRenderer) Render(report *core.RunReport) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Translation run %s\n\n", report.RunID)
	fmt.Fprintf(&b, "- Languages: %s → %s\n", report.SourceLang, report.TargetLang)
	fmt.Fprintf(&b, "- Started: %s\n", report.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Finished: %s\n", report.FinishedAt.UTC().Format(time.RFC3339))
	if report.DryRun {
		b.WriteString("- Mode: dry run\n")
	}
	if report.Aborted {
		b.WriteString("- **Run aborted before all URLs were processed**\n")
	}

	b.WriteString("\n## Summary\n\n")
	b.WriteString("| Total | Processed | Success | Skipped | Failed |\n")
	b.WriteString("|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d |\n\n",
		report.Total, report.Processed, report.Success, report.Skipped, report.Failed)

	s := report.Stats
	b.WriteString("| Texts | Skipped | Cache hits | Pending | Translated | Batches |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d |\n",
		s.Texts, s.Skipped, s.CacheHits, s.Pending, s.Translated, s.Batches)

	if len(report.Outcomes) > 0 {
		b.WriteString("\n## URLs\n\n")
		b.WriteString("| URL | Status | Stage | Reason |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, o := range report.Outcomes {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(o.URL), o.Status, o.Stage, cell(o.Reason))
		}
	}

	if len(report.NotProcessed) > 0 {
		b.WriteString("\n## Not processed\n\n")
		for _, u := range report.NotProcessed {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}

	return []byte(b.String()), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

// cell escapes a value for use inside a Markdown table.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
