package render

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/sitetrans/core"
)

func sampleReport() *core.RunReport {
	start := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	r := &core.RunReport{
		RunID:      "run-1",
		SourceLang: "de",
		TargetLang: "en",
		StartedAt:  start,
		FinishedAt: start.Add(time.Minute),
		Total:      3,
	}
	r.Record(core.Outcome{URL: "https://h/de/a", Status: core.StatusSuccess, Stage: core.StageDone, Stats: core.PageStats{Texts: 4, Translated: 3, Skipped: 1}})
	r.Record(core.Outcome{URL: "https://h/de/b", Status: core.StatusFailed, Stage: core.StageFetching, Reason: "timeout | retries"})
	r.Record(core.Outcome{URL: "https://h/de/c.pdf", Status: core.StatusSkipped, Stage: core.StageFetching, Reason: "non-document"})
	return r
}

func TestForFormat(t *testing.T) {
	t.Parallel()

	for format, ext := range map[string]string{"json": ".json", "markdown": ".md", "md": ".md", "PDF": ".pdf", "": ".json"} {
		r, err := ForFormat(format)
		require.NoError(t, err, format)
		assert.Equal(t, ext, r.Extension(), format)
	}
	_, err := ForFormat("xml")
	assert.Error(t, err)
}

func TestJSONRenderer(t *testing.T) {
	t.Parallel()

	data, err := NewJSONRenderer().Render(sampleReport())
	require.NoError(t, err)

	var decoded struct {
		RunID    string `json:"run_id"`
		Success  int    `json:"success"`
		Failed   int    `json:"failed"`
		Outcomes []struct {
			URL    string `json:"url"`
			Status string `json:"status"`
		} `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 1, decoded.Success)
	assert.Equal(t, 1, decoded.Failed)
	require.Len(t, decoded.Outcomes, 3)
	assert.Equal(t, "failed", decoded.Outcomes[1].Status)
}

func TestMarkdownRenderer(t *testing.T) {
	t.Parallel()

	data, err := NewMarkdownRenderer().Render(sampleReport())
	require.NoError(t, err)
	md := string(data)
	assert.Contains(t, md, "# Translation run run-1")
	assert.Contains(t, md, "| 3 | 3 | 1 | 1 | 1 |")
	assert.Contains(t, md, `| https://h/de/b | failed | fetching | timeout \| retries |`)
	assert.NotContains(t, md, "## Not processed")
}

func TestMarkdownRendererListsNotProcessed(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Total = 5
	r.Aborted = true
	r.NotProcessed = []string{"https://h/de/d", "https://h/de/e"}

	data, err := NewMarkdownRenderer().Render(r)
	require.NoError(t, err)
	md := string(data)
	assert.Contains(t, md, "## Not processed\n\n- https://h/de/d\n- https://h/de/e\n")

	pdf, err := NewPDFRenderer().Render(r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestPDFRenderer(t *testing.T) {
	t.Parallel()

	data, err := NewPDFRenderer().Render(sampleReport())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
