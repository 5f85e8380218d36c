// PDF rendering of the run report with gofpdf. Each URL line is colored by outcome.

package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/gaurav-prasanna/sitetrans/core"
)

// PDFRenderer renders a run report as a PDF document.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render converts the report into PDF bytes.
func (r *PDFRenderer) Render(report *core.RunReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 8, "Translation run report", "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	meta := fmt.Sprintf("Run %s  |  %s -> %s  |  %s to %s",
		report.RunID, report.SourceLang, report.TargetLang,
		report.StartedAt.UTC().Format(time.RFC3339), report.FinishedAt.UTC().Format(time.RFC3339))
	pdf.MultiCell(0, 5, tr(meta), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	if report.DryRun || report.Aborted {
		pdf.SetFont("Helvetica", "B", 10)
		if report.DryRun {
			pdf.MultiCell(0, 5, "Dry run: no pages were translated or written.", "", "L", false)
		}
		if report.Aborted {
			pdf.SetTextColor(180, 0, 0)
			pdf.MultiCell(0, 5, "Run aborted before all URLs were processed.", "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.Ln(2)
	}

	renderHeading(pdf, "Summary")
	summary := [][2]string{
		{"Total URLs", fmt.Sprint(report.Total)},
		{"Processed", fmt.Sprint(report.Processed)},
		{"Success", fmt.Sprint(report.Success)},
		{"Skipped", fmt.Sprint(report.Skipped)},
		{"Failed", fmt.Sprint(report.Failed)},
		{"Texts", fmt.Sprint(report.Stats.Texts)},
		{"Cache hits", fmt.Sprint(report.Stats.CacheHits)},
		{"Translated", fmt.Sprint(report.Stats.Translated)},
		{"Backend batches", fmt.Sprint(report.Stats.Batches)},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range summary {
		pdf.CellFormat(50, 6, row[0], "B", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, row[1], "B", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	if len(report.Outcomes) > 0 {
		renderHeading(pdf, "URLs")
		for _, o := range report.Outcomes {
			setStatusColor(pdf, o.Status)
			pdf.SetFont("Helvetica", "B", 9)
			pdf.CellFormat(20, 5, string(o.Status), "", 0, "L", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
			pdf.SetFont("Helvetica", "", 9)
			line := o.URL
			if o.Reason != "" {
				line += "  (" + o.Reason + ")"
			}
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
	}

	if len(report.NotProcessed) > 0 {
		pdf.Ln(4)
		renderHeading(pdf, "Not processed")
		pdf.SetFont("Helvetica", "", 9)
		for _, u := range report.NotProcessed {
			pdf.MultiCell(0, 5, tr(u), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

func renderHeading(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.MultiCell(0, 7, text, "", "L", false)
	pdf.Ln(1)
}

func setStatusColor(pdf *gofpdf.Fpdf, status core.Status) {
	switch status {
	case core.StatusSuccess:
		pdf.SetTextColor(0, 130, 0)
	case core.StatusSkipped:
		pdf.SetTextColor(150, 110, 0)
	default:
		pdf.SetTextColor(180, 0, 0)
	}
}
