// Package output handles file naming and writing for sitetrans outputs.
// Pages are mirrored into one tree per language:
//
//	https://site/de/kurse/        → <out>/de/kurse/index.html
//	https://site/de/kurse/seminar → <out>/en/kurse/seminar.html
//
// The same package writes the failed-URL manifest, review copies and run
// reports.
package output

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gaurav-prasanna/sitetrans/core"
)

const (
	ManifestName = "failed_urls.txt"
	reviewDir    = "review"
	reportBase   = "report"
)

// Writer writes pages and run artifacts below OutputDir.
type Writer struct {
	OutputDir  string
	SourceLang string
	TargetLang string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir, srcLang, dstLang string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir, SourceLang: srcLang, TargetLang: dstLang}, nil
}

// RelativePath maps a page URL to its path inside a language tree. The
// leading source-language segment is dropped, directory URLs map to
// index.html and a missing .html extension is added.
func (w *Writer) RelativePath(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing URL: %w", err)
	}

	p := parsed.Path
	dirLike := p == "" || strings.HasSuffix(p, "/")
	p = strings.TrimPrefix(p, "/")
	if prefix := w.SourceLang + "/"; w.SourceLang != "" && (strings.HasPrefix(p, prefix) || p == w.SourceLang) {
		p = strings.TrimPrefix(strings.TrimPrefix(p, w.SourceLang), "/")
		if p == "" {
			dirLike = true
		}
	}

	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("path %q escapes the output directory", parsed.Path)
		}
	}

	if dirLike {
		p = path.Join(p, "index.html")
	} else if !strings.HasSuffix(strings.ToLower(p), ".html") {
		p += ".html"
	}
	return path.Clean(p), nil
}

// PagePaths returns the absolute source and destination file paths for a
// page URL.
func (w *Writer) PagePaths(rawURL string) (src, dst string, err error) {
	rel, err := w.RelativePath(rawURL)
	if err != nil {
		return "", "", err
	}
	src, err = w.within(w.SourceLang, rel)
	if err != nil {
		return "", "", err
	}
	dst, err = w.within(w.TargetLang, rel)
	if err != nil {
		return "", "", err
	}
	return src, dst, nil
}

// WritePage stores the original and translated HTML of a page.
func (w *Writer) WritePage(rawURL string, original, translated []byte) (src, dst string, err error) {
	src, dst, err = w.PagePaths(rawURL)
	if err != nil {
		return "", "", err
	}
	if err := writeFile(src, original); err != nil {
		return "", "", err
	}
	if err := writeFile(dst, translated); err != nil {
		return "", "", err
	}
	return src, dst, nil
}

// WriteReview stores a Markdown review copy of a translated page.
func (w *Writer) WriteReview(rawURL string, markdown []byte) (string, error) {
	rel, err := w.RelativePath(rawURL)
	if err != nil {
		return "", err
	}
	rel = strings.TrimSuffix(rel, path.Ext(rel)) + ".md"
	full, err := w.within(path.Join(reviewDir, w.TargetLang), rel)
	if err != nil {
		return "", err
	}
	return full, writeFile(full, markdown)
}

// NotProcessedReason is the manifest reason for URLs an aborted run never
// reached.
const NotProcessedReason = "not processed (run aborted)"

// WriteManifest writes the failed-URL manifest. The header carries the
// time of the run. URLs in notProcessed follow the failures so a rerun can
// pick them up from the same file.
func (w *Writer) WriteManifest(failures []core.Outcome, notProcessed []string, at time.Time) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Failed URLs (%s)\n", at.UTC().Format(time.RFC3339))
	for _, f := range failures {
		reason := f.Reason
		if reason == "" && f.Err != nil {
			reason = f.Err.Error()
		}
		fmt.Fprintf(&b, "%s | Error: %s\n", f.URL, oneLine(reason))
	}
	for _, u := range notProcessed {
		fmt.Fprintf(&b, "%s | Error: %s\n", u, NotProcessedReason)
	}
	full := filepath.Join(w.OutputDir, ManifestName)
	return full, writeFile(full, []byte(b.String()))
}

// WriteReport stores a rendered run report as report<ext>.
func (w *Writer) WriteReport(data []byte, ext string) (string, error) {
	full := filepath.Join(w.OutputDir, reportBase+ext)
	return full, writeFile(full, data)
}

// within joins elems below OutputDir and refuses results outside it.
func (w *Writer) within(elems ...string) (string, error) {
	root, err := filepath.Abs(w.OutputDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	parts := append([]string{root}, elems...)
	full := filepath.Join(parts...)
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the output directory", full)
	}
	return full, nil
}

func writeFile(full string, data []byte) error {
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("writing file %s: %w", full, err)
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
