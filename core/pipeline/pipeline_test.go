package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/sitetrans/core"
	"github.com/gaurav-prasanna/sitetrans/core/output"
	"github.com/gaurav-prasanna/sitetrans/core/review"
	"github.com/gaurav-prasanna/sitetrans/core/translate"
)

const page = `<html lang="de"><head><title>Kurse</title></head>` +
	`<body><p>Hallo <b>Welt</b>!</p><a href="/de/kurse/">Kurse</a>` +
	`<a href="https://h.test/de/info.html?x=1">Info</a><a href="/deposit/">Depot</a></body></html>`

// siteFetcher serves pages and errors by URL. redirects maps a requested
// URL to the URL the page is served from.
type siteFetcher struct {
	pages     map[string]string
	errors    map[string]error
	redirects map[string]string
	raw       map[string][]byte
}

func (f *siteFetcher) Fetch(_ context.Context, url string) (*core.FetchResult, error) {
	final := url
	if to, ok := f.redirects[url]; ok {
		final = to
	}
	if err, ok := f.errors[final]; ok {
		return nil, err
	}
	html, ok := f.pages[final]
	if !ok {
		return nil, &core.FetchError{Kind: core.FetchHTTPStatus, URL: url, Status: 404}
	}
	return &core.FetchResult{URL: url, FinalURL: final, StatusCode: 200, HTML: html, Raw: f.raw[final]}, nil
}

type upperBackend struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (b *upperBackend) Name() string { return "upper" }

func (b *upperBackend) TranslateBatch(_ context.Context, texts []string, _, _ string) ([]string, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	out := make([]string, len(texts))
	for i, s := range texts {
		out[i] = strings.ToUpper(s)
	}
	return out, nil
}

func newPipeline(t *testing.T, f core.Fetcher, b core.Backend, withReview bool) (*Pipeline, string) {
	t.Helper()

	dir := t.TempDir()
	w, err := output.New(dir, "de", "en")
	require.NoError(t, err)

	tr := translate.New(b, nil, translate.Options{
		BatchSize:      20,
		MaxTokens:      2000,
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		BatchTimeout:   time.Second,
	}, zerolog.Nop())

	deps := Deps{Fetcher: f, Translator: tr, Writer: w, Logger: zerolog.Nop()}
	if withReview {
		deps.Review = review.New()
	}
	p, err := New("de", "en", deps)
	require.NoError(t, err)
	return p, dir
}

func TestProcessURLWritesTranslatedPage(t *testing.T) {
	t.Parallel()

	f := &siteFetcher{pages: map[string]string{"https://h.test/de/kurse/": page}}
	p, dir := newPipeline(t, f, &upperBackend{}, true)

	o := p.ProcessURL(context.Background(), "https://h.test/de/kurse/", false)
	require.Equal(t, core.StatusSuccess, o.Status, o.Reason)
	assert.Equal(t, core.StageDone, o.Stage)
	assert.Equal(t, filepath.Join(dir, "en", "kurse", "index.html"), o.TargetPath)

	got, err := os.ReadFile(o.TargetPath)
	require.NoError(t, err)
	html := string(got)
	assert.Contains(t, html, `<html lang="en">`)
	assert.Contains(t, html, `<title>KURSE</title>`)
	assert.Contains(t, html, `HALLO <b>WELT</b>!`)
	assert.Contains(t, html, `href="/en/kurse/"`)
	assert.Contains(t, html, `href="/en/info.html?x=1"`)
	assert.Contains(t, html, `href="/deposit/"`)

	src, err := os.ReadFile(o.SourcePath)
	require.NoError(t, err)
	assert.Equal(t, page, string(src))

	md, err := os.ReadFile(filepath.Join(dir, "review", "en", "kurse", "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "HALLO **WELT**!")
}

func TestProcessURLUsesFinalURLForPaths(t *testing.T) {
	t.Parallel()

	f := &siteFetcher{
		pages:     map[string]string{"https://www.h.test/de/kurse/neu.html": page},
		redirects: map[string]string{"https://h.test/de/kurse/alt.html": "https://www.h.test/de/kurse/neu.html"},
	}
	p, dir := newPipeline(t, f, &upperBackend{}, true)

	o := p.ProcessURL(context.Background(), "https://h.test/de/kurse/alt.html", false)
	require.Equal(t, core.StatusSuccess, o.Status, o.Reason)
	assert.Equal(t, "https://h.test/de/kurse/alt.html", o.URL)
	assert.Equal(t, filepath.Join(dir, "de", "kurse", "neu.html"), o.SourcePath)
	assert.Equal(t, filepath.Join(dir, "en", "kurse", "neu.html"), o.TargetPath)
	assert.NoFileExists(t, filepath.Join(dir, "en", "kurse", "alt.html"))
	assert.FileExists(t, filepath.Join(dir, "review", "en", "kurse", "neu.md"))
}

func TestProcessURLDeclaresUTF8AndKeepsRawSource(t *testing.T) {
	t.Parallel()

	const latin = `<html lang="de"><head><meta charset="iso-8859-1"></head><body><p>Grüße</p></body></html>`
	raw := []byte("<html lang=\"de\"><head><meta charset=\"iso-8859-1\"></head><body><p>Gr\xfc\xdfe</p></body></html>")
	f := &siteFetcher{
		pages: map[string]string{"https://h.test/de/gruss.html": latin},
		raw:   map[string][]byte{"https://h.test/de/gruss.html": raw},
	}
	p, _ := newPipeline(t, f, &upperBackend{}, false)

	o := p.ProcessURL(context.Background(), "https://h.test/de/gruss.html", false)
	require.Equal(t, core.StatusSuccess, o.Status, o.Reason)

	got, err := os.ReadFile(o.TargetPath)
	require.NoError(t, err)
	assert.Contains(t, string(got), `<meta charset="utf-8"/>`)
	assert.Contains(t, string(got), "GRÜ")
	assert.NotContains(t, string(got), "iso-8859-1")

	src, err := os.ReadFile(o.SourcePath)
	require.NoError(t, err)
	assert.Equal(t, raw, src)
}

func TestProcessURLOversizedPageFails(t *testing.T) {
	t.Parallel()

	u := "https://h.test/de/riesig.html"
	f := &siteFetcher{errors: map[string]error{
		u: &core.FetchError{Kind: core.FetchTooLarge, URL: u, Err: errors.New("exceeds 100 bytes")},
	}}
	b := &upperBackend{}
	p, _ := newPipeline(t, f, b, false)

	o := p.ProcessURL(context.Background(), u, false)
	assert.Equal(t, core.StatusFailed, o.Status)
	assert.Equal(t, core.StageFetching, o.Stage)
	assert.Contains(t, o.Reason, "body too large")
	assert.Zero(t, b.calls)
}

func TestProcessURLNonDocumentIsSkipped(t *testing.T) {
	t.Parallel()

	f := &siteFetcher{errors: map[string]error{
		"https://h.test/de/flyer": &core.FetchError{Kind: core.FetchNonDocument, URL: "https://h.test/de/flyer", Err: errors.New("application/pdf")},
	}}
	b := &upperBackend{}
	p, _ := newPipeline(t, f, b, false)

	o := p.ProcessURL(context.Background(), "https://h.test/de/flyer", false)
	assert.Equal(t, core.StatusSkipped, o.Status)
	assert.Equal(t, core.StageFetching, o.Stage)
	assert.Equal(t, "non-document content", o.Reason)
	assert.Zero(t, b.calls)
}

func TestProcessURLDryRun(t *testing.T) {
	t.Parallel()

	f := &siteFetcher{pages: map[string]string{"https://h.test/de/": page}}
	b := &upperBackend{}
	p, dir := newPipeline(t, f, b, false)

	o := p.ProcessURL(context.Background(), "https://h.test/de/", true)
	assert.Equal(t, core.StatusSuccess, o.Status)
	assert.Positive(t, o.Stats.Texts)
	assert.Positive(t, o.Stats.Pending)
	assert.Zero(t, b.calls)
	assert.NoFileExists(t, filepath.Join(dir, "en", "index.html"))
}

func TestRunIsolatesPartialFailure(t *testing.T) {
	t.Parallel()

	urls := []string{"https://h.test/de/a", "https://h.test/de/b", "https://h.test/de/c"}
	f := &siteFetcher{
		pages: map[string]string{urls[0]: page, urls[2]: page},
		errors: map[string]error{
			urls[1]: &core.FetchError{Kind: core.FetchTimeout, URL: urls[1], Err: context.DeadlineExceeded},
		},
	}
	p, dir := newPipeline(t, f, &upperBackend{}, false)

	report, err := p.Run(context.Background(), urls, RunOptions{Workers: 2})
	require.NoError(t, err)
	assert.False(t, report.Aborted)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 2, report.Success)
	assert.Equal(t, 1, report.Failed)

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, core.StatusSuccess, report.Outcomes[0].Status)
	assert.Equal(t, core.StatusFailed, report.Outcomes[1].Status)
	assert.Equal(t, core.StageFetching, report.Outcomes[1].Stage)
	assert.Equal(t, core.StatusSuccess, report.Outcomes[2].Status)

	require.Equal(t, filepath.Join(dir, output.ManifestName), report.ManifestPath)
	manifest, err := os.ReadFile(report.ManifestPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(manifest)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], urls[1]+" | Error: "))
}

func TestRunAbortsOnPermanentBackendError(t *testing.T) {
	t.Parallel()

	urls := []string{"https://h.test/de/a", "https://h.test/de/b", "https://h.test/de/c"}
	f := &siteFetcher{pages: map[string]string{urls[0]: page, urls[1]: page, urls[2]: page}}
	b := &upperBackend{err: &core.BackendError{Kind: core.BackendAuth, Status: 401, Err: errors.New("bad token")}}
	p, _ := newPipeline(t, f, b, false)

	report, err := p.Run(context.Background(), urls, RunOptions{Workers: 1})
	require.Error(t, err)
	assert.True(t, core.IsPermanent(err))
	assert.True(t, report.Aborted)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, urls[1:], report.NotProcessed)

	require.NotEmpty(t, report.ManifestPath)
	manifest, err := os.ReadFile(report.ManifestPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(manifest)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], urls[0]+" | Error: "))
	assert.Equal(t, urls[1]+" | Error: "+output.NotProcessedReason, lines[2])
	assert.Equal(t, urls[2]+" | Error: "+output.NotProcessedReason, lines[3])
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	f := &siteFetcher{pages: map[string]string{"https://h.test/de/a": page}}
	p, _ := newPipeline(t, f, &upperBackend{}, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx, []string{"https://h.test/de/a", "https://h.test/de/b"}, RunOptions{Workers: 1})
	require.ErrorIs(t, err, ErrAborted)
	assert.True(t, report.Aborted)
	assert.Less(t, report.Processed, 2)
	assert.Len(t, report.NotProcessed, 2-report.Processed)
	assert.NotEmpty(t, report.ManifestPath)
}
