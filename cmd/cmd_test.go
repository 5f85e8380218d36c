package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kursePage = `<!DOCTYPE html><html lang="de"><head><title>Kurse</title></head>` +
	`<body><h1>Unsere Kurse</h1><p>Lernen Sie <a href="/de/seminar.html">Hypnose</a> bei uns.</p></body></html>`

// newSite serves German pages and an inference endpoint that upper-cases
// its inputs.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/de/kurse.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, kursePage)
	})
	mux.HandleFunc("/models/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req struct {
			Inputs json.RawMessage `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var texts []string
		if err := json.Unmarshal(req.Inputs, &texts); err != nil {
			var single string
			require.NoError(t, json.Unmarshal(req.Inputs, &single))
			texts = []string{single}
		}
		out := make([]map[string]string, len(texts))
		for i, s := range texts {
			out[i] = map[string]string{"translation_text": strings.ToUpper(s)}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(out))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setEnv(t *testing.T, srv *httptest.Server, dir string) {
	t.Helper()
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("HF_API_TOKEN", "test-token")
	t.Setenv("SITETRANS_BACKEND", "hf")
	t.Setenv("SITETRANS_BACKEND_ENDPOINT", srv.URL)
	t.Setenv("SITETRANS_CACHE_DSN", filepath.Join(dir, "cache.db"))
	t.Setenv("SITETRANS_DELAY", "0s")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTranslateCommand(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()
	setEnv(t, srv, dir)

	out, err := run(t, "translate", srv.URL+"/de/kurse.html",
		"--env", filepath.Join(dir, "none.env"),
		"--output-dir", dir,
		"--dry-run=false",
		"--retries", "0")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Written:")

	got, err := os.ReadFile(filepath.Join(dir, "en", "kurse.html"))
	require.NoError(t, err)
	html := string(got)
	assert.Contains(t, html, `<html lang="en">`)
	assert.Contains(t, html, "<h1>UNSERE KURSE</h1>")
	assert.Contains(t, html, `LERNEN SIE <a href="/en/seminar.html">HYPNOSE</a> BEI UNS.`)

	_, err = os.Stat(filepath.Join(dir, "de", "kurse.html"))
	assert.NoError(t, err)
}

func TestBatchCommandWritesReportAndManifest(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()
	setEnv(t, srv, dir)

	sitemap := filepath.Join(dir, "sitemap.json")
	list := fmt.Sprintf(`[{"url": %q}, {"url": %q}, {"url": %q}]`,
		srv.URL+"/de/kurse.html", srv.URL+"/de/missing.html", srv.URL+"/en/kurse.html")
	require.NoError(t, os.WriteFile(sitemap, []byte(list), 0o644))

	out, err := run(t, "batch",
		"--sitemap", sitemap,
		"--env", filepath.Join(dir, "none.env"),
		"--output-dir", dir,
		"--dry-run=false",
		"--retries", "0",
		"--workers", "2",
		"--report-format", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1/2 URLs failed")
	assert.Contains(t, out, "success:   1")

	manifest, err := os.ReadFile(filepath.Join(dir, "failed_urls.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), srv.URL+"/de/missing.html | Error: ")
	assert.NotContains(t, string(manifest), "/de/kurse.html")

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	var report struct {
		Total   int `json:"total"`
		Success int `json:"success"`
		Failed  int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Success)
	assert.Equal(t, 1, report.Failed)
}

func TestSiteCommandExportsViewer(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()
	setEnv(t, srv, dir)
	envFile := filepath.Join(dir, "none.env")

	out, err := run(t, "translate", srv.URL+"/de/kurse.html",
		"--env", envFile,
		"--output-dir", dir,
		"--retries", "0")
	require.NoError(t, err, out)

	site := filepath.Join(t.TempDir(), "public")
	out, err = run(t, "site", "--env", envFile, "--output-dir", dir, "--site-dir", site)
	require.NoError(t, err, out)
	assert.Contains(t, out, "static viewer written")

	assert.FileExists(t, filepath.Join(site, "index.html"))
	assert.FileExists(t, filepath.Join(site, "de", "kurse.html"))
	assert.FileExists(t, filepath.Join(site, "packages", "en.zip"))

	translated, err := os.ReadFile(filepath.Join(site, "en", "kurse.html"))
	require.NoError(t, err)
	assert.Contains(t, string(translated), "UNSERE KURSE")

	tree, err := os.ReadFile(filepath.Join(site, "data", "tree.json"))
	require.NoError(t, err)
	assert.Contains(t, string(tree), `"path": "kurse.html"`)
}
