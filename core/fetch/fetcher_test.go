package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/sitetrans/core"
)

func testFetcher(retries int) *HTTPFetcher {
	return New(Options{
		Timeout:    time.Second,
		MaxRetries: retries,
		BaseDelay:  time.Millisecond,
	}, zerolog.Nop())
}

func TestFetchHTML(t *testing.T) {
	t.Parallel()

	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><p>Grüße</p></body></html>"))
	}))
	defer srv.Close()

	res, err := testFetcher(0).Fetch(context.Background(), srv.URL+"/de/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "utf-8", res.Encoding)
	assert.Contains(t, res.HTML, "Grüße")
	assert.Equal(t, srv.URL+"/de/", res.FinalURL)
	assert.Equal(t, DefaultUserAgent, ua)
}

func TestFetchDecodesLatin1(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<p>Gr\xfc\xdfe</p>"))
	}))
	defer srv.Close()

	res, err := testFetcher(0).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "Grüße")
}

func TestFetchNonDocument(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	_, err := testFetcher(3).Fetch(context.Background(), srv.URL+"/file.pdf")
	require.Error(t, err)
	assert.True(t, core.IsNonDocument(err))
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	page := "<html><body><p>" + strings.Repeat("Inhalt ", 80) + "</p><p>Ende</p></body></html>"
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	f := New(Options{Timeout: time.Second, MaxRetries: 2, BaseDelay: time.Millisecond, BodyLimit: 100}, zerolog.Nop())
	res, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Nil(t, res)

	var fe *core.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, core.FetchTooLarge, fe.Kind)
	assert.False(t, core.IsNonDocument(err))
	assert.EqualValues(t, 1, hits.Load())

	// exactly at the limit is accepted
	f = New(Options{Timeout: time.Second, BodyLimit: int64(len(page))}, zerolog.Nop())
	res, err = f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "Ende")
	assert.Equal(t, []byte(page), res.Raw)
}

func TestFetchClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testFetcher(3).Fetch(context.Background(), srv.URL)
	var fe *core.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, core.FetchHTTPStatus, fe.Kind)
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetchServerErrorRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>ok</p>"))
	}))
	defer srv.Close()

	res, err := testFetcher(3).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "ok")
	assert.EqualValues(t, 3, hits.Load())
}

func TestFetchTimeoutAfterRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	f := New(Options{Timeout: 10 * time.Millisecond, MaxRetries: 2, BaseDelay: time.Millisecond}, zerolog.Nop())
	_, err := f.Fetch(context.Background(), srv.URL)

	var fe *core.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, core.FetchTimeout, fe.Kind)
	assert.EqualValues(t, 3, hits.Load())
}

func TestIsHTML(t *testing.T) {
	t.Parallel()

	assert.True(t, isHTML("text/html"))
	assert.True(t, isHTML("TEXT/HTML; charset=UTF-8"))
	assert.True(t, isHTML("application/xhtml+xml"))
	assert.True(t, isHTML(""))
	assert.False(t, isHTML("application/json"))
	assert.False(t, isHTML("image/png"))
}
