// Package backend implements the translation backends. The set is closed:
// a backend is chosen by name once, when the pipeline is built.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gaurav-prasanna/sitetrans/core"
)

const (
	NameHF     = "hf"
	NameOpenAI = "openai"

	defaultTimeout = 60 * time.Second
	maxBodyBytes   = 8 << 20
)

// Options configures a backend.
type Options struct {
	Endpoint string
	Model    string
	Token    string
	Timeout  time.Duration
	Client   *http.Client // optional, overrides Timeout
}

func (o Options) httpClient() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// New builds the backend registered under name.
func New(name string, opts Options) (core.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameHF, "":
		return NewHF(opts)
	case NameOpenAI:
		return NewOpenAI(opts)
	default:
		return nil, fmt.Errorf("translation backend %q is not available (available: %s)", name, strings.Join(Names(), ", "))
	}
}

// Names lists the available backend names.
func Names() []string {
	names := []string{NameHF, NameOpenAI}
	sort.Strings(names)
	return names
}

// postJSON sends payload and returns the status and body. Transport
// failures come back as Unavailable backend errors.
func postJSON(ctx context.Context, client *http.Client, url, token string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, &core.BackendError{Kind: core.BackendBadRequest, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, &core.BackendError{Kind: core.BackendBadRequest, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, &core.BackendError{Kind: core.BackendUnavailable, Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, &core.BackendError{Kind: core.BackendUnavailable, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	return resp.StatusCode, respBody, nil
}

// statusError maps a non-2xx response onto the backend error taxonomy.
func statusError(status int, body []byte) error {
	msg := errorMessage(body)
	var kind core.BackendErrorKind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = core.BackendAuth
	case status == http.StatusTooManyRequests:
		kind = core.BackendRateLimited
	case status == http.StatusNotFound:
		kind = core.BackendUnsupported
	case status == http.StatusRequestTimeout || status >= 500:
		kind = core.BackendUnavailable
	default:
		kind = core.BackendBadRequest
	}
	return &core.BackendError{Kind: kind, Status: status, Err: errors.New(msg)}
}

// errorMessage pulls a readable message out of an error body. Both
// {"error": "..."} and {"error": {"message": "..."}} shapes are common.
func errorMessage(body []byte) string {
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Error) > 0 {
		var s string
		if json.Unmarshal(payload.Error, &s) == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Error, &obj) == nil && strings.TrimSpace(obj.Message) != "" {
			return strings.TrimSpace(obj.Message)
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		return "empty response body"
	}
	return text
}
