package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gaurav-prasanna/sitetrans/core"
)

const (
	// DefaultOpenAIEndpoint points to a local OpenAI-compatible server.
	DefaultOpenAIEndpoint = "http://127.0.0.1:8845/v1"
	// DefaultOpenAIModel is used when no model is configured.
	DefaultOpenAIModel = "gpt-4o-mini"
)

var languageNames = map[string]string{
	"de": "German",
	"en": "English",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
}

// OpenAIBackend translates through an OpenAI-compatible chat completions
// endpoint. The whole batch goes out as one JSON array and must come back
// as one.
type OpenAIBackend struct {
	endpointURL string
	model       string
	token       string
	opts        Options
}

// NewOpenAI builds an OpenAI-compatible backend.
func NewOpenAI(opts Options) (*OpenAIBackend, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultOpenAIEndpoint
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid backend endpoint %q: %w", endpoint, err)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIBackend{
		endpointURL: chatCompletionsURL(endpoint),
		model:       model,
		token:       strings.TrimSpace(opts.Token),
		opts:        opts,
	}, nil
}

func (b *OpenAIBackend) Name() string { return NameOpenAI }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// TranslateBatch sends texts as a JSON array and parses the reply.
func (b *OpenAIBackend) TranslateBatch(ctx context.Context, texts []string, src, dst string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	input, err := json.Marshal(texts)
	if err != nil {
		return nil, &core.BackendError{Kind: core.BackendBadRequest, Err: fmt.Errorf("marshal texts: %w", err)}
	}

	status, body, err := postJSON(ctx, b.opts.httpClient(), b.endpointURL, b.token, chatRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(src, dst)},
			{Role: "user", Content: string(input)},
		},
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, statusError(status, body)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &core.BackendError{Kind: core.BackendUnavailable, Status: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &core.BackendError{Kind: core.BackendUnavailable, Status: status, Err: errors.New("response missing choices")}
	}

	out, err := parseTranslations(parsed.Choices[0].Message.Content)
	if err != nil {
		return nil, &core.BackendError{Kind: core.BackendUnavailable, Status: status, Err: err}
	}
	if len(out) != len(texts) {
		return nil, &core.BackendError{Kind: core.BackendUnavailable, Status: status,
			Err: fmt.Errorf("expected %d translations, got %d", len(texts), len(out))}
	}
	return out, nil
}

func systemPrompt(src, dst string) string {
	return fmt.Sprintf(
		"You translate website text from %s to %s. The user sends a JSON array of strings. "+
			"Reply with only a JSON array containing the translation of each string, in the same order. "+
			"Keep numbers, product names and URLs unchanged.",
		languageName(src), languageName(dst))
}

func languageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// parseTranslations extracts the JSON array from a model reply, tolerating
// surrounding prose or code fences.
func parseTranslations(content string) ([]string, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, errors.New("reply contains no JSON array")
	}
	var out []string
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("decode reply array: %w", err)
	}
	return out, nil
}

func chatCompletionsURL(endpoint string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if strings.HasSuffix(trimmed, "/chat/completions") {
		return trimmed
	}
	if !strings.HasSuffix(trimmed, "/v1") {
		trimmed += "/v1"
	}
	return trimmed + "/chat/completions"
}
