package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/sitetrans/core"
)

const (
	// DefaultHFEndpoint is the Hugging Face inference API.
	DefaultHFEndpoint = "https://api-inference.huggingface.co"
	// DefaultHFModel is expanded with the language pair.
	DefaultHFModel = "Helsinki-NLP/opus-mt-{src}-{dst}"
)

// HFBackend calls MarianMT models on the Hugging Face inference API.
type HFBackend struct {
	endpoint string
	model    string
	token    string
	opts     Options
}

// NewHF builds a Hugging Face backend. A token is required.
func NewHF(opts Options) (*HFBackend, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, &core.BackendError{Kind: core.BackendAuth, Err: errors.New("HF_API_TOKEN is not set")}
	}
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultHFEndpoint
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultHFModel
	}
	return &HFBackend{endpoint: endpoint, model: model, token: token, opts: opts}, nil
}

func (b *HFBackend) Name() string { return NameHF }

// ModelID returns the model used for a language pair.
func (b *HFBackend) ModelID(src, dst string) string {
	r := strings.NewReplacer("{src}", src, "{dst}", dst)
	return r.Replace(b.model)
}

func (b *HFBackend) modelURL(src, dst string) string {
	return b.endpoint + "/models/" + b.ModelID(src, dst)
}

type hfRequest struct {
	Inputs  any       `json:"inputs"`
	Options hfOptions `json:"options"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// TranslateBatch sends texts in one request.
func (b *HFBackend) TranslateBatch(ctx context.Context, texts []string, src, dst string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	status, body, err := postJSON(ctx, b.opts.httpClient(), b.modelURL(src, dst), b.token, hfRequest{
		Inputs:  texts,
		Options: hfOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, statusError(status, body)
	}
	return parseHFTranslations(body)
}

// Check sends a one-word request to verify the token and model.
func (b *HFBackend) Check(ctx context.Context, src, dst string) error {
	status, body, err := postJSON(ctx, b.opts.httpClient(), b.modelURL(src, dst), b.token, hfRequest{
		Inputs:  "Test",
		Options: hfOptions{WaitForModel: true},
	})
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return statusError(status, body)
	}
	return nil
}

// parseHFTranslations reads a list whose items are objects carrying
// translation_text or generated_text, or lists wrapping such an object.
func parseHFTranslations(body []byte) ([]string, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &core.BackendError{Kind: core.BackendUnavailable, Err: fmt.Errorf("decode response: %w", err)}
	}
	out := make([]string, 0, len(items))
	for i, raw := range items {
		text, ok := hfItemText(raw)
		if !ok {
			return nil, &core.BackendError{Kind: core.BackendUnavailable, Err: fmt.Errorf("response item %d has no translation", i)}
		}
		out = append(out, text)
	}
	return out, nil
}

func hfItemText(raw json.RawMessage) (string, bool) {
	var obj struct {
		TranslationText *string `json:"translation_text"`
		GeneratedText   *string `json:"generated_text"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		switch {
		case obj.TranslationText != nil:
			return *obj.TranslationText, true
		case obj.GeneratedText != nil:
			return *obj.GeneratedText, true
		}
		return "", false
	}
	var nested []json.RawMessage
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return hfItemText(nested[0])
	}
	return "", false
}
