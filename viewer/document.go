package viewer

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrBadPath is returned for absolute or traversing document paths.
	ErrBadPath = errors.New("invalid document path")
	// ErrNoDocument is returned when either side of a page is missing.
	ErrNoDocument = errors.New("document not found")
)

// Side is one language version of a page.
type Side struct {
	Language string `json:"language"`
	HTML     string `json:"html"`
}

// Document pairs the source and translated HTML of one page.
type Document struct {
	Path   string `json:"path"`
	Source Side   `json:"source"`
	Target Side   `json:"target"`
}

// CleanPath validates a slash-separated path relative to a language tree.
func CleanPath(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrBadPath)
	}
	if strings.HasPrefix(raw, "/") || strings.Contains(raw, "\\") || filepath.IsAbs(raw) {
		return "", fmt.Errorf("%w: absolute paths are not allowed", ErrBadPath)
	}
	for _, part := range strings.Split(raw, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %q", ErrBadPath, raw)
		}
	}
	return path.Clean(raw), nil
}

// LoadDocument reads rel from both language trees of layout.
func LoadDocument(layout Layout, rel string) (*Document, error) {
	rel, err := CleanPath(rel)
	if err != nil {
		return nil, err
	}
	src, err := readSide(layout.SourceDir(), rel)
	if err != nil {
		return nil, err
	}
	dst, err := readSide(layout.TargetDir(), rel)
	if err != nil {
		return nil, err
	}
	return &Document{
		Path:   rel,
		Source: Side{Language: layout.SourceLang, HTML: src},
		Target: Side{Language: layout.TargetLang, HTML: dst},
	}, nil
}

func readSide(root, rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNoDocument, rel)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
