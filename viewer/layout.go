// Package viewer serves a finished output directory for review: the source
// and translated page trees side by side, a JSON API over them and zip
// downloads of each tree. BuildSite exports the same viewer as static files.
package viewer

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout locates the language trees a run wrote below OutputDir.
type Layout struct {
	OutputDir  string
	SourceLang string
	TargetLang string
}

// SourceDir is <out>/<src>.
func (l Layout) SourceDir() string { return filepath.Join(l.OutputDir, l.SourceLang) }

// TargetDir is <out>/<dst>.
func (l Layout) TargetDir() string { return filepath.Join(l.OutputDir, l.TargetLang) }

// Validate checks that both language trees exist.
func (l Layout) Validate() error {
	if l.SourceLang == "" || l.TargetLang == "" || l.SourceLang == l.TargetLang {
		return fmt.Errorf("need two distinct languages, got %q and %q", l.SourceLang, l.TargetLang)
	}
	for _, dir := range []string{l.SourceDir(), l.TargetDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("language tree %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("language tree %s is not a directory", dir)
		}
	}
	return nil
}

// Meta describes the viewer's languages and downloads.
type Meta struct {
	SourceLang  string    `json:"source_lang"`
	TargetLang  string    `json:"target_lang"`
	SourceLabel string    `json:"source_label"`
	TargetLabel string    `json:"target_label"`
	Packages    []Package `json:"packages"`
}

func newMeta(l Layout, pkgs []Package) Meta {
	if pkgs == nil {
		pkgs = []Package{}
	}
	return Meta{
		SourceLang:  l.SourceLang,
		TargetLang:  l.TargetLang,
		SourceLabel: LanguageLabel(l.SourceLang),
		TargetLabel: LanguageLabel(l.TargetLang),
		Packages:    pkgs,
	}
}
