package viewer

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const packagesDir = "packages"

var languageLabels = map[string]string{
	"de": "Deutsch",
	"en": "English",
	"fr": "Français",
	"es": "Español",
	"it": "Italiano",
}

// Package is a downloadable zip archive of one language tree.
type Package struct {
	Language string `json:"language"`
	Label    string `json:"label"`
	Filename string `json:"filename"`
	URL      string `json:"url"`

	archive string
}

// LanguageLabel returns the display name of lang.
func LanguageLabel(lang string) string {
	if l, ok := languageLabels[lang]; ok {
		return l
	}
	return strings.ToUpper(lang)
}

// BuildPackages zips both language trees into <out>/packages and returns
// them source first.
func BuildPackages(layout Layout) ([]Package, error) {
	dir := filepath.Join(layout.OutputDir, packagesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating packages directory: %w", err)
	}

	var pkgs []Package
	for _, lang := range []string{layout.SourceLang, layout.TargetLang} {
		root := filepath.Join(layout.OutputDir, lang)
		name := lang + ".zip"
		archive := filepath.Join(dir, name)
		if err := zipDir(root, lang, archive); err != nil {
			return nil, err
		}
		pkgs = append(pkgs, Package{
			Language: lang,
			Label:    fmt.Sprintf("%s (%s)", LanguageLabel(lang), lang),
			Filename: name,
			URL:      packagesDir + "/" + name,
			archive:  archive,
		})
	}
	return pkgs, nil
}

// zipDir writes every regular file below root into archive, prefixed with
// base/.
func zipDir(root, base, archive string) (err error) {
	out, err := os.Create(archive)
	if err != nil {
		return fmt.Errorf("creating %s: %w", archive, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		w, err := zw.Create(base + "/" + filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if walkErr != nil {
		_ = zw.Close()
		return fmt.Errorf("zipping %s: %w", root, walkErr)
	}
	return zw.Close()
}
