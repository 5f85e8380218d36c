package viewer

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// BuildSite exports the viewer as static files below siteDir:
//
//	index.html
//	data/tree.json, data/meta.json
//	<src>/..., <dst>/...
//	packages/<src>.zip, packages/<dst>.zip
//
// The result can be served by any static file host.
func BuildSite(layout Layout, siteDir string) error {
	if err := layout.Validate(); err != nil {
		return err
	}
	if err := checkSiteDir(layout, siteDir); err != nil {
		return err
	}

	for _, lang := range []string{layout.SourceLang, layout.TargetLang} {
		dst := filepath.Join(siteDir, lang)
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("clearing %s: %w", dst, err)
		}
		if err := copyTree(filepath.Join(layout.OutputDir, lang), dst); err != nil {
			return err
		}
	}

	tree, err := BuildTree(layout.SourceDir())
	if err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(siteDir, "data", "tree.json"), tree); err != nil {
		return err
	}

	pkgs, err := BuildPackages(layout)
	if err != nil {
		return err
	}
	for _, p := range pkgs {
		if err := copyFile(p.archive, filepath.Join(siteDir, packagesDir, p.Filename)); err != nil {
			return err
		}
	}
	if err := writeJSON(filepath.Join(siteDir, "data", "meta.json"), newMeta(layout, pkgs)); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(siteDir, "index.html"), indexHTML, 0o644)
}

// checkSiteDir refuses a site directory that overlaps the output tree.
func checkSiteDir(layout Layout, siteDir string) error {
	site, err := filepath.Abs(siteDir)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(layout.OutputDir)
	if err != nil {
		return err
	}
	if site == out {
		return fmt.Errorf("site directory must differ from the output directory %s", out)
	}
	for _, dir := range []string{layout.SourceDir(), layout.TargetDir()} {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		if site == abs || strings.HasPrefix(site, abs+string(filepath.Separator)) {
			return fmt.Errorf("site directory %s lies inside language tree %s", site, abs)
		}
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(p, target)
	})
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
