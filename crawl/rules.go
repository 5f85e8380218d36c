// URL filtering rules applied before URLs reach the pipeline.

package crawl

import (
	"net/url"
	"path"
	"strings"
)

// staticExtensions are file extensions that never hold a translatable page.
var staticExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true, ".bmp": true,
	".css": true, ".js": true, ".mjs": true, ".json": true, ".xml": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp4": true, ".webm": true, ".mp3": true, ".wav": true,
	".zip": true, ".tar": true, ".gz": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
}

// IsSameHost checks if the given URL belongs to host. The comparison
// ignores case and a leading "www.".
func IsSameHost(rawURL string, host string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	return bareHost(parsed.Host) == bareHost(host)
}

func bareHost(h string) string {
	return strings.TrimPrefix(strings.ToLower(h), "www.")
}

// IsStaticAsset checks if a URL points to a static asset (image, CSS, JS, etc.).
func IsStaticAsset(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	return staticExtensions[ext]
}

// InLanguage reports whether the URL path starts with the /<lang> segment.
// "/de", "/de/" and "/de/kurse" match "de"; "/deposit" does not.
func InLanguage(rawURL string, lang string) bool {
	if lang == "" {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := strings.TrimPrefix(parsed.Path, "/")
	seg, _, _ := strings.Cut(p, "/")
	return strings.EqualFold(seg, lang)
}

// NormalizeURL strips fragments and trailing slashes for deduplication.
// The host is lowercased; scheme and query are kept.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	parsed.Fragment = ""
	parsed.Host = strings.ToLower(parsed.Host)

	// Keep root "/".
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String()
}
