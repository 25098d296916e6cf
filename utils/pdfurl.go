package utils

import (
	"net/url"
	"strings"
)

// NormalizePdfURL resolves raw against the site base URL and returns an
// absolute form. The URL itself keeps its original casing; only whitespace is
// trimmed. Returns "" when raw is empty or unparseable, or when raw is
// relative and no usable base is configured — callers treat "" as "nothing to
// record".
func NormalizePdfURL(raw, base string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}

	b, err := url.Parse(strings.TrimSpace(base))
	if err != nil || !b.IsAbs() {
		return ""
	}
	return b.ResolveReference(u).String()
}

// ComparisonKey reduces a PDF URL to the form used for deduplication: path
// only, percent-decoded, lower-cased, leading slash stripped. Host and query
// are deliberately ignored so the same file reached via different hosts or
// cache-busting params counts once.
func ComparisonKey(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	path := u.EscapedPath()
	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}
	return strings.TrimPrefix(strings.ToLower(path), "/")
}

// PdfBasename extracts the file name from a PDF URL for display purposes,
// falling back to the raw input when the URL has no path.
func PdfBasename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return rawURL
	}
	path := u.Path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	if path == "" {
		return rawURL
	}
	return path
}
