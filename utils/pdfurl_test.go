package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePdfURL(t *testing.T) {
	const base = "https://example.com"

	tests := []struct {
		name string
		raw  string
		base string
		want string
	}{
		{"empty input", "", base, ""},
		{"whitespace only", "   ", base, ""},
		{"absolute url passes through", "https://cdn.example.com/files/a.pdf", base, "https://cdn.example.com/files/a.pdf"},
		{"absolute url keeps casing", "https://example.com/Files/Report.PDF", base, "https://example.com/Files/Report.PDF"},
		{"relative resolved against base", "/files/a.pdf", base, "https://example.com/files/a.pdf"},
		{"relative without base is dropped", "/files/a.pdf", "", ""},
		{"relative against non-absolute base is dropped", "/files/a.pdf", "example.com", ""},
		{"surrounding whitespace trimmed", "  https://example.com/a.pdf  ", base, "https://example.com/a.pdf"},
		{"query preserved", "/files/a.pdf?v=2", base, "https://example.com/files/a.pdf?v=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePdfURL(tt.raw, tt.base))
		})
	}
}

func TestComparisonKey(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"plain path", "https://example.com/files/a.pdf", "files/a.pdf"},
		{"host ignored", "https://cdn.example.com/files/a.pdf", "files/a.pdf"},
		{"query ignored", "https://example.com/files/a.pdf?v=2&x=1", "files/a.pdf"},
		{"case folded", "https://example.com/Files/Report.PDF", "files/report.pdf"},
		{"percent decoded", "https://example.com/files/my%20report.pdf", "files/my report.pdf"},
		{"leading slash stripped", "/files/a.pdf", "files/a.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComparisonKey(tt.raw))
		})
	}

	t.Run("same file via different hosts collides", func(t *testing.T) {
		a := ComparisonKey("https://example.com/files/a.pdf")
		b := ComparisonKey("https://mirror.example.org/files/a.pdf?download=1")
		assert.Equal(t, a, b)
	})
}

func TestPdfBasename(t *testing.T) {
	assert.Equal(t, "a.pdf", PdfBasename("https://example.com/files/a.pdf"))
	assert.Equal(t, "a.pdf", PdfBasename("/files/a.pdf"))
	assert.Equal(t, "https://example.com", PdfBasename("https://example.com"))
	assert.Equal(t, "https://example.com/", PdfBasename("https://example.com/"))
}
