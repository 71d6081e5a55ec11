// Package normalize implements the Normalizer interface.
// It converts rich-text field values into Markdown, which serves as the
// canonical intermediate format for all downstream renderers. ADF trees go
// through the adf converter; rendered HTML goes through html-to-markdown.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/gaurav-prasanna/jirapipe/core"
	"github.com/gaurav-prasanna/jirapipe/core/adf"
	"github.com/gaurav-prasanna/jirapipe/core/adf/rewrite"
	"github.com/gaurav-prasanna/jirapipe/core/extract"
)

var htmlTag = regexp.MustCompile(`<[a-zA-Z][a-zA-Z0-9]*(\s[^>]*)?/?>`)

// FieldNormalizer converts field values of any shape the API returns.
type FieldNormalizer struct {
	// BaseURL turns mentions into profile links when set.
	BaseURL string
	// KeepMedia leaves media nodes as the attachments marker instead of
	// naming the attachment.
	KeepMedia bool

	extractor core.Extractor
}

// New creates a FieldNormalizer.
func New(baseURL string, keepMedia bool) *FieldNormalizer {
	return &FieldNormalizer{BaseURL: baseURL, KeepMedia: keepMedia, extractor: extract.New()}
}

func (n *FieldNormalizer) options() rewrite.Options {
	return rewrite.Options{BaseURL: n.BaseURL, KeepMedia: n.KeepMedia}
}

// Normalize converts a field value to Markdown. Nil and blank values yield
// an empty string.
func (n *FieldNormalizer) Normalize(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		if strings.TrimSpace(v) == "" {
			return "", nil
		}
		if htmlTag.MatchString(v) {
			return n.NormalizeHTML(v)
		}
		return strings.TrimSpace(v), nil
	case map[string]any:
		return adf.Convert(rewrite.Prepare(v, n.options()))
	case []any:
		return adf.Convert(rewrite.PrepareAll(v, n.options()))
	case []map[string]any:
		list := make([]any, len(v))
		for i, m := range v {
			list[i] = m
		}
		return adf.Convert(rewrite.PrepareAll(list, n.options()))
	}
	return "", fmt.Errorf("%w: unsupported field value %T", adf.ErrInvalidNode, value)
}

// NormalizeHTML cleans rendered field HTML and converts it to Markdown.
func (n *FieldNormalizer) NormalizeHTML(html string) (string, error) {
	ex := n.extractor
	if ex == nil {
		ex = extract.New()
	}
	cleaned, err := ex.Extract(html)
	if err != nil {
		return "", fmt.Errorf("cleaning HTML: %w", err)
	}
	if cleaned == "" {
		return "", nil
	}

	markdown, err := htmltomarkdown.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}
