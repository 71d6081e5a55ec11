// Package extract implements the Extractor interface.
// It cleans the HTML that Jira renders for rich-text fields by:
//  1. Removing rendering noise (icons, scripts, styles)
//  2. Flattening markup that has no Markdown equivalent (mention anchors, emoticons)
//  3. Returning the fragment without the document wrapper the parser adds
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are elements removed before conversion.
// They carry no content of their own.
var noiseSelectors = []string{
	"script", "style", "noscript",
	"img.rendericon", "span.aui-icon", "span.jira-issue-status-lozenge-icon",
	"input", "button",
}

// HTMLExtractor strips noise from rendered field HTML.
type HTMLExtractor struct{}

// New creates an HTMLExtractor.
func New() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract takes rendered field HTML and returns a cleaned fragment.
func (e *HTMLExtractor) Extract(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	// Mentions render as profile anchors; keep only the display name.
	doc.Find("a.user-hover").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml(escape(s.Text()))
	})

	// Emoticons are images whose alt text is the shortcut, e.g. "(y)".
	doc.Find("img.emoticon").Each(func(_ int, s *goquery.Selection) {
		alt, _ := s.Attr("alt")
		s.ReplaceWithHtml(escape(alt))
	})

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return "", fmt.Errorf("no body found in HTML")
	}

	result, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("serializing content: %w", err)
	}
	return strings.TrimSpace(result), nil
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string { return htmlEscaper.Replace(s) }
