// Package render — JSON renderer.
// Parses the Markdown into a goldmark AST and reports its structure
// (headings, links, mentions, code blocks, tables, lists, referenced
// attachments) next to heading-delimited sections and plain text.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/gaurav-prasanna/jirapipe/core"
)

// Mention links produced by the converter point at a people profile.
const mentionPath = "/jira/people/"

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))

// JSONRenderer renders Markdown as a structured JSON document.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render converts Markdown and metadata into indented JSON.
func (r *JSONRenderer) Render(markdown string, meta core.WorkItemMetadata) ([]byte, error) {
	doc := Structure(markdown, meta)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

// Structure parses markdown and builds the JSON document model.
func Structure(markdown string, meta core.WorkItemMetadata) core.DocumentJSON {
	src := []byte(markdown)
	root := markdownParser.Parser().Parse(text.NewReader(src))

	s := core.DocumentStructure{
		Headings:    []core.Heading{},
		Links:       []core.Link{},
		Mentions:    []core.Link{},
		Attachments: append([]string{}, meta.Attachments...),
	}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			h := n.(*ast.Heading)
			s.Headings = append(s.Headings, core.Heading{Level: h.Level, Text: plainText(h, src)})
		case ast.KindLink:
			l := n.(*ast.Link)
			link := core.Link{Text: plainText(l, src), Href: string(l.Destination)}
			if strings.Contains(link.Href, mentionPath) {
				s.Mentions = append(s.Mentions, link)
			} else {
				s.Links = append(s.Links, link)
			}
		case ast.KindAutoLink:
			url := string(n.(*ast.AutoLink).URL(src))
			s.Links = append(s.Links, core.Link{Text: url, Href: url})
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			s.CodeBlocks++
		case extast.KindTable:
			s.Tables++
		case ast.KindList:
			s.Lists++
		}
		return ast.WalkContinue, nil
	})

	var (
		blocks   []string
		sections = []core.Section{}
		current  *core.Section
	)
	flush := func() {
		if current != nil {
			current.Text = strings.TrimSpace(current.Text)
			sections = append(sections, *current)
		}
	}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		body := plainText(n, src)
		if h, ok := n.(*ast.Heading); ok {
			flush()
			current = &core.Section{Heading: body, Level: h.Level}
		} else if current != nil && body != "" {
			current.Text += body + "\n\n"
		}
		if body != "" {
			blocks = append(blocks, body)
		}
	}
	flush()

	return core.DocumentJSON{
		Metadata: meta,
		Content: core.DocumentContent{
			Text:     strings.Join(blocks, "\n\n"),
			Markdown: markdown,
			Sections: sections,
		},
		Structure: s,
	}
}

// plainText returns the text of n with Markdown syntax removed.
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	writePlain(&b, n, src)
	return strings.TrimSpace(b.String())
}

func writePlain(b *strings.Builder, n ast.Node, src []byte) {
	switch v := n.(type) {
	case *ast.Text:
		b.Write(v.Segment.Value(src))
		if v.SoftLineBreak() || v.HardLineBreak() {
			b.WriteByte('\n')
		}
		return
	case *ast.String:
		b.Write(v.Value)
		return
	case *ast.AutoLink:
		b.Write(v.URL(src))
		return
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(src))
		}
		return
	case *ast.HTMLBlock, *ast.RawHTML:
		return
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		writePlain(b, c, src)
		if c.NextSibling() == nil {
			continue
		}
		switch {
		case c.Kind() == extast.KindTableCell:
			b.WriteString(" | ")
		case c.Type() == ast.TypeBlock:
			b.WriteByte('\n')
		}
	}
}
