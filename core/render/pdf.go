// Package render — PDF renderer.
// Lays out the work item Markdown as an A4 document using gofpdf.
// Handles headings, paragraphs, code blocks, tables, quotes and lists.
// Media is not embedded.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/gaurav-prasanna/jirapipe/core"
)

var (
	orderedItem = regexp.MustCompile(`^\d+\.\s`)
	tableRule   = regexp.MustCompile(`^\|(\s*:?-+:?\s*\|)+$`)
	emphasis    = regexp.MustCompile(`(?:^|\s)\*([^*]+)\*(?:\s|$)`)
	inlineCode  = regexp.MustCompile("`([^`]+)`")
	linkSyntax  = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
)

// PDFRenderer renders Markdown content as a PDF document.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render converts Markdown into PDF bytes.
func (r *PDFRenderer) Render(markdown string, meta core.WorkItemMetadata) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(meta.Key+": "+meta.Summary, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Core fonts are cp1252.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if meta.Key != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 8, tr(meta.Key+": "+meta.Summary), "", "L", false)
		pdf.Ln(2)
	}

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(0, 5, tr(sourceLine(meta)), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	lines := strings.Split(markdown, "\n")
	inCodeBlock := false
	skippedTitle := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inCodeBlock = !inCodeBlock
			pdf.Ln(2)
			continue
		}

		if inCodeBlock {
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, tr(line), "", "L", true)
			continue
		}

		switch {
		case trimmed == "":
			pdf.Ln(3)

		case strings.HasPrefix(line, "#"):
			level := len(line) - len(strings.TrimLeft(line, "#"))
			text := strings.TrimSpace(line[level:])
			// The first H1 repeats the title already printed above.
			if level == 1 && !skippedTitle && meta.Key != "" {
				skippedTitle = true
				continue
			}
			renderHeading(pdf, tr(cleanInlineMarkdown(text)), level)

		case trimmed == "---" || trimmed == "***":
			pdf.Ln(2)
			_, y := pdf.GetXY()
			w, _ := pdf.GetPageSize()
			left, _, right, _ := pdf.GetMargins()
			pdf.SetDrawColor(180, 180, 180)
			pdf.Line(left, y, w-right, y)
			pdf.Ln(3)

		case strings.HasPrefix(trimmed, "|"):
			if tableRule.MatchString(trimmed) {
				continue
			}
			cells := strings.Split(strings.Trim(trimmed, "|"), " | ")
			for i := range cells {
				cells[i] = cleanInlineMarkdown(strings.ReplaceAll(cells[i], `\|`, "|"))
			}
			pdf.SetFont("Courier", "", 9)
			pdf.MultiCell(0, 4.5, tr(strings.Join(cells, "  |  ")), "", "L", false)

		case strings.HasPrefix(trimmed, ">"):
			pdf.SetFont("Helvetica", "I", 10)
			pdf.SetTextColor(90, 90, 90)
			pdf.MultiCell(0, 5, tr("    "+cleanInlineMarkdown(strings.TrimLeft(trimmed, "> "))), "", "L", false)
			pdf.SetTextColor(0, 0, 0)

		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			pdf.SetFont("Helvetica", "", 10)
			indent := strings.Repeat("  ", (len(line)-len(strings.TrimLeft(line, " ")))/2)
			pdf.MultiCell(0, 5, tr(indent+"• "+cleanInlineMarkdown(trimmed[2:])), "", "L", false)

		case orderedItem.MatchString(trimmed):
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(trimmed)), "", "L", false)

		default:
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(line)), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

func sourceLine(meta core.WorkItemMetadata) string {
	parts := []string{}
	for _, p := range []string{meta.Project, meta.Type, meta.Status} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	line := strings.Join(parts, " · ")
	if meta.URL != "" {
		if line != "" {
			line += " · "
		}
		line += "Source: " + meta.URL
	}
	return line
}

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, text, "", "L", false)
	pdf.Ln(2)
}

// cleanInlineMarkdown strips inline Markdown formatting for PDF rendering.
// Links keep their text followed by the target.
func cleanInlineMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = strings.ReplaceAll(text, "~~", "")
	text = emphasis.ReplaceAllString(text, " $1 ")
	text = inlineCode.ReplaceAllString(text, "$1")
	text = linkSyntax.ReplaceAllStringFunc(text, func(m string) string {
		sub := linkSyntax.FindStringSubmatch(m)
		if sub[1] == sub[2] || sub[1] == "" {
			return sub[2]
		}
		return sub[1] + " (" + sub[2] + ")"
	})
	return strings.TrimSpace(text)
}
