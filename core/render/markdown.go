// Package render provides output renderers for assembled work item documents.
// This file implements the Markdown renderer, which is a simple passthrough.
package render

import (
	"github.com/gaurav-prasanna/jirapipe/core"
)

// MarkdownRenderer writes Markdown as-is. Markdown is already the canonical
// document format, so there is nothing to do.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render returns the Markdown as bytes, with a trailing newline guaranteed.
func (r *MarkdownRenderer) Render(markdown string, _ core.WorkItemMetadata) ([]byte, error) {
	if markdown != "" && markdown[len(markdown)-1] != '\n' {
		markdown += "\n"
	}
	return []byte(markdown), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
