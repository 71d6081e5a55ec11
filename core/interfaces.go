// Package core defines the pipeline interfaces and output types for jirapipe.
// Each stage of the pipeline is a clean, testable interface.
package core

import "context"

// WorkItemMetadata describes the work item a document was built from.
type WorkItemMetadata struct {
	Key        string   `json:"key"`
	Project    string   `json:"project"`
	Summary    string   `json:"summary"`
	Type       string   `json:"type"`
	Status     string   `json:"status"`
	Priority   string   `json:"priority,omitempty"`
	Assignee   string   `json:"assignee,omitempty"`
	Reporter   string   `json:"reporter,omitempty"`
	Labels     []string `json:"labels,omitempty"`
	URL        string   `json:"url,omitempty"`
	Created    string   `json:"created,omitempty"` // ISO8601
	Updated    string   `json:"updated,omitempty"` // ISO8601
	ExportedAt string   `json:"exported_at"`       // ISO8601

	// Attachments names the files embedded in the work item's rich-text
	// fields. The JSON renderer reports them under structure.
	Attachments []string `json:"-"`
}

// Section represents a heading-delimited section of content.
type Section struct {
	Heading string `json:"heading"`
	Level   int    `json:"level"`
	Text    string `json:"text"`
}

// Heading represents a single heading found in the content.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Link represents a hyperlink found in the content.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// DocumentContent holds the text and structured content of a document.
type DocumentContent struct {
	Text     string    `json:"text"`
	Markdown string    `json:"markdown"`
	Sections []Section `json:"sections"`
}

// DocumentStructure holds structural metadata parsed from the content.
type DocumentStructure struct {
	Headings    []Heading `json:"headings"`
	Links       []Link    `json:"links"`
	Mentions    []Link    `json:"mentions"`
	CodeBlocks  int       `json:"code_blocks"`
	Tables      int       `json:"tables"`
	Lists       int       `json:"lists"`
	Attachments []string  `json:"attachments_referenced"`
}

// DocumentJSON is the complete JSON output for a single work item.
type DocumentJSON struct {
	Metadata  WorkItemMetadata  `json:"metadata"`
	Content   DocumentContent   `json:"content"`
	Structure DocumentStructure `json:"structure"`
}

// Fetcher retrieves a work item from the tracker.
type Fetcher interface {
	WorkItem(ctx context.Context, key string) (*WorkItem, error)
}

// Extractor pulls the meaningful fragment out of rendered HTML, stripping noise.
type Extractor interface {
	Extract(html string) (string, error)
}

// Normalizer converts a rich-text field value (ADF tree, HTML or plain
// text) into Markdown, the canonical format.
type Normalizer interface {
	Normalize(value any) (string, error)
}

// Renderer converts Markdown (and metadata) into a final output format.
type Renderer interface {
	Render(markdown string, meta WorkItemMetadata) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}
