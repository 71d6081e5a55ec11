// Package adf converts Atlassian Document Format (ADF) trees, the JSON
// wire format Jira uses for rich-text fields, into Markdown.
//
// Conversion happens in two stages: Build turns a raw map tree into a
// *Node tree, validating the attributes each node type needs, and
// RenderRoot walks that tree through a presenter tree to produce text.
// Convert runs both stages over a document or a list of nodes.
package adf

// NodeType is the "type" tag of an ADF node.
type NodeType string

// Node types understood by the converter.
const (
	TypeDoc           NodeType = "doc"
	TypeParagraph     NodeType = "paragraph"
	TypeText          NodeType = "text"
	TypeHeading       NodeType = "heading"
	TypeHardBreak     NodeType = "hardBreak"
	TypeRule          NodeType = "rule"
	TypeBulletList    NodeType = "bulletList"
	TypeOrderedList   NodeType = "orderedList"
	TypeListItem      NodeType = "listItem"
	TypeTaskList      NodeType = "taskList"
	TypeTaskItem      NodeType = "taskItem"
	TypeBlockTaskItem NodeType = "blockTaskItem"
	TypeTable         NodeType = "table"
	TypeTableRow      NodeType = "tableRow"
	TypeTableHeader   NodeType = "tableHeader"
	TypeTableCell     NodeType = "tableCell"
	TypeBlockquote    NodeType = "blockquote"
	TypeCodeBlock     NodeType = "codeBlock"
	TypePanel         NodeType = "panel"
	TypeExpand        NodeType = "expand"
	TypeMention       NodeType = "mention"
	TypeInlineCard    NodeType = "inlineCard"
	TypeMediaSingle   NodeType = "mediaSingle"
	TypeMedia         NodeType = "media"
	TypeMediaInline   NodeType = "mediaInline"
	TypeEmoji         NodeType = "emoji"
	TypeDate          NodeType = "date"
)

// Mark types read from text nodes. Other marks (underline, textColor,
// subsup) are accepted and ignored.
const (
	MarkStrong = "strong"
	MarkEm     = "em"
	MarkCode   = "code"
	MarkStrike = "strike"
	MarkLink   = "link"
)

var knownTypes = map[NodeType]bool{
	TypeDoc:           true,
	TypeParagraph:     true,
	TypeText:          true,
	TypeHeading:       true,
	TypeHardBreak:     true,
	TypeRule:          true,
	TypeBulletList:    true,
	TypeOrderedList:   true,
	TypeListItem:      true,
	TypeTaskList:      true,
	TypeTaskItem:      true,
	TypeBlockTaskItem: true,
	TypeTable:         true,
	TypeTableRow:      true,
	TypeTableHeader:   true,
	TypeTableCell:     true,
	TypeBlockquote:    true,
	TypeCodeBlock:     true,
	TypePanel:         true,
	TypeExpand:        true,
	TypeMention:       true,
	TypeInlineCard:    true,
	TypeMediaSingle:   true,
	TypeMedia:         true,
	TypeMediaInline:   true,
	TypeEmoji:         true,
	TypeDate:          true,
}

// Known reports whether t is a node type the converter can build.
func (t NodeType) Known() bool {
	return knownTypes[t]
}

// IsList reports whether t is a bullet or ordered list.
func (t NodeType) IsList() bool {
	return t == TypeBulletList || t == TypeOrderedList
}

func (t NodeType) String() string {
	return string(t)
}
