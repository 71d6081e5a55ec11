package adf

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrUnsupportedNode is returned when a node carries a type tag the
	// converter does not know.
	ErrUnsupportedNode = errors.New("unhandled node type")
	// ErrInvalidNode is returned when a node lacks an attribute its type
	// requires.
	ErrInvalidNode = errors.New("invalid node")
)

const (
	// Markdown has six heading levels; deeper headings render as level 6.
	maxHeadingLevel = 6
	// A colspan above this is treated as 1.
	maxColspan = 1000
)

// Node is a validated ADF node. Only the fields relevant to Type are set.
// A node owns its children; trees never share nodes.
type Node struct {
	Type     NodeType
	Children []*Node

	// text, mention
	Text string
	// text marks
	Bold   bool
	Italic bool
	Code   bool
	Strike bool
	Link   string

	// heading
	Level int
	// orderedList, starting number
	Order int
	// codeBlock
	Language string
	// expand
	Title string
	// inlineCard
	URL string
	// tableCell, tableHeader
	Colspan int
	// date, raw timestamp attribute
	Timestamp string
	// emoji
	ShortName string
	// taskItem, blockTaskItem
	State string
	// mention account id, media id
	ID string
	// media
	MediaType string
	Alt       string
}

// ColumnCount is the sum of the colspans of a table row's cells.
func (n *Node) ColumnCount() int {
	count := 0
	for _, c := range n.Children {
		if c.Type == TypeTableCell || c.Type == TypeTableHeader {
			count += c.Colspan
		}
	}
	return count
}

// HasHeader reports whether a table row contains a header cell.
func (n *Node) HasHeader() bool {
	for _, c := range n.Children {
		if c.Type == TypeTableHeader {
			return true
		}
	}
	return false
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidNode}, args...)...)
}

// Build constructs a Node from a raw ADF map.
//
// A map without a "type" key yields (nil, nil) and is meant to be skipped.
// An unknown type yields ErrUnsupportedNode, a missing required attribute
// ErrInvalidNode. Errors from children propagate unchanged.
func Build(raw Raw) (*Node, error) {
	tag, present := raw["type"]
	if !present || tag == nil {
		return nil, nil
	}
	s, ok := tag.(string)
	if !ok || !NodeType(s).Known() {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedNode, fmt.Sprint(tag))
	}

	n := &Node{Type: NodeType(s)}
	attrs := AttrsOf(raw)

	children := rawChildren(raw)
	if n.Type.IsList() {
		children = listItemsOnly(n.Type, children)
	}
	var err error
	if n.Children, err = buildChildren(children); err != nil {
		return nil, err
	}

	switch n.Type {
	case TypeText:
		text, ok := raw["text"].(string)
		if !ok {
			return nil, invalidf("text node must contain text")
		}
		n.Text = text
		applyMarks(n, raw["marks"])
	case TypeMention:
		text, ok := stringAttr(attrs, "text")
		if !ok {
			return nil, invalidf("mention node must contain attrs.text")
		}
		n.Text = text
		n.ID, _ = stringAttr(attrs, "id")
	case TypeHeading:
		level, ok := intAttr(attrs, "level")
		if !ok || level < 1 {
			return nil, invalidf("heading node must contain attrs.level")
		}
		n.Level = min(level, maxHeadingLevel)
	case TypeOrderedList:
		n.Order = 1
		if order, ok := intAttr(attrs, "order"); ok && order > 0 {
			n.Order = order
		}
	case TypeCodeBlock:
		n.Language, _ = stringAttr(attrs, "language")
	case TypeExpand:
		n.Title, _ = stringAttr(attrs, "title")
		if n.Title == "" {
			n.Title = "Click to expand"
		}
	case TypeInlineCard:
		url, ok := stringAttr(attrs, "url")
		if !ok {
			return nil, invalidf("inlineCard node must contain attrs.url")
		}
		n.URL = url
	case TypeMediaSingle:
		if len(n.Children) != 1 || n.Children[0].Type != TypeMedia {
			return nil, invalidf("mediaSingle node must contain exactly one media node")
		}
	case TypeMedia:
		n.ID, _ = stringAttr(attrs, "id")
		n.MediaType, _ = stringAttr(attrs, "type")
		n.Alt, _ = stringAttr(attrs, "alt")
	case TypeEmoji:
		n.Text, _ = stringAttr(attrs, "text")
		n.ShortName, _ = stringAttr(attrs, "shortName")
	case TypeDate:
		ts, ok := scalarAttr(attrs, "timestamp")
		if !ok {
			return nil, invalidf("date node must contain attrs.timestamp")
		}
		n.Timestamp = ts
	case TypeTaskItem, TypeBlockTaskItem:
		state, ok := stringAttr(attrs, "state")
		if !ok {
			return nil, invalidf("%s node must contain attrs.state", n.Type)
		}
		n.State = state
	case TypeTableCell, TypeTableHeader:
		n.Colspan = 1
		if span, ok := intAttr(attrs, "colspan"); ok && span > 0 && span <= maxColspan {
			n.Colspan = span
		}
	}
	return n, nil
}

// BuildNodes builds each raw node in order, skipping those without a type.
// The first construction error is returned as is.
func BuildNodes(raws []Raw) ([]*Node, error) {
	return buildChildren(raws)
}

func buildChildren(raws []Raw) ([]*Node, error) {
	nodes := make([]*Node, 0, len(raws))
	for _, raw := range raws {
		n, err := Build(raw)
		if err != nil {
			return nil, err
		}
		if n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// listItemsOnly drops list children that are not list items. Their content
// is never rendered, so no validation is attempted on them.
func listItemsOnly(list NodeType, children []Raw) []Raw {
	items := children[:0:0]
	for _, c := range children {
		if TypeOf(c) == TypeListItem {
			items = append(items, c)
			continue
		}
		slog.Debug("adf: dropping list child", "list", list, "child", TypeOf(c))
	}
	return items
}

func applyMarks(n *Node, marks any) {
	var list []any
	switch v := marks.(type) {
	case []any:
		list = v
	case []map[string]any:
		for _, m := range v {
			list = append(list, m)
		}
	}
	for _, m := range list {
		mark, ok := m.(map[string]any)
		if !ok {
			continue
		}
		switch mark["type"] {
		case MarkStrong:
			n.Bold = true
		case MarkEm:
			n.Italic = true
		case MarkCode:
			n.Code = true
		case MarkStrike:
			n.Strike = true
		case MarkLink:
			if n.Link != "" {
				continue
			}
			n.Link, _ = stringAttr(AttrsOf(mark), "href")
		}
	}
}
