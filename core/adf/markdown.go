package adf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// AttachmentsMarker stands in for embedded media when media nodes reach
// the renderer unreplaced.
const AttachmentsMarker = "[see-attachments]"

// presenter mirrors one node at render time. The tree is built eagerly
// before any text is produced.
type presenter struct {
	node     *Node
	children []*presenter
	render   renderFunc

	// paragraphs only
	leadingNewline bool
}

type renderFunc func(p *presenter) string

var renderers map[NodeType]renderFunc

func init() {
	renderers = map[NodeType]renderFunc{
		TypeDoc:           joinLines,
		TypeParagraph:     renderParagraph,
		TypeText:          renderText,
		TypeHeading:       renderHeading,
		TypeHardBreak:     func(*presenter) string { return "  \n" },
		TypeRule:          func(*presenter) string { return "\n---\n" },
		TypeBulletList:    renderBulletList,
		TypeOrderedList:   renderOrderedList,
		TypeListItem:      joinLines,
		TypeTaskList:      renderBulletList,
		TypeTaskItem:      renderTaskItem,
		TypeBlockTaskItem: renderTaskItem,
		TypeTable:         renderTable,
		TypeTableRow:      renderTableRow,
		TypeTableHeader:   concat,
		TypeTableCell:     concat,
		TypeBlockquote:    renderQuoted,
		TypePanel:         renderQuoted,
		TypeCodeBlock:     renderCodeBlock,
		TypeExpand:        renderExpand,
		TypeMention:       func(p *presenter) string { return p.node.Text },
		TypeInlineCard:    func(p *presenter) string { return p.node.URL },
		TypeMediaSingle:   func(*presenter) string { return AttachmentsMarker },
		TypeMedia:         func(*presenter) string { return AttachmentsMarker },
		TypeMediaInline:   func(*presenter) string { return AttachmentsMarker },
		TypeEmoji:         renderEmoji,
		TypeDate:          renderDate,
	}
}

// RenderRoot renders a node tree to Markdown. Any failure while building
// or rendering the presenter tree blanks the whole result.
func RenderRoot(n *Node) string {
	if n == nil {
		return ""
	}
	md, err := renderRoot(n)
	if err != nil {
		slog.Debug("adf: render failed", "root", n.Type, "err", err)
		return ""
	}
	return md
}

func renderRoot(n *Node) (md string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rendering %s node: %v", n.Type, r)
		}
	}()
	p, err := newPresenter(n, nil, true, false)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

func newPresenter(n *Node, parent *Node, first, afterHardBreak bool) (*presenter, error) {
	if n == nil {
		return nil, fmt.Errorf("nil node under %s", parent.Type)
	}
	render, ok := renderers[n.Type]
	if !ok {
		return nil, fmt.Errorf("markdown presenter: %w %q", ErrUnsupportedNode, string(n.Type))
	}
	p := &presenter{node: n, render: render}
	if n.Type == TypeParagraph {
		p.leadingNewline = !(parent == nil || first || afterHardBreak || parent.Type == TypeListItem)
	}

	p.children = make([]*presenter, 0, len(n.Children))
	var prev NodeType
	for i, child := range n.Children {
		cp, err := newPresenter(child, n, i == 0, prev == TypeHardBreak)
		if err != nil {
			return nil, err
		}
		p.children = append(p.children, cp)
		prev = child.Type
	}
	return p, nil
}

func (p *presenter) String() string {
	return p.render(p)
}

func (p *presenter) childStrings() []string {
	out := make([]string, len(p.children))
	for i, c := range p.children {
		out[i] = c.String()
	}
	return out
}

func concat(p *presenter) string {
	return strings.Join(p.childStrings(), "")
}

func joinLines(p *presenter) string {
	return strings.Join(p.childStrings(), "\n")
}

func renderParagraph(p *presenter) string {
	if p.leadingNewline {
		return "\n" + concat(p)
	}
	return concat(p)
}

func renderText(p *presenter) string {
	n := p.node
	out := n.Text
	if n.Bold {
		out = wrap(out, "**")
	}
	if n.Italic {
		out = wrap(out, "*")
	}
	if n.Strike {
		out = wrap(out, "~~")
	}
	if n.Code {
		out = wrap(out, "`")
	}
	if n.Link != "" {
		out = "[" + out + "](" + n.Link + ")"
	}
	return out
}

// wrap surrounds text with a delimiter, moving trailing spaces outside the
// closing delimiter so "word " becomes "**word** ".
func wrap(text, delim string) string {
	trimmed := strings.TrimRight(text, " ")
	spaces := len(text) - len(trimmed)
	return delim + trimmed + delim + strings.Repeat(" ", spaces)
}

func renderHeading(p *presenter) string {
	parts := append([]string{strings.Repeat("#", p.node.Level)}, p.childStrings()...)
	return strings.Join(parts, " ")
}

func renderBulletList(p *presenter) string {
	items := make([]string, len(p.children))
	for i, c := range p.children {
		items[i] = listEntry("- ", c.String())
	}
	return strings.Join(items, "\n")
}

func renderOrderedList(p *presenter) string {
	items := make([]string, len(p.children))
	for i, c := range p.children {
		items[i] = listEntry(strconv.Itoa(p.node.Order+i)+". ", c.String())
	}
	return strings.Join(items, "\n")
}

// listEntry puts the marker on the first line of an item and indents the
// remaining lines to the marker width so nested blocks stay inside it.
func listEntry(marker, item string) string {
	lines := strings.Split(item, "\n")
	indent := strings.Repeat(" ", len(marker))
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return marker + strings.Join(lines, "\n")
}

func renderTaskItem(p *presenter) string {
	box := "[ ] "
	if strings.EqualFold(p.node.State, "done") {
		box = "[x] "
	}
	return box + joinLines(p)
}

func renderTable(p *presenter) string {
	rows := make([]string, 0, len(p.children))
	for _, row := range p.children {
		rows = append(rows, row.String())
		if row.node.HasHeader() {
			cols := make([]string, row.node.ColumnCount())
			for i := range cols {
				cols[i] = "---"
			}
			rows = append(rows, "| "+strings.Join(cols, " | ")+" |")
		}
	}
	return strings.Join(rows, "\n")
}

func renderTableRow(p *presenter) string {
	return "| " + strings.Join(p.childStrings(), " | ") + " |"
}

func renderQuoted(p *presenter) string {
	var lines []string
	for _, c := range p.children {
		for _, line := range splitLines(c.String()) {
			lines = append(lines, "> "+line)
		}
	}
	return strings.Join(lines, "\n")
}

// splitLines breaks s into lines without a trailing empty line, so "a\n"
// yields one line and "" yields none.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

func renderCodeBlock(p *presenter) string {
	lang := p.node.Language
	parts := []string{"```" + lang}
	for _, c := range p.children {
		code := c.String()
		if lang == "json" {
			code = indentJSON(code)
		}
		parts = append(parts, code)
	}
	parts = append(parts, "```")
	return strings.Join(parts, "\n")
}

// indentJSON pretty-prints valid JSON with a three-space indent and returns
// anything else unchanged.
func indentJSON(code string) string {
	src := []byte(strings.TrimSpace(code))
	if !json.Valid(src) {
		return code
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, src, "", "   "); err != nil {
		return code
	}
	return buf.String()
}

func renderExpand(p *presenter) string {
	parts := []string{"<details>", "<summary>" + p.node.Title + "</summary>\n"}
	parts = append(parts, p.childStrings()...)
	parts = append(parts, "</details>")
	return strings.Join(parts, "\n")
}

func renderEmoji(p *presenter) string {
	switch {
	case p.node.Text != "":
		return p.node.Text
	case p.node.ShortName != "":
		return p.node.ShortName
	}
	return "[emoji]"
}

// millisThreshold separates second from millisecond timestamps; 1e11
// seconds lies in the year 5138.
const millisThreshold = 100_000_000_000

func renderDate(p *presenter) string {
	ts, err := strconv.ParseFloat(strings.TrimSpace(p.node.Timestamp), 64)
	if err != nil {
		return ""
	}
	sec := int64(ts)
	if ts >= millisThreshold {
		sec = int64(ts / 1000)
	}
	return time.Unix(sec, 0).UTC().Format(time.DateOnly)
}
