// Package terminal renders Markdown as styled, word-wrapped text for a
// terminal. It walks the goldmark AST directly so that paragraph content
// can be collected first and wrapped as a unit at the available width.
package terminal

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	// DefaultWidth is used when the caller passes a non-positive width.
	DefaultWidth = 80

	minWidth    = 10
	breakpoints = " ,.;-+|"
	cellGap     = "  "
)

// Theme holds the colors used for rendering.
type Theme struct {
	Text    lipgloss.Color
	Faint   lipgloss.Color
	Heading lipgloss.Color
	Border  lipgloss.Color
	Done    lipgloss.Color
}

// DefaultTheme suits dark terminals.
var DefaultTheme = Theme{
	Text:    lipgloss.Color("252"),
	Faint:   lipgloss.Color("244"),
	Heading: lipgloss.Color("39"),
	Border:  lipgloss.Color("240"),
	Done:    lipgloss.Color("78"),
}

var (
	parser  = goldmark.New(goldmark.WithExtensions(extension.GFM))
	htmlTag = regexp.MustCompile(`<[^>]*>`)
)

// Render formats markdown for a terminal of the given width using
// DefaultTheme. Empty input renders as "".
func Render(markdown string, width int) string {
	return RenderTheme(markdown, DefaultTheme, width)
}

// RenderTheme is Render with an explicit theme.
func RenderTheme(markdown string, theme Theme, width int) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth
	}
	src := []byte(markdown)
	doc := parser.Parser().Parse(text.NewReader(src))

	// Output always targets a terminal, so skip profile detection; it
	// would yield plain text whenever stderr is not a TTY.
	lr := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lr.SetColorProfile(termenv.ANSI256)

	w := &writer{src: src, theme: theme, width: width, lr: lr}
	_ = ast.Walk(doc, w.walk)
	return strings.TrimRight(w.out.String(), "\n")
}

type list struct {
	ordered bool
	next    int
	tight   bool
}

type writer struct {
	src   []byte
	theme Theme
	width int
	lr    *lipgloss.Renderer

	out      strings.Builder
	trailing int // newlines at the end of out

	inline strings.Builder

	prefixes    []string
	prefix      string
	prefixWidth int
	bullet      string // replaces prefix on the next line only

	bold, italic, strike int
	lists                []list
}

func (w *writer) style() lipgloss.Style {
	return w.lr.NewStyle()
}

func (w *writer) available() int {
	return max(w.width-w.prefixWidth, minWidth)
}

func (w *writer) push(p string) {
	w.prefixes = append(w.prefixes, p)
	w.prefix += p
	w.prefixWidth += lipgloss.Width(p)
}

func (w *writer) pop() {
	if len(w.prefixes) == 0 {
		return
	}
	top := w.prefixes[len(w.prefixes)-1]
	w.prefixes = w.prefixes[:len(w.prefixes)-1]
	w.prefix = w.prefix[:len(w.prefix)-len(top)]
	w.prefixWidth -= lipgloss.Width(top)
}

func (w *writer) tight() bool {
	return len(w.lists) > 0 && w.lists[len(w.lists)-1].tight
}

func (w *writer) write(s string) {
	if s == "" {
		return
	}
	w.out.WriteString(s)
	n := len(s) - len(strings.TrimRight(s, "\n"))
	if n == len(s) {
		w.trailing += n
	} else {
		w.trailing = n
	}
}

func (w *writer) newline() {
	if w.out.Len() > 0 && w.trailing < 1 {
		w.write("\n")
	}
}

func (w *writer) blankLine() {
	if w.out.Len() == 0 {
		return
	}
	for w.trailing < 2 {
		w.write("\n")
	}
}

func (w *writer) linePrefix() string {
	if w.bullet != "" {
		b := w.bullet
		w.bullet = ""
		return b
	}
	return w.prefix
}

// indent prefixes every line of s, the first with a pending bullet if any.
func (w *writer) indent(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		if i == 0 {
			lines[i] = w.linePrefix() + lines[i]
		} else {
			lines[i] = w.prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func (w *writer) block(s string) {
	w.write(w.indent(s))
	w.newline()
}

func (w *writer) styled(s string) string {
	st := w.style().Foreground(w.theme.Text)
	if w.bold > 0 {
		st = st.Bold(true)
	}
	if w.italic > 0 {
		st = st.Italic(true)
	}
	if w.strike > 0 {
		st = st.Strikethrough(true)
	}
	return st.Render(s)
}

func (w *writer) faint(s string) string {
	return w.style().Foreground(w.theme.Faint).Render(s)
}

// inlineOf renders the children of n without disturbing the current
// inline buffer or style counters.
func (w *writer) inlineOf(n ast.Node) string {
	saved := w.inline.String()
	bold, italic, strike := w.bold, w.italic, w.strike

	w.inline.Reset()
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		_ = ast.Walk(c, w.walk)
	}
	s := w.inline.String()

	w.inline.Reset()
	w.inline.WriteString(saved)
	w.bold, w.italic, w.strike = bold, italic, strike
	return s
}

func (w *writer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			w.inline.Reset()
			break
		}
		content := w.inline.String()
		w.inline.Reset()
		if content == "" {
			break
		}
		w.block(ansi.Wrap(content, w.available(), breakpoints))
		if !w.tight() {
			w.blankLine()
		}

	case ast.KindHeading:
		if entering {
			w.inline.Reset()
			break
		}
		w.heading(n.(*ast.Heading))

	case ast.KindFencedCodeBlock:
		if entering {
			fc := n.(*ast.FencedCodeBlock)
			w.code(lines(fc, w.src), string(fc.Language(w.src)))
		}
		return ast.WalkSkipChildren, nil

	case ast.KindCodeBlock:
		if entering {
			w.code(lines(n, w.src), "")
		}
		return ast.WalkSkipChildren, nil

	case ast.KindBlockquote:
		if entering {
			w.push(w.style().Foreground(w.theme.Border).Render("│") + " ")
		} else {
			w.pop()
			w.blankLine()
		}

	case ast.KindList:
		if entering {
			l := n.(*ast.List)
			w.lists = append(w.lists, list{ordered: l.IsOrdered(), next: l.Start, tight: l.IsTight})
		} else {
			w.lists = w.lists[:len(w.lists)-1]
			if !w.tight() {
				w.blankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			w.item()
		} else {
			w.pop()
			if w.tight() {
				w.newline()
			} else {
				w.blankLine()
			}
		}

	case ast.KindThematicBreak:
		if entering {
			w.blankLine()
			w.block(w.style().Foreground(w.theme.Border).Render(strings.Repeat("─", w.available())))
			w.blankLine()
		}

	case ast.KindHTMLBlock:
		if entering {
			if s := strings.TrimSpace(htmlTag.ReplaceAllString(lines(n, w.src), "")); s != "" {
				w.block(w.faint(s))
				w.blankLine()
			}
		}
		return ast.WalkSkipChildren, nil

	case ast.KindText:
		if entering {
			t := n.(*ast.Text)
			w.inline.WriteString(w.styled(string(t.Segment.Value(w.src))))
			if t.SoftLineBreak() {
				w.inline.WriteString(" ")
			}
			if t.HardLineBreak() {
				w.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			w.inline.WriteString(w.styled(string(n.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		d := 1
		if !entering {
			d = -1
		}
		if n.(*ast.Emphasis).Level >= 2 {
			w.bold += d
		} else {
			w.italic += d
		}

	case extast.KindStrikethrough:
		if entering {
			w.strike++
		} else {
			w.strike--
		}

	case ast.KindCodeSpan:
		if entering {
			w.inline.WriteString(w.faint(ansi.Strip(w.inlineOf(n))))
		}
		return ast.WalkSkipChildren, nil

	case ast.KindLink:
		if entering {
			l := n.(*ast.Link)
			label := w.inlineOf(l)
			dest := string(l.Destination)
			w.inline.WriteString(label)
			if dest != "" && ansi.Strip(label) != dest {
				w.inline.WriteString(" " + w.faint("("+dest+")"))
			}
		}
		return ast.WalkSkipChildren, nil

	case ast.KindAutoLink:
		if entering {
			w.inline.WriteString(w.faint(string(n.(*ast.AutoLink).URL(w.src))))
		}
		return ast.WalkSkipChildren, nil

	case ast.KindImage:
		if entering {
			img := n.(*ast.Image)
			w.inline.WriteString(w.faint("[" + ansi.Strip(w.inlineOf(img)) + "] (" + string(img.Destination) + ")"))
		}
		return ast.WalkSkipChildren, nil

	case ast.KindRawHTML:
		if entering {
			raw := n.(*ast.RawHTML)
			var b strings.Builder
			for i := 0; i < raw.Segments.Len(); i++ {
				seg := raw.Segments.At(i)
				b.Write(seg.Value(w.src))
			}
			if s := htmlTag.ReplaceAllString(b.String(), ""); s != "" {
				w.inline.WriteString(w.faint(s))
			}
		}
		return ast.WalkSkipChildren, nil

	case extast.KindTaskCheckBox:
		if entering {
			if n.(*extast.TaskCheckBox).IsChecked {
				w.inline.WriteString(w.style().Foreground(w.theme.Done).Render("[x]") + " ")
			} else {
				w.inline.WriteString(w.styled("[ ] "))
			}
		}

	case extast.KindTable:
		if entering {
			w.table(n.(*extast.Table))
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (w *writer) heading(h *ast.Heading) {
	content := ansi.Strip(w.inline.String())
	w.inline.Reset()
	if content == "" {
		return
	}
	st := w.style().Bold(true).Foreground(w.theme.Text)
	if h.Level <= 2 {
		st = st.Foreground(w.theme.Heading)
	}
	w.blankLine()
	w.block(ansi.Wrap(st.Render(content), w.available(), breakpoints))
	w.blankLine()
}

func (w *writer) code(src, lang string) {
	var out string
	if lang != "" {
		var b strings.Builder
		if err := quick.Highlight(&b, src, lang, "terminal256", "monokai"); err == nil {
			out = b.String()
		}
	}
	if out == "" {
		out = w.faint(strings.TrimRight(src, "\n"))
	}
	// Highlighters may close their last escape after the final newline.
	rows := strings.Split(out, "\n")
	for len(rows) > 1 && strings.TrimSpace(ansi.Strip(rows[len(rows)-1])) == "" {
		rows = rows[:len(rows)-1]
	}
	w.blankLine()
	for _, line := range rows {
		w.write(w.linePrefix() + "  " + line)
		w.newline()
	}
	w.blankLine()
}

func (w *writer) item() {
	if len(w.lists) == 0 {
		return
	}
	top := &w.lists[len(w.lists)-1]
	marker := "• "
	if top.ordered {
		marker = fmt.Sprintf("%d. ", top.next)
		top.next++
	}
	w.bullet = w.prefix + marker
	w.push(strings.Repeat(" ", lipgloss.Width(marker)))
}

func (w *writer) table(t *extast.Table) {
	var rows [][]string
	header := false
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		var cells []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, strings.TrimSpace(w.inlineOf(c)))
		}
		if r.Kind() == extast.KindTableHeader {
			header = true
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return
	}

	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	widths := make([]int, cols)
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	total := len(cellGap) * (cols - 1)
	for _, n := range widths {
		total += n
	}
	if avail := w.available(); total > avail {
		usable := max(avail-len(cellGap)*(cols-1), 3*cols)
		for i := range widths {
			widths[i] = max(widths[i]*usable/total, 3)
		}
	}

	w.blankLine()
	for i, r := range rows {
		line := w.row(r, widths, t.Alignments)
		if i == 0 && header {
			line = w.style().Bold(true).Render(line)
		}
		w.write(w.linePrefix() + line)
		w.newline()
		if i == 0 && header {
			rule := make([]string, cols)
			for j, n := range widths {
				rule[j] = strings.Repeat("─", n)
			}
			w.write(w.prefix + w.style().Foreground(w.theme.Border).Render(strings.Join(rule, cellGap)))
			w.newline()
		}
	}
	w.blankLine()
}

func (w *writer) row(cells []string, widths []int, align []extast.Alignment) string {
	parts := make([]string, len(widths))
	for i, n := range widths {
		var c string
		if i < len(cells) {
			c = cells[i]
		}
		if lipgloss.Width(c) > n {
			c = ansi.Truncate(c, n, "…")
		}
		pad := max(n-lipgloss.Width(c), 0)
		var a extast.Alignment
		if i < len(align) {
			a = align[i]
		}
		switch a {
		case extast.AlignRight:
			c = strings.Repeat(" ", pad) + c
		case extast.AlignCenter:
			c = strings.Repeat(" ", pad/2) + c + strings.Repeat(" ", pad-pad/2)
		default:
			c += strings.Repeat(" ", pad)
		}
		parts[i] = c
	}
	return strings.TrimRight(strings.Join(parts, cellGap), " ")
}

// lines concatenates the raw source lines of a block node.
func lines(n ast.Node, src []byte) string {
	var b strings.Builder
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}
