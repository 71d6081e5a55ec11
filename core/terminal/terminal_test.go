package terminal

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func plain(markdown string, width int) string {
	return ansi.Strip(Render(markdown, width))
}

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, "", Render("", 80))
	assert.Equal(t, "", Render(" \n\n", 80))
}

func TestRenderBlocks(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"heading and paragraph", "# Title\n\nHello **world**", "Title\n\nHello world"},
		{"soft breaks reflow", "one\ntwo", "one two"},
		{"blockquote", "> quoted", "│ quoted"},
		{"bullets", "- a\n- b", "• a\n• b"},
		{"numbers keep start", "3. x\n4. y", "3. x\n4. y"},
		{"nested list", "- a\n  - b", "• a\n  • b"},
		{"task list", "- [x] done\n- [ ] todo", "• [x] done\n• [ ] todo"},
		{"link", "see [docs](https://e.com)", "see docs (https://e.com)"},
		{"bare link", "see [https://e.com](https://e.com)", "see https://e.com"},
		{"autolink", "<https://e.com>", "https://e.com"},
		{"code span", "run `make`", "run make"},
		{"rule", "a\n\n---\n\nb", "a\n\n" + strings.Repeat("─", 40) + "\n\nb"},
		{"code block", "```go\nx := 1\n```", "  x := 1"},
		{"plain code block", "```\nplain\n```", "  plain"},
		{"table", "| A | B |\n| --- | --- |\n| 1 | 22 |", "A  B\n─  ──\n1  22"},
		{"details", "<details>\n<summary>Title</summary>\n\nbody\n\n</details>", "Title\n\nbody"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, plain(tc.in, 40))
		})
	}
}

func TestRenderWraps(t *testing.T) {
	in := "- " + strings.Repeat("word ", 12)
	out := plain(in, 20)

	lines := strings.Split(out, "\n")
	assert.Greater(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "• word"))
	for _, l := range lines {
		assert.LessOrEqual(t, lipgloss.Width(l), 20, l)
	}
	for _, l := range lines[1:] {
		assert.True(t, strings.HasPrefix(l, "  word"), l)
	}
}

func TestRenderDefaultWidth(t *testing.T) {
	out := plain("---", 0)
	assert.Equal(t, strings.Repeat("─", DefaultWidth), out)
}

func TestRenderStyles(t *testing.T) {
	out := Render("**bold**", 40)
	assert.NotEqual(t, "bold", out)
	assert.Equal(t, "bold", ansi.Strip(out))
}
