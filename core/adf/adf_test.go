package adf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodes(children ...Raw) []any {
	out := make([]any, len(children))
	for i, c := range children {
		out[i] = c
	}
	return out
}

func block(t NodeType, children ...Raw) Raw {
	return Raw{"type": string(t), "content": nodes(children...)}
}

func withAttrs(raw Raw, attrs map[string]any) Raw {
	raw["attrs"] = attrs
	return raw
}

func text(s string, marks ...string) Raw {
	raw := Raw{"type": "text", "text": s}
	if len(marks) > 0 {
		list := make([]any, len(marks))
		for i, m := range marks {
			list[i] = map[string]any{"type": m}
		}
		raw["marks"] = list
	}
	return raw
}

func link(s, href string) Raw {
	return Raw{"type": "text", "text": s, "marks": []any{
		map[string]any{"type": "link", "attrs": map[string]any{"href": href}},
	}}
}

func para(children ...Raw) Raw { return block(TypeParagraph, children...) }
func doc(children ...Raw) Raw  { return block(TypeDoc, children...) }
func item(children ...Raw) Raw { return block(TypeListItem, children...) }

func render(t *testing.T, raw Raw) string {
	t.Helper()
	n, err := Build(raw)
	require.NoError(t, err)
	require.NotNil(t, n)
	return RenderRoot(n)
}

func TestBuild(t *testing.T) {
	t.Run("missing type is skipped", func(t *testing.T) {
		n, err := Build(Raw{})
		assert.NoError(t, err)
		assert.Nil(t, n)
	})

	t.Run("unknown type names the tag", func(t *testing.T) {
		_, err := Build(Raw{"type": "foo"})
		require.ErrorIs(t, err, ErrUnsupportedNode)
		assert.Contains(t, err.Error(), `"foo"`)
	})

	t.Run("unknown child propagates", func(t *testing.T) {
		_, err := Build(para(Raw{"type": "foo"}))
		assert.ErrorIs(t, err, ErrUnsupportedNode)
	})

	invalid := []struct {
		name string
		raw  Raw
		msg  string
	}{
		{"heading without level", block(TypeHeading, text("x")), "heading node must contain attrs.level"},
		{"heading level zero", withAttrs(block(TypeHeading), map[string]any{"level": 0}), "attrs.level"},
		{"mention without text", withAttrs(Raw{"type": "mention"}, map[string]any{"id": "A"}), "mention node must contain attrs.text"},
		{"inlineCard without url", Raw{"type": "inlineCard"}, "inlineCard node must contain attrs.url"},
		{"mediaSingle without media", block(TypeMediaSingle), "exactly one media node"},
		{"mediaSingle with two media", block(TypeMediaSingle, Raw{"type": "media"}, Raw{"type": "media"}), "exactly one media node"},
		{"mediaSingle with paragraph", block(TypeMediaSingle, para()), "exactly one media node"},
		{"text without text", Raw{"type": "text"}, "text node must contain text"},
		{"date without timestamp", Raw{"type": "date"}, "date node must contain attrs.timestamp"},
		{"taskItem without state", block(TypeTaskItem), "taskItem node must contain attrs.state"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.raw)
			require.ErrorIs(t, err, ErrInvalidNode)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}

	t.Run("text marks", func(t *testing.T) {
		raw := Raw{"type": "text", "text": "x", "marks": []any{
			map[string]any{"type": "strong"},
			map[string]any{"type": "em"},
			map[string]any{"type": "underline"},
			map[string]any{"type": "link", "attrs": map[string]any{"href": "https://first"}},
			map[string]any{"type": "link", "attrs": map[string]any{"href": "https://second"}},
			map[string]any{"attrs": map[string]any{}},
		}}
		n, err := Build(raw)
		require.NoError(t, err)
		assert.True(t, n.Bold)
		assert.True(t, n.Italic)
		assert.False(t, n.Code)
		assert.Equal(t, "https://first", n.Link)
	})

	t.Run("lists keep only list items", func(t *testing.T) {
		raw := block(TypeBulletList, item(para(text("a"))), Raw{"type": "foo"}, para(text("b")))
		n, err := Build(raw)
		require.NoError(t, err)
		require.Len(t, n.Children, 1)
		assert.Equal(t, TypeListItem, n.Children[0].Type)
	})

	t.Run("ordered list start", func(t *testing.T) {
		n, err := Build(block(TypeOrderedList))
		require.NoError(t, err)
		assert.Equal(t, 1, n.Order)

		n, err = Build(withAttrs(block(TypeOrderedList), map[string]any{"order": float64(3)}))
		require.NoError(t, err)
		assert.Equal(t, 3, n.Order)
	})

	t.Run("row column count sums colspans", func(t *testing.T) {
		row := block(TypeTableRow,
			withAttrs(block(TypeTableHeader), map[string]any{"colspan": float64(2)}),
			block(TypeTableCell),
		)
		n, err := Build(row)
		require.NoError(t, err)
		assert.Equal(t, 3, n.ColumnCount())
		assert.True(t, n.HasHeader())
	})

	t.Run("oversized colspan counts as one column", func(t *testing.T) {
		for _, span := range []any{float64(1 << 36), 1001, float64(1e300)} {
			row := block(TypeTableRow,
				withAttrs(block(TypeTableHeader), map[string]any{"colspan": span}),
				block(TypeTableCell),
			)
			n, err := Build(row)
			require.NoError(t, err)
			assert.Equal(t, 2, n.ColumnCount(), "colspan %v", span)
		}
	})

	t.Run("heading level is capped at six", func(t *testing.T) {
		n, err := Build(withAttrs(block(TypeHeading, text("x")), map[string]any{"level": float64(7)}))
		require.NoError(t, err)
		assert.Equal(t, 6, n.Level)

		n, err = Build(withAttrs(block(TypeHeading, text("x")), map[string]any{"level": 1 << 40}))
		require.NoError(t, err)
		assert.Equal(t, 6, n.Level)
	})

	t.Run("children without type are skipped", func(t *testing.T) {
		n, err := Build(para(text("a"), Raw{"text": "lost"}, text("b")))
		require.NoError(t, err)
		require.Len(t, n.Children, 2)
		assert.Equal(t, "b", n.Children[1].Text)
	})
}

func TestBuildNodes(t *testing.T) {
	ns, err := BuildNodes([]Raw{para(text("a")), {}, withAttrs(block(TypeHeading, text("h")), map[string]any{"level": 2})})
	require.NoError(t, err)
	require.Len(t, ns, 2)
	assert.Equal(t, TypeParagraph, ns[0].Type)
	assert.Equal(t, TypeHeading, ns[1].Type)

	_, err = BuildNodes([]Raw{para(text("a")), {"type": "foo"}})
	assert.ErrorIs(t, err, ErrUnsupportedNode)
}

func TestRenderRoot(t *testing.T) {
	cases := []struct {
		name string
		raw  Raw
		want string
	}{
		{"date", withAttrs(Raw{"type": "date"}, map[string]any{"timestamp": "1582152559"}), "2020-02-19"},
		{"date in milliseconds", withAttrs(Raw{"type": "date"}, map[string]any{"timestamp": float64(1582152559000)}), "2020-02-19"},
		{"date not a number", withAttrs(Raw{"type": "date"}, map[string]any{"timestamp": "soon"}), ""},
		{"paragraph", para(text("hello")), "hello"},
		{"plain text runs", para(text("one "), text("two")), "one two"},
		{"text", text("hello"), "hello"},
		{"hard break", doc(para(text("hello"), Raw{"type": "hardBreak"})), "hello  \n"},
		{"bullet list", block(TypeBulletList, item(para(text("hello")))), "- hello"},
		{"list item", item(para(text("hello"))), "hello"},
		{"list item with two paragraphs", block(TypeBulletList, item(para(text("a")), para(text("b")))), "- a\n  b"},
		{
			"nested list",
			block(TypeBulletList, item(para(text("a")), block(TypeBulletList, item(para(text("b")))))),
			"- a\n  - b",
		},
		{"panel", withAttrs(block(TypePanel, para(text("hello"))), map[string]any{"panelType": "info"}), "> hello"},
		{"table", block(TypeTable, block(TypeTableRow, block(TypeTableCell, para(text("hello"))))), "| hello |"},
		{"table row", block(TypeTableRow, block(TypeTableCell, para(text("a"))), block(TypeTableCell, para(text("b")))), "| a | b |"},
		{"table header", block(TypeTableHeader, para(text("Hello world header"))), "Hello world header"},
		{"doc", doc(para(text("Hello world"))), "Hello world"},
		{"doc with two paragraphs", doc(para(text("first")), para(text("second"))), "first\n\nsecond"},
		{"mention", withAttrs(Raw{"type": "mention"}, map[string]any{"id": "ABCDE", "text": "@Bart Simpson"}), "@Bart Simpson"},
		{
			"ordered list",
			withAttrs(block(TypeOrderedList, item(para(text("a"))), item(para(text("b")))), map[string]any{"order": float64(3)}),
			"3. a\n4. b",
		},
		{"inline card", withAttrs(Raw{"type": "inlineCard"}, map[string]any{"url": "https://foo.bar"}), "https://foo.bar"},
		{"blockquote", block(TypeBlockquote, para(text("Hello world"))), "> Hello world"},
		{"blockquote with two paragraphs", block(TypeBlockquote, para(text("a")), para(text("b"))), "> a\n> \n> b"},
		{
			"code block",
			withAttrs(block(TypeCodeBlock, text("var foo = {};\nvar bar = [];")), map[string]any{"language": "javascript"}),
			"```javascript\nvar foo = {};\nvar bar = [];\n```",
		},
		{
			"json code block is indented",
			withAttrs(block(TypeCodeBlock, text(`{"a": 1}`)), map[string]any{"language": "json"}),
			"```json\n{\n   \"a\": 1\n}\n```",
		},
		{
			"invalid json is kept",
			withAttrs(block(TypeCodeBlock, text(`{"a": `)), map[string]any{"language": "json"}),
			"```json\n{\"a\": \n```",
		},
		{
			"code block without language",
			withAttrs(block(TypeCodeBlock, text(`{"a": 1}`)), map[string]any{"language": ""}),
			"```\n{\"a\": 1}\n```",
		},
		{
			"expand",
			withAttrs(block(TypeExpand, para(text("Hello world"))), map[string]any{"title": "Hello Bart"}),
			"<details>\n<summary>Hello Bart</summary>\n\nHello world\n</details>",
		},
		{
			"expand default title",
			block(TypeExpand, para(text("x"))),
			"<details>\n<summary>Click to expand</summary>\n\nx\n</details>",
		},
		{"heading", withAttrs(block(TypeHeading, text("Heading 1")), map[string]any{"level": float64(1)}), "# Heading 1"},
		{"heading children joined by spaces", withAttrs(block(TypeHeading, text("a"), text("b")), map[string]any{"level": 3}), "### a b"},
		{
			"media single",
			block(TypeMediaSingle, withAttrs(Raw{"type": "media"}, map[string]any{"id": "4478e39c", "type": "file", "alt": "moon.jpeg"})),
			"[see-attachments]",
		},
		{"media inline", withAttrs(Raw{"type": "mediaInline"}, map[string]any{"id": "x", "type": "file"}), "[see-attachments]"},
		{"emoji", withAttrs(Raw{"type": "emoji"}, map[string]any{"shortName": ":grinning:", "text": "😀"}), "😀"},
		{"emoji short name", withAttrs(Raw{"type": "emoji"}, map[string]any{"shortName": ":grinning:"}), ":grinning:"},
		{"emoji fallback", Raw{"type": "emoji"}, "[emoji]"},
		{"rule", doc(para(text("Hello world")), Raw{"type": "rule"}), "Hello world\n\n---\n"},
		{
			"task list",
			withAttrs(block(TypeTaskList,
				withAttrs(block(TypeTaskItem, text("Text 1")), map[string]any{"localId": "75", "state": "DONE"}),
				withAttrs(block(TypeTaskItem, link("some text", "http://foo.bar")), map[string]any{"localId": "522", "state": "DONE"}),
			), map[string]any{"localId": "bebd81b"}),
			"- [x] Text 1\n- [x] [some text](http://foo.bar)",
		},
		{"task item open", withAttrs(block(TypeTaskItem, text("Text 1")), map[string]any{"state": "To Do"}), "[ ] Text 1"},
		{"bold keeps trailing spaces outside", para(text("word  ", "strong"), text("next")), "**word**  next"},
		{"bold then italic", text("x", "strong", "em"), "***x***"},
		{"italic", text("x ", "em"), "*x* "},
		{"code mark", text("ls", "code"), "`ls`"},
		{"strike", text("gone", "strike"), "~~gone~~"},
		{
			"bold link",
			Raw{"type": "text", "text": "x", "marks": []any{
				map[string]any{"type": "strong"},
				map[string]any{"type": "link", "attrs": map[string]any{"href": "u"}},
			}},
			"[**x**](u)",
		},
		{
			"table header separator",
			block(TypeTable,
				block(TypeTableRow,
					block(TypeTableHeader, para(text("a"))),
					withAttrs(block(TypeTableHeader, para(text("b"))), map[string]any{"colspan": float64(2)}),
				),
				block(TypeTableRow, block(TypeTableCell, para(text("c"))), block(TypeTableCell, para(text("d")))),
			),
			"| a | b |\n| --- | --- | --- |\n| c | d |",
		},
		{
			"huge colspan renders one separator column",
			block(TypeTable,
				block(TypeTableRow, withAttrs(block(TypeTableHeader, para(text("a"))), map[string]any{"colspan": float64(1 << 36)})),
			),
			"| a |\n| --- |",
		},
		{"heading deeper than six", withAttrs(block(TypeHeading, text("x")), map[string]any{"level": 7}), "###### x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, render(t, tc.raw))
		})
	}
}

func TestRenderRootFailuresBlankTheRoot(t *testing.T) {
	assert.Equal(t, "", RenderRoot(nil))
	assert.Equal(t, "", RenderRoot(&Node{Type: "bogus"}))

	root := &Node{Type: TypeDoc, Children: []*Node{
		{Type: TypeParagraph, Children: []*Node{{Type: TypeText, Text: "fine"}}},
		{Type: TypeParagraph, Children: []*Node{{Type: "bogus"}}},
	}}
	assert.Equal(t, "", RenderRoot(root))

	broken := &Node{Type: TypeDoc, Children: []*Node{nil}}
	assert.Equal(t, "", RenderRoot(broken))
}

func TestConvert(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		for _, input := range []any{nil, map[string]any{}, []any{}, []map[string]any{}} {
			md, err := Convert(input)
			require.NoError(t, err)
			assert.Equal(t, "", md)
		}
	})

	t.Run("roots joined by a blank line", func(t *testing.T) {
		md, err := Convert([]any{para(text("hello world!")), para(text("I am"))})
		require.NoError(t, err)
		assert.Equal(t, "hello world!\n\nI am", md)
	})

	t.Run("join matches individual renders", func(t *testing.T) {
		a := withAttrs(block(TypeHeading, text("Title")), map[string]any{"level": 2})
		b := block(TypeBulletList, item(para(text("x"))))
		md, err := Convert([]map[string]any{a, b})
		require.NoError(t, err)
		assert.Equal(t, render(t, a)+"\n\n"+render(t, b), md)
	})

	t.Run("empty renders are not joined", func(t *testing.T) {
		md, err := Convert([]any{para(), para(text("x")), "not a node"})
		require.NoError(t, err)
		assert.Equal(t, "x", md)
	})

	t.Run("empty root contributes nothing", func(t *testing.T) {
		md, err := Convert([]any{
			para(text("before")),
			withAttrs(Raw{"type": "date"}, map[string]any{"timestamp": "?"}),
			para(text("after")),
		})
		require.NoError(t, err)
		assert.Equal(t, "before\n\nafter", md)
	})

	t.Run("construction errors are returned", func(t *testing.T) {
		_, err := Convert([]any{para(text("ok")), Raw{"type": "foo"}})
		assert.ErrorIs(t, err, ErrUnsupportedNode)

		_, err = Convert(block(TypeHeading, text("no level")))
		assert.ErrorIs(t, err, ErrInvalidNode)
	})

	t.Run("unsupported input", func(t *testing.T) {
		_, err := Convert(42)
		assert.ErrorIs(t, err, ErrInvalidNode)
	})

	t.Run("document", func(t *testing.T) {
		md, err := Convert(doc(
			withAttrs(block(TypeHeading, text("Plan")), map[string]any{"level": 2}),
			para(text("Ship "), text("it", "strong")),
			block(TypeOrderedList, item(para(text("build"))), item(para(text("test")))),
		))
		require.NoError(t, err)
		assert.Equal(t, "## Plan\n\nShip **it**\n1. build\n2. test", md)
	})
}

func TestConvertJSON(t *testing.T) {
	md, err := ConvertJSON([]byte(`{
		"version": 1,
		"type": "doc",
		"content": [
			{"type": "paragraph", "content": [{"type": "text", "text": "Hello "}, {"type": "text", "text": "world", "marks": [{"type": "em"}]}]},
			{"type": "codeBlock", "attrs": {"language": "json"}, "content": [{"type": "text", "text": "[1,2]"}]}
		]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "Hello *world*\n```json\n[\n   1,\n   2\n]\n```", md)

	md, err = ConvertJSON([]byte(`[{"type":"paragraph","content":[{"type":"text","text":"a"}]},{"type":"paragraph","content":[{"type":"text","text":"b"}]}]`))
	require.NoError(t, err)
	assert.Equal(t, "a\n\nb", md)

	_, err = ConvertJSON([]byte(`{`))
	assert.Error(t, err)
}
