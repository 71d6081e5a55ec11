package rewrite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/jirapipe/core/adf"
	"github.com/gaurav-prasanna/jirapipe/core/adf/rewrite"
)

func block(t adf.NodeType, children ...adf.Raw) adf.Raw {
	content := make([]any, len(children))
	for i, c := range children {
		content[i] = c
	}
	return adf.Raw{"type": string(t), "content": content}
}

func text(s string, marks ...string) adf.Raw {
	raw := adf.Raw{"type": "text", "text": s}
	if len(marks) > 0 {
		list := make([]any, len(marks))
		for i, m := range marks {
			list[i] = map[string]any{"type": m}
		}
		raw["marks"] = list
	}
	return raw
}

func mention(id, display string) adf.Raw {
	attrs := map[string]any{}
	if id != "" {
		attrs["id"] = id
	}
	if display != "" {
		attrs["text"] = display
	}
	return adf.Raw{"type": "mention", "attrs": attrs}
}

func media(alt string) adf.Raw {
	attrs := map[string]any{"id": "4478e39c", "type": "file"}
	if alt != "" {
		attrs["alt"] = alt
	}
	return block(adf.TypeMediaSingle, adf.Raw{"type": "media", "attrs": attrs})
}

func code(src string) adf.Raw { return block(adf.TypeCodeBlock, text(src)) }
func para(c ...adf.Raw) adf.Raw  { return block(adf.TypeParagraph, c...) }
func doc(c ...adf.Raw) adf.Raw   { return block(adf.TypeDoc, c...) }
func item(c ...adf.Raw) adf.Raw  { return block(adf.TypeListItem, c...) }
func bullets(c ...adf.Raw) adf.Raw {
	return block(adf.TypeBulletList, c...)
}

func convert(t *testing.T, tree adf.Raw) string {
	t.Helper()
	md, err := adf.Convert(tree)
	require.NoError(t, err)
	return md
}

func TestFixMarkSpacing(t *testing.T) {
	cases := []struct {
		name string
		in   adf.Raw
		want string
	}{
		{
			"trailing space before mention",
			para(text("Collaboration with ", "strong"), mention("123", "@Placeholder")),
			"**Collaboration with** @Placeholder",
		},
		{
			"trailing space inside sentence",
			para(text("This is "), text("important ", "em"), text("text.")),
			"This is *important* text.",
		},
		{"no stray spaces", para(text("Bold", "strong"), text(" text")), "**Bold** text"},
		{"leading space after sibling", para(text("a"), text(" b", "strong")), "a **b**"},
		{"lone run loses its spaces", para(text(" b ", "strong")), "**b**"},
		{"whitespace-only run", para(text("x"), text("  ", "strong"), text("y")), "x y"},
		{"nested", bullets(item(para(text("Note: ", "strong"), text("done")))), "- **Note:** done"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fixed := rewrite.FixMarkSpacing(tc.in)
			assert.Equal(t, tc.want, convert(t, fixed))
			assert.Equal(t, fixed, rewrite.FixMarkSpacing(fixed))
		})
	}

	t.Run("spacers", func(t *testing.T) {
		fixed := rewrite.FixMarkSpacing(para(text("a"), text(" b ", "em"), text("c")))
		assert.Equal(t, para(text("a"), text(" "), text("b", "em"), text(" "), text("c")), fixed)
	})

	t.Run("plain text is unchanged", func(t *testing.T) {
		in := para(text("Plain text "))
		assert.Equal(t, in, rewrite.FixMarkSpacing(in))
	})

	t.Run("input is not modified", func(t *testing.T) {
		in := para(text("x "), text("word ", "strong"), text("y"))
		rewrite.FixMarkSpacing(in)
		assert.Equal(t, para(text("x "), text("word ", "strong"), text("y")), in)
	})
}

func TestReplaceMedia(t *testing.T) {
	t.Run("single attachment stays in place", func(t *testing.T) {
		in := doc(para(text("See image below:")), media("screenshot.png"), para(text("End of doc")))
		md := convert(t, rewrite.ReplaceMedia(in))
		assert.Equal(t, "See image below:\n\n*(See file \"screenshot.png\" in attachments tab)*\n\nEnd of doc", md)
	})

	t.Run("between text runs", func(t *testing.T) {
		in := doc(para(text("before")), media("x.png"), para(text("after")))
		md := convert(t, rewrite.ReplaceMedia(in))
		ref := `(See file "x.png" in attachments tab)`
		require.Contains(t, md, ref)
		assert.Less(t, indexOf(md, "before"), indexOf(md, ref))
		assert.Less(t, indexOf(md, ref), indexOf(md, "after"))
	})

	t.Run("multiple attachments keep order", func(t *testing.T) {
		in := doc(para(text("First:")), media("img1.png"), para(text("Second:")), media("img2.jpg"))
		md := convert(t, rewrite.ReplaceMedia(in))
		assert.Contains(t, md, `*(See file "img1.png" in attachments tab)*`)
		assert.Contains(t, md, `*(See file "img2.jpg" in attachments tab)*`)
		assert.Less(t, indexOf(md, "img1.png"), indexOf(md, "img2.jpg"))
	})

	t.Run("nested in list", func(t *testing.T) {
		in := doc(bullets(item(para(text("Item 1")), media("nested.png"))))
		md := convert(t, rewrite.ReplaceMedia(in))
		assert.Equal(t, "- Item 1\n  *(See file \"nested.png\" in attachments tab)*", md)
	})

	t.Run("missing alt", func(t *testing.T) {
		md := convert(t, rewrite.ReplaceMedia(doc(media(""))))
		assert.Equal(t, `*(See file "unknown" in attachments tab)*`, md)
	})

	t.Run("mediaSingle without media is removed", func(t *testing.T) {
		out := rewrite.ReplaceMedia(doc(para(text("a")), block(adf.TypeMediaSingle)))
		assert.Equal(t, doc(para(text("a"))), out)
	})

	t.Run("no attachments", func(t *testing.T) {
		in := doc(para(text("Just text")))
		assert.Equal(t, in, rewrite.ReplaceMedia(in))
	})

	t.Run("idempotent and pure", func(t *testing.T) {
		in := doc(para(text("a")), media("a.png"))
		once := rewrite.ReplaceMedia(in)
		assert.Equal(t, once, rewrite.ReplaceMedia(once))
		assert.Equal(t, doc(para(text("a")), media("a.png")), in)
	})
}

func TestMediaReferences(t *testing.T) {
	in := doc(
		para(text("x")),
		media("a.png"),
		media(""),
		bullets(item(media("b.png"))),
	)
	assert.Equal(t, []string{"a.png", "b.png"}, rewrite.MediaReferences(in))
	assert.Empty(t, rewrite.MediaReferences(doc(para(text("none")))))
}

func TestHoistCodeBlocks(t *testing.T) {
	t.Run("blocks follow the list", func(t *testing.T) {
		in := doc(
			bullets(item(para(text("step")), code("ls")), item(code("pwd"))),
			para(text("after")),
		)
		want := doc(
			bullets(item(para(text("step")))),
			code("ls"),
			code("pwd"),
			para(text("after")),
		)
		assert.Equal(t, want, rewrite.HoistCodeBlocks(in))
	})

	t.Run("emptied list is dropped", func(t *testing.T) {
		in := doc(block(adf.TypeOrderedList, item(code("make"))))
		assert.Equal(t, doc(code("make")), rewrite.HoistCodeBlocks(in))
	})

	t.Run("nested lists", func(t *testing.T) {
		in := doc(bullets(item(para(text("a")), bullets(item(code("c"))))))
		want := doc(bullets(item(para(text("a")))), code("c"))
		assert.Equal(t, want, rewrite.HoistCodeBlocks(in))
	})

	t.Run("lists without code are kept", func(t *testing.T) {
		in := doc(bullets(item(para(text("a")))), code("x"))
		assert.Equal(t, in, rewrite.HoistCodeBlocks(in))
	})

	t.Run("idempotent and pure", func(t *testing.T) {
		in := doc(bullets(item(para(text("a")), code("b"))))
		once := rewrite.HoistCodeBlocks(in)
		assert.Equal(t, once, rewrite.HoistCodeBlocks(once))
		assert.Equal(t, doc(bullets(item(para(text("a")), code("b")))), in)
	})

	t.Run("renders", func(t *testing.T) {
		in := doc(bullets(item(para(text("run")), code("make"))))
		assert.Equal(t, "- run\n```\nmake\n```", convert(t, rewrite.HoistCodeBlocks(in)))
	})
}

func TestPrepare(t *testing.T) {
	in := doc(
		bullets(item(para(text("Run ", "strong")), code("make"))),
		media("log.txt"),
		para(mention("A1", "@Dev")),
	)

	md := convert(t, rewrite.Prepare(in, rewrite.Options{BaseURL: "https://h"}))
	assert.Equal(t,
		"- **Run**\n```\nmake\n```\n\n*(See file \"log.txt\" in attachments tab)*\n\n[@Dev](https://h/jira/people/A1)",
		md)

	md = convert(t, rewrite.Prepare(in, rewrite.Options{KeepMedia: true}))
	assert.Equal(t, "- **Run**\n```\nmake\n```\n[see-attachments]\n\n@Dev", md)

	list := rewrite.PrepareAll([]any{para(text("x ", "em"), text("y")), "junk"}, rewrite.Options{})
	require.Len(t, list, 2)
	assert.Equal(t, para(text("x", "em"), text(" "), text("y")), list[0])
	assert.Equal(t, "junk", list[1])
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
