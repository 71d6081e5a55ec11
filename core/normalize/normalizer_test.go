package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/jirapipe/core/adf"
)

func adfDoc() map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []any{
			map[string]any{"type": "paragraph", "content": []any{
				map[string]any{"type": "text", "text": "Ping "},
				map[string]any{"type": "mention", "attrs": map[string]any{"id": "712020:a", "text": "@Ada"}},
			}},
			map[string]any{"type": "mediaSingle", "content": []any{
				map[string]any{"type": "media", "attrs": map[string]any{"id": "1", "type": "file", "alt": "trace.log"}},
			}},
		},
	}
}

func TestNormalize(t *testing.T) {
	n := New("https://example.atlassian.net", false)

	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"blank string", "  \n ", ""},
		{"plain text", "  just words \n", "just words"},
		{"wiki markup stays", "h1. Title", "h1. Title"},
		{"comparison is not html", "a < b and c > d", "a < b and c > d"},
		{"html", "<p>Hello <strong>world</strong></p>", "Hello **world**"},
		{
			"adf document",
			adfDoc(),
			"Ping [@Ada](https://example.atlassian.net/jira/people/712020:a)\n\n*(See file \"trace.log\" in attachments tab)*",
		},
		{
			"adf node list",
			[]any{map[string]any{"type": "paragraph", "content": []any{map[string]any{"type": "text", "text": "one"}}}},
			"one",
		},
		{
			"typed node list",
			[]map[string]any{{"type": "heading", "attrs": map[string]any{"level": 2}, "content": []any{map[string]any{"type": "text", "text": "Goal"}}}},
			"## Goal",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := n.Normalize(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeKeepMedia(t *testing.T) {
	n := New("", true)
	got, err := n.Normalize(adfDoc())
	require.NoError(t, err)
	assert.Equal(t, "Ping @Ada\n"+adf.AttachmentsMarker, got)
}

func TestNormalizeErrors(t *testing.T) {
	n := New("", false)

	_, err := n.Normalize(42)
	assert.ErrorIs(t, err, adf.ErrInvalidNode)

	_, err = n.Normalize(map[string]any{"type": "heading", "content": []any{}})
	assert.ErrorIs(t, err, adf.ErrInvalidNode)

	_, err = n.Normalize(map[string]any{"type": "hologram"})
	assert.ErrorIs(t, err, adf.ErrUnsupportedNode)
}

func TestNormalizeHTML(t *testing.T) {
	n := &FieldNormalizer{}

	got, err := n.NormalizeHTML(`<h1>Title</h1><p>See <a href="https://example.com">docs</a> with <a class="user-hover" href="#">Ada</a></p><script>x()</script>`)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nSee [docs](https://example.com) with Ada", got)

	got, err = n.NormalizeHTML("")
	require.NoError(t, err)
	assert.Empty(t, got)
}
