package rewrite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gaurav-prasanna/jirapipe/core/adf"
	"github.com/gaurav-prasanna/jirapipe/core/adf/rewrite"
)

func TestMentions(t *testing.T) {
	cases := []struct {
		name string
		in   adf.Raw
		want []rewrite.Mention
	}{
		{
			"single",
			doc(para(mention("xxxxxx:xxxxxxxx-xxxx", "@Placeholder User"))),
			[]rewrite.Mention{{AccountID: "xxxxxx:xxxxxxxx-xxxx", Text: "@Placeholder User"}},
		},
		{
			"multiple",
			doc(para(mention("712020:abc", "@User One"), text(" and "), mention("712020:def", "@User Two"))),
			[]rewrite.Mention{{AccountID: "712020:abc", Text: "@User One"}, {AccountID: "712020:def", Text: "@User Two"}},
		},
		{"none", doc(para(text("Just text"))), nil},
		{
			"nested",
			doc(bullets(item(para(mention("712020:nested", "@Nested User"))))),
			[]rewrite.Mention{{AccountID: "712020:nested", Text: "@Nested User"}},
		},
		{"missing attrs", doc(para(mention("", ""))), nil},
		{"missing account id", doc(para(mention("", "@User Without ID"))), nil},
		{"missing text", doc(para(mention("712020:abc", ""))), nil},
		{
			"different contexts",
			doc(
				para(mention("712020:user1", "@User One")),
				bullets(item(para(mention("712020:user2", "@User Two")))),
			),
			[]rewrite.Mention{{AccountID: "712020:user1", Text: "@User One"}, {AccountID: "712020:user2", Text: "@User Two"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rewrite.Mentions(tc.in))
		})
	}
}

func TestFormatMentionLink(t *testing.T) {
	m := rewrite.Mention{AccountID: "712020:abc", Text: "@User"}

	assert.Equal(t, "[@User](https://example.atlassian.net/jira/people/712020:abc)",
		rewrite.FormatMentionLink(m, "https://example.atlassian.net"))
	assert.Equal(t, "[@User](https://example.atlassian.net/jira/people/712020:abc)",
		rewrite.FormatMentionLink(m, "https://example.atlassian.net/"))
	assert.Equal(t, "@User", rewrite.FormatMentionLink(m, ""))

	assert.Equal(t, "[@U](https://h/jira/people/A)",
		rewrite.FormatMentionLink(rewrite.Mention{AccountID: "A", Text: "@U"}, "https://h"))
	assert.Equal(t, "[@U](https://h/jira/people/557058:f0a1-b2_c3)",
		rewrite.FormatMentionLink(rewrite.Mention{AccountID: "557058:f0a1-b2_c3", Text: "@U"}, "https://h"))
}

func TestLinkMentions(t *testing.T) {
	in := doc(para(text("ping "), mention("712020:abc", "@User"), text(" and "), mention("", "@Nobody")))

	linked := rewrite.LinkMentions(in, "https://h/")
	assert.Equal(t, "ping [@User](https://h/jira/people/712020:abc) and @Nobody", convert(t, linked))
	assert.Equal(t, linked, rewrite.LinkMentions(linked, "https://h/"))
	assert.Len(t, rewrite.Mentions(in), 1)

	assert.Equal(t, in, rewrite.LinkMentions(in, ""))

	root := rewrite.LinkMentions(mention("A", "@Root"), "https://h")
	assert.Equal(t, "[@Root](https://h/jira/people/A)", convert(t, root))
}
