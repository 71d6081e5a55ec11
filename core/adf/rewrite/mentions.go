package rewrite

import (
	"strings"

	"github.com/gaurav-prasanna/jirapipe/core/adf"
)

// Mention is a user reference found in a document.
type Mention struct {
	AccountID string `json:"account_id"`
	Text      string `json:"text"`
}

// Mentions collects every mention node that carries both an account id
// and display text, in document order.
func Mentions(node adf.Raw) []Mention {
	var found []Mention
	var walk func(adf.Raw)
	walk = func(n adf.Raw) {
		if m, ok := mentionOf(n); ok {
			found = append(found, m)
		}
		content, _ := adf.ContentOf(n)
		for _, c := range content {
			if child, ok := c.(map[string]any); ok {
				walk(child)
			}
		}
	}
	walk(node)
	return found
}

func mentionOf(n adf.Raw) (Mention, bool) {
	if adf.TypeOf(n) != adf.TypeMention {
		return Mention{}, false
	}
	attrs := adf.AttrsOf(n)
	id, _ := attrs["id"].(string)
	text, _ := attrs["text"].(string)
	if id == "" || text == "" {
		return Mention{}, false
	}
	return Mention{AccountID: id, Text: text}, true
}

// ProfileURL is the address of a user's profile page on a Jira site.
func ProfileURL(baseURL, accountID string) string {
	return strings.TrimRight(baseURL, "/") + "/jira/people/" + accountID
}

// FormatMentionLink renders a mention as a Markdown link to the user's
// profile, or as its bare text when baseURL is empty.
func FormatMentionLink(m Mention, baseURL string) string {
	if baseURL == "" {
		return m.Text
	}
	return "[" + m.Text + "](" + ProfileURL(baseURL, m.AccountID) + ")"
}

// LinkMentions replaces mention nodes that have an account id and text
// with text nodes linking to the user's profile. With an empty baseURL
// the tree is returned as is.
func LinkMentions(node adf.Raw, baseURL string) adf.Raw {
	if baseURL == "" {
		return node
	}
	if m, ok := mentionOf(node); ok {
		return mentionLink(m, baseURL)
	}
	content, ok := adf.ContentOf(node)
	if !ok {
		return node
	}
	out := make([]any, len(content))
	for i, c := range content {
		if child, isNode := c.(map[string]any); isNode {
			out[i] = LinkMentions(child, baseURL)
			continue
		}
		out[i] = c
	}
	return withContent(node, out)
}

func mentionLink(m Mention, baseURL string) adf.Raw {
	link := textNode(m.Text)
	link["marks"] = []any{map[string]any{
		"type":  adf.MarkLink,
		"attrs": map[string]any{"href": ProfileURL(baseURL, m.AccountID)},
	}}
	return link
}
