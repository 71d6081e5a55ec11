package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gaurav-prasanna/jirapipe/core"
)

// Comments returns one page of a work item's comments, oldest first.
func (c *Client) Comments(ctx context.Context, key string, startAt, maxResults int) (*core.CommentPage, error) {
	q := url.Values{}
	q.Set("startAt", fmt.Sprint(max(startAt, 0)))
	if maxResults > 0 {
		q.Set("maxResults", fmt.Sprint(maxResults))
	}
	q.Set("expand", "renderedBody")

	var page wireCommentPage
	path := c.api("issue/%s/comment?%s", url.PathEscape(key), q.Encode())
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, fmt.Errorf("fetching comments of %s: %w", key, err)
	}
	return page.toCore(), nil
}

// Comment retrieves a single comment.
func (c *Client) Comment(ctx context.Context, key, id string) (*core.Comment, error) {
	var wire wireComment
	path := c.api("issue/%s/comment/%s?expand=renderedBody", url.PathEscape(key), url.PathEscape(id))
	if err := c.do(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return nil, fmt.Errorf("fetching comment %s of %s: %w", id, key, err)
	}
	comment := wire.toCore()
	return &comment, nil
}

// AddComment posts a plain-text comment. API v3 expects a document, so
// the text becomes one paragraph per blank-line separated block.
func (c *Client) AddComment(ctx context.Context, key, text string) (*core.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("comment on %s is empty", key)
	}

	var body any = text
	if c.version == 3 {
		body = TextDocument(text)
	}

	var wire wireComment
	path := c.api("issue/%s/comment", url.PathEscape(key))
	if err := c.do(ctx, http.MethodPost, path, map[string]any{"body": body}, &wire); err != nil {
		return nil, fmt.Errorf("adding comment to %s: %w", key, err)
	}
	comment := wire.toCore()
	return &comment, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, key, id string) error {
	path := c.api("issue/%s/comment/%s", url.PathEscape(key), url.PathEscape(id))
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting comment %s of %s: %w", id, key, err)
	}
	return nil
}

// TextDocument wraps plain text in a document node. Blank lines separate
// paragraphs; single newlines become hard breaks.
func TextDocument(text string) map[string]any {
	var paragraphs []any
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		var inline []any
		for i, line := range strings.Split(block, "\n") {
			if i > 0 {
				inline = append(inline, map[string]any{"type": "hardBreak"})
			}
			inline = append(inline, map[string]any{"type": "text", "text": line})
		}
		paragraphs = append(paragraphs, map[string]any{"type": "paragraph", "content": inline})
	}
	return map[string]any{"type": "doc", "version": 1, "content": paragraphs}
}
