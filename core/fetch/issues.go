package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	jira "github.com/andygrunwald/go-jira"

	"github.com/gaurav-prasanna/jirapipe/core"
)

var summaryFields = []string{"summary", "status", "issuetype"}

// WorkItem retrieves a work item with its rendered fields.
func (c *Client) WorkItem(ctx context.Context, key string) (*core.WorkItem, error) {
	var wire wireIssue
	path := c.api("issue/%s?expand=renderedFields", url.PathEscape(key))
	if err := c.do(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", key, err)
	}
	item, err := wire.toCore(c.sprintField)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return item, nil
}

// Worklogs lists the time-tracking entries of a work item.
func (c *Client) Worklogs(ctx context.Context, key string) ([]core.Worklog, error) {
	var page wireWorklogPage
	if err := c.do(ctx, http.MethodGet, c.api("issue/%s/worklog", url.PathEscape(key)), nil, &page); err != nil {
		return nil, fmt.Errorf("fetching worklogs of %s: %w", key, err)
	}
	logs := make([]core.Worklog, 0, len(page.Worklogs))
	for _, w := range page.Worklogs {
		logs = append(logs, w.toCore())
	}
	return logs, nil
}

// RemoteLinks lists the web links attached to a work item.
func (c *Client) RemoteLinks(ctx context.Context, key string) ([]core.RemoteLink, error) {
	links, resp, err := c.jira.Issue.GetRemoteLinksWithContext(ctx, url.PathEscape(key))
	if err != nil {
		return nil, fmt.Errorf("fetching web links of %s: %w", key, serviceError(resp, err))
	}
	var out []core.RemoteLink
	if links == nil {
		return out, nil
	}
	for _, l := range *links {
		if l.Object == nil || l.Object.URL == "" {
			continue
		}
		title := l.Object.Title
		if title == "" {
			title = l.Object.URL
		}
		out = append(out, core.RemoteLink{ID: l.ID, Title: title, URL: l.Object.URL})
	}
	return out, nil
}

// Search runs a JQL query and returns up to maxResults summaries. API v3
// uses the token-paginated search/jql endpoint; v2 keeps the classic one.
func (c *Client) Search(ctx context.Context, jql string, maxResults int) ([]core.WorkItemSummary, error) {
	if maxResults <= 0 {
		maxResults = 30
	}

	var result wireSearchResult
	var err error
	if c.version == 3 {
		body := map[string]any{
			"jql":        jql,
			"maxResults": maxResults,
			"fields":     summaryFields,
		}
		err = c.do(ctx, http.MethodPost, c.api("search/jql"), body, &result)
	} else {
		q := url.Values{}
		q.Set("jql", jql)
		q.Set("maxResults", strconv.Itoa(maxResults))
		q.Set("fields", "summary,status,issuetype")
		err = c.do(ctx, http.MethodGet, c.api("search?%s", q.Encode()), nil, &result)
	}
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", jql, err)
	}

	items := make([]core.WorkItemSummary, 0, len(result.Issues))
	for _, issue := range result.Issues {
		items = append(items, issue.toCore())
	}
	return items, nil
}

// serviceError maps errors returned by go-jira's service methods, which
// have already consumed the response body.
func serviceError(resp *jira.Response, err error) error {
	if resp != nil && resp.Response != nil {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
	}
	return err
}
