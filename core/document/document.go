// Package document assembles a work item, its comments, links and work log
// into a single Markdown page.
package document

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/gaurav-prasanna/jirapipe/core"
	"github.com/gaurav-prasanna/jirapipe/core/adf/rewrite"
)

// Shown in place of a field whose conversion failed.
const (
	DescriptionPlaceholder    = "Unable to display the description"
	CommentPlaceholder        = "Unable to display the comment"
	WorklogCommentPlaceholder = "Unable to display the worklog comment"
)

const (
	timestampLayout = "2006-01-02 15:04"
	noDescription   = "_No description._"
)

// Options controls document assembly.
type Options struct {
	// WebBaseURL links work item keys to their browse pages when set.
	WebBaseURL string
	// ShowWebLinks includes the Web links section.
	ShowWebLinks bool
	// Location is used for timestamps. Defaults to UTC.
	Location *time.Location
	// Now stamps Metadata.ExportedAt. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(o.location()).Format(timestampLayout)
}

// Build renders the work item as Markdown. Rich-text fields go through n;
// a field that fails to convert is replaced by its placeholder.
func Build(item *core.WorkItem, n core.Normalizer, opts Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s: %s\n\n", item.Key, item.Summary)
	writeFields(&b, item, opts)

	b.WriteString("\n## Description\n\n")
	desc, err := richText(n, item.Description, item.RenderedDescription)
	switch {
	case err != nil:
		slog.Warn("description conversion failed", "key", item.Key, "err", err)
		b.WriteString(DescriptionPlaceholder)
	case desc == "":
		b.WriteString(noDescription)
	default:
		b.WriteString(desc)
	}
	b.WriteString("\n")

	if len(item.Subtasks) > 0 {
		b.WriteString("\n## Sub-tasks\n\n")
		for _, s := range item.Subtasks {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", keyRef(s.Key, opts), s.Summary, s.Status)
		}
	}

	if len(item.Links) > 0 {
		b.WriteString("\n## Linked work items\n\n")
		for _, l := range item.Links {
			fmt.Fprintf(&b, "- %s %s: %s (%s)\n", l.Relation, keyRef(l.Item.Key, opts), l.Item.Summary, l.Item.Status)
		}
	}

	if opts.ShowWebLinks && len(item.WebLinks) > 0 {
		b.WriteString("\n## Web links\n\n")
		for _, l := range item.WebLinks {
			fmt.Fprintf(&b, "- [%s](%s)\n", l.Title, l.URL)
		}
	}

	if len(item.Attachments) > 0 {
		b.WriteString("\n## Attachments\n\n")
		for _, a := range item.Attachments {
			fmt.Fprintf(&b, "- %s (%s)\n", a.Filename, humanize.Bytes(uint64(max(a.Size, 0))))
		}
	}

	b.WriteString("\n## Comments\n")
	if len(item.Comments) == 0 {
		b.WriteString("\n_No comments._\n")
	}
	for _, c := range item.Comments {
		b.WriteString("\n")
		writeComment(&b, c, n, opts)
	}

	if len(item.Worklogs) > 0 {
		b.WriteString("\n## Work log\n\n")
		for _, w := range item.Worklogs {
			writeWorklog(&b, w, n, opts)
		}
	}

	return b.String()
}

// Comment renders a single comment with its heading.
func Comment(c core.Comment, n core.Normalizer, opts Options) string {
	var b strings.Builder
	writeComment(&b, c, n, opts)
	return b.String()
}

func writeComment(b *strings.Builder, c core.Comment, n core.Normalizer, opts Options) {
	fmt.Fprintf(b, "### %s — %s\n\n", c.Author.Name(), opts.stamp(c.Created))
	body, err := richText(n, c.Body, c.RenderedBody)
	if err != nil {
		slog.Warn("comment conversion failed", "comment", c.ID, "err", err)
		body = CommentPlaceholder
	}
	b.WriteString(body)
	b.WriteString("\n")
}

func writeWorklog(b *strings.Builder, w core.Worklog, n core.Normalizer, opts Options) {
	fmt.Fprintf(b, "- %s %s: %s\n", opts.stamp(w.Started), w.Author.Name(), w.TimeSpent)
	text, err := n.Normalize(w.Comment)
	if err != nil {
		slog.Warn("worklog comment conversion failed", "worklog", w.ID, "err", err)
		text = WorklogCommentPlaceholder
	}
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
}

// richText prefers the raw value, except that wiki markup from API v2 is
// replaced by its rendered HTML when available.
func richText(n core.Normalizer, raw any, rendered string) (string, error) {
	if _, wiki := raw.(string); (raw == nil || wiki) && rendered != "" {
		return n.Normalize(rendered)
	}
	return n.Normalize(raw)
}

func writeFields(b *strings.Builder, item *core.WorkItem, opts Options) {
	rows := [][2]string{
		{"Status", item.Status},
		{"Type", item.Type},
		{"Priority", item.Priority},
		{"Assignee", item.Assignee.Name()},
		{"Reporter", reporterName(item.Reporter)},
		{"Created", opts.stamp(item.Created)},
		{"Updated", opts.stamp(item.Updated)},
		{"Labels", strings.Join(item.Labels, ", ")},
		{"Sprint", item.Sprint},
	}
	if item.Parent != nil {
		rows = append(rows, [2]string{"Parent", keyRef(item.Parent.Key, opts) + ": " + item.Parent.Summary})
	}

	b.WriteString("| Field | Value |\n| --- | --- |\n")
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(b, "| %s | %s |\n", r[0], cell(r[1]))
	}
}

func reporterName(u *core.User) string {
	if u == nil {
		return ""
	}
	return u.Name()
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func keyRef(key string, opts Options) string {
	if opts.WebBaseURL == "" {
		return key
	}
	return fmt.Sprintf("[%s](%s)", key, BrowseURL(opts.WebBaseURL, key))
}

// BrowseURL returns the web address of a work item.
func BrowseURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + "/browse/" + key
}

// Metadata describes the work item for renderers.
func Metadata(item *core.WorkItem, opts Options) core.WorkItemMetadata {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	meta := core.WorkItemMetadata{
		Key:         item.Key,
		Project:     item.Project,
		Summary:     item.Summary,
		Type:        item.Type,
		Status:      item.Status,
		Priority:    item.Priority,
		Labels:      item.Labels,
		ExportedAt:  now().UTC().Format(time.RFC3339),
		Attachments: referencedMedia(item),
	}
	if item.Assignee != nil {
		meta.Assignee = item.Assignee.Name()
	}
	if item.Reporter != nil {
		meta.Reporter = item.Reporter.Name()
	}
	if !item.Created.IsZero() {
		meta.Created = item.Created.UTC().Format(time.RFC3339)
	}
	if !item.Updated.IsZero() {
		meta.Updated = item.Updated.UTC().Format(time.RFC3339)
	}
	if opts.WebBaseURL != "" {
		meta.URL = BrowseURL(opts.WebBaseURL, item.Key)
	}
	return meta
}

// referencedMedia lists the files embedded in the description, comments and
// work log, in order of first appearance.
func referencedMedia(item *core.WorkItem) []string {
	trees := []any{item.Description}
	for _, c := range item.Comments {
		trees = append(trees, c.Body)
	}
	for _, w := range item.Worklogs {
		trees = append(trees, w.Comment)
	}

	var names []string
	seen := make(map[string]bool)
	for _, tree := range trees {
		for _, name := range mediaNames(tree) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func mediaNames(tree any) []string {
	switch v := tree.(type) {
	case map[string]any:
		return rewrite.MediaReferences(v)
	case []any:
		var names []string
		for _, elem := range v {
			if m, ok := elem.(map[string]any); ok {
				names = append(names, rewrite.MediaReferences(m)...)
			}
		}
		return names
	}
	return nil
}
