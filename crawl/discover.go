// Package crawl discovers the work items linked to a root item for
// --all exports. Discovery is a breadth-first walk over parents,
// sub-tasks and issue links, kept separate from the export pipeline.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/jirapipe/core"
)

// DefaultMaxItems bounds a walk when Options.MaxItems is not set.
const DefaultMaxItems = 100

// Options controls discovery.
type Options struct {
	MaxItems        int
	SameProjectOnly bool
	// FollowReferences also follows browse links found in the rendered
	// description, e.g. "see ENG-12" written as a link.
	FollowReferences bool
}

// Discover returns the work items reachable from rootKey in BFS order,
// root first. Work items that fail to fetch are skipped; only a failure to
// fetch the root is reported as an error. On cancellation the
// items gathered so far are returned with the context error.
func Discover(ctx context.Context, rootKey string, fetcher core.Fetcher, opts Options) ([]*core.WorkItem, error) {
	root := NormalizeKey(rootKey)
	if !ValidKey(root) {
		return nil, fmt.Errorf("invalid work item key %q", rootKey)
	}
	limit := opts.MaxItems
	if limit <= 0 {
		limit = DefaultMaxItems
	}

	queue := NewQueue()
	queue.Add(root)

	var items []*core.WorkItem
	for queue.HasNext() && len(items) < limit {
		if err := ctx.Err(); err != nil {
			return items, err
		}
		key := queue.Next()

		item, err := fetcher.WorkItem(ctx, key)
		if err != nil {
			if key == root {
				return nil, fmt.Errorf("fetching %s: %w", key, err)
			}
			slog.Warn("skipping linked work item", "key", key, "err", err)
			continue // Skip failed items, don't block the walk.
		}
		items = append(items, item)

		for _, next := range neighbors(item, opts.FollowReferences) {
			if opts.SameProjectOnly && !SameProject(root, next) {
				continue
			}
			queue.Add(next)
		}
	}
	slog.Debug("discovery finished", "root", root, "items", len(items), "queued", queue.Seen())
	return items, nil
}

// neighbors lists the valid keys item points at: parent, sub-tasks, links
// and, optionally, browse links in the rendered description.
func neighbors(item *core.WorkItem, references bool) []string {
	var keys []string
	if item.Parent != nil {
		keys = append(keys, item.Parent.Key)
	}
	for _, s := range item.Subtasks {
		keys = append(keys, s.Key)
	}
	for _, l := range item.Links {
		keys = append(keys, l.Item.Key)
	}
	if references {
		keys = append(keys, referencedKeys(item.RenderedDescription)...)
	}

	valid := keys[:0]
	for _, k := range keys {
		if k = NormalizeKey(k); ValidKey(k) {
			valid = append(valid, k)
		}
	}
	return valid
}

// referencedKeys extracts work item keys from browse links in HTML.
func referencedKeys(html string) []string {
	if strings.TrimSpace(html) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var keys []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if key := KeyFromURL(href); key != "" {
			keys = append(keys, key)
		}
	})
	return keys
}
