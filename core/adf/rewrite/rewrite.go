// Package rewrite holds tree-to-tree passes that repair ADF documents
// before conversion.
//
// Every pass returns a new tree and leaves its input untouched. Nodes are
// copied along the paths a pass walks; untouched leaves are shared. Running
// a pass on its own output returns an equal tree.
package rewrite

import (
	"maps"
	"strings"

	"github.com/gaurav-prasanna/jirapipe/core/adf"
)

// Options selects the passes Prepare applies.
type Options struct {
	// BaseURL turns mentions into profile links when set.
	BaseURL string
	// KeepMedia leaves mediaSingle nodes in place instead of replacing
	// them with attachment references.
	KeepMedia bool
}

// Prepare runs the repair passes in order: code blocks are hoisted out of
// lists, marked text spacing is fixed, media is replaced and mentions are
// linked.
func Prepare(tree adf.Raw, opts Options) adf.Raw {
	tree = HoistCodeBlocks(tree)
	tree = FixMarkSpacing(tree)
	if !opts.KeepMedia {
		tree = ReplaceMedia(tree)
	}
	return LinkMentions(tree, opts.BaseURL)
}

// PrepareAll applies Prepare to every node map of a top-level node list.
func PrepareAll(list []any, opts Options) []any {
	out := make([]any, len(list))
	for i, elem := range list {
		if m, ok := elem.(map[string]any); ok {
			out[i] = Prepare(m, opts)
			continue
		}
		out[i] = elem
	}
	return out
}

// withContent returns a shallow copy of node carrying the given content.
func withContent(node adf.Raw, content []any) adf.Raw {
	out := maps.Clone(node)
	out["content"] = content
	return out
}

func textNode(s string) adf.Raw {
	return adf.Raw{"type": string(adf.TypeText), "text": s}
}

// ReplaceMedia swaps every mediaSingle node for a paragraph holding an
// emphasized reference to the attachment, named after the media alt text.
// A mediaSingle without a media child is removed.
func ReplaceMedia(node adf.Raw) adf.Raw {
	content, ok := adf.ContentOf(node)
	if !ok {
		return node
	}
	out := make([]any, 0, len(content))
	for _, c := range content {
		child, isNode := c.(map[string]any)
		if !isNode {
			out = append(out, c)
			continue
		}
		if adf.TypeOf(child) != adf.TypeMediaSingle {
			out = append(out, ReplaceMedia(child))
			continue
		}
		if media := firstMedia(child); media != nil {
			out = append(out, mediaReference(media))
		}
	}
	return withContent(node, out)
}

func firstMedia(mediaSingle adf.Raw) adf.Raw {
	content, _ := adf.ContentOf(mediaSingle)
	for _, c := range content {
		if m, ok := c.(map[string]any); ok && adf.TypeOf(m) == adf.TypeMedia {
			return m
		}
	}
	return nil
}

func mediaReference(media adf.Raw) adf.Raw {
	name, _ := adf.AttrsOf(media)["alt"].(string)
	if name == "" {
		name = "unknown"
	}
	ref := textNode(`(See file "` + name + `" in attachments tab)`)
	ref["marks"] = []any{map[string]any{"type": adf.MarkEm}}
	return adf.Raw{"type": string(adf.TypeParagraph), "content": []any{ref}}
}

// MediaReferences lists the alt names of the media inside mediaSingle
// nodes, in document order. Media without a name is skipped.
func MediaReferences(node adf.Raw) []string {
	var names []string
	var walk func(adf.Raw)
	walk = func(n adf.Raw) {
		content, _ := adf.ContentOf(n)
		for _, c := range content {
			child, ok := c.(map[string]any)
			if !ok {
				continue
			}
			if adf.TypeOf(n) == adf.TypeMediaSingle && adf.TypeOf(child) == adf.TypeMedia {
				if name, _ := adf.AttrsOf(child)["alt"].(string); name != "" {
					names = append(names, name)
				}
			}
			walk(child)
		}
	}
	walk(node)
	return names
}

// FixMarkSpacing strips surrounding whitespace from bold and italic text
// runs so the emphasis delimiters hug the words. A stripped leading space
// becomes a plain space node before the run unless it is the first
// sibling, a trailing one a space node after it unless it is the last.
// A run made only of whitespace becomes a single plain space.
func FixMarkSpacing(node adf.Raw) adf.Raw {
	content, ok := adf.ContentOf(node)
	if !ok {
		return node
	}
	out := make([]any, 0, len(content))
	for i, c := range content {
		child, isNode := c.(map[string]any)
		if !isNode {
			out = append(out, c)
			continue
		}
		child = FixMarkSpacing(child)

		text, isText := child["text"].(string)
		if adf.TypeOf(child) != adf.TypeText || !isText || !emphasized(child) {
			out = append(out, child)
			continue
		}
		stripped := strings.TrimSpace(text)
		if stripped == text {
			out = append(out, child)
			continue
		}
		if stripped == "" {
			out = append(out, textNode(" "))
			continue
		}
		if strings.HasPrefix(text, " ") && i > 0 {
			out = append(out, textNode(" "))
		}
		fixed := maps.Clone(child)
		fixed["text"] = stripped
		out = append(out, fixed)
		if strings.HasSuffix(text, " ") && i < len(content)-1 {
			out = append(out, textNode(" "))
		}
	}
	return withContent(node, out)
}

func emphasized(text adf.Raw) bool {
	var marks []any
	switch v := text["marks"].(type) {
	case []any:
		marks = v
	case []map[string]any:
		for _, m := range v {
			marks = append(marks, m)
		}
	}
	for _, m := range marks {
		mark, ok := m.(map[string]any)
		if !ok {
			continue
		}
		if t := mark["type"]; t == adf.MarkStrong || t == adf.MarkEm {
			return true
		}
	}
	return false
}

// HoistCodeBlocks moves code blocks that sit directly inside list items
// out of the list. The blocks of one list are placed right after it in
// their original order. Items left without content are dropped, and so
// are lists left without items.
func HoistCodeBlocks(node adf.Raw) adf.Raw {
	content, ok := adf.ContentOf(node)
	if !ok {
		return node
	}
	out := make([]any, 0, len(content))
	for _, c := range content {
		child, isNode := c.(map[string]any)
		if !isNode {
			out = append(out, c)
			continue
		}
		child = HoistCodeBlocks(child)
		if !adf.TypeOf(child).IsList() {
			out = append(out, child)
			continue
		}
		list, hoisted := hoistFromList(child)
		if list != nil {
			out = append(out, list)
		}
		out = append(out, hoisted...)
	}
	return withContent(node, out)
}

// hoistFromList splits a list into the list without its code blocks (nil
// when no items remain) and the code blocks that were removed.
func hoistFromList(list adf.Raw) (adf.Raw, []any) {
	items, _ := adf.ContentOf(list)
	kept := make([]any, 0, len(items))
	var hoisted []any
	for _, it := range items {
		item, isNode := it.(map[string]any)
		if !isNode || adf.TypeOf(item) != adf.TypeListItem {
			kept = append(kept, it)
			continue
		}
		children, _ := adf.ContentOf(item)
		rest := make([]any, 0, len(children))
		found := false
		for _, c := range children {
			if m, ok := c.(map[string]any); ok && adf.TypeOf(m) == adf.TypeCodeBlock {
				hoisted = append(hoisted, m)
				found = true
				continue
			}
			rest = append(rest, c)
		}
		if !found {
			kept = append(kept, item)
			continue
		}
		if len(rest) > 0 {
			kept = append(kept, withContent(item, rest))
		}
	}
	if len(kept) == 0 {
		return nil, hoisted
	}
	return withContent(list, kept), hoisted
}
