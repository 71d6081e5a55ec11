package adf

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Convert renders an ADF document, or a list of top-level nodes, to
// Markdown.
//
// input may be a single node map, a []map[string]any, a []any of node maps
// or nil. Construction errors are returned to the caller. Render failures
// are contained per root node: a root that cannot be rendered contributes
// nothing and its siblings are unaffected. Non-empty results are joined
// with a blank line.
func Convert(input any) (string, error) {
	var roots []*Node
	switch v := input.(type) {
	case nil:
		return "", nil
	case map[string]any:
		n, err := Build(v)
		if err != nil {
			return "", err
		}
		if n != nil {
			roots = append(roots, n)
		}
	case []map[string]any:
		nodes, err := BuildNodes(v)
		if err != nil {
			return "", err
		}
		roots = nodes
	case []any:
		raws := make([]Raw, 0, len(v))
		for _, elem := range v {
			if m, ok := elem.(map[string]any); ok {
				raws = append(raws, m)
			}
		}
		nodes, err := BuildNodes(raws)
		if err != nil {
			return "", err
		}
		roots = nodes
	default:
		return "", fmt.Errorf("%w: cannot convert %T", ErrInvalidNode, input)
	}

	parts := make([]string, 0, len(roots))
	for _, root := range roots {
		if md := RenderRoot(root); md != "" {
			parts = append(parts, md)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// ConvertJSON decodes an ADF document or node list and converts it.
func ConvertJSON(data []byte) (string, error) {
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return "", fmt.Errorf("decoding ADF: %w", err)
	}
	return Convert(input)
}
