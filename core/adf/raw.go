package adf

import (
	"encoding/json"
	"math"
	"strconv"
)

// Raw is an undecoded ADF node as produced by encoding/json.
type Raw = map[string]any

// TypeOf returns the "type" tag of a raw node, or "" when absent.
func TypeOf(raw Raw) NodeType {
	t, _ := raw["type"].(string)
	return NodeType(t)
}

// AttrsOf returns the "attrs" map of a raw node. The result is never nil.
func AttrsOf(raw Raw) map[string]any {
	if attrs, ok := raw["attrs"].(map[string]any); ok {
		return attrs
	}
	return map[string]any{}
}

// ContentOf returns the "content" array of a raw node. ok is false when the
// node has no content array. Both []any and []map[string]any are accepted.
func ContentOf(raw Raw) (content []any, ok bool) {
	switch c := raw["content"].(type) {
	case []any:
		return c, true
	case []map[string]any:
		out := make([]any, len(c))
		for i, child := range c {
			out[i] = child
		}
		return out, true
	}
	return nil, false
}

// rawChildren returns the map elements of a node's content, skipping
// anything that is not an object.
func rawChildren(raw Raw) []Raw {
	content, _ := ContentOf(raw)
	out := make([]Raw, 0, len(content))
	for _, c := range content {
		if m, ok := c.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func stringAttr(attrs map[string]any, key string) (string, bool) {
	s, ok := attrs[key].(string)
	return s, ok
}

// intAttr reads an integral number. JSON numbers arrive as float64, or as
// json.Number when the decoder was told to use them.
func intAttr(attrs map[string]any, key string) (int, bool) {
	switch v := attrs[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// scalarAttr renders a string or number attribute as a string.
func scalarAttr(attrs map[string]any, key string) (string, bool) {
	switch v := attrs[key].(type) {
	case string:
		return v, true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	}
	return "", false
}
