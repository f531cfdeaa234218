// Package dast models structured text values: a typed document tree plus
// the "blocks" side array of embedded block payloads and the "links" array
// of referenced record ids.
package dast

import "github.com/vk/blocklift/internal/cms"

// Node type names used by the document tree.
const (
	TypeRoot        = "root"
	TypeParagraph   = "paragraph"
	TypeSpan        = "span"
	TypeBlock       = "block"
	TypeInlineBlock = "inlineBlock"
	TypeInlineItem  = "inlineItem"
)

// IsValue reports whether v is shaped like a structured text field value.
func IsValue(v any) bool {
	m, ok := cms.AsMap(v)
	if !ok {
		return false
	}
	doc, ok := cms.AsMap(m["document"])
	if !ok {
		return false
	}
	_, ok = doc["children"].([]any)
	return ok
}

// Clone deep-copies a generic JSON-like value.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	default:
		return v
	}
}

// nodeItemID unwraps a node's "item" reference, which is either a bare id
// or an expanded record/block object.
func nodeItemID(node map[string]any) string {
	switch t := node["item"].(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t["id"].(string); ok {
			return s
		}
	}
	return ""
}

// ReachableBlockIDs returns the ids of every block/inlineBlock node
// reachable from document.children, in document order. Entries of the
// "blocks" side array that no node references do not appear.
func ReachableBlockIDs(value map[string]any) []string {
	doc, ok := cms.AsMap(value["document"])
	if !ok {
		return nil
	}
	var ids []string
	var walk func(children []any)
	walk = func(children []any) {
		for _, c := range children {
			node, ok := cms.AsMap(c)
			if !ok {
				continue
			}
			t, _ := node["type"].(string)
			if t == TypeBlock || t == TypeInlineBlock {
				if id := nodeItemID(node); id != "" {
					ids = append(ids, id)
				}
			}
			if kids, ok := node["children"].([]any); ok {
				walk(kids)
			}
		}
	}
	if kids, ok := doc["children"].([]any); ok {
		walk(kids)
	}
	return ids
}

// EmbeddedBlocks returns the payloads of every reachable block, in document
// order. Payloads come from the "blocks" side array when the node carries a
// bare id, or from the node's expanded "item" object otherwise. Stale side
// array entries that no node references are excluded.
func EmbeddedBlocks(value map[string]any) []map[string]any {
	byID := make(map[string]map[string]any)
	if side, ok := value["blocks"].([]any); ok {
		for _, e := range side {
			if b, ok := cms.AsMap(e); ok {
				if id := cms.BlockID(b); id != "" {
					byID[id] = b
				}
			}
		}
	}
	doc, ok := cms.AsMap(value["document"])
	if !ok {
		return nil
	}
	var out []map[string]any
	var walk func(children []any)
	walk = func(children []any) {
		for _, c := range children {
			node, ok := cms.AsMap(c)
			if !ok {
				continue
			}
			t, _ := node["type"].(string)
			if t == TypeBlock || t == TypeInlineBlock {
				if id := nodeItemID(node); id != "" {
					if b, ok := byID[id]; ok {
						out = append(out, b)
					} else if expanded, ok := cms.AsMap(node["item"]); ok {
						out = append(out, expanded)
					}
				}
			}
			if kids, ok := node["children"].([]any); ok {
				walk(kids)
			}
		}
	}
	if kids, ok := doc["children"].([]any); ok {
		walk(kids)
	}
	return out
}

// NormalizeLinks reduces every links entry to its bare record id, dropping
// duplicates and entries other expansion inflated into full objects.
func NormalizeLinks(links []any) []any {
	seen := make(map[string]bool, len(links))
	out := make([]any, 0, len(links))
	for _, e := range links {
		var id string
		switch t := e.(type) {
		case string:
			id = t
		case map[string]any:
			id, _ = t["id"].(string)
		}
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
