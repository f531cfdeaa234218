package dast

import "github.com/vk/blocklift/internal/cms"

// ReplaceBlocks rewrites every reachable block/inlineBlock node of the
// given block type whose id appears in mapping into an inlineItem pointing
// at the mapped record. The source entry is removed from the "blocks" side
// array and the mapped id is added to "links".
//
// inlineItem is illegal as a direct root child, so a root-level block node
// becomes a paragraph holding an empty span followed by the inlineItem; the
// placeholder span keeps renderers from dropping an inlineItem-only
// paragraph. Non-root inlineBlock nodes are replaced bare.
//
// Returns nil when the document contains no matching node.
func ReplaceBlocks(value map[string]any, blockTypeID string, mapping map[string]string) map[string]any {
	return transform(value, blockTypeID, mapping, true)
}

// AppendInlineItems matches like ReplaceBlocks but keeps the original node
// and inserts the inlineItem immediately after it (wrapped in a paragraph
// at root level). Used by the non-destructive and partial modes.
//
// Returns nil when the document contains no matching node.
func AppendInlineItems(value map[string]any, blockTypeID string, mapping map[string]string) map[string]any {
	return transform(value, blockTypeID, mapping, false)
}

func transform(value map[string]any, blockTypeID string, mapping map[string]string, replace bool) map[string]any {
	out, ok := Clone(value).(map[string]any)
	if !ok {
		return nil
	}
	doc, ok := cms.AsMap(out["document"])
	if !ok {
		return nil
	}

	// Ids of side-array blocks of the target type. Nodes carrying expanded
	// item objects are typed directly off that object.
	targetIDs := make(map[string]bool)
	if side, ok := out["blocks"].([]any); ok {
		for _, e := range side {
			if b, ok := cms.AsMap(e); ok && cms.BlockTypeID(b) == blockTypeID {
				targetIDs[cms.BlockID(b)] = true
			}
		}
	}

	removed := make(map[string]bool)
	var added []string

	var rewrite func(children []any, atRoot bool) ([]any, bool)
	rewrite = func(children []any, atRoot bool) ([]any, bool) {
		changed := false
		result := make([]any, 0, len(children))
		for _, c := range children {
			node, ok := cms.AsMap(c)
			if !ok {
				result = append(result, c)
				continue
			}
			t, _ := node["type"].(string)
			id := nodeItemID(node)
			matches := (t == TypeBlock || t == TypeInlineBlock) &&
				id != "" && mapping[id] != "" &&
				(targetIDs[id] || expandedTypeMatches(node, blockTypeID))
			if matches {
				newID := mapping[id]
				inline := map[string]any{"type": TypeInlineItem, "item": newID}
				if replace {
					removed[id] = true
					if atRoot {
						result = append(result, wrapInParagraph(inline))
					} else {
						result = append(result, inline)
					}
				} else {
					result = append(result, normalizeItemRef(node))
					if atRoot {
						result = append(result, wrapInParagraph(inline))
					} else {
						result = append(result, inline)
					}
				}
				added = append(added, newID)
				changed = true
				continue
			}
			if t == TypeBlock || t == TypeInlineBlock || t == TypeInlineItem {
				node = normalizeItemRef(node)
			}
			if kids, ok := node["children"].([]any); ok {
				newKids, kidsChanged := rewrite(kids, false)
				node["children"] = newKids
				changed = changed || kidsChanged
			}
			result = append(result, node)
		}
		return result, changed
	}

	kids, _ := doc["children"].([]any)
	newKids, changed := rewrite(kids, true)
	if !changed {
		return nil
	}
	doc["children"] = newKids

	if replace {
		if side, ok := out["blocks"].([]any); ok {
			kept := make([]any, 0, len(side))
			for _, e := range side {
				if b, ok := cms.AsMap(e); ok && removed[cms.BlockID(b)] {
					continue
				}
				kept = append(kept, e)
			}
			out["blocks"] = kept
		}
	}

	// Other expansion elsewhere can inflate pre-existing links entries, so
	// links are re-normalized even when nothing new was added.
	links, _ := out["links"].([]any)
	links = NormalizeLinks(append(links, stringsToAny(added)...))
	out["links"] = links

	return out
}

// expandedTypeMatches checks a node whose item is an expanded block object
// against the target type. Side-array lookups cover the bare-id form.
func expandedTypeMatches(node map[string]any, blockTypeID string) bool {
	expanded, ok := cms.AsMap(node["item"])
	if !ok {
		return false
	}
	return cms.BlockTypeID(expanded) == blockTypeID
}

// normalizeItemRef reduces a node's possibly-expanded item reference back
// to a bare id.
func normalizeItemRef(node map[string]any) map[string]any {
	if expanded, ok := cms.AsMap(node["item"]); ok {
		if id, ok := expanded["id"].(string); ok {
			node["item"] = id
		}
	}
	return node
}

// wrapInParagraph builds the root-legal wrapper around an inlineItem.
func wrapInParagraph(inline map[string]any) map[string]any {
	return map[string]any{
		"type": TypeParagraph,
		"children": []any{
			map[string]any{"type": TypeSpan, "value": ""},
			inline,
		},
	}
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
