package migrate

import "github.com/vk/blocklift/internal/cms"

// Keys stripped at every block boundary before a create call. The API
// assigns fresh identities; carrying old ones over would either fail or
// silently relink existing data.
var blockDropKeys = map[string]bool{
	"id":            true,
	"type":          true,
	"item_type":     true,
	"meta":          true,
	"creator":       true,
	"created_at":    true,
	"updated_at":    true,
	"attributes":    true,
	"relationships": true,
}

// SanitizePayload turns a block payload into the field map for a new
// top-level record: relationship wrappers are unwrapped and ids stripped
// recursively. Pure tree transform; the input is never mutated.
func SanitizePayload(block map[string]any) map[string]any {
	return sanitizeFields(block)
}

// sanitizeFields returns the block's field values, cleaned, without the
// block's own identity.
func sanitizeFields(block map[string]any) map[string]any {
	src := block
	if attrs, ok := cms.AsMap(block["attributes"]); ok {
		src = attrs
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		if blockDropKeys[k] {
			continue
		}
		out[k] = sanitizeValue(v)
	}
	return out
}

// sanitizeBlock cleans a nested embedded block, preserving its item type so
// the API can instantiate a fresh block of the same kind.
func sanitizeBlock(block map[string]any) map[string]any {
	out := sanitizeFields(block)
	if typeID := cms.BlockTypeID(block); typeID != "" {
		out["item_type"] = typeID
	}
	return out
}

func sanitizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if isBlockLike(t) {
			return sanitizeBlock(t)
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = sanitizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = sanitizeValue(e)
		}
		return out
	default:
		return v
	}
}

// isBlockLike marks the boundaries the drop-key set applies at: objects
// that carry a block identity in either payload shape.
func isBlockLike(m map[string]any) bool {
	if cms.BlockTypeID(m) != "" {
		return true
	}
	if _, hasID := m["id"].(string); !hasID {
		return false
	}
	_, hasAttrs := cms.AsMap(m["attributes"])
	return hasAttrs
}
