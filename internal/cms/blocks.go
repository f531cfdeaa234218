package cms

// Block payloads arrive in two shapes depending on how the client expanded
// nested data: a flattened object with field values at the top level, or a
// JSON:API object with field values under "attributes" and the item type
// under "relationships". The helpers below make the rest of the engine
// shape-agnostic.

// AsMap narrows a generic JSON value to an object.
func AsMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// BlockID extracts the instance id of an embedded block payload, or "".
func BlockID(block map[string]any) string {
	if s, ok := block["id"].(string); ok {
		return s
	}
	return ""
}

// BlockTypeID extracts the item type id of an embedded block payload. It
// understands both the flattened "item_type" key (either a bare id or a
// JSON:API linkage object) and the expanded "relationships" shape. Returns
// "" when the payload carries no type information.
func BlockTypeID(block map[string]any) string {
	if id := linkageID(block["item_type"]); id != "" {
		return id
	}
	rel, ok := AsMap(block["relationships"])
	if !ok {
		return ""
	}
	return linkageID(rel["item_type"])
}

// linkageID unwraps a bare id string, {"id": ...} or {"data": {"id": ...}}.
func linkageID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if data, ok := AsMap(t["data"]); ok {
			if s, ok := data["id"].(string); ok {
				return s
			}
		}
		if s, ok := t["id"].(string); ok {
			return s
		}
	}
	return ""
}

// BlockFieldValue reads a field value from a block payload, looking at the
// top level first and then inside an "attributes" sub-object. The same
// helper works for root record field maps, which are always flat.
func BlockFieldValue(block map[string]any, apiKey string) (any, bool) {
	if v, ok := block[apiKey]; ok {
		return v, true
	}
	if attrs, ok := AsMap(block["attributes"]); ok {
		if v, ok := attrs[apiKey]; ok {
			return v, true
		}
	}
	return nil, false
}

// SetBlockFieldValue writes a field value into a block payload, targeting
// the "attributes" sub-object when the payload is shaped that way.
func SetBlockFieldValue(block map[string]any, apiKey string, value any) {
	if attrs, ok := AsMap(block["attributes"]); ok {
		if _, flat := block[apiKey]; !flat {
			attrs[apiKey] = value
			return
		}
	}
	block[apiKey] = value
}

// DeleteBlockFieldValue removes a field value from a block payload.
func DeleteBlockFieldValue(block map[string]any, apiKey string) {
	delete(block, apiKey)
	if attrs, ok := AsMap(block["attributes"]); ok {
		delete(attrs, apiKey)
	}
}
