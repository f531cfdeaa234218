package cms

// blockValidatorKey returns the validator key carrying the allowed block
// types for a block-embedding field, or "" for field types that embed none.
// Field-type-specific validator shapes are normalized here, at the boundary,
// so the rest of the engine reasons about one "allowed block ids" concept.
func blockValidatorKey(fieldType string) string {
	switch fieldType {
	case FieldTypeRichText:
		return "rich_text_blocks"
	case FieldTypeSingleBlock:
		return "single_block_blocks"
	case FieldTypeStructuredText:
		return "structured_text_blocks"
	}
	return ""
}

// linkValidatorKey returns the validator key carrying the allowed record
// types for a reference field.
func linkValidatorKey(fieldType string) string {
	switch fieldType {
	case FieldTypeLink:
		return "item_item_type"
	case FieldTypeLinks:
		return "items_item_type"
	case FieldTypeStructuredText:
		return "structured_text_links"
	}
	return ""
}

// EmbedsBlocks reports whether the field type can embed block instances.
func (f *Field) EmbedsBlocks() bool {
	return blockValidatorKey(f.FieldType) != ""
}

// AllowedBlockIDs returns the block item type ids the field may embed.
func (f *Field) AllowedBlockIDs() []string {
	return f.validatorItemTypes(blockValidatorKey(f.FieldType))
}

// SetAllowedBlockIDs rewrites the field's allowed-block-types validator.
func (f *Field) SetAllowedBlockIDs(ids []string) {
	f.setValidatorItemTypes(blockValidatorKey(f.FieldType), ids)
}

// AllowedLinkIDs returns the record item type ids the field may reference
// (link/links targets, or structured text inline item targets).
func (f *Field) AllowedLinkIDs() []string {
	return f.validatorItemTypes(linkValidatorKey(f.FieldType))
}

// SetAllowedLinkIDs rewrites the field's allowed-record-types validator.
func (f *Field) SetAllowedLinkIDs(ids []string) {
	f.setValidatorItemTypes(linkValidatorKey(f.FieldType), ids)
}

// AllowsBlock reports whether the field's validators admit the given block
// item type.
func (f *Field) AllowsBlock(blockID string) bool {
	for _, id := range f.AllowedBlockIDs() {
		if id == blockID {
			return true
		}
	}
	return false
}

func (f *Field) validatorItemTypes(key string) []string {
	if key == "" || f.Validators == nil {
		return nil
	}
	v, ok := f.Validators[key].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := v["item_types"]
	if !ok {
		return nil
	}
	switch list := raw.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, e := range list {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (f *Field) setValidatorItemTypes(key string, ids []string) {
	if key == "" {
		return
	}
	if f.Validators == nil {
		f.Validators = make(map[string]any)
	}
	v, ok := f.Validators[key].(map[string]any)
	if !ok {
		v = make(map[string]any)
		f.Validators[key] = v
	}
	v["item_types"] = ids
}
