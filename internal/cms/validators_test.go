package cms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_AllowedBlockIDs(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		fieldType string
		key       string
	}{
		{name: "rich text", fieldType: FieldTypeRichText, key: "rich_text_blocks"},
		{name: "single block", fieldType: FieldTypeSingleBlock, key: "single_block_blocks"},
		{name: "structured text", fieldType: FieldTypeStructuredText, key: "structured_text_blocks"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			field := &Field{
				FieldType: tc.fieldType,
				Validators: map[string]any{
					tc.key: map[string]any{"item_types": []any{"block-1", "block-2"}},
				},
			}

			assert.Equal(t, []string{"block-1", "block-2"}, field.AllowedBlockIDs())
			assert.True(t, field.AllowsBlock("block-1"))
			assert.False(t, field.AllowsBlock("block-9"))
			assert.True(t, field.EmbedsBlocks())
		})
	}
}

func TestField_AllowedBlockIDs_NonEmbeddingType(t *testing.T) {
	t.Parallel()

	field := &Field{
		FieldType: FieldTypeString,
		Validators: map[string]any{
			"rich_text_blocks": map[string]any{"item_types": []any{"block-1"}},
		},
	}

	// The validator key must match the field type; a stray validator on a
	// string field embeds nothing.
	assert.Nil(t, field.AllowedBlockIDs())
	assert.False(t, field.EmbedsBlocks())
}

func TestField_SetAllowedBlockIDs(t *testing.T) {
	t.Parallel()

	field := &Field{
		FieldType: FieldTypeRichText,
		Validators: map[string]any{
			"rich_text_blocks": map[string]any{"item_types": []any{"block-1", "block-2"}},
			"size":             map[string]any{"max": 5},
		},
	}

	field.SetAllowedBlockIDs([]string{"block-2"})

	assert.Equal(t, []string{"block-2"}, field.AllowedBlockIDs())
	// Unrelated validators survive the rewrite.
	assert.Equal(t, map[string]any{"max": 5}, field.Validators["size"])
}

func TestField_SetAllowedBlockIDs_NilValidators(t *testing.T) {
	t.Parallel()

	field := &Field{FieldType: FieldTypeSingleBlock}
	field.SetAllowedBlockIDs([]string{"block-1"})

	require.NotNil(t, field.Validators)
	assert.Equal(t, []string{"block-1"}, field.AllowedBlockIDs())
}

func TestField_AllowedLinkIDs(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		fieldType string
		key       string
	}{
		{name: "link", fieldType: FieldTypeLink, key: "item_item_type"},
		{name: "links", fieldType: FieldTypeLinks, key: "items_item_type"},
		{name: "structured text", fieldType: FieldTypeStructuredText, key: "structured_text_links"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			field := &Field{
				FieldType: tc.fieldType,
				Validators: map[string]any{
					tc.key: map[string]any{"item_types": []string{"model-1"}},
				},
			}

			assert.Equal(t, []string{"model-1"}, field.AllowedLinkIDs())

			field.SetAllowedLinkIDs([]string{"model-1", "model-2"})
			assert.Equal(t, []string{"model-1", "model-2"}, field.AllowedLinkIDs())
		})
	}
}

func TestField_StructuredTextCarriesBothValidatorFamilies(t *testing.T) {
	t.Parallel()

	field := &Field{
		FieldType: FieldTypeStructuredText,
		Validators: map[string]any{
			"structured_text_blocks": map[string]any{"item_types": []any{"block-1"}},
			"structured_text_links":  map[string]any{"item_types": []any{"model-1"}},
		},
	}

	assert.Equal(t, []string{"block-1"}, field.AllowedBlockIDs())
	assert.Equal(t, []string{"model-1"}, field.AllowedLinkIDs())

	// Rewriting one family must not disturb the other.
	field.SetAllowedLinkIDs([]string{"model-1", "model-2"})
	assert.Equal(t, []string{"block-1"}, field.AllowedBlockIDs())
}

func TestField_CloneIsolatesValidators(t *testing.T) {
	t.Parallel()

	field := &Field{
		FieldType: FieldTypeRichText,
		Validators: map[string]any{
			"rich_text_blocks": map[string]any{"item_types": []any{"block-1", "block-2"}},
		},
		Appearance: map[string]any{"editor": "rich_text"},
	}

	clone := field.Clone()
	clone.SetAllowedBlockIDs([]string{"block-2"})
	clone.Appearance["editor"] = "framed"

	assert.Equal(t, []string{"block-1", "block-2"}, field.AllowedBlockIDs(),
		"mutating the clone's allow list must not touch the original")
	assert.Equal(t, "rich_text", field.Appearance["editor"])
	assert.Equal(t, []string{"block-2"}, clone.AllowedBlockIDs())
}
