package fieldconv

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/blocklift/internal/cms"
	"github.com/vk/blocklift/internal/extract"
	"github.com/vk/blocklift/internal/migrate"
	"github.com/vk/blocklift/internal/schemagraph"
)

// convertEmbedded handles rich_text and single_block fields: a sibling
// link/links field takes over the references, and under fully-replace the
// original field shrinks or disappears. Schema mutations happen once for the
// whole group; the data rewrite visits each root's records.
func (c *Converter) convertEmbedded(ctx context.Context, group []schemagraph.Path, newModelID string, mapping migrate.Mapping) (State, error) {
	field := group[0].Field
	remaining := remainingBlockIDs(group[0])

	if !c.fullyReplace {
		sibling, err := c.ensureSiblingField(ctx, field, field.APIKey+"_links", newModelID)
		if err != nil {
			return StateUnconverted, err
		}
		for _, path := range group {
			if err := c.migrateLinkData(ctx, path, sibling, mapping, false); err != nil {
				return StateUnconverted, err
			}
		}
		return StateNonDestructiveLinked, nil
	}

	if len(remaining) > 0 {
		return c.partialReplace(ctx, group, newModelID, mapping, remaining)
	}
	return c.fullReplace(ctx, group, newModelID, mapping)
}

// partialReplace keeps the original field for the still-allowed block types:
// sibling handling as in non-destructive mode, then the allowed-block set
// shrinks and converted instances are stripped from the stored data.
func (c *Converter) partialReplace(ctx context.Context, group []schemagraph.Path, newModelID string, mapping migrate.Mapping, remaining []string) (State, error) {
	field := group[0].Field
	sibling, err := c.ensureSiblingField(ctx, field, field.APIKey+"_links", newModelID)
	if err != nil {
		return StateUnconverted, err
	}
	for _, path := range group {
		if err := c.migrateLinkData(ctx, path, sibling, mapping, true); err != nil {
			return StateUnconverted, err
		}
	}

	updated := field.Clone()
	updated.SetAllowedBlockIDs(remaining)
	if _, err := c.api.UpdateField(ctx, updated); err != nil {
		return StateUnconverted, fmt.Errorf("shrinking allowed blocks of %s: %w", field.APIKey, err)
	}
	return StatePartiallyReplaced, nil
}

// fullReplace removes the original field entirely. Field type cannot change
// in place, so the data first migrates into a sibling (reused if a prior
// non-destructive run created one, otherwise a temp field), the original is
// deleted, and the sibling takes over its slot.
func (c *Converter) fullReplace(ctx context.Context, group []schemagraph.Path, newModelID string, mapping migrate.Mapping) (State, error) {
	field := group[0].Field

	if sibling := c.findField(ctx, field.ItemTypeID, field.APIKey+"_links"); sibling != nil {
		for _, path := range group {
			if err := c.migrateLinkData(ctx, path, sibling, mapping, false); err != nil {
				return StateUnconverted, err
			}
		}
		if err := c.api.DeleteField(ctx, field.ID); err != nil {
			return StateUnconverted, fmt.Errorf("deleting field %s: %w", field.APIKey, err)
		}
		moved := sibling.Clone()
		moved.Position = field.Position
		if _, err := c.api.UpdateField(ctx, moved); err != nil {
			return StateUnconverted, fmt.Errorf("moving field %s: %w", sibling.APIKey, err)
		}
		return StateFullyReplaced, nil
	}

	temp, err := c.ensureSiblingField(ctx, field, field.APIKey+"_temp_links", newModelID)
	if err != nil {
		return StateUnconverted, err
	}
	for _, path := range group {
		if err := c.migrateLinkData(ctx, path, temp, mapping, false); err != nil {
			return StateUnconverted, err
		}
	}
	if err := c.api.DeleteField(ctx, field.ID); err != nil {
		return StateUnconverted, fmt.Errorf("deleting field %s: %w", field.APIKey, err)
	}

	renamed := temp.Clone()
	renamed.Label = field.Label
	renamed.APIKey = field.APIKey
	renamed.Hint = field.Hint
	renamed.Position = field.Position
	renamed.FieldsetID = field.FieldsetID
	if _, err := c.api.UpdateField(ctx, renamed); err != nil {
		return StateUnconverted, fmt.Errorf("renaming field %s to %s: %w", temp.APIKey, field.APIKey, err)
	}
	return StateFullyReplaced, nil
}

// ensureSiblingField returns the owner's field with the given api_key,
// creating it as a link/links field targeting the new model when missing.
// Reuse by api_key is what makes interrupted runs re-invokable.
func (c *Converter) ensureSiblingField(ctx context.Context, orig *cms.Field, apiKey, newModelID string) (*cms.Field, error) {
	if existing := c.findField(ctx, orig.ItemTypeID, apiKey); existing != nil {
		return existing, nil
	}

	linkType := cms.FieldTypeLinks
	editor := "links_select"
	if orig.FieldType == cms.FieldTypeSingleBlock {
		linkType = cms.FieldTypeLink
		editor = "link_select"
	}
	sibling := &cms.Field{
		Label:      orig.Label + " links",
		APIKey:     apiKey,
		FieldType:  linkType,
		Localized:  orig.Localized,
		Position:   orig.Position + 1,
		FieldsetID: orig.FieldsetID,
		Appearance: map[string]any{"editor": editor, "parameters": map[string]any{}},
	}
	sibling.SetAllowedLinkIDs([]string{newModelID})

	created, err := c.api.CreateField(ctx, orig.ItemTypeID, sibling)
	if err != nil {
		return nil, fmt.Errorf("creating sibling field %s: %w", apiKey, err)
	}
	return created, nil
}

func (c *Converter) findField(ctx context.Context, itemTypeID, apiKey string) *cms.Field {
	fields, err := c.api.Fields(ctx, itemTypeID)
	if err != nil {
		return nil
	}
	for _, f := range fields {
		if f.APIKey == apiKey {
			return f
		}
	}
	return nil
}

// migrateLinkData walks every root record and mirrors the mapped block
// instances of the terminal field into the link field. With strip set, the
// converted instances are also removed from the original field's data.
func (c *Converter) migrateLinkData(ctx context.Context, path schemagraph.Path, linkField *cms.Field, mapping migrate.Mapping, strip bool) error {
	field := path.Field
	target := targetBlockID(path)

	fn := func(holder map[string]any, _ string, _ []int) (bool, error) {
		changed := eachTerminalValue(holder, field, func(locale string, value any) (any, bool) {
			blocks := extract.EmbeddedBlocks(field.FieldType, value)
			var ids []string
			for _, b := range blocks {
				if cms.BlockTypeID(b) == target && mapping.Has(cms.BlockID(b)) {
					ids = append(ids, mapping.Get(cms.BlockID(b)))
				}
			}
			if len(ids) == 0 {
				return value, false
			}
			writeLinkValue(holder, linkField, locale, ids)
			if !strip {
				return value, true
			}
			return stripConverted(field.FieldType, value, target, mapping), true
		})
		return changed, nil
	}

	keys := rootUpdateKeys(path, field.APIKey, linkField.APIKey)
	return c.rewriteRecords(ctx, path, keys, fn)
}

// writeLinkValue merges mapped record ids into the link field's value in
// holder, honoring the field's cardinality and localization.
func writeLinkValue(holder map[string]any, linkField *cms.Field, locale string, ids []string) {
	set := func(existing any) any {
		if linkField.FieldType == cms.FieldTypeLink {
			if s, ok := existing.(string); ok && s != "" {
				return s
			}
			return ids[0]
		}
		merged, _ := existing.([]any)
		seen := make(map[string]bool, len(merged))
		for _, e := range merged {
			if s, ok := e.(string); ok {
				seen[s] = true
			}
		}
		for _, id := range ids {
			if !seen[id] {
				merged = append(merged, id)
				seen[id] = true
			}
		}
		return merged
	}

	if !linkField.Localized || locale == "" {
		current, _ := cms.BlockFieldValue(holder, linkField.APIKey)
		cms.SetBlockFieldValue(holder, linkField.APIKey, set(current))
		return
	}
	raw, _ := cms.BlockFieldValue(holder, linkField.APIKey)
	byLocale, ok := cms.AsMap(raw)
	if !ok {
		byLocale = make(map[string]any)
	}
	byLocale[locale] = set(byLocale[locale])
	cms.SetBlockFieldValue(holder, linkField.APIKey, byLocale)
}

// stripConverted removes converted target-type instances from the original
// field's stored value.
func stripConverted(fieldType string, value any, target string, mapping migrate.Mapping) any {
	switch fieldType {
	case cms.FieldTypeRichText:
		list, ok := value.([]any)
		if !ok {
			return value
		}
		kept := make([]any, 0, len(list))
		for _, e := range list {
			if b, ok := cms.AsMap(e); ok && cms.BlockTypeID(b) == target && mapping.Has(cms.BlockID(b)) {
				continue
			}
			kept = append(kept, e)
		}
		return kept
	case cms.FieldTypeSingleBlock:
		if b, ok := cms.AsMap(value); ok && cms.BlockTypeID(b) == target && mapping.Has(cms.BlockID(b)) {
			return nil
		}
	}
	return value
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
