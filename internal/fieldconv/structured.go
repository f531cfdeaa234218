package fieldconv

import (
	"context"
	"fmt"

	"github.com/vk/blocklift/internal/cms"
	"github.com/vk/blocklift/internal/dast"
	"github.com/vk/blocklift/internal/migrate"
	"github.com/vk/blocklift/internal/schemagraph"
)

// convertStructuredText rewrites a structured text field in three phases.
// The new model joins the inline-item allow list while the old block type
// is still allowed (both are valid during migration); removing the block
// type before documents are rewritten would make in-flight documents
// schema-invalid, so the shrink is strictly last.
func (c *Converter) convertStructuredText(ctx context.Context, group []schemagraph.Path, newModelID string, mapping migrate.Mapping) (State, error) {
	field := group[0].Field
	target := targetBlockID(group[0])

	// Phase 1: allow inline items pointing at the new model.
	links := field.AllowedLinkIDs()
	if !containsString(links, newModelID) {
		updated := field.Clone()
		updated.SetAllowedLinkIDs(append(links, newModelID))
		created, err := c.api.UpdateField(ctx, updated)
		if err != nil {
			return StateUnconverted, fmt.Errorf("allowing %s in %s links: %w", newModelID, field.APIKey, err)
		}
		field = created
	}

	// Phase 2: rewrite affected documents.
	fn := func(holder map[string]any, _ string, _ []int) (bool, error) {
		changed := eachTerminalValue(holder, field, func(_ string, value any) (any, bool) {
			doc, ok := cms.AsMap(value)
			if !ok || !dast.IsValue(doc) {
				return value, false
			}
			var transformed map[string]any
			if c.fullyReplace {
				transformed = dast.ReplaceBlocks(doc, target, mapping)
			} else {
				transformed = dast.AppendInlineItems(doc, target, mapping)
			}
			if transformed == nil {
				return value, false
			}
			return transformed, true
		})
		return changed, nil
	}
	for _, path := range group {
		if err := c.rewriteRecords(ctx, path, rootUpdateKeys(path, field.APIKey), fn); err != nil {
			return StateUnconverted, err
		}
	}

	if !c.fullyReplace {
		return StateNonDestructiveLinked, nil
	}

	// Phase 3: drop the converted block type from the allow list.
	remaining := remainingBlockIDs(group[0])
	updated := field.Clone()
	updated.SetAllowedBlockIDs(remaining)
	if _, err := c.api.UpdateField(ctx, updated); err != nil {
		return StateUnconverted, fmt.Errorf("dropping %s from %s blocks: %w", target, field.APIKey, err)
	}
	if len(remaining) > 0 {
		return StatePartiallyReplaced, nil
	}
	return StateFullyReplaced, nil
}

func containsString(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
