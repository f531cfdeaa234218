// Package fieldconv swaps a block-embedding field for a reference field (or
// rewrites a structured text field in place) under non-destructive, partial
// and full-replace policies.
package fieldconv

import (
	"context"
	"fmt"

	"github.com/vk/blocklift/internal/cms"
	"github.com/vk/blocklift/internal/ctxlog"
	"github.com/vk/blocklift/internal/extract"
	"github.com/vk/blocklift/internal/migrate"
	"github.com/vk/blocklift/internal/schemagraph"
)

// State is the outcome of converting one field.
type State string

const (
	StateUnconverted          State = "unconverted"
	StateNonDestructiveLinked State = "non_destructive_linked"
	StatePartiallyReplaced    State = "partially_replaced"
	StateFullyReplaced        State = "fully_replaced"
)

// Converter drives per-field conversion. Structural schema mutations are
// fail-fast; per-record data rewrites are fail-soft.
type Converter struct {
	api          cms.API
	fullyReplace bool
	publish      bool
	pageSize     int
}

// NewConverter returns a field converter.
func NewConverter(api cms.API, fullyReplace, publish bool) *Converter {
	return &Converter{
		api:          api,
		fullyReplace: fullyReplace,
		publish:      publish,
		pageSize:     extract.DefaultPageSize,
	}
}

// Convert rewrites a terminal field and its stored data so that converted
// block instances are reachable through references to the new model. All
// paths must share the same terminal field: a field on an intermediate block
// is reached once per root model, and converting it structurally more than
// once would delete an already-deleted field. Data rewrites run per path,
// schema mutations exactly once. mapping must already cover every instance
// the records contain.
func (c *Converter) Convert(ctx context.Context, group []schemagraph.Path, newModelID string, mapping migrate.Mapping) (State, error) {
	if len(group) == 0 {
		return StateUnconverted, fmt.Errorf("no paths to convert")
	}
	field := group[0].Field
	for _, path := range group[1:] {
		if path.Field.ID != field.ID {
			return StateUnconverted, fmt.Errorf("paths mix terminal fields %s and %s", field.APIKey, path.Field.APIKey)
		}
	}
	switch field.FieldType {
	case cms.FieldTypeStructuredText:
		return c.convertStructuredText(ctx, group, newModelID, mapping)
	case cms.FieldTypeRichText, cms.FieldTypeSingleBlock:
		return c.convertEmbedded(ctx, group, newModelID, mapping)
	}
	return StateUnconverted, fmt.Errorf("field %s: unsupported field type %q", field.APIKey, field.FieldType)
}

// targetBlockID is the block type the path's terminal step embeds.
func targetBlockID(path schemagraph.Path) string {
	return path.Steps[len(path.Steps)-1].BlockTypeID
}

// remainingBlockIDs is the terminal field's allowed block set minus the
// conversion target.
func remainingBlockIDs(path schemagraph.Path) []string {
	target := targetBlockID(path)
	var out []string
	for _, id := range path.Field.AllowedBlockIDs() {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// rewriteRecords runs fn against every root record of the path and persists
// the changed root field values. Per-record failures are logged and skipped
// so one bad record cannot block the batch.
func (c *Converter) rewriteRecords(ctx context.Context, path schemagraph.Path, rootKeys []string, fn extract.HolderFunc) error {
	logger := ctxlog.FromContext(ctx)
	return extract.EachRecord(ctx, c.api, path.Root.ID, c.pageSize, func(record *cms.Record) error {
		fields, changed, err := extract.MutateHolders(record, path, fn)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		payload := make(map[string]any, len(rootKeys))
		for _, k := range rootKeys {
			payload[k] = fields[k]
		}
		if _, err := c.api.UpdateRecord(ctx, record.ID, payload); err != nil {
			mutErr := &cms.RecordMutationError{RecordID: record.ID, Op: "rewrite record", Err: err}
			logger.Warn("Skipping record, rewrite failed.", "error", mutErr)
			return nil
		}
		if c.publish {
			if err := c.api.PublishRecord(ctx, record.ID); err != nil {
				mutErr := &cms.RecordMutationError{RecordID: record.ID, Op: "publish", Err: err}
				logger.Warn("Publishing rewritten record failed.", "error", mutErr)
			}
		}
		return nil
	})
}

// rootUpdateKeys lists the record fields a rewrite can touch: for nested
// paths only the first step's field, for direct paths the given terminal
// level keys.
func rootUpdateKeys(path schemagraph.Path, terminalKeys ...string) []string {
	if len(path.Steps) > 1 {
		return []string{path.Steps[0].FieldAPIKey}
	}
	return terminalKeys
}

// eachTerminalValue applies fn to the terminal field's value in holder,
// once per locale for localized fields. fn returns the replacement value
// and whether it changed anything; the replacement is written back in the
// right shape.
func eachTerminalValue(holder map[string]any, field *cms.Field, fn func(locale string, value any) (any, bool)) bool {
	raw, ok := cms.BlockFieldValue(holder, field.APIKey)
	if !ok || raw == nil {
		return false
	}
	if !field.Localized {
		newValue, changed := fn("", raw)
		if changed {
			cms.SetBlockFieldValue(holder, field.APIKey, newValue)
		}
		return changed
	}
	byLocale, ok := cms.AsMap(raw)
	if !ok {
		return false
	}
	changed := false
	for _, locale := range sortedKeys(byLocale) {
		newValue, c := fn(locale, byLocale[locale])
		if c {
			byLocale[locale] = newValue
			changed = true
		}
	}
	return changed
}
