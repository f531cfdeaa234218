// Package extract walks nested block paths across paginated records: it
// collects block occurrences for migration and offers the generic
// mutate-at-nested-path traversal the field converter is built on.
package extract

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vk/blocklift/internal/cms"
	"github.com/vk/blocklift/internal/dast"
	"github.com/vk/blocklift/internal/schemagraph"
)

// DefaultPageSize is the record page size used when none is configured.
const DefaultPageSize = 30

// Instance is one occurrence of the target block: where it sits (root
// record, position at each nesting level, locale) and its payload.
type Instance struct {
	RootRecordID string
	PathIndices  []int
	Locale       string // "" when the path is not localized
	BlockID      string
	Payload      map[string]any
}

// GroupKey identifies the locale-merged group an instance belongs to:
// instances sharing (rootRecordId, pathIndices) describe one logical item.
func (i Instance) GroupKey() string {
	parts := make([]string, 0, len(i.PathIndices)+1)
	parts = append(parts, i.RootRecordID)
	for _, idx := range i.PathIndices {
		parts = append(parts, strconv.Itoa(idx))
	}
	return strings.Join(parts, "/")
}

// Extractor collects block instances for a nested path.
type Extractor struct {
	content  cms.ContentAPI
	pageSize int
}

// NewExtractor returns an extractor reading records in DefaultPageSize pages.
func NewExtractor(content cms.ContentAPI) *Extractor {
	return &Extractor{content: content, pageSize: DefaultPageSize}
}

// Instances pages through the path's root model records and collects every
// occurrence of the target block, locale-aware, in visitation order.
func (e *Extractor) Instances(ctx context.Context, path schemagraph.Path) ([]Instance, error) {
	var out []Instance
	err := EachRecord(ctx, e.content, path.Root.ID, e.pageSize, func(record *cms.Record) error {
		out = append(out, collect(record.ID, record.Fields, path.Steps, nil, "")...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EachRecord iterates all records of an item type sequentially, one page at
// a time, preserving API order.
func EachRecord(ctx context.Context, content cms.ContentAPI, itemTypeID string, pageSize int, fn func(*cms.Record) error) error {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	offset := 0
	for {
		page, total, err := content.Records(ctx, itemTypeID, offset, pageSize)
		if err != nil {
			return fmt.Errorf("listing records of %s: %w", itemTypeID, err)
		}
		for _, record := range page {
			if err := fn(record); err != nil {
				return err
			}
		}
		offset += len(page)
		if offset >= total || len(page) == 0 {
			return nil
		}
	}
}

// collect recurses one path step at a time. holder is the root record's
// field map at depth 0 and a block payload below that.
func collect(rootID string, holder map[string]any, steps []schemagraph.Step, indices []int, locale string) []Instance {
	step := steps[0]
	raw, ok := cms.BlockFieldValue(holder, step.FieldAPIKey)
	if !ok || raw == nil {
		return nil
	}

	if step.Localized {
		byLocale, ok := cms.AsMap(raw)
		if !ok {
			return nil
		}
		locales := make([]string, 0, len(byLocale))
		for l := range byLocale {
			locales = append(locales, l)
		}
		sort.Strings(locales)
		var out []Instance
		for _, l := range locales {
			out = append(out, collectValue(rootID, byLocale[l], steps, indices, l)...)
		}
		return out
	}
	return collectValue(rootID, raw, steps, indices, locale)
}

func collectValue(rootID string, value any, steps []schemagraph.Step, indices []int, locale string) []Instance {
	step := steps[0]
	var out []Instance
	for i, block := range EmbeddedBlocks(step.FieldType, value) {
		if cms.BlockTypeID(block) != step.BlockTypeID {
			continue
		}
		idx := append(append([]int(nil), indices...), i)
		if len(steps) == 1 {
			out = append(out, Instance{
				RootRecordID: rootID,
				PathIndices:  idx,
				Locale:       locale,
				BlockID:      cms.BlockID(block),
				Payload:      block,
			})
			continue
		}
		out = append(out, collect(rootID, block, steps[1:], idx, locale)...)
	}
	return out
}

// EmbeddedBlocks extracts the block payloads a field value embeds, in
// stored order. For structured text only blocks reachable from
// document.children count; stale side-array leftovers from prior edits must
// not resurrect.
func EmbeddedBlocks(fieldType string, value any) []map[string]any {
	switch fieldType {
	case cms.FieldTypeRichText:
		list, ok := value.([]any)
		if !ok {
			return nil
		}
		out := make([]map[string]any, 0, len(list))
		for _, e := range list {
			if b, ok := cms.AsMap(e); ok {
				out = append(out, b)
			}
		}
		return out
	case cms.FieldTypeSingleBlock:
		if b, ok := cms.AsMap(value); ok {
			return []map[string]any{b}
		}
		return nil
	case cms.FieldTypeStructuredText:
		if m, ok := cms.AsMap(value); ok && dast.IsValue(m) {
			return dast.EmbeddedBlocks(m)
		}
		return nil
	}
	return nil
}
