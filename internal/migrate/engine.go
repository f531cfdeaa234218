package migrate

import (
	"context"
	"sort"

	"github.com/vk/blocklift/internal/cms"
	"github.com/vk/blocklift/internal/ctxlog"
	"github.com/vk/blocklift/internal/extract"
)

// Engine creates new top-level records from block instances. Record
// creation failures are fail-soft: one bad record is logged and skipped so
// the rest of the batch still migrates.
type Engine struct {
	content cms.ContentAPI
	site    cms.SiteAPI
	publish bool
}

// NewEngine returns a migration engine. When publish is set, every created
// record is published right after creation (also fail-soft).
func NewEngine(content cms.ContentAPI, site cms.SiteAPI, publish bool) *Engine {
	return &Engine{content: content, site: site, publish: publish}
}

// Migrate creates one record per unique, not-yet-mapped instance and maps
// each instance id 1:1. Safe to call repeatedly with a growing mapping:
// already-mapped ids are filtered before any create call.
func (e *Engine) Migrate(ctx context.Context, modelID string, instances []extract.Instance, mapping Mapping) (int, error) {
	logger := ctxlog.FromContext(ctx)
	created := 0
	for _, inst := range instances {
		if inst.BlockID == "" || mapping.Has(inst.BlockID) {
			continue
		}
		record, err := e.content.CreateRecord(ctx, modelID, SanitizePayload(inst.Payload))
		if err != nil {
			mutErr := &cms.RecordMutationError{RecordID: inst.RootRecordID, Op: "create migrated record", Err: err}
			logger.Warn("Skipping block instance, record creation failed.", "block_id", inst.BlockID, "error", mutErr)
			continue
		}
		mapping.Add(inst.BlockID, record.ID)
		created++
		e.maybePublish(ctx, record.ID)
	}
	return created, nil
}

// MigrateGrouped merges instances sharing (rootRecordId, pathIndices) into
// one multi-locale record each: every field key seen under any locale is
// synthesized for every project locale. Every contributing instance id maps
// to the single new record, so one logical multi-language item never
// produces duplicates.
func (e *Engine) MigrateGrouped(ctx context.Context, modelID string, instances []extract.Instance, mapping Mapping) (int, error) {
	logger := ctxlog.FromContext(ctx)
	locales, err := e.site.Locales(ctx)
	if err != nil {
		return 0, &cms.SchemaResolutionError{Op: "site locale lookup", Err: err}
	}

	var order []string
	groups := make(map[string][]extract.Instance)
	for _, inst := range instances {
		key := inst.GroupKey()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], inst)
	}

	created := 0
	for _, key := range order {
		group := groups[key]

		// Resuming: if any member is already mapped, the group's record
		// exists; just extend the mapping to the rest.
		if recordID := mappedRecordID(group, mapping); recordID != "" {
			for _, inst := range group {
				mapping.Add(inst.BlockID, recordID)
			}
			continue
		}

		fields := mergeLocales(group, locales)
		record, err := e.content.CreateRecord(ctx, modelID, fields)
		if err != nil {
			mutErr := &cms.RecordMutationError{RecordID: group[0].RootRecordID, Op: "create merged record", Err: err}
			logger.Warn("Skipping block instance group, record creation failed.", "group", key, "error", mutErr)
			continue
		}
		for _, inst := range group {
			mapping.Add(inst.BlockID, record.ID)
		}
		created++
		e.maybePublish(ctx, record.ID)
	}
	return created, nil
}

func mappedRecordID(group []extract.Instance, mapping Mapping) string {
	for _, inst := range group {
		if mapping.Has(inst.BlockID) {
			return mapping.Get(inst.BlockID)
		}
	}
	return ""
}

// mergeLocales builds the multi-locale field map for one group: field key ->
// locale -> sanitized value (or nil default when a locale never saw the key).
func mergeLocales(group []extract.Instance, locales []string) map[string]any {
	perLocale := make(map[string]map[string]any, len(group))
	keySet := make(map[string]bool)
	for _, inst := range group {
		sanitized := SanitizePayload(inst.Payload)
		perLocale[inst.Locale] = sanitized
		for k := range sanitized {
			keySet[k] = true
		}
	}

	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(map[string]any, len(keys))
	for _, k := range keys {
		value := make(map[string]any, len(locales))
		for _, locale := range locales {
			if payload, ok := perLocale[locale]; ok {
				if v, ok := payload[k]; ok {
					value[locale] = v
					continue
				}
			}
			value[locale] = nil
		}
		fields[k] = value
	}
	return fields
}

func (e *Engine) maybePublish(ctx context.Context, recordID string) {
	if !e.publish {
		return
	}
	if err := e.content.PublishRecord(ctx, recordID); err != nil {
		mutErr := &cms.RecordMutationError{RecordID: recordID, Op: "publish", Err: err}
		ctxlog.FromContext(ctx).Warn("Publishing migrated record failed.", "error", mutErr)
	}
}
