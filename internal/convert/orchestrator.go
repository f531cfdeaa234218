package convert

import (
	"context"
	"fmt"

	"github.com/vk/blocklift/internal/cms"
	"github.com/vk/blocklift/internal/ctxlog"
	"github.com/vk/blocklift/internal/extract"
	"github.com/vk/blocklift/internal/fieldconv"
	"github.com/vk/blocklift/internal/lifecycle"
	"github.com/vk/blocklift/internal/migrate"
	"github.com/vk/blocklift/internal/schemagraph"
)

// Orchestrator runs conversions against one API.
type Orchestrator struct {
	api cms.API
}

// New returns an orchestrator.
func New(api cms.API) *Orchestrator {
	return &Orchestrator{api: api}
}

// Run executes the conversion pipeline to completion. The pipeline is
// single-threaded and sequential; structural failures abort the run and are
// reported in the result.
func (o *Orchestrator) Run(ctx context.Context, opts Options) *Result {
	logger := ctxlog.FromContext(ctx)

	block, err := o.api.ItemType(ctx, opts.BlockID)
	if err != nil {
		return failure("", "", fmt.Errorf("looking up target block: %w", err))
	}
	if !block.IsBlock {
		return failure(block.Name, block.APIKey, fmt.Errorf("item type %s is already a top-level model", block.APIKey))
	}
	blockFields, err := o.api.Fields(ctx, block.ID)
	if err != nil {
		return failure(block.Name, block.APIKey, fmt.Errorf("listing block fields: %w", err))
	}

	resolver := schemagraph.NewResolver(o.api)
	paths, err := resolver.PathsTo(ctx, block.ID)
	if err != nil {
		return failure(block.Name, block.APIKey, err)
	}
	if len(paths) == 0 {
		// A defined outcome, not an exception: nothing references the block.
		logger.Info("Conversion skipped, block unused.", "block", block.APIKey)
		return failure(block.Name, block.APIKey, cms.ErrNoUsage)
	}

	// One field can be reached from several roots when it lives on an
	// intermediate block allowed in more than one model. Its data migrates
	// once per root, but its schema must be converted exactly once.
	groups := groupPathsByField(paths)

	total := 2 + len(paths) + len(groups) + 1
	if opts.FullyReplace {
		total++
	}
	step := 0
	report := func(description string) {
		step++
		if opts.Progress != nil {
			opts.Progress(step, total, description, float64(step)/float64(total)*100)
		}
		logger.Info(description, "step", step, "total", total)
	}

	report(fmt.Sprintf("Resolved %d field path(s) to %s", len(paths), block.APIKey))

	manager := lifecycle.NewManager(o.api, o.api)
	model, err := manager.CreateModelFromBlock(ctx, block, blockFields)
	if err != nil {
		return failure(block.Name, block.APIKey, err)
	}
	report(fmt.Sprintf("Created model %s", model.APIKey))

	extractor := extract.NewExtractor(o.api)
	engine := migrate.NewEngine(o.api, o.api, opts.PublishAfterChanges)
	converter := fieldconv.NewConverter(o.api, opts.FullyReplace, opts.PublishAfterChanges)

	mapping := migrate.Mapping{}
	migrated := 0
	converted := 0
	for _, group := range groups {
		for _, path := range group {
			instances, err := extractor.Instances(ctx, path)
			if err != nil {
				return failure(block.Name, block.APIKey, err)
			}
			var created int
			if path.Localized() {
				created, err = engine.MigrateGrouped(ctx, model.ID, instances, mapping)
			} else {
				created, err = engine.Migrate(ctx, model.ID, instances, mapping)
			}
			if err != nil {
				return failure(block.Name, block.APIKey, err)
			}
			migrated += created
			report(fmt.Sprintf("Migrated %d record(s) from %s.%s", created, path.Root.APIKey, path.Field.APIKey))
		}

		state, err := converter.Convert(ctx, group, model.ID, mapping)
		if err != nil {
			return failure(block.Name, block.APIKey, err)
		}
		converted++
		field := group[0].Field
		if len(group) == 1 {
			report(fmt.Sprintf("Converted field %s.%s (%s)", group[0].Root.APIKey, field.APIKey, state))
		} else {
			report(fmt.Sprintf("Converted field %s shared by %d roots (%s)", field.APIKey, len(group), state))
		}
	}

	warning := ""
	if opts.FullyReplace {
		// Reclaim runs while the block still holds its api_key: the exact
		// key attempt collides and falls through to the pluralized one,
		// leaving the model with the natural plural identity.
		if w := manager.ReclaimIdentity(ctx, model, block.Name, block.APIKey); w != nil {
			warning = w.Error()
			logger.Warn("Model rename partially succeeded.", "warning", warning)
		}
		if err := manager.DeleteBlockType(ctx, block.ID); err != nil {
			return failure(block.Name, block.APIKey, err)
		}
		report(fmt.Sprintf("Deleted block type %s", block.APIKey))
	}

	report("Conversion finished")
	return &Result{
		Success:         true,
		NewModelID:      model.ID,
		NewModelAPIKey:  model.APIKey,
		MigratedRecords: migrated,
		ConvertedFields: converted,
		OriginalName:    block.Name,
		OriginalAPIKey:  block.APIKey,
		Warning:         warning,
	}
}

// groupPathsByField buckets paths by terminal field id, preserving
// resolution order within and across buckets.
func groupPathsByField(paths []schemagraph.Path) [][]schemagraph.Path {
	index := make(map[string]int, len(paths))
	var groups [][]schemagraph.Path
	for _, path := range paths {
		i, ok := index[path.Field.ID]
		if !ok {
			i = len(groups)
			index[path.Field.ID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], path)
	}
	return groups
}

func failure(name, apiKey string, err error) *Result {
	return &Result{
		Success:        false,
		OriginalName:   name,
		OriginalAPIKey: apiKey,
		Error:          err.Error(),
	}
}
