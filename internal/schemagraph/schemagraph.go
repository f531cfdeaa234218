// Package schemagraph resolves every nested field path from a root model to
// a target block type, including paths that tunnel through intermediate
// block-in-block nesting.
package schemagraph

import (
	"context"

	"github.com/vk/blocklift/internal/cms"
	"github.com/vk/blocklift/internal/ctxlog"
)

// Step is one hop of a nested block path: a field on the previous level's
// item type embedding blocks of BlockTypeID.
type Step struct {
	FieldAPIKey string
	BlockTypeID string
	Localized   bool
	FieldType   string
}

// Path is the ordered field traversal from a root (non-block) model down to
// the field directly embedding the target block. Steps[0]'s owner is always
// Root and never a block; len(Steps) >= 1. Field is the terminal field
// descriptor, the one whose validators admit the target.
type Path struct {
	Root  *cms.ItemType
	Steps []Step
	Field *cms.Field
}

// Localized reports whether any step of the path traverses a localized field.
func (p Path) Localized() bool {
	for _, s := range p.Steps {
		if s.Localized {
			return true
		}
	}
	return false
}

// Resolver finds nested block paths. Item type lookups are cached for the
// lifetime of the resolver, so scope one resolver per conversion run.
type Resolver struct {
	schema cms.SchemaAPI
	cache  *itemTypeCache
}

// NewResolver returns a resolver with an empty per-run item type cache.
func NewResolver(schema cms.SchemaAPI) *Resolver {
	return &Resolver{schema: schema, cache: newItemTypeCache(schema)}
}

// PathsTo returns every path from a root model to the target block type.
// Schema API errors abort resolution.
func (r *Resolver) PathsTo(ctx context.Context, blockID string) ([]Path, error) {
	visited := make(map[string]bool)
	return r.pathsTo(ctx, blockID, visited)
}

func (r *Resolver) pathsTo(ctx context.Context, blockID string, visited map[string]bool) ([]Path, error) {
	if visited[blockID] {
		// A nesting cycle; this branch contributes no paths. Kept silent at
		// the API level, surfaced for diagnosis in the logs.
		ctxlog.FromContext(ctx).Debug("Block nesting cycle truncated.", "block_id", blockID)
		return nil, nil
	}
	visited[blockID] = true
	defer delete(visited, blockID)

	fields, err := r.schema.FieldsReferencing(ctx, blockID)
	if err != nil {
		return nil, &cms.SchemaResolutionError{Op: "fields referencing lookup", Err: err}
	}

	var paths []Path
	for _, field := range fields {
		if !field.AllowsBlock(blockID) {
			continue
		}
		owner, err := r.cache.get(ctx, field.ItemTypeID)
		if err != nil {
			return nil, &cms.SchemaResolutionError{Op: "item type lookup", Err: err}
		}
		step := Step{
			FieldAPIKey: field.APIKey,
			BlockTypeID: blockID,
			Localized:   field.Localized,
			FieldType:   field.FieldType,
		}
		if !owner.IsBlock {
			paths = append(paths, Path{Root: owner, Steps: []Step{step}, Field: field})
			continue
		}
		// The owner is itself a block: resolve paths to it, then extend
		// each with the current hop.
		parents, err := r.pathsTo(ctx, owner.ID, visited)
		if err != nil {
			return nil, err
		}
		for _, parent := range parents {
			steps := make([]Step, 0, len(parent.Steps)+1)
			steps = append(steps, parent.Steps...)
			steps = append(steps, step)
			paths = append(paths, Path{Root: parent.Root, Steps: steps, Field: field})
		}
	}
	return paths, nil
}
