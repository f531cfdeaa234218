package extract

import (
	"sort"

	"github.com/vk/blocklift/internal/cms"
	"github.com/vk/blocklift/internal/dast"
	"github.com/vk/blocklift/internal/schemagraph"
)

// HolderFunc is applied to every object that holds the path's terminal
// field: the root record's field map for a one-step path, or the payload of
// an intermediate block for nested paths. locale names the innermost
// localized branch ("" outside localized fields); indices is the block
// position at each traversed nesting level. The function mutates holder in
// place and reports whether it changed anything.
type HolderFunc func(holder map[string]any, locale string, indices []int) (bool, error)

// MutateHolders clones the record's fields, walks them along the path and
// applies fn to every terminal-field holder. It returns the cloned field
// map (with fn's mutations applied) and whether anything changed.
//
// Update, remove and insert at arbitrary nested paths all reduce to this
// one traversal; callers encode the actual edit in fn.
func MutateHolders(record *cms.Record, path schemagraph.Path, fn HolderFunc) (map[string]any, bool, error) {
	cloned, ok := dast.Clone(record.Fields).(map[string]any)
	if !ok {
		cloned = map[string]any{}
	}
	changed, err := descend(cloned, path.Steps, nil, "", fn)
	if err != nil {
		return nil, false, err
	}
	return cloned, changed, nil
}

// descend walks the intermediate steps. The holder receiving fn is the one
// owning steps[len(steps)-1]'s field, so recursion stops when one step
// remains.
func descend(holder map[string]any, steps []schemagraph.Step, indices []int, locale string, fn HolderFunc) (bool, error) {
	if len(steps) == 1 {
		return fn(holder, locale, indices)
	}

	step := steps[0]
	raw, ok := cms.BlockFieldValue(holder, step.FieldAPIKey)
	if !ok || raw == nil {
		return false, nil
	}

	if step.Localized {
		byLocale, ok := cms.AsMap(raw)
		if !ok {
			return false, nil
		}
		locales := make([]string, 0, len(byLocale))
		for l := range byLocale {
			locales = append(locales, l)
		}
		sort.Strings(locales)
		changed := false
		for _, l := range locales {
			c, err := descendValue(byLocale[l], steps, indices, l, fn)
			if err != nil {
				return false, err
			}
			changed = changed || c
		}
		return changed, nil
	}
	return descendValue(raw, steps, indices, locale, fn)
}

func descendValue(value any, steps []schemagraph.Step, indices []int, locale string, fn HolderFunc) (bool, error) {
	step := steps[0]
	changed := false
	for i, block := range EmbeddedBlocks(step.FieldType, value) {
		if cms.BlockTypeID(block) != step.BlockTypeID {
			continue
		}
		idx := append(append([]int(nil), indices...), i)
		c, err := descend(block, steps[1:], idx, locale, fn)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	return changed, nil
}
