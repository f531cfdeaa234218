// Package lifecycle creates the new top-level model from a block type's
// definition, deletes the original block once conversion completes, and
// reclaims the block's identity for the new model.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/vk/blocklift/internal/cms"
	"github.com/vk/blocklift/internal/ctxlog"
)

// Manager performs the schema-level model mutations of a conversion.
type Manager struct {
	schema cms.SchemaAPI
	site   cms.SiteAPI
}

// NewManager returns a lifecycle manager.
func NewManager(schema cms.SchemaAPI, site cms.SiteAPI) *Manager {
	return &Manager{schema: schema, site: site}
}

// CreateModelFromBlock creates a new non-block model out of the block's
// definition: pluralized, collision-free name/api_key and a copy of every
// field. Validators referencing other fields by id are remapped through the
// incrementally built old-to-new field id table; slug fields are created
// last so their title-field dependency already exists. The first plain
// string field becomes the title field.
func (m *Manager) CreateModelFromBlock(ctx context.Context, block *cms.ItemType, fields []*cms.Field) (*cms.ItemType, error) {
	name, apiKey, err := m.uniqueIdentity(ctx, Pluralize(block.Name), PluralizeAPIKey(sanitizeAPIKey(block.APIKey)))
	if err != nil {
		return nil, err
	}

	model, err := m.schema.CreateItemType(ctx, &cms.ItemType{
		Name:    name,
		APIKey:  apiKey,
		IsBlock: false,
	})
	if err != nil {
		return nil, fmt.Errorf("creating model %s: %w", apiKey, err)
	}
	ctxlog.FromContext(ctx).Info("Created model.", "id", model.ID, "api_key", model.APIKey)

	idMap := make(map[string]string, len(fields))
	var titleFieldID string
	for _, src := range fieldCopyOrder(fields) {
		def := *src
		def.ID = ""
		def.ItemTypeID = ""
		def.Validators = remapFieldIDs(def.Validators, idMap)
		created, err := m.schema.CreateField(ctx, model.ID, &def)
		if err != nil {
			return nil, fmt.Errorf("copying field %s: %w", src.APIKey, err)
		}
		idMap[src.ID] = created.ID
		if titleFieldID == "" && created.FieldType == cms.FieldTypeString {
			titleFieldID = created.ID
		}
	}

	if titleFieldID != "" {
		model.TitleFieldID = titleFieldID
		updated, err := m.schema.UpdateItemType(ctx, model)
		if err != nil {
			return nil, fmt.Errorf("setting title field of %s: %w", model.APIKey, err)
		}
		model = updated
	}
	return model, nil
}

// DeleteBlockType removes the original block. Only valid once every
// referencing field has been converted.
func (m *Manager) DeleteBlockType(ctx context.Context, blockID string) error {
	if err := m.schema.DeleteItemType(ctx, blockID); err != nil {
		return fmt.Errorf("deleting block type %s: %w", blockID, err)
	}
	return nil
}

// ReclaimIdentity renames the model towards the original block's identity:
// exact api_key first, pluralized next, name-only as the last resort. The
// matching menu label is updated best-effort. A partial outcome returns a
// non-fatal warning instead of an error.
func (m *Manager) ReclaimIdentity(ctx context.Context, model *cms.ItemType, origName, origAPIKey string) *cms.PartialRenameWarning {
	logger := ctxlog.FromContext(ctx)

	attempts := []cms.ItemType{
		{ID: model.ID, Name: origName, APIKey: origAPIKey, IsBlock: false, TitleFieldID: model.TitleFieldID},
		{ID: model.ID, Name: origName, APIKey: PluralizeAPIKey(origAPIKey), IsBlock: false, TitleFieldID: model.TitleFieldID},
		{ID: model.ID, Name: origName, APIKey: model.APIKey, IsBlock: false, TitleFieldID: model.TitleFieldID},
	}
	var renameErr error
	renamed := false
	for _, attempt := range attempts {
		updated, err := m.schema.UpdateItemType(ctx, &attempt)
		if err == nil {
			*model = *updated
			renamed = true
			break
		}
		renameErr = err
		logger.Debug("Rename attempt failed.", "api_key", attempt.APIKey, "error", err)
	}

	menuErr := m.updateMenuLabel(ctx, model.ID, origName)

	switch {
	case !renamed:
		return &cms.PartialRenameWarning{ModelID: model.ID, Detail: "name/api_key could not be reclaimed", Err: renameErr}
	case model.APIKey != origAPIKey && model.APIKey != PluralizeAPIKey(origAPIKey):
		return &cms.PartialRenameWarning{ModelID: model.ID, Detail: "api_key kept its generated value", Err: renameErr}
	case menuErr != nil:
		return &cms.PartialRenameWarning{ModelID: model.ID, Detail: "menu label update failed", Err: menuErr}
	}
	return nil
}

func (m *Manager) updateMenuLabel(ctx context.Context, modelID, label string) error {
	items, err := m.site.MenuItems(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.ItemTypeID == modelID {
			item.Label = label
			return m.site.UpdateMenuItem(ctx, item)
		}
	}
	return nil
}

// uniqueIdentity finds a name/api_key pair not taken by any existing item
// type, trying lettered suffixes after the bare candidate.
func (m *Manager) uniqueIdentity(ctx context.Context, name, apiKey string) (string, string, error) {
	existing, err := m.schema.ItemTypes(ctx)
	if err != nil {
		return "", "", &cms.SchemaResolutionError{Op: "item type enumeration", Err: err}
	}
	takenKeys := make(map[string]bool, len(existing))
	takenNames := make(map[string]bool, len(existing))
	for _, it := range existing {
		takenKeys[it.APIKey] = true
		takenNames[it.Name] = true
	}

	if !takenKeys[apiKey] && !takenNames[name] {
		return name, apiKey, nil
	}
	for i := 0; i < maxSuffixAttempts; i++ {
		suffix := letterSuffix(i)
		candidateKey := apiKey + "_" + suffix
		candidateName := name + " " + suffix
		if !takenKeys[candidateKey] && !takenNames[candidateName] {
			return candidateName, candidateKey, nil
		}
	}
	return "", "", &cms.IdentifierCollisionError{Base: apiKey, Attempts: maxSuffixAttempts}
}

// fieldCopyOrder sorts fields by position, deferring slug fields to the end
// so their title-field references can be remapped.
func fieldCopyOrder(fields []*cms.Field) []*cms.Field {
	plain := make([]*cms.Field, 0, len(fields))
	var slugs []*cms.Field
	for _, f := range fields {
		if f.FieldType == cms.FieldTypeSlug {
			slugs = append(slugs, f)
		} else {
			plain = append(plain, f)
		}
	}
	byPosition(plain)
	byPosition(slugs)
	return append(plain, slugs...)
}

func byPosition(fields []*cms.Field) {
	for i := 1; i < len(fields); i++ {
		for j := i; j > 0 && fields[j-1].Position > fields[j].Position; j-- {
			fields[j-1], fields[j] = fields[j], fields[j-1]
		}
	}
}

// remapFieldIDs deep-copies a validator tree, replacing every string value
// that names a source field id with the corresponding new field id.
func remapFieldIDs(v map[string]any, idMap map[string]string) map[string]any {
	out, _ := remapValue(v, idMap).(map[string]any)
	return out
}

func remapValue(v any, idMap map[string]string) any {
	switch t := v.(type) {
	case string:
		if mapped, ok := idMap[t]; ok {
			return mapped
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = remapValue(e, idMap)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = remapValue(e, idMap)
		}
		return out
	default:
		return v
	}
}
