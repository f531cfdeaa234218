package rest

import "github.com/vk/blocklift/internal/cms"

// Wire payloads for the management API.

type itemTypePayload struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	APIKey       string `json:"api_key"`
	ModularBlock bool   `json:"modular_block"`
	TitleFieldID string `json:"title_field_id,omitempty"`
}

type itemTypeEnvelope struct {
	Data itemTypePayload `json:"data"`
}

type itemTypeListEnvelope struct {
	Data []itemTypePayload `json:"data"`
}

func (p itemTypePayload) toDomain() *cms.ItemType {
	return &cms.ItemType{
		ID:           p.ID,
		Name:         p.Name,
		APIKey:       p.APIKey,
		IsBlock:      p.ModularBlock,
		TitleFieldID: p.TitleFieldID,
	}
}

func toItemTypePayload(it *cms.ItemType) itemTypePayload {
	return itemTypePayload{
		ID:           it.ID,
		Name:         it.Name,
		APIKey:       it.APIKey,
		ModularBlock: it.IsBlock,
		TitleFieldID: it.TitleFieldID,
	}
}

type fieldPayload struct {
	ID           string         `json:"id,omitempty"`
	ItemTypeID   string         `json:"item_type_id,omitempty"`
	Label        string         `json:"label"`
	APIKey       string         `json:"api_key"`
	FieldType    string         `json:"field_type"`
	Localized    bool           `json:"localized"`
	Validators   map[string]any `json:"validators,omitempty"`
	Appearance   map[string]any `json:"appearance,omitempty"`
	Position     int            `json:"position"`
	Hint         string         `json:"hint,omitempty"`
	DefaultValue any            `json:"default_value,omitempty"`
	FieldsetID   string         `json:"fieldset_id,omitempty"`
}

type fieldEnvelope struct {
	Data fieldPayload `json:"data"`
}

type fieldListEnvelope struct {
	Data []fieldPayload `json:"data"`
}

func (e fieldListEnvelope) toDomain() []*cms.Field {
	out := make([]*cms.Field, 0, len(e.Data))
	for _, p := range e.Data {
		out = append(out, p.toDomain())
	}
	return out
}

func (p fieldPayload) toDomain() *cms.Field {
	return &cms.Field{
		ID:           p.ID,
		ItemTypeID:   p.ItemTypeID,
		Label:        p.Label,
		APIKey:       p.APIKey,
		FieldType:    p.FieldType,
		Localized:    p.Localized,
		Validators:   p.Validators,
		Appearance:   p.Appearance,
		Position:     p.Position,
		Hint:         p.Hint,
		DefaultValue: p.DefaultValue,
		FieldsetID:   p.FieldsetID,
	}
}

func toFieldPayload(f *cms.Field) fieldPayload {
	return fieldPayload{
		ID:           f.ID,
		ItemTypeID:   f.ItemTypeID,
		Label:        f.Label,
		APIKey:       f.APIKey,
		FieldType:    f.FieldType,
		Localized:    f.Localized,
		Validators:   f.Validators,
		Appearance:   f.Appearance,
		Position:     f.Position,
		Hint:         f.Hint,
		DefaultValue: f.DefaultValue,
		FieldsetID:   f.FieldsetID,
	}
}

type recordPayload struct {
	ID       string         `json:"id,omitempty"`
	ItemType string         `json:"item_type,omitempty"`
	Fields   map[string]any `json:"data,omitempty"`
}

type recordEnvelope struct {
	Data recordPayload `json:"data"`
}

type recordListEnvelope struct {
	Data []recordPayload `json:"data"`
	Meta struct {
		TotalCount int `json:"total_count"`
	} `json:"meta"`
}

func (p recordPayload) toDomain() *cms.Record {
	return &cms.Record{ID: p.ID, ItemTypeID: p.ItemType, Fields: p.Fields}
}

type siteEnvelope struct {
	Data struct {
		Locales []string `json:"locales"`
	} `json:"data"`
}

type menuItemPayload struct {
	ID         string `json:"id,omitempty"`
	Label      string `json:"label"`
	ItemTypeID string `json:"item_type_id,omitempty"`
}

type menuItemEnvelope struct {
	Data menuItemPayload `json:"data"`
}

type menuItemListEnvelope struct {
	Data []menuItemPayload `json:"data"`
}

func (p menuItemPayload) toDomain() *cms.MenuItem {
	return &cms.MenuItem{ID: p.ID, Label: p.Label, ItemTypeID: p.ItemTypeID}
}
