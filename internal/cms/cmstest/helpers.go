package cmstest

import (
	"context"
	"sort"

	"github.com/vk/blocklift/internal/cms"
)

// MustAddItemType inserts an item type directly, panicking on identifier
// collisions. Test setup helper.
func (s *Server) MustAddItemType(it *cms.ItemType) *cms.ItemType {
	created, err := s.CreateItemType(context.Background(), it)
	if err != nil {
		panic(err)
	}
	return created
}

// MustAddField inserts a field directly, panicking on collisions.
func (s *Server) MustAddField(itemTypeID string, f *cms.Field) *cms.Field {
	created, err := s.CreateField(context.Background(), itemTypeID, f)
	if err != nil {
		panic(err)
	}
	return created
}

// MustAddRecord inserts a record directly.
func (s *Server) MustAddRecord(itemTypeID string, fields map[string]any) *cms.Record {
	created, err := s.CreateRecord(context.Background(), itemTypeID, fields)
	if err != nil {
		panic(err)
	}
	return created
}

// MustAddMenuItem inserts a menu item directly.
func (s *Server) MustAddMenuItem(m *cms.MenuItem) *cms.MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	if cp.ID == "" {
		cp.ID = "menu-" + cp.ItemTypeID
	}
	s.menuItems[cp.ID] = &cp
	out := cp
	return &out
}

// Record returns a stored record by id, or nil.
func (s *Server) Record(id string) *cms.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.records {
		for _, r := range list {
			if r.ID == id {
				return copyRecord(r)
			}
		}
	}
	return nil
}

// RecordsOf returns all stored records of an item type in insertion order.
func (s *Server) RecordsOf(itemTypeID string) []*cms.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*cms.Record, 0, len(s.records[itemTypeID]))
	for _, r := range s.records[itemTypeID] {
		out = append(out, copyRecord(r))
	}
	return out
}

// ItemTypeByAPIKey returns a stored item type by api_key, or nil.
func (s *Server) ItemTypeByAPIKey(apiKey string) *cms.ItemType {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.itemTypes {
		if it.APIKey == apiKey {
			return copyItemType(it)
		}
	}
	return nil
}

// FieldByAPIKey returns a stored field by owner and api_key, or nil.
func (s *Server) FieldByAPIKey(itemTypeID, apiKey string) *cms.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.fields {
		if f.ItemTypeID == itemTypeID && f.APIKey == apiKey {
			return copyField(f)
		}
	}
	return nil
}

func copyItemType(it *cms.ItemType) *cms.ItemType {
	cp := *it
	return &cp
}

func copyField(f *cms.Field) *cms.Field {
	return f.Clone()
}

func copyRecord(r *cms.Record) *cms.Record {
	return &cms.Record{
		ID:         r.ID,
		ItemTypeID: r.ItemTypeID,
		Fields:     deepCopyMap(r.Fields),
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	out, _ := deepCopyValue(m).(map[string]any)
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

func sortFields(fields []*cms.Field) {
	sort.Slice(fields, func(i, j int) bool {
		if fields[i].ItemTypeID != fields[j].ItemTypeID {
			return fields[i].ItemTypeID < fields[j].ItemTypeID
		}
		if fields[i].Position != fields[j].Position {
			return fields[i].Position < fields[j].Position
		}
		return fields[i].APIKey < fields[j].APIKey
	})
}
