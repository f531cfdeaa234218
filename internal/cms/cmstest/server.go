// Package cmstest provides an in-memory implementation of the cms API
// contracts for tests. It enforces the same identifier rules the real
// management API does (unique item type api_keys, unique field api_keys per
// owner) so collision and idempotence behavior can be exercised offline.
package cmstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vk/blocklift/internal/cms"
)

// Server is an in-memory cms.API. Safe for concurrent use.
type Server struct {
	mu sync.Mutex

	itemTypes map[string]*cms.ItemType
	fields    map[string]*cms.Field
	records   map[string][]*cms.Record // ordered per item type
	published map[string]bool
	locales   []string
	menuItems map[string]*cms.MenuItem

	// FailCreateRecord, when set, makes CreateRecord fail for payloads the
	// predicate matches. Used to exercise fail-soft migration.
	FailCreateRecord func(fields map[string]any) error
}

// NewServer returns an empty server with a single "en" locale.
func NewServer() *Server {
	return &Server{
		itemTypes: make(map[string]*cms.ItemType),
		fields:    make(map[string]*cms.Field),
		records:   make(map[string][]*cms.Record),
		published: make(map[string]bool),
		locales:   []string{"en"},
		menuItems: make(map[string]*cms.MenuItem),
	}
}

// SetLocales replaces the project locales.
func (s *Server) SetLocales(locales ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locales = append([]string(nil), locales...)
}

// --- SchemaAPI ---

func (s *Server) ItemType(ctx context.Context, id string) (*cms.ItemType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.itemTypes[id]
	if !ok {
		return nil, fmt.Errorf("item type not found: %s", id)
	}
	return copyItemType(it), nil
}

func (s *Server) ItemTypes(ctx context.Context) ([]*cms.ItemType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*cms.ItemType, 0, len(s.itemTypes))
	for _, it := range s.itemTypes {
		out = append(out, copyItemType(it))
	}
	return out, nil
}

func (s *Server) CreateItemType(ctx context.Context, it *cms.ItemType) (*cms.ItemType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkItemTypeKey(it.APIKey, ""); err != nil {
		return nil, err
	}
	stored := copyItemType(it)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	s.itemTypes[stored.ID] = stored
	return copyItemType(stored), nil
}

func (s *Server) UpdateItemType(ctx context.Context, it *cms.ItemType) (*cms.ItemType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.itemTypes[it.ID]; !ok {
		return nil, fmt.Errorf("item type not found: %s", it.ID)
	}
	if err := s.checkItemTypeKey(it.APIKey, it.ID); err != nil {
		return nil, err
	}
	stored := copyItemType(it)
	s.itemTypes[it.ID] = stored
	return copyItemType(stored), nil
}

func (s *Server) DeleteItemType(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.itemTypes[id]; !ok {
		return fmt.Errorf("item type not found: %s", id)
	}
	delete(s.itemTypes, id)
	for fid, f := range s.fields {
		if f.ItemTypeID == id {
			delete(s.fields, fid)
		}
	}
	delete(s.records, id)
	return nil
}

func (s *Server) Fields(ctx context.Context, itemTypeID string) ([]*cms.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*cms.Field
	for _, f := range s.fields {
		if f.ItemTypeID == itemTypeID {
			out = append(out, copyField(f))
		}
	}
	sortFields(out)
	return out, nil
}

func (s *Server) FieldsReferencing(ctx context.Context, itemTypeID string) ([]*cms.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*cms.Field
	for _, f := range s.fields {
		if f.AllowsBlock(itemTypeID) {
			out = append(out, copyField(f))
		}
	}
	sortFields(out)
	return out, nil
}

func (s *Server) CreateField(ctx context.Context, itemTypeID string, f *cms.Field) (*cms.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.itemTypes[itemTypeID]; !ok {
		return nil, fmt.Errorf("item type not found: %s", itemTypeID)
	}
	for _, existing := range s.fields {
		if existing.ItemTypeID == itemTypeID && existing.APIKey == f.APIKey {
			return nil, fmt.Errorf("field api_key already taken on %s: %s", itemTypeID, f.APIKey)
		}
	}
	stored := copyField(f)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.ItemTypeID = itemTypeID
	s.fields[stored.ID] = stored
	return copyField(stored), nil
}

func (s *Server) UpdateField(ctx context.Context, f *cms.Field) (*cms.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.fields[f.ID]
	if !ok {
		return nil, fmt.Errorf("field not found: %s", f.ID)
	}
	for _, existing := range s.fields {
		if existing.ID != f.ID && existing.ItemTypeID == current.ItemTypeID && existing.APIKey == f.APIKey {
			return nil, fmt.Errorf("field api_key already taken on %s: %s", current.ItemTypeID, f.APIKey)
		}
	}
	stored := copyField(f)
	stored.ItemTypeID = current.ItemTypeID
	s.fields[f.ID] = stored
	// Renaming a field renames the key in stored record data, like the
	// real API does. Block instances embedded in other records' values are
	// items of the field's owner type too, so the rename follows them.
	if current.APIKey != stored.APIKey {
		for _, r := range s.records[current.ItemTypeID] {
			if v, ok := r.Fields[current.APIKey]; ok {
				r.Fields[stored.APIKey] = v
				delete(r.Fields, current.APIKey)
			}
		}
		s.eachEmbeddedBlock(current.ItemTypeID, func(block map[string]any) {
			if v, ok := cms.BlockFieldValue(block, current.APIKey); ok {
				cms.DeleteBlockFieldValue(block, current.APIKey)
				cms.SetBlockFieldValue(block, stored.APIKey, v)
			}
		})
	}
	return copyField(stored), nil
}

func (s *Server) DeleteField(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fields[id]
	if !ok {
		return fmt.Errorf("field not found: %s", id)
	}
	delete(s.fields, id)
	for _, r := range s.records[f.ItemTypeID] {
		delete(r.Fields, f.APIKey)
	}
	s.eachEmbeddedBlock(f.ItemTypeID, func(block map[string]any) {
		cms.DeleteBlockFieldValue(block, f.APIKey)
	})
	return nil
}

// eachEmbeddedBlock visits every block payload of the given item type nested
// anywhere inside stored record data. Callers must hold s.mu.
func (s *Server) eachEmbeddedBlock(itemTypeID string, fn func(block map[string]any)) {
	for _, list := range s.records {
		for _, r := range list {
			for _, v := range r.Fields {
				visitBlocks(v, itemTypeID, fn)
			}
		}
	}
}

func visitBlocks(value any, itemTypeID string, fn func(block map[string]any)) {
	switch v := value.(type) {
	case map[string]any:
		for _, nested := range v {
			visitBlocks(nested, itemTypeID, fn)
		}
		if cms.BlockTypeID(v) == itemTypeID {
			fn(v)
		}
	case []any:
		for _, e := range v {
			visitBlocks(e, itemTypeID, fn)
		}
	}
}

// --- ContentAPI ---

func (s *Server) Records(ctx context.Context, itemTypeID string, offset, limit int) ([]*cms.Record, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.records[itemTypeID]
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]*cms.Record, 0, end-offset)
	for _, r := range all[offset:end] {
		out = append(out, copyRecord(r))
	}
	return out, total, nil
}

func (s *Server) CreateRecord(ctx context.Context, itemTypeID string, fields map[string]any) (*cms.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateRecord != nil {
		if err := s.FailCreateRecord(fields); err != nil {
			return nil, err
		}
	}
	if _, ok := s.itemTypes[itemTypeID]; !ok {
		return nil, fmt.Errorf("item type not found: %s", itemTypeID)
	}
	rec := &cms.Record{
		ID:         uuid.NewString(),
		ItemTypeID: itemTypeID,
		Fields:     deepCopyMap(fields),
	}
	s.records[itemTypeID] = append(s.records[itemTypeID], rec)
	return copyRecord(rec), nil
}

func (s *Server) UpdateRecord(ctx context.Context, id string, fields map[string]any) (*cms.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.records {
		for _, r := range list {
			if r.ID == id {
				for k, v := range deepCopyMap(fields) {
					r.Fields[k] = v
				}
				return copyRecord(r), nil
			}
		}
	}
	return nil, fmt.Errorf("record not found: %s", id)
}

func (s *Server) PublishRecord(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published[id] = true
	return nil
}

// Published reports whether a record id was published.
func (s *Server) Published(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published[id]
}

// --- SiteAPI ---

func (s *Server) Locales(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.locales...), nil
}

func (s *Server) MenuItems(ctx context.Context) ([]*cms.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*cms.MenuItem, 0, len(s.menuItems))
	for _, m := range s.menuItems {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Server) UpdateMenuItem(ctx context.Context, m *cms.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menuItems[m.ID]; !ok {
		return fmt.Errorf("menu item not found: %s", m.ID)
	}
	cp := *m
	s.menuItems[m.ID] = &cp
	return nil
}

func (s *Server) checkItemTypeKey(apiKey, selfID string) error {
	for _, existing := range s.itemTypes {
		if existing.ID != selfID && existing.APIKey == apiKey {
			return fmt.Errorf("item type api_key already taken: %s", apiKey)
		}
	}
	return nil
}

var _ cms.API = (*Server)(nil)
