package schemagraph

import (
	"context"
	"sync"

	"github.com/vk/blocklift/internal/cms"
)

// itemTypeCache memoizes item type lookups for one resolver. It is an
// explicit object rather than package state so concurrent conversions
// cannot cross-contaminate.
type itemTypeCache struct {
	schema cms.SchemaAPI
	mu     sync.Mutex
	byID   map[string]*cms.ItemType
}

func newItemTypeCache(schema cms.SchemaAPI) *itemTypeCache {
	return &itemTypeCache{schema: schema, byID: make(map[string]*cms.ItemType)}
}

func (c *itemTypeCache) get(ctx context.Context, id string) (*cms.ItemType, error) {
	c.mu.Lock()
	if it, ok := c.byID[id]; ok {
		c.mu.Unlock()
		return it, nil
	}
	c.mu.Unlock()

	it, err := c.schema.ItemType(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byID[id] = it
	c.mu.Unlock()
	return it, nil
}
