package migrate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/blocklift/internal/cms"
	"github.com/vk/blocklift/internal/cms/cmstest"
	"github.com/vk/blocklift/internal/extract"
)

func quoteInstance(blockID, rootID string, indices []int, locale, quote string) extract.Instance {
	return extract.Instance{
		RootRecordID: rootID,
		PathIndices:  indices,
		Locale:       locale,
		BlockID:      blockID,
		Payload: map[string]any{
			"id":        blockID,
			"item_type": "quote_block",
			"quote":     quote,
		},
	}
}

func TestMigrate_CreatesOneRecordPerInstance(t *testing.T) {
	t.Parallel()

	server := cmstest.NewServer()
	model := server.MustAddItemType(&cms.ItemType{Name: "Quotes", APIKey: "quotes"})
	engine := NewEngine(server, server, false)
	mapping := Mapping{}

	created, err := engine.Migrate(context.Background(), model.ID, []extract.Instance{
		quoteInstance("b1", "r1", []int{0}, "", "one"),
		quoteInstance("b2", "r1", []int{1}, "", "two"),
	}, mapping)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	records := server.RecordsOf(model.ID)
	require.Len(t, records, 2)
	assert.Equal(t, "one", records[0].Fields["quote"])
	assert.Equal(t, records[0].ID, mapping.Get("b1"))
	assert.Equal(t, records[1].ID, mapping.Get("b2"))
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	server := cmstest.NewServer()
	model := server.MustAddItemType(&cms.ItemType{Name: "Quotes", APIKey: "quotes"})
	engine := NewEngine(server, server, false)
	mapping := Mapping{}
	instances := []extract.Instance{quoteInstance("b1", "r1", []int{0}, "", "one")}

	created, err := engine.Migrate(context.Background(), model.ID, instances, mapping)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	// Re-running with the same mapping must not duplicate anything.
	created, err = engine.Migrate(context.Background(), model.ID, instances, mapping)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Len(t, server.RecordsOf(model.ID), 1)
}

func TestMigrate_FailSoft(t *testing.T) {
	t.Parallel()

	server := cmstest.NewServer()
	model := server.MustAddItemType(&cms.ItemType{Name: "Quotes", APIKey: "quotes"})
	server.FailCreateRecord = func(fields map[string]any) error {
		if fields["quote"] == "poison" {
			return errors.New("boom")
		}
		return nil
	}
	engine := NewEngine(server, server, false)
	mapping := Mapping{}

	created, err := engine.Migrate(context.Background(), model.ID, []extract.Instance{
		quoteInstance("b1", "r1", []int{0}, "", "poison"),
		quoteInstance("b2", "r1", []int{1}, "", "fine"),
	}, mapping)
	require.NoError(t, err, "one bad record must not abort the batch")
	assert.Equal(t, 1, created)
	assert.False(t, mapping.Has("b1"))
	assert.True(t, mapping.Has("b2"))
}

func TestMigrate_PublishesWhenEnabled(t *testing.T) {
	t.Parallel()

	server := cmstest.NewServer()
	model := server.MustAddItemType(&cms.ItemType{Name: "Quotes", APIKey: "quotes"})
	engine := NewEngine(server, server, true)
	mapping := Mapping{}

	_, err := engine.Migrate(context.Background(), model.ID, []extract.Instance{
		quoteInstance("b1", "r1", []int{0}, "", "one"),
	}, mapping)
	require.NoError(t, err)
	assert.True(t, server.Published(mapping.Get("b1")))
}

func TestMigrateGrouped_MergesLocales(t *testing.T) {
	t.Parallel()

	server := cmstest.NewServer()
	server.SetLocales("en", "de", "fr")
	model := server.MustAddItemType(&cms.ItemType{Name: "Quotes", APIKey: "quotes"})
	engine := NewEngine(server, server, false)
	mapping := Mapping{}

	created, err := engine.MigrateGrouped(context.Background(), model.ID, []extract.Instance{
		quoteInstance("b-en", "r1", []int{0}, "en", "hello"),
		quoteInstance("b-de", "r1", []int{0}, "de", "hallo"),
	}, mapping)
	require.NoError(t, err)
	assert.Equal(t, 1, created, "locale variants of one position merge into one record")

	records := server.RecordsOf(model.ID)
	require.Len(t, records, 1)
	quote, ok := records[0].Fields["quote"].(map[string]any)
	require.True(t, ok, "merged fields are locale objects")
	assert.Equal(t, "hello", quote["en"])
	assert.Equal(t, "hallo", quote["de"])
	assert.Nil(t, quote["fr"], "locales without a variant default to nil")

	assert.Equal(t, records[0].ID, mapping.Get("b-en"))
	assert.Equal(t, records[0].ID, mapping.Get("b-de"), "every variant id maps to the one record")
}

func TestMigrateGrouped_SeparatePositionsStaySeparate(t *testing.T) {
	t.Parallel()

	server := cmstest.NewServer()
	server.SetLocales("en")
	model := server.MustAddItemType(&cms.ItemType{Name: "Quotes", APIKey: "quotes"})
	engine := NewEngine(server, server, false)
	mapping := Mapping{}

	created, err := engine.MigrateGrouped(context.Background(), model.ID, []extract.Instance{
		quoteInstance("b1", "r1", []int{0}, "en", "first"),
		quoteInstance("b2", "r1", []int{1}, "en", "second"),
	}, mapping)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
}

func TestMigrateGrouped_ResumesFromPartialMapping(t *testing.T) {
	t.Parallel()

	server := cmstest.NewServer()
	server.SetLocales("en", "de")
	model := server.MustAddItemType(&cms.ItemType{Name: "Quotes", APIKey: "quotes"})
	engine := NewEngine(server, server, false)

	// A prior interrupted run already created the group's record and mapped
	// one variant.
	existing := server.MustAddRecord(model.ID, map[string]any{"quote": map[string]any{"en": "hello", "de": nil}})
	mapping := Mapping{"b-en": existing.ID}

	created, err := engine.MigrateGrouped(context.Background(), model.ID, []extract.Instance{
		quoteInstance("b-en", "r1", []int{0}, "en", "hello"),
		quoteInstance("b-de", "r1", []int{0}, "de", "hallo"),
	}, mapping)
	require.NoError(t, err)
	assert.Equal(t, 0, created, "a partially mapped group must not create a duplicate")
	assert.Equal(t, existing.ID, mapping.Get("b-de"))
	assert.Len(t, server.RecordsOf(model.ID), 1)
}
