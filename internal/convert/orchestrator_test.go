package convert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/blocklift/internal/cms"
	"github.com/vk/blocklift/internal/cms/cmstest"
)

// fullConversionFixture models a site where articles embed quote blocks in a
// rich text field, ready for an end-to-end conversion run.
func fullConversionFixture(t *testing.T) (*cmstest.Server, *cms.ItemType, *cms.ItemType) {
	t.Helper()
	server := cmstest.NewServer()
	article := server.MustAddItemType(&cms.ItemType{Name: "Article", APIKey: "article"})
	quote := server.MustAddItemType(&cms.ItemType{Name: "Quote Block", APIKey: "quote_block", IsBlock: true})
	server.MustAddField(quote.ID, &cms.Field{
		Label: "Quote", APIKey: "quote", FieldType: cms.FieldTypeString, Position: 1,
	})
	server.MustAddField(article.ID, &cms.Field{
		Label:     "Content",
		APIKey:    "content",
		FieldType: cms.FieldTypeRichText,
		Position:  1,
		Validators: map[string]any{
			"rich_text_blocks": map[string]any{"item_types": []any{quote.ID}},
		},
	})
	return server, article, quote
}

func embeddedQuote(id, typeID, text string) map[string]any {
	return map[string]any{"id": id, "item_type": typeID, "quote": text}
}

func TestRun_FullReplaceEndToEnd(t *testing.T) {
	t.Parallel()

	server, article, quote := fullConversionFixture(t)
	rec1 := server.MustAddRecord(article.ID, map[string]any{
		"content": []any{
			embeddedQuote("b1", quote.ID, "first"),
			embeddedQuote("b2", quote.ID, "second"),
		},
	})
	rec2 := server.MustAddRecord(article.ID, map[string]any{
		"content": []any{embeddedQuote("b3", quote.ID, "third")},
	})

	var steps []string
	result := New(server).Run(context.Background(), Options{
		BlockID:      quote.ID,
		FullyReplace: true,
		Progress: func(step, total int, description string, percent float64) {
			steps = append(steps, description)
			assert.LessOrEqual(t, step, total)
			assert.LessOrEqual(t, percent, 100.0)
		},
	})

	require.True(t, result.Success, "run failed: %s", result.Error)
	assert.Equal(t, 3, result.MigratedRecords)
	assert.Equal(t, 1, result.ConvertedFields)
	assert.Equal(t, "Quote Block", result.OriginalName)
	assert.Equal(t, "quote_block", result.OriginalAPIKey)
	assert.Empty(t, result.Warning)
	assert.NotEmpty(t, steps, "progress must be reported")

	// The block type is gone; the new model reclaimed the pluralized key
	// because the exact one was still held by the block at rename time.
	assert.Nil(t, server.ItemTypeByAPIKey("quote_block"))
	model := server.ItemTypeByAPIKey("quote_blocks")
	require.NotNil(t, model)
	assert.Equal(t, model.ID, result.NewModelID)
	assert.Equal(t, "quote_blocks", result.NewModelAPIKey)
	assert.Equal(t, "Quote Block", model.Name)
	assert.False(t, model.IsBlock)

	// One record per block instance, field values intact.
	migrated := server.RecordsOf(model.ID)
	require.Len(t, migrated, 3)
	quotes := make([]string, 0, 3)
	for _, r := range migrated {
		quotes = append(quotes, r.Fields["quote"].(string))
	}
	assert.ElementsMatch(t, []string{"first", "second", "third"}, quotes)

	// The embedding field became a links field holding the new record ids.
	field := server.FieldByAPIKey(article.ID, "content")
	require.NotNil(t, field)
	assert.Equal(t, cms.FieldTypeLinks, field.FieldType)
	assert.Equal(t, []string{model.ID}, field.AllowedLinkIDs())

	stored1 := server.Record(rec1.ID)
	links1, ok := stored1.Fields["content"].([]any)
	require.True(t, ok)
	assert.Len(t, links1, 2)
	stored2 := server.Record(rec2.ID)
	assert.Len(t, stored2.Fields["content"], 1)
}

func TestRun_FullReplaceSharedTerminalField(t *testing.T) {
	t.Parallel()

	// Diamond topology: page and post both allow the wrapper block, whose
	// quote_slot field embeds the quote block. Both roots resolve to the
	// same terminal field, so the run must migrate data for each root but
	// replace the field structurally only once.
	server := cmstest.NewServer()
	page := server.MustAddItemType(&cms.ItemType{Name: "Page", APIKey: "page"})
	post := server.MustAddItemType(&cms.ItemType{Name: "Post", APIKey: "post"})
	wrapper := server.MustAddItemType(&cms.ItemType{Name: "Wrapper Block", APIKey: "wrapper_block", IsBlock: true})
	quote := server.MustAddItemType(&cms.ItemType{Name: "Quote Block", APIKey: "quote_block", IsBlock: true})
	server.MustAddField(quote.ID, &cms.Field{
		Label: "Quote", APIKey: "quote", FieldType: cms.FieldTypeString, Position: 1,
	})
	for _, root := range []*cms.ItemType{page, post} {
		server.MustAddField(root.ID, &cms.Field{
			Label:     "Body",
			APIKey:    "body",
			FieldType: cms.FieldTypeRichText,
			Position:  1,
			Validators: map[string]any{
				"rich_text_blocks": map[string]any{"item_types": []any{wrapper.ID}},
			},
		})
	}
	server.MustAddField(wrapper.ID, &cms.Field{
		Label:     "Quote Slot",
		APIKey:    "quote_slot",
		FieldType: cms.FieldTypeRichText,
		Position:  1,
		Validators: map[string]any{
			"rich_text_blocks": map[string]any{"item_types": []any{quote.ID}},
		},
	})
	pageRec := server.MustAddRecord(page.ID, map[string]any{
		"body": []any{map[string]any{
			"id": "w1", "item_type": wrapper.ID,
			"quote_slot": []any{embeddedQuote("q1", quote.ID, "from page")},
		}},
	})
	postRec := server.MustAddRecord(post.ID, map[string]any{
		"body": []any{map[string]any{
			"id": "w2", "item_type": wrapper.ID,
			"quote_slot": []any{embeddedQuote("q2", quote.ID, "from post")},
		}},
	})

	result := New(server).Run(context.Background(), Options{BlockID: quote.ID, FullyReplace: true})

	require.True(t, result.Success, "run failed: %s", result.Error)
	assert.Equal(t, 2, result.MigratedRecords)
	assert.Equal(t, 1, result.ConvertedFields, "a field shared by two roots counts once")

	model := server.ItemTypeByAPIKey("quote_blocks")
	require.NotNil(t, model)
	require.Len(t, server.RecordsOf(model.ID), 2)

	// The shared field was replaced exactly once; no temp field lingers.
	slot := server.FieldByAPIKey(wrapper.ID, "quote_slot")
	require.NotNil(t, slot)
	assert.Equal(t, cms.FieldTypeLinks, slot.FieldType)
	assert.Nil(t, server.FieldByAPIKey(wrapper.ID, "quote_slot_temp_links"))

	// Each root's wrapper instance references its own migrated record.
	byQuote := make(map[string]string, 2)
	for _, r := range server.RecordsOf(model.ID) {
		byQuote[r.Fields["quote"].(string)] = r.ID
	}
	w1 := server.Record(pageRec.ID).Fields["body"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{byQuote["from page"]}, w1["quote_slot"])
	w2 := server.Record(postRec.ID).Fields["body"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{byQuote["from post"]}, w2["quote_slot"])
}

func TestRun_NonDestructive(t *testing.T) {
	t.Parallel()

	server, article, quote := fullConversionFixture(t)
	rec := server.MustAddRecord(article.ID, map[string]any{
		"content": []any{embeddedQuote("b1", quote.ID, "kept")},
	})

	result := New(server).Run(context.Background(), Options{BlockID: quote.ID})

	require.True(t, result.Success, "run failed: %s", result.Error)

	// The block type and the original data survive.
	require.NotNil(t, server.ItemTypeByAPIKey("quote_block"))
	stored := server.Record(rec.ID)
	assert.Len(t, stored.Fields["content"], 1)

	// The sibling links field carries the migrated record.
	model := server.ItemTypeByAPIKey("quote_blocks")
	require.NotNil(t, model)
	assert.Equal(t, "Quote Blocks", model.Name, "non-destructive mode keeps the generated identity")
	migrated := server.RecordsOf(model.ID)
	require.Len(t, migrated, 1)
	assert.Equal(t, []any{migrated[0].ID}, stored.Fields["content_links"])
}

func TestRun_UnusedBlock(t *testing.T) {
	t.Parallel()

	server := cmstest.NewServer()
	quote := server.MustAddItemType(&cms.ItemType{Name: "Quote Block", APIKey: "quote_block", IsBlock: true})

	result := New(server).Run(context.Background(), Options{BlockID: quote.ID, FullyReplace: true})

	assert.False(t, result.Success)
	assert.Equal(t, cms.ErrNoUsage.Error(), result.Error)
	require.NotNil(t, server.ItemTypeByAPIKey("quote_block"), "an unused block is left alone")
	assert.Nil(t, server.ItemTypeByAPIKey("quote_blocks"), "no model is created for an unused block")
}

func TestRun_NotABlock(t *testing.T) {
	t.Parallel()

	server := cmstest.NewServer()
	model := server.MustAddItemType(&cms.ItemType{Name: "Article", APIKey: "article"})

	result := New(server).Run(context.Background(), Options{BlockID: model.ID})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "already a top-level model")
}

func TestRun_PublishAfterChanges(t *testing.T) {
	t.Parallel()

	server, article, quote := fullConversionFixture(t)
	rec := server.MustAddRecord(article.ID, map[string]any{
		"content": []any{embeddedQuote("b1", quote.ID, "pub")},
	})

	result := New(server).Run(context.Background(), Options{
		BlockID:             quote.ID,
		FullyReplace:        true,
		PublishAfterChanges: true,
	})
	require.True(t, result.Success, "run failed: %s", result.Error)

	model := server.ItemTypeByAPIKey("quote_blocks")
	require.NotNil(t, model)
	for _, r := range server.RecordsOf(model.ID) {
		assert.True(t, server.Published(r.ID), "migrated records are published")
	}
	assert.True(t, server.Published(rec.ID), "rewritten records are published")
}

func TestRun_Rerunnable(t *testing.T) {
	t.Parallel()

	// Re-invoking a non-destructive conversion must complete cleanly; each
	// run works against its own model and mapping.
	server, article, quote := fullConversionFixture(t)
	server.MustAddRecord(article.ID, map[string]any{
		"content": []any{embeddedQuote("b1", quote.ID, "once")},
	})

	first := New(server).Run(context.Background(), Options{BlockID: quote.ID})
	require.True(t, first.Success, "first run failed: %s", first.Error)

	second := New(server).Run(context.Background(), Options{BlockID: quote.ID})
	require.True(t, second.Success, "second run failed: %s", second.Error)

	assert.NotEqual(t, first.NewModelID, second.NewModelID,
		"each run creates its own model; instance mapping is per run")
}
