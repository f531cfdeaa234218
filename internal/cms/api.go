package cms

import "context"

// SchemaAPI exposes item type and field CRUD plus the "fields referencing a
// given type" query the graph resolver is built on.
type SchemaAPI interface {
	ItemType(ctx context.Context, id string) (*ItemType, error)
	ItemTypes(ctx context.Context) ([]*ItemType, error)
	CreateItemType(ctx context.Context, it *ItemType) (*ItemType, error)
	UpdateItemType(ctx context.Context, it *ItemType) (*ItemType, error)
	DeleteItemType(ctx context.Context, id string) error

	Fields(ctx context.Context, itemTypeID string) ([]*Field, error)
	// FieldsReferencing returns every field whose block-allowed-types
	// validators admit the given item type.
	FieldsReferencing(ctx context.Context, itemTypeID string) ([]*Field, error)
	CreateField(ctx context.Context, itemTypeID string, f *Field) (*Field, error)
	UpdateField(ctx context.Context, f *Field) (*Field, error)
	DeleteField(ctx context.Context, id string) error
}

// ContentAPI exposes paginated record iteration (with nested block
// expansion) and record mutation.
type ContentAPI interface {
	// Records returns one page of records for the item type, plus the
	// total number of records. Iteration is sequential and order-preserving.
	Records(ctx context.Context, itemTypeID string, offset, limit int) ([]*Record, int, error)
	CreateRecord(ctx context.Context, itemTypeID string, fields map[string]any) (*Record, error)
	UpdateRecord(ctx context.Context, id string, fields map[string]any) (*Record, error)
	PublishRecord(ctx context.Context, id string) error
}

// SiteAPI exposes project-level lookups: locales and navigation entries.
type SiteAPI interface {
	Locales(ctx context.Context) ([]string, error)
	MenuItems(ctx context.Context) ([]*MenuItem, error)
	UpdateMenuItem(ctx context.Context, m *MenuItem) error
}

// API is the full surface the conversion engine is wired against.
type API interface {
	SchemaAPI
	ContentAPI
	SiteAPI
}
