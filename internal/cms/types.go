package cms

// Field type identifiers as reported by the management API.
const (
	FieldTypeRichText       = "rich_text"
	FieldTypeSingleBlock    = "single_block"
	FieldTypeStructuredText = "structured_text"
	FieldTypeString         = "string"
	FieldTypeLink           = "link"
	FieldTypeLinks          = "links"
	FieldTypeSlug           = "slug"
)

// ItemType is a schema type: either a top-level model or a block that can
// only live embedded inside other records' fields.
type ItemType struct {
	ID           string
	Name         string
	APIKey       string
	IsBlock      bool
	TitleFieldID string
}

// Field describes a single field definition on an item type.
type Field struct {
	ID           string
	ItemTypeID   string
	Label        string
	APIKey       string
	FieldType    string
	Localized    bool
	Validators   map[string]any
	Appearance   map[string]any
	Position     int
	Hint         string
	DefaultValue any
	FieldsetID   string
}

// Clone returns an independent copy of the field. Validators, Appearance
// and DefaultValue are copied deeply, so allow-list mutations on the clone
// cannot leak into the descriptor it was cloned from.
func (f *Field) Clone() *Field {
	cp := *f
	cp.Validators, _ = deepCopyValue(f.Validators).(map[string]any)
	cp.Appearance, _ = deepCopyValue(f.Appearance).(map[string]any)
	cp.DefaultValue = deepCopyValue(f.DefaultValue)
	return &cp
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
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

// Record is one content record. Fields maps field api_key to the stored
// value; localized fields store a locale->value object.
type Record struct {
	ID         string
	ItemTypeID string
	Fields     map[string]any
}

// MenuItem is a navigation entry pointing at an item type.
type MenuItem struct {
	ID         string
	Label      string
	ItemTypeID string
}
