// Package convert sequences a whole block-to-model conversion: schema graph
// resolution, instance extraction, record migration, field conversion and
// model lifecycle, with progress reporting and a discriminated result.
package convert

// Progress is the observational progress sink: invoked between stages and
// iterations, it has no control-flow effect. A nil sink is a no-op.
type Progress func(step, total int, description string, percent float64)

// Options configure one conversion run.
type Options struct {
	// BlockID is the item type id of the block to convert.
	BlockID string
	// FullyReplace removes the original block-embedding fields and the
	// block type itself; otherwise the conversion is non-destructive.
	FullyReplace bool
	// PublishAfterChanges publishes every created and rewritten record.
	PublishAfterChanges bool
	// Progress receives step updates. Optional.
	Progress Progress
}

// Result is the discriminated outcome of a run. The orchestrator never lets
// an error escape as a panic or a bare error: callers inspect Success and
// Error, and may safely re-invoke the whole conversion.
type Result struct {
	Success         bool
	NewModelID      string
	NewModelAPIKey  string
	MigratedRecords int
	ConvertedFields int
	OriginalName    string
	OriginalAPIKey  string
	Warning         string
	Error           string
}
