package cms

import (
	"errors"
	"fmt"
)

// ErrNoUsage signals that the target block is not referenced by any field.
// The orchestrator turns it into a defined failure result, not a crash.
var ErrNoUsage = errors.New("target block is not used by any field")

// SchemaResolutionError wraps a failure while enumerating the schema graph.
// It always aborts analysis.
type SchemaResolutionError struct {
	Op  string
	Err error
}

func (e *SchemaResolutionError) Error() string {
	return fmt.Sprintf("schema resolution failed during %s: %v", e.Op, e.Err)
}

func (e *SchemaResolutionError) Unwrap() error { return e.Err }

// RecordMutationError wraps a single record create/update/publish failure.
// During bulk data migration it is logged and the batch continues; during
// structural steps it propagates and aborts.
type RecordMutationError struct {
	RecordID string
	Op       string
	Err      error
}

func (e *RecordMutationError) Error() string {
	return fmt.Sprintf("record %s: %s failed: %v", e.RecordID, e.Op, e.Err)
}

func (e *RecordMutationError) Unwrap() error { return e.Err }

// IdentifierCollisionError is raised when no collision-free name/api_key
// could be generated for the new model.
type IdentifierCollisionError struct {
	Base     string
	Attempts int
}

func (e *IdentifierCollisionError) Error() string {
	return fmt.Sprintf("no unique identifier found for %q after %d attempts", e.Base, e.Attempts)
}

// PartialRenameWarning reports a model rename that only partially succeeded.
// It is attached to an otherwise successful result, never fatal.
type PartialRenameWarning struct {
	ModelID string
	Detail  string
	Err     error
}

func (e *PartialRenameWarning) Error() string {
	return fmt.Sprintf("model %s renamed partially: %s", e.ModelID, e.Detail)
}

func (e *PartialRenameWarning) Unwrap() error { return e.Err }
