package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates a required setting (URL, credential) is absent.
	ErrNotConfigured = errors.New("not configured")

	// ErrNoSpaces indicates the wiki returned no spaces to crawl.
	ErrNoSpaces = errors.New("no spaces found")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// configured embedding dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrUnknownProfile indicates an index profile name is not registered.
	ErrUnknownProfile = errors.New("unknown index profile")

	// Index Errors.

	// ErrIndexSchemaConflict indicates an existing index is incompatible with
	// the configured provider or profile. It is fatal for the enclosing run.
	ErrIndexSchemaConflict = errors.New("index schema conflict")

	// ErrUnsupportedIndexShape indicates the existing vector index is
	// relationship-scoped. Only node-scoped indexes are supported.
	ErrUnsupportedIndexShape = errors.New("unsupported index shape")
)

// ConflictKind classifies an IndexSchemaConflictError.
type ConflictKind string

// Known conflict kinds.
const (
	// ConflictDimensionMismatch means the vector index dimension differs from the provider's.
	ConflictDimensionMismatch ConflictKind = "dimension_mismatch"

	// ConflictLabelMismatch means the keyword index is bound to another label.
	ConflictLabelMismatch ConflictKind = "label_mismatch"

	// ConflictNameMismatch means another index already covers the same label and properties.
	ConflictNameMismatch ConflictKind = "name_mismatch"
)

// IndexSchemaConflictError describes why an existing index cannot be used.
type IndexSchemaConflictError struct {
	Kind     ConflictKind
	Index    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *IndexSchemaConflictError) Error() string {
	switch e.Kind {
	case ConflictDimensionMismatch:
		return fmt.Sprintf("index schema conflict: index %q has dimension %s, provider produces %s",
			e.Index, e.Actual, e.Expected)
	case ConflictLabelMismatch:
		return fmt.Sprintf("index schema conflict: index %q is bound to label %s, expected %s",
			e.Index, e.Actual, e.Expected)
	case ConflictNameMismatch:
		return fmt.Sprintf("index schema conflict: index %q already covers the schema of %s",
			e.Actual, e.Expected)
	default:
		return fmt.Sprintf("index schema conflict: index %q (%s)", e.Index, e.Kind)
	}
}

// Unwrap allows errors.Is(err, ErrIndexSchemaConflict).
func (e *IndexSchemaConflictError) Unwrap() error {
	return ErrIndexSchemaConflict
}

// IsIndexConflict reports whether err is a fatal index error of either kind.
func IsIndexConflict(err error) bool {
	return errors.Is(err, ErrIndexSchemaConflict) || errors.Is(err, ErrUnsupportedIndexShape)
}
