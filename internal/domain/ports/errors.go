package ports

import "errors"

var (
	// ErrEntityNotFound indicates an entity id that no longer resolves.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrExtractionUnavailable indicates the extraction collaborator failed.
	// Callers degrade to empty suggestions; it is never fatal.
	ErrExtractionUnavailable = errors.New("mention extraction unavailable")

	// ErrInvalidConfirmation indicates a confirmation missing a field its
	// action requires.
	ErrInvalidConfirmation = errors.New("invalid confirmation")

	// ErrMergeConflict indicates a concurrent mutation of a merge
	// participant; the merge is aborted with no partial state.
	ErrMergeConflict = errors.New("merge conflict")
)
