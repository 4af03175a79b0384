package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownStrategy indicates a validation strategy outside the closed set.
	// Extractor dispatch is total over the four strategies; anything else is a
	// checklist defect, never a silent fallthrough to presence behavior.
	ErrUnknownStrategy = errors.New("unknown validation strategy")

	// ErrUnknownField indicates a field name outside the canonical vocabulary.
	// This is a hard internal error: it means the completion prompt or an
	// extractor has drifted, and coercing would poison downstream comparison.
	ErrUnknownField = errors.New("field name not in canonical vocabulary")

	// ErrSessionNotFound indicates the review session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoDocuments indicates the session has no documents to review
	ErrNoDocuments = errors.New("no documents in session")

	// ErrServiceUnavailable indicates the completion service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrExtractionInProgress indicates an extraction run is already active
	// for the session
	ErrExtractionInProgress = errors.New("extraction already in progress")
)
