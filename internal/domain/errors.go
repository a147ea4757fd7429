package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a request the caller must correct.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorage signals an unreachable or failing catalog backend.
	ErrStorage = errors.New("storage unavailable")
	// ErrIndexBusy signals that an index mutation is already in flight.
	ErrIndexBusy = errors.New("index operation in progress")
	// ErrNotInitialized signals retrieval before the first successful index build.
	ErrNotInitialized = errors.New("vector index not initialized")
	// ErrProviderUnavailable signals a transient embedding/LLM provider failure.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrMalformedOutput signals model output that cannot be parsed into the structured form.
	ErrMalformedOutput = errors.New("malformed model output")
	// ErrDocumentUnreadable signals a document whose text cannot be extracted.
	ErrDocumentUnreadable = errors.New("document unreadable")

	// ErrRevisionConflict signals an optimistic locking conflict on the status row.
	ErrRevisionConflict = errors.New("revision conflict")
)

// RevisionConflictError wraps ErrRevisionConflict with the current row revision.
type RevisionConflictError struct {
	CurrentRevision int64
}

func (e *RevisionConflictError) Error() string {
	return fmt.Sprintf("%s: current revision is %d", ErrRevisionConflict.Error(), e.CurrentRevision)
}

func (e *RevisionConflictError) Unwrap() error { return ErrRevisionConflict }

// NewRevisionConflict creates a revision conflict error.
func NewRevisionConflict(currentRevision int64) error {
	return &RevisionConflictError{CurrentRevision: currentRevision}
}

// IsTransient reports whether err is a provider failure worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
