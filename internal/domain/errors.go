package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrItemNotFound signals a missing lost-item record.
	ErrItemNotFound = errors.New("item not found")
	// ErrValidation signals a malformed request or record.
	ErrValidation = errors.New("validation failed")
	// ErrNoKeywords signals an empty keyword vocabulary.
	ErrNoKeywords = errors.New("no keywords available")
	// ErrOracleUnavailable signals a classification oracle failure.
	ErrOracleUnavailable = errors.New("classification oracle unavailable")
	// ErrOracleBadResponse signals an oracle response that could not be parsed
	// into the expected structure.
	ErrOracleBadResponse = errors.New("malformed oracle response")
	// ErrImageStoreUnavailable signals an object storage failure.
	ErrImageStoreUnavailable = errors.New("image store unavailable")
)

// PartialDeleteError reports a bulk delete that removed some records but not all.
type PartialDeleteError struct {
	Deleted int
	Failed  int
	Err     error
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("bulk delete incomplete: %d deleted, %d failed: %v", e.Deleted, e.Failed, e.Err)
}

func (e *PartialDeleteError) Unwrap() error { return e.Err }

// NewPartialDelete creates a partial bulk-delete error.
func NewPartialDelete(deleted, failed int, err error) error {
	return &PartialDeleteError{Deleted: deleted, Failed: failed, Err: err}
}
