package etymology

import (
	"errors"
	"fmt"
)

var (
	// ErrWordNotFound means a lookup by id found no word.
	ErrWordNotFound = errors.New("word not found")
	// ErrFetchFailed means the remote lexicon could not be reached or
	// answered with an error.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrMalformedReference means a relationship names a word that does
	// not resolve.
	ErrMalformedReference = errors.New("malformed relationship reference")
	// ErrNotVisible means a graph mutation named a node that is not part
	// of the visible graph.
	ErrNotVisible = errors.New("node not visible")
	// ErrInvalidRecord means a word or relationship failed validation.
	ErrInvalidRecord = errors.New("invalid record")
)

// LookupError carries the operation and word id of a failed lookup.
type LookupError struct {
	Op     string // e.g. "word", "neighborhood", "expand"
	WordID string
	Cause  error
}

func (e *LookupError) Error() string {
	if e.WordID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.WordID, e.Cause)
}

func (e *LookupError) Unwrap() error {
	return e.Cause
}

// Is reports whether the cause matches target.
func (e *LookupError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// NotFound builds the error returned when id does not resolve.
func NotFound(op, id string) error {
	return &LookupError{Op: op, WordID: id, Cause: ErrWordNotFound}
}

// FetchFailed wraps a transport or server failure for id.
func FetchFailed(op, id string, cause error) error {
	return &LookupError{Op: op, WordID: id, Cause: fmt.Errorf("%w: %w", ErrFetchFailed, cause)}
}

// IsNotFound reports whether err means the word does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWordNotFound)
}

// IsFetchFailure reports whether err is a remote failure.
func IsFetchFailure(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}
