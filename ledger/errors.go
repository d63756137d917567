/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error kinds in one place so callers (services, HTTP layer) classify
  failures the same way. The taxonomy is small and deliberate:

    ValidationError  malformed input, never retried       -> 400
    NotFound         unknown month/instance/occurrence    -> 404
    Conflict         e.g. generating an existing month    -> 409
    ReadOnly         mutation against a locked month      -> 423
    Storage          I/O failure, logged with detail      -> 500

PROPAGATION POLICY:
  The engine never retries. File I/O failures are terminal for the
  request and surface synchronously to the caller.

SEE ALSO:
  - api/handlers.go: maps these kinds to HTTP status codes
  - store/jsonfile: wraps I/O failures in StorageError
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMonthNotFound is returned when the requested month has never
	// been generated. Reads never auto-create.
	ErrMonthNotFound = errors.New("month not found")

	// ErrMonthExists is returned by month generation when the ledger
	// already exists. Regeneration would destroy occurrence state; the
	// caller must sync instead.
	ErrMonthExists = errors.New("month already exists")

	// ErrMonthReadOnly is returned when a mutation targets a locked
	// month. The lock is a hard gate, not advisory.
	ErrMonthReadOnly = errors.New("month is read-only")

	// ErrInstanceNotFound is returned for an unknown instance id.
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrOccurrenceNotFound is returned for an unknown occurrence id.
	ErrOccurrenceNotFound = errors.New("occurrence not found")

	// ErrTemplateNotFound is returned for an unknown template id.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrSourceNotFound is returned for an unknown payment source id.
	ErrSourceNotFound = errors.New("payment source not found")

	// ErrCategoryNotFound is returned for an unknown category id.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrNothingToUndo is returned when the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrUndoConflict is returned when storage has moved past the entry
	// being undone. Undo restores verbatim or not at all.
	ErrUndoConflict = errors.New("undo conflict: state changed since")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports malformed input with field-level detail.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validationf builds a field-scoped validation error.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps an I/O failure. The underlying cause is kept for
// internal logging; user-facing layers show a generic message.
type StorageError struct {
	Op  string // "read", "write", "delete"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsNotFound reports whether err identifies a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMonthNotFound) ||
		errors.Is(err, ErrInstanceNotFound) ||
		errors.Is(err, ErrOccurrenceNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrSourceNotFound) ||
		errors.Is(err, ErrCategoryNotFound)
}

// IsConflict reports whether err is a state conflict the caller can
// resolve (regenerate vs sync, undo raced with a newer write, nothing
// left to undo).
func IsConflict(err error) bool {
	return errors.Is(err, ErrMonthExists) ||
		errors.Is(err, ErrUndoConflict) ||
		errors.Is(err, ErrNothingToUndo)
}

// IsReadOnly reports whether err is the month lock gate. Kept distinct
// from Conflict so the UI can offer "unlock" as the remedy.
func IsReadOnly(err error) bool {
	return errors.Is(err, ErrMonthReadOnly)
}

// IsValidation reports whether err is malformed input.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage reports whether err is an I/O failure.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsClientError reports whether the failure is the caller's fault
// (as opposed to storage trouble).
func IsClientError(err error) bool {
	return IsValidation(err) || IsNotFound(err) || IsConflict(err) || IsReadOnly(err)
}
