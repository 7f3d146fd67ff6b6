package catalog

import (
	"errors"
	"fmt"
)

// StoreError represents a domain error from catalog and drive operations.
//
// These are business logic errors (folder not found, name missing, folder
// not empty) as opposed to infrastructure errors (disk failure, closed
// database), which are returned wrapped with fmt.Errorf.
//
// The HTTP API translates StoreError codes to status codes.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// ID is the entity identifier related to the error (if applicable)
	ID string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.ID != "" {
		return e.Message + ": " + e.ID
	}
	return e.Message
}

// ErrorCode represents the category of a StoreError.
type ErrorCode int

const (
	// ErrValidation indicates invalid input: empty name, oversized upload,
	// unsupported media type, unknown permission value.
	ErrValidation ErrorCode = iota

	// ErrNotFound indicates the referenced entity does not exist
	ErrNotFound

	// ErrConflict indicates the operation is illegal in the current state:
	// deleting a non-empty folder, or a stale version on a guarded update.
	ErrConflict

	// ErrDataIntegrity indicates the stored data violates an invariant,
	// such as a cycle or a dangling link in the folder parent chain.
	ErrDataIntegrity

	// ErrPermissionDenied indicates the caller lacks the required permission
	ErrPermissionDenied

	// ErrIOError indicates the backing storage failed
	ErrIOError
)

func (c ErrorCode) String() string {
	switch c {
	case ErrValidation:
		return "ValidationError"
	case ErrNotFound:
		return "NotFoundError"
	case ErrConflict:
		return "ConflictError"
	case ErrDataIntegrity:
		return "DataIntegrityError"
	case ErrPermissionDenied:
		return "PermissionDenied"
	case ErrIOError:
		return "IOError"
	default:
		return "UnknownError"
	}
}

// NewError builds a StoreError with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *StoreError {
	return &StoreError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds an ErrNotFound error for the given entity kind and id.
func NotFound(kind, id string) *StoreError {
	return &StoreError{Code: ErrNotFound, Message: kind + " not found", ID: id}
}

// CodeOf extracts the ErrorCode from err. The second result is false when
// err is not (and does not wrap) a *StoreError.
func CodeOf(err error) (ErrorCode, bool) {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code, true
	}
	return 0, false
}

// IsCode reports whether err is a *StoreError with the given code.
func IsCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

func IsNotFound(err error) bool {
	return IsCode(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return IsCode(err, ErrConflict)
}

func IsValidation(err error) bool {
	return IsCode(err, ErrValidation)
}
