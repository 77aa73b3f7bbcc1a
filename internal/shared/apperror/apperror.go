package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies every error the core can return. No raw storage error
// crosses the service boundary: repositories wrap driver failures as
// KindStorage, everything else is a business error.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidState      Kind = "INVALID_STATE"
	KindInvalidQuantity   Kind = "INVALID_QUANTITY"
	KindPermissionDenied  Kind = "PERMISSION_DENIED"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindConflict          Kind = "CONFLICT"
	KindStorage           Kind = "STORAGE_FAILURE"
)

// Error is the single error type returned by core services.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

func InvalidState(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

func InvalidQuantity(message string) *Error {
	return &Error{Kind: KindInvalidQuantity, Message: message}
}

func PermissionDenied(message string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: message}
}

func InsufficientStock(message string) *Error {
	return &Error{Kind: KindInsufficientStock, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Storage wraps a storage-layer failure so the driver error stays
// available for logging but never leaks its kind to callers.
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Message: "storage failure during " + op, Err: err}
}

// KindOf extracts the kind from err, or KindStorage when err is not an
// *Error (unknown errors are treated as storage failures).
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorage
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to the transport status code used by
// the HTTP handlers.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindConflict, KindInsufficientStock:
		return http.StatusConflict
	case KindInvalidQuantity:
		return http.StatusUnprocessableEntity
	case KindPermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
