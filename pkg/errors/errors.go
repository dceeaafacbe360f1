package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error independently of its code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindQuery
	KindUnavailable
)

// Stable error codes shared by several endpoints.
const (
	CodeInternal         = "INTERNAL_ERROR"
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "INSUFFICIENT_PERMISSIONS"
	CodeQueryFailed      = "DATABASE_QUERY_FAILED"
	CodeConnectionFailed = "DATABASE_CONNECTION_FAILED"
	CodeDuplicateKey     = "DUPLICATE_KEY"
	CodeInvalidID        = "INVALID_ID"
	CodeInvalidDateRange = "INVALID_DATE_RANGE"
	CodeMissingDateRange = "MISSING_DATE_RANGE"
	CodeInvalidPeriod    = "INVALID_PERIOD"
	CodeInvalidSort      = "INVALID_SORT"
	CodeMissingFields    = "MISSING_REQUIRED_FIELDS"
)

// AppError represents an application error
type AppError struct {
	Kind    Kind   `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Detail returns the underlying cause, or "" when there is none.
func (e *AppError) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// StatusCode maps the error kind to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, code, message string, err error) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, Err: err}
}

func Validation(code, message string, err error) *AppError {
	if code == "" {
		code = CodeValidation
	}
	return newError(KindValidation, code, message, err)
}

// InvalidDateRange reports a malformed or inverted date filter.
func InvalidDateRange(err error) *AppError {
	return newError(KindValidation, CodeInvalidDateRange, err.Error(), err)
}

func NotFound(code, resource string) *AppError {
	if code == "" {
		code = CodeNotFound
	}
	return newError(KindNotFound, code, fmt.Sprintf("%s not found", resource), nil)
}

func Conflict(code, message string) *AppError {
	return newError(KindConflict, code, message, nil)
}

// Duplicate reports a write rejected by a unique key of collection.
func Duplicate(collection string, err error) *AppError {
	return newError(KindConflict, CodeDuplicateKey, fmt.Sprintf("record already exists in %s", collection), err)
}

// Query reports a failed store query or aggregation.
func Query(code, message string, err error) *AppError {
	if code == "" {
		code = CodeQueryFailed
	}
	return newError(KindQuery, code, message, err)
}

// Unavailable reports that the store could not be reached at all.
func Unavailable(err error) *AppError {
	return newError(KindUnavailable, CodeConnectionFailed, "database connection failed", err)
}

func Unauthorized(message string, err error) *AppError {
	return newError(KindUnauthorized, CodeUnauthorized, message, err)
}

func Forbidden(message string) *AppError {
	return newError(KindForbidden, CodeForbidden, message, nil)
}

func Internal(err error) *AppError {
	return newError(KindInternal, CodeInternal, "internal server error", err)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// WithCode relabels a store failure with an endpoint specific code. Errors
// that already carry a client-facing kind are returned unchanged, and
// connection failures keep their stable code.
func WithCode(err error, code, message string) error {
	if err == nil {
		return nil
	}
	appErr, ok := As(err)
	if !ok {
		return Query(code, message, err)
	}
	switch appErr.Kind {
	case KindQuery, KindInternal:
		return Query(code, message, appErr.Err)
	default:
		return err
	}
}
