package utils

import (
	"errors"
	"net/http"
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "ValidationError"
	KindInvalidID    ErrorKind = "InvalidId"
	KindMissing      ErrorKind = "MissingAsset"
	KindUpload       ErrorKind = "UploadError"
	KindNotFound     ErrorKind = "NotFound"
	KindUnauthorized ErrorKind = "Unauthorized"
	KindPersistence  ErrorKind = "PersistenceError"
	KindInternal     ErrorKind = "Internal"
)

// APIError is a failure that maps onto an HTTP status and a caller-facing
// message. Err holds the underlying cause for logs only.
type APIError struct {
	StatusCode int
	Kind       ErrorKind
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches any *APIError of the same kind, so callers can write
// errors.Is(err, utils.ErrNotFound).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation   = &APIError{Kind: KindValidation}
	ErrInvalidID    = &APIError{Kind: KindInvalidID}
	ErrMissingAsset = &APIError{Kind: KindMissing}
	ErrUpload       = &APIError{Kind: KindUpload}
	ErrNotFound     = &APIError{Kind: KindNotFound}
	ErrUnauthorized = &APIError{Kind: KindUnauthorized}
	ErrPersistence  = &APIError{Kind: KindPersistence}
	ErrInternal     = &APIError{Kind: KindInternal}
)

func Validation(msg string) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, Kind: KindValidation, Message: msg}
}

func InvalidID(msg string) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, Kind: KindInvalidID, Message: msg}
}

func MissingAsset(msg string) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, Kind: KindMissing, Message: msg}
}

func Upload(msg string, err error) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, Kind: KindUpload, Message: msg, Err: err}
}

func NotFound(msg string) *APIError {
	return &APIError{StatusCode: http.StatusNotFound, Kind: KindNotFound, Message: msg}
}

func Unauthorized(msg string) *APIError {
	return &APIError{StatusCode: http.StatusUnauthorized, Kind: KindUnauthorized, Message: msg}
}

func Persistence(msg string, err error) *APIError {
	return &APIError{StatusCode: http.StatusInternalServerError, Kind: KindPersistence, Message: msg, Err: err}
}

func Internal(msg string, err error) *APIError {
	return &APIError{StatusCode: http.StatusInternalServerError, Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}
