package domain

import (
	"context"
	"errors"
	"net/http"
)

// ErrorKind classifies why an acquisition did not produce a file
type ErrorKind string

const (
	ErrorKindValidation   ErrorKind = "validation"
	ErrorKindExtraction   ErrorKind = "extraction"   // classified backend failure
	ErrorKindUnclassified ErrorKind = "unclassified" // backend failed for an unknown reason
	ErrorKindUnavailable  ErrorKind = "unavailable"
	ErrorKindAccessDenied ErrorKind = "access_denied"
	ErrorKindSizeLimit    ErrorKind = "size_limit"
	ErrorKindTimeout      ErrorKind = "timeout"
	ErrorKindStorage      ErrorKind = "storage"
)

// HTTPStatus maps an error kind to the status code returned to clients
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ErrorKindValidation, ErrorKindExtraction:
		return http.StatusBadRequest
	case ErrorKindAccessDenied:
		return http.StatusForbidden
	case ErrorKindUnavailable:
		return http.StatusNotFound
	case ErrorKindSizeLimit:
		return http.StatusRequestEntityTooLarge
	case ErrorKindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// FetchError is the structured failure returned by every stage of an acquisition.
// Message is safe to show to clients; Err carries the underlying cause.
type FetchError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a FetchError of the given kind
func NewFetchError(kind ErrorKind, message string, err error) *FetchError {
	return &FetchError{Kind: kind, Message: message, Err: err}
}

// NewValidationError creates an error for malformed client input
func NewValidationError(message string) *FetchError {
	return &FetchError{Kind: ErrorKindValidation, Message: message}
}

// NewStorageError wraps a filesystem failure
func NewStorageError(message string, err error) *FetchError {
	return &FetchError{Kind: ErrorKindStorage, Message: message, Err: err}
}

// NewSizeLimitError reports that an artifact exceeded its ceiling
func NewSizeLimitError(message string) *FetchError {
	return &FetchError{Kind: ErrorKindSizeLimit, Message: message}
}

// NewTimeoutError reports that a subprocess or HTTP call ran past its bound
func NewTimeoutError(err error) *FetchError {
	return &FetchError{Kind: ErrorKindTimeout, Message: "Download timed out, please try again", Err: err}
}

// KindOf resolves the kind of any error. Bare deadline errors count as timeouts.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	return ErrorKindUnclassified
}

// HTTPStatus returns the client-facing status for err
func HTTPStatus(err error) int {
	return KindOf(err).HTTPStatus()
}

// PublicMessage returns the message that may be shown to a client for err
func PublicMessage(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Download timed out, please try again"
	}
	return "Download failed"
}
