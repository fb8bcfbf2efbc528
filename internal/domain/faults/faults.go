package faults

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable classification carried by every error
// this service hands to a caller.
type Kind string

const (
	InvalidConfiguration Kind = "INVALID_CONFIGURATION"
	InvalidParameter     Kind = "INVALID_PARAMETER"
	InputTooLarge        Kind = "INPUT_TOO_LARGE"
	UnsupportedMediaType Kind = "UNSUPPORTED_MEDIA_TYPE"
	FileTooLarge         Kind = "FILE_TOO_LARGE"
	DuplicateDocument    Kind = "DUPLICATE_DOCUMENT"
	EmbeddingProvider    Kind = "EMBEDDING_PROVIDER_ERROR"
	DimensionMismatch    Kind = "DIMENSION_MISMATCH"
	StoreWrite           Kind = "STORE_WRITE_FAILURE"
	IngestionFailed      Kind = "INGESTION_FAILED"
	IngestionTimeout     Kind = "INGESTION_TIMEOUT"
	Internal             Kind = "INTERNAL"
)

type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Transient marks a provider error that is safe to retry.
func Transient(message string, err error) *Error {
	return &Error{Kind: EmbeddingProvider, Message: message, Retryable: true, Err: err}
}

// KindOf reports the classification of err, or Internal for errors
// that did not originate here.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Internal
}

func IsKind(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

func IsRetryable(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}
