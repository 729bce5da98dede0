// Package apierror provides standardized error values for the API.
// Every error that crosses a service boundary carries a stable Kind so that
// handlers (and the localization layer in front of them) can map it to a
// user-facing message without parsing strings. Internal storage errors are
// wrapped, never returned to clients verbatim.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a language-neutral error category.
type Kind string

const (
	KindInvalidAmount        Kind = "invalid_amount"
	KindSessionAlreadyOpen   Kind = "session_already_open"
	KindNoOpenSession        Kind = "no_open_session"
	KindSessionNotOpen       Kind = "session_not_open"
	KindInsufficientStock    Kind = "insufficient_stock"
	KindInvalidPaymentMethod Kind = "invalid_payment_method"
	KindInvalidLineItem      Kind = "invalid_line_item"
	KindProductNotFound      Kind = "product_not_found"
	KindImmutableRecord      Kind = "immutable_record"
	KindConcurrencyConflict  Kind = "concurrency_conflict"
	KindPermissionDenied     Kind = "permission_denied"
	KindNotFound             Kind = "not_found"
	KindStoreUnavailable     Kind = "store_unavailable"
	KindInvalidInput         Kind = "invalid_input"
)

// Error is the canonical domain error. Fields holds structured context
// (e.g. which line item failed) so callers can render a precise message.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two Errors by Kind, enabling errors.Is against sentinel values.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// E builds a new domain error.
func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Ef builds a new domain error with a formatted message.
func Ef(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithField attaches one structured context entry.
func (e *Error) WithField(key, value string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]string, 1)
	}
	e.Fields[key] = value
	return e
}

// Wrap classifies an underlying infrastructure error under the given kind.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Store wraps an unexpected persistence failure. The original error is kept
// for logging but never serialized to clients.
func Store(err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: "storage operation failed", Err: err}
}

// KindOf extracts the Kind from any error chain. Unclassified errors report
// KindStoreUnavailable so that nothing internal leaks as a client message.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreUnavailable
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// HTTPStatus maps an error kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindNotFound, KindProductNotFound:
		return http.StatusNotFound
	case KindConcurrencyConflict, KindSessionAlreadyOpen:
		return http.StatusConflict
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case KindInvalidInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// ── HTTP envelopes ───────────────────────────────────────────────────────────

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Code   string            `json:"code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Code: string(KindInvalidInput), Detail: msg}
}

// FromError converts any error into a safe client envelope.
func FromError(err error) *APIError {
	var e *Error
	if errors.As(err, &e) {
		detail := e.Message
		if e.Kind == KindStoreUnavailable {
			detail = "storage temporarily unavailable"
		}
		return &APIError{Code: string(e.Kind), Detail: detail, Fields: e.Fields}
	}
	return &APIError{Code: string(KindStoreUnavailable), Detail: "internal error"}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Code   string            `json:"code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Code: string(KindInvalidInput), Detail: "validation failed", Fields: fields}
}
