package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies an error into one of the HTTP-mappable categories the
// gateway responds with. The set is closed: every handled error is one of
// these, and Serialize switches exhaustively on it.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindServiceUnavailable
	KindInternal
)

// HTTPStatus maps a kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServiceUnavailable:
		return "service_unavailable"
	default:
		return "internal"
	}
}

// Error is a tagged error variant: a kind, a caller-facing message and an
// optional field naming which part of the input was at fault.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	wrapped error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

// WithField returns a copy of the error annotated with the offending field.
func (e *Error) WithField(field string) *Error {
	clone := *e
	clone.Field = field
	return &clone
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying cause while keeping the outward message.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, wrapped: cause}
}

func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "not authorized"
	}
	return New(KindUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

func NotFound(message string) *Error {
	if message == "" {
		message = "not found"
	}
	return New(KindNotFound, message)
}

func ServiceUnavailable(message string) *Error {
	return New(KindServiceUnavailable, message)
}

func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", wrapped: cause}
}

// KindOf extracts the kind from an error chain, defaulting to KindInternal
// for anything that is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Item is a single serialized error entry.
type Item struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Response is the wire envelope every handled error renders to.
type Response struct {
	Errors    []Item `json:"errors"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

// Serialize converts any error into an HTTP status plus response envelope.
// Non-tagged errors never leak detail to the caller.
func Serialize(err error, requestID string) (int, Response) {
	resp := Response{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		resp.Errors = []Item{{Message: appErr.Message, Field: appErr.Field}}
		return appErr.Kind.HTTPStatus(), resp
	}

	resp.Errors = []Item{{Message: "internal server error"}}
	return http.StatusInternalServerError, resp
}
