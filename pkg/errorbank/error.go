package errorbank

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// AppError is an error with a Kind, a user-facing message and optional
// structured details. Transports translate it into status codes.
type AppError struct {
	kind    Kind
	message string
	details map[string]any
	cause   error
}

// Option mutates an AppError during construction.
type Option func(*AppError)

// WithCause attaches an underlying error.
func WithCause(err error) Option {
	return func(appErr *AppError) {
		appErr.cause = err
	}
}

// WithDetail adds a single named detail value.
func WithDetail(key string, value any) Option {
	return func(appErr *AppError) {
		if appErr.details == nil {
			appErr.details = make(map[string]any)
		}
		appErr.details[key] = value
	}
}

// New constructs an AppError. An empty message defaults to the kind name.
func New(kind Kind, message string, opts ...Option) *AppError {
	if message == "" {
		message = string(kind)
	}
	appErr := &AppError{kind: kind, message: message}
	for _, opt := range opts {
		opt(appErr)
	}
	return appErr
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Kind returns the error category; nil errors are internal.
func (e *AppError) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

// Message returns the user-facing message.
func (e *AppError) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Details returns structured metadata, or nil.
func (e *AppError) Details() map[string]any {
	if e == nil {
		return nil
	}
	return e.details
}

// StatusCode resolves the HTTP status for the error kind.
func (e *AppError) StatusCode() int {
	return e.Kind().codes().http
}

// GRPCCode resolves the gRPC status code for the error kind.
func (e *AppError) GRPCCode() codes.Code {
	return e.Kind().codes().grpc
}

func BadRequest(message string, opts ...Option) *AppError {
	return New(KindBadRequest, message, opts...)
}

func Conflict(message string, opts ...Option) *AppError {
	return New(KindConflict, message, opts...)
}

func NotFound(message string, opts ...Option) *AppError {
	return New(KindNotFound, message, opts...)
}

func Unprocessable(message string, opts ...Option) *AppError {
	return New(KindUnprocessableEntity, message, opts...)
}

func Unavailable(message string, opts ...Option) *AppError {
	return New(KindUnavailable, message, opts...)
}

func Internal(message string, opts ...Option) *AppError {
	return New(KindInternal, message, opts...)
}

// IsKind reports whether err wraps an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr != nil && appErr.kind == kind
}

// From returns the AppError inside err, or wraps err as an internal error.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal error", WithCause(err))
}
