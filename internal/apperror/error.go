// Package apperror defines the classified errors used across the scanning
// pipeline. Every recoverable condition carries a Code so callers and log
// processors can branch on classification instead of matching strings.
package apperror

import (
	"errors"
	"fmt"
	"time"
)

// AppError is an error with a stable classification code. Construct
// instances with New or Wrap.
type AppError struct {
	Code      Code
	Message   string
	Context   string
	Timestamp time.Time
	cause     error
}

// Option mutates an AppError during construction.
type Option func(*AppError)

// New builds an AppError for code. The message defaults to the code's
// registered text; WithMessage overrides it.
func New(code Code, opts ...Option) *AppError {
	e := &AppError{
		Code:      code,
		Message:   messages[code],
		Timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Message == "" {
		e.Message = string(code)
	}
	return e
}

// Wrap classifies err under code. If err already carries an AppError its
// code wins; only missing context is filled in. A nil err stays nil.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}
	return New(code, WithCause(err), WithContext(context))
}

// WithMessage overrides the default message for the code.
func WithMessage(message string) Option {
	return func(e *AppError) { e.Message = message }
}

// WithContext attaches situation details, e.g. "pair=EUR-JPY seq=17".
func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

// WithCause records the underlying error for the wrap chain.
func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

func (e *AppError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any AppError with the same code, so errors.Is works across
// distinct instances.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// GetCode returns the classification carried by err, descending the wrap
// chain. Errors without an AppError map to CodeUnknownError.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// IsAppError reports whether err has an AppError anywhere in its chain.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}
