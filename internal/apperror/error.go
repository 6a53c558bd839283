package apperror

import (
	"errors"
	"fmt"
)

// AppError is an error carrying a Code. Two AppErrors match under errors.Is
// when their codes are equal.
type AppError struct {
	Code    Code
	Message string
	Context string
	cause   error
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

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates an AppError with the code's default message.
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:    code,
		Message: messages[code],
	}
	for _, opt := range opts {
		opt(err)
	}
	if err.Message == "" {
		err.Message = string(code)
	}
	return err
}

// Option configures an AppError.
type Option func(*AppError)

// WithMessage replaces the default message.
func WithMessage(message string) Option {
	return func(e *AppError) {
		e.Message = message
	}
}

// WithContext attaches detail such as a URL or endpoint.
func WithContext(context string) Option {
	return func(e *AppError) {
		e.Context = context
	}
}

// WithCause wraps an underlying error.
func WithCause(cause error) Option {
	return func(e *AppError) {
		e.cause = cause
	}
}

// Wrap returns err unchanged if it already is an AppError, filling in an
// empty context. Any other error is wrapped under code.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}

	return New(code, WithContext(context), WithCause(err))
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// HasCode reports whether any error in err's chain is an AppError with code.
func HasCode(err error, code Code) bool {
	var appErr *AppError
	for err != nil {
		if errors.As(err, &appErr) {
			if appErr.Code == code {
				return true
			}
			err = appErr.cause
			continue
		}
		return false
	}
	return false
}

// Transient reports whether the error is worth retrying: transport failures,
// timeouts and an open circuit all clear on their own.
func Transient(err error) bool {
	switch GetCode(err) {
	case CodeWebSocketConnectionError, CodeWebSocketReadError, CodeHeartbeatTimeout,
		CodeNodeConnectionFailed, CodeSnapshotFetchFailed,
		CodeCircuitOpen, CodeCircuitHalfOpen, CodeRateLimitExceeded:
		return true
	}
	return false
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}
