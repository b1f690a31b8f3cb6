package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream error")
	ErrContract     = errors.New("contract violation")
)

type AppError struct {
	Err     error  // sentinel above, for errors.Is
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthorized returns an AppError for requests made without a live session.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Upstream returns an AppError for a failed call to the remote Rootz API:
// a transport failure or a non-success status. The gateway surfaces these
// once and never retries. HTTP handlers map this to 502.
func Upstream(operation string, err error) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: fmt.Sprintf("%s: upstream request failed: %v", operation, err),
	}
}

// UpstreamStatus is Upstream for the non-success-status case, keeping the
// remote status and response message when the API sent one.
func UpstreamStatus(operation string, status int, remoteMessage string) *AppError {
	msg := fmt.Sprintf("%s: upstream returned status %d", operation, status)
	if remoteMessage != "" {
		msg = fmt.Sprintf("%s: %s", msg, remoteMessage)
	}
	return &AppError{
		Err:     ErrUpstream,
		Message: msg,
	}
}

// Contract returns an AppError for an upstream response that breaks its
// documented contract — e.g. a credential whose claims will not decode.
// These indicate a defect in the identity flow, not a runtime condition.
func Contract(message string) *AppError {
	return &AppError{
		Err:     ErrContract,
		Message: message,
	}
}
