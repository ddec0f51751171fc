package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so transports can pick a status code and
// callers can branch with errors.Is.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindQuotaExceeded    ErrorKind = "quota_exceeded"
	KindConfiguration    ErrorKind = "configuration_error"
	KindCallProvisioning ErrorKind = "call_provisioning_error"
	KindSignaling        ErrorKind = "signaling_error"
	KindMediaAcquisition ErrorKind = "media_acquisition_error"
	KindIceFailure       ErrorKind = "ice_failure"
	KindInvalidArgument  ErrorKind = "invalid_argument"
	KindForbidden        ErrorKind = "forbidden"
)

// Sentinels for errors.Is checks. An *AppError matches the sentinel of its kind.
var (
	ErrNotFound         = &AppError{Kind: KindNotFound, Message: "not found"}
	ErrQuotaExceeded    = &AppError{Kind: KindQuotaExceeded, Message: "quota exceeded"}
	ErrConfiguration    = &AppError{Kind: KindConfiguration, Message: "configuration error"}
	ErrCallProvisioning = &AppError{Kind: KindCallProvisioning, Message: "call provisioning failed"}
	ErrSignaling        = &AppError{Kind: KindSignaling, Message: "signaling error"}
	ErrMediaAcquisition = &AppError{Kind: KindMediaAcquisition, Message: "media acquisition failed"}
	ErrIceFailure       = &AppError{Kind: KindIceFailure, Message: "ice negotiation failed"}
	ErrInvalidArgument  = &AppError{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrForbidden        = &AppError{Kind: KindForbidden, Message: "forbidden"}
)

// AppError carries a kind, a user-facing message and an optional cause.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is reports kind equality so wrapped AppErrors match the package sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewAppError builds an AppError with a formatted message.
func NewAppError(kind ErrorKind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapAppError attaches a cause to a new AppError.
func WrapAppError(kind ErrorKind, err error, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
