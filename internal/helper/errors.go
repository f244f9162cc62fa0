package helper

import (
	"errors"
	"net/http"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindNotFound
	KindUnauthorized
	KindConflict
	KindNotVerified
	KindUpstream
)

// AppError is returned by the service layer; handlers render Message and the
// status for Kind. Err is only ever logged.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindConflict, KindNotVerified:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func NewValidationError(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func NewUnauthorizedError(msg string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: msg}
}

func NewConflictError(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

func NewNotVerifiedError(msg string) *AppError {
	return &AppError{Kind: KindNotVerified, Message: msg}
}

// Upstream wraps storage, mail, upload and token failures. Clients only ever
// see "Server error".
func Upstream(op string, err error) *AppError {
	return &AppError{Kind: KindUpstream, Message: op, Err: err}
}

// AsAppError unwraps err into an AppError, treating anything else as upstream.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Upstream("unexpected error", err)
}
