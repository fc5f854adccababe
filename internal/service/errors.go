package service

import "net/http"

// Error is the service-level error carried up to the transport layer, which
// maps Code into the response envelope. Err keeps the original cause for
// diagnostics and is never shown to the caller.
type Error struct {
	Code int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "service error"
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) StatusCode() int { return e.Code }

func NewUsernameUnavailableError() error {
	return &Error{Code: http.StatusConflict, Msg: "username unavailable"}
}

func NewNotFoundError(msg string) error {
	return &Error{Code: http.StatusNotFound, Msg: msg}
}

func NewUnauthorizedError(msg string) error {
	return &Error{Code: http.StatusUnauthorized, Msg: msg}
}

func NewInternalServerError(err error) error {
	return &Error{Code: http.StatusInternalServerError, Msg: "internal server error", Err: err}
}
