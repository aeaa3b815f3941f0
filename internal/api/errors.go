package api

import (
	"context"
	"errors"
	"fmt"
)

// Messages shown to users for failures without a server-provided detail.
const (
	MsgNetwork         = "Network error: Unable to reach the server"
	MsgInvalidResponse = "Invalid response from server"
	MsgUnexpected      = "An unexpected error occurred"
	MsgCancelled       = "Request cancelled"
)

// Error is the single error shape every failure of the question API is
// collapsed into. Status is zero when no HTTP response was received.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HasStatus reports whether the error came with an HTTP status.
func (e *Error) HasStatus() bool {
	return e.Status != 0
}

// AsError converts err into an *Error. Errors that did not originate in this
// package get a generic message; the original is kept as Cause.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Message: MsgUnexpected, Cause: err}
}

// IsCanceled reports whether err stems from the caller abandoning the
// request. Such errors belong to a superseded request and are never shown.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Message returns the user-facing text for err.
func Message(err error) string {
	if e := AsError(err); e != nil {
		return e.Message
	}
	return ""
}

func serverError(status int, detail string, cause error) *Error {
	return &Error{Message: detail, Status: status, Cause: cause}
}

func networkError(cause error) *Error {
	return &Error{Message: MsgNetwork, Cause: cause}
}

func configError(format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Message: msg, Cause: errors.New(msg)}
}
