package apierr

import (
	"fmt"
	"net/http"
)

type Error struct {
	Status  int
	Code    string
	Err     error
	Details map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Validation carries per-field messages back to the client on a 400.
func Validation(err error, details map[string]string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "validation_failed", Err: err, Details: details}
}

func NotFound(code string, err error) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Err: err}
}

func Forbidden(code string, err error) *Error {
	return &Error{Status: http.StatusForbidden, Code: code, Err: err}
}

func Unauthorized(code string, err error) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: code, Err: err}
}

func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "internal_error", Err: err}
}
