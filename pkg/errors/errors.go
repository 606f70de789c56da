package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error carries an HTTP status code alongside the message shown to clients.
// The wrapped cause is kept for logging and never serialized.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Detail is the client message followed by the full cause chain, for logs.
func (e *Error) Detail() string {
	if e.Err == nil || e.Message == "" {
		return e.Error()
	}
	return e.Message + ": " + Detail(e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code and message so package level sentinels
// can be compared with errors.Is after wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(message string) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: message}
}

func Errorf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// WithCode creates a new error with code
func WithCode(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func WithCodef(code int, format string, args ...interface{}) *Error {
	return WithCode(code, fmt.Sprintf(format, args...))
}

// Wrap keeps err as the cause. A nil err yields nil.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: GetCode(err), Message: message, Err: err}
}

func Wrapf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the HTTP status of the first *Error in the chain, or 500.
func GetCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) && e.Code != 0 {
		return e.Code
	}
	return http.StatusInternalServerError
}

// GetMessage returns the client-facing message of the first *Error in the chain.
func GetMessage(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Error()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Detail returns the loggable text of err including every wrapped cause.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) && e.Err != nil {
		// keep any context added above the first *Error
		if outer := err.Error(); outer != e.Error() {
			return outer + " (" + e.Detail() + ")"
		}
		return e.Detail()
	}
	return err.Error()
}

// Cause returns the innermost error.
func Cause(err error) error {
	for err != nil {
		next := stderrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return err
}
