// Package errors carries the coded errors definekit reports to callers.
//
// Every failure that stops an operation has a [Code]: malformed markup is
// INVALID_FORMAT, an unreadable workbook sheet MISSING_SHEET, a model
// without a study PRECONDITION. The CLI prints the code with the message
// and the HTTP API turns it into a status via [Code.Status]. Problems in
// otherwise usable input are not errors; the binders report them as
// diagnostics and keep going.
//
// Codes group by suffix and prefix:
//   - INVALID_* and MISSING_* reject the caller's input
//   - *NOT_FOUND names a resource that does not exist
//   - NETWORK_ERROR, TIMEOUT and STORAGE_ERROR come from remote backends
//   - INTERNAL_ERROR and UNSUPPORTED cover everything else
//
// Typical use:
//
//	if root.Local != "ODM" {
//		return errors.New(errors.ErrCodeInvalidFormat, "root element is %s, want ODM", root.Local)
//	}
//	...
//	if errors.Is(err, errors.ErrCodeFileNotFound) {
//		// ask for another path
//	}
//
// The package shadows the standard errors package in the files that import
// it; callers needing errors.As use the standard package under an alias.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error category.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidOID    Code = "INVALID_OID"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeMissingSheet  Code = "MISSING_SHEET"
	ErrCodePrecondition  Code = "PRECONDITION"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"
	ErrCodeStorage Code = "STORAGE_ERROR"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

var statusByCode = map[Code]int{
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInvalidFormat: http.StatusBadRequest,
	ErrCodeInvalidOID:    http.StatusBadRequest,
	ErrCodeInvalidPath:   http.StatusBadRequest,
	ErrCodeMissingSheet:  http.StatusBadRequest,
	ErrCodePrecondition:  http.StatusUnprocessableEntity,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeFileNotFound:  http.StatusNotFound,
	ErrCodeNetwork:       http.StatusBadGateway,
	ErrCodeStorage:       http.StatusBadGateway,
	ErrCodeTimeout:       http.StatusGatewayTimeout,
	ErrCodeUnsupported:   http.StatusUnsupportedMediaType,
}

// Status is the HTTP status answered for c. Unknown codes map to 500.
func (c Code) Status() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is a coded error. Cause, when set, is reachable through Unwrap.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, format, args...)
}

// Wrap is New with an underlying cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// when there is none.
func GetCode(err error) Code {
	if e := asCoded(err); e != nil {
		return e.Code
	}
	return ""
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// UserMessage drops the code prefix and the cause of a coded error. Other
// errors are returned verbatim.
func UserMessage(err error) string {
	if e := asCoded(err); e != nil {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus is GetCode(err).Status().
func HTTPStatus(err error) int {
	return GetCode(err).Status()
}

func asCoded(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
