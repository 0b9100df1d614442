package apperr

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeConflict        ErrorCode = "CONFLICT"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeInvariant       ErrorCode = "INVARIANT_VIOLATION"
	CodeUnavailable     ErrorCode = "UNAVAILABLE"
)

// Context keys used across the pipeline.
const (
	CtxFile    = "file"
	CtxDomain  = "domain"
	CtxPhase   = "phase"
	CtxSession = "session"
)

// Error is a coded error with optional structured context. Invariant
// violations (CodeInvariant) are the only errors allowed to abort a
// run; everything else is reported and held for review.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]any
}

func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Invariant panics with a coded error when cond is false. The host run
// loop recovers it and marks the session failed; nothing else in the
// pipeline panics.
func Invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(Newf(CodeInvariant, format, args...))
	}
}
