package util

import (
	"errors"
	"fmt"
)

// Error codes understood by callers of the record store.
const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeDuplicateUsername    = "DUPLICATE_USERNAME"
	CodeUnknownUser          = "UNKNOWN_USER"
	CodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	CodeMalformedRecord      = "MALFORMED_RECORD"
	CodeWriteFailure         = "WRITE_FAILURE"
	CodeReadFailure          = "READ_FAILURE"
	CodeInternal             = "INTERNAL_ERROR"
)

// Sentinels for errors.Is. A DomainError matches any sentinel carrying the same code.
var (
	ErrInvalidInput         = &DomainError{Code: CodeInvalidInput, Message: "invalid input"}
	ErrDuplicateUsername    = &DomainError{Code: CodeDuplicateUsername, Message: "username already exists"}
	ErrUnknownUser          = &DomainError{Code: CodeUnknownUser, Message: "unknown user"}
	ErrAuthenticationFailed = &DomainError{Code: CodeAuthenticationFailed, Message: "invalid username or password"}
	ErrMalformedRecord      = &DomainError{Code: CodeMalformedRecord, Message: "malformed record"}
	ErrWriteFailure         = &DomainError{Code: CodeWriteFailure, Message: "write failure"}
	ErrReadFailure          = &DomainError{Code: CodeReadFailure, Message: "read failure"}
)

// DomainError standardizes application errors.
type DomainError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, Details: details}
}

func NewInvalidInput(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidInput, message, details)
}

func NewDuplicateUsername(username string) error {
	return NewDomainError(CodeDuplicateUsername, "username already exists", map[string]any{"username": username})
}

func NewUnknownUser(username string) error {
	return NewDomainError(CodeUnknownUser, "unknown user", map[string]any{"username": username})
}

// NewAuthenticationFailed never says whether the username or the password was wrong.
func NewAuthenticationFailed() error {
	return NewDomainError(CodeAuthenticationFailed, "invalid username or password", nil)
}

// NewMalformedRecord reports a line that could not be decoded. line is 1-based; 0 means unknown.
func NewMalformedRecord(kind string, line int, err error) error {
	details := map[string]any{"kind": kind}
	if line > 0 {
		details["line"] = line
	}
	return &DomainError{
		Code:    CodeMalformedRecord,
		Message: fmt.Sprintf("malformed %s record", kind),
		Details: details,
		Err:     err,
	}
}

// NewWriteFailure reports that a record was not durably persisted.
func NewWriteFailure(path string, err error) error {
	return &DomainError{
		Code:    CodeWriteFailure,
		Message: "record not persisted",
		Details: map[string]any{"path": path},
		Err:     err,
	}
}

func NewReadFailure(path string, err error) error {
	return &DomainError{
		Code:    CodeReadFailure,
		Message: "log could not be read",
		Details: map[string]any{"path": path},
		Err:     err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:    CodeInternal,
		Message: "internal error",
		Err:     err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "internal error",
		Err:     err,
	}
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code string) bool {
	de := ToDomainError(err)
	return de != nil && de.Code == code
}
