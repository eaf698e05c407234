package domain

import (
	"errors"
	"fmt"
)

// DomainError is a business error with a structured code of the form
// SKV-<AREA>-<HTTP status><n>.
type DomainError struct {
	Code    string // e.g. "SKV-KEY-4040"
	Message string
	Details string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a DomainError.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError reports whether err is a DomainError with the given code.
// An empty code matches any DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return code == "" || de.Code == code
	}
	return false
}

// GetErrorCode returns the code of a DomainError, or "".
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Key errors (KEY)
var (
	ErrKeyNotFound   = NewDomainError("SKV-KEY-4040", "key not found")
	ErrInvalidKey    = NewDomainError("SKV-KEY-4001", "invalid key")
	ErrValueTooLarge = NewDomainError("SKV-KEY-4002", "value too large")
	ErrKeyExists     = NewDomainError("SKV-KEY-4090", "key already exists")
	ErrShardBusy     = NewDomainError("SKV-KEY-4230", "shard is busy, retry later")
)

// System errors (SYS)
var (
	ErrBadRequest         = NewDomainError("SKV-SYS-4000", "bad request")
	ErrRateLimited        = NewDomainError("SKV-SYS-4290", "too many requests")
	ErrInternalServer     = NewDomainError("SKV-SYS-5000", "internal server error")
	ErrStorageError       = NewDomainError("SKV-SYS-5001", "storage error")
	ErrServiceUnavailable = NewDomainError("SKV-SYS-5030", "service unavailable")
)
