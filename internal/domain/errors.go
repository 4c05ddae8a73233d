package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code and message,
// so wrapped copies still match the sentinels below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap attaches cause to a copy of the sentinel, keeping its code and message.
func Wrap(sentinel *DomainError, cause error) *DomainError {
	return NewDomainErrorWithCause(sentinel.Code, sentinel.Message, cause)
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Common domain error codes
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeProviderRejected    = "PROVIDER_REJECTED"
	ErrCodePersistence         = "PERSISTENCE_ERROR"
	ErrCodeExtraction          = "EXTRACTION_ERROR"
	ErrCodeTimeout             = "TIMEOUT"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Input errors
var (
	ErrEmptyText     = NewDomainError(ErrCodeInvalidInput, "text cannot be empty")
	ErrEmptyQuery    = NewDomainError(ErrCodeInvalidInput, "query cannot be empty")
	ErrEmptyFilename = NewDomainError(ErrCodeInvalidInput, "filename is required")
	ErrInvalidChunk  = NewDomainError(ErrCodeInvalidInput, "invalid document chunk")
)

// Provider errors
var (
	ErrProviderUnavailable = NewDomainError(ErrCodeProviderUnavailable, "model provider unavailable")
	ErrRateLimited         = NewDomainError(ErrCodeRateLimited, "model provider rate limit exceeded")
	ErrProviderRejected    = NewDomainError(ErrCodeProviderRejected, "model provider rejected the request")
	ErrProviderBadInput    = NewDomainError(ErrCodeInvalidInput, "model provider rejected the input")
	ErrChatTimeout         = NewDomainError(ErrCodeTimeout, "chat turn exceeded its time limit")
)

// Persistence errors
var (
	ErrPersistence       = NewDomainError(ErrCodePersistence, "vector store operation failed")
	ErrDimensionMismatch = NewDomainError(ErrCodePersistence, "embedding dimensionality mismatch")
	ErrDocumentNotFound  = NewDomainError(ErrCodeNotFound, "document not found")
)

// Extraction errors
var (
	ErrExtraction = NewDomainError(ErrCodeExtraction, "failed to extract document text")
)

// Authorization errors
var (
	ErrInvalidAPIToken = NewDomainError(ErrCodeUnauthorized, "invalid api token")
)
