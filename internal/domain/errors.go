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

// Common domain error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeAlreadyExists      = "ALREADY_EXISTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeInvalidOperation   = "INVALID_OPERATION"
	ErrCodeExtractionFailed   = "EXTRACTION_FAILED"
	ErrCodeCollaboratorFailed = "COLLABORATOR_FAILED"
	ErrCodeRateLimited        = "RATE_LIMITED"
)

// Validation errors
var (
	ErrInvalidPaperState    = NewDomainError(ErrCodeValidation, "invalid paper state")
	ErrInvalidRunStatus     = NewDomainError(ErrCodeValidation, "invalid run status")
	ErrInvalidPromptType    = NewDomainError(ErrCodeValidation, "invalid prompt type")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrFileTooLarge         = NewDomainError(ErrCodeValidation, "uploaded file exceeds size limit")
	ErrNotAPDF              = NewDomainError(ErrCodeValidation, "uploaded file is not a PDF")
)

// Not found errors
var (
	ErrPaperNotFound      = NewDomainError(ErrCodeNotFound, "paper not found")
	ErrRunNotFound        = NewDomainError(ErrCodeNotFound, "analysis run not found")
	ErrComparisonNotFound = NewDomainError(ErrCodeNotFound, "comparison not found")
	ErrReportNotFound     = NewDomainError(ErrCodeNotFound, "report not found")
)

// Operation errors
var (
	ErrRunAlreadyActive = NewDomainError(ErrCodeInvalidOperation, "paper already has an active analysis run")
	ErrPaperNotAnalyzed = NewDomainError(ErrCodeInvalidOperation, "paper has no completed analysis")
)

// Extraction errors. Extraction failure is unrecoverable for the document:
// the run aborts and is never retried.
var (
	ErrExtractionFailed = NewDomainError(ErrCodeExtractionFailed, "failed to extract text from PDF")
	ErrEmptyDocument    = NewDomainError(ErrCodeExtractionFailed, "document contains no extractable text")
)

// Rate limiting
var (
	ErrUploadQuotaExceeded = NewDomainError(ErrCodeRateLimited, "upload quota exceeded, try again later")
)

// CollaboratorError wraps a failure of the external analysis collaborator.
// Transient failures (timeouts, throttling, server errors) may be retried;
// permanent ones (bad credentials, malformed request) must not be.
type CollaboratorError struct {
	Transient bool
	Err       error
}

// Error implements the error interface
func (e *CollaboratorError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("collaborator error (%s): %v", kind, e.Err)
}

// Unwrap returns the underlying error
func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// NewTransientCollaboratorError wraps err as a retryable collaborator failure
func NewTransientCollaboratorError(err error) *CollaboratorError {
	return &CollaboratorError{Transient: true, Err: err}
}

// NewPermanentCollaboratorError wraps err as a non-retryable collaborator failure
func NewPermanentCollaboratorError(err error) *CollaboratorError {
	return &CollaboratorError{Transient: false, Err: err}
}

// IsTransientCollaboratorError reports whether err is a retryable
// collaborator failure.
func IsTransientCollaboratorError(err error) bool {
	var cerr *CollaboratorError
	if errors.As(err, &cerr) {
		return cerr.Transient
	}
	return false
}
