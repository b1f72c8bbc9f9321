package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodePspReferenceConflict = "PSP_REFERENCE_CONFLICT"
	ErrCodePaymentNotFound      = "PAYMENT_NOT_FOUND"
)

func NewValidationError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// NewPspReferenceConflictError signals a rebind attempt with a different
// reference. This is data corruption or a PSP bug, never a legitimate retry.
func NewPspReferenceConflictError(existing, incoming string) *DomainError {
	return &DomainError{
		Code:    ErrCodePspReferenceConflict,
		Message: fmt.Sprintf("conflicting PSP reference: existing %q, incoming %q", existing, incoming),
	}
}

func NewPaymentNotFoundError(ref string) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentNotFound,
		Message: fmt.Sprintf("payment %s not found", ref),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
