package application

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gamehub/payment-service/internal/domain"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "PAYMENT_NOT_FOUND"
	ErrCodeInvalidSignature  = "INVALID_SIGNATURE"
	ErrCodeUnsupportedStatus = "UNSUPPORTED_STATUS"
	ErrCodeConflict          = "PSP_REFERENCE_CONFLICT"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

func NewValidationError(message string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewNotFoundError(ref string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("payment %s not found", ref),
		HTTPStatus: http.StatusNotFound,
	}
}

func NewInvalidSignatureError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidSignature,
		Message:    "invalid webhook signature",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewUnsupportedStatusError is deliberately fatal: an unknown PSP status is
// integration drift and must surface, never a silent no-op.
func NewUnsupportedStatusError(status string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUnsupportedStatus,
		Message:    fmt.Sprintf("unsupported PSP status %q", status),
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func NewConflictError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeConflict,
		Message:    "conflicting PSP reference",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "an internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// fromDomainError lifts a domain error into the service taxonomy.
func fromDomainError(err error) *ServiceError {
	switch {
	case domain.IsErrorCode(err, domain.ErrCodeValidation):
		return &ServiceError{
			Code:       ErrCodeValidation,
			Message:    err.Error(),
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	case domain.IsErrorCode(err, domain.ErrCodePspReferenceConflict):
		return NewConflictError(err)
	case domain.IsErrorCode(err, domain.ErrCodePaymentNotFound):
		return &ServiceError{
			Code:       ErrCodeNotFound,
			Message:    err.Error(),
			HTTPStatus: http.StatusNotFound,
			Err:        err,
		}
	default:
		return NewInternalError(err)
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
