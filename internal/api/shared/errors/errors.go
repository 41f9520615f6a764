package errors

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/feral-file/ff-sovereignty/internal/domain"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest       ErrorCode = "bad_request"
	ErrCodeNotFound         ErrorCode = "not_found"
	ErrCodeValidationFailed ErrorCode = "validation_failed"
	ErrCodeUnauthorized     ErrorCode = "unauthorized"
	ErrCodeForbidden        ErrorCode = "forbidden"

	// Server errors (5xx)
	ErrCodeInternalError ErrorCode = "internal_error"
	ErrCodeDatabaseError ErrorCode = "database_error"
	ErrCodeServiceError  ErrorCode = "service_error"
)

// APIError represents a structured API error that carries error code and details.
// Rejections from the auction engine keep their domain code and structured data
// so clients can re-render without another read.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`

	MinNextBid        *int64                `json:"min_next_bid,omitempty"`
	Price             *int64                `json:"price,omitempty"`
	Balance           *int64                `json:"balance,omitempty"`
	Status            *domain.AuctionStatus `json:"status,omitempty"`
	Version           *int64                `json:"version,omitempty"`
	RetryAfterSeconds *int64                `json:"retry_after_seconds,omitempty"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

// FromRejection converts an engine rejection into an API error
func FromRejection(r *domain.Rejection) *APIError {
	apiErr := &APIError{
		Code:       ErrorCode(r.Code),
		Message:    r.Message,
		MinNextBid: r.MinNextBid,
		Price:      r.Price,
		Balance:    r.Balance,
		Status:     r.Status,
		Version:    r.Version,
	}
	if r.Code == domain.CodeExternalService && r.Cause != nil {
		apiErr.Details = r.Cause.Error()
	}
	if r.RetryAfter != nil {
		seconds := int64(math.Ceil(r.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		apiErr.RetryAfterSeconds = &seconds
	}
	return apiErr
}

// Error constructors for common error types
func NewBadRequestError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewNotFoundError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewValidationError(details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeValidationFailed,
		Message: "Validation failed",
		Details: strings.Join(details, ", "),
	}
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewForbiddenError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewInternalError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeInternalError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewDatabaseError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeDatabaseError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewServiceError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeServiceError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}
