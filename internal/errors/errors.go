// Package errors provides the application error type for the DirectPay API.
// Every expected service-layer failure is an AppError so that HTTP responses
// stay consistent and never leak storage details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches two AppErrors by code so callers can compare against sentinels
// even after Wrap or WithMessage produced a copy.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound     = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail   = &AppError{Code: "DUPLICATE_EMAIL", Message: "Email already registered", StatusCode: http.StatusConflict}
	ErrLandlordNotFound = &AppError{Code: "LANDLORD_NOT_FOUND", Message: "Landlord not found", StatusCode: http.StatusNotFound}
	ErrRenterNotFound   = &AppError{Code: "RENTER_NOT_FOUND", Message: "Renter not found", StatusCode: http.StatusNotFound}
	ErrNotALandlord     = &AppError{Code: "NOT_A_LANDLORD", Message: "User is not a landlord", StatusCode: http.StatusBadRequest}
)

// Property and lease errors.
var (
	ErrPropertyNotFound = &AppError{Code: "PROPERTY_NOT_FOUND", Message: "Property not found", StatusCode: http.StatusNotFound}
	ErrLeaseNotFound    = &AppError{Code: "LEASE_NOT_FOUND", Message: "Lease not found", StatusCode: http.StatusNotFound}
	ErrScheduleNotFound = &AppError{Code: "SCHEDULE_NOT_FOUND", Message: "Payment schedule not found", StatusCode: http.StatusNotFound}
)

// Bank account errors.
var (
	ErrBankAccountNotFound = &AppError{Code: "BANK_ACCOUNT_NOT_FOUND", Message: "Bank account not found", StatusCode: http.StatusNotFound}
)

// Payment errors.
var (
	ErrIdempotencyKeyRequired  = &AppError{Code: "IDEMPOTENCY_KEY_REQUIRED", Message: "Idempotency key required", StatusCode: http.StatusBadRequest}
	ErrTransactionNotFound     = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrRetryNotAllowed         = &AppError{Code: "RETRY_NOT_ALLOWED", Message: "Can only retry failed payments", StatusCode: http.StatusConflict}
	ErrRetryBudgetExhausted    = &AppError{Code: "RETRY_BUDGET_EXHAUSTED", Message: "Maximum retries exceeded", StatusCode: http.StatusConflict}
	ErrInvalidStatusTransition = &AppError{Code: "INVALID_STATUS_TRANSITION", Message: "Invalid transaction status transition", StatusCode: http.StatusConflict}
)
