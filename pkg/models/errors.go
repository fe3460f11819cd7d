package models

import (
	"errors"
	"fmt"
	"time"
)

// Error codes for JSON responses
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Common errors
var (
	ErrNotFound             = errors.New("resource not found")
	ErrConflict             = errors.New("resource already exists")
	ErrInvalidReference     = errors.New("invalid reference")
	ErrRetryable            = errors.New("concurrent update conflict - please retry")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrUnauthorized         = errors.New("unauthorized access")
	ErrForbidden            = errors.New("forbidden access")
	ErrTaskAlreadyCompleted = errors.New("task is already completed")
	ErrAlreadyUnlocked      = errors.New("achievement already unlocked")
	ErrMissionNotActive     = errors.New("mission is not active")
	ErrLockNotAcquired      = errors.New("user is busy, try again")

	// ErrProfileNotFound matches ErrNotFound under errors.Is
	ErrProfileNotFound = fmt.Errorf("progress profile: %w", ErrNotFound)
)

// AppError carries a transport-facing error
type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ToHTTPError converts to HTTP-compatible error response
func (e *AppError) ToHTTPError() *APIResponse {
	return &APIResponse{
		Success:   false,
		Error:     e.Message,
		Message:   e.Message,
		Timestamp: time.Now(),
	}
}

// NewHTTPError builds an AppError for the HTTP layer
func NewHTTPError(code, message string, statusCode int, err error) *AppError {
	appErr := &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
	if err != nil {
		appErr.Details = map[string]interface{}{"original_error": err.Error()}
	}
	return appErr
}

// ClassifyError maps service errors onto an AppError
func ClassifyError(err error) *AppError {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(ErrCodeNotFound, "resource not found", 404, err)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidReference):
		return NewHTTPError(ErrCodeValidation, err.Error(), 400, err)
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken):
		return NewHTTPError(ErrCodeUnauthorized, "unauthorized", 401, err)
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(ErrCodeForbidden, "forbidden access", 403, err)
	case errors.Is(err, ErrConflict), errors.Is(err, ErrRetryable), errors.Is(err, ErrLockNotAcquired),
		errors.Is(err, ErrTaskAlreadyCompleted), errors.Is(err, ErrAlreadyUnlocked), errors.Is(err, ErrMissionNotActive):
		return NewHTTPError(ErrCodeConflict, err.Error(), 409, err)
	default:
		return NewHTTPError(ErrCodeInternal, "internal server error", 500, err)
	}
}
