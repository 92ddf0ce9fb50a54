package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Services MUST use these constants instead of
// hardcoded strings.
const (
	// Validation (400)
	ErrCodeValidationMissingField   ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidField   ErrorCode = "validation_invalid_field"
	ErrCodeValidationInvalidCadence ErrorCode = "validation_invalid_cadence"
	ErrCodeValidationInvalidWeekday ErrorCode = "validation_invalid_weekday"
	ErrCodeValidationInvalidTime    ErrorCode = "validation_invalid_execution_time"

	// Not Found (404)
	ErrCodeNotFoundSetting  ErrorCode = "not_found_batch_setting"
	ErrCodeNotFoundProperty ErrorCode = "not_found_property"

	// Conflict (409)
	ErrCodeConflictSettingExists ErrorCode = "conflict_setting_exists"

	// Internal/Upstream (500/502)
	ErrCodeInternalDB         ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
	ErrCodeUpstreamSummarizer ErrorCode = "upstream_summarizer_unavailable"
	ErrCodeUpstreamQueue      ErrorCode = "upstream_queue_unavailable"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code. The
// settings service surfaces its errors to the API layer, which uses this
// mapping to translate AppErrors into responses. Returns 500 for
// unrecognized codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "conflict_"):
		return http.StatusConflict
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. All domain errors are
// expressed as AppError to enable consistent formatting, HTTP status mapping,
// and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
