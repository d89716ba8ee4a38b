package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/taxiwatch/taxiwatch-backend/pkg/i18n"
)

// Standard error types
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("resource conflict")
	ErrInternal     = errors.New("internal server error")
	ErrValidation   = errors.New("validation error")
	ErrInvalidPIN   = errors.New("invalid pin")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// Workflow and gateway error kinds
var (
	ErrRedactionUnavailable = errors.New("redaction unavailable")
	ErrAnalysisUnavailable  = errors.New("analysis unavailable")
	ErrMalformedResponse    = errors.New("malformed gateway response")
	ErrPersistenceDegraded  = errors.New("persistence degraded")
	ErrInvalidTransition    = errors.New("invalid workflow transition")
	ErrWorkflowBusy         = errors.New("a submission is already in progress")
	ErrAborted              = errors.New("submission aborted")
	ErrArchiveUnavailable   = errors.New("archive unavailable")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	MessageKey string            `json:"-"` // i18n key for localization
	Params     map[string]string `json:"-"` // Parameters for i18n interpolation
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Localize returns a localized version of the error message
func (e *AppError) Localize(ctx context.Context) string {
	if e.MessageKey == "" {
		return e.Message
	}
	return i18n.TFromContext(ctx, e.MessageKey, e.Params)
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		MessageKey: "errors.not_found",
		Params:     map[string]string{"resource": resource},
		StatusCode: http.StatusNotFound,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
		MessageKey: "errors.unauthorized",
		StatusCode: http.StatusUnauthorized,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		MessageKey: "errors.bad_request",
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		MessageKey: "errors.conflict",
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		MessageKey: "errors.internal",
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		MessageKey: "errors.validation_failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

func InvalidPIN() *AppError {
	return &AppError{
		Err:        ErrInvalidPIN,
		Code:       "INVALID_PIN",
		Message:    "incorrect PIN",
		MessageKey: "errors.invalid_pin",
		StatusCode: http.StatusUnauthorized,
	}
}

func TokenExpired() *AppError {
	return &AppError{
		Err:        ErrTokenExpired,
		Code:       "TOKEN_EXPIRED",
		Message:    "token has expired",
		MessageKey: "errors.token_expired",
		StatusCode: http.StatusUnauthorized,
	}
}

func TokenInvalid() *AppError {
	return &AppError{
		Err:        ErrTokenInvalid,
		Code:       "TOKEN_INVALID",
		Message:    "invalid token",
		MessageKey: "errors.token_invalid",
		StatusCode: http.StatusUnauthorized,
	}
}

// PrivacyCheckFailed is the user-facing error for a failed redaction step.
func PrivacyCheckFailed(err error) *AppError {
	return &AppError{
		Err:        err,
		Code:       "PRIVACY_CHECK_FAILED",
		Message:    "privacy check failed",
		MessageKey: "workflow.privacy_check_failed",
		StatusCode: http.StatusBadGateway,
	}
}

// AnalysisFailed is the user-facing error for a failed analysis step.
func AnalysisFailed(err error) *AppError {
	return &AppError{
		Err:        err,
		Code:       "ANALYSIS_FAILED",
		Message:    "report analysis failed",
		MessageKey: "workflow.analysis_failed",
		StatusCode: http.StatusBadGateway,
	}
}

// InvalidTransition reports a workflow action that is not allowed in the current state.
func InvalidTransition(action, state string) *AppError {
	return &AppError{
		Err:        ErrInvalidTransition,
		Code:       "INVALID_TRANSITION",
		Message:    fmt.Sprintf("cannot %s while %s", action, state),
		MessageKey: "workflow.invalid_transition",
		Params:     map[string]string{"action": action, "state": state},
		StatusCode: http.StatusConflict,
	}
}

// Busy reports a second submission while one is in flight.
func Busy() *AppError {
	return &AppError{
		Err:        ErrWorkflowBusy,
		Code:       "WORKFLOW_BUSY",
		Message:    ErrWorkflowBusy.Error(),
		MessageKey: "workflow.busy",
		StatusCode: http.StatusConflict,
	}
}

// Aborted reports an in-flight gateway call cancelled by the caller.
func Aborted() *AppError {
	return &AppError{
		Err:        ErrAborted,
		Code:       "ABORTED",
		Message:    ErrAborted.Error(),
		MessageKey: "workflow.aborted",
		StatusCode: http.StatusConflict,
	}
}

// ArchiveUnavailable reports that no archive is configured or the upload failed.
func ArchiveUnavailable(err error) *AppError {
	if err == nil {
		err = ErrArchiveUnavailable
	} else {
		err = fmt.Errorf("%w: %w", ErrArchiveUnavailable, err)
	}
	return &AppError{
		Err:        err,
		Code:       "ARCHIVE_UNAVAILABLE",
		Message:    "archive is not configured or unavailable",
		MessageKey: "errors.archive_unavailable",
		StatusCode: http.StatusServiceUnavailable,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
