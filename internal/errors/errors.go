package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"godoor/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    codeFor(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the error code of the outermost AppError, or the code the
// domain error classifies as.
func GetCode(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return codeFor(err)
}

// Classify turns any error into an AppError, keeping the original as cause.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Code: codeFor(err), Message: err.Error(), Cause: err}
}

func codeFor(err error) string {
	switch {
	case stderrors.Is(err, core.ErrInvalidHierarchy):
		return CodeConfiguration
	case stderrors.Is(err, core.ErrUnknownOutcome):
		return CodeUnknownOutcome
	case stderrors.Is(err, core.ErrInsufficientSample):
		return CodeInsufficientSample
	case stderrors.Is(err, core.ErrSampleTooLarge):
		return CodeSampleTooLarge
	case stderrors.Is(err, core.ErrInvalidRank),
		stderrors.Is(err, core.ErrInvalidRecord),
		stderrors.Is(err, core.ErrInvalidArm):
		return CodeInvalidInput
	case stderrors.Is(err, core.ErrNotFound):
		return CodeNotFound
	default:
		return CodeInternalError
	}
}

// Predefined error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeConfiguration      = "CONFIGURATION_ERROR"
	CodeUnknownOutcome     = "UNKNOWN_OUTCOME"
	CodeInsufficientSample = "INSUFFICIENT_SAMPLE"
	CodeSampleTooLarge     = "SAMPLE_TOO_LARGE"

	// CodeExternalUnavailable marks a dependency (database) that could not be reached.
	CodeExternalUnavailable = "EXTERNAL_SERVICE_ERROR"
)

// HTTPStatus maps an error code to the response status the API sends.
func HTTPStatus(code string) int {
	switch code {
	case CodeInvalidInput, CodeValidationError, CodeConfiguration:
		return http.StatusBadRequest
	case CodeUnknownOutcome, CodeInsufficientSample:
		return http.StatusUnprocessableEntity
	case CodeSampleTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeNotFound:
		return http.StatusNotFound
	case CodeExternalUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
