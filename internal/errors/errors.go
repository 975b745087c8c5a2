package errors

import (
	stderrors "errors"
	"fmt"
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
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
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

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeTransientIO         = "TRANSIENT_IO"
	CodeTimeParse           = "TIME_PARSE"
	CodeDimensionMismatch   = "DIMENSION_MISMATCH"
	CodeBandOutOfRange      = "BAND_OUT_OF_RANGE"
	CodeCombineIncompatible = "COMBINE_INCOMPATIBLE"
	CodeEmptyVariable       = "EMPTY_VARIABLE"
	CodeNoData              = "NO_DATA"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeConfigInvalid       = "CONFIG_INVALID"
	CodeInternalError       = "INTERNAL_ERROR"
)

// Common error constructors
func TransientIO(message string, cause error) *AppError {
	return &AppError{Code: CodeTransientIO, Message: message, Cause: cause}
}

func TimeParse(message string) *AppError {
	return New(CodeTimeParse, message)
}

func DimensionMismatch(message string) *AppError {
	return New(CodeDimensionMismatch, message)
}

func BandOutOfRange(message string) *AppError {
	return New(CodeBandOutOfRange, message)
}

func CombineIncompatible(message string) *AppError {
	return New(CodeCombineIncompatible, message)
}

func EmptyVariable(message string) *AppError {
	return New(CodeEmptyVariable, message)
}

func NoData(message string) *AppError {
	return New(CodeNoData, message)
}

func InvalidRequest(message string) *AppError {
	return New(CodeInvalidRequest, message)
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

// permanentCodes are contract violations that retrying cannot fix.
var permanentCodes = map[string]bool{
	CodeTimeParse:         true,
	CodeDimensionMismatch: true,
	CodeBandOutOfRange:    true,
	CodeInvalidRequest:    true,
	CodeConfigInvalid:     true,
}

// IsPermanent reports whether an error must not be retried. Errors without
// a code are treated as transient, since unclassified failures from remote
// reads are usually network conditions.
func IsPermanent(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return permanentCodes[appErr.Code]
	}
	return false
}
