package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes. One per failure class a document can end in.
const (
	CodeRasterization = "RASTERIZATION_ERROR"
	CodeTranscription = "TRANSCRIPTION_DEGRADED"
	CodeExtraction    = "EXTRACTION_ERROR"
	CodeValidation    = "VALIDATION_ERROR"
	CodeLedgerAppend  = "LEDGER_APPEND_ERROR"
	CodeConfig        = "CONFIG_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeInternal      = "INTERNAL_ERROR"
)

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")
	ErrEmptyReply   = errors.New("model returned no content")
	ErrQueueClosed  = errors.New("ledger queue is shut down")
	ErrNotPDF       = errors.New("document is not a PDF")
	ErrNoPages      = errors.New("document has no pages")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// InvalidInput flags a malformed caller request, as opposed to a pipeline failure.
func InvalidInput(message string) error {
	return NewAppError(CodeInvalidInput, message, ErrInvalidInput)
}

func RasterizationError(message string, cause error) error {
	return NewAppError(CodeRasterization, message, cause)
}

func TranscriptionError(message string, cause error) error {
	return NewAppError(CodeTranscription, message, cause)
}

func ValidationFailure(message string, cause error) error {
	return NewAppError(CodeValidation, message, cause)
}

func ExtractionError(message string, cause error) error {
	return NewAppError(CodeExtraction, message, cause)
}

func LedgerAppendError(message string, cause error) error {
	return NewAppError(CodeLedgerAppend, message, cause)
}

// CodeOf returns the code of the first AppError in err's chain, or CodeInternal.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
