// Package errors defines the typed error taxonomy shared by the recommendation core
// and the HTTP boundary.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific error type for recommendation operations.
type ErrorCode string

const (
	// ErrCodeEmbeddingFailed indicates the input could not be embedded (bad image or model failure).
	ErrCodeEmbeddingFailed ErrorCode = "EMBEDDING_FAILED"
	// ErrCodeRetrievalFailed wraps an embedding or vector index failure during retrieval.
	ErrCodeRetrievalFailed ErrorCode = "RETRIEVAL_FAILED"
	// ErrCodeGenerationFailed indicates the query generator got unusable structured output.
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	// ErrCodeDialogueFailed indicates a dialogue turn could not be parsed at all.
	ErrCodeDialogueFailed ErrorCode = "DIALOGUE_FAILED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNoWardrobeItems indicates the owner has nothing registered to search.
	ErrCodeNoWardrobeItems ErrorCode = "NO_WARDROBE_ITEMS"
	// ErrCodeNotFound indicates the requested wardrobe item does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeUnauthorized indicates authentication failure.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeServiceUnavailable indicates the service is not available.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// AIError represents a structured error for recommendation operations.
type AIError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AIError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AIError) WithContext(key string, value interface{}) *AIError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *AIError) GetCode() ErrorCode {
	return e.Code
}

// EmbeddingFailed creates an embedding error.
func EmbeddingFailed(msg string, cause error) *AIError {
	return &AIError{Code: ErrCodeEmbeddingFailed, Message: msg, Cause: cause}
}

// RetrievalFailed creates a retrieval error.
func RetrievalFailed(msg string, cause error) *AIError {
	return &AIError{Code: ErrCodeRetrievalFailed, Message: msg, Cause: cause}
}

// GenerationFailed creates a query generation error.
func GenerationFailed(msg string, cause error) *AIError {
	return &AIError{Code: ErrCodeGenerationFailed, Message: msg, Cause: cause}
}

// DialogueFailed creates a dialogue turn error.
func DialogueFailed(msg string, cause error) *AIError {
	return &AIError{Code: ErrCodeDialogueFailed, Message: msg, Cause: cause}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AIError {
	return &AIError{Code: ErrCodeInvalidArgument, Message: msg}
}

// NoWardrobeItems creates the "nothing to search" precondition error.
func NoWardrobeItems(ownerID string) *AIError {
	return &AIError{
		Code:    ErrCodeNoWardrobeItems,
		Message: fmt.Sprintf("no wardrobe items registered for owner %s", ownerID),
	}
}

// NotFound creates a not found error.
func NotFound(msg string) *AIError {
	return &AIError{Code: ErrCodeNotFound, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *AIError {
	return &AIError{Code: ErrCodeUnauthorized, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *AIError {
	return &AIError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// ServiceUnavailable creates a service unavailable error.
func ServiceUnavailable(msg string) *AIError {
	return &AIError{Code: ErrCodeServiceUnavailable, Message: msg}
}

// Timeout creates a timeout error.
func Timeout(msg string, cause error) *AIError {
	return &AIError{Code: ErrCodeTimeout, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *AIError {
	return &AIError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error, or any error it wraps, carries a specific code.
func IsCode(err error, code ErrorCode) bool {
	var aiErr *AIError
	for stderrors.As(err, &aiErr) {
		if aiErr.Code == code {
			return true
		}
		err = aiErr.Cause
		aiErr = nil
	}
	return false
}

// GetCodeFromError extracts the outermost error code from any error.
// Returns the provided default code if the error is not an AIError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr.Code
	}
	return defaultCode
}
