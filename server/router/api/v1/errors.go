package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/server/internal/observability"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusOrder lists codes from most to least specific; the first code found
// anywhere in the error chain decides the status.
var statusOrder = []struct {
	code   aierrors.ErrorCode
	status int
}{
	{aierrors.ErrCodeInvalidArgument, http.StatusBadRequest},
	{aierrors.ErrCodeUnauthorized, http.StatusUnauthorized},
	{aierrors.ErrCodeNotFound, http.StatusNotFound},
	{aierrors.ErrCodeNoWardrobeItems, http.StatusUnprocessableEntity},
	{aierrors.ErrCodeRateLimitExceeded, http.StatusTooManyRequests},
	{aierrors.ErrCodeTimeout, http.StatusGatewayTimeout},
	{aierrors.ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
	{aierrors.ErrCodeDialogueFailed, http.StatusBadGateway},
	{aierrors.ErrCodeGenerationFailed, http.StatusBadGateway},
	{aierrors.ErrCodeRetrievalFailed, http.StatusBadGateway},
	{aierrors.ErrCodeEmbeddingFailed, http.StatusBadGateway},
}

// ErrorStatus maps an error to its HTTP status and public code.
func ErrorStatus(err error) (int, aierrors.ErrorCode) {
	for _, entry := range statusOrder {
		if aierrors.IsCode(err, entry.code) {
			// A deadline behind a model failure is reported as a timeout.
			if entry.status == http.StatusBadGateway && errors.Is(err, context.DeadlineExceeded) {
				return http.StatusGatewayTimeout, aierrors.ErrCodeTimeout
			}
			return entry.status, entry.code
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, aierrors.ErrCodeTimeout
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func publicMessage(err error, code aierrors.ErrorCode) string {
	var aiErr *aierrors.AIError
	switch code {
	case aierrors.ErrCodeDialogueFailed:
		return "the assistant reply could not be understood, please try again"
	case aierrors.ErrCodeTimeout:
		return "the request timed out, please try again"
	case "INTERNAL":
		return "internal error"
	}
	// Report the message of the error that carries the code, not the outermost wrapper.
	for errors.As(err, &aiErr) {
		if aiErr.Code == code {
			return aiErr.Message
		}
		err = aiErr.Cause
		aiErr = nil
	}
	return string(code)
}

// HTTPErrorHandler writes AIErrors and echo errors as ErrorResponse bodies.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		_ = c.JSON(he.Code, ErrorResponse{Code: http.StatusText(he.Code), Message: msg})
		return
	}

	status, code := ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(c.Request().Context()).Error("request error",
			slog.String("error", err.Error()),
			slog.String(observability.LogFieldErrorCode, string(code)))
	}
	_ = c.JSON(status, ErrorResponse{Code: string(code), Message: publicMessage(err, code)})
}
