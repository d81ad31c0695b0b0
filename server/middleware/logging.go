package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/closetmind/server/internal/observability"
)

// RequestLogger attaches a RequestContext to every request, then logs and
// records the outcome once the error handler has written the response.
func RequestLogger(logger *slog.Logger, metrics *observability.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			operation := req.Method + " " + c.Path()
			rc := observability.NewRequestContext(logger, req.Header.Get(echo.HeaderXRequestID), operation)
			c.Response().Header().Set(echo.HeaderXRequestID, rc.RequestID)
			c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), rc)))

			if err := next(c); err != nil {
				c.Error(err)
			}

			if ownerID, ok := OwnerFromEcho(c); ok {
				rc.OwnerID = ownerID
			}
			status := c.Response().Status
			failed := status >= http.StatusInternalServerError
			if metrics != nil {
				metrics.RecordRequest(operation, rc.Duration(), failed)
			}

			level := slog.LevelDebug
			msg := "request completed"
			switch {
			case failed:
				level, msg = slog.LevelWarn, "request failed"
			case status >= http.StatusBadRequest:
				level, msg = slog.LevelInfo, "request rejected"
			}
			rc.Log(req.Context(), level, msg, slog.Int(observability.LogFieldStatus, status))
			return nil
		}
	}
}
