package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/oreoinsight/backoffice/internal/service"
)

// ErrorHandler turns every error that escapes a handler into the
// structured body {error, message, timestamp, path}. Nothing propagates
// to the framework unshaped.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := "internal server error"

	var he *echo.HTTPError
	switch {
	case errors.Is(err, service.ErrConflict):
		status, code, message = http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, service.ErrInvalidArgument):
		status, code, message = http.StatusBadRequest, "BAD_REQUEST", err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		// Deliberately generic: never reveal whether the identity exists.
		status, code, message = http.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password"
	case errors.Is(err, service.ErrNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, service.ErrForbidden):
		status, code, message = http.StatusForbidden, "FORBIDDEN", err.Error()
	case errors.As(err, &he):
		status = he.Code
		code = codeForStatus(he.Code)
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(he.Code)
		}
	}

	body := echo.Map{
		"error":     code,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"path":      c.Request().URL.Path,
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}
