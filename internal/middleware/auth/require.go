package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oreoinsight/backoffice/internal/models"
)

// RequireAuth rejects requests that reached the handler without a
// resolved principal.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if Principal(c) == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		return next(c)
	}
}

// RequireCentral additionally demands the CENTRAL role.
func RequireCentral(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := Principal(c)
		if p == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		if p.Role != models.RoleCentral {
			return echo.NewHTTPError(http.StatusForbidden, "CENTRAL role required")
		}
		return next(c)
	}
}
