// Package auth carries the per-request authorization filter. It resolves
// a bearer token into a request-scoped principal; route guards downstream
// decide whether an unauthenticated request may proceed.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/oreoinsight/backoffice/internal/models"
	"github.com/oreoinsight/backoffice/internal/tokens"
)

const (
	principalKey = "principal"
	bearerPrefix = "Bearer "
)

// AccountResolver re-resolves the token subject against the account
// store so disabled or removed accounts stop authenticating even while
// their tokens are still cryptographically valid.
type AccountResolver interface {
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

type Middleware struct {
	Codec *tokens.Codec
	Repo  AccountResolver
}

func NewMiddleware(codec *tokens.Codec, repo AccountResolver) *Middleware {
	return &Middleware{Codec: codec, Repo: repo}
}

// Principal returns the identity attached to the request, or nil when
// the request is unauthenticated.
func Principal(c echo.Context) *models.Principal {
	if p, ok := c.Get(principalKey).(*models.Principal); ok {
		return p
	}
	return nil
}

// SetPrincipal is exposed for earlier filters and tests.
func SetPrincipal(c echo.Context, p *models.Principal) {
	c.Set(principalKey, p)
}

// Filter runs once per request:
//
//	no bearer header        -> pass through unauthenticated
//	principal already set   -> pass through untouched
//	expired token           -> 401 TOKEN_EXPIRED, handler never runs
//	malformed token         -> 401 INVALID_TOKEN, handler never runs
//	valid token             -> re-resolve account; on success attach the
//	                           principal, otherwise continue without one
func (m *Middleware) Filter(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			return next(c)
		}
		if Principal(c) != nil {
			return next(c)
		}

		raw := strings.TrimPrefix(header, bearerPrefix)
		claims, err := m.Codec.Validate(raw)
		switch {
		case errors.Is(err, tokens.ErrTokenExpired):
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"error":   "TOKEN_EXPIRED",
				"message": "the token has expired",
			})
		case err != nil:
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"error":   "INVALID_TOKEN",
				"message": "the token is invalid",
			})
		}

		acc, err := m.Repo.AccountByEmail(c.Request().Context(), claims.Subject)
		if err != nil || !acc.Enabled || acc.Email != claims.Subject {
			// Unresolvable principal: fall through unauthenticated and
			// let the route guards produce the generic error.
			return next(c)
		}

		SetPrincipal(c, &models.Principal{
			ID:      acc.ID,
			Email:   acc.Email,
			Role:    acc.Role,
			Branch:  acc.Branch,
			Enabled: acc.Enabled,
		})
		return next(c)
	}
}
