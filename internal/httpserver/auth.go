package httpserver

import (
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/oreoinsight/backoffice/internal/logging"
	"github.com/oreoinsight/backoffice/internal/models"
	"github.com/oreoinsight/backoffice/internal/service"
)

const minPasswordLen = 8

type AuthHTTP struct {
	Svc *service.AuthService
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Branch   string `json:"branch"`
}

// accountResponse is the outward projection of an account. The password
// hash is structurally unreachable from here.
type accountResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	Branch    string      `json:"branch,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Email:     a.Email,
		Role:      a.Role,
		Branch:    a.Branch,
		CreatedAt: a.CreatedAt,
	}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fmt.Errorf("%w: invalid email", service.ErrInvalidArgument)
	}
	if len(req.Password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", service.ErrInvalidArgument, minPasswordLen)
	}

	acc, err := h.Svc.Register(ctx, req.Email, req.Password, req.Role, req.Branch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAccountResponse(acc))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return fmt.Errorf("%w: email and password are required", service.ErrInvalidArgument)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
