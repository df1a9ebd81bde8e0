package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oreoinsight/backoffice/internal/hash"
	"github.com/oreoinsight/backoffice/internal/logging"
	"github.com/oreoinsight/backoffice/internal/models"
	"github.com/oreoinsight/backoffice/internal/repo"
	"github.com/oreoinsight/backoffice/internal/tokens"
)

// EventPublisher is the slice of the kafka producer the services need.
// A nil publisher disables events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

const accountTopic = "account_events"

type AuthService struct {
	Repo     *repo.GormRepo
	Codec    *tokens.Codec
	Producer EventPublisher
}

// AuthResponse is the login payload. ExpiresAtMillis is 0 when the token
// was already expired at issuance (zero or negative TTL misconfiguration).
type AuthResponse struct {
	Token           string      `json:"token"`
	ExpiresAtMillis int64       `json:"expiresAtMillis"`
	Role            models.Role `json:"role"`
	Branch          string      `json:"branch,omitempty"`
}

// Register creates an account. Checks run in this order: uniqueness,
// role validity, branch-for-BRANCH. The pre-check is an optimization
// only; the persist itself re-answers uniqueness authoritatively.
func (s *AuthService) Register(ctx context.Context, email, password, role, branch string) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if taken, err := s.Repo.EmailTaken(ctx, email); err != nil {
		return nil, err
	} else if taken {
		l.Warn("register_conflict", "email", email)
		return nil, ErrConflict
	}

	r, ok := models.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("%w: role must be CENTRAL or BRANCH", ErrInvalidArgument)
	}
	if r == models.RoleBranch && strings.TrimSpace(branch) == "" {
		return nil, fmt.Errorf("%w: branch is required when role is BRANCH", ErrInvalidArgument)
	}
	if r == models.RoleCentral {
		branch = ""
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash password", "error", err)
		return nil, err
	}

	acc := &models.Account{
		Email:        email,
		PasswordHash: pwHash,
		Role:         r,
		Branch:       branch,
		Enabled:      true,
	}
	if err := s.Repo.CreateAccountIfNew(ctx, acc); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			l.Warn("register_conflict", "email", email)
			return nil, ErrConflict
		}
		l.Error("register_error", "error", err)
		return nil, err
	}

	if s.Producer != nil {
		event := map[string]any{
			"type":  "account_registered",
			"id":    acc.ID,
			"email": acc.Email,
			"role":  acc.Role,
		}
		if err := s.Producer.PublishEvent(ctx, accountTopic, acc.ID, event); err != nil {
			l.Error("kafka_publish_error", "error", err)
		}
	}

	l.Info("account_registered", "id", acc.ID, "role", acc.Role)
	return acc, nil
}

// Authenticate verifies an email/password pair against the account store.
// Unknown identity, wrong password and a disabled account all collapse
// into the same ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.Principal, error) {
	acc, err := s.Repo.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(acc.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !acc.Enabled {
		return nil, ErrInvalidCredentials
	}
	return &models.Principal{
		ID:      acc.ID,
		Email:   acc.Email,
		Role:    acc.Role,
		Branch:  acc.Branch,
		Enabled: acc.Enabled,
	}, nil
}

// Login authenticates and mints a token. The outward expiry comes from
// re-validating the freshly minted token rather than trusting the TTL.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	p, err := s.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			l.Warn("login_failed", "reason", "invalid credentials")
		} else {
			l.Error("login_failed", "error", err)
		}
		return nil, err
	}

	token, err := s.Codec.Generate(p.Email, string(p.Role), p.Branch)
	if err != nil {
		l.Error("login_failed", "reason", "cannot sign token", "error", err)
		return nil, err
	}

	var expiresAt int64
	claims, err := s.Codec.Validate(token)
	switch {
	case err == nil:
		expiresAt = claims.ExpiresAt.UnixMilli()
	case errors.Is(err, tokens.ErrTokenExpired):
		// Born expired under a zero/negative TTL; report 0 rather than
		// a misleading past timestamp.
		expiresAt = 0
	default:
		l.Error("login_failed", "reason", "cannot validate minted token", "error", err)
		return nil, err
	}

	l.Info("login_successful", "role", p.Role)
	return &AuthResponse{
		Token:           token,
		ExpiresAtMillis: expiresAt,
		Role:            p.Role,
		Branch:          p.Branch,
	}, nil
}
