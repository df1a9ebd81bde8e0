// Package tokens owns the signing secret and turns principal claims into
// bearer tokens and back. Nothing outside a verified signature is ever
// trusted as a claim.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired means the signature verified but the token is past
	// its expiry. Terminal for the request, never retried.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed covers everything else: bad structure, wrong
	// algorithm, signature mismatch.
	ErrTokenMalformed = errors.New("token malformed")
)

// Claims is the self-contained session payload: subject is the account
// email, branch is set only for BRANCH-role accounts.
type Claims struct {
	Role   string `json:"role"`
	Branch string `json:"branch,omitempty"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl}
}

// Generate signs identity/role/branch into an HS256 token with
// iat = now and exp = now + ttl.
func (c *Codec) Generate(identity, role, branch string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:   role,
		Branch: branch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Validate parses and verifies a presented token. Signature failures win
// over expiry: a tampered token reports ErrTokenMalformed even when its
// exp lies in the past. Expiry is strict, a token whose exp equals the
// current instant is already expired.
func (c *Codec) Validate(raw string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return c.secret, nil
	})
	switch {
	case err == nil && tkn.Valid:
		return &claims, nil
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrTokenMalformed
	}
}

// IsExpired reports whether a token failed validation solely because it
// is stale.
func (c *Codec) IsExpired(raw string) bool {
	_, err := c.Validate(raw)
	return errors.Is(err, ErrTokenExpired)
}

// ExtractIdentity returns the verified subject of a token.
func (c *Codec) ExtractIdentity(raw string) (string, error) {
	claims, err := c.Validate(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// TTL exposes the configured token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }
