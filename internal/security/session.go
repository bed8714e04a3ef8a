package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims is the payload of a bearer token.
type SessionClaims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the registered-claims checks whenever a token is
// parsed into SessionClaims, including by the HTTP middleware.
func (c *SessionClaims) Validate() error {
	switch {
	case c.ID == "":
		return errors.New("missing id claim")
	case c.Role == "":
		return errors.New("missing role claim")
	case c.ExpiresAt == nil:
		return jwt.ErrTokenRequiredClaimMissing
	}
	return nil
}

type SessionSubject struct {
	ID    string
	Email string
	Role  string
}

// SessionIssuer signs and verifies stateless HS256 session tokens.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	return &SessionIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for iat/exp and verification.
func (i *SessionIssuer) WithClock(now func() time.Time) *SessionIssuer {
	i.now = now
	return i
}

func (i *SessionIssuer) Issue(sub SessionSubject) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	claims := SessionClaims{
		ID:    sub.ID,
		Email: sub.Email,
		Role:  sub.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify is the entry point for callers outside the HTTP stack; the fiber
// middleware parses with KeyFunc and the same claims type. Verify checks
// signature and expiry in one pass. Every failure wraps
// ErrInvalidSessionToken; the cause is kept for logging.
func (i *SessionIssuer) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, i.KeyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSessionToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidSessionToken
	}
	return claims, nil
}

// KeyFunc resolves the signing key and pins the algorithm to HS256.
func (i *SessionIssuer) KeyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
	}
	return i.secret, nil
}
