// Package access decides whether a request may reach a protected route.
// It has no HTTP dependency; middleware adapts it to fiber.
package access

import (
	"errors"
	"net/http"
	"slices"
	"strings"
)

var (
	ErrMissingToken   = errors.New("missing token")
	ErrMalformedToken = errors.New("malformed token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden - insufficient role")
)

// Identity is what a verified session token says about its bearer.
type Identity struct {
	ID    string
	Email string
	Role  string
}

// ExtractBearer returns the token from an Authorization header value of the
// form "Bearer <token>".
func ExtractBearer(header string) (string, error) {
	if header == "" || !strings.HasPrefix(header, "Bearer") {
		return "", ErrMissingToken
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMalformedToken
	}
	return parts[1], nil
}

// Policy is the set of roles allowed through a gate.
type Policy struct {
	Allowed []string
}

func NewPolicy(roles ...string) Policy {
	return Policy{Allowed: roles}
}

// Authorize requires an identity carrying a role, and that role to be in p.
func Authorize(id *Identity, p Policy) error {
	if id == nil || id.Role == "" {
		return ErrUnauthorized
	}
	if !slices.Contains(p.Allowed, id.Role) {
		return ErrForbidden
	}
	return nil
}

// Status maps a gate error to its HTTP status and client message.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMissingToken):
		return http.StatusUnauthorized, "Missing token"
	case errors.Is(err, ErrMalformedToken):
		return http.StatusUnauthorized, "Malformed token"
	case errors.Is(err, ErrInvalidToken):
		return http.StatusForbidden, "Invalid token"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden, "Unauthorized"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "Forbidden - insufficient role"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
