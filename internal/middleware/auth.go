package middleware

import (
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/access"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/security"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenKey    = "user"
	IdentityKey = "identity"
)

// Authenticated verifies the bearer token and stores the caller's
// *access.Identity under IdentityKey.
func Authenticated(issuer *security.SessionIssuer) fiber.Handler {
	verify := jwtware.New(jwtware.Config{
		KeyFunc:    issuer.KeyFunc,
		Claims:     &security.SessionClaims{},
		ContextKey: tokenKey,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals(tokenKey).(*jwt.Token)
			if !ok {
				return deny(c, access.ErrInvalidToken)
			}
			// SessionClaims.Validate has already required id, role and exp
			claims, ok := token.Claims.(*security.SessionClaims)
			if !ok {
				return deny(c, access.ErrInvalidToken)
			}

			c.Locals(IdentityKey, &access.Identity{
				ID:    claims.ID,
				Email: claims.Email,
				Role:  claims.Role,
			})
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			return deny(c, access.ErrInvalidToken)
		},
	})

	return func(c *fiber.Ctx) error {
		if _, err := access.ExtractBearer(c.Get(fiber.HeaderAuthorization)); err != nil {
			return deny(c, err)
		}
		return verify(c)
	}
}

// RequireRoles must run after Authenticated.
func RequireRoles(roles ...string) fiber.Handler {
	policy := access.NewPolicy(roles...)

	return func(c *fiber.Ctx) error {
		id, _ := GetIdentity(c)
		if err := access.Authorize(id, policy); err != nil {
			return deny(c, err)
		}
		return c.Next()
	}
}

func GetIdentity(c *fiber.Ctx) (*access.Identity, bool) {
	id, ok := c.Locals(IdentityKey).(*access.Identity)
	return id, ok && id != nil
}

func deny(c *fiber.Ctx, err error) error {
	code, msg := access.Status(err)
	return c.Status(code).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}
