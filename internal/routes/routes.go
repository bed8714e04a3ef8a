package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/security"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	issuer *security.SessionIssuer,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
) {
	// Uploaded avatars on the disk backend
	if cfg.MediaBackend == "disk" {
		app.Static("/uploads", cfg.UploadDir)
	}

	api := app.Group("/api")

	// General API rate limiter: 50 req / 15 min per IP
	if cfg.RateLimitMax > 0 {
		api.Use(rateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow))
	}

	api.Get("/health", healthHandler.Check)

	// Auth-specific rate limit, stricter
	auth := api.Group("/auth")
	if cfg.AuthRateLimitMax > 0 {
		auth.Use(rateLimiter(cfg.AuthRateLimitMax, cfg.AuthRateLimitWindow))
	}
	auth.Post("/register", authHandler.Register)
	auth.Get("/verify", authHandler.VerifyEmail)
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password-request", authHandler.ResetPasswordRequest)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// Authenticated per route so public auth routes stay open
	authenticated := middleware.Authenticated(issuer)
	auth.Post("/logout", authenticated, authHandler.Logout)
	auth.Get("/me", authenticated, authHandler.Me)

	admin := api.Group("/admin", authenticated, middleware.RequireRoles(models.RoleSuperAdmin))
	admin.Get("/users", adminHandler.ListUsers)
}

func rateLimiter(limit int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: true, Message: "Too many requests, please try again later.",
			})
		},
	})
}
