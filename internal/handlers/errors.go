package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/media"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

var serviceErrors = []struct {
	err     error
	status  int
	message string
}{
	{services.ErrPasswordMismatch, fiber.StatusBadRequest, "Passwords don't match"},
	{services.ErrEmailTaken, fiber.StatusBadRequest, "Email exists already"},
	{services.ErrInvalidCredentials, fiber.StatusBadRequest, "Incorrect email or password"},
	{services.ErrAccountNotVerified, fiber.StatusForbidden, "Account not verified, please check your emails"},
	{services.ErrAccountDisabled, fiber.StatusForbidden, "Account disabled"},
	{services.ErrInvalidToken, fiber.StatusBadRequest, "Invalid token"},
	{services.ErrInvalidOrExpiredToken, fiber.StatusBadRequest, "Invalid or expired token"},
	{media.ErrUnsupportedType, fiber.StatusBadRequest, "Avatar must be a JPEG, PNG, WebP or GIF image"},
	{media.ErrTooLarge, fiber.StatusBadRequest, "Avatar file is too large"},
}

// serviceError writes the stable status and message for a service error.
// Anything unrecognised is logged and reported as a 500 without detail.
func serviceError(c *fiber.Ctx, action string, err error) error {
	for _, e := range serviceErrors {
		if errors.Is(err, e.err) {
			return fail(c, e.status, e.message)
		}
	}

	slog.ErrorContext(c.UserContext(), "request failed",
		"action", action,
		"path", c.Path(),
		"trace_id", requestID(c),
		"error", err,
	)
	return fail(c, fiber.StatusInternalServerError, "Internal server error")
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

// ErrorHandler is the fiber error handler. Client errors keep their
// message; server errors are logged and masked.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= 500 {
		slog.Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"trace_id", requestID(c),
			"error", err.Error(),
		)
		message = "Internal server error"
	}

	return fail(c, code, message)
}
