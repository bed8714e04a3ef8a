package handlers

import (
	"mime/multipart"
	"strings"

	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/media"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register accepts JSON, or multipart/form-data with an optional "avatar" file.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if res := validation.Register(&req); !res.OK() {
		return fail(c, fiber.StatusBadRequest, res.Message())
	}

	in := services.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	}

	avatar, closeAvatar, err := avatarUpload(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid avatar upload")
	}
	defer closeAvatar()
	in.Avatar = avatar

	res, err := h.authService.Register(c.UserContext(), in)
	if err != nil {
		return serviceError(c, "register", err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{Message: res.Message})
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	if err := h.authService.VerifyEmail(c.UserContext(), c.Query("token")); err != nil {
		return serviceError(c, "verify_email", err)
	}
	return c.JSON(dto.MessageResponse{Message: "Email verified. You can now login"})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if res := validation.Login(&req); !res.OK() {
		return fail(c, fiber.StatusBadRequest, res.Message())
	}

	res, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return serviceError(c, "login", err)
	}

	return c.JSON(dto.LoginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      res.User,
	})
}

func (h *AuthHandler) ResetPasswordRequest(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if res := validation.ResetPasswordRequest(&req); !res.OK() {
		return fail(c, fiber.StatusBadRequest, res.Message())
	}

	msg := h.authService.ResetPasswordRequest(c.UserContext(), req.Email)
	return c.JSON(dto.MessageResponse{Message: msg})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if res := validation.ResetPassword(&req); !res.OK() {
		return fail(c, fiber.StatusBadRequest, res.Message())
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		return serviceError(c, "reset_password", err)
	}
	return c.JSON(dto.MessageResponse{Message: "Password reset successfully."})
}

// Logout only acknowledges; sessions are stateless and end when the client
// drops the token or it expires.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		return fail(c, fiber.StatusForbidden, "Unauthorized")
	}
	return c.JSON(dto.MeResponse{ID: id.ID, Email: id.Email, Role: id.Role})
}

func avatarUpload(c *fiber.Ctx) (*media.Upload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, noop, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, err
	}
	files := form.File["avatar"]
	if len(files) == 0 {
		return nil, noop, nil
	}
	fh := files[0]

	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &media.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, closer(f), nil
}

func closer(f multipart.File) func() {
	return func() { _ = f.Close() }
}
