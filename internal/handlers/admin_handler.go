package handlers

import (
	"strconv"

	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	authService *services.AuthService
}

func NewAdminHandler(authService *services.AuthService) *AdminHandler {
	return &AdminHandler{authService: authService}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	if limit > 100 {
		limit = 100
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := h.authService.ListUsers(c.UserContext(), limit, offset)
	if err != nil {
		return serviceError(c, "list_users", err)
	}

	return c.JSON(dto.UserListResponse{
		Users:  users,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}
