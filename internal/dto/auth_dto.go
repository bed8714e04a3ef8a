package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/models"
	"github.com/google/uuid"
)

// Register also arrives as multipart/form-data when an avatar is attached,
// hence the form tags.
type RegisterRequest struct {
	Email           string `json:"email" form:"email" validate:"required,email" message:"Invalid email address"`
	Password        string `json:"password" form:"password" validate:"required,min=6" message:"Password must be at least 6 characters"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"eqfield=Password" message:"Passwords don't match"`
	FirstName       string `json:"firstName" form:"firstName" validate:"required,min=1" message:"First name is required"`
	LastName        string `json:"lastName" form:"lastName" validate:"required,min=1" message:"Last name is required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" message:"Invalid email address"`
	Password string `json:"password" validate:"required,min=6" message:"Password must be at least 6 characters"`
}

type ResetPasswordRequestRequest struct {
	Email string `json:"email" validate:"required,email" message:"Email not valid"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required" message:"Token is required"`
	Password        string `json:"password" validate:"required,min=6" message:"Password must be at least 6 characters"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is the redacted user view; it never carries the password
// hash or any token.
type UserResponse struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Role       string     `json:"role"`
	IsVerified bool       `json:"isVerified"`
	IsActive   bool       `json:"isActive"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
	AvatarID   *uuid.UUID `json:"avatarMediaId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role.Name,
		IsVerified: u.IsVerified,
		IsActive:   u.IsActive,
		LastLogin:  u.LastLogin,
		AvatarID:   u.AvatarMediaID,
		CreatedAt:  u.CreatedAt,
	}
}

// MeResponse echoes the verified session claims.
type MeResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type UserListResponse struct {
	Users  []UserResponse `json:"users"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
