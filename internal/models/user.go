package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that signs in with email and password.
// VerifyToken and ResetToken hold SHA-256 hashes of the single-use tokens
// mailed to the user, never the raw values.
type User struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RoleID              uint       `gorm:"not null;index" json:"-"`
	Role                Role       `gorm:"foreignKey:RoleID" json:"role"`
	Email               string     `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	FirstName           string     `gorm:"size:100;not null" json:"first_name"`
	LastName            string     `gorm:"size:100;not null" json:"last_name"`
	IsVerified          bool       `gorm:"not null;default:false" json:"is_verified"`
	VerifyToken         *string    `gorm:"size:64;uniqueIndex" json:"-"`
	ResetToken          *string    `gorm:"size:64;uniqueIndex" json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	IsActive            bool       `gorm:"not null;default:true" json:"is_active"`
	LastLogin           *time.Time `json:"last_login"`
	AvatarMediaID       *uuid.UUID `gorm:"type:uuid" json:"avatar_media_id"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
