// Package store persists user records, roles and media references.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// CredentialStore is the persistence capability the auth service needs.
// Every method is a single statement against the database.
type CredentialStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByVerifyToken(ctx context.Context, tokenHash string) (*models.User, error)
	// FindUserByResetToken only matches tokens whose expiry is after now.
	FindUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	FindRoleByName(ctx context.Context, name string) (*models.Role, error)

	CreateUser(ctx context.Context, user *models.User) error
	// MarkVerified flips the verified flag and clears the token, but only
	// while the stored token still equals tokenHash.
	MarkVerified(ctx context.Context, userID uuid.UUID, tokenHash string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	// SaveResetToken overwrites any earlier reset token.
	SaveResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	// ConsumeResetToken stores the new password and clears the reset token
	// in one statement, provided the token is still current at now.
	ConsumeResetToken(ctx context.Context, userID uuid.UUID, tokenHash, passwordHash string, now time.Time) error
	UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error

	ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error)
}
