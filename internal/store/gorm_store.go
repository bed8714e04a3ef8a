package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements CredentialStore on top of gorm. It is used with the
// Postgres driver in production and SQLite in tests.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *GormStore) FindUserByVerifyToken(ctx context.Context, tokenHash string) (*models.User, error) {
	return s.findUser(ctx, "verify_token = ?", tokenHash)
}

func (s *GormStore) FindUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return s.findUser(ctx, "reset_token = ? AND reset_token_expires_at > ?", tokenHash, now)
}

func (s *GormStore) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translate("find role", err)
	}
	return &role, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		return translate("create user", err)
	}
	return nil
}

func (s *GormStore) MarkVerified(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND verify_token = ?", userID, tokenHash).
		Updates(map[string]interface{}{
			"is_verified":  true,
			"verify_token": nil,
		})
	return affectedOne("mark verified", result)
}

func (s *GormStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password", passwordHash)
	return affectedOne("update password", result)
}

func (s *GormStore) SaveResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reset_token":            tokenHash,
			"reset_token_expires_at": expiresAt,
		})
	return affectedOne("save reset token", result)
}

func (s *GormStore) ConsumeResetToken(ctx context.Context, userID uuid.UUID, tokenHash, passwordHash string, now time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND reset_token = ? AND reset_token_expires_at > ?", userID, tokenHash, now).
		Updates(map[string]interface{}{
			"password":               passwordHash,
			"reset_token":            nil,
			"reset_token_expires_at": nil,
		})
	return affectedOne("consume reset token", result)
}

func (s *GormStore) UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login", at)
	return affectedOne("update last login", result)
}

func (s *GormStore) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, translate("count users", err)
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, translate("list users", err)
	}
	return users, total, nil
}

// CreateMedia records an uploaded file so users can reference it.
func (s *GormStore) CreateMedia(ctx context.Context, media *models.Media) error {
	if media.ID == uuid.Nil {
		media.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(media).Error; err != nil {
		return translate("create media", err)
	}
	return nil
}

// DeleteMedia removes a media row. A missing row is not an error.
func (s *GormStore) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	if err := s.db.WithContext(ctx).Delete(&models.Media{}, "id = ?", id).Error; err != nil {
		return translate("delete media", err)
	}
	return nil
}

func (s *GormStore) findUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Role").Where(query, args...).First(&user).Error; err != nil {
		return nil, translate("find user", err)
	}
	return &user, nil
}

func affectedOne(op string, result *gorm.DB) error {
	if result.Error != nil {
		return translate(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUniqueViolation(err):
		return ErrDuplicateEmail
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// isUniqueViolation recognises duplicate keys from gorm's error translation,
// raw Postgres errors and SQLite's constraint message.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
