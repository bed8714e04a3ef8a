package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/media"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/security"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/store"
	"github.com/google/uuid"
)

const (
	RegisteredMessage   = "Account created, please verify your email"
	ResetRequestMessage = "If this email exists, a reset link has been sent."

	defaultResetTTL = time.Hour
)

// AvatarRegistrar stores an uploaded avatar and returns its media record.
// DiscardAvatar removes one again when the account is not created.
type AvatarRegistrar interface {
	RegisterAvatar(ctx context.Context, up media.Upload) (*models.Media, error)
	DiscardAvatar(ctx context.Context, m *models.Media) error
}

type AuthService struct {
	store    store.CredentialStore
	hasher   security.PasswordHasher
	sessions *security.SessionIssuer
	notifier mailer.Notifier
	avatars  AvatarRegistrar

	now         func() time.Time
	resetTTL    time.Duration
	defaultRole string

	// dummyHash is verified against when the email is unknown so both
	// login failures cost the same.
	dummyHash string
}

type Option func(*AuthService)

func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

func WithResetTTL(ttl time.Duration) Option {
	return func(s *AuthService) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

func WithDefaultRole(name string) Option {
	return func(s *AuthService) {
		if name != "" {
			s.defaultRole = name
		}
	}
}

func WithAvatarRegistrar(r AvatarRegistrar) Option {
	return func(s *AuthService) { s.avatars = r }
}

func NewAuthService(
	st store.CredentialStore,
	hasher security.PasswordHasher,
	sessions *security.SessionIssuer,
	notifier mailer.Notifier,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		store:       st,
		hasher:      hasher,
		sessions:    sessions,
		notifier:    notifier,
		now:         func() time.Time { return time.Now().UTC() },
		resetTTL:    defaultResetTTL,
		defaultRole: models.RoleCoach,
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		slog.Error("failed to prepare dummy hash", "error", err)
	}
	s.dummyHash = dummy
	return s
}

type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	Avatar          *media.Upload
}

type RegisterResult struct {
	UserID  uuid.UUID
	Message string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	if _, err := s.store.FindUserByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, storageErr("find user", err)
	}

	role, err := s.store.FindRoleByName(ctx, s.defaultRole)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDefaultRoleMissing, s.defaultRole)
		}
		return nil, storageErr("find role", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verifyToken, err := security.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	verifyHash := security.HashOpaqueToken(verifyToken)

	user := models.User{
		ID:          uuid.New(),
		RoleID:      role.ID,
		Email:       in.Email,
		Password:    hash,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		VerifyToken: &verifyHash,
		IsActive:    true,
	}

	var avatar *models.Media
	if in.Avatar != nil {
		if s.avatars == nil {
			slog.WarnContext(ctx, "avatar upload ignored, media storage not configured", "action", "register")
		} else {
			up := *in.Avatar
			up.UploadedBy = &user.ID
			m, err := s.avatars.RegisterAvatar(ctx, up)
			if err != nil {
				if errors.Is(err, media.ErrUnsupportedType) || errors.Is(err, media.ErrTooLarge) {
					return nil, err
				}
				return nil, storageErr("store avatar", err)
			}
			avatar = m
			user.AvatarMediaID = &m.ID
		}
	}

	if err := s.store.CreateUser(ctx, &user); err != nil {
		if avatar != nil {
			s.discardAvatar(ctx, avatar)
		}
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, storageErr("create user", err)
	}

	if err := s.notifier.SendVerification(ctx, user.Email, verifyToken); err != nil {
		slog.ErrorContext(ctx, "failed to queue verification mail",
			"action", "register",
			"user_id", user.ID.String(),
			"error", err,
		)
	}

	slog.InfoContext(ctx, "user registered", "action", "register", "user_id", user.ID.String())
	return &RegisterResult{UserID: user.ID, Message: RegisteredMessage}, nil
}

func (s *AuthService) discardAvatar(ctx context.Context, m *models.Media) {
	if err := s.avatars.DiscardAvatar(ctx, m); err != nil {
		slog.WarnContext(ctx, "failed to discard avatar of unregistered user",
			"action", "register",
			"media_id", m.ID.String(),
			"error", err,
		)
	}
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	tokenHash := security.HashOpaqueToken(token)

	user, err := s.store.FindUserByVerifyToken(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return storageErr("find user", err)
	}

	// a concurrent verification may have consumed the token in between
	if err := s.store.MarkVerified(ctx, user.ID, tokenHash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return storageErr("mark verified", err)
	}

	slog.InfoContext(ctx, "email verified", "action", "verify_email", "user_id", user.ID.String())
	return nil
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      dto.UserResponse
}

// Login checks verification and active status before the password, so an
// unverified or disabled account is reported as such even with a wrong
// password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, storageErr("find user", err)
	}

	if !user.IsVerified {
		return nil, ErrAccountNotVerified
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	ok, err := s.hasher.Verify(password, user.Password)
	if err != nil {
		slog.ErrorContext(ctx, "stored password hash unreadable",
			"action", "login",
			"user_id", user.ID.String(),
			"error", err,
		)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.store.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, storageErr("update last login", err)
	}
	user.LastLogin = &now

	if s.hasher.NeedsUpgrade(user.Password) {
		s.upgradeHash(ctx, user.ID, password)
	}

	token, expiresAt, err := s.sessions.Issue(security.SessionSubject{
		ID:    user.ID.String(),
		Email: user.Email,
		Role:  user.Role.Name,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	}, nil
}

func (s *AuthService) upgradeHash(ctx context.Context, userID uuid.UUID, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.store.UpdatePassword(ctx, userID, hash)
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to upgrade password hash", "user_id", userID.String(), "error", err)
	}
}

// ResetPasswordRequest always answers with the same acknowledgment. Lookup
// and delivery faults are logged only, so the answer never depends on
// whether the email is registered.
func (s *AuthService) ResetPasswordRequest(ctx context.Context, email string) string {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.ErrorContext(ctx, "reset request lookup failed", "action", "reset_request", "error", err)
		}
		return ResetRequestMessage
	}

	token, err := security.NewOpaqueToken()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate reset token", "action", "reset_request", "error", err)
		return ResetRequestMessage
	}

	expiresAt := s.now().Add(s.resetTTL)
	if err := s.store.SaveResetToken(ctx, user.ID, security.HashOpaqueToken(token), expiresAt); err != nil {
		slog.ErrorContext(ctx, "failed to save reset token",
			"action", "reset_request",
			"user_id", user.ID.String(),
			"error", err,
		)
		return ResetRequestMessage
	}

	if err := s.notifier.SendPasswordReset(ctx, user.Email, token); err != nil {
		slog.ErrorContext(ctx, "failed to queue reset mail",
			"action", "reset_request",
			"user_id", user.ID.String(),
			"error", err,
		)
	}
	return ResetRequestMessage
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirmPassword string) error {
	if password != confirmPassword {
		return ErrPasswordMismatch
	}
	if token == "" {
		return ErrInvalidOrExpiredToken
	}

	now := s.now()
	tokenHash := security.HashOpaqueToken(token)

	user, err := s.store.FindUserByResetToken(ctx, tokenHash, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return storageErr("find user", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.ConsumeResetToken(ctx, user.ID, tokenHash, hash, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return storageErr("consume reset token", err)
	}

	slog.InfoContext(ctx, "password reset", "action", "reset_password", "user_id", user.ID.String())
	return nil
}

func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]dto.UserResponse, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := s.store.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, 0, storageErr("list users", err)
	}

	out := make([]dto.UserResponse, len(users))
	for i := range users {
		out[i] = dto.NewUserResponse(&users[i])
	}
	return out, total, nil
}
