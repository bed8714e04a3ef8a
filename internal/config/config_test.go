package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("RESET_TOKEN_TTL", "")
	t.Setenv("DEFAULT_ROLE", "")
	t.Setenv("MEDIA_BACKEND", "")
	t.Setenv("RATE_LIMIT_MAX", "")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("AUTH_RATE_LIMIT_MAX", "")
	t.Setenv("MAX_AVATAR_BYTES", "")

	cfg := Load()

	assert.Equal(t, time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, "COACH", cfg.DefaultRole)
	assert.Equal(t, "disk", cfg.MediaBackend)
	assert.Equal(t, int64(2<<20), cfg.MaxAvatarBytes)
	assert.Equal(t, 50, cfg.RateLimitMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 10, cfg.AuthRateLimitMax)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRES_IN", "15m")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("MAIL_WORKERS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.JWTExpiresIn)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.Equal(t, 2, cfg.MailWorkers, "invalid numbers fall back to the default")
}

func TestLoad_DayDurations(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "7d")
	t.Setenv("LOG_RETENTION", "30d")

	cfg := Load()

	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 30*24*time.Hour, cfg.LogRetention)
}

func TestLoad_MalformedValuesFailValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("MEDIA_BACKEND", "disk")
	t.Setenv("JWT_EXPIRES_IN", "a week")
	t.Setenv("RESET_TOKEN_TTL", "xd")
	t.Setenv("MAIL_WORKERS", "many")

	cfg := Load()
	assert.Equal(t, time.Hour, cfg.JWTExpiresIn)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `JWT_EXPIRES_IN: invalid duration "a week"`)
	assert.Contains(t, err.Error(), `RESET_TOKEN_TTL: invalid duration "xd"`)
	assert.Contains(t, err.Error(), `MAIL_WORKERS: invalid number "many"`)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWTSecret:    "secret",
			DBPassword:   "pw",
			JWTExpiresIn: time.Hour,
			MediaBackend: "disk",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing jwt secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "missing db password", mutate: func(c *Config) { c.DBPassword = "" }, wantErr: "DB_PASSWORD"},
		{name: "smtp user without pass", mutate: func(c *Config) { c.SMTPUser = "u" }, wantErr: "SMTP_USER and SMTP_PASS"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.MediaBackend = "s3" }, wantErr: "S3_BUCKET"},
		{name: "unknown media backend", mutate: func(c *Config) { c.MediaBackend = "ftp" }, wantErr: "MEDIA_BACKEND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
