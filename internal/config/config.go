package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Session tokens
	JWTSecret    string
	JWTExpiresIn time.Duration

	// Single-use tokens and registration defaults
	ResetTokenTTL time.Duration
	DefaultRole   string

	// Links embedded in outgoing mail
	AppBaseURL string

	// SMTP (mail is only logged when SMTPHost is empty)
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	MailFrom      string
	MailWorkers   int
	MailQueueSize int

	// Media
	MediaBackend   string
	UploadDir      string
	MaxAvatarBytes int64
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string

	// Server
	Port         string
	CORSOrigins  string
	LogLevel     string
	LogRetention time.Duration

	// Rate limits per client IP; a max of 0 disables the limiter
	RateLimitMax        int
	RateLimitWindow     time.Duration
	AuthRateLimitMax    int
	AuthRateLimitWindow time.Duration

	// Error tracking
	SentryDSN string
	AppEnv    string

	// values that could not be parsed; reported by Validate
	loadErrs []error
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "coachhub"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTExpiresIn: env.duration("JWT_EXPIRES_IN", "1h"),

		ResetTokenTTL: env.duration("RESET_TOKEN_TTL", "1h"),
		DefaultRole:   getEnv("DEFAULT_ROLE", "COACH"),

		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000/api"),

		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      env.integer("SMTP_PORT", 587),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPass:      getEnv("SMTP_PASS", ""),
		MailFrom:      getEnv("MAIL_FROM", "Authentication API <no-reply@localhost>"),
		MailWorkers:   env.integer("MAIL_WORKERS", 2),
		MailQueueSize: env.integer("MAIL_QUEUE_SIZE", 100),

		MediaBackend:   getEnv("MEDIA_BACKEND", "disk"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxAvatarBytes: int64(env.integer("MAX_AVATAR_BYTES", 2097152)),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),

		Port:         getEnv("PORT", "3000"),
		CORSOrigins:  getEnv("CORS_ORIGINS", "*"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogRetention: env.duration("LOG_RETENTION", "720h"),

		RateLimitMax:        env.integer("RATE_LIMIT_MAX", 50),
		RateLimitWindow:     env.duration("RATE_LIMIT_WINDOW", "15m"),
		AuthRateLimitMax:    env.integer("AUTH_RATE_LIMIT_MAX", 10),
		AuthRateLimitWindow: env.duration("AUTH_RATE_LIMIT_WINDOW", "1m"),

		SentryDSN: getEnv("SENTRY_DSN", ""),
		AppEnv:    getEnv("APP_ENV", "development"),
	}
	cfg.loadErrs = env.errs
	return cfg
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.loadErrs...)
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}
	if c.DBPassword == "" {
		errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
	}
	if c.JWTExpiresIn <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if (c.SMTPUser == "") != (c.SMTPPass == "") {
		errs = append(errs, errors.New("SMTP_USER and SMTP_PASS must be set together"))
	}
	switch c.MediaBackend {
	case "disk":
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when MEDIA_BACKEND=s3"))
		}
	default:
		errs = append(errs, errors.New("MEDIA_BACKEND must be one of: disk, s3"))
	}
	return errors.Join(errs...)
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// SMTPEnabled reports whether outgoing mail should go through SMTP.
func (c *Config) SMTPEnabled() bool {
	return strings.TrimSpace(c.SMTPHost) != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// envReader parses typed variables, keeping the default and recording an
// error when a value is malformed.
type envReader struct {
	errs []error
}

func (r *envReader) duration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := parseDuration(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		d, _ = parseDuration(fallback)
	}
	return d
}

func (r *envReader) integer(key string, fallback int) int {
	raw := getEnv(key, strconv.Itoa(fallback))
	n, err := strconv.Atoi(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid number %q", key, raw))
		return fallback
	}
	return n
}

// parseDuration accepts Go durations plus whole days ("7d").
func parseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
