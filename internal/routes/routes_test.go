package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/media"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/security"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type captureNotifier struct {
	mu     sync.Mutex
	verify map[string]string
	reset  map[string]string
}

func (n *captureNotifier) SendVerification(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verify[email] = token
	return nil
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reset[email] = token
	return nil
}

type testServer struct {
	app      *fiber.App
	db       *gorm.DB
	store    *store.GormStore
	notifier *captureNotifier
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := &config.Config{
		MediaBackend:   "disk",
		UploadDir:      t.TempDir(),
		MaxAvatarBytes: 1 << 20,
	}
	for _, m := range mutate {
		m(cfg)
	}

	db := dbtest.Open(t)
	st := store.NewGormStore(db)
	n := &captureNotifier{verify: map[string]string{}, reset: map[string]string{}}
	issuer := security.NewSessionIssuer("test-secret", time.Hour)

	disk, err := media.NewDiskStorage(cfg.UploadDir, "/uploads")
	require.NoError(t, err)

	svc := services.NewAuthService(st,
		security.NewArgon2idHasher(security.Argon2Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}),
		issuer, n,
		services.WithAvatarRegistrar(media.NewRegistrar(disk, st, cfg.MaxAvatarBytes)),
	)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	Setup(app, cfg, issuer,
		handlers.NewAuthHandler(svc),
		handlers.NewAdminHandler(svc),
		handlers.NewHealthHandler(db),
	)

	return &testServer{app: app, db: db, store: st, notifier: n}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b
}

func message(t *testing.T, body []byte) string {
	t.Helper()
	var m struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(body, &m), string(body))
	return m.Message
}

func registerBody(email string) map[string]string {
	return map[string]string{
		"email":           email,
		"password":        "secret1",
		"confirmPassword": "secret1",
		"firstName":       "A",
		"lastName":        "B",
	}
}

func (s *testServer) login(t *testing.T, email, password string) dto.LoginResponse {
	t.Helper()
	code, body := s.do(t, "POST", "/api/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, 200, code, string(body))
	var res dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &res))
	return res
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, "POST", "/api/auth/register", registerBody("a@x.com"), "")
	require.Equal(t, 201, code, string(body))
	assert.Equal(t, "Account created, please verify your email", message(t, body))

	code, body = s.do(t, "POST", "/api/auth/login", map[string]string{"email": "a@x.com", "password": "secret1"}, "")
	assert.Equal(t, 403, code)
	assert.Equal(t, "Account not verified, please check your emails", message(t, body))

	token := s.notifier.verify["a@x.com"]
	code, body = s.do(t, "GET", "/api/auth/verify?token="+token, nil, "")
	require.Equal(t, 200, code, string(body))
	assert.Equal(t, "Email verified. You can now login", message(t, body))

	code, body = s.do(t, "GET", "/api/auth/verify?token="+token, nil, "")
	assert.Equal(t, 400, code)
	assert.Equal(t, "Invalid token", message(t, body))

	res := s.login(t, "a@x.com", "secret1")
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.Equal(t, models.RoleCoach, res.User.Role)

	code, body = s.do(t, "GET", "/api/auth/me", nil, res.Token)
	require.Equal(t, 200, code)
	var me dto.MeResponse
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "a@x.com", me.Email)
	assert.Equal(t, models.RoleCoach, me.Role)

	code, _ = s.do(t, "POST", "/api/auth/logout", nil, res.Token)
	assert.Equal(t, 200, code)
}

func TestLoginResponseIsRedacted(t *testing.T) {
	s := newTestServer(t)
	s.do(t, "POST", "/api/auth/register", registerBody("a@x.com"), "")
	s.do(t, "GET", "/api/auth/verify?token="+s.notifier.verify["a@x.com"], nil, "")

	_, body := s.do(t, "POST", "/api/auth/login", map[string]string{"email": "a@x.com", "password": "secret1"}, "")

	assert.NotContains(t, string(body), "argon2id")
	assert.NotContains(t, strings.ToLower(string(body)), "password")
	assert.NotContains(t, strings.ToLower(string(body)), "verify_token")
}

func TestAdminGate(t *testing.T) {
	s := newTestServer(t)
	s.do(t, "POST", "/api/auth/register", registerBody("coach@x.com"), "")
	s.do(t, "GET", "/api/auth/verify?token="+s.notifier.verify["coach@x.com"], nil, "")
	coach := s.login(t, "coach@x.com", "secret1")

	code, body := s.do(t, "GET", "/api/admin/users", nil, coach.Token)
	assert.Equal(t, 403, code)
	assert.Equal(t, "Forbidden - insufficient role", message(t, body))

	code, body = s.do(t, "GET", "/api/admin/users", nil, "")
	assert.Equal(t, 401, code)
	assert.Equal(t, "Missing token", message(t, body))

	var admin models.Role
	require.NoError(t, s.db.Where("name = ?", models.RoleSuperAdmin).First(&admin).Error)
	require.NoError(t, s.db.Model(&models.User{}).Where("email = ?", "coach@x.com").Update("role_id", admin.ID).Error)
	promoted := s.login(t, "coach@x.com", "secret1")

	code, body = s.do(t, "GET", "/api/admin/users?limit=500", nil, promoted.Token)
	require.Equal(t, 200, code, string(body))
	var list dto.UserListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 100, list.Limit)
	require.Len(t, list.Users, 1)
	assert.Equal(t, models.RoleSuperAdmin, list.Users[0].Role)
}

func TestRegisterValidationAndConflicts(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, "POST", "/api/auth/register", map[string]string{"email": "bad", "password": "123"}, "")
	assert.Equal(t, 400, code)
	assert.Equal(t,
		"Invalid email address, Password must be at least 6 characters, Passwords don't match, First name is required, Last name is required",
		message(t, body))

	code, _ = s.do(t, "POST", "/api/auth/register", registerBody("a@x.com"), "")
	require.Equal(t, 201, code)

	code, body = s.do(t, "POST", "/api/auth/register", registerBody("a@x.com"), "")
	assert.Equal(t, 400, code)
	assert.Equal(t, "Email exists already", message(t, body))

	req := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	code, body = s.send(t, req)
	assert.Equal(t, 400, code)
	assert.Equal(t, "Invalid request body", message(t, body))
}

func TestLoginErrorsLookAlike(t *testing.T) {
	s := newTestServer(t)
	s.do(t, "POST", "/api/auth/register", registerBody("a@x.com"), "")
	s.do(t, "GET", "/api/auth/verify?token="+s.notifier.verify["a@x.com"], nil, "")

	codeUnknown, bodyUnknown := s.do(t, "POST", "/api/auth/login", map[string]string{"email": "no@x.com", "password": "secret1"}, "")
	codeWrong, bodyWrong := s.do(t, "POST", "/api/auth/login", map[string]string{"email": "a@x.com", "password": "wrong12"}, "")

	assert.Equal(t, 400, codeUnknown)
	assert.Equal(t, codeUnknown, codeWrong)
	assert.Equal(t, string(bodyUnknown), string(bodyWrong))
}

func TestResetPasswordFlow(t *testing.T) {
	s := newTestServer(t)
	s.do(t, "POST", "/api/auth/register", registerBody("a@x.com"), "")
	s.do(t, "GET", "/api/auth/verify?token="+s.notifier.verify["a@x.com"], nil, "")

	codeKnown, bodyKnown := s.do(t, "POST", "/api/auth/reset-password-request", map[string]string{"email": "a@x.com"}, "")
	codeUnknown, bodyUnknown := s.do(t, "POST", "/api/auth/reset-password-request", map[string]string{"email": "no@x.com"}, "")
	assert.Equal(t, 200, codeKnown)
	assert.Equal(t, codeKnown, codeUnknown)
	assert.Equal(t, string(bodyKnown), string(bodyUnknown))

	code, body := s.do(t, "POST", "/api/auth/reset-password-request", map[string]string{"email": "nope"}, "")
	assert.Equal(t, 400, code)
	assert.Equal(t, "Email not valid", message(t, body))

	token := s.notifier.reset["a@x.com"]
	require.NotEmpty(t, token)

	reset := map[string]string{"token": token, "password": "newpass1", "confirmPassword": "newpass1"}
	code, body = s.do(t, "POST", "/api/auth/reset-password", reset, "")
	require.Equal(t, 200, code, string(body))
	assert.Equal(t, "Password reset successfully.", message(t, body))

	code, body = s.do(t, "POST", "/api/auth/reset-password", reset, "")
	assert.Equal(t, 400, code)
	assert.Equal(t, "Invalid or expired token", message(t, body))

	s.login(t, "a@x.com", "newpass1")
}

func TestRegisterWithAvatar(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range registerBody("pic@x.com") {
		require.NoError(t, w.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="avatar"; filename="me.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/auth/register", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	code, body := s.send(t, req)
	require.Equal(t, 201, code, string(body))

	user, err := s.store.FindUserByEmail(context.Background(), "pic@x.com")
	require.NoError(t, err)
	require.NotNil(t, user.AvatarMediaID)

	var m models.Media
	require.NoError(t, s.db.First(&m, "id = ?", *user.AvatarMediaID).Error)
	assert.Equal(t, "image/png", m.MimeType)
	require.NotNil(t, m.UploadedBy)
	assert.Equal(t, user.ID, *m.UploadedBy)

	code, _ = s.send(t, httptest.NewRequest("GET", m.URL, nil))
	assert.Equal(t, 200, code)
}

func TestRegisterRejectsNonImageAvatar(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range registerBody("pdf@x.com") {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile("avatar", "cv.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/auth/register", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	code, body := s.send(t, req)
	assert.Equal(t, 400, code)
	assert.Equal(t, "Avatar must be a JPEG, PNG, WebP or GIF image", message(t, body))

	_, err = s.store.FindUserByEmail(context.Background(), "pdf@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, "GET", "/api/health", nil, "")
	require.Equal(t, 200, code)
	var h dto.HealthResponse
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "ok", h.DB)
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.AuthRateLimitMax = 2
		c.AuthRateLimitWindow = time.Minute
	})

	for range 2 {
		code, _ := s.do(t, "GET", "/api/auth/verify?token=x", nil, "")
		assert.Equal(t, 400, code)
	}
	code, body := s.do(t, "GET", "/api/auth/verify?token=x", nil, "")
	assert.Equal(t, 429, code)
	assert.Equal(t, "Too many requests, please try again later.", message(t, body))

	code, _ = s.do(t, "GET", "/api/health", nil, "")
	assert.Equal(t, 200, code)
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Get("/missing", func(*fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "Not here") })
	app.Get("/boom", func(*fiber.Ctx) error { return errors.New("pq: connection reset") })

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "Not here", message(t, b))

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "Internal server error", message(t, b))
	assert.NotContains(t, string(b), "pq")
}
