package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/token"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	app  *fiber.App
	repo *store.MemoryRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{AdminEmails: "admin@example.com"}
	codec, err := token.New(token.Config{
		Secret:     "handlers-test-secret-0123456789abcdef",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	repo := store.NewMemoryRepository()
	hasher := services.NewBcryptHasher(bcrypt.MinCost)
	authService := services.NewAuthService(repo, codec, hasher)
	userService := services.NewUserService(repo, hasher, authService)
	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(userService)
	healthHandler := NewHealthHandler(func(context.Context) error { return nil }, cfg, 2)
	policy := middleware.NewAdminPolicy(cfg)

	app := fiber.New()
	api := app.Group("/api", middleware.Authenticate(codec, repo.Users()))
	api.Get("/health", healthHandler.Check)

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/logout-all", middleware.RequireAuth(), authHandler.LogoutAll)
	auth.Get("/sessions", middleware.RequireAuth(), authHandler.Sessions)

	users := api.Group("/users", middleware.RequireAuth())
	users.Get("/me", userHandler.Me)
	users.Patch("/me", userHandler.UpdateMe)
	users.Patch("/me/password", userHandler.ChangePassword)
	users.Get("/", middleware.AdminRequired(policy), userHandler.List)
	users.Get("/:id", userHandler.Get)
	users.Delete("/:id", middleware.AdminRequired(policy), userHandler.Delete)
	api.Patch("/admin/users/:id/status", middleware.AdminRequired(policy), userHandler.SetStatus)

	return &testServer{app: app, repo: repo}
}

type response struct {
	status int
	body   []byte
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body interface{}, headers ...string) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, body: b}
}

func decode[T any](t *testing.T, r response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.body, &v), string(r.body))
	return v
}

func (s *testServer) register(t *testing.T, username string) dto.AuthResponse {
	t.Helper()
	r := s.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Test " + username, "username": username, "email": username + "@example.com", "password": "Str0ng!pass",
	})
	require.Equal(t, http.StatusCreated, r.status, string(r.body))
	return decode[dto.AuthResponse](t, r)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	env := s.register(t, "ana")
	assert.NotEmpty(t, env.AccessToken)
	assert.NotEmpty(t, env.RefreshToken)
	assert.Equal(t, "Bearer", env.TokenType)
	assert.Equal(t, int64(900), env.ExpiresIn)
	assert.Equal(t, "ana", env.User.Username)

	r := s.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Other", "username": "ana", "email": "other@example.com", "password": "Str0ng!pass",
	})
	assert.Equal(t, http.StatusConflict, r.status)

	r = s.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "O", "username": "x", "email": "nope", "password": "weak",
	})
	assert.Equal(t, http.StatusBadRequest, r.status)
	errResp := decode[dto.ErrorResponse](t, r)
	assert.True(t, errResp.Error)
	assert.Contains(t, errResp.Fields, "name")
	assert.Contains(t, errResp.Fields, "username")
	assert.Contains(t, errResp.Fields, "email")
	assert.Contains(t, errResp.Fields, "password")
	assert.Equal(t, "Validation failed", errResp.Message)
	assert.Equal(t, "Email should be valid", errResp.Fields["email"])

	r = s.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Other", "username": "other", "email": "other@example.com", "password": "longbutweak",
	})
	assert.Equal(t, http.StatusBadRequest, r.status)
	errResp = decode[dto.ErrorResponse](t, r)
	assert.Equal(t, map[string]string{
		"password": "Password must contain at least one uppercase letter, one lowercase letter, one number and one special character",
	}, errResp.Fields)
}

func TestRegister_RecordsForwardedClient(t *testing.T) {
	s := newTestServer(t)
	r := s.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Ana", "username": "ana", "email": "ana@example.com", "password": "Str0ng!pass",
	}, "X-Forwarded-For", "203.0.113.7, 10.0.0.1", "User-Agent", "booker-ios/1.0")
	require.Equal(t, http.StatusCreated, r.status)
	env := decode[dto.AuthResponse](t, r)

	rec, err := s.repo.RefreshTokens().FindByHash(context.Background(), store.HashToken(env.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", rec.IPAddress)
	assert.Equal(t, "booker-ios/1.0", rec.DeviceInfo)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ana")
	before := s.repo.TokenStore().Count()

	r := s.do(t, "POST", "/api/auth/login", "", map[string]string{"usernameOrEmail": "ana", "password": "Wr0ng!pass"})
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, before, s.repo.TokenStore().Count())

	r = s.do(t, "POST", "/api/auth/login", "", map[string]string{"usernameOrEmail": "nobody", "password": "Wr0ng!pass"})
	assert.Equal(t, http.StatusUnauthorized, r.status)

	r = s.do(t, "POST", "/api/auth/login", "", map[string]string{"usernameOrEmail": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = s.do(t, "POST", "/api/auth/login", "", map[string]string{"usernameOrEmail": "ANA@example.com", "password": "Str0ng!pass"})
	assert.Equal(t, http.StatusOK, r.status)
}

func TestRefreshFlow(t *testing.T) {
	s := newTestServer(t)
	env := s.register(t, "ana")

	r := s.do(t, "POST", "/api/auth/refresh", "", map[string]string{"refreshToken": env.AccessToken})
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = s.do(t, "POST", "/api/auth/refresh", "", map[string]string{"refreshToken": ""})
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = s.do(t, "POST", "/api/auth/refresh", "", map[string]string{"refreshToken": env.RefreshToken})
	require.Equal(t, http.StatusOK, r.status)
	next := decode[dto.AuthResponse](t, r)
	assert.NotEqual(t, env.RefreshToken, next.RefreshToken)

	r = s.do(t, "POST", "/api/auth/refresh", "", map[string]string{"refreshToken": env.RefreshToken})
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = s.do(t, "POST", "/api/auth/logout", "", map[string]string{"refreshToken": next.RefreshToken})
	assert.Equal(t, http.StatusNoContent, r.status)
	r = s.do(t, "POST", "/api/auth/logout", "", map[string]string{"refreshToken": next.RefreshToken})
	assert.Equal(t, http.StatusNoContent, r.status)

	r = s.do(t, "POST", "/api/auth/refresh", "", map[string]string{"refreshToken": next.RefreshToken})
	assert.Equal(t, http.StatusBadRequest, r.status)
}

func TestLogout_MalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("POST", "/api/auth/logout", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogoutAllAndSessions(t *testing.T) {
	s := newTestServer(t)
	env := s.register(t, "ana")
	s.do(t, "POST", "/api/auth/login", "", map[string]string{"usernameOrEmail": "ana", "password": "Str0ng!pass"})

	r := s.do(t, "POST", "/api/auth/logout-all", "", nil)
	assert.Equal(t, http.StatusUnauthorized, r.status)

	r = s.do(t, "GET", "/api/auth/sessions", env.AccessToken, nil)
	require.Equal(t, http.StatusOK, r.status)
	sessions := decode[map[string][]dto.SessionResponse](t, r)
	assert.Len(t, sessions["sessions"], 2)

	r = s.do(t, "POST", "/api/auth/logout-all", env.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, r.status)

	r = s.do(t, "POST", "/api/auth/refresh", "", map[string]string{"refreshToken": env.RefreshToken})
	assert.Equal(t, http.StatusBadRequest, r.status)
}

func TestRefreshTokenIsNotABearer(t *testing.T) {
	s := newTestServer(t)
	env := s.register(t, "ana")

	r := s.do(t, "GET", "/api/users/me", env.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, r.status)

	r = s.do(t, "GET", "/api/users/me", env.AccessToken, nil)
	require.Equal(t, http.StatusOK, r.status)
	me := decode[dto.UserResponse](t, r)
	assert.Equal(t, "ana", me.Username)
}

func TestUsers_ProfileAndPassword(t *testing.T) {
	s := newTestServer(t)
	env := s.register(t, "ana")
	s.register(t, "bia")

	r := s.do(t, "PATCH", "/api/users/me", env.AccessToken, map[string]string{"bio": "Sci-fi mostly."})
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "Sci-fi mostly.", decode[dto.UserResponse](t, r).Bio)

	r = s.do(t, "PATCH", "/api/users/me", env.AccessToken, map[string]string{"username": "bia"})
	assert.Equal(t, http.StatusConflict, r.status)

	r = s.do(t, "PATCH", "/api/users/me/password", env.AccessToken, map[string]string{
		"currentPassword": "nope", "newPassword": "N3w!passw0rd",
	})
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = s.do(t, "PATCH", "/api/users/me/password", env.AccessToken, map[string]string{
		"currentPassword": "Str0ng!pass", "newPassword": "N3w!passw0rd",
	})
	assert.Equal(t, http.StatusNoContent, r.status)

	r = s.do(t, "POST", "/api/auth/refresh", "", map[string]string{"refreshToken": env.RefreshToken})
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = s.do(t, "GET", "/api/users/"+env.User.ID.String(), env.AccessToken, nil)
	assert.Equal(t, http.StatusOK, r.status)

	r = s.do(t, "GET", "/api/users/not-a-uuid", env.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, r.status)
}

func TestUsers_AdminRoutes(t *testing.T) {
	s := newTestServer(t)
	reader := s.register(t, "reader")
	admin := s.register(t, "admin")

	r := s.do(t, "GET", "/api/users", reader.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, r.status)

	r = s.do(t, "GET", "/api/users?limit=500", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, r.status)
	list := decode[dto.UserListResponse](t, r)
	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, 100, list.Limit)

	r = s.do(t, "PATCH", "/api/admin/users/"+reader.User.ID.String()+"/status", admin.AccessToken, map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, r.status)

	r = s.do(t, "GET", "/api/users/me", reader.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, r.status)

	r = s.do(t, "POST", "/api/auth/refresh", "", map[string]string{"refreshToken": reader.RefreshToken})
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = s.do(t, "DELETE", "/api/users/"+reader.User.ID.String(), admin.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, r.status)

	r = s.do(t, "DELETE", "/api/users/"+reader.User.ID.String(), admin.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, r.status)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	r := s.do(t, "GET", "/api/health", "", nil)
	require.Equal(t, http.StatusOK, r.status)

	health := decode[dto.HealthResponse](t, r)
	assert.Equal(t, "ok", health.DB)
	assert.Equal(t, 2, health.Modules)
	assert.False(t, health.Storage)
}

func TestClientInfo_FallsBackToSocketAddress(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(clientInfo(c))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("User-Agent", "curl/8.0")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var info services.ClientInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "curl/8.0", info.UserAgent)
	assert.NotEmpty(t, info.IPAddress)
}
