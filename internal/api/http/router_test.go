package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/internal/api/dto"
	"github.com/medinsight/staff-admin/internal/api/http/handlers"
	"github.com/medinsight/staff-admin/internal/auth"
	"github.com/medinsight/staff-admin/internal/config"
	"github.com/medinsight/staff-admin/internal/domain"
	"github.com/medinsight/staff-admin/internal/identity"
	"github.com/medinsight/staff-admin/internal/observability"
	"github.com/medinsight/staff-admin/internal/persistence"
	"github.com/medinsight/staff-admin/internal/repository"
	"github.com/medinsight/staff-admin/internal/service"
)

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	cfg := config.Config{Auth: config.AuthConfig{AdminEmail: "admin@h.fr", AdminPassword: "root"}}
	tokens := auth.NewTokenManager("test-secret", 5)
	repo := repository.NewMemoryStaffRepository()
	staffSvc := service.NewStaffService(service.StaffDependencies{
		StaffRepo:   repo,
		Provisioner: identity.NewLocalProvisioner(4),
		Logger:      logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, MiddlewareConfig{AllowOrigins: "*"})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("staff-service", "test",
			handlers.NamedDependency{Name: "postgres", Dep: &persistence.Postgres{}},
			handlers.NamedDependency{Name: "redis", Dep: &persistence.Redis{}},
		),
		Staff:          handlers.NewStaffHandler(staffSvc),
		Auth:           handlers.NewAuthHandler(service.NewAuthService(cfg, repo, tokens)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, false, logger),
		Gatherer:       registry,
	})
	return &testServer{app: app, tokens: tokens}
}

func (s *testServer) bearer(t *testing.T, roles ...string) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(&domain.Principal{UserID: "u-1", Username: "tester", Roles: roles})
	require.NoError(t, err)
	return "Bearer " + token
}

func (s *testServer) do(t *testing.T, method, path, authHeader string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func leroy() map[string]any {
	return map[string]any{
		"nom":          "Leroy",
		"prenom":       "Anne",
		"type":         "INFIRMIER",
		"email":        "anne@h.fr",
		"telephone":    "0600000000",
		"dateEmbauche": "2024-03-01",
	}
}

func TestStaffRoutes_CRUD(t *testing.T) {
	s := newTestServer(t)
	admin := s.bearer(t, domain.RoleAdmin)

	status, body := s.do(t, "POST", "/staffs", admin, leroy())
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var created dto.StaffResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "2024-03-01T00:00:00", created.DateEmbauche)
	assert.True(t, created.Actif)
	assert.NotNil(t, created.AccountID)

	status, body = s.do(t, "GET", "/staffs", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []dto.StaffResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	update := leroy()
	update["actif"] = false
	update["dateEmbauche"] = "2024-03-02T08:30:00"
	status, body = s.do(t, "PUT", "/staffs/1", admin, update)
	require.Equal(t, fiber.StatusOK, status, string(body))
	var updated dto.StaffResponse
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.False(t, updated.Actif)
	assert.Equal(t, "2024-03-02T08:30:00", updated.DateEmbauche)

	status, body = s.do(t, "GET", "/staffs/actifs", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, "[]", string(body))

	status, _ = s.do(t, "DELETE", "/staffs/1", admin, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body = s.do(t, "GET", "/staffs/1", admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, string(body), `"code":"NOT_FOUND"`)

	status, _ = s.do(t, "DELETE", "/staffs/1", admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestStaffRoutes_ValidationAndConflict(t *testing.T) {
	s := newTestServer(t)
	admin := s.bearer(t, domain.RoleAdmin)

	bad := leroy()
	bad["email"] = "not-an-email"
	bad["type"] = "CHIRURGIEN"
	status, body := s.do(t, "POST", "/staffs", admin, bad)
	require.Equal(t, fiber.StatusBadRequest, status)
	var envelope struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, "VALIDATION_FAILED", envelope.Error.Code)
	assert.Contains(t, envelope.Error.Details, "email")
	assert.Contains(t, envelope.Error.Details, "type")

	status, _ = s.do(t, "POST", "/staffs", admin, leroy())
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = s.do(t, "POST", "/staffs", admin, leroy())
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = s.do(t, "GET", "/staffs/abc", admin, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestStaffRoutes_Permissions(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/staffs", "", nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Contains(t, string(body), "Access Denied: Required role staff:read")

	reader := s.bearer(t, domain.PermissionStaffRead)
	status, _ = s.do(t, "GET", "/staffs", reader, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, "POST", "/staffs", reader, leroy())
	assert.Equal(t, fiber.StatusForbidden, status)

	writer := s.bearer(t, domain.PermissionStaffWrite)
	status, _ = s.do(t, "DELETE", "/staffs/1", writer, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = s.do(t, "GET", "/staffs/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Staff Service is running!", string(body))
}

func TestAuthLogin_IssuesUsableToken(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "POST", "/auth/login", "", dto.LoginRequest{Email: "admin@h.fr", Password: "root"})
	require.Equal(t, fiber.StatusOK, status, string(body))
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	assert.Equal(t, []string{domain.RoleAdmin}, login.Roles)

	status, _ = s.do(t, "GET", "/staffs", "Bearer "+login.Token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, "POST", "/auth/login", "", dto.LoginRequest{Email: "admin@h.fr", Password: "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestStaffRoutes_CreateWithInitialPassword(t *testing.T) {
	s := newTestServer(t)
	admin := s.bearer(t, domain.RoleAdmin)

	short := leroy()
	short["motDePasse"] = "court"
	status, body := s.do(t, "POST", "/staffs", admin, short)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(body), "motDePasse")

	withPassword := leroy()
	withPassword["motDePasse"] = "Bienvenue-2024"
	status, body = s.do(t, "POST", "/staffs", admin, withPassword)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	assert.NotContains(t, string(body), "Bienvenue-2024")

	status, body = s.do(t, "POST", "/auth/login", "", dto.LoginRequest{Email: "anne@h.fr", Password: "Bienvenue-2024"})
	require.Equal(t, fiber.StatusOK, status, string(body))
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	assert.Contains(t, login.Roles, "ROLE_INFIRMIER")

	status, _ = s.do(t, "GET", "/staffs", "Bearer "+login.Token, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"postgres":"disabled"`)

	status, _ = s.do(t, "GET", "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, body = s.do(t, "GET", "/metrics", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, strings.Contains(string(body), "staff_http_requests_total"))
}
