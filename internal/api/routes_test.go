package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ebbb/adminapi/internal/config"
	"github.com/ebbb/adminapi/internal/models"
	"github.com/ebbb/adminapi/internal/repository"
	"github.com/ebbb/adminapi/internal/service"
)

type envelope struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	ErrorType string          `json:"error_type"`
	Message   string          `json:"message"`
}

type testServer struct {
	e   *echo.Echo
	svc *service.AdminAuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.Migrate(db))

	cfg := &config.Config{APIName: "EBBB Admin API", APIVersion: "v1", SessionCleanupSchedule: "@every 1h"}
	svc := service.NewAdminAuthServiceFromDB(db)
	e := echo.New()
	SetupRoutes(e, cfg, db, svc, service.NewCronService(cfg, svc))

	ctx := context.Background()
	for _, u := range []service.NewAdminUser{
		{Username: "owner", Email: "owner@ebbb.test", Password: "owner-pass", Role: models.RoleSuperAdmin},
		{Username: "admin", Email: "admin@ebbb.test", Password: "admin123"},
	} {
		res := svc.CreateAdminUser(ctx, u)
		require.True(t, res.Success, res.Error)
	}
	return &testServer{e: e, svc: svc}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/admin/login", "", `{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	var data struct {
		SessionToken string `json:"session_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.SessionToken)
	return data.SessionToken
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `"EBBB Admin API v1"`, string(env.Data))

	code, env = s.do(t, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"store":"ok"}`, string(env.Data))
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t)

	token := s.login(t, "admin", "admin123")

	code, env := s.do(t, http.MethodGet, "/api/admin/me", token, "")
	require.Equal(t, http.StatusOK, code)
	var me map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "admin", me["username"])
	assert.NotContains(t, me, "password_hash")
	assert.NotContains(t, me, "PasswordHash")

	code, _ = s.do(t, http.MethodGet, "/api/admin/session", token, "")
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, "/api/admin/sessions", token, "")
	require.Equal(t, http.StatusOK, code)
	var sessions []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, true, sessions[0]["current"])
	assert.NotContains(t, sessions[0], "session_token")
	assert.Equal(t, "Chrome", sessions[0]["device"].(map[string]interface{})["browser"])

	code, _ = s.do(t, http.MethodPost, "/api/admin/logout", token, "")
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, "/api/admin/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "AuthenticationException", env.ErrorType)

	code, _ = s.do(t, http.MethodPost, "/api/admin/logout", token, "")
	assert.Equal(t, http.StatusOK, code, "logout is always reported as success")
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t)

	code, wrong := s.do(t, http.MethodPost, "/api/admin/login", "", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, ghost := s.do(t, http.MethodPost, "/api/admin/login", "", `{"username":"ghost","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, wrong, ghost)
	assert.Equal(t, service.MsgInvalidCredentials, wrong.Message)

	code, env := s.do(t, http.MethodPost, "/api/admin/login", "", `{"username":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InputException", env.ErrorType)
	assert.Contains(t, env.Message, "`password` is required")
}

func TestProtectedRoutesNeedBearer(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/admin/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Missing Authorization header", env.Message)

	code, _ = s.do(t, http.MethodGet, "/api/admin/me", "not-a-session", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodGet, "/api/admin/session", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestUserProvisioningRequiresSuperAdmin(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(t, "admin", "admin123")
	ownerToken := s.login(t, "owner", "owner-pass")

	body := `{"username":"chef","email":"chef@ebbb.test","password":"chef-pass-1","full_name":"Head Chef"}`
	code, env := s.do(t, http.MethodPost, "/api/admin/users", adminToken, body)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "PermissionException", env.ErrorType)

	code, env = s.do(t, http.MethodPost, "/api/admin/users", ownerToken, body)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var created models.AdminAccount
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, models.RoleAdmin, created.Role)
	assert.True(t, created.IsActive)

	code, env = s.do(t, http.MethodPost, "/api/admin/users", ownerToken, body)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "ServerException", env.ErrorType)

	code, env = s.do(t, http.MethodPost, "/api/admin/users", ownerToken, `{"username":"x","email":"nope","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "`email` must be a valid email")

	code, env = s.do(t, http.MethodGet, "/api/admin/users", ownerToken, "")
	require.Equal(t, http.StatusOK, code)
	var users []models.AdminAccount
	require.NoError(t, json.Unmarshal(env.Data, &users))
	assert.Len(t, users, 3)
}

func TestDeactivateRevokesSessions(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(t, "admin", "admin123")
	ownerToken := s.login(t, "owner", "owner-pass")

	code, env := s.do(t, http.MethodGet, "/api/admin/me", adminToken, "")
	require.Equal(t, http.StatusOK, code)
	var me models.AdminAccount
	require.NoError(t, json.Unmarshal(env.Data, &me))

	code, _ = s.do(t, http.MethodPatch, "/api/admin/users/"+me.ID+"/active", ownerToken, `{"active":false}`)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/api/admin/me", adminToken, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPatch, "/api/admin/users/missing/active", ownerToken, `{"active":true}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPatch, "/api/admin/users/"+me.ID+"/active", ownerToken, `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestChangePasswordRevokesOtherSessions(t *testing.T) {
	s := newTestServer(t)
	first := s.login(t, "admin", "admin123")
	second := s.login(t, "admin", "admin123")

	code, env := s.do(t, http.MethodPost, "/api/admin/password", first, `{"current_password":"bad","new_password":"new-pass-99"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, service.MsgCurrentPasswordInvalid, env.Message)

	code, _ = s.do(t, http.MethodPost, "/api/admin/password", first, `{"current_password":"admin123","new_password":"new-pass-99","revoke_other_sessions":true}`)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/api/admin/me", first, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, "/api/admin/me", second, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	s.login(t, "admin", "new-pass-99")
}

func TestRevokeSessionAndCleanup(t *testing.T) {
	s := newTestServer(t)
	ownerToken := s.login(t, "owner", "owner-pass")
	other := s.login(t, "owner", "owner-pass")

	code, env := s.do(t, http.MethodGet, "/api/admin/sessions", ownerToken, "")
	require.Equal(t, http.StatusOK, code)
	var sessions []struct {
		ID      string `json:"id"`
		Current bool   `json:"current"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sessions))
	require.Len(t, sessions, 2)

	for _, sess := range sessions {
		if !sess.Current {
			code, _ = s.do(t, http.MethodDelete, "/api/admin/sessions/"+sess.ID, ownerToken, "")
			assert.Equal(t, http.StatusOK, code)
		}
	}
	code, _ = s.do(t, http.MethodGet, "/api/admin/me", other, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(t, http.MethodPost, "/api/admin/sessions/cleanup", ownerToken, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"rows_deleted":0}`, string(env.Data))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "admin", "admin123")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin_api_login_attempts_total")
}
