package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ebbb/adminapi/internal/config"
	"github.com/ebbb/adminapi/internal/models"
	"github.com/ebbb/adminapi/internal/repository"
	"github.com/ebbb/adminapi/internal/service"
	"github.com/ebbb/adminapi/internal/tokenstore"
	"github.com/ebbb/adminapi/pkg/utils/auditlog"
)

type testApp struct {
	db    *gorm.DB
	store *tokenstore.Memory
}

func useTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.Migrate(db))

	auditLogger, err := auditlog.New(db)
	require.NoError(t, err)
	auth := service.NewAdminAuthServiceFromDB(db, service.WithAuditor(auditLogger))
	store := tokenstore.NewMemory()

	prev := openApp
	openApp = func(context.Context) (*app, error) {
		return &app{
			cfg:      &config.Config{TokenStore: "memory"},
			db:       db,
			auth:     auth,
			sessions: service.NewSessionManager(store, auth),
			audit:    auditLogger,
			close:    func() {},
		}, nil
	}
	t.Cleanup(func() { openApp = prev })
	return &testApp{db: db, store: store}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, "", "hash-password", "admin123")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("admin123")))

	out, err = run(t, "from-stdin\n", "hash-password")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("from-stdin")))

	_, err = run(t, "", "hash-password")
	assert.Error(t, err)
}

func TestAccountAndSessionCommands(t *testing.T) {
	useTestApp(t)

	out, err := run(t, "", "create-user", "-u", "owner", "-e", "owner@ebbb.test", "-p", "owner-pass", "--role", "super_admin")
	require.NoError(t, err)
	assert.Contains(t, out, `"username": "owner"`)
	assert.NotContains(t, out, "owner-pass")

	_, err = run(t, "", "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)

	_, err = run(t, "", "login", "owner", "-p", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), service.MsgInvalidCredentials)

	out, err = run(t, "", "login", "owner", "-p", "owner-pass")
	require.NoError(t, err)
	assert.Contains(t, out, "logged in as owner")

	out, err = run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, `"role": "super_admin"`)

	out, err = run(t, "", "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "true")

	out, err = run(t, "", "users")
	require.NoError(t, err)
	assert.Contains(t, out, "owner@ebbb.test")

	out, err = run(t, "", "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 0 expired sessions")

	out, err = run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "logged out")
	_, err = run(t, "", "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)

	out, err = run(t, "", "deactivate", "owner")
	require.NoError(t, err)
	assert.Contains(t, out, "owner active=false")
	_, err = run(t, "", "login", "owner", "-p", "owner-pass")
	assert.Error(t, err)

	_, err = run(t, "", "activate", "nobody")
	assert.Error(t, err)
}

func TestLogoutForgetsTokenWhenDeleteFails(t *testing.T) {
	env := useTestApp(t)
	ctx := context.Background()

	_, err := run(t, "", "create-user", "-u", "cook", "-e", "cook@ebbb.test", "-p", "cook-pass", "--role", "admin")
	require.NoError(t, err)
	_, err = run(t, "", "login", "cook", "-p", "cook-pass")
	require.NoError(t, err)

	require.NoError(t, env.db.Migrator().DropTable(models.AdminSessionsTableName))

	out, err := run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "logged out")

	token, err := env.store.Get(ctx, service.SessionKey)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestAuditCommand(t *testing.T) {
	useTestApp(t)

	_, err := run(t, "", "create-user", "-u", "owner", "-e", "owner@ebbb.test", "-p", "owner-pass", "--role", "super_admin")
	require.NoError(t, err)
	_, err = run(t, "", "create-user", "-u", "cook", "-e", "cook@ebbb.test", "-p", "cook-pass", "--role", "admin")
	require.NoError(t, err)
	_, err = run(t, "", "login", "owner", "-p", "wrong")
	require.Error(t, err)
	_, err = run(t, "", "login", "owner", "-p", "owner-pass")
	require.NoError(t, err)

	out, err := run(t, "", "audit", "--user", "", "--limit", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "login_failed")
	assert.Contains(t, out, "login_succeeded")
	assert.Contains(t, out, "cook")

	out, err = run(t, "", "audit", "--user", "owner", "--limit", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "login_succeeded")
	assert.Contains(t, lines[1], "owner")

	_, err = run(t, "", "audit", "--user", "nobody", "--limit", "10")
	assert.Error(t, err)

	_, err = run(t, "", "audit", "--user", "", "--limit", "0")
	assert.Error(t, err)
}

func TestNewTokenStore(t *testing.T) {
	ctx := context.Background()

	store, closeStore, err := newTokenStore(ctx, &config.Config{TokenStore: "memory"}, nil)
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &tokenstore.Memory{}, store)

	_, _, err = newTokenStore(ctx, &config.Config{TokenStore: "cookie"}, nil)
	assert.Error(t, err)
}
