package auditlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newLogger(t *testing.T) *Logger {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	l, err := New(db)
	require.NoError(t, err)
	return l
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	l := newLogger(t)

	l.Record(ctx, LoginFailed, "", map[string]interface{}{"username": "ghost"})
	l.Record(ctx, LoginSucceeded, "u1", nil)
	l.Record(ctx, Logout, "u1", nil)

	all, err := l.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, Logout, all[0].Name)

	mine, err := l.Recent(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, e := range mine {
		assert.Equal(t, "u1", e.UserID)
	}

	failed, err := l.Recent(ctx, "", 10)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"ghost"}`, string(failed[2].Fields))
}

func TestRecentLimit(t *testing.T) {
	ctx := context.Background()
	l := newLogger(t)
	for i := 0; i < 5; i++ {
		l.Record(ctx, SessionsCleaned, "", map[string]interface{}{"deleted": i})
	}

	events, err := l.Recent(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
