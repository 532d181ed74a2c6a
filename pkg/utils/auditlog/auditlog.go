// Package auditlog persists authentication events for operators
package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ebbb/adminapi/pkg/utils/zaplogger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var EventsTableName = "_auth_events"

// Event names recorded by the auth service
const (
	LoginSucceeded  = "login_succeeded"
	LoginFailed     = "login_failed"
	Logout          = "logout"
	UserCreated     = "user_created"
	PasswordChanged = "password_changed"
	SessionRevoked  = "session_revoked"
	AccountActive   = "account_active_changed"
	SessionsCleaned = "sessions_cleaned"
)

// Event is one row of the audit trail
type Event struct {
	ID        uint32         `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"index" json:"timestamp"`
	Name      string         `gorm:"index" json:"name"`
	UserID    string         `gorm:"index" json:"user_id,omitempty"`
	Fields    datatypes.JSON `json:"fields,omitempty"`
}

// TableName overrides the table name used by Event
func (Event) TableName() string {
	return EventsTableName
}

// Logger writes audit events through gorm
type Logger struct {
	db *gorm.DB
}

// New creates a Logger and migrates its table
func New(db *gorm.DB) (*Logger, error) {
	if err := db.AutoMigrate(&Event{}); err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", EventsTableName, err)
	}
	return &Logger{db: db}, nil
}

// Record stores an event. Failures are logged, never returned, so auditing
// cannot change the outcome of the operation being audited.
func (l *Logger) Record(ctx context.Context, name, userID string, fields map[string]interface{}) {
	var fieldsJSON datatypes.JSON
	if len(fields) > 0 {
		b, err := json.Marshal(fields)
		if err != nil {
			zaplogger.Error("failed to marshal audit fields", zaplogger.Fields{"event": name, "error": err.Error()})
			return
		}
		fieldsJSON = datatypes.JSON(b)
	}

	event := Event{
		Timestamp: time.Now().UTC(),
		Name:      name,
		UserID:    userID,
		Fields:    fieldsJSON,
	}
	if err := l.db.WithContext(ctx).Create(&event).Error; err != nil {
		zaplogger.Error("failed to insert audit event", zaplogger.Fields{"event": name, "error": err.Error()})
	}
}

// Recent returns the newest events, optionally limited to one account
func (l *Logger) Recent(ctx context.Context, userID string, limit int) ([]Event, error) {
	var events []Event
	tx := l.db.WithContext(ctx).Order("timestamp DESC").Order("id DESC").Limit(limit)
	if userID != "" {
		tx = tx.Where("user_id = ?", userID)
	}
	if err := tx.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", EventsTableName, err)
	}
	return events, nil
}
