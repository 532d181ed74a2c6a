// Package repository contains the repository layer for the admin API
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ebbb/adminapi/internal/models"
	"gorm.io/gorm"
)

// AdminSessionRepository stores bearer sessions
type AdminSessionRepository struct {
	DB *gorm.DB
}

// NewAdminSessionRepository creates a new repository for admin sessions
func NewAdminSessionRepository(db *gorm.DB) *AdminSessionRepository {
	return &AdminSessionRepository{DB: db}
}

// Create inserts the session. Nil metadata columns are left out of the statement.
func (r *AdminSessionRepository) Create(ctx context.Context, session *models.AdminSession) error {
	tx := r.DB.WithContext(ctx).Omit("Account")
	if session.IPAddress == nil {
		tx = tx.Omit("ip_address")
	}
	if session.UserAgent == nil {
		tx = tx.Omit("user_agent")
	}
	if err := tx.Create(session).Error; err != nil {
		return fmt.Errorf("failed to insert into %s: %w", models.AdminSessionsTableName, err)
	}
	return nil
}

// GetValidByToken returns the unexpired session for token with its account loaded
func (r *AdminSessionRepository) GetValidByToken(ctx context.Context, token string, now time.Time) (*models.AdminSession, error) {
	var session models.AdminSession
	err := r.DB.WithContext(ctx).
		Preload("Account").
		Where("session_token = ?", token).
		Where("expires_at > ?", now).
		First(&session).Error
	if err != nil {
		return nil, notFound(err)
	}
	if session.Account == nil {
		return nil, ErrNotFound
	}
	return &session, nil
}

// DeleteByToken removes the session with token and returns the rows deleted
func (r *AdminSessionRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	return r.delete(r.DB.WithContext(ctx).Where("session_token = ?", token))
}

// DeleteExpired removes every session with expires_at < now
func (r *AdminSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.delete(r.DB.WithContext(ctx).Where("expires_at < ?", now))
}

// DeleteByIDForUser removes one session owned by userID
func (r *AdminSessionRepository) DeleteByIDForUser(ctx context.Context, id, userID string) (int64, error) {
	return r.delete(r.DB.WithContext(ctx).Where("id = ?", id).Where("user_id = ?", userID))
}

// DeleteByUser removes all sessions of userID except the one holding exceptToken
func (r *AdminSessionRepository) DeleteByUser(ctx context.Context, userID, exceptToken string) (int64, error) {
	tx := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if exceptToken != "" {
		tx = tx.Where("session_token <> ?", exceptToken)
	}
	return r.delete(tx)
}

// ListValidByUser returns the unexpired sessions of userID, newest first
func (r *AdminSessionRepository) ListValidByUser(ctx context.Context, userID string, now time.Time) ([]models.AdminSession, error) {
	var sessions []models.AdminSession
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("expires_at > ?", now).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", models.AdminSessionsTableName, err)
	}
	return sessions, nil
}

func (r *AdminSessionRepository) delete(tx *gorm.DB) (int64, error) {
	result := tx.Delete(&models.AdminSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", models.AdminSessionsTableName, result.Error)
	}
	return result.RowsAffected, nil
}
