// Package repository contains the repository layer for the admin API
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ebbb/adminapi/internal/models"
	"gorm.io/gorm"
)

// AdminAccountRepository stores administrator accounts
type AdminAccountRepository struct {
	DB *gorm.DB
}

// NewAdminAccountRepository creates a new repository for admin accounts
func NewAdminAccountRepository(db *gorm.DB) *AdminAccountRepository {
	return &AdminAccountRepository{DB: db}
}

// GetActiveByUsername returns the active account with the given username
func (r *AdminAccountRepository) GetActiveByUsername(ctx context.Context, username string) (*models.AdminAccount, error) {
	var account models.AdminAccount
	err := r.DB.WithContext(ctx).
		Where("username = ?", username).
		Where("is_active = ?", true).
		First(&account).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

// GetByID returns the account with the given id, active or not
func (r *AdminAccountRepository) GetByID(ctx context.Context, id string) (*models.AdminAccount, error) {
	var account models.AdminAccount
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

// Create inserts the account and fills in its generated columns
func (r *AdminAccountRepository) Create(ctx context.Context, account *models.AdminAccount) error {
	if err := r.DB.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("failed to insert into %s: %w", models.AdminAccountsTableName, err)
	}
	return nil
}

// UpdateLastLogin sets last_login for the account
func (r *AdminAccountRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, id, "last_login", at)
}

// UpdatePasswordHash replaces the stored password hash
func (r *AdminAccountRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return r.update(ctx, id, "password_hash", hash)
}

// SetActive flips the soft-delete flag
func (r *AdminAccountRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.update(ctx, id, "is_active", active)
}

// List returns every account ordered by username
func (r *AdminAccountRepository) List(ctx context.Context) ([]models.AdminAccount, error) {
	var accounts []models.AdminAccount
	if err := r.DB.WithContext(ctx).Order("username ASC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", models.AdminAccountsTableName, err)
	}
	return accounts, nil
}

func (r *AdminAccountRepository) update(ctx context.Context, id, column string, value interface{}) error {
	result := r.DB.WithContext(ctx).
		Model(&models.AdminAccount{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s.%s: %w", models.AdminAccountsTableName, column, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// notFound maps gorm's missing-row error onto ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
