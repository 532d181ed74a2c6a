// Package models contains the persisted models for the admin API
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AdminAccountsTableName = "admin_accounts"
	AdminSessionsTableName = "admin_sessions"
)

// Role is the privilege level of an administrator
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// AdminAccount is an administrator allowed into the back-office.
// Accounts are never hard-deleted, IsActive=false is the soft delete.
type AdminAccount struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	FullName     string     `json:"full_name"`
	Role         Role       `gorm:"type:varchar(20);not null" json:"role"`
	IsActive     bool       `gorm:"not null;index" json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AdminAccount) TableName() string {
	return AdminAccountsTableName
}

// BeforeCreate assigns the row id
func (a *AdminAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AdminSession is a bearer session issued at login. Rows are never updated in place.
type AdminSession struct {
	ID           string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string        `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Account      *AdminAccount `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	SessionToken string        `gorm:"uniqueIndex;not null" json:"session_token"`
	ExpiresAt    time.Time     `gorm:"not null;index" json:"expires_at"`
	IPAddress    *string       `json:"ip_address"`
	UserAgent    *string       `json:"user_agent"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func (AdminSession) TableName() string {
	return AdminSessionsTableName
}

// BeforeCreate assigns the row id
func (s *AdminSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
