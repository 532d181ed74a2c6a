package service

import "github.com/ebbb/adminapi/internal/models"

// ErrorKind classifies a failed auth operation
type ErrorKind string

const (
	KindInvalidCredentials      ErrorKind = "InvalidCredentials"
	KindSessionCreationFailed   ErrorKind = "SessionCreationFailed"
	KindInvalidOrExpiredSession ErrorKind = "InvalidOrExpiredSession"
	KindUserNotFound            ErrorKind = "UserNotFound"
	KindCreationFailed          ErrorKind = "CreationFailed"
	KindUpdateFailed            ErrorKind = "UpdateFailed"
	KindLogoutFailed            ErrorKind = "LogoutFailed"
	KindFetchFailed             ErrorKind = "FetchFailed"
	KindConfiguration           ErrorKind = "ConfigurationError"
)

// Messages shown to callers. The credentials message is shared by every
// login failure so it cannot be used to probe for usernames.
const (
	MsgInvalidCredentials     = "Invalid credentials"
	MsgInvalidOrExpired       = "Invalid or expired session"
	MsgStoreNotConfigured     = "Store configuration is missing"
	MsgStoreUnavailable       = "Store is unavailable"
	MsgUserNotFound           = "User not found"
	MsgCurrentPasswordInvalid = "Current password is incorrect"
	MsgUpdatePasswordFailed   = "Failed to update password"
	MsgCreateUserFailed       = "Failed to create user"
	MsgLogoutFailed           = "Logout failed"
	MsgFetchSessionsFailed    = "Failed to fetch sessions"
	MsgFetchUsersFailed       = "Failed to fetch users"
	MsgRevokeFailed           = "Failed to revoke session"
	MsgUpdateAccountFailed    = "Failed to update account"
	MsgSessionsNotRevoked     = "Account deactivated but its sessions were not revoked"
)

// LoginResult is returned by Login
type LoginResult struct {
	Success bool                 `json:"success"`
	User    *models.AdminAccount `json:"user,omitempty"`
	Session *models.AdminSession `json:"session,omitempty"`
	Error   string               `json:"error,omitempty"`
	Kind    ErrorKind            `json:"kind,omitempty"`
}

// VerifyResult is returned by VerifySession
type VerifyResult struct {
	Valid bool                 `json:"valid"`
	User  *models.AdminAccount `json:"user,omitempty"`
	Error string               `json:"error,omitempty"`
	Kind  ErrorKind            `json:"kind,omitempty"`
}

// Result is returned by operations without a payload
type Result struct {
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
	Kind    ErrorKind `json:"kind,omitempty"`
}

// CreateUserResult is returned by CreateAdminUser
type CreateUserResult struct {
	Success bool                 `json:"success"`
	User    *models.AdminAccount `json:"user,omitempty"`
	Error   string               `json:"error,omitempty"`
	Kind    ErrorKind            `json:"kind,omitempty"`
}

// SessionsResult is returned by GetActiveSessions
type SessionsResult struct {
	Sessions []models.AdminSession `json:"sessions,omitempty"`
	Error    string                `json:"error,omitempty"`
	Kind     ErrorKind             `json:"kind,omitempty"`
}

// UsersResult is returned by ListAdminUsers
type UsersResult struct {
	Users []models.AdminAccount `json:"users,omitempty"`
	Error string                `json:"error,omitempty"`
	Kind  ErrorKind             `json:"kind,omitempty"`
}

func failure(kind ErrorKind, msg string) Result {
	return Result{Error: msg, Kind: kind}
}

func success() Result {
	return Result{Success: true}
}
