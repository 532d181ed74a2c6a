// Package service contains the service layer for the admin API
package service

import (
	"context"
	"errors"
	"time"

	"github.com/ebbb/adminapi/internal/metrics"
	"github.com/ebbb/adminapi/internal/models"
	"github.com/ebbb/adminapi/internal/repository"
	"github.com/ebbb/adminapi/pkg/utils/auditlog"
	"github.com/ebbb/adminapi/pkg/utils/zaplogger"
	"gorm.io/gorm"
)

// SessionDuration is the fixed lifetime of a session. There is no sliding expiry.
const SessionDuration = 24 * time.Hour

// AccountStore is the persistence contract for admin accounts
type AccountStore interface {
	GetActiveByUsername(ctx context.Context, username string) (*models.AdminAccount, error)
	GetByID(ctx context.Context, id string) (*models.AdminAccount, error)
	Create(ctx context.Context, account *models.AdminAccount) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context) ([]models.AdminAccount, error)
}

// SessionStore is the persistence contract for admin sessions
type SessionStore interface {
	Create(ctx context.Context, session *models.AdminSession) error
	GetValidByToken(ctx context.Context, token string, now time.Time) (*models.AdminSession, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	ListValidByUser(ctx context.Context, userID string, now time.Time) ([]models.AdminSession, error)
	DeleteByIDForUser(ctx context.Context, id, userID string) (int64, error)
	DeleteByUser(ctx context.Context, userID, exceptToken string) (int64, error)
}

// Auditor records security relevant events
type Auditor interface {
	Record(ctx context.Context, name, userID string, fields map[string]interface{})
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, string, string, map[string]interface{}) {}

// ClientInfo is best-effort metadata about the caller. Nil means unavailable.
type ClientInfo struct {
	IPAddress *string
	UserAgent *string
}

// NewAdminUser holds the fields for provisioning an account
type NewAdminUser struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     models.Role
}

// AdminAuthService implements login, session verification and account management
type AdminAuthService struct {
	accounts AccountStore
	sessions SessionStore
	auditor  Auditor
	now      func() time.Time
}

// Option configures an AdminAuthService
type Option func(*AdminAuthService)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(s *AdminAuthService) { s.now = now }
}

// WithAuditor records auth events through a
func WithAuditor(a Auditor) Option {
	return func(s *AdminAuthService) {
		if a != nil {
			s.auditor = a
		}
	}
}

// NewAdminAuthService creates the auth service over the given stores.
// Nil stores are allowed and make every operation report a configuration error.
func NewAdminAuthService(accounts AccountStore, sessions SessionStore, opts ...Option) *AdminAuthService {
	s := &AdminAuthService{
		accounts: accounts,
		sessions: sessions,
		auditor:  nopAuditor{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewAdminAuthServiceFromDB wires the gorm repositories
func NewAdminAuthServiceFromDB(db *gorm.DB, opts ...Option) *AdminAuthService {
	if db == nil {
		return NewAdminAuthService(nil, nil, opts...)
	}
	return NewAdminAuthService(
		repository.NewAdminAccountRepository(db),
		repository.NewAdminSessionRepository(db),
		opts...,
	)
}

func (s *AdminAuthService) configured() bool {
	return s != nil && s.accounts != nil && s.sessions != nil
}

// Login checks the credentials of an active account and issues a new session
func (s *AdminAuthService) Login(ctx context.Context, username, password string, client ClientInfo) (res LoginResult) {
	defer func() {
		metrics.LoginAttempts.WithLabelValues(metrics.Outcome(string(res.Kind))).Inc()
	}()

	if !s.configured() {
		return LoginResult{Error: MsgStoreNotConfigured, Kind: KindConfiguration}
	}
	if username == "" || password == "" {
		return s.loginFailed(ctx, username, "empty credentials")
	}

	account, err := s.accounts.GetActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.loginFailed(ctx, username, "unknown or inactive account")
		}
		zaplogger.Error("login: account lookup failed", zaplogger.Fields{"error": err.Error()})
		return LoginResult{Error: MsgStoreUnavailable, Kind: KindConfiguration}
	}

	if !VerifyPassword(password, account.PasswordHash) {
		return s.loginFailed(ctx, username, "password mismatch")
	}

	token, err := GenerateSessionToken()
	if err != nil {
		zaplogger.Error("login: token generation failed", zaplogger.Fields{"error": err.Error()})
		return LoginResult{Error: "Failed to create session: " + err.Error(), Kind: KindSessionCreationFailed}
	}

	now := s.now()
	session := &models.AdminSession{
		UserID:       account.ID,
		SessionToken: token,
		ExpiresAt:    now.Add(SessionDuration),
		IPAddress:    nonEmpty(client.IPAddress),
		UserAgent:    nonEmpty(client.UserAgent),
		CreatedAt:    now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		zaplogger.Error("login: session insert failed", zaplogger.Fields{"user_id": account.ID, "error": err.Error()})
		return LoginResult{Error: "Failed to create session: " + err.Error(), Kind: KindSessionCreationFailed}
	}
	metrics.SessionsIssued.Inc()

	// The session already exists, a failed last_login write must not undo the login
	if err := s.accounts.UpdateLastLogin(ctx, account.ID, now); err != nil {
		zaplogger.Warn("login: last_login update failed", zaplogger.Fields{"user_id": account.ID, "error": err.Error()})
	} else {
		account.LastLogin = &now
	}

	s.auditor.Record(ctx, auditlog.LoginSucceeded, account.ID, clientFields(session))
	return LoginResult{Success: true, User: account, Session: session}
}

func (s *AdminAuthService) loginFailed(ctx context.Context, username, reason string) LoginResult {
	s.auditor.Record(ctx, auditlog.LoginFailed, "", map[string]interface{}{"username": username, "reason": reason})
	return LoginResult{Error: MsgInvalidCredentials, Kind: KindInvalidCredentials}
}

// VerifySession resolves a bearer token to its account. It has no side effects.
func (s *AdminAuthService) VerifySession(ctx context.Context, token string) (res VerifyResult) {
	defer func() {
		metrics.SessionVerifications.WithLabelValues(metrics.Outcome(string(res.Kind))).Inc()
	}()

	if !s.configured() {
		return VerifyResult{Error: MsgStoreNotConfigured, Kind: KindConfiguration}
	}
	if token == "" {
		return VerifyResult{Error: MsgInvalidOrExpired, Kind: KindInvalidOrExpiredSession}
	}

	session, err := s.sessions.GetValidByToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return VerifyResult{Error: MsgInvalidOrExpired, Kind: KindInvalidOrExpiredSession}
		}
		zaplogger.Error("verify: session lookup failed", zaplogger.Fields{"error": err.Error()})
		return VerifyResult{Error: MsgStoreUnavailable, Kind: KindConfiguration}
	}
	if session.Account == nil {
		return VerifyResult{Error: MsgInvalidOrExpired, Kind: KindInvalidOrExpiredSession}
	}

	return VerifyResult{Valid: true, User: session.Account}
}

// Logout deletes the session for token. Unknown tokens count as logged out.
func (s *AdminAuthService) Logout(ctx context.Context, token string) Result {
	if !s.configured() {
		return failure(KindConfiguration, MsgStoreNotConfigured)
	}

	n, err := s.sessions.DeleteByToken(ctx, token)
	if err != nil {
		zaplogger.Error("logout: delete failed", zaplogger.Fields{"error": err.Error()})
		return failure(KindLogoutFailed, MsgLogoutFailed)
	}
	if n > 0 {
		metrics.SessionsRemoved.WithLabelValues("logout").Add(float64(n))
		s.auditor.Record(ctx, auditlog.Logout, "", nil)
	}
	return success()
}

// CreateAdminUser provisions an account. Role defaults to admin.
func (s *AdminAuthService) CreateAdminUser(ctx context.Context, in NewAdminUser) CreateUserResult {
	if !s.configured() {
		return CreateUserResult{Error: MsgStoreNotConfigured, Kind: KindConfiguration}
	}
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return CreateUserResult{Error: MsgCreateUserFailed + ": username, email and password are required", Kind: KindCreationFailed}
	}

	role := in.Role
	if role == "" {
		role = models.RoleAdmin
	}
	if !role.Valid() {
		return CreateUserResult{Error: MsgCreateUserFailed + ": unknown role " + string(role), Kind: KindCreationFailed}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return CreateUserResult{Error: MsgCreateUserFailed + ": " + err.Error(), Kind: KindCreationFailed}
	}

	account := &models.AdminAccount{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		zaplogger.Error("create user: insert failed", zaplogger.Fields{"username": in.Username, "error": err.Error()})
		return CreateUserResult{Error: MsgCreateUserFailed + ": " + err.Error(), Kind: KindCreationFailed}
	}

	s.auditor.Record(ctx, auditlog.UserCreated, account.ID, map[string]interface{}{"username": account.Username, "role": string(account.Role)})
	return CreateUserResult{Success: true, User: account}
}

// ChangePassword replaces the password after re-checking the current one.
// Other sessions of the account stay valid.
func (s *AdminAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) Result {
	if !s.configured() {
		return failure(KindConfiguration, MsgStoreNotConfigured)
	}

	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return failure(KindUserNotFound, MsgUserNotFound)
		}
		zaplogger.Error("change password: lookup failed", zaplogger.Fields{"user_id": userID, "error": err.Error()})
		return failure(KindConfiguration, MsgStoreUnavailable)
	}

	if !VerifyPassword(currentPassword, account.PasswordHash) {
		return failure(KindInvalidCredentials, MsgCurrentPasswordInvalid)
	}
	if newPassword == "" {
		return failure(KindUpdateFailed, MsgUpdatePasswordFailed+": new password is empty")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return failure(KindUpdateFailed, MsgUpdatePasswordFailed+": "+err.Error())
	}
	if err := s.accounts.UpdatePasswordHash(ctx, userID, hash); err != nil {
		zaplogger.Error("change password: update failed", zaplogger.Fields{"user_id": userID, "error": err.Error()})
		return failure(KindUpdateFailed, MsgUpdatePasswordFailed+": "+err.Error())
	}

	s.auditor.Record(ctx, auditlog.PasswordChanged, userID, nil)
	return success()
}

// CleanupExpiredSessions deletes sessions past their expiry. Failures are only logged.
func (s *AdminAuthService) CleanupExpiredSessions(ctx context.Context) {
	_, _ = s.CleanupExpiredSessionsCount(ctx)
}

// CleanupExpiredSessionsCount is CleanupExpiredSessions reporting the rows removed
func (s *AdminAuthService) CleanupExpiredSessionsCount(ctx context.Context) (int64, error) {
	if !s.configured() {
		return 0, errors.New(MsgStoreNotConfigured)
	}

	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		zaplogger.Error("cleanup: delete expired sessions failed", zaplogger.Fields{"error": err.Error()})
		return 0, err
	}
	if n > 0 {
		metrics.SessionsRemoved.WithLabelValues("expired").Add(float64(n))
		s.auditor.Record(ctx, auditlog.SessionsCleaned, "", map[string]interface{}{"deleted": n})
	}
	return n, nil
}

// GetActiveSessions lists the unexpired sessions of an account, newest first
func (s *AdminAuthService) GetActiveSessions(ctx context.Context, userID string) SessionsResult {
	if !s.configured() {
		return SessionsResult{Error: MsgStoreNotConfigured, Kind: KindConfiguration}
	}

	sessions, err := s.sessions.ListValidByUser(ctx, userID, s.now())
	if err != nil {
		zaplogger.Error("get sessions: query failed", zaplogger.Fields{"user_id": userID, "error": err.Error()})
		return SessionsResult{Error: MsgFetchSessionsFailed, Kind: KindFetchFailed}
	}
	if sessions == nil {
		sessions = []models.AdminSession{}
	}
	return SessionsResult{Sessions: sessions}
}

// RevokeSession deletes one session of userID by its id. Missing sessions are not an error.
func (s *AdminAuthService) RevokeSession(ctx context.Context, userID, sessionID string) Result {
	if !s.configured() {
		return failure(KindConfiguration, MsgStoreNotConfigured)
	}

	n, err := s.sessions.DeleteByIDForUser(ctx, sessionID, userID)
	if err != nil {
		zaplogger.Error("revoke session: delete failed", zaplogger.Fields{"user_id": userID, "error": err.Error()})
		return failure(KindUpdateFailed, MsgRevokeFailed)
	}
	if n > 0 {
		metrics.SessionsRemoved.WithLabelValues("revoked").Add(float64(n))
		s.auditor.Record(ctx, auditlog.SessionRevoked, userID, map[string]interface{}{"session_id": sessionID})
	}
	return success()
}

// RevokeOtherSessions deletes every session of userID except the one holding keepToken
func (s *AdminAuthService) RevokeOtherSessions(ctx context.Context, userID, keepToken string) Result {
	if !s.configured() {
		return failure(KindConfiguration, MsgStoreNotConfigured)
	}

	n, err := s.sessions.DeleteByUser(ctx, userID, keepToken)
	if err != nil {
		zaplogger.Error("revoke sessions: delete failed", zaplogger.Fields{"user_id": userID, "error": err.Error()})
		return failure(KindUpdateFailed, MsgRevokeFailed)
	}
	if n > 0 {
		metrics.SessionsRemoved.WithLabelValues("revoked").Add(float64(n))
		s.auditor.Record(ctx, auditlog.SessionRevoked, userID, map[string]interface{}{"count": n})
	}
	return success()
}

// SetAccountActive activates or deactivates an account. Deactivation also
// deletes the account's sessions, since verification does not look at is_active.
func (s *AdminAuthService) SetAccountActive(ctx context.Context, userID string, active bool) Result {
	if !s.configured() {
		return failure(KindConfiguration, MsgStoreNotConfigured)
	}

	if err := s.accounts.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return failure(KindUserNotFound, MsgUserNotFound)
		}
		zaplogger.Error("set active: update failed", zaplogger.Fields{"user_id": userID, "error": err.Error()})
		return failure(KindUpdateFailed, MsgUpdateAccountFailed+": "+err.Error())
	}
	s.auditor.Record(ctx, auditlog.AccountActive, userID, map[string]interface{}{"active": active})

	if active {
		return success()
	}
	if res := s.RevokeOtherSessions(ctx, userID, ""); !res.Success {
		return failure(KindUpdateFailed, MsgSessionsNotRevoked)
	}
	return success()
}

// ListAdminUsers returns all accounts, including inactive ones
func (s *AdminAuthService) ListAdminUsers(ctx context.Context) UsersResult {
	if !s.configured() {
		return UsersResult{Error: MsgStoreNotConfigured, Kind: KindConfiguration}
	}

	users, err := s.accounts.List(ctx)
	if err != nil {
		zaplogger.Error("list users: query failed", zaplogger.Fields{"error": err.Error()})
		return UsersResult{Error: MsgFetchUsersFailed, Kind: KindFetchFailed}
	}
	return UsersResult{Users: users}
}

// nonEmpty drops empty strings so they are stored as absent
func nonEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func clientFields(session *models.AdminSession) map[string]interface{} {
	fields := map[string]interface{}{"session_id": session.ID}
	if session.IPAddress != nil {
		fields["ip_address"] = *session.IPAddress
	}
	if session.UserAgent != nil {
		fields["user_agent"] = *session.UserAgent
	}
	return fields
}
