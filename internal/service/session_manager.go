package service

import (
	"context"

	"github.com/ebbb/adminapi/internal/models"
	"github.com/ebbb/adminapi/pkg/utils/zaplogger"
)

// SessionKey is the storage key under which the current token is kept
const SessionKey = "ebbb_admin_session"

// TokenStore is durable key/value storage on the client side
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// SessionVerifier resolves tokens to accounts
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) VerifyResult
}

// SessionManager holds the current session token. It never refreshes or
// clears the token on its own, a stale token stays until ClearSession.
type SessionManager struct {
	store    TokenStore
	verifier SessionVerifier
}

// NewSessionManager creates a SessionManager. A nil store behaves like a
// context without storage: nothing is kept and GetSession returns nil.
func NewSessionManager(store TokenStore, verifier SessionVerifier) *SessionManager {
	return &SessionManager{store: store, verifier: verifier}
}

// SetSession persists token
func (m *SessionManager) SetSession(ctx context.Context, token string) {
	if m.store == nil {
		return
	}
	if err := m.store.Set(ctx, SessionKey, token); err != nil {
		zaplogger.Warn("session manager: failed to store token", zaplogger.Fields{"error": err.Error()})
	}
}

// GetSession returns the stored token, or nil when none is available
func (m *SessionManager) GetSession(ctx context.Context) *string {
	if m.store == nil {
		return nil
	}
	token, err := m.store.Get(ctx, SessionKey)
	if err != nil {
		zaplogger.Warn("session manager: failed to read token", zaplogger.Fields{"error": err.Error()})
		return nil
	}
	if token == "" {
		return nil
	}
	return &token
}

// ClearSession removes the stored token
func (m *SessionManager) ClearSession(ctx context.Context) {
	if m.store == nil {
		return
	}
	if err := m.store.Remove(ctx, SessionKey); err != nil {
		zaplogger.Warn("session manager: failed to remove token", zaplogger.Fields{"error": err.Error()})
	}
}

// IsAuthenticated reports whether the stored token currently verifies
func (m *SessionManager) IsAuthenticated(ctx context.Context) bool {
	return m.verify(ctx).Valid
}

// GetCurrentUser returns the account of the stored token, or nil
func (m *SessionManager) GetCurrentUser(ctx context.Context) *models.AdminAccount {
	res := m.verify(ctx)
	if !res.Valid {
		return nil
	}
	return res.User
}

func (m *SessionManager) verify(ctx context.Context) VerifyResult {
	token := m.GetSession(ctx)
	if token == nil || m.verifier == nil {
		return VerifyResult{Error: MsgInvalidOrExpired, Kind: KindInvalidOrExpiredSession}
	}
	return m.verifier.VerifySession(ctx, *token)
}
