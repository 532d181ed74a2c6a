// Package metrics exposes Prometheus counters for the admin auth flows
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts logins by outcome ("success" or an error kind)
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "admin_api",
		Name:      "login_attempts_total",
		Help:      "Admin login attempts by outcome.",
	}, []string{"outcome"})

	// SessionVerifications counts VerifySession calls by outcome
	SessionVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "admin_api",
		Name:      "session_verifications_total",
		Help:      "Session verifications by outcome.",
	}, []string{"outcome"})

	// SessionsIssued counts sessions written at login
	SessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "admin_api",
		Name:      "sessions_issued_total",
		Help:      "Sessions created by successful logins.",
	})

	// SessionsRemoved counts sessions deleted, by reason
	SessionsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "admin_api",
		Name:      "sessions_removed_total",
		Help:      "Sessions deleted by logout, revocation or the expiry sweep.",
	}, []string{"reason"})
)

// Outcome returns the label for a result kind, "success" when empty
func Outcome(kind string) string {
	if kind == "" {
		return "success"
	}
	return kind
}
