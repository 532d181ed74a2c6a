package middleware

import (
	"net/http"
	"strings"

	"github.com/ebbb/adminapi/internal/models"
	"github.com/ebbb/adminapi/internal/service"
	"github.com/ebbb/adminapi/pkg/utils/response"
	"github.com/labstack/echo/v4"
)

// Context keys set by AuthMiddleware
const (
	AdminUserKey    = "admin_user"
	SessionTokenKey = "session_token"
)

// BearerToken extracts the token from an `Authorization: Bearer <token>` header
func BearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthMiddleware creates a new authorization middleware
func AuthMiddleware(verifier service.SessionVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return response.ErrorResponse(c, http.StatusUnauthorized, response.AuthenticationException, "Missing Authorization header")
			}
			token := BearerToken(c)
			if token == "" {
				return response.ErrorResponse(c, http.StatusUnauthorized, response.AuthenticationException, "Invalid Authorization header format")
			}

			res := verifier.VerifySession(c.Request().Context(), token)
			if !res.Valid {
				if res.Kind == service.KindConfiguration {
					return response.ErrorResponse(c, http.StatusServiceUnavailable, response.ConfigurationException, res.Error)
				}
				return response.ErrorResponse(c, http.StatusUnauthorized, response.AuthenticationException, service.MsgInvalidOrExpired)
			}

			c.Set(AdminUserKey, res.User)
			c.Set(SessionTokenKey, token)
			return next(c)
		}
	}
}

// RequireRole rejects accounts whose role is not listed. It must run after AuthMiddleware.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return response.ErrorResponse(c, http.StatusUnauthorized, response.AuthenticationException, service.MsgInvalidOrExpired)
			}
			for _, r := range roles {
				if user.Role == r {
					return next(c)
				}
			}
			return response.ErrorResponse(c, http.StatusForbidden, response.PermissionException, "Insufficient permissions")
		}
	}
}

// CurrentUser returns the account set by AuthMiddleware, or nil
func CurrentUser(c echo.Context) *models.AdminAccount {
	user, _ := c.Get(AdminUserKey).(*models.AdminAccount)
	return user
}

// CurrentToken returns the session token set by AuthMiddleware
func CurrentToken(c echo.Context) string {
	token, _ := c.Get(SessionTokenKey).(string)
	return token
}
