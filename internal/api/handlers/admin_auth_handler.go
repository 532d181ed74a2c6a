package handlers

import (
	"net/http"
	"time"

	"github.com/ebbb/adminapi/internal/api/middleware"
	"github.com/ebbb/adminapi/internal/models"
	"github.com/ebbb/adminapi/internal/service"
	"github.com/ebbb/adminapi/pkg/utils/response"
	"github.com/ebbb/adminapi/pkg/utils/zaplogger"
	"github.com/labstack/echo/v4"
)

// AdminAuthHandler is the handler for the admin session API
type AdminAuthHandler struct {
	service *service.AdminAuthService
}

// NewAdminAuthHandler creates a new handler for the admin session API
func NewAdminAuthHandler(service *service.AdminAuthService) *AdminAuthHandler {
	return &AdminAuthHandler{service: service}
}

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type loginResponse struct {
	SessionToken string               `json:"session_token"`
	ExpiresAt    time.Time            `json:"expires_at"`
	User         *models.AdminAccount `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword     string `json:"current_password" form:"current_password" validate:"required"`
	NewPassword         string `json:"new_password" form:"new_password" validate:"required,min=8"`
	RevokeOtherSessions bool   `json:"revoke_other_sessions" form:"revoke_other_sessions"`
}

type sessionView struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt time.Time          `json:"expires_at"`
	IPAddress *string            `json:"ip_address"`
	UserAgent *string            `json:"user_agent"`
	Device    service.DeviceInfo `json:"device"`
	Current   bool               `json:"current"`
}

// Login checks the credentials and issues a session
func (h *AdminAuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.InputErrorResponse(c, err)
	}

	res := h.service.Login(c.Request().Context(), req.Username, req.Password, clientInfo(c))
	if !res.Success {
		return kindResponse(c, res.Kind, res.Error)
	}

	return response.SuccessResponse(c, loginResponse{
		SessionToken: res.Session.SessionToken,
		ExpiresAt:    res.Session.ExpiresAt,
		User:         res.User,
	})
}

// VerifySession reports the account behind the bearer token
func (h *AdminAuthHandler) VerifySession(c echo.Context) error {
	token := middleware.BearerToken(c)
	if token == "" {
		return response.ErrorResponse(c, http.StatusUnauthorized, response.AuthenticationException, "Missing bearer token")
	}

	res := h.service.VerifySession(c.Request().Context(), token)
	if !res.Valid {
		return kindResponse(c, res.Kind, res.Error)
	}
	return response.SuccessResponse(c, res)
}

// Logout deletes the bearer session. The client is always told it succeeded.
func (h *AdminAuthHandler) Logout(c echo.Context) error {
	if token := middleware.BearerToken(c); token != "" {
		if res := h.service.Logout(c.Request().Context(), token); !res.Success {
			zaplogger.Warn("logout failed", zaplogger.Fields{"kind": string(res.Kind), "error": res.Error})
		}
	}
	return response.SuccessResponse(c, true)
}

// Me returns the current account
func (h *AdminAuthHandler) Me(c echo.Context) error {
	return response.SuccessResponse(c, middleware.CurrentUser(c))
}

// ChangePassword replaces the current account's password
func (h *AdminAuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.InputErrorResponse(c, err)
	}

	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	res := h.service.ChangePassword(ctx, user.ID, req.CurrentPassword, req.NewPassword)
	if !res.Success {
		if res.Kind == service.KindInvalidCredentials {
			return response.ErrorResponse(c, http.StatusBadRequest, response.InputException, res.Error)
		}
		return kindResponse(c, res.Kind, res.Error)
	}

	if req.RevokeOtherSessions {
		if res := h.service.RevokeOtherSessions(ctx, user.ID, middleware.CurrentToken(c)); !res.Success {
			return kindResponse(c, res.Kind, res.Error)
		}
	}
	return response.SuccessResponse(c, "Password updated")
}

// GetActiveSessions lists the current account's sessions without their tokens
func (h *AdminAuthHandler) GetActiveSessions(c echo.Context) error {
	user := middleware.CurrentUser(c)
	res := h.service.GetActiveSessions(c.Request().Context(), user.ID)
	if res.Error != "" {
		return kindResponse(c, res.Kind, res.Error)
	}

	current := middleware.CurrentToken(c)
	views := make([]sessionView, 0, len(res.Sessions))
	for _, s := range res.Sessions {
		views = append(views, sessionView{
			ID:        s.ID,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
			IPAddress: s.IPAddress,
			UserAgent: s.UserAgent,
			Device:    service.DescribeDevice(s.UserAgent),
			Current:   s.SessionToken == current,
		})
	}
	return response.SuccessResponse(c, views)
}

// RevokeSession logs out one device of the current account
func (h *AdminAuthHandler) RevokeSession(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return response.ErrorResponse(c, http.StatusBadRequest, response.InputException, "`id` is required")
	}

	res := h.service.RevokeSession(c.Request().Context(), middleware.CurrentUser(c).ID, id)
	if !res.Success {
		return kindResponse(c, res.Kind, res.Error)
	}
	return response.SuccessResponse(c, true)
}

// RevokeOtherSessions logs out every other device of the current account
func (h *AdminAuthHandler) RevokeOtherSessions(c echo.Context) error {
	res := h.service.RevokeOtherSessions(c.Request().Context(), middleware.CurrentUser(c).ID, middleware.CurrentToken(c))
	if !res.Success {
		return kindResponse(c, res.Kind, res.Error)
	}
	return response.SuccessResponse(c, true)
}

func clientInfo(c echo.Context) service.ClientInfo {
	var info service.ClientInfo
	if ip := c.RealIP(); ip != "" {
		info.IPAddress = &ip
	}
	if ua := c.Request().UserAgent(); ua != "" {
		info.UserAgent = &ua
	}
	return info
}
