package handlers

import (
	"net/http"

	"github.com/ebbb/adminapi/internal/api/middleware"
	"github.com/ebbb/adminapi/internal/models"
	"github.com/ebbb/adminapi/internal/service"
	"github.com/ebbb/adminapi/pkg/utils/response"
	"github.com/labstack/echo/v4"
)

// AdminUsersHandler is the handler for account provisioning
type AdminUsersHandler struct {
	service *service.AdminAuthService
}

// NewAdminUsersHandler creates a new handler for account provisioning
func NewAdminUsersHandler(service *service.AdminAuthService) *AdminUsersHandler {
	return &AdminUsersHandler{service: service}
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name"`
	Role     string `json:"role" validate:"omitempty,oneof=admin super_admin"`
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ListUsers returns every admin account
func (h *AdminUsersHandler) ListUsers(c echo.Context) error {
	res := h.service.ListAdminUsers(c.Request().Context())
	if res.Error != "" {
		return kindResponse(c, res.Kind, res.Error)
	}
	if res.Users == nil {
		res.Users = []models.AdminAccount{}
	}
	return response.SuccessResponse(c, res.Users)
}

// CreateUser provisions a new admin account
func (h *AdminUsersHandler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.InputErrorResponse(c, err)
	}

	res := h.service.CreateAdminUser(c.Request().Context(), service.NewAdminUser{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     models.Role(req.Role),
	})
	if !res.Success {
		return kindResponse(c, res.Kind, res.Error)
	}
	return response.CreatedResponse(c, res.User)
}

// SetActive activates or deactivates an account
func (h *AdminUsersHandler) SetActive(c echo.Context) error {
	var req setActiveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.InputErrorResponse(c, err)
	}

	id := c.Param("id")
	if !*req.Active && id == middleware.CurrentUser(c).ID {
		return response.ErrorResponse(c, http.StatusBadRequest, response.InputException, "Cannot deactivate your own account")
	}

	res := h.service.SetAccountActive(c.Request().Context(), id, *req.Active)
	if !res.Success {
		return kindResponse(c, res.Kind, res.Error)
	}
	return response.SuccessResponse(c, true)
}
