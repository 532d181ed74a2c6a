package handlers

import (
	"fmt"
	"net/http"

	"github.com/ebbb/adminapi/internal/config"
	"github.com/ebbb/adminapi/internal/repository"
	"github.com/ebbb/adminapi/pkg/utils/response"
	"github.com/ebbb/adminapi/pkg/utils/zaplogger"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// HealthHandler serves the index and store health routes
type HealthHandler struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewHealthHandler(cfg *config.Config, db *gorm.DB) *HealthHandler {
	return &HealthHandler{cfg: cfg, db: db}
}

// Index returns the API name and version
func (h *HealthHandler) Index(c echo.Context) error {
	return response.SuccessResponse(c, fmt.Sprintf("%s %s", h.cfg.APIName, h.cfg.APIVersion))
}

// CheckStore reports whether the credential store answers
func (h *HealthHandler) CheckStore(c echo.Context) error {
	if h.db == nil {
		return response.ErrorResponse(c, http.StatusServiceUnavailable, response.ConfigurationException, "Store configuration is missing")
	}
	if err := repository.Ping(c.Request().Context(), h.db); err != nil {
		zaplogger.Error("health: store ping failed", zaplogger.Fields{"error": err.Error()})
		return response.ErrorResponse(c, http.StatusServiceUnavailable, response.ConfigurationException, "Store is unavailable")
	}
	return response.SuccessResponse(c, map[string]string{"store": "ok"})
}
