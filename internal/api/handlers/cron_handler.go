package handlers

import (
	"github.com/ebbb/adminapi/internal/service"
	"github.com/ebbb/adminapi/pkg/utils/response"
	"github.com/labstack/echo/v4"
)

// CronHandler triggers the maintenance jobs on demand
type CronHandler struct {
	CronService *service.CronService
}

func NewCronHandler(cronService *service.CronService) *CronHandler {
	return &CronHandler{CronService: cronService}
}

// CleanupExpiredSessions runs the expired session sweep now
func (h *CronHandler) CleanupExpiredSessions(c echo.Context) error {
	deleted, err := h.CronService.ExpiredSessionsCleanup(c.Request().Context())
	if err != nil {
		return kindResponse(c, service.KindConfiguration, err.Error())
	}
	return response.SuccessResponse(c, map[string]int64{"rows_deleted": deleted})
}
