// Package api contains the API routes for the admin API
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/ebbb/adminapi/internal/api/handlers"
	"github.com/ebbb/adminapi/internal/api/middleware"
	"github.com/ebbb/adminapi/internal/config"
	"github.com/ebbb/adminapi/internal/models"
	"github.com/ebbb/adminapi/internal/service"
)

// SetupRoutes configures the routes for the API
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *gorm.DB, authService *service.AdminAuthService, cronService *service.CronService) {
	e.Validator = NewRequestValidator()

	// Prometheus scrape endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Create a group for all API routes
	api := e.Group("/api")

	// Index and health routes
	healthHandler := handlers.NewHealthHandler(cfg, db)
	api.GET("/", healthHandler.Index)
	api.GET("/health", healthHandler.CheckStore)

	// Admin session routes (unprotected)
	authHandler := handlers.NewAdminAuthHandler(authService)
	adminGroup := api.Group("/admin")
	adminGroup.POST("/login", authHandler.Login)
	adminGroup.GET("/session", authHandler.VerifySession)
	adminGroup.POST("/logout", authHandler.Logout)

	// Admin account routes (protected)
	requireSession := middleware.AuthMiddleware(authService)
	adminGroup.GET("/me", authHandler.Me, requireSession)
	adminGroup.POST("/password", authHandler.ChangePassword, requireSession)
	adminGroup.GET("/sessions", authHandler.GetActiveSessions, requireSession)
	adminGroup.DELETE("/sessions", authHandler.RevokeOtherSessions, requireSession)
	adminGroup.DELETE("/sessions/:id", authHandler.RevokeSession, requireSession)

	// Super admin routes (protected)
	superAdmin := []echo.MiddlewareFunc{requireSession, middleware.RequireRole(models.RoleSuperAdmin)}
	usersHandler := handlers.NewAdminUsersHandler(authService)
	adminGroup.GET("/users", usersHandler.ListUsers, superAdmin...)
	adminGroup.POST("/users", usersHandler.CreateUser, superAdmin...)
	adminGroup.PATCH("/users/:id/active", usersHandler.SetActive, superAdmin...)

	cronHandler := handlers.NewCronHandler(cronService)
	adminGroup.POST("/sessions/cleanup", cronHandler.CleanupExpiredSessions, superAdmin...)
}
