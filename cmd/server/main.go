// Package main is the entry point for the admin API server
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ebbb/adminapi/internal/api"
	"github.com/ebbb/adminapi/internal/api/middleware"
	"github.com/ebbb/adminapi/internal/config"
	"github.com/ebbb/adminapi/internal/repository"
	"github.com/ebbb/adminapi/internal/service"
	"github.com/ebbb/adminapi/pkg/utils/auditlog"
	"github.com/ebbb/adminapi/pkg/utils/zaplogger"
	"github.com/labstack/echo/v4"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Print the configuration
	fmt.Println(cfg.String())

	// Connect to Postgres
	db, err := repository.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}

	// Init logger
	err = zaplogger.InitLogger(db)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Setup logger
	defer zaplogger.Sync()
	zaplogger.SetLogLevel(cfg.ServerLogLevel)

	// Audit trail
	auditLogger, err := auditlog.New(db)
	if err != nil {
		zaplogger.Fatal("Failed to initialize audit log", zaplogger.Fields{"error": err.Error()})
	}

	// startUpMessage
	zaplogger.Info(config.SingleLine)
	zaplogger.Info(cfg.APIName + " - " + cfg.APIVersion + " initialized")
	zaplogger.Info("Postgres initialized")
	zaplogger.Info(config.SingleLine)

	authService := service.NewAdminAuthServiceFromDB(db, service.WithAuditor(auditLogger))

	// Create a new Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Setup middleware
	middleware.SetupLoggerMiddleware(e)
	middleware.SetupSecurityMiddleware(e)

	// Setup and start cron jobs
	cronService := service.NewCronService(cfg, authService)
	if err := cronService.Start(); err != nil {
		zaplogger.Fatal("Failed to start cron jobs", zaplogger.Fields{"error": err.Error()})
	}

	// Setup routes
	api.SetupRoutes(e, cfg, db, authService, cronService)

	// Start the server
	startServer(e, cfg, cronService)
}

// startServer starts the Echo server and blocks until SIGINT or SIGTERM
func startServer(e *echo.Echo, cfg *config.Config, cronService *service.CronService) {
	port := cfg.ServerPort
	if port == "" {
		port = "3007"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zaplogger.Info("SERVER STARTED ON PORT " + port)
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zaplogger.Fatal("Server stopped", zaplogger.Fields{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	zaplogger.Info("SERVER SHUTTING DOWN")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zaplogger.Error("Server shutdown failed", zaplogger.Fields{"error": err.Error()})
	}
	cronService.Stop()
}
