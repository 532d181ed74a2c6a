// Package main provides adminctl, the operator CLI for admin accounts and sessions.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/ebbb/adminapi/internal/config"
	"github.com/ebbb/adminapi/internal/repository"
	"github.com/ebbb/adminapi/internal/service"
	"github.com/ebbb/adminapi/internal/tokenstore"
	"github.com/ebbb/adminapi/pkg/utils/auditlog"
	"github.com/ebbb/adminapi/pkg/utils/zaplogger"
)

var rootCmd = &cobra.Command{
	Use:   "adminctl",
	Short: "Manage EBBB admin accounts and sessions",
	Long: `adminctl provisions back-office administrators and manages their sessions
against the admin store. The login token is kept in the configured token store
(ADMIN_API_TOKEN_STORE: db, redis or memory).`,
	SilenceUsage: true,
}

var (
	envFile  string
	logLevel string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what a command needs to talk to the admin store
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	auth     *service.AdminAuthService
	sessions *service.SessionManager
	audit    *auditlog.Logger
	close    func()
}

// openApp is replaced in tests
var openApp = func(ctx context.Context) (*app, error) {
	zaplogger.SetLogLevel(logLevel)

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := repository.ConnectPostgres(cfg)
	if err != nil {
		return nil, err
	}

	auditLogger, err := auditlog.New(db)
	if err != nil {
		return nil, err
	}
	auth := service.NewAdminAuthServiceFromDB(db, service.WithAuditor(auditLogger))

	store, closeStore, err := newTokenStore(ctx, cfg, db)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		db:       db,
		auth:     auth,
		sessions: service.NewSessionManager(store, auth),
		audit:    auditLogger,
		close: func() {
			closeStore()
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	}, nil
}

// newTokenStore returns the backend named by cfg.TokenStore
func newTokenStore(_ context.Context, cfg *config.Config, db *gorm.DB) (service.TokenStore, func(), error) {
	switch strings.ToLower(cfg.TokenStore) {
	case "", "db":
		store, err := tokenstore.NewDB(db)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "redis":
		client, err := repository.ConnectRedis(cfg)
		if err != nil {
			return nil, nil, err
		}
		return tokenstore.NewRedis(client, ""), func() { _ = client.Close() }, nil
	case "memory":
		return tokenstore.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}

// withApp opens the app around fn
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

// readSecret returns flagValue, or the first line of in when the flag is empty
func readSecret(in io.Reader, flagValue, name string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return line, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// resultError turns a failed service result into a command error
func resultError(kind service.ErrorKind, msg string) error {
	return fmt.Errorf("%s: %s", kind, msg)
}
