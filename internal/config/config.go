// Package config loads configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	APIName                string `env:"ADMIN_API_APP_NAME" default:"EBBB Admin API"`
	APIVersion             string `env:"ADMIN_API_APP_VERSION" default:"v1"`
	Environment            string `env:"ADMIN_API_ENVIRONMENT" default:"development"`
	ServerPort             string `env:"ADMIN_API_SERVER_PORT" default:"3007"`
	ServerLogLevel         string `env:"ADMIN_API_SERVER_LOG_LEVEL" default:"info"`
	PostgresDsn            string `env:"ADMIN_API_PG_DSN"`
	PostgresSchema         string `env:"ADMIN_API_PG_SCHEMA" default:"admin"`
	PostgresLogLevel       string `env:"ADMIN_API_PG_LOG_LEVEL" default:"warn"`
	RedisHost              string `env:"ADMIN_API_REDIS_HOST" default:"localhost"`
	RedisPort              string `env:"ADMIN_API_REDIS_PORT" default:"6379"`
	RedisPassword          string `env:"ADMIN_API_REDIS_PASSWORD" default:"-"`
	TokenStore             string `env:"ADMIN_API_TOKEN_STORE" default:"db"`
	SessionCleanupSchedule string `env:"ADMIN_API_SESSION_CLEANUP_SCHEDULE" default:"@every 1h"`
}

var (
	SingleLine string = "--------------------------------------------------"
)

// ErrMissingEnv is returned when a required variable has neither a value nor a default.
var ErrMissingEnv = errors.New("required env variable is not set")

var (
	instance *Config
	once     sync.Once
	err      error
)

// Get returns the application configuration
func Get() (*Config, error) {
	once.Do(func() {
		instance, err = Load(".env")
	})
	return instance, err
}

// Load reads the optional dotenv files and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if loadErr := godotenv.Load(f); loadErr != nil && !errors.Is(loadErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, loadErr)
		}
	}

	cfg := &Config{}
	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() error {
	t := reflect.TypeOf(*c)
	v := reflect.ValueOf(c).Elem()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		envTag := field.Tag.Get("env")
		if envTag == "" {
			return fmt.Errorf("missing env tag for field %s", field.Name)
		}

		value, ok := os.LookupEnv(envTag)
		if !ok || value == "" {
			def, hasDefault := field.Tag.Lookup("default")
			if !hasDefault {
				return fmt.Errorf("%w: %s", ErrMissingEnv, envTag)
			}
			// "-" marks an optional variable whose zero value is meaningful
			if def == "-" {
				def = ""
			}
			value = def
		}

		v.Field(i).SetString(value)
	}

	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// String returns the configuration as a string
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n--------------------------------------\n")
	sb.WriteString("Configuration:\n")
	sb.WriteString("--------------------------------------\n")

	t := reflect.TypeOf(*c)
	v := reflect.ValueOf(*c)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := maskSensitiveField(field.Name, v.Field(i).String())
		sb.WriteString(fmt.Sprintf("  %s:  %s\n", field.Name, value))
	}

	sb.WriteString("--------------------------------------\n")

	return sb.String()
}

func maskSensitiveField(fieldName, value string) string {
	sensitiveFields := []string{"token", "dsn", "secret", "password", "url"}

	fieldNameLower := strings.ToLower(fieldName)
	// TokenStore names a backend kind, not a credential
	if fieldNameLower == "tokenstore" {
		return value
	}
	for _, sensitive := range sensitiveFields {
		if strings.Contains(fieldNameLower, sensitive) {
			return maskValue(value)
		}
	}

	return value
}

func maskValue(value string) string {
	if len(value) <= 3 {
		return strings.Repeat("*", 7)
	}
	return value[:3] + strings.Repeat("*", 7)
}
