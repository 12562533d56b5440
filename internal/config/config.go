// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultIdentitySecret = "your-identity-secret-change-in-production"
	defaultSessionSecret  = "your-session-secret-change-in-production"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Catalog     CatalogConfig
	RateLimit   RateLimitConfig
	Log         LogConfig
	CORS        CORSConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

// AuthConfig describes how identities issued by the external identity
// provider are verified, and how the local cookie session is kept.
type AuthConfig struct {
	IdentitySecret string
	Issuer         string
	Audience       string
	SessionSecret  string
	SessionCookie  string
	SessionMaxAge  int // in seconds
	SecureCookie   bool
	ProtectAdmin   bool
	AdminSubjects  []string
}

type CatalogConfig struct {
	PlaceholderImage  string
	AllowedImageHosts []string
	DefaultPageSize   int
	MaxPageSize       int
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "storefront"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		Auth: AuthConfig{
			IdentitySecret: getEnv("AUTH_IDENTITY_SECRET", defaultIdentitySecret),
			Issuer:         getEnv("AUTH_ISSUER", ""),
			Audience:       getEnv("AUTH_AUDIENCE", ""),
			SessionSecret:  getEnv("AUTH_SESSION_SECRET", defaultSessionSecret),
			SessionCookie:  getEnv("AUTH_SESSION_COOKIE", "storefront_session"),
			SessionMaxAge:  getEnvAsInt("AUTH_SESSION_MAX_AGE", 86400*7),
			SecureCookie:   getEnvAsBool("AUTH_SECURE_COOKIE", false),
			ProtectAdmin:   getEnvAsBool("AUTH_PROTECT_ADMIN", false),
			AdminSubjects:  getEnvAsList("AUTH_ADMIN_SUBJECTS", nil),
		},
		Catalog: CatalogConfig{
			PlaceholderImage:  getEnv("CATALOG_PLACEHOLDER_IMAGE", "/images/placeholder.png"),
			AllowedImageHosts: getEnvAsList("CATALOG_ALLOWED_IMAGE_HOSTS", nil),
			DefaultPageSize:   getEnvAsInt("CATALOG_DEFAULT_PAGE_SIZE", 10),
			MaxPageSize:       getEnvAsInt("CATALOG_MAX_PAGE_SIZE", 100),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 64),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 7),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 7),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.Auth.IdentitySecret == defaultIdentitySecret {
			return fmt.Errorf("identity secret must be changed in production")
		}
		if c.Auth.SessionSecret == defaultSessionSecret {
			return fmt.Errorf("session secret must be changed in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database password is required in production")
		}
	}

	if c.Catalog.DefaultPageSize < 1 || c.Catalog.MaxPageSize < c.Catalog.DefaultPageSize {
		return fmt.Errorf("invalid catalog page sizes: default=%d max=%d", c.Catalog.DefaultPageSize, c.Catalog.MaxPageSize)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
