package app

import (
	"os"
	"strconv"
	"time"

	"github.com/Kingjoy7/CharityPulse/internal/auth/domain"
	"github.com/Kingjoy7/CharityPulse/internal/auth/service"
	"github.com/Kingjoy7/CharityPulse/pkg/jwtx"
)

type Config struct {
	Issuer    string // Issuer claim for tokens (default: charitypulse-auth)
	JWTSecret string // Required in prod: HS256 signing secret; generated per-process when unset

	TokenTTL         time.Duration // Bearer token lifetime (default: 5h, absolute, no refresh)
	LockoutThreshold int           // Failed logins before lockout (default: 5)
	LockoutWindow    time.Duration // Lockout duration (default: 15m)
	ResetTokenTTL    time.Duration // Password reset token lifetime (default: 1h)
	ResetLinkBase    string        // Base URL for reset links (default: http://localhost:3000/reset-password)
	DefaultRole      string        // Role assigned at registration when omitted (default: Organizer)
	TOTPIssuer       string        // Issuer name shown in authenticator apps (default: CharityPulse)

	DatabaseFile        string        // Path to SQLite database file (default: ./charitypulse.db)
	PepperFile          string        // Path to password hashing pepper file (default: ./pepper)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Issuer:    getEnvOrDefault("AUTH_ISSUER", "charitypulse-auth"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		TokenTTL:         getEnvDurationOrDefault("AUTH_TOKEN_TTL", jwtx.DefaultTokenTTL),
		LockoutThreshold: getEnvIntOrDefault("AUTH_LOCKOUT_THRESHOLD", service.DefaultLockoutThreshold),
		LockoutWindow:    getEnvDurationOrDefault("AUTH_LOCKOUT_WINDOW", service.DefaultLockoutWindow),
		ResetTokenTTL:    getEnvDurationOrDefault("AUTH_RESET_TOKEN_TTL", service.DefaultResetTokenTTL),
		ResetLinkBase:    getEnvOrDefault("AUTH_RESET_LINK_BASE", "http://localhost:3000/reset-password"),
		DefaultRole:      getEnvOrDefault("AUTH_DEFAULT_ROLE", domain.RoleOrganizer.String()),
		TOTPIssuer:       getEnvOrDefault("AUTH_TOTP_ISSUER", "CharityPulse"),

		DatabaseFile:        getEnvOrDefault("AUTH_DATABASE_FILE", "charitypulse.db"),
		PepperFile:          getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
