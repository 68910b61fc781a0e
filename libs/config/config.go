// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Database    DatabaseConfig
	Redis       RedisConfig
	Server      ServerConfig
	Logging     LoggingConfig
	CORS        CORSConfig
	JWT         JWTConfig
	SMTP        SMTPConfig
	Reminder    ReminderConfig
	Admin       AdminConfig
	RateLimit   RateLimitConfig
	Stats       StatsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the Redis address in host:port form
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	AccessSecret       string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// SMTPConfig holds SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// ReminderConfig holds due date reminder settings
type ReminderConfig struct {
	Cron   string
	Window time.Duration
}

// AdminConfig holds the optional bootstrap admin account
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

// RateLimitConfig holds per-IP request limits
type RateLimitConfig struct {
	PerMinute      int
	LoginPerMinute int
}

// StatsConfig holds dashboard statistics settings
type StatsConfig struct {
	CacheTTL time.Duration
}

// IsProduction reports whether the application runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}
	var err error

	cfg.Environment = getEnvDefault("APP_ENV", "development")

	// Database configuration
	if cfg.Database.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Database.Port, err = requireIntEnv("DB_PORT"); err != nil {
		return nil, err
	}
	if cfg.Database.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}

	// Server configuration
	if cfg.Server.Port, err = intEnvDefault("SERVER_PORT", 8080); err != nil {
		return nil, err
	}

	// Logging configuration
	cfg.Logging.Level = getEnvDefault("LOG_LEVEL", "info")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	if cfg.JWT.AccessSecret, err = requireEnv("JWT_ACCESS_SECRET"); err != nil {
		return nil, err
	}
	if cfg.JWT.RefreshSecret, err = requireEnv("JWT_REFRESH_SECRET"); err != nil {
		return nil, err
	}
	if cfg.JWT.AccessSecret == cfg.JWT.RefreshSecret {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if cfg.JWT.AccessTokenExpiry, err = durationEnvDefault("JWT_ACCESS_TOKEN_EXPIRY", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.JWT.RefreshTokenExpiry, err = durationEnvDefault("JWT_REFRESH_TOKEN_EXPIRY", 7*24*time.Hour); err != nil {
		return nil, err
	}

	// Redis configuration
	cfg.Redis.Host = getEnvDefault("REDIS_HOST", "localhost")
	if cfg.Redis.Port, err = intEnvDefault("REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD") // optional
	if cfg.Redis.DB, err = intEnvDefault("REDIS_DB", 0); err != nil {
		return nil, err
	}

	// SMTP configuration
	cfg.SMTP.Host = getEnvDefault("SMTP_HOST", "localhost")
	if cfg.SMTP.Port, err = intEnvDefault("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME") // optional
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD") // optional
	cfg.SMTP.From = getEnvDefault("SMTP_FROM", "noreply@todoboard.local")

	// Reminder configuration
	cfg.Reminder.Cron = getEnvDefault("DUE_REMINDER_CRON", "0 * * * *")
	if cfg.Reminder.Window, err = durationEnvDefault("DUE_REMINDER_WINDOW", 24*time.Hour); err != nil {
		return nil, err
	}

	// Bootstrap admin (optional)
	cfg.Admin.Email = os.Getenv("ADMIN_EMAIL")
	cfg.Admin.Password = os.Getenv("ADMIN_PASSWORD")
	cfg.Admin.Name = getEnvDefault("ADMIN_NAME", "Administrator")

	// Rate limits
	if cfg.RateLimit.PerMinute, err = intEnvDefault("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimit.LoginPerMinute, err = intEnvDefault("LOGIN_RATE_LIMIT_PER_MINUTE", 10); err != nil {
		return nil, err
	}

	// Dashboard statistics cache
	if cfg.Stats.CacheTTL, err = durationEnvDefault("STATS_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DSN returns the database connection string
//
// clientFoundRows makes UPDATE report matched rows instead of changed rows,
// so an update that leaves a row unchanged is not mistaken for a missing row.
func (c *Config) DSN() string {
	if c.Database.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&clientFoundRows=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func requireIntEnv(key string) (int, error) {
	value, err := requireEnv(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDefault(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

func intEnvDefault(key string, def int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnvDefault(key string, def time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// parseOrigins parses comma-separated origins, defaulting to all origins
func parseOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	origins := strings.Split(raw, ",")
	allowed := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowed = append(allowed, origin)
		}
	}
	if len(allowed) == 0 {
		return []string{"*"}
	}
	return allowed
}
