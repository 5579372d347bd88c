// Package config loads and validates application configuration using Viper.
//
// Configuration is layered: built-in defaults < YAML config file < environment
// variables. Environment variables use the RSP_ prefix (e.g. RSP_DATABASE_HOST
// overrides database.host in the YAML), so the same binary runs with a
// config.yaml in local development and pure environment variables in
// containerized deployments.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Downloads     DownloadsConfig     `mapstructure:"downloads"`
	Security      SecurityConfig      `mapstructure:"security"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Audit         AuditConfig         `mapstructure:"audit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Address returns the host:port the HTTP server binds to.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode"`
	MaxConnections     int    `mapstructure:"max_connections"`
	MinIdleConnections int    `mapstructure:"min_idle_connections"`
}

// DSN builds the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// AuthConfig holds session token and password hashing configuration.
type AuthConfig struct {
	// JWTSecret signs session tokens. Required outside dev mode; must be at
	// least 32 bytes. Supports ${VAR} expansion so it can be injected from a
	// secret store.
	JWTSecret string `mapstructure:"jwt_secret"`
	// TokenTTL is the fixed lifetime of issued session tokens.
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	// BcryptCost is the bcrypt work factor for password hashing.
	BcryptCost int `mapstructure:"bcrypt_cost"`
	// HashWorkers bounds the number of concurrent bcrypt computations so
	// CPU-bound hashing cannot starve I/O-bound request handling.
	HashWorkers int `mapstructure:"hash_workers"`
}

// DownloadsConfig controls download quota enforcement.
type DownloadsConfig struct {
	// FreeLimit is the number of downloads allowed per window for users with
	// no active paid subscription.
	FreeLimit int `mapstructure:"free_limit"`
	// FreeWindowDays is the rolling window the free limit applies to.
	FreeWindowDays int `mapstructure:"free_window_days"`
}

// SecurityConfig holds request protection settings.
type SecurityConfig struct {
	CORS         CORSConfig      `mapstructure:"cors"`
	RateLimiting RateLimitConfig `mapstructure:"rate_limiting"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds metrics configuration. Metrics are served on a
// dedicated side port so the scrape path stays off the public ingress.
type TelemetryConfig struct {
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
	MetricsPort    int  `mapstructure:"metrics_port"`
}

// NotificationsConfig controls the subscription expiry notifier.
type NotificationsConfig struct {
	// Enabled turns the expiry notifier loop on.
	Enabled bool `mapstructure:"enabled"`
	// ExpiryCheckIntervalHours is how often the notifier scans for
	// subscriptions near their end date.
	ExpiryCheckIntervalHours int `mapstructure:"expiry_check_interval_hours"`
	// ExpiryWarningDays is how far ahead of the end date a warning fires.
	ExpiryWarningDays int `mapstructure:"expiry_warning_days"`
}

// AuditConfig controls export of audit events to external destinations. The
// moderation trail itself always lives in the database; these settings only
// govern mirroring it out.
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// FilePath appends events as JSON lines when set.
	FilePath       string `mapstructure:"file_path"`
	FileMaxSizeMB  int    `mapstructure:"file_max_size_mb"`
	FileMaxBackups int    `mapstructure:"file_max_backups"`
	// WebhookURL posts events to an HTTP collector when set.
	WebhookURL string `mapstructure:"webhook_url"`
}

// IsDevMode reports whether the process runs in development mode. Dev mode
// relaxes the JWT secret requirement (a random secret is generated at startup).
func IsDevMode() bool {
	devMode := os.Getenv("RSP_DEV_MODE")
	ginMode := os.Getenv("GIN_MODE")
	return devMode == "true" || devMode == "1" || ginMode == "debug"
}

// Load reads configuration from the given path (or default locations) plus
// RSP_-prefixed environment variables, and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/resource-share")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment variables apply.
	}

	v.SetEnvPrefix("RSP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not cooperate with Unmarshal on nested structs, so
	// every key is bound explicitly.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Database.Password = os.ExpandEnv(cfg.Database.Password)
	cfg.Auth.JWTSecret = os.ExpandEnv(cfg.Auth.JWTSecret)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	keys := []string{
		"server.host", "server.port", "server.read_timeout", "server.write_timeout",
		"database.host", "database.port", "database.name", "database.user",
		"database.password", "database.ssl_mode", "database.max_connections",
		"database.min_idle_connections",
		"auth.jwt_secret", "auth.token_ttl", "auth.bcrypt_cost", "auth.hash_workers",
		"downloads.free_limit", "downloads.free_window_days",
		"security.cors.allowed_origins", "security.cors.allowed_methods",
		"security.rate_limiting.enabled", "security.rate_limiting.requests_per_minute",
		"security.rate_limiting.burst",
		"logging.level", "logging.format",
		"telemetry.metrics_enabled", "telemetry.metrics_port",
		"notifications.enabled", "notifications.expiry_check_interval_hours",
		"notifications.expiry_warning_days",
		"audit.enabled", "audit.file_path", "audit.file_max_size_mb",
		"audit.file_max_backups", "audit.webhook_url",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "resource_share")
	v.SetDefault("database.user", "resource_share")
	v.SetDefault("database.ssl_mode", "require")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_idle_connections", 5)

	v.SetDefault("auth.token_ttl", "5h")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.hash_workers", 4)

	v.SetDefault("downloads.free_limit", 10)
	v.SetDefault("downloads.free_window_days", 30)

	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("security.rate_limiting.enabled", true)
	v.SetDefault("security.rate_limiting.requests_per_minute", 120)
	v.SetDefault("security.rate_limiting.burst", 20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("telemetry.metrics_enabled", true)
	v.SetDefault("telemetry.metrics_port", 9090)

	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.expiry_check_interval_hours", 24)
	v.SetDefault("notifications.expiry_warning_days", 7)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.file_max_size_mb", 100)
	v.SetDefault("audit.file_max_backups", 5)
}

// Validate checks the configuration for invalid or missing values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.HashWorkers < 1 {
		return fmt.Errorf("auth.hash_workers must be at least 1")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}

	if c.Downloads.FreeLimit < 0 {
		return fmt.Errorf("downloads.free_limit must not be negative")
	}
	if c.Downloads.FreeWindowDays < 1 {
		return fmt.Errorf("downloads.free_window_days must be at least 1")
	}

	if c.Security.RateLimiting.Enabled {
		if c.Security.RateLimiting.RequestsPerMinute < 1 {
			return fmt.Errorf("security.rate_limiting.requests_per_minute must be at least 1")
		}
	}

	if c.Telemetry.MetricsEnabled {
		if c.Telemetry.MetricsPort < 1 || c.Telemetry.MetricsPort > 65535 {
			return fmt.Errorf("invalid telemetry metrics port: %d", c.Telemetry.MetricsPort)
		}
	}

	return nil
}
