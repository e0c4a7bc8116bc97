// Package config provides configuration loading for the portfolio API.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Email     EmailConfig     `mapstructure:"email"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"` // dev, staging, prod
}

// Development returns true outside of the production environment.
func (c ServerConfig) Development() bool {
	return c.Environment != "prod"
}

// StorageConfig selects the durable store driver.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // redis, postgres, memory
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the postgres:// URL form used by the migration tool.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig holds admin authentication configuration.
type AuthConfig struct {
	// SessionSecret signs session tokens. Required in production.
	SessionSecret string        `mapstructure:"session_secret"`
	CodeExpiry    time.Duration `mapstructure:"code_expiry"`
	SessionExpiry time.Duration `mapstructure:"session_expiry"`
	// AdminEmail receives one-time codes. There is exactly one admin;
	// leaving this unset disables the login flow with a 500.
	AdminEmail string `mapstructure:"admin_email"`
}

// EmailConfig holds outbound email configuration.
type EmailConfig struct {
	Provider string `mapstructure:"provider"` // ses, log
	Region   string `mapstructure:"region"`
	From     string `mapstructure:"from"`
	// To receives contact form notifications.
	To string `mapstructure:"to"`
}

// RateLimitConfig holds per-endpoint rate limit parameters.
type RateLimitConfig struct {
	RequestCodeMax    int           `mapstructure:"request_code_max"`
	RequestCodeWindow time.Duration `mapstructure:"request_code_window"`
	VerifyCodeMax     int           `mapstructure:"verify_code_max"`
	VerifyCodeWindow  time.Duration `mapstructure:"verify_code_window"`
	CreateBlogMax     int           `mapstructure:"create_blog_max"`
	CreateBlogWindow  time.Duration `mapstructure:"create_blog_window"`

	ContactIPMax    int           `mapstructure:"contact_ip_max"`
	ContactEmailMax int           `mapstructure:"contact_email_max"`
	ContactWindow   time.Duration `mapstructure:"contact_window"`
	ContactBlock    time.Duration `mapstructure:"contact_block"`
}

// Load reads configuration from files and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/portfolio-api")

	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Explicitly bind secrets (nested struct issue with viper)
	v.BindEnv("auth.session_secret", "PORTFOLIO_AUTH_SESSION_SECRET")
	v.BindEnv("auth.admin_email", "PORTFOLIO_AUTH_ADMIN_EMAIL")
	v.BindEnv("email.from", "PORTFOLIO_EMAIL_FROM")
	v.BindEnv("email.to", "PORTFOLIO_EMAIL_TO")
	v.BindEnv("database.password", "PORTFOLIO_DATABASE_PASSWORD")
	v.BindEnv("redis.password", "PORTFOLIO_REDIS_PASSWORD")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "dev")

	// Storage defaults
	v.SetDefault("storage.driver", "redis")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "portfolio")
	v.SetDefault("database.password", "portfolio")
	v.SetDefault("database.database", "portfolio")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Auth defaults
	v.SetDefault("auth.session_secret", "default-secret-change-me")
	v.SetDefault("auth.code_expiry", "5m")
	v.SetDefault("auth.session_expiry", "24h")

	// Email defaults
	v.SetDefault("email.provider", "log")
	v.SetDefault("email.region", "us-east-1")

	// Rate limit defaults
	v.SetDefault("rate_limit.request_code_max", 3)
	v.SetDefault("rate_limit.request_code_window", "5m")
	v.SetDefault("rate_limit.verify_code_max", 5)
	v.SetDefault("rate_limit.verify_code_window", "5m")
	v.SetDefault("rate_limit.create_blog_max", 10)
	v.SetDefault("rate_limit.create_blog_window", "1h")
	v.SetDefault("rate_limit.contact_ip_max", 5)
	v.SetDefault("rate_limit.contact_email_max", 3)
	v.SetDefault("rate_limit.contact_window", "1h")
	v.SetDefault("rate_limit.contact_block", "2h")
}
