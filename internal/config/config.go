package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	App      AppConfig
	Sweep    SweepConfig
	Webhook  WebhookConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig holds connection settings for the live presence cache.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	PresenceTTL time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret            string
	RefreshExpiration string
	AccessExpiration  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	CORSOrigins []string
}

// SweepConfig controls the background expiry sweep. Disabled by default:
// expiry is normally observed lazily on the next heartbeat, and the sweep
// only matters when a device stops reporting entirely.
type SweepConfig struct {
	Enabled  bool
	Interval time.Duration
}

// WebhookConfig controls delivery of closed sessions to downstream consumers.
type WebhookConfig struct {
	Timeout    time.Duration
	RetryCount int
}

func Load() (*Config, error) {
	// .env is optional; deployments may set the environment directly.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "presensia"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	presenceTTL, err := time.ParseDuration(getEnv("REDIS_PRESENCE_TTL", "90s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PRESENCE_TTL: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:        getEnv("REDIS_ADDR", "localhost:6379"),
		Password:    getEnv("REDIS_PASSWORD", ""),
		DB:          redisDB,
		PresenceTTL: presenceTTL,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:            getEnv("JWT_SECRET_KEY", ""),
		RefreshExpiration: getEnv("JWT_REFRESH_EXPIRATION_TIME", "168h"),
		AccessExpiration:  getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Expiry sweep configuration
	sweepInterval, err := time.ParseDuration(getEnv("SWEEP_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	config.Sweep = SweepConfig{
		Enabled:  getEnv("SWEEP_ENABLED", "false") == "true",
		Interval: sweepInterval,
	}

	// Webhook configuration
	webhookTimeout, err := time.ParseDuration(getEnv("WEBHOOK_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	webhookRetries, err := strconv.Atoi(getEnv("WEBHOOK_RETRY_COUNT", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_RETRY_COUNT: %w", err)
	}

	config.Webhook = WebhookConfig{
		Timeout:    webhookTimeout,
		RetryCount: webhookRetries,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Sweep.Enabled && c.Sweep.Interval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive when SWEEP_ENABLED is true")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
