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
	// Database
	DatabaseURL string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Loader cache; disabled when RedisURL is empty
	RedisURL       string
	LoaderCacheTTL time.Duration

	// Reconciliation
	ReconcileStrategy     string
	InstallmentAllocation string

	// Rate limiting, per client IP
	RateLimitPerMinute int
	RateLimitBurst     int

	// Receipts and photo links
	BusinessName       string
	PresignedURLExpiry time.Duration

	// S3 Storage
	S3 S3Config
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// Enabled reports whether a bucket is configured
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		Port:                  getEnv("PORT", "8080"),
		CORSOrigins:           strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:                   getEnv("ENV", "development"),
		RedisURL:              getEnv("REDIS_URL", ""),
		ReconcileStrategy:     strings.ToLower(getEnv("RECONCILE_STRATEGY", "strict")),
		InstallmentAllocation: strings.ToLower(getEnv("INSTALLMENT_ALLOCATION", "manual")),
		BusinessName:          getEnv("BUSINESS_NAME", "Rikshaw Mart"),
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
	}

	var err error
	if cfg.LoaderCacheTTL, err = getDuration("LOADER_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.PresignedURLExpiry, err = getDuration("PRESIGNED_URL_EXPIRY", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 300); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 50); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.ReconcileStrategy {
	case "strict", "waterfall":
	default:
		return fmt.Errorf("RECONCILE_STRATEGY must be strict or waterfall, got %q", c.ReconcileStrategy)
	}
	switch c.InstallmentAllocation {
	case "manual", "fifo":
	default:
		return fmt.Errorf("INSTALLMENT_ALLOCATION must be manual or fifo, got %q", c.InstallmentAllocation)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive")
	}
	if c.LoaderCacheTTL <= 0 {
		return fmt.Errorf("LOADER_CACHE_TTL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s: %w", key, err)
	}
	return v, nil
}
