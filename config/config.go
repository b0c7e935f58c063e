package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	MigrationsDir string

	// Redis configuration. An empty RedisURL disables rate limiting and keeps
	// revoked tokens in process memory.
	RedisURL      string
	RedisPassword string

	// JWT configuration
	JWTSecret string
	TokenTTL  time.Duration

	// API behaviour
	PageSize            int
	MaxPageSize         int
	MinIngredientAmount int

	// Recipe images. When S3Bucket is empty images are written to MediaDir
	// and served under MediaURL.
	MediaDir  string
	MediaURL  string
	S3Bucket  string
	AWSRegion string

	// Recipe write rate limiting
	RateLimitWindow   time.Duration
	RateLimitRequests int

	// Logging
	LogLevel  string
	LogFormat string
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// DatabaseURL returns the postgres URL form used by database/sql drivers.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{Environment: env}

	switch env {
	case CI:
		if err := loadCIConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load CI configuration: %w", err)
		}
	case Development, Test:
		if err := loadDevConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load development configuration: %w", err)
		}
	case Production:
		if err := loadProdConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load production configuration: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadCIConfig reads everything from the environment. Sensitive values use
// the TEST_ prefixed variables exported by the CI runner.
func loadCIConfig(cfg *Config) error {
	loadCommon(cfg)

	cfg.DBPassword = firstNonEmpty(os.Getenv("TEST_DB_PASSWORD"), os.Getenv("DB_PASSWORD"))
	cfg.JWTSecret = firstNonEmpty(os.Getenv("TEST_JWT_SECRET"), os.Getenv("JWT_SECRET"))
	cfg.RedisPassword = firstNonEmpty(os.Getenv("TEST_REDIS_PASSWORD"), os.Getenv("REDIS_PASSWORD"))
	cfg.RedisURL = firstNonEmpty(os.Getenv("TEST_REDIS_URL"), os.Getenv("REDIS_URL"))
	return nil
}

// loadDevConfig loads an optional .env file and falls back to local defaults.
func loadDevConfig(cfg *Config) error {
	envFile := lookup("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	loadCommon(cfg)
	cfg.DBPassword = lookup("DB_PASSWORD", "postgres")
	cfg.JWTSecret = lookup("JWT_SECRET", "foodgram-development-secret")
	cfg.RedisPassword = lookup("REDIS_PASSWORD", "")
	cfg.RedisURL = lookup("REDIS_URL", "")
	return nil
}

// loadProdConfig loads configuration for production. Sensitive values are only
// read from Docker secrets.
func loadProdConfig(cfg *Config) error {
	loadCommon(cfg)
	cfg.DBPassword = readSecret("db_password")
	cfg.JWTSecret = readSecret("jwt_secret")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.RedisURL = lookup("REDIS_URL", "")
	return nil
}

func loadCommon(cfg *Config) {
	cfg.ServerPort = lookup("SERVER_PORT", "8080")
	cfg.ServerHost = lookup("SERVER_HOST", "0.0.0.0")
	cfg.CORSOrigins = splitList(lookup("CORS_ORIGINS", "http://localhost:3000"))

	cfg.DBDriver = lookup("DB_DRIVER", "postgres")
	cfg.DBHost = lookup("DB_HOST", "localhost")
	cfg.DBPort = lookup("DB_PORT", "5432")
	cfg.DBUser = lookup("DB_USER", "postgres")
	cfg.DBName = lookup("DB_NAME", "foodgram")
	cfg.DBSSLMode = lookup("DB_SSL_MODE", "disable")
	cfg.SQLitePath = lookup("SQLITE_PATH", "foodgram.db")
	cfg.MigrationsDir = lookup("MIGRATIONS_DIR", "migrations")

	cfg.TokenTTL = lookupDuration("TOKEN_TTL", 24*time.Hour)

	cfg.PageSize = lookupInt("PAGE_SIZE", 6)
	cfg.MaxPageSize = lookupInt("MAX_PAGE_SIZE", 100)
	cfg.MinIngredientAmount = lookupInt("MIN_INGREDIENT_AMOUNT", 1)

	cfg.MediaDir = lookup("MEDIA_DIR", "media")
	cfg.MediaURL = lookup("MEDIA_URL", "/media/")
	cfg.S3Bucket = lookup("S3_BUCKET_NAME", "")
	cfg.AWSRegion = lookup("AWS_REGION", "us-east-1")

	cfg.RateLimitWindow = lookupDuration("RATE_LIMIT_WINDOW", time.Minute)
	cfg.RateLimitRequests = lookupInt("RATE_LIMIT_REQUESTS", 30)

	cfg.LogLevel = lookup("LOG_LEVEL", "info")
	cfg.LogFormat = lookup("LOG_FORMAT", "json")
}

// lookup returns the environment variable, then the matching Docker secret
// (lower-cased name), then def.
func lookup(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	if v := readSecret(strings.ToLower(name)); v != "" {
		return v
	}
	return def
}

func lookupInt(name string, def int) int {
	v, err := strconv.Atoi(lookup(name, ""))
	if err != nil {
		return def
	}
	return v
}

func lookupDuration(name string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(lookup(name, ""))
	if err != nil {
		return def
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
