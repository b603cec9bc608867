package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// Schema revisions the service can run against
const (
	SchemaRevisionFull      = "full"
	SchemaRevisionDraftOnly = "draft-only"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DBType            string // postgres, mysql, sqlite, sqlserver, etc.
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int
	DBConnectTimeout  time.Duration

	// Token configuration
	JWTSecret     string
	JWTIssuer     string
	JWTTTL        time.Duration
	JWTRefreshTTL time.Duration

	// Renderer configuration
	RenderURL     string
	RenderTimeout time.Duration

	// SchemaRevision selects the document status enumeration in force
	SchemaRevision string

	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables.
// If ENV_FILE is set, that file is loaded into the environment first.
func Load() (*Config, error) {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		DBType:            getEnv("DB_TYPE", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBDatabase:        getEnv("DB_DATABASE", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		DBConnectTimeout:  time.Duration(getEnvAsInt("DB_CONNECT_TIMEOUT", 30)) * time.Second,
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTIssuer:         getEnv("JWT_ISSUER", "aris"),
		JWTTTL:            time.Duration(getEnvAsInt("JWT_TTL_MINUTES", 60)) * time.Minute,
		JWTRefreshTTL:     time.Duration(getEnvAsInt("JWT_REFRESH_TTL_HOURS", 168)) * time.Hour,
		RenderURL:         getEnv("RENDER_URL", ""),
		RenderTimeout:     time.Duration(getEnvAsInt("RENDER_TIMEOUT_MS", 10000)) * time.Millisecond,
		SchemaRevision:    getEnv("SCHEMA_REVISION", SchemaRevisionFull),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every missing or malformed setting at once
func (cfg *Config) Validate() error {
	var result *multierror.Error

	if cfg.DBDatabase == "" {
		result = multierror.Append(result, fmt.Errorf("DB_DATABASE is required"))
	}
	if cfg.DBType != "sqlite" && cfg.DBUser == "" {
		result = multierror.Append(result, fmt.Errorf("DB_USER is required for %s", cfg.DBType))
	}
	if cfg.JWTSecret == "" {
		result = multierror.Append(result, fmt.Errorf("JWT_SECRET is required"))
	}
	if cfg.JWTTTL <= 0 || cfg.JWTRefreshTTL <= 0 {
		result = multierror.Append(result, fmt.Errorf("token lifetimes must be positive"))
	}
	switch cfg.SchemaRevision {
	case SchemaRevisionFull, SchemaRevisionDraftOnly:
	default:
		result = multierror.Append(result, fmt.Errorf("SCHEMA_REVISION must be %q or %q, got %q",
			SchemaRevisionFull, SchemaRevisionDraftOnly, cfg.SchemaRevision))
	}

	return result.ErrorOrNil()
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
