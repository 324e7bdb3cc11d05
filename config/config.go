package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Store         StoreConfig
	Database      *DatabaseConfig // Optional: set via DATABASE_URL. When nil, the JSON file store is used.
	Oracle        OracleConfig
	Pipeline      PipelineConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StoreConfig holds the JSON file store configuration
type StoreConfig struct {
	SignalsPath string
	AuditPath   string
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// OracleConfig holds the OpenAI oracle configuration
type OracleConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// PipelineConfig holds batch production and scheduling configuration
type PipelineConfig struct {
	Interval            time.Duration
	MinBatchSize        int
	MaxBatchSize        int
	MaxParallel         int
	ConfidenceThreshold int
	FailureThreshold    int
	ExamplesPath        string
}

// AuthConfig holds governance API authentication configuration
type AuthConfig struct {
	JWTSecret string
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or text
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			SignalsPath: getEnv("STORE_SIGNALS_PATH", "data/signals.json"),
			AuditPath:   getEnv("STORE_AUDIT_PATH", "data/audit.json"),
		},
		Database: loadDatabaseConfig(),
		Oracle: OracleConfig{
			APIKey:     getEnv("OPENAI_API_KEY", ""),
			BaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout:    getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
			MaxRetries: getEnvAsInt("OPENAI_MAX_RETRIES", 3),
			RetryDelay: getEnvAsDuration("OPENAI_RETRY_DELAY", time.Second),
		},
		Pipeline: PipelineConfig{
			Interval:            getEnvAsDuration("PIPELINE_INTERVAL", 60*time.Second),
			MinBatchSize:        getEnvAsInt("PIPELINE_MIN_BATCH_SIZE", 3),
			MaxBatchSize:        getEnvAsInt("PIPELINE_MAX_BATCH_SIZE", 8),
			MaxParallel:         getEnvAsInt("PIPELINE_MAX_PARALLEL", 4),
			ConfidenceThreshold: getEnvAsInt("PIPELINE_CONFIDENCE_THRESHOLD", 60),
			FailureThreshold:    getEnvAsInt("PIPELINE_FAILURE_THRESHOLD", 3),
			ExamplesPath:        getEnv("PIPELINE_EXAMPLES_PATH", "data/examples.csv"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Store validation (file paths required when no database is configured)
	if c.Database == nil {
		if c.Store.SignalsPath == "" {
			return fmt.Errorf("signals store path is required")
		}
		if c.Store.AuditPath == "" {
			return fmt.Errorf("audit store path is required")
		}
	}

	// Pipeline validation
	if c.Pipeline.Interval <= 0 {
		return fmt.Errorf("pipeline interval must be positive")
	}
	if c.Pipeline.MinBatchSize < 1 {
		return fmt.Errorf("minimum batch size must be at least 1")
	}
	if c.Pipeline.MaxBatchSize < c.Pipeline.MinBatchSize {
		return fmt.Errorf("maximum batch size must not be below minimum batch size")
	}
	if c.Pipeline.MaxParallel < 1 {
		return fmt.Errorf("pipeline parallelism must be at least 1")
	}
	if c.Pipeline.ConfidenceThreshold < 0 || c.Pipeline.ConfidenceThreshold > 100 {
		return fmt.Errorf("confidence threshold must be between 0 and 100")
	}

	// Oracle and auth validation (required in production)
	if c.IsProduction() {
		if c.Oracle.APIKey == "" {
			return fmt.Errorf("oracle API key is required in production")
		}
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT secret is required in production")
		}
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL.
// Returns nil when not set (the JSON file store is used instead).
func loadDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil
	}
	return &DatabaseConfig{
		ConnectionString: dbURL,
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
