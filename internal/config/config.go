package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Logging   LoggingConfig
	Engine    EngineConfig
	NATS      NATSConfig
	Retention RetentionConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigin   string
	Environment     string
	RateLimit       float64
	RateBurst       int
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// AuthConfig contains authentication configuration.
// An empty JWTSecret disables authentication on the API.
type AuthConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

// Enabled reports whether bearer tokens are required
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// EngineConfig tunes playbook selection and execution
type EngineConfig struct {
	// CatalogPath points at a YAML playbook catalog. Empty uses the built-in catalog.
	CatalogPath string
	// MaxParallel bounds concurrently running parallel actions
	MaxParallel int
	// TimeScale multiplies simulated action and isolation delays
	TimeScale float64
	// UrgencyFactor scales action timeouts for CRITICAL incidents
	UrgencyFactor float64
	// MTTRTarget is the dashboard recovery objective
	MTTRTarget time.Duration
	// IntelCacheSize and IntelCacheTTL size the threat intel result cache
	IntelCacheSize int
	IntelCacheTTL  time.Duration
}

// NATSConfig configures outcome publication
type NATSConfig struct {
	Enabled bool
	URL     string
	Subject string
}

// RetentionConfig configures pruning of stored incidents
type RetentionConfig struct {
	Enabled  bool
	Schedule string
	MaxAge   time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 2*time.Minute),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigin:   getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			RateLimit:       getEnvAsFloat("RATE_LIMIT", 100),
			RateBurst:       getEnvAsInt("RATE_BURST", 200),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "soar"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./incident_response.db"),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			TokenExpiry: getEnvAsDuration("JWT_EXPIRY", 24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Engine: EngineConfig{
			CatalogPath:    getEnv("SOAR_CATALOG_PATH", ""),
			MaxParallel:    getEnvAsInt("SOAR_MAX_PARALLEL", 16),
			TimeScale:      getEnvAsFloat("SOAR_TIME_SCALE", 1.0),
			UrgencyFactor:  getEnvAsFloat("SOAR_URGENCY_FACTOR", 0.7),
			MTTRTarget:     getEnvAsDuration("SOAR_MTTR_TARGET", 15*time.Minute),
			IntelCacheSize: getEnvAsInt("SOAR_INTEL_CACHE_SIZE", 1024),
			IntelCacheTTL:  getEnvAsDuration("SOAR_INTEL_CACHE_TTL", time.Hour),
		},
		NATS: NATSConfig{
			Enabled: getEnvAsBool("NATS_ENABLED", false),
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Subject: getEnv("NATS_SUBJECT", "soar.incidents.processed"),
		},
		Retention: RetentionConfig{
			Enabled:  getEnvAsBool("RETENTION_ENABLED", true),
			Schedule: getEnv("RETENTION_SCHEDULE", "0 3 * * *"),
			MaxAge:   getEnvAsDuration("RETENTION_MAX_AGE", 90*24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Server.Environment == "production" && !c.Auth.Enabled() {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}

	if c.Engine.MaxParallel < 1 {
		return fmt.Errorf("SOAR_MAX_PARALLEL must be at least 1, got %d", c.Engine.MaxParallel)
	}

	if c.Engine.TimeScale < 0 {
		return fmt.Errorf("SOAR_TIME_SCALE must not be negative")
	}

	if c.Engine.UrgencyFactor <= 0 || c.Engine.UrgencyFactor > 1 {
		return fmt.Errorf("SOAR_URGENCY_FACTOR must be in (0, 1], got %v", c.Engine.UrgencyFactor)
	}

	if c.Engine.MTTRTarget <= 0 {
		return fmt.Errorf("SOAR_MTTR_TARGET must be positive")
	}

	if c.Retention.Enabled {
		if _, err := cron.ParseStandard(c.Retention.Schedule); err != nil {
			return fmt.Errorf("invalid RETENTION_SCHEDULE: %w", err)
		}
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
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
