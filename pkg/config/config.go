package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mindlab-health/caregrid/pkg/observability"
	"github.com/mindlab-health/caregrid/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration (Postgres, Redis, S3 archive)
	Storage storage.Config

	// RBAC configuration
	RBAC RBACConfig

	// Audit trail configuration
	Audit AuditConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// RBACConfig holds role and permission matrix settings
type RBACConfig struct {
	// SeedMatrixPath points at a YAML role->permission matrix. Empty means
	// the built-in matrix ships with the binary.
	SeedMatrixPath string

	// SeedOnStart applies the matrix to the database during startup.
	SeedOnStart bool
}

// AuditConfig holds audit trail retention settings
type AuditConfig struct {
	Retention      time.Duration
	PruneInterval  time.Duration
	FilePath       string
	ArchiveEnabled bool
}

// RateLimitConfig holds request rate limiting settings
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int

	// Distributed enforces the limit across replicas via Redis.
	Distributed bool
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
	OTelSampleRatio    float64
}

// LoadConfig loads configuration from environment variables, applies an
// optional YAML override file, and validates the result
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		RBAC:          loadRBACConfig(),
		Audit:         loadAuditConfig(),
		RateLimit:     loadRateLimitConfig(),
		Observability: loadObservabilityConfig(),
	}

	if path := getEnv("CAREGRID_CONFIG_FILE", ""); path != "" {
		if err := applyFileOverrides(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("CAREGRID_HOST", "0.0.0.0"),
		Port:            getEnv("CAREGRID_PORT", "8080"),
		ReadTimeout:     getEnvDuration("CAREGRID_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("CAREGRID_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("CAREGRID_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("CAREGRID_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("CAREGRID_HEALTH_PORT", "9090"),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	// PostgreSQL config
	if pgURL := getEnv("CAREGRID_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if maxConns := getEnvInt("CAREGRID_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("CAREGRID_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("CAREGRID_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}

	// Redis config
	if redisURL := getEnv("CAREGRID_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("CAREGRID_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("CAREGRID_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if redisMaxRetries := getEnvInt("CAREGRID_REDIS_MAX_RETRIES", 0); redisMaxRetries > 0 {
		cfg.RedisMaxRetries = redisMaxRetries
	}
	if redisPoolSize := getEnvInt("CAREGRID_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}

	// S3 archive config
	if s3Endpoint := getEnv("CAREGRID_S3_ENDPOINT", ""); s3Endpoint != "" {
		cfg.S3Endpoint = s3Endpoint
	}
	if s3Region := getEnv("CAREGRID_S3_REGION", ""); s3Region != "" {
		cfg.S3Region = s3Region
	}
	if s3Bucket := getEnv("CAREGRID_S3_BUCKET", ""); s3Bucket != "" {
		cfg.S3Bucket = s3Bucket
	}
	if s3AccessKey := getEnv("CAREGRID_S3_ACCESS_KEY", ""); s3AccessKey != "" {
		cfg.S3AccessKey = s3AccessKey
	}
	if s3SecretKey := getEnv("CAREGRID_S3_SECRET_KEY", ""); s3SecretKey != "" {
		cfg.S3SecretKey = s3SecretKey
	}
	if s3UsePathStyle := getEnv("CAREGRID_S3_USE_PATH_STYLE", ""); s3UsePathStyle != "" {
		cfg.S3UsePathStyle = strings.ToLower(s3UsePathStyle) == "true"
	}

	// Cache config
	if cacheEnabled := getEnv("CAREGRID_CACHE_ENABLED", ""); cacheEnabled != "" {
		cfg.CacheEnabled = strings.ToLower(cacheEnabled) == "true"
	}
	if l1CacheSize := getEnvInt("CAREGRID_L1_CACHE_SIZE", 0); l1CacheSize > 0 {
		cfg.L1CacheSize = l1CacheSize
	}

	return cfg
}

// loadRBACConfig loads RBAC configuration from environment
func loadRBACConfig() RBACConfig {
	return RBACConfig{
		SeedMatrixPath: getEnv("CAREGRID_SEED_MATRIX", ""),
		SeedOnStart:    getEnvBool("CAREGRID_SEED_ON_START", true),
	}
}

// loadAuditConfig loads audit configuration from environment
func loadAuditConfig() AuditConfig {
	return AuditConfig{
		Retention:      getEnvDuration("CAREGRID_AUDIT_RETENTION", 90*24*time.Hour),
		PruneInterval:  getEnvDuration("CAREGRID_AUDIT_PRUNE_INTERVAL", 24*time.Hour),
		FilePath:       getEnv("CAREGRID_AUDIT_FILE", ""),
		ArchiveEnabled: getEnvBool("CAREGRID_AUDIT_ARCHIVE_ENABLED", false),
	}
}

// loadRateLimitConfig loads rate limiting configuration from environment
func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           getEnvBool("CAREGRID_RATE_LIMIT_ENABLED", true),
		RequestsPerMinute: getEnvInt("CAREGRID_RATE_LIMIT_RPM", 120),
		Burst:             getEnvInt("CAREGRID_RATE_LIMIT_BURST", 30),
		Distributed:       getEnvBool("CAREGRID_RATE_LIMIT_DISTRIBUTED", false),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	cfg := ObservabilityConfig{
		LogLevel:           observability.ParseLevel(getEnv("CAREGRID_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("CAREGRID_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("CAREGRID_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("CAREGRID_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("CAREGRID_OTEL_SERVICE_NAME", "caregrid-authz"),
		OTelServiceVersion: getEnv("CAREGRID_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("CAREGRID_OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("CAREGRID_OTEL_SAMPLE_RATIO", 1.0),
	}

	return cfg
}

// fileOverrides mirrors the subset of settings operators tend to keep in
// version control rather than the environment. Durations are strings in
// time.ParseDuration format.
type fileOverrides struct {
	RBAC struct {
		SeedMatrix  string `yaml:"seed_matrix"`
		SeedOnStart *bool  `yaml:"seed_on_start"`
	} `yaml:"rbac"`
	RateLimit struct {
		Enabled           *bool `yaml:"enabled"`
		RequestsPerMinute int   `yaml:"requests_per_minute"`
		Burst             int   `yaml:"burst"`
		Distributed       *bool `yaml:"distributed"`
	} `yaml:"rate_limit"`
	Audit struct {
		Retention     string `yaml:"retention"`
		PruneInterval string `yaml:"prune_interval"`
		File          string `yaml:"file"`
	} `yaml:"audit"`
}

// applyFileOverrides overlays settings from a YAML file onto cfg
func applyFileOverrides(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var overrides fileOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	if overrides.RBAC.SeedMatrix != "" {
		cfg.RBAC.SeedMatrixPath = overrides.RBAC.SeedMatrix
	}
	if overrides.RBAC.SeedOnStart != nil {
		cfg.RBAC.SeedOnStart = *overrides.RBAC.SeedOnStart
	}

	if overrides.RateLimit.Enabled != nil {
		cfg.RateLimit.Enabled = *overrides.RateLimit.Enabled
	}
	if overrides.RateLimit.RequestsPerMinute > 0 {
		cfg.RateLimit.RequestsPerMinute = overrides.RateLimit.RequestsPerMinute
	}
	if overrides.RateLimit.Burst > 0 {
		cfg.RateLimit.Burst = overrides.RateLimit.Burst
	}
	if overrides.RateLimit.Distributed != nil {
		cfg.RateLimit.Distributed = *overrides.RateLimit.Distributed
	}

	if overrides.Audit.Retention != "" {
		d, err := time.ParseDuration(overrides.Audit.Retention)
		if err != nil {
			return fmt.Errorf("parsing audit retention: %w", err)
		}
		cfg.Audit.Retention = d
	}
	if overrides.Audit.PruneInterval != "" {
		d, err := time.ParseDuration(overrides.Audit.PruneInterval)
		if err != nil {
			return fmt.Errorf("parsing audit prune interval: %w", err)
		}
		cfg.Audit.PruneInterval = d
	}
	if overrides.Audit.File != "" {
		cfg.Audit.FilePath = overrides.Audit.File
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// The permission matrix lives in Postgres; nothing works without it
	if c.Storage.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	// Redis is optional for caching but mandatory for cross-replica limits
	if c.RateLimit.Distributed && c.Storage.RedisURL == "" {
		return fmt.Errorf("redis URL is required for distributed rate limiting")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate limit requests per minute must be positive")
	}

	if c.Audit.ArchiveEnabled && (c.Storage.S3Endpoint == "" || c.Storage.S3Bucket == "") {
		return fmt.Errorf("S3 configuration is required for audit archival")
	}
	if c.Audit.Retention <= 0 {
		return fmt.Errorf("audit retention must be positive")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}
	if c.Observability.OTelSampleRatio < 0 || c.Observability.OTelSampleRatio > 1 {
		return fmt.Errorf("OpenTelemetry sample ratio must be between 0 and 1")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
