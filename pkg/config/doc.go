// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings. An optional YAML file can override the
// settings operators prefer to keep in version control (seed matrix location,
// rate limits, audit retention).
//
// # Configuration Structure
//
// Server settings:
//
//	CAREGRID_HOST="0.0.0.0"
//	CAREGRID_PORT="8080"
//	CAREGRID_HEALTH_PORT="9090"
//	CAREGRID_READ_TIMEOUT="15s"
//	CAREGRID_WRITE_TIMEOUT="15s"
//
// Storage settings:
//
//	CAREGRID_POSTGRES_URL="postgres://localhost/caregrid"
//	CAREGRID_POSTGRES_MAX_CONNS="20"
//	CAREGRID_REDIS_URL="redis://localhost:6379"
//	CAREGRID_S3_BUCKET="caregrid-audit-archive"
//	CAREGRID_S3_REGION="us-east-1"
//
// Authorization settings:
//
//	CAREGRID_SEED_MATRIX="/etc/caregrid/roles.yaml"
//	CAREGRID_SEED_ON_START="true"
//	CAREGRID_CACHE_ENABLED="true"
//
// Observability settings:
//
//	CAREGRID_LOG_LEVEL="info"  # debug, info, warn, error
//	CAREGRID_METRICS_ENABLED="true"
//	CAREGRID_OTEL_ENABLED="true"
//	CAREGRID_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Postgres: %s\n", cfg.Storage.PostgresURL)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/rbac: Uses seed matrix and cache configuration
//   - pkg/observability: Uses observability configuration
package config
