// Package storage provides the persistence clients backing the authorization service.
//
// # Overview
//
// Three backends are managed here:
//
//   - PostgreSQL holds the permission matrix, API tokens, and the audit trail.
//     It is the source of truth; authorization fails closed without it.
//   - Redis is an optional shared cache for role permission sets and
//     authorization decisions, and backs distributed rate limiting.
//   - S3 (or any S3-compatible store such as MinIO) archives pruned audit
//     events for long-term retention.
//
// # Usage Example
//
// Connect to PostgreSQL:
//
//	cfg := storage.DefaultConfig()
//	cfg.PostgresURL = "postgres://localhost/caregrid?sslmode=disable"
//
//	db, err := storage.Connect(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
// Connect to Redis:
//
//	cfg.RedisURL = "redis://localhost:6379"
//	cache, err := storage.NewRedisClient(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer cache.Close()
//
// # Related Packages
//
//   - pkg/rbac: Stores the permission matrix through these clients
//   - pkg/audit: Writes and archives audit events
//   - pkg/config: Populates Config from the environment
package storage
