package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/mindlab-health/caregrid/pkg/audit"
	"github.com/mindlab-health/caregrid/pkg/rbac"
	"github.com/mindlab-health/caregrid/pkg/storage"
)

var (
	dbURL         = flag.String("db-url", getEnv("CAREGRID_DATABASE_URL", "postgres://localhost/caregrid?sslmode=disable"), "PostgreSQL connection URL")
	pruneSchedule = flag.String("prune-schedule", "30 2 * * *", "Cron schedule for audit pruning (default: 02:30 UTC)")
	warmSchedule  = flag.String("warm-schedule", "*/15 * * * *", "Cron schedule for cache warming (default: every 15 minutes)")
	statsSchedule = flag.String("stats-schedule", "0 * * * *", "Cron schedule for audit stats reporting (default: every hour)")
	retentionDays = flag.Int("retention-days", 90, "Audit events older than this many days are pruned")
	s3Bucket      = flag.String("s3-bucket", getEnv("CAREGRID_S3_BUCKET", ""), "S3 bucket for pre-prune archives (empty disables archiving)")
	s3Region      = flag.String("s3-region", getEnv("CAREGRID_S3_REGION", "us-east-1"), "S3 region")
	s3Endpoint    = flag.String("s3-endpoint", getEnv("CAREGRID_S3_ENDPOINT", ""), "S3 endpoint override (for MinIO)")
	runOnce       = flag.Bool("run-once", false, "Run prune and warm once and exit (for testing)")
)

func main() {
	flag.Parse()

	db, err := sql.Open("postgres", *dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	var archive *storage.ArchiveClient
	if *s3Bucket != "" {
		archive, err = storage.NewArchiveClient(storage.Config{
			S3Bucket:       *s3Bucket,
			S3Region:       *s3Region,
			S3Endpoint:     *s3Endpoint,
			S3UsePathStyle: *s3Endpoint != "",
		})
		if err != nil {
			log.Fatalf("Failed to initialize archive client: %v", err)
		}
	}

	auditLogger, err := audit.NewDBLogger(db, nil)
	if err != nil {
		log.Fatalf("Failed to initialize audit store: %v", err)
	}
	auditStore := audit.NewDBStore(auditLogger, archive, nil)

	store := rbac.NewStore(db)
	resolver := rbac.NewResolver(store, rbac.NewDecisionCache(0, 5*time.Minute, nil, nil), nil)

	policy := audit.PrunePolicy{
		RetentionDays: *retentionDays,
		ArchiveFirst:  archive != nil,
	}

	if *runOnce {
		if err := runPrune(auditStore, policy); err != nil {
			log.Fatalf("Prune failed: %v", err)
		}
		if err := resolver.Warm(context.Background()); err != nil {
			log.Fatalf("Cache warm failed: %v", err)
		}
		log.Println("Run-once maintenance completed successfully")
		return
	}

	c := cron.New()

	_, err = c.AddFunc(*pruneSchedule, func() {
		if err := runPrune(auditStore, policy); err != nil {
			log.Printf("Audit prune failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule audit prune: %v", err)
	}

	_, err = c.AddFunc(*warmSchedule, func() {
		if err := resolver.Warm(context.Background()); err != nil {
			log.Printf("Cache warm failed: %v", err)
		} else {
			log.Println("Decision caches warmed")
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule cache warming: %v", err)
	}

	_, err = c.AddFunc(*statsSchedule, func() {
		reportStats(auditStore)
	})
	if err != nil {
		log.Fatalf("Failed to schedule stats reporting: %v", err)
	}

	c.Start()
	log.Println("CareGrid maintenance aggregator started")
	log.Printf("Audit prune schedule: %s (retention %d days, archive=%v)", *pruneSchedule, *retentionDays, archive != nil)
	log.Printf("Cache warm schedule: %s", *warmSchedule)
	log.Printf("Stats schedule: %s", *statsSchedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutting down gracefully...")

	ctx := c.Stop()
	<-ctx.Done()

	log.Println("Aggregator stopped")
}

func runPrune(store audit.Store, policy audit.PrunePolicy) error {
	ctx := context.Background()

	pruned, err := store.Prune(ctx, policy)
	if err != nil {
		return err
	}
	log.Printf("Pruned %d audit events older than %d days", pruned, policy.RetentionDays)
	return nil
}

// reportStats logs a summary of the last 24 hours of audit activity, which
// doubles as a liveness signal for the trail itself.
func reportStats(store audit.Store) {
	ctx := context.Background()
	since := time.Now().UTC().Add(-24 * time.Hour)

	stats, err := store.GetStats(ctx, &since, nil)
	if err != nil {
		log.Printf("Audit stats check failed: %v", err)
		return
	}
	log.Printf("Audit last 24h: %d events, %d denials, %d invalid tokens, %d unique users",
		stats.TotalEvents, stats.AccessDenials, stats.InvalidTokenHits, stats.UniqueUsers)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
