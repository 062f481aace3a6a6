package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/mindlab-health/caregrid/pkg/rbac"
)

func main() {
	dbURL := flag.String("db-url", getEnv("CAREGRID_DATABASE_URL", "postgres://localhost/caregrid?sslmode=disable"), "PostgreSQL connection URL")
	matrixPath := flag.String("matrix", getEnv("CAREGRID_SEED_MATRIX", "matrix.yaml"), "Path to the role-permission matrix YAML file")
	delaySeconds := flag.Int("delay", 5, "Delay in seconds before applying a changed matrix")
	applyOnStart := flag.Bool("apply-on-start", true, "Apply the matrix once before watching")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	db, err := sql.Open("postgres", *dbURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.WithError(err).Fatal("failed to ping database")
	}

	store := rbac.NewStore(db)
	resolver := rbac.NewResolver(store, rbac.NewDecisionCache(0, 5*time.Minute, nil, nil), nil)
	seeder := rbac.NewSeeder(store, resolver, logger, nil)

	absPath, err := filepath.Abs(*matrixPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to resolve matrix path")
	}

	if *applyOnStart {
		if err := seeder.ApplyFile(context.Background(), absPath); err != nil {
			logger.WithError(err).Fatal("failed to apply matrix on start")
		}
		logger.WithField("path", absPath).Info("matrix applied")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.WithError(err).Fatal("failed to create watcher")
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors and configmap updates
	// replace the file, which drops a file-level watch.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		logger.WithError(err).Fatal("failed to watch matrix directory")
	}

	logger.WithField("path", absPath).Info("watching matrix file for changes")

	delay := time.Duration(*delaySeconds) * time.Second
	var pending *time.Timer

	apply := func() {
		if err := seeder.ApplyFile(context.Background(), absPath); err != nil {
			// A bad matrix must not destroy the current one; Apply
			// validates before touching the database, so log and keep
			// watching.
			logger.WithError(err).Error("failed to apply matrix, keeping previous state")
			return
		}
		logger.WithField("path", absPath).Info("matrix applied")
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			logger.WithField("op", event.Op.String()).Debug("matrix file changed")
			// Debounce: editors fire several events per save.
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(delay, apply)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.WithError(err).Warn("watcher error")
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
