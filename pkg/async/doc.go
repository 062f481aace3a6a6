// Package async provides safe concurrent execution primitives for background tasks.
//
// # Overview
//
// This package handles goroutine lifecycle management with panic recovery, timeout
// enforcement, context cancellation, and error collection.
//
// # Key Functions
//
// SafeGo: Execute function in goroutine with safety features
//
//	async.SafeGo(ctx, 5*time.Second, "audit write", func(ctx context.Context) error {
//		// Task code with automatic panic recovery and timeout
//		return auditLogger.Log(ctx, event)
//	})
//
// WorkerPool: Managed pool of concurrent workers
//
//	pool := async.NewWorkerPool(ctx, 4, "audit archival", 30*time.Second)
//	defer pool.Shutdown(5 * time.Second)
//
//	pool.Submit(func(ctx context.Context) error {
//		return archiver.Upload(ctx, batch)
//	})
//
// Batch: Concurrent batch processing
//
//	errs := async.Batch(ctx, partitions, 4, "archive upload", time.Minute, uploadPartition)
//
// # Features
//
// Panic Recovery: Captures panics with stack traces
// Timeout Enforcement: Per-task timeouts
// Context Cancellation: Respects context cancellation
// Error Collection: Non-blocking error channels
// Graceful Shutdown: Worker draining
//
// # Use Cases
//
// Audit event writes off the request path, cache warming, archive uploads
//
// # Related Packages
//
//   - pkg/audit: Uses SafeGo so logging never blocks authorization decisions
//   - pkg/rbac: Uses SafeGoNoError for cache warming
package async
