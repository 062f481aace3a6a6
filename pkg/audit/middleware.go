package audit

import (
	"net/http"
	"time"
)

// Middleware attaches the audit logger to the request context and records
// request-level events.
type Middleware struct {
	logger         Logger
	logAllRequests bool // If false, only mutations and sensitive reads are logged
}

// NewMiddleware creates a new audit middleware
func NewMiddleware(logger Logger, logAllRequests bool) *Middleware {
	return &Middleware{
		logger:         logger,
		logAllRequests: logAllRequests,
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Handler wraps an HTTP handler with audit logging
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		ctx := WithLogger(r.Context(), m.logger)

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r.WithContext(ctx))

		if m.logAllRequests || m.shouldLogRequest(r, wrapped.statusCode) {
			// A failed audit write never fails the request.
			_ = m.logger.LogHTTPRequest(ctx, r, wrapped.statusCode, time.Since(startTime), nil)
		}
	})
}

// shouldLogRequest determines if a request should be logged
func (m *Middleware) shouldLogRequest(r *http.Request, statusCode int) bool {
	// Mutations always
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return true
	}

	// Errors and denials always
	if statusCode >= 400 {
		return true
	}

	return m.isSensitivePath(r.URL.Path)
}

// isSensitivePath marks read endpoints whose access is itself auditable.
func (m *Middleware) isSensitivePath(path string) bool {
	for _, prefix := range []string{"/api/v1/rbac", "/api/v1/audit", "/audit"} {
		if len(path) >= len(prefix) && path[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
