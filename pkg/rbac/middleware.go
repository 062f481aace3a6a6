package rbac

import (
	"net/http"

	"github.com/mindlab-health/caregrid/pkg/httputil"
	"github.com/mindlab-health/caregrid/pkg/middleware"
)

// PermissionMiddleware wraps handlers with role and permission requirements.
// It sits behind the auth middleware and consults the resolver with the
// request's authenticated role. Resolution failures are 503, never 403: an
// unavailable matrix is not a denial and clients must be able to tell the
// two apart.
type PermissionMiddleware struct {
	resolver *Resolver
}

// NewPermissionMiddleware creates a new permission middleware
func NewPermissionMiddleware(resolver *Resolver) *PermissionMiddleware {
	return &PermissionMiddleware{resolver: resolver}
}

// RequirePermission requires the authenticated role to hold the named
// permission.
func (pm *PermissionMiddleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := middleware.GetAuthContext(r)
			if authCtx == nil || authCtx.User == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			role, err := ParseRole(authCtx.User.Role)
			if err != nil {
				httputil.WriteForbidden(w, "unknown role")
				return
			}

			allowed, err := pm.resolver.HasPermission(r.Context(), role, permission)
			if err != nil {
				httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "authorization unavailable")
				return
			}
			if !allowed {
				httputil.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole requires the authenticated role to be exactly the given role.
// Used for purely presentational admin affordances; anything sensitive goes
// through RequirePermission.
func (pm *PermissionMiddleware) RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := middleware.GetAuthContext(r)
			if authCtx == nil || authCtx.User == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}
			if Role(authCtx.User.Role) != role {
				httputil.WriteForbidden(w, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
