package session

import (
	"context"
	"strings"
)

// Credential is an opaque bearer token. The session holds it for the lifetime
// of one login and hands it to the authorization client on every fetch.
type Credential string

// String masks the token body so credentials never leak into logs.
func (c Credential) String() string {
	if len(c) <= 8 {
		return "****"
	}
	return string(c[:8]) + "****"
}

// Role identifies which of the platform's user populations a session belongs
// to. The set is closed; ParseRole rejects anything else.
type Role string

const (
	RoleUnset       Role = ""
	RoleAdmin       Role = "admin"
	RolePhysician   Role = "physician"
	RoleTherapist   Role = "therapist"
	RoleHealthCoach Role = "health_coach"
	RolePatient     Role = "patient"
	RolePartner     Role = "partner"
)

// Roles returns the closed role set in canonical order.
func Roles() []Role {
	return []Role{RoleAdmin, RolePhysician, RoleTherapist, RoleHealthCoach, RolePatient, RolePartner}
}

// ParseRole converts a wire-format role string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RolePhysician, RoleTherapist, RoleHealthCoach, RolePatient, RolePartner:
		return Role(s), nil
	}
	return RoleUnset, ErrUnknownRole
}

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Permission names a grantable capability in "resource.action" form, for
// example "health_records.view_assigned".
type Permission string

// Resource returns the segment before the first dot.
func (p Permission) Resource() string {
	if i := strings.IndexByte(string(p), '.'); i >= 0 {
		return string(p)[:i]
	}
	return string(p)
}

// Action returns the segment after the first dot, or "" when there is none.
func (p Permission) Action() string {
	if i := strings.IndexByte(string(p), '.'); i >= 0 {
		return string(p)[i+1:]
	}
	return ""
}

// Valid reports whether the permission has non-empty resource and action parts.
func (p Permission) Valid() bool {
	return p.Resource() != "" && p.Action() != ""
}

// Phase represents where the session is in its lifecycle.
type Phase string

const (
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseLoading         Phase = "loading"
	PhaseReady           Phase = "ready"
)

// PermissionGrant is the authorization service's answer to "who is this
// credential and what may they do".
type PermissionGrant struct {
	UserID      int64
	Username    string
	Role        Role
	Permissions []Permission
}

// ModuleGrant is the authorization service's module resolution for one
// credential. Module order is the server's presentation order and is
// preserved end to end.
type ModuleGrant struct {
	UserID  int64
	Role    Role
	Modules []string
}

// PermissionFetcher fetches the permission grant for a credential.
// Implementations map a rejected credential to ErrUnauthenticated and every
// other failure to ErrAuthorizationUnavailable.
type PermissionFetcher interface {
	FetchPermissions(ctx context.Context, cred Credential) (PermissionGrant, error)
}

// ModuleFetcher fetches the module grant for a credential, under the same
// error contract as PermissionFetcher.
type ModuleFetcher interface {
	FetchModules(ctx context.Context, cred Credential) (ModuleGrant, error)
}

// AuthorizationClient is the full fetch surface the Controller binds each
// login to.
type AuthorizationClient interface {
	PermissionFetcher
	ModuleFetcher
}
