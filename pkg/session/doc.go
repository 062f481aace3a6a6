// Package session owns the client-side authorization state for one signed-in
// CareGrid user: the permission set, the accessible module list, and the
// lifecycle that moves between them.
//
// # Overview
//
// A session passes through three phases:
//
//	PhaseUnauthenticated - no credential, no authorization state
//	PhaseLoading         - credential presented, grants in flight
//	PhaseReady           - role, permissions, and modules committed
//
// The Controller drives the phases. Begin loads the permission grant and the
// module grant concurrently and commits both atomically: there is no phase in
// which permissions are readable but modules are not. Any load failure returns
// the machine to PhaseUnauthenticated with the error surfaced, never to a
// silently empty PhaseReady.
//
// # Failing closed
//
// Every read on this package fails closed. HasPermission returns false for an
// unloaded store and for unknown names. AccessibleModules returns an empty
// slice until the resolver has loaded. When the authorization service is
// unreachable or answers 5xx, Load returns ErrAuthorizationUnavailable and
// leaves prior state untouched; callers must treat unavailability as denial,
// never as allowance.
//
// # Stale responses
//
// Each Begin allocates a fresh activation ID. A grant that arrives after a
// newer Begin or a Logout has superseded its activation is discarded on
// arrival, so a role switch issued while a load is in flight can never commit
// the older role's state.
//
// # Usage
//
//	client := authz.NewClient("https://api.caregrid.example.com", nil)
//	ctrl := session.NewController(client)
//
//	if err := ctrl.Begin(ctx, cred); err != nil {
//		// still PhaseUnauthenticated
//	}
//	ctrl.HasPermission("health_records.view_assigned")
//	ctrl.AccessibleModules()
package session
