// Package capability answers the two questions the UI asks before showing or
// doing anything: can this session open a module, and can it perform an
// action.
//
// # Allow-list semantics
//
// CanPerform consults a static ActionBindings table mapping each action to
// the permission that authorizes it. An action with no binding is denied for
// everyone; there is no deny-list and no wildcard. Adding a new action to the
// product means adding a binding, or nobody can use it.
//
// # IsAdmin is presentational
//
// IsAdmin exists so views can show an administrative badge or switch a
// header. It never substitutes for a permission check: sensitive actions go
// through CanPerform for admins too, and the server materializes the admin
// role's permissions explicitly rather than implying them from the role name.
//
// All gate methods are synchronous, side-effect-free, and evaluate the live
// session state on every call, so a role switch is reflected immediately.
package capability
