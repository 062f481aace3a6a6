// Package dashboard composes the role-appropriate module grid from live
// session state, exactly once per role activation.
//
// # Pieces
//
//   - Registry: the authoritative module -> display descriptor table. Unknown
//     names resolve to a generic descriptor instead of failing.
//   - Strategy: one typed DashboardStrategy per role supplying the header
//     theme and the role's empty-state notice, selected from a complete
//     role -> strategy map.
//   - RenderGuard: per-role one-shot state. Re-entrant activations for the
//     same role coalesce; a different role is never blocked by this one.
//   - ComposeCards: the pure card-list computation, separated from the View
//     that applies it.
//   - Composer: ties the above to a View and the session's accessible module
//     list.
//
// # Order
//
// The server's module order is the presentation order. ComposeCards emits one
// card per module in input order and never re-sorts.
//
// # Fallback table
//
// The static role -> module table behind PreviewCards is presentation only.
// It paints a plausible preview when the authoritative set is unavailable;
// nothing in this package or its callers may grant access from it.
package dashboard
