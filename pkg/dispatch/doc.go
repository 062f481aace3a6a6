// Package dispatch routes module opens and privileged actions through the
// capability gate before anything takes effect.
//
// # Two failure modes, never conflated
//
// A module the session cannot access produces NoticeAccessDenied and
// ErrAccessDenied: a security outcome. A module the session CAN access but
// that has no registered view yet produces NoticeModuleUnavailable and
// ErrModuleUnavailable: a product gap, not a denial. Views surface the two
// differently, so the dispatcher never collapses them.
//
// # Denial is first
//
// OpenModule consults the gate before touching the handler registry or the
// active view, and PerformAction consults the gate before the action function
// runs. The action function is where any network call lives, so a denial can
// never leak a request.
package dispatch
