// Package audit records security-relevant events: permission checks and
// denials, module resolution, role-permission matrix changes, and token
// lifecycle events.
//
// Events flow through the Logger interface. DBLogger persists to the
// audit_events table, FileLogger appends newline-delimited JSON with size
// rotation, and MultiLogger fans out to both, asynchronously by default so
// audit writes stay off the request path.
//
// The Store side serves querying: filtered search, aggregate stats, export
// as JSON, CSV or NDJSON, and retention pruning with optional archival to
// object storage before deletion.
//
// The four-value status vocabulary matters: "denied" is a policy decision,
// "failure" is an operational error. Consumers alerting on denials must not
// conflate the two.
package audit
