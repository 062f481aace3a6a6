// Package rbac implements the server side of CareGrid authorization: the
// permission catalog, the role-permission matrix, and the resolver that
// turns a role into its permission set and accessible-module list.
//
// # Model
//
// Permissions are flat "resource.action" strings held in a Postgres catalog
// (permissions table). The matrix (role_permissions table) grants catalog
// rows to roles out of a closed six-role set. There is no inheritance and
// no per-user grant: a session's role fully determines its authorization,
// which is what lets decisions cache by role alone.
//
// Admin is handled once, here: the Resolver materializes the full catalog
// for the admin role, so the wire contract ("these are your permissions")
// is identical for every role and clients never infer a superset from the
// role name.
//
// # Module derivation
//
// A role's accessible modules are the distinct resource prefixes of its
// granted permissions, ordered by ModuleCatalog. Admin additionally
// receives the management modules (users, analytics, security, settings,
// admin) ahead of the derived list. The order is part of the contract;
// dashboards render it as-is.
//
// # Caching
//
// DecisionCache keeps resolved slices in an in-process expirable LRU with
// an optional Redis tier behind it. Any matrix write invalidates the
// written role plus admin (whose materialized set tracks the catalog).
//
// # Seeding
//
// Seeder applies a Matrix — the shipped DefaultMatrix or a YAML document —
// idempotently: catalog upserts followed by wholesale row replacement.
// caregrid-sync watches the YAML file and re-applies it on change.
package rbac
