// Package cli implements the caregrid command-line interface.
//
// # Overview
//
// The `caregrid` tool is a terminal shell over the authorization service:
// it starts a session, renders the role dashboard, and routes module opens
// and actions through the same capability gate the product UI uses.
//
// # Commands
//
// login: verify a token and show what the session resolved to
//
//	caregrid login --token caregrid_...
//
// dashboard: render the role dashboard
//
//	caregrid dashboard --token caregrid_...
//	caregrid dashboard --preview physician   # static preview, no server
//
// modules: list accessible modules in server order
//
//	caregrid modules --token caregrid_...
//
// check: server-side permission check (audited)
//
//	caregrid check --permission meals.create_plans --token caregrid_...
//
// open: open a module view through the gate
//
//	caregrid open --module patients --token caregrid_...
//
// act: perform a gated action
//
//	caregrid act --action create_meal_plan --target patient-42 --token caregrid_...
//	caregrid act --action list
//
// # Configuration
//
//	export CAREGRID_SERVER_URL="https://authz.example.com"
//	export CAREGRID_TOKEN="caregrid_..."
//	# Or use --server / --token flags
//
// # Related Packages
//
//   - pkg/authz: HTTP calls to the authorization service
//   - pkg/session: session state machine
//   - pkg/capability, pkg/dispatch, pkg/dashboard: gating and rendering
package cli
