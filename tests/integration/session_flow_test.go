package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindlab-health/caregrid/pkg/api"
	"github.com/mindlab-health/caregrid/pkg/audit"
	"github.com/mindlab-health/caregrid/pkg/auth"
	"github.com/mindlab-health/caregrid/pkg/authz"
	"github.com/mindlab-health/caregrid/pkg/capability"
	"github.com/mindlab-health/caregrid/pkg/dashboard"
	"github.com/mindlab-health/caregrid/pkg/dispatch"
	"github.com/mindlab-health/caregrid/pkg/observability"
	"github.com/mindlab-health/caregrid/pkg/rbac"
	"github.com/mindlab-health/caregrid/pkg/session"
)

// env is a running API server with one seeded user and token per role, plus
// direct handles to the backing database and audit log for assertions the
// HTTP surface does not expose.
type env struct {
	srv      *httptest.Server
	db       *sql.DB
	auditLog *audit.DBLogger
	tokens   map[rbac.Role]session.Credential
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := rbac.NewTestDB(t)
	store := rbac.NewStore(db)

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	require.NoError(t, rbac.NewSeeder(store, nil, quiet, nil).ApplyDefault(context.Background()))

	resolver := rbac.NewResolver(store, rbac.NewDecisionCache(256, time.Minute, nil, nil), nil)
	tokenManager := auth.NewTokenManager(db)
	users := auth.NewUserStore(db)

	auditLog, err := audit.NewDBLogger(db, nil)
	require.NoError(t, err)

	server := api.NewServer(api.Deps{
		Logger:       observability.NewLogger(observability.ErrorLevel, io.Discard),
		Resolver:     resolver,
		Store:        store,
		TokenManager: tokenManager,
		AuditLogger:  auditLog,
		AuditStore:   audit.NewDBStore(auditLog, nil, nil),
		Health:       observability.NewHealthChecker(db, nil),
	})

	srv := httptest.NewServer(server.Handler(false))
	t.Cleanup(srv.Close)

	e := &env{
		srv:      srv,
		db:       db,
		auditLog: auditLog,
		tokens:   make(map[rbac.Role]session.Credential),
	}

	seed := map[rbac.Role]string{
		rbac.RoleAdmin:     "ops.chen",
		rbac.RolePhysician: "dr.reyes",
		rbac.RolePatient:   "pt.ito",
		rbac.RolePartner:   "acme.health",
	}
	for role, username := range seed {
		user, err := users.EnsureUser(context.Background(), username, string(role))
		require.NoError(t, err)
		_, plaintext, err := tokenManager.CreateToken(context.Background(), user.ID, "integration", nil)
		require.NoError(t, err)
		e.tokens[role] = session.Credential(plaintext)
	}
	return e
}

// begin runs the full login handshake for role and returns a ready session.
func (e *env) begin(t *testing.T, role rbac.Role) (*session.Controller, *authz.Client) {
	t.Helper()

	client := authz.NewClient(e.srv.URL, nil)
	ctrl := session.NewController(client)
	require.NoError(t, ctrl.Begin(context.Background(), e.tokens[role]))
	return ctrl, client
}

// putRolePermissions replaces a role's grant through the admin endpoint.
func putRolePermissions(t *testing.T, e *env, role rbac.Role, perms []string) {
	t.Helper()

	body, err := json.Marshal(map[string][]string{"permissions": perms})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut,
		e.srv.URL+"/api/v1/rbac/roles/"+string(role)+"/permissions", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+string(e.tokens[rbac.RoleAdmin]))
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// recordingView captures every render call for assertion.
type recordingView struct {
	header dashboard.Header
	cards  []dashboard.Card
	empty  string
}

func (v *recordingView) RenderHeader(h dashboard.Header) { v.header = h }
func (v *recordingView) RenderCards(cards []dashboard.Card) {
	v.cards = append([]dashboard.Card(nil), cards...)
}
func (v *recordingView) RenderEmpty(notice string) { v.empty = notice }

func TestPhysicianSessionFlow(t *testing.T) {
	e := newEnv(t)
	ctrl, client := e.begin(t, rbac.RolePhysician)

	assert.Equal(t, session.RolePhysician, ctrl.Role())
	assert.True(t, ctrl.HasPermission("meals.create_plans"))
	assert.False(t, ctrl.HasPermission("users.manage_roles"))

	modules := ctrl.AccessibleModules()
	assert.Equal(t, []string{"meals", "nutrition", "patients", "health_records", "earnings"}, modules)

	gate := capability.NewGate(ctrl, nil)
	assert.True(t, gate.CanPerform(capability.ActionCreateMealPlan))
	assert.True(t, gate.CanPerform(capability.ActionViewAllPatients))
	assert.False(t, gate.CanPerform(capability.ActionManageRoles))
	assert.False(t, gate.IsAdmin())

	view := &recordingView{}
	composer := dashboard.NewComposer(ctrl, nil, view)
	require.NoError(t, composer.Activate(ctrl.Role()))

	assert.Equal(t, "Physician Dashboard", view.header.Theme.Title)
	assert.False(t, view.header.Preview)
	require.Len(t, view.cards, len(modules))
	for i, card := range view.cards {
		assert.Equal(t, modules[i], card.Module, "cards must preserve server order")
	}

	var notices []dispatch.Notice
	d := dispatch.NewDispatcher(gate, dispatch.NotifierFunc(func(n dispatch.Notice) {
		notices = append(notices, n)
	}))

	opened := 0
	d.RegisterHandler("patients", dispatch.ViewHandlerFunc(func() { opened++ }))

	require.NoError(t, d.OpenModule("patients"))
	assert.Equal(t, 1, opened)
	assert.Equal(t, "patients", d.ActiveModule())

	// Inaccessible module: a denial, not a product gap.
	err := d.OpenModule("admin")
	assert.ErrorIs(t, err, dispatch.ErrAccessDenied)
	require.Len(t, notices, 1)
	assert.Equal(t, dispatch.NoticeAccessDenied, notices[0].Kind)
	assert.Equal(t, "patients", d.ActiveModule(), "failed open must not change the active module")

	// Accessible module with no view yet: a product gap, not a denial.
	err = d.OpenModule("nutrition")
	assert.ErrorIs(t, err, dispatch.ErrModuleUnavailable)
	require.Len(t, notices, 2)
	assert.Equal(t, dispatch.NoticeModuleUnavailable, notices[1].Kind)

	// A privileged action performed through the dispatcher reaches the
	// server for the authoritative, audited answer.
	err = d.PerformAction(context.Background(), capability.ActionCreateMealPlan, "pt.ito", func(ctx context.Context, target string) error {
		result, err := client.CheckPermission(ctx, e.tokens[rbac.RolePhysician], "meals.create_plans")
		if err != nil {
			return err
		}
		assert.True(t, result.HasPermission)
		return nil
	})
	require.NoError(t, err)

	// A locally denied action never invokes the action function.
	err = d.PerformAction(context.Background(), capability.ActionManageRoles, "", func(ctx context.Context, target string) error {
		t.Fatal("action function ran despite local denial")
		return nil
	})
	assert.ErrorIs(t, err, dispatch.ErrAccessDenied)
}

func TestPatientSessionFlow(t *testing.T) {
	e := newEnv(t)
	ctrl, _ := e.begin(t, rbac.RolePatient)

	assert.Equal(t, []string{"meals", "nutrition", "health_records"}, ctrl.AccessibleModules())

	gate := capability.NewGate(ctrl, nil)
	assert.False(t, gate.CanPerform(capability.ActionCreateMealPlan))
	assert.False(t, gate.CanAccessModule("patients"))
	assert.True(t, gate.CanAccessModule("meals"))

	view := &recordingView{}
	require.NoError(t, dashboard.NewComposer(ctrl, nil, view).Activate(ctrl.Role()))
	assert.Equal(t, "My Health", view.header.Theme.Title)
	assert.Len(t, view.cards, 3)
	assert.Empty(t, view.empty)
}

func TestAdminSessionFlow(t *testing.T) {
	e := newEnv(t)
	ctrl, _ := e.begin(t, rbac.RoleAdmin)

	gate := capability.NewGate(ctrl, nil)
	assert.True(t, gate.IsAdmin())
	assert.True(t, gate.CanPerform(capability.ActionManageRoles))

	modules := ctrl.AccessibleModules()
	require.Greater(t, len(modules), 5)
	assert.Equal(t, []string{"users", "analytics", "security", "settings", "admin"}, modules[:5],
		"management modules lead the admin module list")

	view := &recordingView{}
	require.NoError(t, dashboard.NewComposer(ctrl, nil, view).Activate(ctrl.Role()))
	assert.Equal(t, "Admin Console", view.header.Theme.Title)
	assert.Len(t, view.cards, len(modules))
}

func TestPartnerSessionEmptyDashboard(t *testing.T) {
	e := newEnv(t)
	ctrl, _ := e.begin(t, rbac.RolePartner)

	assert.Empty(t, ctrl.AccessibleModules())

	view := &recordingView{}
	composer := dashboard.NewComposer(ctrl, nil, view)
	require.NoError(t, composer.Activate(ctrl.Role()))

	assert.Equal(t, "Partner Portal", view.header.Theme.Title)
	assert.Empty(t, view.cards)
	assert.NotEmpty(t, view.empty, "an empty accessible set renders an explicit empty state")
	assert.True(t, composer.Rendered(ctrl.Role()))
}

func TestInvalidCredentialRejectsSession(t *testing.T) {
	e := newEnv(t)

	client := authz.NewClient(e.srv.URL, nil)
	ctrl := session.NewController(client)
	err := ctrl.Begin(context.Background(), "caregrid_not_a_real_token")

	assert.ErrorIs(t, err, session.ErrUnauthenticated)
	assert.NotEqual(t, session.PhaseReady, ctrl.Phase())
	assert.False(t, ctrl.HasPermission("meals.view_own"), "an unready session fails closed")
}

func TestServerOutageIsUnavailabilityNotDenial(t *testing.T) {
	e := newEnv(t)

	client := authz.NewClient(e.srv.URL, nil)
	e.srv.Close()

	ctrl := session.NewController(client)
	err := ctrl.Begin(context.Background(), e.tokens[rbac.RolePhysician])

	assert.ErrorIs(t, err, session.ErrAuthorizationUnavailable)
	assert.NotErrorIs(t, err, session.ErrUnauthenticated)
}

func TestMatrixUpdateReachesNewSessions(t *testing.T) {
	e := newEnv(t)

	ctrl, _ := e.begin(t, rbac.RolePatient)
	require.Equal(t, []string{"meals", "nutrition", "health_records"}, ctrl.AccessibleModules())

	// Shrink the patient grant through the admin surface.
	putRolePermissions(t, e, rbac.RolePatient, []string{"meals.view_own"})

	fresh, _ := e.begin(t, rbac.RolePatient)
	assert.Equal(t, []string{"meals"}, fresh.AccessibleModules(),
		"cache invalidation must make the narrowed grant visible immediately")

	// The session started before the update keeps its snapshot until it
	// reloads; authorization state never mutates under a live session.
	assert.Equal(t, []string{"meals", "nutrition", "health_records"}, ctrl.AccessibleModules())
}

func TestPermissionChecksAreAudited(t *testing.T) {
	e := newEnv(t)
	_, client := e.begin(t, rbac.RolePhysician)

	result, err := client.CheckPermission(context.Background(), e.tokens[rbac.RolePhysician], "users.manage_roles")
	require.NoError(t, err)
	assert.False(t, result.HasPermission, "a denied check still answers 200 with the verdict")

	events, err := e.auditLog.Search(context.Background(), audit.SearchFilter{
		EventTypes: []audit.EventType{audit.EventTypeAuthzPermissionCheck},
		Limit:      10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, "physician", events[0].Role)
}
