package session

import (
	"context"
	"sync"
	"testing"
)

// StaticClient is an AuthorizationClient backed by in-memory grants. Package
// tests across the library use it in place of a live authorization service;
// production code uses the HTTP client.
type StaticClient struct {
	mu          sync.Mutex
	grants      map[Credential]PermissionGrant
	modules     map[Credential]ModuleGrant
	permErr     error
	moduleErr   error
	permCalls   int
	moduleCalls int
}

// NewStaticClient creates a client with no grants. Every credential is
// rejected until Grant is called for it.
func NewStaticClient() *StaticClient {
	return &StaticClient{
		grants:  make(map[Credential]PermissionGrant),
		modules: make(map[Credential]ModuleGrant),
	}
}

// Grant registers both grants for a credential.
func (c *StaticClient) Grant(cred Credential, perms PermissionGrant, mods ModuleGrant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grants[cred] = perms
	c.modules[cred] = mods
}

// FailPermissions makes every FetchPermissions call return err until called
// again with nil.
func (c *StaticClient) FailPermissions(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permErr = err
}

// FailModules makes every FetchModules call return err until called again
// with nil.
func (c *StaticClient) FailModules(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moduleErr = err
}

// FetchPermissions implements PermissionFetcher.
func (c *StaticClient) FetchPermissions(ctx context.Context, cred Credential) (PermissionGrant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permCalls++
	if c.permErr != nil {
		return PermissionGrant{}, c.permErr
	}
	grant, ok := c.grants[cred]
	if !ok {
		return PermissionGrant{}, ErrUnauthenticated
	}
	return grant, nil
}

// FetchModules implements ModuleFetcher.
func (c *StaticClient) FetchModules(ctx context.Context, cred Credential) (ModuleGrant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moduleCalls++
	if c.moduleErr != nil {
		return ModuleGrant{}, c.moduleErr
	}
	grant, ok := c.modules[cred]
	if !ok {
		return ModuleGrant{}, ErrUnauthenticated
	}
	return grant, nil
}

// PermissionCalls returns how many times FetchPermissions has run.
func (c *StaticClient) PermissionCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.permCalls
}

// ModuleCalls returns how many times FetchModules has run.
func (c *StaticClient) ModuleCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.moduleCalls
}

// MustReadySession returns a PhaseReady controller for the role with the
// given permissions and modules. Fails the test if the session cannot start.
func MustReadySession(t *testing.T, role Role, perms []Permission, modules []string) *Controller {
	t.Helper()

	client := NewStaticClient()
	cred := Credential("caregrid_test_" + string(role))
	client.Grant(cred,
		PermissionGrant{UserID: 1, Username: "test-" + string(role), Role: role, Permissions: perms},
		ModuleGrant{UserID: 1, Role: role, Modules: modules},
	)

	ctrl := NewController(client)
	if err := ctrl.Begin(context.Background(), cred); err != nil {
		t.Fatalf("Failed to start session: %v", err)
	}
	return ctrl
}
