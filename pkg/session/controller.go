package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Controller drives the session state machine. It creates fresh store and
// resolver instances on every Begin, loads both grants concurrently, and
// commits them together so partial readiness is impossible.
type Controller struct {
	client AuthorizationClient

	mu         sync.RWMutex
	phase      Phase
	activation uuid.UUID
	store      *PermissionStore
	resolver   *ModuleResolver
}

// NewController creates a controller in PhaseUnauthenticated.
func NewController(client AuthorizationClient) *Controller {
	return &Controller{
		client: client,
		phase:  PhaseUnauthenticated,
	}
}

// Begin starts a session for the credential. Both grants must load before
// the session becomes PhaseReady; any failure returns the machine to
// PhaseUnauthenticated and surfaces the error.
//
// Each call allocates a new activation ID. If another Begin, SwitchRole, or
// Logout lands while this one's loads are in flight, this activation is
// superseded: its result is discarded on arrival and ErrSessionSuperseded is
// returned, leaving the newer activation's state untouched.
func (c *Controller) Begin(ctx context.Context, cred Credential) error {
	if cred == "" {
		return ErrUnauthenticated
	}

	store := NewPermissionStore(c.client, cred)
	resolver := NewModuleResolver(c.client, cred)

	id := uuid.New()
	c.mu.Lock()
	c.activation = id
	c.phase = PhaseLoading
	c.store = nil
	c.resolver = nil
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return store.Load(gctx) })
	g.Go(func() error { return resolver.Load(gctx) })

	if err := g.Wait(); err != nil {
		c.mu.Lock()
		if c.activation == id {
			c.phase = PhaseUnauthenticated
			c.store = nil
			c.resolver = nil
		}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activation != id {
		return ErrSessionSuperseded
	}
	c.store = store
	c.resolver = resolver
	c.phase = PhaseReady
	return nil
}

// SwitchRole replaces the session with one for the new credential. Any
// in-flight activation is superseded immediately.
func (c *Controller) SwitchRole(ctx context.Context, cred Credential) error {
	return c.Begin(ctx, cred)
}

// Logout returns the machine to PhaseUnauthenticated and drops the stores.
// In-flight activations are superseded.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activation = uuid.New()
	c.phase = PhaseUnauthenticated
	c.store = nil
	c.resolver = nil
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// Permissions returns the committed store, or nil before PhaseReady.
func (c *Controller) Permissions() *PermissionStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

// Modules returns the committed resolver, or nil before PhaseReady.
func (c *Controller) Modules() *ModuleResolver {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolver
}

// HasPermission reports whether the ready session holds the permission.
// False in every other phase.
func (c *Controller) HasPermission(p Permission) bool {
	c.mu.RLock()
	store := c.store
	c.mu.RUnlock()
	if store == nil {
		return false
	}
	return store.HasPermission(p)
}

// HasModule reports whether the ready session can access the module. False
// in every other phase.
func (c *Controller) HasModule(name string) bool {
	c.mu.RLock()
	resolver := c.resolver
	c.mu.RUnlock()
	if resolver == nil {
		return false
	}
	return resolver.HasModule(name)
}

// Role returns the ready session's role, or RoleUnset in every other phase.
func (c *Controller) Role() Role {
	c.mu.RLock()
	store := c.store
	c.mu.RUnlock()
	if store == nil {
		return RoleUnset
	}
	return store.Role()
}

// AccessibleModules returns the ready session's module list in server order,
// or an empty slice in every other phase.
func (c *Controller) AccessibleModules() []string {
	c.mu.RLock()
	resolver := c.resolver
	c.mu.RUnlock()
	if resolver == nil {
		return []string{}
	}
	return resolver.AccessibleModules()
}
