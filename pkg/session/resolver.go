package session

import (
	"context"
	"sync"
)

// ModuleResolver holds the accessible module list for one credential. The
// server's order is the presentation order and is never re-sorted here.
type ModuleResolver struct {
	fetcher ModuleFetcher
	cred    Credential

	mu      sync.RWMutex
	loaded  bool
	modules []string
	members map[string]struct{}
}

// NewModuleResolver creates an unloaded resolver bound to the credential.
func NewModuleResolver(fetcher ModuleFetcher, cred Credential) *ModuleResolver {
	return &ModuleResolver{fetcher: fetcher, cred: cred}
}

// Load fetches the module grant and atomically replaces the list. Failure
// semantics match PermissionStore.Load: prior state untouched, sentinel
// error returned.
func (r *ModuleResolver) Load(ctx context.Context) error {
	if r.cred == "" {
		return ErrUnauthenticated
	}

	grant, err := r.fetcher.FetchModules(ctx, r.cred)
	if err != nil {
		return asAuthorizationError(err)
	}

	modules := make([]string, len(grant.Modules))
	copy(modules, grant.Modules)
	members := make(map[string]struct{}, len(modules))
	for _, m := range modules {
		members[m] = struct{}{}
	}

	r.mu.Lock()
	r.modules = modules
	r.members = members
	r.loaded = true
	r.mu.Unlock()
	return nil
}

// AccessibleModules returns a copy of the loaded list in server order, or an
// empty slice when unloaded.
func (r *ModuleResolver) AccessibleModules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.modules))
	copy(out, r.modules)
	return out
}

// HasModule reports membership in the loaded list. False when unloaded.
func (r *ModuleResolver) HasModule(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return false
	}
	_, ok := r.members[name]
	return ok
}

// Loaded reports whether a grant has been committed.
func (r *ModuleResolver) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}
