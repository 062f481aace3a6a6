package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// PermissionStore holds the permission set for one credential. A store is
// bound to a single login; a new login gets a new store.
type PermissionStore struct {
	fetcher PermissionFetcher
	cred    Credential

	mu     sync.RWMutex
	loaded bool
	role   Role
	perms  map[Permission]struct{}
}

// NewPermissionStore creates an unloaded store bound to the credential.
func NewPermissionStore(fetcher PermissionFetcher, cred Credential) *PermissionStore {
	return &PermissionStore{fetcher: fetcher, cred: cred}
}

// Load fetches the permission grant and atomically replaces the role and
// permission set. Readers never observe a partial update. On failure the
// prior state is left untouched: a store that was loaded stays loaded with
// its old grant, a store that was never loaded keeps denying everything.
func (s *PermissionStore) Load(ctx context.Context) error {
	if s.cred == "" {
		return ErrUnauthenticated
	}

	grant, err := s.fetcher.FetchPermissions(ctx, s.cred)
	if err != nil {
		return asAuthorizationError(err)
	}

	set := make(map[Permission]struct{}, len(grant.Permissions))
	for _, p := range grant.Permissions {
		set[p] = struct{}{}
	}

	s.mu.Lock()
	s.role = grant.Role
	s.perms = set
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// HasPermission reports whether the loaded set contains the permission.
// False when the store is unloaded and false for unknown names.
func (s *PermissionStore) HasPermission(p Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return false
	}
	_, ok := s.perms[p]
	return ok
}

// Role returns the loaded role, or RoleUnset before the first successful
// Load.
func (s *PermissionStore) Role() Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return RoleUnset
	}
	return s.role
}

// Permissions returns a copy of the loaded set. Order is unspecified.
func (s *PermissionStore) Permissions() []Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Permission, 0, len(s.perms))
	for p := range s.perms {
		out = append(out, p)
	}
	return out
}

// Loaded reports whether a grant has been committed.
func (s *PermissionStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// asAuthorizationError keeps the two sentinel classes intact and folds every
// other fetch failure into unavailability, so a misbehaving fetcher can never
// smuggle in a third error class that callers might mistake for "allow".
func asAuthorizationError(err error) error {
	if errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrAuthorizationUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrAuthorizationUnavailable, err)
}
