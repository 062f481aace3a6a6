package rbac

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/mindlab-health/caregrid/pkg/observability"
)

// Seeder applies a role-permission matrix to the database. Applying the
// same matrix twice is a no-op; applying a changed matrix replaces each
// role's row wholesale and invalidates cached decisions.
type Seeder struct {
	store    *Store
	resolver *Resolver
	logger   *logrus.Logger
	metrics  *observability.Metrics
}

// NewSeeder creates a seeder. resolver and metrics may be nil (caregrid-sync
// runs without either when Redis is not configured).
func NewSeeder(store *Store, resolver *Resolver, logger *logrus.Logger, metrics *observability.Metrics) *Seeder {
	if logger == nil {
		logger = logrus.New()
	}
	return &Seeder{store: store, resolver: resolver, logger: logger, metrics: metrics}
}

// LoadMatrixFile reads a YAML matrix document from disk.
func LoadMatrixFile(path string) (Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Matrix{}, fmt.Errorf("failed to read matrix file: %w", err)
	}

	var matrix Matrix
	if err := yaml.Unmarshal(data, &matrix); err != nil {
		return Matrix{}, fmt.Errorf("failed to parse matrix file: %w", err)
	}
	if len(matrix.Roles) == 0 {
		return Matrix{}, fmt.Errorf("matrix file %s defines no roles", path)
	}
	return matrix, nil
}

// Validate checks that every role in the matrix is a member of the closed
// set and every permission name splits into resource and action.
func (m Matrix) Validate() error {
	for role, names := range m.Roles {
		if _, err := ParseRole(role); err != nil {
			return fmt.Errorf("%w: %s", ErrUnknownRole, role)
		}
		for _, name := range names {
			if _, action := SplitPermissionName(name); action == "" {
				return fmt.Errorf("permission %q for role %s is not in resource.action form", name, role)
			}
		}
	}
	return nil
}

// Apply upserts the catalog rows the matrix names and replaces each role's
// matrix row, in a stable role order so log output is diffable run to run.
func (s *Seeder) Apply(ctx context.Context, matrix Matrix) error {
	if err := matrix.Validate(); err != nil {
		return err
	}

	catalog := make(map[string]bool)
	for _, names := range matrix.Roles {
		for _, name := range names {
			catalog[name] = true
		}
	}

	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		perm := Permission{Name: name, Description: DescribePermission(name)}
		if err := s.store.UpsertPermission(ctx, &perm); err != nil {
			return err
		}
	}
	s.logger.WithField("permissions", len(names)).Info("permission catalog seeded")

	roles := make([]string, 0, len(matrix.Roles))
	for role := range matrix.Roles {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	for _, role := range roles {
		granted := matrix.Roles[role]
		if err := s.store.ReplaceRolePermissions(ctx, Role(role), granted); err != nil {
			return err
		}
		s.logger.WithFields(logrus.Fields{
			"role":        role,
			"permissions": len(granted),
		}).Info("matrix row applied")
	}

	if s.resolver != nil {
		if err := s.resolver.Invalidate(ctx, ""); err != nil {
			s.logger.WithError(err).Warn("decision cache invalidation failed after seeding")
		}
	}

	s.updateGauges(ctx)
	return nil
}

// ApplyDefault seeds the shipped matrix.
func (s *Seeder) ApplyDefault(ctx context.Context) error {
	return s.Apply(ctx, DefaultMatrix())
}

// ApplyFile loads a YAML matrix document and applies it.
func (s *Seeder) ApplyFile(ctx context.Context, path string) error {
	matrix, err := LoadMatrixFile(path)
	if err != nil {
		return err
	}
	return s.Apply(ctx, matrix)
}

func (s *Seeder) updateGauges(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if n, err := s.store.CountPermissions(ctx); err == nil {
		s.metrics.PermissionsTotal.Set(float64(n))
	}
	if roles, err := s.store.SeededRoles(ctx); err == nil {
		s.metrics.RolesSeeded.Set(float64(len(roles)))
	}
}
