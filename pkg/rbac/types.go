package rbac

import (
	"strings"
)

// Role identifies one of the platform's user populations. The set is closed;
// the client-side mirror of this vocabulary lives in pkg/session.
type Role string

const (
	RoleAdmin       Role = "admin"
	RolePhysician   Role = "physician"
	RoleTherapist   Role = "therapist"
	RoleHealthCoach Role = "health_coach"
	RolePatient     Role = "patient"
	RolePartner     Role = "partner"
)

// Roles returns the closed role set in canonical order.
func Roles() []Role {
	return []Role{RoleAdmin, RolePhysician, RoleTherapist, RoleHealthCoach, RolePatient, RolePartner}
}

// ParseRole converts a wire-format role string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RolePhysician, RoleTherapist, RoleHealthCoach, RolePatient, RolePartner:
		return Role(s), nil
	}
	return "", ErrUnknownRole
}

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Permission is one row of the permission catalog. Name is the authoritative
// identifier in "resource.action" form; Module is the functional area the
// permission belongs to and drives module derivation for dashboards.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Module      string `json:"module"`
	Action      string `json:"action"`
}

// SplitPermissionName splits a "resource.action" permission name at the
// first dot. The action part is empty when there is no dot.
func SplitPermissionName(name string) (module, action string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

// ModuleCatalog is the ordered universe of functional modules. Derived
// accessible-module lists always follow this order.
var ModuleCatalog = []string{
	"users",
	"appointments",
	"messages",
	"analytics",
	"security",
	"settings",
	"meals",
	"nutrition",
	"health",
	"admin",
	"patients",
	"health_records",
	"earnings",
	"commission",
}

// managementModules are granted to admin sessions ahead of the modules
// derived from the permission matrix.
var managementModules = []string{"users", "analytics", "security", "settings", "admin"}

// KnownModule reports whether the name is part of the module universe.
func KnownModule(name string) bool {
	for _, m := range ModuleCatalog {
		if m == name {
			return true
		}
	}
	return false
}

// PermissionUsersManageRoles gates the admin matrix-management endpoints.
const PermissionUsersManageRoles = "users.manage_roles"

// Matrix is a role to permission-name mapping, the unit the Seeder applies
// and caregrid-sync watches on disk.
type Matrix struct {
	Roles map[string][]string `yaml:"roles"`
}

// DefaultMatrix returns the shipped role-permission matrix. Partner is
// intentionally empty: partner sessions authenticate but hold no modules.
func DefaultMatrix() Matrix {
	physician := []string{
		"patients.view_assigned",
		"health_records.view_assigned",
		"health_records.create",
		"health_records.edit_assigned",
		"earnings.view_own",
		"earnings.create",
		"nutrition.view_assigned",
		"nutrition.create_plans",
		"nutrition.edit_plans",
		"meals.view_assigned",
		"meals.create_plans",
		"meals.edit_plans",
	}

	// Therapists hold the physician set minus plan authoring.
	therapist := make([]string, 0, len(physician))
	for _, p := range physician {
		switch p {
		case "nutrition.create_plans", "nutrition.edit_plans", "meals.create_plans", "meals.edit_plans":
			continue
		}
		therapist = append(therapist, p)
	}

	return Matrix{Roles: map[string][]string{
		string(RoleAdmin): {
			"patients.view_all",
			"patients.assign",
			"patients.manage",
			"health_records.view_all",
			"health_records.create",
			"health_records.edit_assigned",
			"health_records.delete",
			"earnings.view_all",
			"earnings.manage",
			"commission.view",
			"commission.manage",
			"nutrition.view_assigned",
			"nutrition.create_plans",
			"nutrition.edit_plans",
			"meals.view_assigned",
			"meals.create_plans",
			"meals.edit_plans",
			PermissionUsersManageRoles,
		},
		string(RolePhysician):   physician,
		string(RoleTherapist):   therapist,
		string(RoleHealthCoach): append([]string(nil), physician...),
		string(RolePatient): {
			"health_records.view_own",
			"nutrition.view",
			"meals.view_own",
		},
		string(RolePartner): {},
	}}
}

// permissionDescriptions carries the catalog text for the shipped matrix.
// Permissions introduced through a custom matrix file get an empty
// description until an operator fills one in.
var permissionDescriptions = map[string]string{
	"patients.view_all":            "View every patient on the platform",
	"patients.view_assigned":       "View patients assigned to the caregiver",
	"patients.assign":              "Assign patients to caregivers",
	"patients.manage":              "Manage patient records and status",
	"health_records.view_all":      "View all health records",
	"health_records.view_assigned": "View health records of assigned patients",
	"health_records.view_own":      "View the session's own health records",
	"health_records.create":        "Create health record entries",
	"health_records.edit_assigned": "Edit health records of assigned patients",
	"health_records.delete":        "Delete health records",
	"earnings.view_all":            "View earnings across the platform",
	"earnings.view_own":            "View the session's own earnings",
	"earnings.create":              "Record earnings entries",
	"earnings.manage":              "Adjust and approve earnings",
	"commission.view":              "View partner commission statements",
	"commission.manage":            "Manage partner commission rates",
	"nutrition.view":               "View the session's own nutrition plans",
	"nutrition.view_assigned":      "View nutrition plans of assigned patients",
	"nutrition.create_plans":       "Create nutrition plans",
	"nutrition.edit_plans":         "Edit nutrition plans",
	"meals.view_own":               "View the session's own meal plans",
	"meals.view_assigned":          "View meal plans of assigned patients",
	"meals.create_plans":           "Create meal plans",
	"meals.edit_plans":             "Edit meal plans",
	PermissionUsersManageRoles:     "Manage the role-permission matrix",
}

// DescribePermission returns the shipped description for a catalog
// permission name, or "" when none exists.
func DescribePermission(name string) string {
	return permissionDescriptions[name]
}
