package capability

import (
	"github.com/mindlab-health/caregrid/pkg/session"
)

// Action names a user-initiated operation the UI can offer.
type Action string

const (
	ActionViewAllPatients     Action = "view_all_patients"
	ActionAssignPatient       Action = "assign_patient"
	ActionManagePatients      Action = "manage_patients"
	ActionCreateRecord        Action = "create_record"
	ActionEditRecord          Action = "edit_record"
	ActionDeleteRecord        Action = "delete_record"
	ActionViewEarnings        Action = "view_earnings"
	ActionManageEarnings      Action = "manage_earnings"
	ActionViewCommission      Action = "view_commission"
	ActionManageCommission    Action = "manage_commission"
	ActionCreateMealPlan      Action = "create_meal_plan"
	ActionEditMealPlan        Action = "edit_meal_plan"
	ActionCreateNutritionPlan Action = "create_nutrition_plan"
	ActionEditNutritionPlan   Action = "edit_nutrition_plan"
	ActionManageRoles         Action = "manage_roles"
)

// ActionBindings maps each offerable action to the permission that authorizes
// it. Absence means denial.
type ActionBindings map[Action]session.Permission

// DefaultBindings returns the product's action table.
func DefaultBindings() ActionBindings {
	return ActionBindings{
		ActionViewAllPatients:     "patients.view_all",
		ActionAssignPatient:       "patients.assign",
		ActionManagePatients:      "patients.manage",
		ActionCreateRecord:        "health_records.create",
		ActionEditRecord:          "health_records.edit_assigned",
		ActionDeleteRecord:        "health_records.delete",
		ActionViewEarnings:        "earnings.view_own",
		ActionManageEarnings:      "earnings.manage",
		ActionViewCommission:      "commission.view",
		ActionManageCommission:    "commission.manage",
		ActionCreateMealPlan:      "meals.create_plans",
		ActionEditMealPlan:        "meals.edit_plans",
		ActionCreateNutritionPlan: "nutrition.create_plans",
		ActionEditNutritionPlan:   "nutrition.edit_plans",
		ActionManageRoles:         "users.manage_roles",
	}
}

// Session is the live authorization state the gate evaluates against. The
// session controller implements it; every method fails closed outside
// PhaseReady.
type Session interface {
	HasPermission(session.Permission) bool
	HasModule(name string) bool
	Role() session.Role
}

// Gate makes capability decisions for one session.
type Gate struct {
	session  Session
	bindings ActionBindings
}

// NewGate binds a gate to the session. A nil bindings table gets
// DefaultBindings.
func NewGate(sess Session, bindings ActionBindings) *Gate {
	if bindings == nil {
		bindings = DefaultBindings()
	}
	return &Gate{session: sess, bindings: bindings}
}

// CanAccessModule reports whether the session's accessible module set
// contains name. False outside PhaseReady.
func (g *Gate) CanAccessModule(name string) bool {
	return g.session.HasModule(name)
}

// CanPerform reports whether the session may perform the action. Unmapped
// actions are denied; mapped actions delegate to the live permission set.
func (g *Gate) CanPerform(action Action) bool {
	perm, ok := g.bindings[action]
	if !ok {
		return false
	}
	return g.session.HasPermission(perm)
}

// IsAdmin reports whether the session's role is admin. Presentational only:
// it grants nothing, and callers must keep sensitive actions behind
// CanPerform.
func (g *Gate) IsAdmin() bool {
	return g.session.Role() == session.RoleAdmin
}
