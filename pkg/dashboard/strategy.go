package dashboard

import (
	"github.com/mindlab-health/caregrid/pkg/session"
)

// Theme is the per-role header treatment.
type Theme struct {
	Title   string `json:"title"`
	Tagline string `json:"tagline"`
	Accent  string `json:"accent"`
}

// Header is what a View renders above the module grid. Preview marks output
// composed from the fallback table rather than the authoritative set.
type Header struct {
	Role    session.Role `json:"role"`
	Theme   Theme        `json:"theme"`
	Preview bool         `json:"preview"`
}

// DashboardStrategy supplies the role-specific parts of a composition: the
// header theme and the notice shown when the role has zero modules.
type DashboardStrategy interface {
	Role() session.Role
	Theme() Theme
	EmptyNotice() string
}

type adminStrategy struct{}

func (adminStrategy) Role() session.Role { return session.RoleAdmin }
func (adminStrategy) Theme() Theme {
	return Theme{Title: "Admin Console", Tagline: "Full platform oversight", Accent: "#7C3AED"}
}
func (adminStrategy) EmptyNotice() string {
	return "No modules are enabled for this administrator account."
}

type physicianStrategy struct{}

func (physicianStrategy) Role() session.Role { return session.RolePhysician }
func (physicianStrategy) Theme() Theme {
	return Theme{Title: "Physician Dashboard", Tagline: "Your patients and clinical records", Accent: "#2563EB"}
}
func (physicianStrategy) EmptyNotice() string {
	return "No clinical modules are assigned to your practice yet."
}

type therapistStrategy struct{}

func (therapistStrategy) Role() session.Role { return session.RoleTherapist }
func (therapistStrategy) Theme() Theme {
	return Theme{Title: "Therapist Dashboard", Tagline: "Sessions and care plans", Accent: "#0D9488"}
}
func (therapistStrategy) EmptyNotice() string {
	return "No therapy modules are assigned to you yet."
}

type healthCoachStrategy struct{}

func (healthCoachStrategy) Role() session.Role { return session.RoleHealthCoach }
func (healthCoachStrategy) Theme() Theme {
	return Theme{Title: "Health Coach Dashboard", Tagline: "Coaching plans and progress", Accent: "#16A34A"}
}
func (healthCoachStrategy) EmptyNotice() string {
	return "No coaching modules are assigned to you yet."
}

type patientStrategy struct{}

func (patientStrategy) Role() session.Role { return session.RolePatient }
func (patientStrategy) Theme() Theme {
	return Theme{Title: "My Health", Tagline: "Your care at a glance", Accent: "#F59E0B"}
}
func (patientStrategy) EmptyNotice() string {
	return "Your care team has not enabled any modules for you yet."
}

type partnerStrategy struct{}

func (partnerStrategy) Role() session.Role { return session.RolePartner }
func (partnerStrategy) Theme() Theme {
	return Theme{Title: "Partner Portal", Tagline: "Program access and referrals", Accent: "#64748B"}
}
func (partnerStrategy) EmptyNotice() string {
	return "Partner access is not configured for this account yet."
}

// strategies is the complete role -> strategy map. Completeness over the
// closed role set is pinned by a test.
var strategies = map[session.Role]DashboardStrategy{
	session.RoleAdmin:       adminStrategy{},
	session.RolePhysician:   physicianStrategy{},
	session.RoleTherapist:   therapistStrategy{},
	session.RoleHealthCoach: healthCoachStrategy{},
	session.RolePatient:     patientStrategy{},
	session.RolePartner:     partnerStrategy{},
}

// StrategyFor returns the strategy for a role. The second return is false
// only for roles outside the closed set.
func StrategyFor(role session.Role) (DashboardStrategy, bool) {
	s, ok := strategies[role]
	return s, ok
}
