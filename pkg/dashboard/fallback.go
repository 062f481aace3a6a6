package dashboard

import (
	"github.com/mindlab-health/caregrid/pkg/session"
)

// fallbackModules is the static role -> module table used only for
// presentation previews. Access decisions never consult it; the authoritative
// set always comes from the server.
var fallbackModules = map[session.Role][]string{
	session.RoleAdmin: {
		"users", "appointments", "messages", "analytics", "security", "settings",
		"meals", "nutrition", "health", "admin", "patients", "health_records",
		"earnings", "commission",
	},
	session.RolePhysician: {
		"patients", "health_records", "nutrition", "meals", "earnings",
	},
	session.RoleTherapist: {
		"patients", "health_records", "nutrition", "meals", "earnings",
	},
	session.RoleHealthCoach: {
		"patients", "nutrition", "meals", "health_records", "earnings",
	},
	session.RolePatient: {
		"health", "meals", "nutrition", "health_records",
	},
	session.RolePartner: {},
}

// FallbackModules returns the role's presentational module list. The result
// is a copy; unknown roles get an empty list.
func FallbackModules(role session.Role) []string {
	modules := fallbackModules[role]
	out := make([]string, len(modules))
	copy(out, modules)
	return out
}
