package dashboard

import "sort"

// GenericIcon is the icon shown for module names the registry does not know.
const GenericIcon = "view_module"

// Descriptor is the fixed display identity of one module.
type Descriptor struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Registry resolves module names to display descriptors. Describe never
// fails: unknown names get a generic descriptor keyed by the raw name, so a
// module granted by the server before this client learned its descriptor
// still renders.
type Registry struct {
	descriptors map[string]Descriptor
}

// NewRegistry creates a registry over the given table. The table is copied.
func NewRegistry(descriptors map[string]Descriptor) *Registry {
	table := make(map[string]Descriptor, len(descriptors))
	for name, d := range descriptors {
		table[name] = d
	}
	return &Registry{descriptors: table}
}

// DefaultRegistry returns the product's module universe.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Descriptor{
		"users":          {Icon: "group", Title: "Users", Description: "Manage platform users and their roles"},
		"appointments":   {Icon: "event", Title: "Appointments", Description: "Schedule and track appointments"},
		"messages":       {Icon: "chat", Title: "Messages", Description: "Secure messaging with your care team"},
		"analytics":      {Icon: "insights", Title: "Analytics", Description: "Usage and outcome trends"},
		"security":       {Icon: "security", Title: "Security", Description: "Access events and security posture"},
		"settings":       {Icon: "settings", Title: "Settings", Description: "Platform configuration"},
		"meals":          {Icon: "restaurant", Title: "Meals", Description: "Meal plans and logging"},
		"nutrition":      {Icon: "restaurant_menu", Title: "Nutrition", Description: "Nutrition plans and guidance"},
		"health":         {Icon: "favorite", Title: "Health", Description: "Vitals and wellness tracking"},
		"admin":          {Icon: "admin_panel_settings", Title: "Admin", Description: "Administrative tools"},
		"patients":       {Icon: "people", Title: "Patients", Description: "Your assigned patients"},
		"health_records": {Icon: "folder_shared", Title: "Health Records", Description: "Clinical records and documents"},
		"earnings":       {Icon: "payments", Title: "Earnings", Description: "Earnings and payout history"},
		"commission":     {Icon: "percent", Title: "Commission", Description: "Commission structure and rates"},
	})
}

// Describe resolves a module name. Unknown names resolve to a generic
// descriptor whose title is the raw name.
func (r *Registry) Describe(name string) Descriptor {
	if d, ok := r.descriptors[name]; ok {
		return d
	}
	return GenericDescriptor(name)
}

// Names returns the registered module names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether the registry carries a descriptor for name.
func (r *Registry) Known(name string) bool {
	_, ok := r.descriptors[name]
	return ok
}

// GenericDescriptor builds the descriptor used for unregistered module names.
func GenericDescriptor(name string) Descriptor {
	return Descriptor{
		Icon:  GenericIcon,
		Title: name,
	}
}
