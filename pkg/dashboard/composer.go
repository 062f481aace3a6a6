package dashboard

import (
	"github.com/mindlab-health/caregrid/pkg/session"
)

// View receives composed output. Implementations apply it to whatever surface
// the shell owns; nothing here assumes how.
type View interface {
	RenderHeader(header Header)
	RenderCards(cards []Card)
	RenderEmpty(notice string)
}

// ModuleSource is the live accessible-module list the composer reads at
// activation time. The session controller implements it.
type ModuleSource interface {
	AccessibleModules() []string
}

// Composer renders the module grid for the current role exactly once per
// activation and rebuilds cleanly after Reset.
type Composer struct {
	source   ModuleSource
	registry *Registry
	view     View
	guard    *RenderGuard
}

// NewComposer binds a composer to the module source and view. A nil registry
// gets DefaultRegistry.
func NewComposer(source ModuleSource, registry *Registry, view View) *Composer {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Composer{
		source:   source,
		registry: registry,
		view:     view,
		guard:    NewRenderGuard(),
	}
}

// Activate composes the dashboard for role. A second activation for the same
// role without an intervening Reset is a no-op; an activation while one is in
// flight coalesces. An empty accessible set renders the header and an
// explicit zero-card empty state, never an error.
func (c *Composer) Activate(role session.Role) error {
	strategy, ok := StrategyFor(role)
	if !ok {
		return session.ErrUnknownRole
	}

	if !c.guard.Begin(role) {
		return nil
	}

	c.view.RenderHeader(Header{Role: role, Theme: strategy.Theme()})

	modules := c.source.AccessibleModules()
	if len(modules) == 0 {
		c.view.RenderEmpty(strategy.EmptyNotice())
	} else {
		c.view.RenderCards(ComposeCards(modules, c.registry))
	}

	c.guard.Finish(role)
	return nil
}

// Reset clears the render guard for every role. Callers must invoke it on
// role switch so the next Activate rebuilds instead of no-opping.
func (c *Composer) Reset() {
	c.guard.Reset()
}

// Preview renders from the static fallback table, with the header marked
// presentational. It bypasses the guard: previews are throwaway paint, not
// activations.
func (c *Composer) Preview(role session.Role) error {
	strategy, ok := StrategyFor(role)
	if !ok {
		return session.ErrUnknownRole
	}

	c.view.RenderHeader(Header{Role: role, Theme: strategy.Theme(), Preview: true})

	cards := PreviewCards(role, c.registry)
	if len(cards) == 0 {
		c.view.RenderEmpty(strategy.EmptyNotice())
		return nil
	}
	c.view.RenderCards(cards)
	return nil
}

// Rendered reports whether role's authoritative render completed since the
// last Reset.
func (c *Composer) Rendered(role session.Role) bool {
	return c.guard.Rendered(role)
}
