package dashboard

import (
	"sync"

	"github.com/mindlab-health/caregrid/pkg/session"
)

type renderState int

const (
	renderIdle renderState = iota
	renderInFlight
	renderDone
)

// RenderGuard is the per-role one-shot state behind activation idempotence.
// One role's state never blocks another role's render; Reset clears all of it
// and must run on role switch.
type RenderGuard struct {
	mu    sync.Mutex
	state map[session.Role]renderState
}

// NewRenderGuard creates a guard with every role idle.
func NewRenderGuard() *RenderGuard {
	return &RenderGuard{state: make(map[session.Role]renderState)}
}

// Begin claims the render for role. It returns false when a render for this
// role is already in flight or already done, which is how re-entrant
// activations coalesce instead of stacking.
func (g *RenderGuard) Begin(role session.Role) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state[role] != renderIdle {
		return false
	}
	g.state[role] = renderInFlight
	return true
}

// Finish marks the role's render done. Further Begins for the role return
// false until Reset.
func (g *RenderGuard) Finish(role session.Role) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state[role] = renderDone
}

// Abort returns the role to idle so a later Begin can retry.
func (g *RenderGuard) Abort(role session.Role) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state[role] = renderIdle
}

// Reset clears every role's state.
func (g *RenderGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = make(map[session.Role]renderState)
}

// Rendered reports whether the role's render completed.
func (g *RenderGuard) Rendered(role session.Role) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state[role] == renderDone
}
