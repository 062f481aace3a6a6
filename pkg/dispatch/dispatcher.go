package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/mindlab-health/caregrid/pkg/capability"
)

// Gate is the decision surface the dispatcher consults. capability.Gate
// implements it.
type Gate interface {
	CanAccessModule(name string) bool
	CanPerform(action capability.Action) bool
}

// ViewHandler is an implemented module view. Show runs when the dispatcher
// switches to the module.
type ViewHandler interface {
	Show()
}

// ViewHandlerFunc adapts a function to ViewHandler.
type ViewHandlerFunc func()

// Show implements ViewHandler.
func (f ViewHandlerFunc) Show() {
	f()
}

// ActionFunc performs an action against a target. It runs only after the
// gate allows; any state-mutating or network call belongs inside it.
type ActionFunc func(ctx context.Context, target string) error

// Dispatcher gates every module open and privileged action.
type Dispatcher struct {
	gate     Gate
	notifier Notifier

	mu       sync.RWMutex
	handlers map[string]ViewHandler
	active   string
}

// NewDispatcher creates a dispatcher over the gate. A nil notifier drops
// notices.
func NewDispatcher(gate Gate, notifier Notifier) *Dispatcher {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Dispatcher{
		gate:     gate,
		notifier: notifier,
		handlers: make(map[string]ViewHandler),
	}
}

// RegisterHandler installs the view for a module. Registering a module twice
// replaces the handler.
func (d *Dispatcher) RegisterHandler(module string, handler ViewHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[module] = handler
}

// RegisteredModules returns the modules with installed views.
func (d *Dispatcher) RegisteredModules() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for module := range d.handlers {
		out = append(out, module)
	}
	return out
}

// OpenModule switches the active view to the module's handler. A gate denial
// surfaces NoticeAccessDenied and changes nothing; an accessible module with
// no handler surfaces NoticeModuleUnavailable and changes nothing. The gate
// runs before the registry lookup, so denial never reveals whether a view
// exists.
func (d *Dispatcher) OpenModule(name string) error {
	if !d.gate.CanAccessModule(name) {
		d.notifier.Notify(Notice{
			Kind:    NoticeAccessDenied,
			Module:  name,
			Message: "You do not have access to this module.",
		})
		return fmt.Errorf("%w: module %s", ErrAccessDenied, name)
	}

	d.mu.RLock()
	handler, ok := d.handlers[name]
	d.mu.RUnlock()

	if !ok {
		d.notifier.Notify(Notice{
			Kind:    NoticeModuleUnavailable,
			Module:  name,
			Message: "This module is coming soon.",
		})
		return fmt.Errorf("%w: module %s", ErrModuleUnavailable, name)
	}

	d.mu.Lock()
	d.active = name
	d.mu.Unlock()

	handler.Show()
	return nil
}

// PerformAction runs fn only if the gate allows the action. Denial surfaces
// NoticeAccessDenied and short-circuits before fn, so no request is ever
// issued for a denied action.
func (d *Dispatcher) PerformAction(ctx context.Context, action capability.Action, target string, fn ActionFunc) error {
	if !d.gate.CanPerform(action) {
		d.notifier.Notify(Notice{
			Kind:    NoticeAccessDenied,
			Action:  action,
			Message: "You do not have permission to perform this action.",
		})
		return fmt.Errorf("%w: action %s", ErrAccessDenied, action)
	}

	if fn == nil {
		return nil
	}
	return fn(ctx, target)
}

// ActiveModule returns the module whose view is currently shown, or "" when
// none has been opened.
func (d *Dispatcher) ActiveModule() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.active
}
