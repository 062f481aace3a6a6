package dispatch

import (
	"github.com/mindlab-health/caregrid/pkg/capability"
)

// NoticeKind distinguishes the dispatcher's user-visible outcomes.
type NoticeKind string

const (
	// NoticeAccessDenied means the gate refused the module or action.
	NoticeAccessDenied NoticeKind = "access_denied"

	// NoticeModuleUnavailable means the module is accessible but its view is
	// not implemented yet.
	NoticeModuleUnavailable NoticeKind = "module_unavailable"
)

// Notice is a user-visible, locally-recovered outcome of a dispatch attempt.
type Notice struct {
	Kind    NoticeKind        `json:"kind"`
	Module  string            `json:"module,omitempty"`
	Action  capability.Action `json:"action,omitempty"`
	Message string            `json:"message"`
}

// Notifier receives notices. The shell renders them however it likes.
type Notifier interface {
	Notify(notice Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(notice Notice) {
	f(notice)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}
