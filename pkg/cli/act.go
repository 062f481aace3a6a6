package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mindlab-health/caregrid/pkg/capability"
	"github.com/mindlab-health/caregrid/pkg/dashboard"
	"github.com/mindlab-health/caregrid/pkg/dispatch"
	"github.com/mindlab-health/caregrid/pkg/session"
)

func newActCommand() *Command {
	cmd := &Command{
		Name:        "act",
		Description: "Perform a gated action against an optional target",
		Flags:       flag.NewFlagSet("act", flag.ExitOnError),
		Run:         runAct,
	}

	cmd.Flags.String("server", "", "Authorization service URL")
	cmd.Flags.String("token", "", "API token (falls back to CAREGRID_TOKEN)")
	cmd.Flags.String("action", "", "Action name (see -action list)")
	cmd.Flags.String("target", "", "Target identifier, for example a patient ID")

	return cmd
}

func runAct(args []string) error {
	flags := flag.NewFlagSet("act", flag.ExitOnError)
	server := flags.String("server", "", "Authorization service URL")
	token := flags.String("token", "", "API token (falls back to CAREGRID_TOKEN)")
	action := flags.String("action", "", "Action name (see -action list)")
	target := flags.String("target", "", "Target identifier, for example a patient ID")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *action == "" {
		return fmt.Errorf("action is required")
	}
	if *action == "list" {
		for _, name := range knownActions() {
			fmt.Println(name)
		}
		return nil
	}

	parsed, ok := parseAction(*action)
	if !ok {
		return fmt.Errorf("unknown action %q (use -action list)", *action)
	}
	cred, err := resolveToken(*token)
	if err != nil {
		return err
	}
	return performAction(context.Background(), os.Stdout, resolveServer(*server), cred, parsed, *target)
}

// parseAction maps a name to a bound action. Only actions with a permission
// binding exist; anything else is unknown, not denied.
func parseAction(name string) (capability.Action, bool) {
	action := capability.Action(strings.TrimSpace(name))
	_, ok := capability.DefaultBindings()[action]
	return action, ok
}

// knownActions returns the bindable action names sorted.
func knownActions() []string {
	bindings := capability.DefaultBindings()
	names := make([]string, 0, len(bindings))
	for action := range bindings {
		names = append(names, string(action))
	}
	sort.Strings(names)
	return names
}

// performAction gates the action locally, then has the server re-verify the
// bound permission so the decision lands in the audit trail. A local denial
// never reaches the network.
func performAction(ctx context.Context, w io.Writer, server string, cred session.Credential, action capability.Action, target string) error {
	controller, client, err := beginSession(ctx, server, cred)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	gate := capability.NewGate(controller, nil)
	d := newDispatcher(w, gate, dashboard.DefaultRegistry())

	perm := capability.DefaultBindings()[action]
	err = d.PerformAction(ctx, action, target, func(ctx context.Context, target string) error {
		result, err := client.CheckPermission(ctx, cred, perm)
		if err != nil {
			return err
		}
		if !result.HasPermission {
			return fmt.Errorf("%w: server denied %s", dispatch.ErrAccessDenied, perm)
		}
		if target != "" {
			fmt.Fprintf(w, "performed %s on %s\n", action, target)
		} else {
			fmt.Fprintf(w, "performed %s\n", action)
		}
		return nil
	})
	return err
}
