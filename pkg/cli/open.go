package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mindlab-health/caregrid/pkg/capability"
	"github.com/mindlab-health/caregrid/pkg/dashboard"
	"github.com/mindlab-health/caregrid/pkg/dispatch"
	"github.com/mindlab-health/caregrid/pkg/session"
)

func newOpenCommand() *Command {
	cmd := &Command{
		Name:        "open",
		Description: "Open a module view through the capability gate",
		Flags:       flag.NewFlagSet("open", flag.ExitOnError),
		Run:         runOpen,
	}

	cmd.Flags.String("server", "", "Authorization service URL")
	cmd.Flags.String("token", "", "API token (falls back to CAREGRID_TOKEN)")
	cmd.Flags.String("module", "", "Module to open")

	return cmd
}

func runOpen(args []string) error {
	flags := flag.NewFlagSet("open", flag.ExitOnError)
	server := flags.String("server", "", "Authorization service URL")
	token := flags.String("token", "", "API token (falls back to CAREGRID_TOKEN)")
	module := flags.String("module", "", "Module to open")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *module == "" {
		return fmt.Errorf("module is required")
	}
	cred, err := resolveToken(*token)
	if err != nil {
		return err
	}
	return openModule(context.Background(), os.Stdout, resolveServer(*server), cred, *module)
}

// newDispatcher builds the CLI's dispatcher: a text view handler per known
// module and notices printed as plain lines. The gate decides access; the
// handler table only decides whether a view exists.
func newDispatcher(w io.Writer, gate dispatch.Gate, registry *dashboard.Registry) *dispatch.Dispatcher {
	d := dispatch.NewDispatcher(gate, dispatch.NotifierFunc(func(n dispatch.Notice) {
		fmt.Fprintf(w, "%s\n", n.Message)
	}))

	for _, name := range registry.Names() {
		module := name
		desc := registry.Describe(module)
		d.RegisterHandler(module, dispatch.ViewHandlerFunc(func() {
			fmt.Fprintf(w, "%s %s\n%s\n", desc.Icon, desc.Title, desc.Description)
		}))
	}
	return d
}

// openModule starts a session, gates the module, and shows its view. Denial
// and not-yet-implemented come back as distinct errors with distinct
// notices already printed.
func openModule(ctx context.Context, w io.Writer, server string, cred session.Credential, module string) error {
	controller, _, err := beginSession(ctx, server, cred)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	gate := capability.NewGate(controller, nil)
	d := newDispatcher(w, gate, dashboard.DefaultRegistry())

	// Denials and unimplemented modules already printed their notice; the
	// error only sets the exit code.
	return d.OpenModule(module)
}
