package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mindlab-health/caregrid/pkg/dashboard"
	"github.com/mindlab-health/caregrid/pkg/session"
)

func newDashboardCommand() *Command {
	cmd := &Command{
		Name:        "dashboard",
		Description: "Render the role dashboard for the session",
		Flags:       flag.NewFlagSet("dashboard", flag.ExitOnError),
		Run:         runDashboard,
	}

	cmd.Flags.String("server", "", "Authorization service URL")
	cmd.Flags.String("token", "", "API token (falls back to CAREGRID_TOKEN)")
	cmd.Flags.String("preview", "", "Render the static preview for a role instead of a live session")

	return cmd
}

func runDashboard(args []string) error {
	flags := flag.NewFlagSet("dashboard", flag.ExitOnError)
	server := flags.String("server", "", "Authorization service URL")
	token := flags.String("token", "", "API token (falls back to CAREGRID_TOKEN)")
	preview := flags.String("preview", "", "Render the static preview for a role instead of a live session")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *preview != "" {
		return previewDashboard(os.Stdout, *preview)
	}

	cred, err := resolveToken(*token)
	if err != nil {
		return err
	}
	return showDashboard(context.Background(), os.Stdout, resolveServer(*server), cred)
}

// showDashboard composes the authoritative dashboard from a live session.
func showDashboard(ctx context.Context, w io.Writer, server string, cred session.Credential) error {
	controller, _, err := beginSession(ctx, server, cred)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	composer := dashboard.NewComposer(controller, nil, newTextView(w))
	return composer.Activate(controller.Role())
}

// previewDashboard renders from the static fallback table without contacting
// the server. Presentation only; it can be wrong and says so in the header.
func previewDashboard(w io.Writer, roleName string) error {
	role, err := session.ParseRole(roleName)
	if err != nil {
		return fmt.Errorf("unknown role %q", roleName)
	}

	composer := dashboard.NewComposer(nil, nil, newTextView(w))
	return composer.Preview(role)
}
