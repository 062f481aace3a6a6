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

func newModulesCommand() *Command {
	cmd := &Command{
		Name:        "modules",
		Description: "List the modules the session can access",
		Flags:       flag.NewFlagSet("modules", flag.ExitOnError),
		Run:         runModules,
	}

	cmd.Flags.String("server", "", "Authorization service URL")
	cmd.Flags.String("token", "", "API token (falls back to CAREGRID_TOKEN)")

	return cmd
}

func runModules(args []string) error {
	flags := flag.NewFlagSet("modules", flag.ExitOnError)
	server := flags.String("server", "", "Authorization service URL")
	token := flags.String("token", "", "API token (falls back to CAREGRID_TOKEN)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cred, err := resolveToken(*token)
	if err != nil {
		return err
	}
	return listModules(context.Background(), os.Stdout, resolveServer(*server), cred)
}

// listModules prints the accessible modules in server order, one per line
// with the registry description.
func listModules(ctx context.Context, w io.Writer, server string, cred session.Credential) error {
	controller, _, err := beginSession(ctx, server, cred)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	modules := controller.AccessibleModules()
	if len(modules) == 0 {
		fmt.Fprintf(w, "No accessible modules for role %s\n", controller.Role())
		return nil
	}

	registry := dashboard.DefaultRegistry()
	for _, name := range modules {
		d := registry.Describe(name)
		fmt.Fprintf(w, "%-16s %s\n", name, d.Description)
	}
	return nil
}
