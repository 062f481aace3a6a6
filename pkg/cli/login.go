package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mindlab-health/caregrid/pkg/session"
)

func newLoginCommand() *Command {
	cmd := &Command{
		Name:        "login",
		Description: "Verify a token and show the session identity",
		Flags:       flag.NewFlagSet("login", flag.ExitOnError),
		Run:         runLogin,
	}

	cmd.Flags.String("server", "", "Authorization service URL")
	cmd.Flags.String("token", "", "API token (falls back to CAREGRID_TOKEN)")

	return cmd
}

func runLogin(args []string) error {
	flags := flag.NewFlagSet("login", flag.ExitOnError)
	server := flags.String("server", "", "Authorization service URL")
	token := flags.String("token", "", "API token (falls back to CAREGRID_TOKEN)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cred, err := resolveToken(*token)
	if err != nil {
		return err
	}
	return login(context.Background(), os.Stdout, resolveServer(*server), cred)
}

// login begins a session and reports what it resolved to. Both grants must
// load; a token that authenticates but cannot be authorized is an error, not
// a partial login.
func login(ctx context.Context, w io.Writer, server string, cred session.Credential) error {
	controller, _, err := beginSession(ctx, server, cred)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintf(w, "Logged in as %s\n", controller.Role())
	fmt.Fprintf(w, "Permissions: %d\n", len(controller.Permissions().Permissions()))
	fmt.Fprintf(w, "Modules: %d\n", len(controller.AccessibleModules()))
	return nil
}
