package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mindlab-health/caregrid/pkg/authz"
	"github.com/mindlab-health/caregrid/pkg/session"
)

func newCheckCommand() *Command {
	cmd := &Command{
		Name:        "check",
		Description: "Ask the server whether the session holds a permission",
		Flags:       flag.NewFlagSet("check", flag.ExitOnError),
		Run:         runCheck,
	}

	cmd.Flags.String("server", "", "Authorization service URL")
	cmd.Flags.String("token", "", "API token (falls back to CAREGRID_TOKEN)")
	cmd.Flags.String("permission", "", "Permission name in resource.action form")

	return cmd
}

func runCheck(args []string) error {
	flags := flag.NewFlagSet("check", flag.ExitOnError)
	server := flags.String("server", "", "Authorization service URL")
	token := flags.String("token", "", "API token (falls back to CAREGRID_TOKEN)")
	permission := flags.String("permission", "", "Permission name in resource.action form")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *permission == "" {
		return fmt.Errorf("permission is required")
	}
	cred, err := resolveToken(*token)
	if err != nil {
		return err
	}
	return checkPermission(context.Background(), os.Stdout, resolveServer(*server), cred, session.Permission(*permission))
}

// checkPermission asks the server directly. The server's answer is
// authoritative and leaves an audit record; no local state is consulted.
func checkPermission(ctx context.Context, w io.Writer, server string, cred session.Credential, perm session.Permission) error {
	client := authz.NewClient(server, nil)
	result, err := client.CheckPermission(ctx, cred, perm)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if result.HasPermission {
		fmt.Fprintf(w, "allowed: %s\n", perm)
	} else {
		fmt.Fprintf(w, "denied: %s\n", perm)
	}
	return nil
}
