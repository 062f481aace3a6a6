package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mindlab-health/caregrid/pkg/authz"
	"github.com/mindlab-health/caregrid/pkg/session"
)

const (
	defaultServerURL = "http://localhost:8080"

	serverEnvVar = "CAREGRID_SERVER_URL"
	tokenEnvVar  = "CAREGRID_TOKEN"
)

// resolveServer prefers the flag value over CAREGRID_SERVER_URL over the
// localhost default.
func resolveServer(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(serverEnvVar); env != "" {
		return env
	}
	return defaultServerURL
}

// resolveToken prefers the flag value over CAREGRID_TOKEN.
func resolveToken(flagValue string) (session.Credential, error) {
	if flagValue != "" {
		return session.Credential(flagValue), nil
	}
	if env := os.Getenv(tokenEnvVar); env != "" {
		return session.Credential(env), nil
	}
	return "", fmt.Errorf("no API token: pass -token or set %s", tokenEnvVar)
}

// beginSession starts a full session against the server: both the permission
// set and the module list load before anything is usable, exactly as the
// dashboard shell does it.
func beginSession(ctx context.Context, server string, cred session.Credential) (*session.Controller, *authz.Client, error) {
	client := authz.NewClient(server, nil)
	controller := session.NewController(client)
	if err := controller.Begin(ctx, cred); err != nil {
		return nil, nil, err
	}
	return controller, client, nil
}
