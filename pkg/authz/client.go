package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mindlab-health/caregrid/pkg/session"
)

const defaultTimeout = 10 * time.Second

// Client talks to the authorization service. It implements
// session.AuthorizationClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL. A nil httpClient
// gets a traced default with a 10 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type permissionsResponse struct {
	UserID      int64    `json:"user_id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type modulesResponse struct {
	UserID            int64    `json:"user_id"`
	Role              string   `json:"role"`
	AccessibleModules []string `json:"accessible_modules"`
}

type checkPermissionRequest struct {
	Permission string `json:"permission"`
}

// CheckResult is the server's answer to a single permission check.
type CheckResult struct {
	UserID        int64  `json:"user_id"`
	Permission    string `json:"permission"`
	HasPermission bool   `json:"has_permission"`
}

// FetchPermissions implements session.PermissionFetcher.
func (c *Client) FetchPermissions(ctx context.Context, cred session.Credential) (session.PermissionGrant, error) {
	var body permissionsResponse
	if err := c.get(ctx, "/api/v1/users/me/permissions", cred, &body); err != nil {
		return session.PermissionGrant{}, err
	}

	role, err := session.ParseRole(body.Role)
	if err != nil {
		return session.PermissionGrant{}, fmt.Errorf("%w: server returned unknown role %q", session.ErrAuthorizationUnavailable, body.Role)
	}

	perms := make([]session.Permission, len(body.Permissions))
	for i, p := range body.Permissions {
		perms[i] = session.Permission(p)
	}

	return session.PermissionGrant{
		UserID:      body.UserID,
		Username:    body.Username,
		Role:        role,
		Permissions: perms,
	}, nil
}

// FetchModules implements session.ModuleFetcher.
func (c *Client) FetchModules(ctx context.Context, cred session.Credential) (session.ModuleGrant, error) {
	var body modulesResponse
	if err := c.get(ctx, "/api/v1/users/me/modules", cred, &body); err != nil {
		return session.ModuleGrant{}, err
	}

	role, err := session.ParseRole(body.Role)
	if err != nil {
		return session.ModuleGrant{}, fmt.Errorf("%w: server returned unknown role %q", session.ErrAuthorizationUnavailable, body.Role)
	}

	return session.ModuleGrant{
		UserID:  body.UserID,
		Role:    role,
		Modules: body.AccessibleModules,
	}, nil
}

// CheckPermission asks the server to re-verify one permission. The library
// never requires this for local gating; it exists for sensitive flows that
// want a server-side decision and an audit record.
func (c *Client) CheckPermission(ctx context.Context, cred session.Credential, perm session.Permission) (CheckResult, error) {
	payload, err := json.Marshal(checkPermissionRequest{Permission: string(perm)})
	if err != nil {
		return CheckResult{}, fmt.Errorf("%w: encoding request: %v", session.ErrAuthorizationUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/rbac/check-permission", bytes.NewReader(payload))
	if err != nil {
		return CheckResult{}, fmt.Errorf("%w: %v", session.ErrAuthorizationUnavailable, err)
	}
	c.setHeaders(req, cred)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CheckResult{}, fmt.Errorf("%w: %v", session.ErrAuthorizationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CheckResult{}, statusError(resp.StatusCode)
	}

	var result CheckResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return CheckResult{}, fmt.Errorf("%w: decoding response: %v", session.ErrAuthorizationUnavailable, err)
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, path string, cred session.Credential, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrAuthorizationUnavailable, err)
	}
	c.setHeaders(req, cred)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrAuthorizationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", session.ErrAuthorizationUnavailable, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, cred session.Credential) {
	req.Header.Set("Authorization", "Bearer "+string(cred))
	req.Header.Set("Accept", "application/json")
}

// statusError maps a non-200 status to the session error contract: 401 means
// the credential is bad, everything else means no usable answer.
func statusError(status int) error {
	if status == http.StatusUnauthorized {
		return session.ErrUnauthenticated
	}
	return fmt.Errorf("%w: authorization service returned %d", session.ErrAuthorizationUnavailable, status)
}
