package authsdk

import (
	"context"
	"net/http"
)

// Register redeems an invite, creates the account and signs it in. Like
// Login, the session and CSRF cookies land in the jar and the access token
// is retained on the client.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (LoginResponse, error) {
	var out LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/register", req, &out)
	if err != nil {
		return LoginResponse{}, err
	}
	c.AccessToken = out.AccessToken
	return out, nil
}

// Login authenticates and retains both credential forms: the session and
// CSRF cookies land in the jar, and the access token is stored on the
// client for bearer use.
func (c *Client) Login(ctx context.Context, identifier, password string) (LoginResponse, error) {
	var out LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", LoginRequest{Identifier: identifier, Password: password}, &out)
	if err != nil {
		return LoginResponse{}, err
	}
	c.AccessToken = out.AccessToken
	return out, nil
}

// Logout revokes the server-side session. The access token, if any, stays
// usable until it expires.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/auth/logout", nil, nil)
}

// Me returns the account behind the current credential (session cookie or
// bearer token).
func (c *Client) Me(ctx context.Context) (UserResponse, error) {
	var out UserResponse
	err := c.doJSON(ctx, http.MethodGet, "/v1/auth/me", nil, &out)
	return out, err
}

// Livez probes liveness.
func (c *Client) Livez(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.doJSON(ctx, http.MethodGet, "/livez", nil, &out)
	return out, err
}

// Readyz probes readiness, including dependency checks.
func (c *Client) Readyz(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.doJSON(ctx, http.MethodGet, "/readyz", nil, &out)
	return out, err
}
