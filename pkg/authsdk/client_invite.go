package authsdk

import (
	"context"
	"net/http"
)

// CreateInvite mints a new invite. Requires an admin or owner credential.
func (c *Client) CreateInvite(ctx context.Context, req InviteCreateRequest) (InviteCreateResponse, error) {
	var out InviteCreateResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/invites", req, &out)
	return out, err
}

// ValidateInvite checks whether a token is redeemable without consuming
// it. An empty email skips the binding check.
func (c *Client) ValidateInvite(ctx context.Context, token, email string) (InviteValidateResponse, error) {
	var out InviteValidateResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/invites/validate", InviteValidateRequest{InviteToken: token, Email: email}, &out)
	return out, err
}

// ListInvites returns the redacted administrative listing, newest first.
func (c *Client) ListInvites(ctx context.Context) (InviteListResponse, error) {
	var out InviteListResponse
	err := c.doJSON(ctx, http.MethodGet, "/v1/invites", nil, &out)
	return out, err
}

// RevokeInvite permanently disables an unredeemed invite by ID.
func (c *Client) RevokeInvite(ctx context.Context, inviteID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/invites/"+inviteID, nil, nil)
}

// CleanupInvites removes expired invites and reports the count.
func (c *Client) CleanupInvites(ctx context.Context) (InviteCleanupResponse, error) {
	var out InviteCleanupResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/invites/cleanup", nil, &out)
	return out, err
}
