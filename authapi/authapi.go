// Package authapi calls the backend's /auth endpoints.
package authapi

import (
	"context"
	"fmt"

	"github.com/jrsteele09/star-console/apiclient"
	consoleerrors "github.com/jrsteele09/star-console/internal/errors"
	"github.com/jrsteele09/star-console/users"
)

const (
	PathLogin          = "/auth/login"
	PathRefresh        = apiclient.PathRefresh
	PathMe             = "/auth/me"
	PathLogout         = "/auth/logout"
	PathChangePassword = "/auth/change-password"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// API is the session side view of the auth endpoints.
type API interface {
	Login(ctx context.Context, creds Credentials) (string, error)
	Refresh(ctx context.Context) (string, error)
	Me(ctx context.Context) (*users.User, error)
	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context, req ChangePasswordRequest) (string, error)
}

type Client struct {
	api *apiclient.Client
}

var _ API = (*Client)(nil)

func New(api *apiclient.Client) *Client {
	return &Client{api: api}
}

type tokenData struct {
	AccessToken string `json:"accessToken"`
}

type meData struct {
	User *users.User `json:"user"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	// The session controller reports sign-in failures itself.
	return c.token(ctx, apiclient.Post(PathLogin, creds).Quiet())
}

// Refresh renews the access token from the backend's refresh credential. Failures are never
// announced globally: a failed proactive renewal must stay invisible.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.token(ctx, apiclient.Post(PathRefresh, nil).Quiet())
}

func (c *Client) Me(ctx context.Context) (*users.User, error) {
	data, err := apiclient.DoJSON[apiclient.Envelope[meData]](ctx, c.api, apiclient.Get(PathMe))
	if err != nil {
		return nil, err
	}
	if data.Data.User == nil {
		return nil, consoleerrors.Wrapf(consoleerrors.ErrProtocol, "%s: missing user", PathMe)
	}
	return data.Data.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.api.Do(ctx, apiclient.Post(PathLogout, nil).Quiet())
	return err
}

// ChangePassword returns the backend's confirmation message.
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) (string, error) {
	resp, err := c.api.Do(ctx, apiclient.Post(PathChangePassword, req).Quiet())
	if err != nil {
		return "", err
	}
	env, err := apiclient.Decode[apiclient.Envelope[any]](resp)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) token(ctx context.Context, req apiclient.Request) (string, error) {
	data, err := apiclient.DoJSON[apiclient.Envelope[tokenData]](ctx, c.api, req)
	if err != nil {
		return "", err
	}
	if data.Data.AccessToken == "" {
		return "", fmt.Errorf("%s: %w: missing access token", req.Path, consoleerrors.ErrProtocol)
	}
	return data.Data.AccessToken, nil
}
