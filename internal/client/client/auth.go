package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/devsage/hackclient/internal/client/models"
)

// Me checks the current credential and returns the identity it belongs to.
func (c *HTTPClient) Me(ctx context.Context) (*models.Identity, error) {
	env, err := Request[models.MeResult](ctx, c, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}
	if env.Data.User == nil || env.Data.User.ID == "" {
		return nil, &Error{Kind: KindDecode, Code: string(KindDecode), Message: `missing "user"`, Status: env.Status}
	}
	return env.Data.User, nil
}

func (c *HTTPClient) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	return c.authenticate(ctx, "/auth/login", req)
}

func (c *HTTPClient) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	return c.authenticate(ctx, "/auth/register", req)
}

func (c *HTTPClient) authenticate(ctx context.Context, path string, body any) (*models.AuthResult, error) {
	env, err := Request[models.AuthResult](ctx, c, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	if env.Data.ID == "" {
		return nil, &Error{Kind: KindDecode, Code: string(KindDecode), Message: `missing user "id"`, Status: env.Status}
	}
	return &env.Data, nil
}

// Logout asks the backend to end the session. The response carries no data.
func (c *HTTPClient) Logout(ctx context.Context) error {
	_, err := request[json.RawMessage](ctx, c, http.MethodPost, "/auth/logout", nil, false)
	return err
}

// OAuthStartURL builds the browser URL that starts a provider sign-in. The
// backend redirects back to origin with ?token= or ?oauth_error=.
func (c *HTTPClient) OAuthStartURL(provider, origin string) string {
	q := url.Values{}
	q.Set("origin", origin)
	return c.origin + "/auth/" + url.PathEscape(provider) + "?" + q.Encode()
}
