// Package services contains application services for the hackathon client.
// This file defines the auth lifecycle: login, register, logout, startup
// verification, OAuth token hand-off and session invalidation. It is the only
// code that mutates the session store.
package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/devsage/hackclient/internal/client/client"
	"github.com/devsage/hackclient/internal/client/models"
	"github.com/devsage/hackclient/internal/client/session"
	"github.com/devsage/hackclient/internal/common"
	"github.com/devsage/hackclient/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login/Register: authenticate against the backend and commit the session;
//     on failure return an *AuthError and leave the store unchanged.
//   - Logout: best-effort backend call, then always clear the local session.
//   - Restore/Verify: load the persisted session and re-check it at startup.
//   - HandleOAuthToken: verify a redirect token before committing it.
//
// A cancelled ctx yields client.ErrAborted and never mutates the store.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte) error
	Register(ctx context.Context, email, name string, password []byte) error
	Logout(ctx context.Context)
	Restore(ctx context.Context) error
	Verify(ctx context.Context) error
	HandleOAuthToken(ctx context.Context, token string) error
	OAuthStartURL(provider, origin string) string
	CurrentUser() *models.Identity
	State() session.State
	Session() session.Snapshot
	Subscribe(fn func(session.Snapshot)) (unsubscribe func())
}

// AuthError carries a message fit to show the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

const (
	msgNetwork            = "Network error"
	msgUnexpected         = "Unexpected response"
	msgLoginFailed        = "Login failed"
	msgRegistrationFailed = "Registration failed"
	msgOAuthFailed        = "OAuth sign-in failed"
)

// Fallback messages for backend codes that arrive without one.
var codeMessages = map[string]string{
	"INVALID_CREDENTIALS": "Invalid email or password",
	"EMAIL_TAKEN":         "Email is already registered",
}

// userMessage turns a failed call into the text shown to the user.
func userMessage(err error, fallback string) string {
	e, ok := client.AsError(err)
	if !ok {
		return fallback
	}
	switch e.Kind {
	case client.KindNetwork:
		return msgNetwork
	case client.KindDecode:
		return msgUnexpected
	case client.KindAPI:
		if e.Message != "" {
			return e.Message
		}
		if msg, ok := codeMessages[e.Code]; ok {
			return msg
		}
	}
	return fallback
}

type AuthOptions struct {
	Mode common.AuthMode
	// KeepSessionOnNetworkError keeps the restored user when the startup
	// check cannot reach the backend. By default any failure signs out.
	KeepSessionOnNetworkError bool
	Logger                    logging.Logger
	Now                       func() time.Time
}

// authService is the concrete AuthService backed by the API client and the
// session store.
type authService struct {
	api   client.AuthAPI
	store *session.Store
	mode  common.AuthMode
	keep  bool
	log   logging.Logger
	now   func() time.Time
}

// NewAuthService wires the controller and registers it as the client's
// unauthorized hook.
func NewAuthService(api client.AuthAPI, store *session.Store, opts AuthOptions) AuthService {
	a := &authService{
		api:   api,
		store: store,
		mode:  opts.Mode,
		keep:  opts.KeepSessionOnNetworkError,
		log:   opts.Logger,
		now:   opts.Now,
	}
	if a.mode == "" {
		a.mode = common.AuthModeToken
	}
	if a.log == nil {
		a.log = logging.Discard()
	}
	a.log = a.log.With("component", "auth")
	if a.now == nil {
		a.now = time.Now
	}
	api.OnUnauthorized(a.handleUnauthorized)
	return a
}

func (a *authService) CurrentUser() *models.Identity { return a.store.Identity() }

func (a *authService) State() session.State { return a.store.State() }

func (a *authService) Session() session.Snapshot { return a.store.Snapshot() }

func (a *authService) Subscribe(fn func(session.Snapshot)) func() { return a.store.Subscribe(fn) }

func (a *authService) OAuthStartURL(provider, origin string) string {
	return a.api.OAuthStartURL(provider, origin)
}

func (a *authService) Login(ctx context.Context, email string, password []byte) error {
	req := models.LoginRequest{Email: strings.TrimSpace(email), Password: string(password)}
	if err := req.Validate(); err != nil {
		return &AuthError{Message: err.Error(), Err: err}
	}
	res, err := a.api.Login(ctx, req)
	return a.commit(ctx, res, err, msgLoginFailed)
}

func (a *authService) Register(ctx context.Context, email, name string, password []byte) error {
	req := models.RegisterRequest{
		Email:    strings.TrimSpace(email),
		Name:     strings.TrimSpace(name),
		Password: string(password),
	}
	if err := req.Validate(); err != nil {
		return &AuthError{Message: err.Error(), Err: err}
	}
	res, err := a.api.Register(ctx, req)
	return a.commit(ctx, res, err, msgRegistrationFailed)
}

// commit finishes a login or registration call.
func (a *authService) commit(ctx context.Context, res *models.AuthResult, err error, fallback string) error {
	if aborted(ctx, err) {
		return client.ErrAborted
	}
	if err != nil {
		a.log.Info(ctx, "authentication rejected", "error", err)
		return &AuthError{Message: userMessage(err, fallback), Err: err}
	}

	identity := res.Identity
	if err := a.store.Authenticate(context.WithoutCancel(ctx), &identity, a.credential(res.AccessToken)); err != nil {
		return &AuthError{Message: fallback, Err: err}
	}
	return nil
}

// Logout never fails: the backend call is best effort and the local session
// is cleared even when ctx is already cancelled.
func (a *authService) Logout(ctx context.Context) {
	if ctx.Err() == nil {
		if err := a.api.Logout(ctx); err != nil && !errors.Is(err, client.ErrAborted) {
			a.log.Debug(ctx, "logout call failed", "error", err)
		}
	}
	a.api.ClearCookies()
	_ = a.store.Invalidate(context.WithoutCancel(ctx), "logout")
}

// Restore loads the persisted session and, in cookie mode, hands the saved
// cookies back to the client.
func (a *authService) Restore(ctx context.Context) error {
	if err := a.store.Restore(ctx); err != nil {
		return err
	}
	if a.mode == common.AuthModeCookie {
		a.api.RestoreCookies(a.store.Credential().Cookies)
	}
	return nil
}

// Verify re-checks the stored credential. The outcome is observable through
// the store; the only error returned is client.ErrAborted (or a store error
// for a verify started from an impossible state).
func (a *authService) Verify(ctx context.Context) error {
	persist := context.WithoutCancel(ctx)
	cred := a.store.Credential()

	if a.mode == common.AuthModeToken && cred.Token == "" {
		return a.store.Invalidate(persist, "no stored credential")
	}
	if cred.Expired(a.now()) {
		a.api.ClearCookies()
		return a.store.Invalidate(persist, "stored credential expired")
	}

	ticket, err := a.store.BeginVerify(ctx)
	if err != nil {
		return err
	}

	identity, err := a.api.Me(ctx)
	if aborted(ctx, err) {
		a.store.RollbackVerify(persist, ticket)
		return client.ErrAborted
	}
	if err != nil {
		if a.keep && errors.Is(err, client.ErrNetwork) {
			a.log.Warn(ctx, "backend unreachable, keeping stored session", "error", err)
			return a.store.ResumeRestored(persist)
		}
		a.log.Info(ctx, "stored session rejected", "error", err)
		a.api.ClearCookies()
		return a.store.Invalidate(persist, "verification failed")
	}

	if a.mode == common.AuthModeCookie {
		cred.Cookies = a.api.SessionCookies()
	}
	return a.store.Authenticate(persist, identity, cred)
}

// HandleOAuthToken checks a token delivered by the OAuth redirect against
// /auth/me and commits it only if the backend accepts it.
func (a *authService) HandleOAuthToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return &AuthError{Message: "Missing OAuth token"}
	}
	if (session.Credential{Token: token}).Expired(a.now()) {
		return &AuthError{Message: "OAuth token has expired"}
	}

	identity, err := a.api.Me(client.WithToken(ctx, token))
	if aborted(ctx, err) {
		return client.ErrAborted
	}
	if err != nil {
		a.log.Info(ctx, "oauth token rejected", "error", err)
		return &AuthError{Message: userMessage(err, msgOAuthFailed), Err: err}
	}

	if err := a.store.Authenticate(context.WithoutCancel(ctx), identity, a.credential(token)); err != nil {
		return &AuthError{Message: msgOAuthFailed, Err: err}
	}
	return nil
}

// handleUnauthorized signs out when a call made with the stored credential
// is rejected. Verification handles its own failures.
func (a *authService) handleUnauthorized(ctx context.Context, e *client.Error) {
	if a.store.State() != session.StateAuthenticated {
		return
	}
	a.api.ClearCookies()
	_ = a.store.Invalidate(context.WithoutCancel(ctx), "credential rejected: "+e.Code)
}

func (a *authService) credential(token string) session.Credential {
	cred := session.Credential{Token: token}
	if a.mode == common.AuthModeCookie {
		cred.Cookies = a.api.SessionCookies()
	}
	return cred
}

func aborted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, client.ErrAborted)
}

// ParseOAuthCallback extracts the token from an OAuth redirect. It accepts
// the full callback URL, its query string, or a bare token.
func ParseOAuthCallback(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &AuthError{Message: "Missing OAuth token"}
	}

	query := ""
	switch {
	case strings.Contains(raw, "://"):
		u, err := url.Parse(raw)
		if err != nil {
			return "", &AuthError{Message: "Invalid callback URL", Err: err}
		}
		query = u.RawQuery
	case strings.HasPrefix(raw, "?"):
		query = raw[1:]
	case strings.Contains(raw, "token="), strings.Contains(raw, "oauth_error="):
		query = raw
	default:
		return raw, nil
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return "", &AuthError{Message: "Invalid callback URL", Err: err}
	}
	if oauthErr := values.Get("oauth_error"); oauthErr != "" {
		return "", &AuthError{Message: "OAuth sign-in failed: " + oauthErr}
	}
	token := values.Get("token")
	if token == "" {
		return "", &AuthError{Message: "Missing OAuth token"}
	}
	return token, nil
}
