package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/devsage/hackclient/internal/common"
	"github.com/devsage/hackclient/internal/logging"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout        = 15 * time.Second
	defaultRetryBaseDelay = 200 * time.Millisecond
	maxResponseBytes      = 4 << 20
)

// TokenSource yields the bearer token to attach, or "" for none.
type TokenSource interface {
	Token() string
}

// UnauthorizedHandler is called when a call made with the stored credential
// is rejected as unauthorized.
type UnauthorizedHandler func(ctx context.Context, err *Error)

type Config struct {
	// Origin is the backend base URL, e.g. https://api.devsage.org.
	Origin string
	Mode   common.AuthMode
	// Tokens is consulted on every request in token mode.
	Tokens TokenSource

	// HTTPClient is optional; in cookie mode a cookie jar is attached to a
	// copy of it.
	HTTPClient     *http.Client
	Timeout        time.Duration
	RetryAttempts  uint64
	RetryBaseDelay time.Duration
	Logger         logging.Logger
}

type HTTPClient struct {
	origin    string
	originURL *url.URL
	mode      common.AuthMode
	tokens    TokenSource
	http      *http.Client
	jar       http.CookieJar
	retries   uint64
	retryBase time.Duration
	log       logging.Logger

	mu             sync.RWMutex
	onUnauthorized UnauthorizedHandler
}

type tokenOverrideKey struct{}

// WithToken makes calls under ctx authenticate with token instead of the
// TokenSource. Used to check a token before it is stored.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenOverrideKey{}, token)
}

func New(cfg Config) (*HTTPClient, error) {
	origin := strings.TrimRight(strings.TrimSpace(cfg.Origin), "/")
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api origin %q", cfg.Origin)
	}

	mode := cfg.Mode
	if mode == "" {
		mode = common.AuthModeToken
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	var jar http.CookieJar
	if mode == common.AuthModeCookie {
		jar = hc.Jar
		if jar == nil {
			jar, err = cookiejar.New(nil)
			if err != nil {
				return nil, fmt.Errorf("cookie jar: %w", err)
			}
			withJar := *hc
			withJar.Jar = jar
			hc = &withJar
		}
	}

	base := cfg.RetryBaseDelay
	if base <= 0 {
		base = defaultRetryBaseDelay
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	return &HTTPClient{
		origin:    origin,
		originURL: u,
		mode:      mode,
		tokens:    cfg.Tokens,
		http:      hc,
		jar:       jar,
		retries:   cfg.RetryAttempts,
		retryBase: base,
		log:       log.With("component", "api"),
	}, nil
}

// OnUnauthorized registers the session invalidation hook.
func (c *HTTPClient) OnUnauthorized(fn UnauthorizedHandler) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// SessionCookies returns the cookies currently held for the origin. Always
// empty in token mode.
func (c *HTTPClient) SessionCookies() []*http.Cookie {
	if c.jar == nil {
		return nil
	}
	return c.jar.Cookies(c.originURL)
}

// RestoreCookies loads previously persisted session cookies.
func (c *HTTPClient) RestoreCookies(cookies []*http.Cookie) {
	if c.jar == nil || len(cookies) == 0 {
		return
	}
	c.jar.SetCookies(c.originURL, cookies)
}

// ClearCookies expires every cookie held for the origin.
func (c *HTTPClient) ClearCookies() {
	if c.jar == nil {
		return
	}
	current := c.jar.Cookies(c.originURL)
	expired := make([]*http.Cookie, 0, len(current))
	for _, ck := range current {
		expired = append(expired, &http.Cookie{Name: ck.Name, Value: "", Path: "/", MaxAge: -1})
	}
	c.jar.SetCookies(c.originURL, expired)
}

// Request issues one call and decodes the envelope. It always returns an
// envelope: on failure a synthesized one with ok=false whose error code is
// the backend code or the failure kind. GET requests are retried on network
// failures; other methods are sent once.
func Request[T any](ctx context.Context, c *HTTPClient, method, path string, body any) (*Envelope[T], error) {
	return request[T](ctx, c, method, path, body, true)
}

func request[T any](ctx context.Context, c *HTTPClient, method, path string, body any, requireData bool) (*Envelope[T], error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e := &Error{Kind: KindNetwork, Code: string(KindNetwork), Message: "encode request body", Err: err}
			return failedEnvelope[T](e), e
		}
		payload = b
	}

	var res response
	attempt := func(ctx context.Context) error {
		r, err := c.send(ctx, method, path, payload)
		if err != nil {
			return err
		}
		res = r
		return nil
	}

	var err error
	if method == http.MethodGet {
		err = c.withRetry(ctx, method, path, attempt)
	} else {
		err = attempt(ctx)
	}
	if err != nil {
		if !errors.Is(err, ErrAborted) {
			c.log.Warn(ctx, "request failed", "method", method, "path", path, "error", err)
		}
		return failedEnvelope[T](err), err
	}

	env, err := decodeEnvelope[T](res.body, res.status, requireData)
	if err != nil {
		c.log.Debug(ctx, "request rejected", "method", method, "path", path, "status", res.status, "error", err)
		if res.authenticated && IsUnauthorized(err) {
			c.notifyUnauthorized(ctx, err)
		}
		return failedEnvelope[T](err), err
	}
	env.Status = res.status
	return env, nil
}

type response struct {
	body          []byte
	status        int
	authenticated bool
}

func (c *HTTPClient) send(ctx context.Context, method, path string, payload []byte) (response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.origin+path, reader)
	if err != nil {
		return response{}, &Error{Kind: KindNetwork, Code: string(KindNetwork), Message: "build request", Err: err}
	}
	req.Header.Set(common.HeaderContentType, common.ContentTypeJSON)
	req.Header.Set(common.HeaderAccept, common.ContentTypeJSON)
	req.Header.Set(common.HeaderRequestID, uuid.NewString())

	authenticated := false
	if token, ok := ctx.Value(tokenOverrideKey{}).(string); ok {
		req.Header.Set(common.HeaderAuthorization, "Bearer "+token)
	} else if c.mode == common.AuthModeToken && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set(common.HeaderAuthorization, "Bearer "+token)
			authenticated = true
		}
	} else if c.jar != nil {
		authenticated = len(c.jar.Cookies(c.originURL)) > 0
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return response{}, transportError(ctx, err)
	}

	return response{body: body, status: resp.StatusCode, authenticated: authenticated}, nil
}

func (c *HTTPClient) withRetry(ctx context.Context, method, path string, fn func(context.Context) error) error {
	b := retry.WithMaxRetries(c.retries, retry.NewExponential(c.retryBase))

	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if errors.Is(err, ErrNetwork) {
			if uint64(attempt) <= c.retries {
				c.log.Debug(ctx, "retrying request", "method", method, "path", path, "attempt", attempt, "error", err)
			}
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return err
	}
	// retry.Do reports a context that ended between attempts as ctx.Err().
	return transportError(ctx, err)
}

func (c *HTTPClient) notifyUnauthorized(ctx context.Context, err error) {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn == nil {
		return
	}
	if e, ok := AsError(err); ok {
		fn(ctx, e)
	}
}

// transportError separates caller cancellation from real network failures.
// A deadline is a timeout and therefore a network error.
func transportError(ctx context.Context, err error) *Error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return &Error{Kind: KindAborted, Code: string(KindAborted), Err: err}
	}
	return &Error{Kind: KindNetwork, Code: string(KindNetwork), Message: "request failed", Err: err}
}
