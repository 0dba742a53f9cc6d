package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devsage/hackclient/internal/client/client"
	"github.com/devsage/hackclient/internal/client/models"
	"github.com/devsage/hackclient/internal/client/repositories/metadata"
	"github.com/devsage/hackclient/internal/client/session"
	"github.com/devsage/hackclient/internal/common"
	"github.com/devsage/hackclient/internal/logging"
	"github.com/stretchr/testify/require"
)

// ---- fake backend ----

type account struct {
	password string
	identity models.Identity
}

// backend is an in-memory stand-in for the auth endpoints.
type backend struct {
	mu       sync.Mutex
	accounts map[string]account // by email
	tokens   map[string]string  // token -> email

	// slowEmail blocks its login until the request is cancelled.
	slowEmail   string
	slowStarted chan struct{}

	meCalls     atomic.Int32
	logoutCalls atomic.Int32
}

func newBackend() *backend {
	b := &backend{
		accounts: map[string]account{},
		tokens:   map[string]string{},
	}
	b.addAccount("a@b.com", "right", models.Identity{ID: "u1", Email: "a@b.com", Name: "A"})
	return b
}

func (b *backend) addAccount(email, password string, id models.Identity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[email] = account{password: password, identity: id}
	b.tokens["tok-"+id.ID] = email
}

func (b *backend) revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", b.login)
	mux.HandleFunc("POST /auth/register", b.register)
	mux.HandleFunc("GET /auth/me", b.me)
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.logoutCalls.Add(1)
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "", Path: "/", MaxAge: -1})
		writeEnvelope(w, 200, `{"ok":true}`)
	})
	mux.HandleFunc("GET /api/v1/hackathons/{slug}/teams/me", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := b.caller(r); !ok {
			writeEnvelope(w, 401, `{"ok":false,"error":{"code":"INVALID_TOKEN","message":"Token is no longer valid"}}`)
			return
		}
		writeEnvelope(w, 200, `{"ok":true,"data":{"team":{"id":"t1","name":"Rockets"},"members":[],"role":"owner"}}`)
	})
	return mux
}

func (b *backend) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.Email == "html@b.com" {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html><body>502 Bad Gateway</body></html>")
		return
	}
	if req.Email == b.slowEmail && b.slowStarted != nil {
		close(b.slowStarted)
		<-r.Context().Done()
		return
	}

	b.mu.Lock()
	acc, ok := b.accounts[req.Email]
	b.mu.Unlock()
	if !ok || acc.password != req.Password {
		writeEnvelope(w, 401, `{"ok":false,"error":{"code":"INVALID_CREDENTIALS","message":"Invalid email or password"}}`)
		return
	}
	b.issue(w, acc.identity)
}

func (b *backend) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	_, taken := b.accounts[req.Email]
	b.mu.Unlock()
	if taken {
		writeEnvelope(w, 409, `{"ok":false,"error":{"code":"EMAIL_TAKEN","message":""}}`)
		return
	}

	id := models.Identity{ID: "u-" + strings.Split(req.Email, "@")[0], Email: req.Email, Name: req.Name}
	b.addAccount(req.Email, req.Password, id)
	b.issue(w, id)
}

func (b *backend) issue(w http.ResponseWriter, id models.Identity) {
	token := "tok-" + id.ID
	http.SetCookie(w, &http.Cookie{Name: "sid", Value: token, Path: "/", HttpOnly: true})
	data, _ := json.Marshal(models.AuthResult{Identity: id, AccessToken: token})
	writeEnvelope(w, 200, `{"ok":true,"data":`+string(data)+`}`)
}

func (b *backend) me(w http.ResponseWriter, r *http.Request) {
	b.meCalls.Add(1)
	id, ok := b.caller(r)
	if !ok {
		writeEnvelope(w, 401, `{"ok":false,"error":{"code":"UNAUTHORIZED","message":"Not signed in"}}`)
		return
	}
	data, _ := json.Marshal(models.MeResult{User: &id})
	writeEnvelope(w, 200, `{"ok":true,"data":`+string(data)+`}`)
}

func (b *backend) caller(r *http.Request) (models.Identity, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		if ck, err := r.Cookie("sid"); err == nil {
			token = ck.Value
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	email, ok := b.tokens[token]
	if !ok {
		return models.Identity{}, false
	}
	return b.accounts[email].identity, true
}

func writeEnvelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// ---- harness ----

// harness is one client process: API client, session store and controller
// over a database that may outlive it.
type harness struct {
	api   *client.HTTPClient
	store *session.Store
	repo  *metadata.SQLiteRepository
	auth  AuthService
}

type harnessConfig struct {
	mode common.AuthMode
	keep bool
	now  func() time.Time
}

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func startBackend(t *testing.T, b *backend) string {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

// offlineOrigin returns an origin nothing listens on.
func offlineOrigin(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	origin := srv.URL
	srv.Close()
	return origin
}

func newHarness(t *testing.T, origin string, db *sql.DB, opts ...func(*harnessConfig)) *harness {
	t.Helper()
	cfg := harnessConfig{mode: common.AuthModeToken}
	for _, o := range opts {
		o(&cfg)
	}

	repo := metadata.NewSQLiteRepository(db)
	store := session.NewStore(repo, cfg.mode, logging.Discard())
	api, err := client.New(client.Config{
		Origin:         origin,
		Mode:           cfg.mode,
		Tokens:         store,
		RetryAttempts:  1,
		RetryBaseDelay: time.Millisecond,
	})
	require.NoError(t, err)

	auth := NewAuthService(api, store, AuthOptions{
		Mode:                      cfg.mode,
		KeepSessionOnNetworkError: cfg.keep,
		Now:                       cfg.now,
	})
	return &harness{api: api, store: store, repo: repo, auth: auth}
}

// start mimics process startup: restore, then verify.
func (h *harness) start(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.auth.Restore(ctx))
	require.NoError(t, h.auth.Verify(ctx))
}

func (h *harness) stored(t *testing.T) map[string][]byte {
	t.Helper()
	all, err := h.repo.List(context.Background())
	require.NoError(t, err)
	return all
}
