package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/devsage/hackclient/internal/client/client"
	"github.com/devsage/hackclient/internal/client/models"
	"github.com/devsage/hackclient/internal/client/session"
	"github.com/devsage/hackclient/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authMessage(t *testing.T, err error) string {
	t.Helper()
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	return ae.Message
}

// ---- against a live backend ----

func TestLogin_WrongPassword(t *testing.T) {
	db := newDB(t)
	h := newHarness(t, startBackend(t, newBackend()), db)
	h.start(t)

	err := h.auth.Login(context.Background(), "a@b.com", []byte("wrong"))

	assert.Equal(t, "Invalid email or password", authMessage(t, err))
	assert.Equal(t, session.StateAnonymous, h.auth.State())
	assert.Nil(t, h.auth.CurrentUser())
	assert.Empty(t, h.stored(t))
}

func TestLogin_PersistsTokenAndUser(t *testing.T) {
	db := newDB(t)
	h := newHarness(t, startBackend(t, newBackend()), db)
	h.start(t)

	require.NoError(t, h.auth.Login(context.Background(), "a@b.com", []byte("right")))

	assert.Equal(t, session.StateAuthenticated, h.auth.State())
	want := &models.Identity{ID: "u1", Email: "a@b.com", Name: "A"}
	if diff := cmp.Diff(want, h.auth.CurrentUser()); diff != "" {
		t.Fatalf("identity mismatch (-want +got):\n%s", diff)
	}

	stored := h.stored(t)
	assert.Equal(t, "tok-u1", string(stored[common.StorageKeyAccessToken]))
	assert.Contains(t, string(stored[common.StorageKeyUser]), `"id":"u1"`)
}

func TestLogin_ValidatesBeforeCallingBackend(t *testing.T) {
	db := newDB(t)
	be := newBackend()
	h := newHarness(t, startBackend(t, be), db)
	h.start(t)

	err := h.auth.Login(context.Background(), "not-an-email", []byte("x"))
	assert.Contains(t, authMessage(t, err), "email")

	err = h.auth.Login(context.Background(), "a@b.com", nil)
	assert.Contains(t, authMessage(t, err), "password")
	assert.Equal(t, session.StateAnonymous, h.auth.State())
}

func TestLogin_UnexpectedResponse(t *testing.T) {
	db := newDB(t)
	h := newHarness(t, startBackend(t, newBackend()), db)
	h.start(t)

	err := h.auth.Login(context.Background(), "html@b.com", []byte("pw"))
	assert.Equal(t, "Unexpected response", authMessage(t, err))
	assert.ErrorIs(t, err, client.ErrDecode)
	assert.Equal(t, session.StateAnonymous, h.auth.State())
}

func TestLogin_NetworkError(t *testing.T) {
	db := newDB(t)
	h := newHarness(t, offlineOrigin(t), db)
	h.start(t)

	err := h.auth.Login(context.Background(), "a@b.com", []byte("right"))
	assert.Equal(t, "Network error", authMessage(t, err))
	assert.Equal(t, session.StateAnonymous, h.auth.State())
}

func TestRegister(t *testing.T) {
	db := newDB(t)
	h := newHarness(t, startBackend(t, newBackend()), db)
	h.start(t)
	ctx := context.Background()

	require.NoError(t, h.auth.Register(ctx, "new@b.com", "Newbie", []byte("pw")))
	assert.Equal(t, session.StateAuthenticated, h.auth.State())
	assert.Equal(t, "Newbie", h.auth.CurrentUser().Name)

	h.auth.Logout(ctx)
	err := h.auth.Register(ctx, "new@b.com", "Again", []byte("pw"))
	assert.Equal(t, "Email is already registered", authMessage(t, err))
	assert.Equal(t, session.StateAnonymous, h.auth.State())
}

func TestRegister_RequiresName(t *testing.T) {
	db := newDB(t)
	h := newHarness(t, startBackend(t, newBackend()), db)
	h.start(t)

	err := h.auth.Register(context.Background(), "x@b.com", "  ", []byte("pw"))
	assert.Contains(t, authMessage(t, err), "name")
}

func TestVerify_RestoresSessionAcrossRestart(t *testing.T) {
	db := newDB(t)
	origin := startBackend(t, newBackend())

	first := newHarness(t, origin, db)
	first.start(t)
	require.NoError(t, first.auth.Login(context.Background(), "a@b.com", []byte("right")))

	second := newHarness(t, origin, db)
	second.start(t)

	assert.Equal(t, session.StateAuthenticated, second.auth.State())
	assert.Equal(t, "u1", second.auth.CurrentUser().ID)
}

func TestVerify_NoStoredTokenSkipsNetwork(t *testing.T) {
	db := newDB(t)
	be := newBackend()
	h := newHarness(t, startBackend(t, be), db)

	h.start(t)

	assert.Equal(t, session.StateAnonymous, h.auth.State())
	assert.Equal(t, int32(0), be.meCalls.Load())
}

func TestVerify_IsIdempotent(t *testing.T) {
	db := newDB(t)
	be := newBackend()
	origin := startBackend(t, be)

	seed := newHarness(t, origin, db)
	seed.start(t)
	require.NoError(t, seed.auth.Login(context.Background(), "a@b.com", []byte("right")))

	h := newHarness(t, origin, db)
	h.start(t)
	first := h.auth.Session()

	require.NoError(t, h.auth.Verify(context.Background()))
	second := h.auth.Session()

	assert.Equal(t, session.StateAuthenticated, first.State)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second verify changed the session (-first +second):\n%s", diff)
	}
	assert.Equal(t, int32(2), be.meCalls.Load())
}

func TestVerify_CancelledAtStartupStillAllowsLogin(t *testing.T) {
	db := newDB(t)
	origin := startBackend(t, newBackend())

	seed := newHarness(t, origin, db)
	seed.start(t)
	require.NoError(t, seed.auth.Login(context.Background(), "a@b.com", []byte("right")))

	h := newHarness(t, origin, db)
	require.NoError(t, h.auth.Restore(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, h.auth.Verify(ctx), client.ErrAborted)
	assert.Equal(t, session.StateAnonymous, h.auth.State())
	assert.Equal(t, "tok-u1", string(h.stored(t)[common.StorageKeyAccessToken]),
		"an aborted check keeps the stored session")

	require.NoError(t, h.auth.Login(context.Background(), "a@b.com", []byte("right")))
	assert.Equal(t, session.StateAuthenticated, h.auth.State())
	assert.Equal(t, "u1", h.auth.CurrentUser().ID)
}

func TestVerify_OfflineFailsClosed(t *testing.T) {
	db := newDB(t)

	seed := newHarness(t, startBackend(t, newBackend()), db)
	seed.start(t)
	require.NoError(t, seed.auth.Login(context.Background(), "a@b.com", []byte("right")))

	h := newHarness(t, offlineOrigin(t), db)
	h.start(t)

	assert.Equal(t, session.StateAnonymous, h.auth.State())
	assert.Nil(t, h.auth.CurrentUser())
	assert.Empty(t, h.stored(t))
}

func TestVerify_OfflineKeepsSessionWhenConfigured(t *testing.T) {
	db := newDB(t)

	seed := newHarness(t, startBackend(t, newBackend()), db)
	seed.start(t)
	require.NoError(t, seed.auth.Login(context.Background(), "a@b.com", []byte("right")))

	h := newHarness(t, offlineOrigin(t), db, func(c *harnessConfig) { c.keep = true })
	h.start(t)

	assert.Equal(t, session.StateAuthenticated, h.auth.State())
	assert.Equal(t, "u1", h.auth.CurrentUser().ID)
	assert.NotEmpty(t, h.stored(t)[common.StorageKeyAccessToken])
}

func TestVerify_RejectedTokenClearsEvenWhenKeeping(t *testing.T) {
	db := newDB(t)
	be := newBackend()
	origin := startBackend(t, be)

	seed := newHarness(t, origin, db)
	seed.start(t)
	require.NoError(t, seed.auth.Login(context.Background(), "a@b.com", []byte("right")))
	be.revoke("tok-u1")

	h := newHarness(t, origin, db, func(c *harnessConfig) { c.keep = true })
	h.start(t)

	assert.Equal(t, session.StateAnonymous, h.auth.State())
	assert.Empty(t, h.stored(t))
}

func TestVerify_ExpiredJWTSkipsNetwork(t *testing.T) {
	db := newDB(t)
	be := newBackend()
	origin := startBackend(t, be)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	seed := newHarness(t, origin, db)
	require.NoError(t, seed.repo.SetMany(context.Background(), map[string][]byte{
		common.StorageKeyAccessToken: []byte(expired),
		common.StorageKeyUser:        []byte(`{"id":"u1","email":"a@b.com","name":"A"}`),
	}))

	h := newHarness(t, origin, db)
	h.start(t)

	assert.Equal(t, session.StateAnonymous, h.auth.State())
	assert.Equal(t, int32(0), be.meCalls.Load())
	assert.Empty(t, h.stored(t))
}

func TestLogin_CancelledNeverCommits(t *testing.T) {
	db := newDB(t)
	be := newBackend()
	be.addAccount("slow@b.com", "pw", models.Identity{ID: "u9", Email: "slow@b.com", Name: "Slow"})
	be.slowEmail = "slow@b.com"
	be.slowStarted = make(chan struct{})
	h := newHarness(t, startBackend(t, be), db)
	h.start(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.auth.Login(ctx, "slow@b.com", []byte("pw")) }()

	<-be.slowStarted
	cancel()
	err := <-done
	assert.ErrorIs(t, err, client.ErrAborted)
	assert.Equal(t, session.StateAnonymous, h.auth.State())

	require.NoError(t, h.auth.Login(context.Background(), "a@b.com", []byte("right")))
	assert.Equal(t, "u1", h.auth.CurrentUser().ID)
	assert.Equal(t, "tok-u1", string(h.stored(t)[common.StorageKeyAccessToken]))
}

func TestOAuth_RoundTripMatchesLogin(t *testing.T) {
	db := newDB(t)
	origin := startBackend(t, newBackend())
	ctx := context.Background()

	viaLogin := newHarness(t, origin, newDB(t))
	viaLogin.start(t)
	require.NoError(t, viaLogin.auth.Login(ctx, "a@b.com", []byte("right")))

	viaOAuth := newHarness(t, origin, db)
	viaOAuth.start(t)
	require.NoError(t, viaOAuth.auth.HandleOAuthToken(ctx, "tok-u1"))
	require.NoError(t, viaOAuth.auth.Verify(ctx))

	if diff := cmp.Diff(viaLogin.auth.CurrentUser(), viaOAuth.auth.CurrentUser()); diff != "" {
		t.Fatalf("identity mismatch (-login +oauth):\n%s", diff)
	}
	assert.Equal(t, "tok-u1", string(viaOAuth.stored(t)[common.StorageKeyAccessToken]))
}

func TestOAuth_RejectedTokenIsNotPersisted(t *testing.T) {
	db := newDB(t)
	h := newHarness(t, startBackend(t, newBackend()), db)
	h.start(t)

	err := h.auth.HandleOAuthToken(context.Background(), "forged")

	assert.Equal(t, "Not signed in", authMessage(t, err))
	assert.Equal(t, session.StateAnonymous, h.auth.State())
	assert.Empty(t, h.auth.CurrentUser())
	assert.Empty(t, h.stored(t))
}

func TestOAuth_EmptyToken(t *testing.T) {
	db := newDB(t)
	h := newHarness(t, startBackend(t, newBackend()), db)
	h.start(t)

	assert.Equal(t, "Missing OAuth token", authMessage(t, h.auth.HandleOAuthToken(context.Background(), " ")))
}

func TestUnauthorizedCallInvalidatesSession(t *testing.T) {
	db := newDB(t)
	be := newBackend()
	h := newHarness(t, startBackend(t, be), db)
	h.start(t)
	ctx := context.Background()
	require.NoError(t, h.auth.Login(ctx, "a@b.com", []byte("right")))

	be.revoke("tok-u1")
	_, err := h.api.GetMyTeam(ctx, "spring")

	assert.True(t, client.IsUnauthorized(err))
	assert.Equal(t, session.StateAnonymous, h.auth.State())
	assert.Empty(t, h.stored(t))
}

func TestLogout(t *testing.T) {
	db := newDB(t)
	be := newBackend()
	h := newHarness(t, startBackend(t, be), db)
	h.start(t)
	ctx := context.Background()
	require.NoError(t, h.auth.Login(ctx, "a@b.com", []byte("right")))

	h.auth.Logout(ctx)

	assert.Equal(t, session.StateAnonymous, h.auth.State())
	assert.Empty(t, h.stored(t))
	assert.Equal(t, int32(1), be.logoutCalls.Load())
}

func TestLogout_OfflineStillClearsLocally(t *testing.T) {
	db := newDB(t)
	seed := newHarness(t, startBackend(t, newBackend()), db)
	seed.start(t)
	require.NoError(t, seed.auth.Login(context.Background(), "a@b.com", []byte("right")))

	h := newHarness(t, offlineOrigin(t), db, func(c *harnessConfig) { c.keep = true })
	h.start(t)
	require.Equal(t, session.StateAuthenticated, h.auth.State())

	h.auth.Logout(context.Background())

	assert.Equal(t, session.StateAnonymous, h.auth.State())
	assert.Empty(t, h.stored(t))
}

func TestLogout_CancelledContextSkipsBackend(t *testing.T) {
	db := newDB(t)
	be := newBackend()
	h := newHarness(t, startBackend(t, be), db)
	h.start(t)
	require.NoError(t, h.auth.Login(context.Background(), "a@b.com", []byte("right")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.auth.Logout(ctx)

	assert.Equal(t, session.StateAnonymous, h.auth.State())
	assert.Empty(t, h.stored(t))
	assert.Equal(t, int32(0), be.logoutCalls.Load())
}

func TestCookieMode_SessionSurvivesRestart(t *testing.T) {
	db := newDB(t)
	origin := startBackend(t, newBackend())
	cookieMode := func(c *harnessConfig) { c.mode = common.AuthModeCookie }
	ctx := context.Background()

	first := newHarness(t, origin, db, cookieMode)
	first.start(t)
	assert.Equal(t, session.StateAnonymous, first.auth.State())

	require.NoError(t, first.auth.Login(ctx, "a@b.com", []byte("right")))
	stored := first.stored(t)
	assert.Empty(t, stored[common.StorageKeyAccessToken])
	assert.Contains(t, string(stored[common.StorageKeySessionCookies]), `"sid"`)

	second := newHarness(t, origin, db, cookieMode)
	second.start(t)
	assert.Equal(t, session.StateAuthenticated, second.auth.State())
	assert.Equal(t, "u1", second.auth.CurrentUser().ID)

	second.auth.Logout(ctx)
	assert.Empty(t, second.api.SessionCookies())
	assert.Empty(t, second.stored(t))
}

// ---- against a scripted API ----

type fakeAuthAPI struct {
	mu sync.Mutex

	me       func(ctx context.Context) (*models.Identity, error)
	login    func(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error)
	register func(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error)

	logoutCalls int
	hook        client.UnauthorizedHandler
}

var _ client.AuthAPI = (*fakeAuthAPI)(nil)

func (f *fakeAuthAPI) Me(ctx context.Context) (*models.Identity, error) { return f.me(ctx) }

func (f *fakeAuthAPI) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	return f.login(ctx, req)
}

func (f *fakeAuthAPI) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	return f.register(ctx, req)
}

func (f *fakeAuthAPI) Logout(context.Context) error {
	f.mu.Lock()
	f.logoutCalls++
	f.mu.Unlock()
	return errors.New("boom")
}

func (f *fakeAuthAPI) OAuthStartURL(provider, origin string) string {
	return "https://api.example.org/auth/" + provider + "?origin=" + origin
}

func (f *fakeAuthAPI) OnUnauthorized(fn client.UnauthorizedHandler) { f.hook = fn }
func (f *fakeAuthAPI) SessionCookies() []*http.Cookie               { return nil }
func (f *fakeAuthAPI) RestoreCookies([]*http.Cookie)                {}
func (f *fakeAuthAPI) ClearCookies()                                {}

func newFakeHarness(t *testing.T, api *fakeAuthAPI) (AuthService, *session.Store) {
	t.Helper()
	h := newHarness(t, "https://unused.example.org", newDB(t))
	auth := NewAuthService(api, h.store, AuthOptions{Mode: common.AuthModeToken})
	return auth, h.store
}

func TestVerify_AbortedRollsBack(t *testing.T) {
	api := &fakeAuthAPI{
		me: func(context.Context) (*models.Identity, error) {
			return nil, &client.Error{Kind: client.KindAborted}
		},
	}
	auth, store := newFakeHarness(t, api)
	ctx := context.Background()

	require.NoError(t, store.Invalidate(ctx, "startup"))
	require.NoError(t, store.Authenticate(ctx, &models.Identity{ID: "u1"}, session.Credential{Token: "tok"}))

	err := auth.Verify(ctx)

	assert.ErrorIs(t, err, client.ErrAborted)
	assert.Equal(t, session.StateAuthenticated, auth.State())
	assert.Equal(t, "u1", auth.CurrentUser().ID)
}

func TestLogin_ResponseAfterCancelIsDiscarded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	api := &fakeAuthAPI{
		me: func(context.Context) (*models.Identity, error) { return nil, &client.Error{Kind: client.KindAPI, Code: "UNAUTHORIZED"} },
		login: func(context.Context, models.LoginRequest) (*models.AuthResult, error) {
			// The caller goes away while the response is in hand.
			cancel()
			return &models.AuthResult{Identity: models.Identity{ID: "u1"}, AccessToken: "tok"}, nil
		},
	}
	auth, store := newFakeHarness(t, api)
	require.NoError(t, store.Invalidate(context.Background(), "startup"))

	err := auth.Login(ctx, "a@b.com", []byte("pw"))

	assert.ErrorIs(t, err, client.ErrAborted)
	assert.Equal(t, session.StateAnonymous, auth.State())
	assert.Empty(t, store.Token())
}

func TestLogout_IgnoresBackendFailure(t *testing.T) {
	api := &fakeAuthAPI{}
	auth, store := newFakeHarness(t, api)
	ctx := context.Background()
	require.NoError(t, store.Invalidate(ctx, "startup"))
	require.NoError(t, store.Authenticate(ctx, &models.Identity{ID: "u1"}, session.Credential{Token: "tok"}))

	auth.Logout(ctx)

	assert.Equal(t, 1, api.logoutCalls)
	assert.Equal(t, session.StateAnonymous, auth.State())
}

func TestUnauthorizedHook_IgnoredUnlessAuthenticated(t *testing.T) {
	api := &fakeAuthAPI{}
	_, store := newFakeHarness(t, api)
	ctx := context.Background()
	require.NotNil(t, api.hook)

	_, err := store.BeginVerify(ctx)
	require.NoError(t, err)
	api.hook(ctx, &client.Error{Kind: client.KindAPI, Code: "INVALID_TOKEN"})
	assert.Equal(t, session.StateVerifying, store.State())

	require.NoError(t, store.Authenticate(ctx, &models.Identity{ID: "u1"}, session.Credential{Token: "tok"}))
	api.hook(ctx, &client.Error{Kind: client.KindAPI, Code: "INVALID_TOKEN"})
	assert.Equal(t, session.StateAnonymous, store.State())
}

func TestSubscribeSeesLoginTransitions(t *testing.T) {
	api := &fakeAuthAPI{
		login: func(context.Context, models.LoginRequest) (*models.AuthResult, error) {
			return &models.AuthResult{Identity: models.Identity{ID: "u1", Name: "A"}, AccessToken: "tok"}, nil
		},
	}
	auth, store := newFakeHarness(t, api)
	require.NoError(t, store.Invalidate(context.Background(), "startup"))

	var (
		mu    sync.Mutex
		names []string
	)
	unsubscribe := auth.Subscribe(func(s session.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		names = append(names, s.State.String()+":"+s.Identity.DisplayName())
	})
	defer unsubscribe()

	require.NoError(t, auth.Login(context.Background(), "a@b.com", []byte("pw")))
	auth.Logout(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"authenticated:A", "anonymous:"}, names)
}

func TestOAuthStartURL_Delegates(t *testing.T) {
	auth, _ := newFakeHarness(t, &fakeAuthAPI{})
	assert.Equal(t, "https://api.example.org/auth/github?origin=x", auth.OAuthStartURL("github", "x"))
}

// ---- pure helpers ----

func TestUserMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"network", &client.Error{Kind: client.KindNetwork}, "Network error"},
		{"decode", &client.Error{Kind: client.KindDecode}, "Unexpected response"},
		{"backend message", &client.Error{Kind: client.KindAPI, Code: "X", Message: "Team is full"}, "Team is full"},
		{"code fallback", &client.Error{Kind: client.KindAPI, Code: "INVALID_CREDENTIALS"}, "Invalid email or password"},
		{"email taken", &client.Error{Kind: client.KindAPI, Code: "EMAIL_TAKEN"}, "Email is already registered"},
		{"unknown code", &client.Error{Kind: client.KindAPI, Code: "WAT"}, "Login failed"},
		{"foreign error", errors.New("x"), "Login failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, userMessage(tc.err, "Login failed"))
		})
	}
}

func TestParseOAuthCallback(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr string
	}{
		{in: "https://hack.devsage.org/auth/callback?token=tok123", want: "tok123"},
		{in: "?token=tok123", want: "tok123"},
		{in: "token=tok123&state=x", want: "tok123"},
		{in: "tok123", want: "tok123"},
		{in: "https://hack.devsage.org/auth/callback?oauth_error=access_denied", wantErr: "OAuth sign-in failed: access_denied"},
		{in: "https://hack.devsage.org/auth/callback", wantErr: "Missing OAuth token"},
		{in: "   ", wantErr: "Missing OAuth token"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseOAuthCallback(tc.in)
			if tc.wantErr != "" {
				assert.Equal(t, tc.wantErr, authMessage(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
