package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/devsage/hackclient/internal/client/models"
	"github.com/devsage/hackclient/internal/client/repositories/metadata"
	"github.com/devsage/hackclient/internal/common"
	"github.com/devsage/hackclient/internal/logging"
)

// Snapshot is an immutable view of the store handed to observers.
type Snapshot struct {
	State         State
	Identity      *models.Identity
	HasCredential bool
}

// VerifyTicket is returned by BeginVerify and identifies that attempt.
type VerifyTicket struct {
	prev State
	gen  uint64
}

// storedCookie is the persisted form of a session cookie.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Store struct {
	repo metadata.Repository
	mode common.AuthMode
	log  logging.Logger

	// persistMu orders storage writes with the state change that caused
	// them. Lock order: persistMu, then mu.
	persistMu sync.Mutex

	mu       sync.RWMutex
	state    State
	identity *models.Identity
	cred     Credential
	gen      uint64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

func NewStore(repo metadata.Repository, mode common.AuthMode, log logging.Logger) *Store {
	if log == nil {
		log = logging.Discard()
	}
	return &Store{
		repo: repo,
		mode: mode,
		log:  log.With("component", "session"),
		subs: make(map[int]func(Snapshot)),
	}
}

// Token returns the bearer token, or "" when there is none.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.Token
}

func (s *Store) Credential() Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.clone()
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns a copy of the current identity, or nil.
func (s *Store) Identity() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.Clone()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		State:         s.state,
		Identity:      s.identity.Clone(),
		HasCredential: s.cred.Present(),
	}
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Restore loads the persisted credential and identity so the last known
// user can be shown while verification runs. The state stays Unknown.
// A half-written snapshot (identity without credential) is discarded.
func (s *Store) Restore(ctx context.Context) error {
	values, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	var cred Credential
	if tok := values[common.StorageKeyAccessToken]; len(tok) > 0 {
		cred.Token = string(tok)
	}
	if raw := values[common.StorageKeySessionCookies]; len(raw) > 0 {
		var stored []storedCookie
		if err := json.Unmarshal(raw, &stored); err != nil {
			s.log.Warn(ctx, "discarding unreadable session cookies", "error", err)
		}
		for _, c := range stored {
			cred.Cookies = append(cred.Cookies, &http.Cookie{Name: c.Name, Value: c.Value})
		}
	}

	var identity *models.Identity
	if raw := values[common.StorageKeyUser]; len(raw) > 0 && cred.Present() {
		var id models.Identity
		if err := json.Unmarshal(raw, &id); err != nil {
			s.log.Warn(ctx, "discarding unreadable stored user", "error", err)
		} else if id.ID != "" {
			identity = &id
		}
	}

	s.mu.Lock()
	if s.state != StateUnknown {
		from := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: restore in state %s", ErrInvalidTransition, from)
	}
	s.cred = cred
	s.identity = identity
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug(ctx, "session restored", "has_credential", cred.Present(), "has_user", identity != nil)
	s.notify(snap)
	return nil
}

// BeginVerify moves to Verifying. The ticket lets an aborted attempt be
// undone with RollbackVerify.
func (s *Store) BeginVerify(ctx context.Context) (VerifyTicket, error) {
	s.mu.Lock()
	from := s.state
	if !canTransition(from, StateVerifying) {
		s.mu.Unlock()
		return VerifyTicket{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, StateVerifying)
	}
	s.state = StateVerifying
	s.gen++
	ticket := VerifyTicket{prev: from, gen: s.gen}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logTransition(ctx, from, StateVerifying, "verify")
	s.notify(snap)
	return ticket, nil
}

// RollbackVerify restores the state held before BeginVerify. It does nothing
// if another transition has happened since.
//
// Unknown cannot be re-entered, so a verify started from Unknown ends
// Anonymous. The restored session is dropped from memory but left in
// storage for the next start to verify.
func (s *Store) RollbackVerify(ctx context.Context, t VerifyTicket) {
	s.mu.Lock()
	if s.state != StateVerifying || s.gen != t.gen {
		s.mu.Unlock()
		return
	}
	to := t.prev
	if to == StateUnknown {
		to = StateAnonymous
		s.identity = nil
		s.cred = Credential{}
	}
	s.state = to
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logTransition(ctx, StateVerifying, to, "verify aborted")
	s.notify(snap)
}

// ResumeRestored finishes a verification by trusting the restored identity
// without re-persisting it. Without one it ends Anonymous.
func (s *Store) ResumeRestored(ctx context.Context) error {
	s.mu.RLock()
	restored := s.identity != nil && s.cred.Present()
	s.mu.RUnlock()
	if !restored {
		return s.Invalidate(ctx, "nothing to resume")
	}

	s.mu.Lock()
	from := s.state
	if from != StateVerifying {
		s.mu.Unlock()
		return fmt.Errorf("%w: resume in state %s", ErrInvalidTransition, from)
	}
	s.state = StateAuthenticated
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logTransition(ctx, from, StateAuthenticated, "kept stored session")
	s.notify(snap)
	return nil
}

// Authenticate commits identity and credential and persists both in one
// write. A storage failure is logged; the in-memory session stays valid.
func (s *Store) Authenticate(ctx context.Context, identity *models.Identity, cred Credential) error {
	if identity == nil || identity.ID == "" {
		return fmt.Errorf("authenticate: missing identity")
	}

	s.persistMu.Lock()
	s.mu.Lock()
	from := s.state
	if !canTransition(from, StateAuthenticated) {
		s.mu.Unlock()
		s.persistMu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, StateAuthenticated)
	}
	s.state = StateAuthenticated
	s.identity = identity.Clone()
	s.cred = cred.clone()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	err := s.persist(ctx, identity, cred)
	s.persistMu.Unlock()
	if err != nil {
		s.log.Warn(ctx, "failed to persist session", "error", err)
	}

	s.logTransition(ctx, from, StateAuthenticated, "authenticated", "user_id", identity.ID)
	s.notify(snap)
	return nil
}

// Invalidate drops the identity and credential, clears persisted copies and
// moves to Anonymous. Calling it while Anonymous only re-clears storage.
func (s *Store) Invalidate(ctx context.Context, reason string) error {
	s.persistMu.Lock()
	s.mu.Lock()
	from := s.state
	if !canTransition(from, StateAnonymous) {
		s.mu.Unlock()
		s.persistMu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, StateAnonymous)
	}
	s.state = StateAnonymous
	s.identity = nil
	s.cred = Credential{}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	err := s.repo.DeleteMany(ctx,
		common.StorageKeyAccessToken,
		common.StorageKeyUser,
		common.StorageKeySessionCookies,
	)
	s.persistMu.Unlock()
	if err != nil {
		s.log.Warn(ctx, "failed to clear persisted session", "error", err)
	}

	s.logTransition(ctx, from, StateAnonymous, reason)
	s.notify(snap)
	return nil
}

func (s *Store) persist(ctx context.Context, identity *models.Identity, cred Credential) error {
	user, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	values := map[string][]byte{common.StorageKeyUser: user}
	var stale []string

	switch s.mode {
	case common.AuthModeCookie:
		stored := make([]storedCookie, 0, len(cred.Cookies))
		for _, c := range cred.Cookies {
			stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
		}
		raw, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("encode cookies: %w", err)
		}
		values[common.StorageKeySessionCookies] = raw
		stale = append(stale, common.StorageKeyAccessToken)
	default:
		if cred.Token == "" {
			// Without a token the next start could not verify the user.
			return s.repo.DeleteMany(ctx, common.StorageKeyAccessToken, common.StorageKeyUser, common.StorageKeySessionCookies)
		}
		values[common.StorageKeyAccessToken] = []byte(cred.Token)
		stale = append(stale, common.StorageKeySessionCookies)
	}

	if err := s.repo.SetMany(ctx, values); err != nil {
		return err
	}
	return s.repo.DeleteMany(ctx, stale...)
}

func (s *Store) logTransition(ctx context.Context, from, to State, reason string, args ...any) {
	args = append([]any{"from", from.String(), "to", to.String(), "reason", reason}, args...)
	s.log.Info(ctx, "session state changed", args...)
}
