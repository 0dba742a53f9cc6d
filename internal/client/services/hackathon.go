package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/devsage/hackclient/internal/client/client"
	"github.com/devsage/hackclient/internal/client/models"
	"github.com/devsage/hackclient/internal/client/siteconfig"
	"github.com/devsage/hackclient/internal/logging"
	"golang.org/x/sync/singleflight"
)

// DefaultTeamPageSize is the page size used when listing teams.
const DefaultTeamPageSize = 50

var ErrNoTeam = errors.New("you are not on a team")

// HackathonService exposes the event dashboard for one hackathon slug.
type HackathonService interface {
	// SiteConfig returns the event config, fetched once and cached. It never
	// fails: on error or timeout the bundled default is returned.
	SiteConfig(ctx context.Context) siteconfig.View
	Refresh()

	Teams(ctx context.Context, limit, offset int) ([]models.Team, error)
	Team(ctx context.Context, teamID string) (*models.Team, []models.TeamMember, error)
	MyTeam(ctx context.Context) (*models.MyTeam, error)
	CreateTeam(ctx context.Context, name, trackID string) (*models.Team, error)
	RenameTeam(ctx context.Context, teamID, name string) (*models.Team, error)
	JoinTeam(ctx context.Context, inviteCode string) (*models.JoinResult, error)
	LeaveTeam(ctx context.Context, userID string) error

	Announcements(ctx context.Context) ([]models.Announcement, error)

	Submissions(ctx context.Context, teamID string) ([]models.Submission, error)
	Submission(ctx context.Context, submissionID string) (*models.Submission, error)
	CurrentSubmission(ctx context.Context) (*models.Submission, error)
	Submit(ctx context.Context, in models.SubmissionInput) (*models.Submission, error)
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)

	Rounds(ctx context.Context) ([]models.Round, error)
}

type HackathonOptions struct {
	Slug      string
	APIOrigin string
	// FetchTimeout bounds the live config fetch before falling back.
	FetchTimeout time.Duration
	Default      siteconfig.SiteConfig
	Logger       logging.Logger
}

type hackathonService struct {
	api     client.HackathonAPI
	slug    string
	origin  string
	timeout time.Duration
	base    siteconfig.SiteConfig
	log     logging.Logger

	group  singleflight.Group
	mu     sync.Mutex
	cached *siteconfig.View
}

func NewHackathonService(api client.HackathonAPI, opts HackathonOptions) HackathonService {
	h := &hackathonService{
		api:     api,
		slug:    opts.Slug,
		origin:  opts.APIOrigin,
		timeout: opts.FetchTimeout,
		base:    opts.Default,
		log:     opts.Logger,
	}
	if h.base.Slug == "" {
		h.base = siteconfig.Default()
	}
	if h.slug == "" {
		h.slug = h.base.Slug
	}
	if h.timeout <= 0 {
		h.timeout = 5 * time.Second
	}
	if h.log == nil {
		h.log = logging.Discard()
	}
	h.log = h.log.With("component", "hackathon", "slug", h.slug)
	return h
}

func (h *hackathonService) SiteConfig(ctx context.Context) siteconfig.View {
	h.mu.Lock()
	if h.cached != nil {
		v := *h.cached
		h.mu.Unlock()
		return v
	}
	h.mu.Unlock()

	ch := h.group.DoChan("site-config", func() (any, error) {
		// Detached from any single caller so one cancelled caller does not
		// fail the shared fetch.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
		defer cancel()
		return h.fetch(fetchCtx), nil
	})

	select {
	case res := <-ch:
		return res.Val.(siteconfig.View)
	case <-ctx.Done():
		return h.fallback(ctx.Err())
	}
}

func (h *hackathonService) fetch(ctx context.Context) siteconfig.View {
	live, err := h.api.GetHackathon(ctx, h.slug)
	if err != nil {
		h.log.Warn(ctx, "using bundled site config", "error", err)
		v := h.fallback(err)
		h.store(v)
		return v
	}

	merged := siteconfig.Merge(h.base, live, h.origin)
	if err := merged.Validate(); err != nil {
		err = fmt.Errorf("invalid live site config: %w", err)
		h.log.Warn(ctx, "using bundled site config", "error", err)
		v := h.fallback(err)
		h.store(v)
		return v
	}

	v := siteconfig.View{Config: merged, Live: true}
	h.store(v)
	return v
}

func (h *hackathonService) fallback(err error) siteconfig.View {
	return siteconfig.View{Config: siteconfig.Merge(h.base, nil, h.origin), Err: err}
}

func (h *hackathonService) store(v siteconfig.View) {
	h.mu.Lock()
	h.cached = &v
	h.mu.Unlock()
}

// Refresh drops the cached config; the next SiteConfig call fetches again.
func (h *hackathonService) Refresh() {
	h.mu.Lock()
	h.cached = nil
	h.mu.Unlock()
	h.group.Forget("site-config")
}

func (h *hackathonService) Teams(ctx context.Context, limit, offset int) ([]models.Team, error) {
	if limit <= 0 {
		limit = DefaultTeamPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return h.api.ListTeams(ctx, h.slug, limit, offset)
}

func (h *hackathonService) Team(ctx context.Context, teamID string) (*models.Team, []models.TeamMember, error) {
	team, err := h.api.GetTeam(ctx, h.slug, teamID)
	if err != nil {
		return nil, nil, err
	}
	members, err := h.api.GetTeamMembers(ctx, h.slug, teamID)
	if err != nil {
		return nil, nil, err
	}
	return team, members, nil
}

// MyTeam returns ErrNoTeam when the backend reports no membership.
func (h *hackathonService) MyTeam(ctx context.Context) (*models.MyTeam, error) {
	t, err := h.api.GetMyTeam(ctx, h.slug)
	if err != nil {
		if e, ok := client.AsError(err); ok && e.Kind == client.KindAPI && (e.Code == "NOT_FOUND" || e.Status == 404) {
			return nil, ErrNoTeam
		}
		return nil, err
	}
	if t.Team.ID == "" {
		return nil, ErrNoTeam
	}
	return t, nil
}

func (h *hackathonService) CreateTeam(ctx context.Context, name, trackID string) (*models.Team, error) {
	req := models.CreateTeamRequest{Name: strings.TrimSpace(name)}
	if trackID != "" {
		req.TrackID = &trackID
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return h.api.CreateTeam(ctx, h.slug, req)
}

func (h *hackathonService) RenameTeam(ctx context.Context, teamID, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name: cannot be blank")
	}
	return h.api.UpdateTeam(ctx, h.slug, teamID, models.TeamUpdate{Name: &name})
}

func (h *hackathonService) JoinTeam(ctx context.Context, inviteCode string) (*models.JoinResult, error) {
	req := models.JoinTeamRequest{InviteCode: strings.TrimSpace(inviteCode)}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return h.api.JoinTeam(ctx, h.slug, req)
}

// LeaveTeam removes userID from their current team.
func (h *hackathonService) LeaveTeam(ctx context.Context, userID string) error {
	mine, err := h.MyTeam(ctx)
	if err != nil {
		return err
	}
	return h.api.LeaveTeam(ctx, h.slug, mine.Team.ID, userID)
}

// Announcements lists pinned announcements first, newest first within each
// group.
func (h *hackathonService) Announcements(ctx context.Context) ([]models.Announcement, error) {
	list, err := h.api.ListAnnouncements(ctx, h.slug)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].IsPinned() != list[j].IsPinned() {
			return list[i].IsPinned()
		}
		return list[i].CreatedAt > list[j].CreatedAt
	})
	return list, nil
}

func (h *hackathonService) Submissions(ctx context.Context, teamID string) ([]models.Submission, error) {
	return h.api.ListSubmissions(ctx, h.slug, teamID)
}

func (h *hackathonService) Submission(ctx context.Context, submissionID string) (*models.Submission, error) {
	return h.api.GetSubmission(ctx, h.slug, submissionID)
}

// CurrentSubmission returns the current submission of the caller's team.
func (h *hackathonService) CurrentSubmission(ctx context.Context) (*models.Submission, error) {
	mine, err := h.MyTeam(ctx)
	if err != nil {
		return nil, err
	}
	return h.api.GetTeamCurrentSubmission(ctx, h.slug, mine.Team.ID)
}

func (h *hackathonService) Submit(ctx context.Context, in models.SubmissionInput) (*models.Submission, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return h.api.CreateSubmission(ctx, h.slug, in)
}

func (h *hackathonService) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return h.api.GetAILeaderboard(ctx, h.slug)
}

func (h *hackathonService) Rounds(ctx context.Context) ([]models.Round, error) {
	rounds, err := h.api.ListRounds(ctx, h.slug)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rounds, func(i, j int) bool { return rounds[i].RoundNumber < rounds[j].RoundNumber })
	return rounds, nil
}
