package client

import (
	"context"
	"net/http"

	"github.com/devsage/hackclient/internal/client/models"
)

// AuthAPI is the subset of the backend used by the auth lifecycle.
type AuthAPI interface {
	Me(ctx context.Context) (*models.Identity, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error)
	Logout(ctx context.Context) error
	OAuthStartURL(provider, origin string) string

	OnUnauthorized(fn UnauthorizedHandler)
	SessionCookies() []*http.Cookie
	RestoreCookies(cookies []*http.Cookie)
	ClearCookies()
}

// HackathonAPI is the event dashboard surface of the backend. Every call is
// scoped to a hackathon slug.
type HackathonAPI interface {
	GetHackathon(ctx context.Context, slug string) (*models.Hackathon, error)

	ListTeams(ctx context.Context, slug string, limit, offset int) ([]models.Team, error)
	GetTeam(ctx context.Context, slug, teamID string) (*models.Team, error)
	GetTeamMembers(ctx context.Context, slug, teamID string) ([]models.TeamMember, error)
	CreateTeam(ctx context.Context, slug string, req models.CreateTeamRequest) (*models.Team, error)
	UpdateTeam(ctx context.Context, slug, teamID string, upd models.TeamUpdate) (*models.Team, error)
	JoinTeam(ctx context.Context, slug string, req models.JoinTeamRequest) (*models.JoinResult, error)
	GetMyTeam(ctx context.Context, slug string) (*models.MyTeam, error)
	LeaveTeam(ctx context.Context, slug, teamID, userID string) error

	ListAnnouncements(ctx context.Context, slug string) ([]models.Announcement, error)

	ListSubmissions(ctx context.Context, slug, teamID string) ([]models.Submission, error)
	GetSubmission(ctx context.Context, slug, submissionID string) (*models.Submission, error)
	GetTeamCurrentSubmission(ctx context.Context, slug, teamID string) (*models.Submission, error)
	CreateSubmission(ctx context.Context, slug string, in models.SubmissionInput) (*models.Submission, error)
	GetAILeaderboard(ctx context.Context, slug string) ([]models.LeaderboardEntry, error)

	ListRounds(ctx context.Context, slug string) ([]models.Round, error)
}

var (
	_ AuthAPI      = (*HTTPClient)(nil)
	_ HackathonAPI = (*HTTPClient)(nil)
)
