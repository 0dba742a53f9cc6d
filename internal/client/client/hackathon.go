package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/devsage/hackclient/internal/client/models"
)

func hackathonPath(slug string, segments ...string) string {
	p := "/api/v1/hackathons/" + url.PathEscape(slug)
	for _, s := range segments {
		p += "/" + url.PathEscape(s)
	}
	return p
}

func getData[T any](ctx context.Context, c *HTTPClient, path string) (T, error) {
	env, err := Request[T](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

func sendData[T any](ctx context.Context, c *HTTPClient, method, path string, body any) (*T, error) {
	env, err := Request[T](ctx, c, method, path, body)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *HTTPClient) GetHackathon(ctx context.Context, slug string) (*models.Hackathon, error) {
	h, err := getData[models.Hackathon](ctx, c, hackathonPath(slug))
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *HTTPClient) ListTeams(ctx context.Context, slug string, limit, offset int) ([]models.Team, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return getData[[]models.Team](ctx, c, hackathonPath(slug, "teams")+"?"+q.Encode())
}

func (c *HTTPClient) GetTeam(ctx context.Context, slug, teamID string) (*models.Team, error) {
	t, err := getData[models.Team](ctx, c, hackathonPath(slug, "teams", teamID))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) GetTeamMembers(ctx context.Context, slug, teamID string) ([]models.TeamMember, error) {
	return getData[[]models.TeamMember](ctx, c, hackathonPath(slug, "teams", teamID, "members"))
}

func (c *HTTPClient) CreateTeam(ctx context.Context, slug string, req models.CreateTeamRequest) (*models.Team, error) {
	return sendData[models.Team](ctx, c, http.MethodPost, hackathonPath(slug, "teams"), req)
}

func (c *HTTPClient) UpdateTeam(ctx context.Context, slug, teamID string, upd models.TeamUpdate) (*models.Team, error) {
	return sendData[models.Team](ctx, c, http.MethodPatch, hackathonPath(slug, "teams", teamID), upd)
}

func (c *HTTPClient) JoinTeam(ctx context.Context, slug string, req models.JoinTeamRequest) (*models.JoinResult, error) {
	return sendData[models.JoinResult](ctx, c, http.MethodPost, hackathonPath(slug, "teams", "join"), req)
}

func (c *HTTPClient) GetMyTeam(ctx context.Context, slug string) (*models.MyTeam, error) {
	t, err := getData[models.MyTeam](ctx, c, hackathonPath(slug, "teams", "me"))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// LeaveTeam removes userID from the team. The response carries no data.
func (c *HTTPClient) LeaveTeam(ctx context.Context, slug, teamID, userID string) error {
	_, err := request[json.RawMessage](ctx, c, http.MethodDelete, hackathonPath(slug, "teams", teamID, "members", userID), nil, false)
	return err
}

func (c *HTTPClient) ListAnnouncements(ctx context.Context, slug string) ([]models.Announcement, error) {
	return getData[[]models.Announcement](ctx, c, hackathonPath(slug, "announcements"))
}

// ListSubmissions lists the event's submissions, narrowed to one team when
// teamID is set.
func (c *HTTPClient) ListSubmissions(ctx context.Context, slug, teamID string) ([]models.Submission, error) {
	path := hackathonPath(slug, "submissions")
	if teamID != "" {
		path += "?" + url.Values{"team_id": {teamID}}.Encode()
	}
	return getData[[]models.Submission](ctx, c, path)
}

func (c *HTTPClient) GetSubmission(ctx context.Context, slug, submissionID string) (*models.Submission, error) {
	s, err := getData[models.Submission](ctx, c, hackathonPath(slug, "submissions", submissionID))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) GetTeamCurrentSubmission(ctx context.Context, slug, teamID string) (*models.Submission, error) {
	s, err := getData[models.Submission](ctx, c, hackathonPath(slug, "submissions", "team", teamID, "current"))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) CreateSubmission(ctx context.Context, slug string, in models.SubmissionInput) (*models.Submission, error) {
	return sendData[models.Submission](ctx, c, http.MethodPost, hackathonPath(slug, "submissions"), in)
}

func (c *HTTPClient) GetAILeaderboard(ctx context.Context, slug string) ([]models.LeaderboardEntry, error) {
	return getData[[]models.LeaderboardEntry](ctx, c, hackathonPath(slug, "submissions", "ai-leaderboard"))
}

func (c *HTTPClient) ListRounds(ctx context.Context, slug string) ([]models.Round, error) {
	return getData[[]models.Round](ctx, c, hackathonPath(slug, "rounds"))
}
