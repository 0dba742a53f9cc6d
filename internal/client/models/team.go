package models

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type Team struct {
	ID          string  `json:"id"`
	HackathonID string  `json:"hackathon_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	InviteCode  string  `json:"invite_code"`
	TrackID     *string `json:"track_id"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	MemberCount int     `json:"member_count,omitempty"`
}

type TeamMember struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Role      string  `json:"role"`
	JoinedAt  string  `json:"joined_at"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatar_url"`
}

// MyTeam is the payload of /teams/me.
type MyTeam struct {
	Team    Team         `json:"team"`
	Members []TeamMember `json:"members"`
	Role    string       `json:"role"`
}

type JoinResult struct {
	Joined bool   `json:"joined"`
	TeamID string `json:"team_id"`
}

type CreateTeamRequest struct {
	Name    string  `json:"name"`
	TrackID *string `json:"track_id,omitempty"`
}

func (r CreateTeamRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
	)
}

type JoinTeamRequest struct {
	InviteCode string `json:"invite_code"`
}

func (r JoinTeamRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.InviteCode, validation.Required),
	)
}

// TeamUpdate is a PATCH body; nil fields are left untouched by the backend.
type TeamUpdate struct {
	Name    *string `json:"name,omitempty"`
	TrackID *string `json:"track_id,omitempty"`
}
