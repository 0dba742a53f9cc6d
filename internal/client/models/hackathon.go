package models

// Hackathon is the event record served by /api/v1/hackathons/{slug}.
// Tracks, prizes and settings arrive as JSON-encoded strings and are kept
// verbatim.
type Hackathon struct {
	Slug                string  `json:"slug"`
	Title               string  `json:"title"`
	Tagline             *string `json:"tagline"`
	Description         *string `json:"description"`
	RulesMD             *string `json:"rules_md"`
	Status              string  `json:"status"`
	StartsAt            *string `json:"starts_at"`
	JudgingStarts       *string `json:"judging_starts"`
	JudgingEnds         *string `json:"judging_ends"`
	SubmissionDeadline  *string `json:"submission_deadline"`
	MinTeamSize         int     `json:"min_team_size"`
	MaxTeamSize         int     `json:"max_team_size"`
	MaxTeams            *int    `json:"max_teams"`
	RegistrationMode    string  `json:"registration_mode"`
	AllowedEmailDomains string  `json:"allowed_email_domains"`
	Timezone            string  `json:"timezone"`
	Tracks              string  `json:"tracks"`
	Prizes              string  `json:"prizes"`
	Settings            string  `json:"settings"`
	LogoURL             *string `json:"logo_url"`
	BannerURL           *string `json:"banner_url"`
}

type Announcement struct {
	ID           string  `json:"id"`
	HackathonID  string  `json:"hackathon_id"`
	AuthorID     string  `json:"author_id"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	Pinned       int     `json:"pinned"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	AuthorName   string  `json:"author_name,omitempty"`
	AuthorAvatar *string `json:"author_avatar,omitempty"`
}

func (a Announcement) IsPinned() bool { return a.Pinned != 0 }

type Round struct {
	ID                 string  `json:"id"`
	HackathonID        string  `json:"hackathon_id"`
	RoundNumber        int     `json:"round_number"`
	Name               string  `json:"name"`
	Type               string  `json:"type"`
	Status             string  `json:"status"`
	IsInitialized      int     `json:"is_initialized"`
	SubmissionDeadline *string `json:"submission_deadline"`
	StartedAt          *string `json:"started_at"`
	CompletedAt        *string `json:"completed_at"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}
