package models

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type Submission struct {
	ID           string        `json:"id"`
	HackathonID  string        `json:"hackathon_id"`
	TeamID       string        `json:"team_id"`
	RoundID      *string       `json:"round_id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	RepoURL      string        `json:"repo_url"`
	DemoURL      string        `json:"demo_url"`
	VideoURL     string        `json:"video_url"`
	SlideURL     string        `json:"slide_url"`
	IsFinal      int           `json:"is_final"`
	SubmittedAt  string        `json:"submitted_at"`
	TeamName     string        `json:"team_name,omitempty"`
	AIScore      *float64      `json:"ai_score,omitempty"`
	AnalysisJSON *string       `json:"analysis_json,omitempty"`
	AIReviewJSON *string       `json:"ai_review_json,omitempty"`
	Analysis     *RepoAnalysis `json:"analysis,omitempty"`
	AIReview     *AIReview     `json:"ai_review,omitempty"`
}

// SubmissionInput is the body of a create-submission call.
type SubmissionInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	RepoURL      string   `json:"repo_url"`
	DemoURL      string   `json:"demo_url,omitempty"`
	VideoURL     string   `json:"video_url,omitempty"`
	SlideURL     string   `json:"slide_url,omitempty"`
	AnalysisJSON string   `json:"analysis_json,omitempty"`
	AIReviewJSON string   `json:"ai_review_json,omitempty"`
	AIScore      *float64 `json:"ai_score,omitempty"`
}

func (s SubmissionInput) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&s.Description, validation.Required),
		validation.Field(&s.RepoURL, validation.Required, is.URL),
		validation.Field(&s.DemoURL, is.URL),
		validation.Field(&s.VideoURL, is.URL),
		validation.Field(&s.SlideURL, is.URL),
	)
}

type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	TeamID      string  `json:"team_id"`
	TeamName    string  `json:"team_name"`
	Title       string  `json:"title"`
	RepoURL     string  `json:"repo_url"`
	AIScore     float64 `json:"ai_score"`
	SubmittedAt string  `json:"submitted_at"`
}

type RepoAnalysis struct {
	Repository         string   `json:"repository"`
	Owner              string   `json:"owner"`
	Description        *string  `json:"description"`
	PrimaryLanguage    *string  `json:"primary_language"`
	ProjectType        string   `json:"project_type"`
	DetectedFrameworks []string `json:"detected_frameworks"`
	TotalFiles         int      `json:"total_files"`
	HasDockerfile      bool     `json:"has_dockerfile"`
	HasCI              bool     `json:"has_ci"`
	HasTests           bool     `json:"has_tests"`
	HasReadme          bool     `json:"has_readme"`
	Stars              int      `json:"stars"`
	Forks              int      `json:"forks"`
}

type AIReview struct {
	Summary             string   `json:"summary"`
	Score               float64  `json:"score"`
	Strengths           []string `json:"strengths"`
	Improvements        []string `json:"improvements"`
	TechStackAssessment string   `json:"tech_stack_assessment"`
	HackathonReadiness  string   `json:"hackathon_readiness"`
}
