// Package siteconfig describes the event a client is pointed at: the bundled
// default and its merge with the live hackathon record.
package siteconfig

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/devsage/hackclient/internal/client/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

//go:embed default.json
var defaultJSON []byte

var accentColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type SiteConfig struct {
	Slug               string  `json:"slug"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	AccentColor        string  `json:"accentColor"`
	RegistrationStart  string  `json:"registrationStart"`
	HackingStart       string  `json:"hackingStart"`
	SubmissionDeadline string  `json:"submissionDeadline"`
	MaxTeamSize        int     `json:"maxTeamSize"`
	PrizePool          string  `json:"prizePool"`
	APIOrigin          string  `json:"apiOrigin"`
	LogoURL            *string `json:"logoUrl"`
	BannerURL          *string `json:"bannerUrl"`
	Rules              *string `json:"rules"`
}

func (c SiteConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Slug, validation.Required),
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.AccentColor, validation.Required, validation.Match(accentColor)),
		validation.Field(&c.RegistrationStart, validation.Date(time.RFC3339)),
		validation.Field(&c.HackingStart, validation.Date(time.RFC3339)),
		validation.Field(&c.SubmissionDeadline, validation.Date(time.RFC3339)),
		validation.Field(&c.MaxTeamSize, validation.Required, validation.Min(1)),
		validation.Field(&c.APIOrigin, validation.Required, is.URL),
	)
}

// Default returns the bundled configuration. It panics if the embedded file
// is invalid, which a test guards against.
func Default() SiteConfig {
	c, err := Parse(defaultJSON)
	if err != nil {
		panic(err)
	}
	return c
}

func Parse(data []byte) (SiteConfig, error) {
	var c SiteConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return SiteConfig{}, fmt.Errorf("parse site config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return SiteConfig{}, fmt.Errorf("invalid site config: %w", err)
	}
	return c, nil
}

// Merge overlays the live hackathon record on base. Empty live values keep
// the base value. Accent color and prize pool always come from base, and
// the api origin is the one the client is configured with.
func Merge(base SiteConfig, h *models.Hackathon, apiOrigin string) SiteConfig {
	out := base
	if apiOrigin != "" {
		out.APIOrigin = apiOrigin
	}
	if h == nil {
		return out
	}

	out.Slug = firstNonEmpty(h.Slug, base.Slug)
	out.Title = firstNonEmpty(h.Title, base.Title)
	out.Description = firstNonEmpty(deref(h.Description), deref(h.Tagline), base.Description)
	out.RegistrationStart = firstNonEmpty(deref(h.StartsAt), base.RegistrationStart)
	out.HackingStart = firstNonEmpty(deref(h.StartsAt), base.HackingStart)
	out.SubmissionDeadline = firstNonEmpty(deref(h.SubmissionDeadline), base.SubmissionDeadline)
	if h.MaxTeamSize > 0 {
		out.MaxTeamSize = h.MaxTeamSize
	}
	out.LogoURL = firstNonEmptyPtr(h.LogoURL, base.LogoURL)
	out.BannerURL = firstNonEmptyPtr(h.BannerURL, base.BannerURL)
	out.Rules = firstNonEmptyPtr(h.RulesMD, base.Rules)
	return out
}

// View is a site config together with where it came from.
type View struct {
	Config SiteConfig
	// Live is true when Config includes the backend's hackathon record.
	Live bool
	// Err is why the live record could not be used, if it could not.
	Err error
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptyPtr(values ...*string) *string {
	for _, v := range values {
		if v != nil && *v != "" {
			s := *v
			return &s
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
