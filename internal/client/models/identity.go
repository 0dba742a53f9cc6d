package models

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Identity is the authenticated participant.
type Identity struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	Name           string  `json:"name"`
	AvatarURL      *string `json:"avatar_url"`
	GitHubUsername string  `json:"github_username,omitempty"`
	CreatedAt      string  `json:"created_at,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate a stored identity.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	if i.AvatarURL != nil {
		u := *i.AvatarURL
		c.AvatarURL = &u
	}
	return &c
}

// DisplayName prefers the name and falls back to the email.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}

// AuthResult is the payload of /auth/login and /auth/register: the identity
// fields flattened next to an optional access token.
type AuthResult struct {
	Identity
	AccessToken string `json:"access_token,omitempty"`
}

// MeResult is the payload of /auth/me.
type MeResult struct {
	User *Identity `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Password, validation.Required),
	)
}
