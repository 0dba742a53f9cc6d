// Package common contains constants shared by the client packages.
package common

// AuthMode selects how a deployment proves the session to the backend.
type AuthMode string

const (
	// AuthModeToken sends "Authorization: Bearer <token>" and keeps the
	// token in local storage.
	AuthModeToken AuthMode = "token"
	// AuthModeCookie relies on session cookies set by the backend.
	AuthModeCookie AuthMode = "cookie"
)

func (m AuthMode) Valid() bool {
	return m == AuthModeToken || m == AuthModeCookie
}

// Durable storage keys. The names match what the web dashboard writes to
// localStorage so the two stay recognizable side by side.
const (
	StorageKeyAccessToken    = "devsage_access_token"
	StorageKeyUser           = "devsage_user"
	StorageKeySessionCookies = "devsage_session_cookies"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"
	ContentTypeJSON     = "application/json"
)
