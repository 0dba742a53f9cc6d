package session

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential proves the session to the backend: a bearer token in token
// mode, the backend's session cookies in cookie mode.
type Credential struct {
	Token   string
	Cookies []*http.Cookie
}

func (c Credential) Present() bool {
	return c.Token != "" || len(c.Cookies) > 0
}

func (c Credential) clone() Credential {
	out := Credential{Token: c.Token}
	if len(c.Cookies) > 0 {
		out.Cookies = make([]*http.Cookie, len(c.Cookies))
		for i, ck := range c.Cookies {
			cp := *ck
			out.Cookies[i] = &cp
		}
	}
	return out
}

// ExpiresAt reads the exp claim when the token is a JWT. The signature is
// not checked; only the backend can do that. Opaque tokens report false.
func (c Credential) ExpiresAt() (time.Time, bool) {
	if c.Token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the token carries an exp claim that is not after
// now.
func (c Credential) Expired(now time.Time) bool {
	exp, ok := c.ExpiresAt()
	return ok && !exp.After(now)
}
