package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call.
type Kind string

const (
	KindNetwork Kind = "NETWORK_ERROR"
	KindDecode  Kind = "DECODE_ERROR"
	KindAPI     Kind = "API_ERROR"
	KindAborted Kind = "ABORTED"
)

var (
	ErrNetwork = errors.New("network error")
	ErrDecode  = errors.New("unexpected response")
	ErrAPI     = errors.New("api error")
	ErrAborted = errors.New("request aborted")
)

// Error is returned by every HTTPClient call that does not succeed.
//
// Code and Message carry the backend's error body for KindAPI, and a
// synthesized code (the kind itself) otherwise. Excerpt holds the first
// bytes of a body that could not be decoded.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Excerpt string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAPI:
		if e.Message != "" {
			return fmt.Sprintf("api error %s: %s", e.Code, e.Message)
		}
		return fmt.Sprintf("api error %s", e.Code)
	case KindDecode:
		return fmt.Sprintf("decode error (status %d): %s", e.Status, e.Message)
	case KindAborted:
		return "request aborted"
	default:
		if e.Err != nil {
			return fmt.Sprintf("network error: %v", e.Err)
		}
		return "network error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrDecode:
		return e.Kind == KindDecode
	case ErrAPI:
		return e.Kind == KindAPI
	case ErrAborted:
		return e.Kind == KindAborted
	}
	return false
}

// Backend codes that mean the credential is no longer accepted.
var unauthorizedCodes = map[string]struct{}{
	"UNAUTHORIZED":    {},
	"UNAUTHENTICATED": {},
	"INVALID_TOKEN":   {},
	"TOKEN_EXPIRED":   {},
	"SESSION_EXPIRED": {},
}

// IsUnauthorized reports whether err is an API error rejecting the
// credential. Failed logins (INVALID_CREDENTIALS) are not included.
func IsUnauthorized(err error) bool {
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindAPI {
		return false
	}
	if _, ok := unauthorizedCodes[e.Code]; ok {
		return true
	}
	return e.Status == http.StatusUnauthorized && e.Code != "INVALID_CREDENTIALS"
}

// AsError extracts the *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
