// Package session holds the signed-in participant and the credential that
// proves it, with a small state machine:
//
//	Unknown -> Verifying -> Authenticated | Anonymous
//	Anonymous -> Authenticated           (login, register, OAuth)
//	Authenticated -> Anonymous           (logout, rejected credential)
//
// Nothing returns to Unknown. The credential and a copy of the identity are
// persisted through a metadata.Repository so a restarted client can render
// the last known user before the credential is re-verified.
package session
