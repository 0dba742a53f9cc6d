// Package client is the single choke point for network calls to the
// hackathon backend.
//
// # Overview
//
//  1. HTTPClient builds requests against a configured origin, attaches the
//     credential (bearer token from a TokenSource, or session cookies held in
//     a cookie jar), and tags every call with an X-Request-ID.
//  2. Every response is decoded into the uniform Envelope. The envelope's
//     "ok" field decides success; HTTP status codes are kept for diagnostics
//     only. Malformed bodies never escape as raw parse errors, they become a
//     DECODE_ERROR envelope carrying a short excerpt of the body.
//  3. Idempotent GETs are retried on network failures with exponential
//     backoff. Mutating calls are sent once.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     SQLite file that backs the session store.
//
// # Errors
//
// Failures are *Error values with one of four kinds, matchable with
// errors.Is: ErrNetwork, ErrDecode, ErrAPI, ErrAborted. ErrAborted means the
// caller cancelled the context and must never be shown to a user.
//
// # Concurrency
//
// HTTPClient is safe for concurrent use. All calls accept a context and stop
// as soon as it is cancelled.
package client
