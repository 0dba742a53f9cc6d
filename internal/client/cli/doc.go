// Package cli provides the interactive hackathon command-line client.
//
// It wires configuration, the local session database, the API client and the
// application services behind a small REPL. On start the saved session is
// restored and re-verified before the prompt appears.
//
// Key features:
//   - Login / Register / Logout, OAuth sign-in via a pasted redirect URL
//   - Event overview, announcements and rounds
//   - Teams: list, show, create, join, leave
//   - Submissions and the AI leaderboard
//
// Every command runs under its own context; Ctrl-C cancels the command in
// flight without leaving the REPL. See App and runREPL for details.
package cli
