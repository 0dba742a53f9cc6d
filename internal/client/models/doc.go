// Package models defines the JSON shapes exchanged with the hackathon
// backend: the participant identity, auth payloads, and the dashboard
// resources (teams, announcements, submissions, rounds, leaderboard).
//
// Field names follow the backend's snake_case wire format. Nullable columns
// are pointers so "null" and "" stay distinguishable.
package models
