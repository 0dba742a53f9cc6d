package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/devsage/hackclient/internal/client/client"
	"github.com/devsage/hackclient/internal/client/services"
)

// errUsage is returned by a handler called with the wrong arguments.
type errUsage string

func (e errUsage) Error() string { return "Usage: " + string(e) }

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	withCommandContext(ctx context.Context) (context.Context, context.CancelFunc)

	Login(ctx context.Context, args []string) error
	Register(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	WhoAmI(ctx context.Context, args []string) error
	OAuthURL(ctx context.Context, args []string) error
	OAuth(ctx context.Context, args []string) error

	Event(ctx context.Context, args []string) error
	Refresh(ctx context.Context, args []string) error
	Announcements(ctx context.Context, args []string) error
	Rounds(ctx context.Context, args []string) error

	Teams(ctx context.Context, args []string) error
	Team(ctx context.Context, args []string) error
	MyTeam(ctx context.Context, args []string) error
	CreateTeam(ctx context.Context, args []string) error
	RenameTeam(ctx context.Context, args []string) error
	JoinTeam(ctx context.Context, args []string) error
	LeaveTeam(ctx context.Context, args []string) error

	Submissions(ctx context.Context, args []string) error
	Submission(ctx context.Context, args []string) error
	MySubmission(ctx context.Context, args []string) error
	Submit(ctx context.Context, args []string) error
	Leaderboard(ctx context.Context, args []string) error
}

const (
	helpAnonymous = "Available commands: login, register, oauth-url, oauth, event, announcements, rounds, teams, team, leaderboard, exit"
	helpSignedIn  = "Available commands: whoami, event, refresh, announcements, rounds, teams, team, myteam, createteam, renameteam, jointeam, leaveteam, submissions, submission, mysubmission, submit, leaderboard, logout, exit"
)

// runREPL reads commands from scanner and dispatches them to a until EOF or
// "exit" / "quit".
//
// Each command runs under its own context from withCommandContext, so an
// interrupt cancels only that command. Handler errors are printed to out;
// a cancelled command prints nothing.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner, out io.Writer) {
	for {
		fmt.Fprintf(out, "hk (%s)> ", statusFn())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var handler func(context.Context, []string) error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, helpSignedIn)
			} else {
				fmt.Fprintln(out, helpAnonymous)
			}
			continue
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		case "login":
			handler = a.Login
		case "register":
			handler = a.Register
		case "logout":
			handler = a.Logout
		case "whoami":
			handler = a.WhoAmI
		case "oauth-url":
			handler = a.OAuthURL
		case "oauth":
			handler = a.OAuth

		case "event":
			handler = a.Event
		case "refresh":
			handler = a.Refresh
		case "announcements", "news":
			handler = a.Announcements
		case "rounds":
			handler = a.Rounds

		case "teams":
			handler = a.Teams
		case "team":
			handler = a.Team
		case "myteam":
			handler = a.MyTeam
		case "createteam":
			handler = a.CreateTeam
		case "renameteam":
			handler = a.RenameTeam
		case "jointeam":
			handler = a.JoinTeam
		case "leaveteam":
			handler = a.LeaveTeam

		case "submissions":
			handler = a.Submissions
		case "submission":
			handler = a.Submission
		case "mysubmission":
			handler = a.MySubmission
		case "submit":
			handler = a.Submit
		case "leaderboard", "lb":
			handler = a.Leaderboard

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
			continue
		}

		cmdCtx, stop := a.withCommandContext(ctx)
		err := handler(cmdCtx, args)
		stop()
		if msg := describe(err); msg != "" {
			fmt.Fprintln(out, msg)
		}
	}
}

// describe turns a handler error into the line shown to the user.
func describe(err error) string {
	if err == nil || errors.Is(err, client.ErrAborted) || errors.Is(err, context.Canceled) {
		return ""
	}

	var usage errUsage
	if errors.As(err, &usage) {
		return usage.Error()
	}
	var authErr *services.AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	if errors.Is(err, services.ErrNoTeam) {
		return "You are not on a team yet."
	}
	if e, ok := client.AsError(err); ok {
		switch e.Kind {
		case client.KindNetwork:
			return "Network error: could not reach the server."
		case client.KindDecode:
			return "Unexpected response from the server."
		case client.KindAPI:
			if client.IsUnauthorized(err) {
				return "Please log in first."
			}
			if e.Message != "" {
				return e.Message
			}
			return "Request failed: " + e.Code
		}
	}
	return "Error: " + err.Error()
}
