package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Teams lists teams, optionally paged: teams [limit] [offset].
func (a *App) Teams(ctx context.Context, args []string) error {
	limit, offset := 0, 0
	var err error
	if len(args) > 0 {
		if limit, err = strconv.Atoi(args[0]); err != nil {
			return errUsage("teams [limit] [offset]")
		}
	}
	if len(args) > 1 {
		if offset, err = strconv.Atoi(args[1]); err != nil {
			return errUsage("teams [limit] [offset]")
		}
	}

	teams, err := a.hackathon.Teams(ctx, limit, offset)
	if err != nil {
		return err
	}
	if len(teams) == 0 {
		fmt.Fprintln(a.out, "No teams yet.")
		return nil
	}
	w := newTable(a.out)
	row(w, "ID", "NAME", "MEMBERS", "CREATED")
	for _, t := range teams {
		row(w, t.ID, t.Name, t.MemberCount, when(t.CreatedAt))
	}
	return w.Flush()
}

func (a *App) Team(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage("team <id>")
	}
	team, members, err := a.hackathon.Team(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\n", team.Name)
	if team.Description != "" {
		fmt.Fprintf(a.out, "  %s\n", truncate(team.Description, 200))
	}
	w := newTable(a.out)
	row(w, "NAME", "ROLE", "JOINED")
	for _, m := range members {
		row(w, m.Name, m.Role, when(m.JoinedAt))
	}
	return w.Flush()
}

func (a *App) MyTeam(ctx context.Context, _ []string) error {
	mine, err := a.hackathon.MyTeam(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (you are %s)\n", mine.Team.Name, orDash(mine.Role))
	if mine.Team.InviteCode != "" {
		fmt.Fprintf(a.out, "Invite code: %s\n", mine.Team.InviteCode)
	}
	w := newTable(a.out)
	row(w, "NAME", "EMAIL", "ROLE")
	for _, m := range mine.Members {
		row(w, m.Name, m.Email, m.Role)
	}
	return w.Flush()
}

// CreateTeam takes the team name from args or a prompt.
func (a *App) CreateTeam(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		var err error
		if name, err = getSimpleText(a.reader, "Team name", a.out); err != nil {
			return err
		}
	}
	team, err := a.hackathon.CreateTeam(ctx, name, "")
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created team %s. Invite code: %s\n", team.Name, orDash(team.InviteCode))
	return nil
}

// RenameTeam renames the caller's team.
func (a *App) RenameTeam(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage("renameteam <new name>")
	}
	mine, err := a.hackathon.MyTeam(ctx)
	if err != nil {
		return err
	}
	team, err := a.hackathon.RenameTeam(ctx, mine.Team.ID, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Team renamed to %s\n", team.Name)
	return nil
}

func (a *App) JoinTeam(ctx context.Context, args []string) error {
	code, err := a.argOrPrompt(args, 0, "Invite code")
	if err != nil {
		return err
	}
	res, err := a.hackathon.JoinTeam(ctx, code)
	if err != nil {
		return err
	}
	if !res.Joined {
		fmt.Fprintln(a.out, "Could not join the team.")
		return nil
	}
	fmt.Fprintf(a.out, "Joined team %s\n", res.TeamID)
	return nil
}

func (a *App) LeaveTeam(ctx context.Context, _ []string) error {
	user := a.auth.CurrentUser()
	if user == nil {
		fmt.Fprintln(a.out, "Please log in first.")
		return nil
	}
	if err := a.hackathon.LeaveTeam(ctx, user.ID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "You left your team.")
	return nil
}
