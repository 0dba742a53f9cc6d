package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/devsage/hackclient/internal/client/models"
)

// Submissions lists submissions, optionally for one team: submissions [team-id].
func (a *App) Submissions(ctx context.Context, args []string) error {
	teamID := ""
	if len(args) > 0 {
		teamID = args[0]
	}
	list, err := a.hackathon.Submissions(ctx, teamID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No submissions yet.")
		return nil
	}
	w := newTable(a.out)
	row(w, "ID", "TEAM", "TITLE", "SCORE", "SUBMITTED")
	for _, s := range list {
		row(w, s.ID, orDash(s.TeamName), truncate(s.Title, 40), score(s.AIScore), when(s.SubmittedAt))
	}
	return w.Flush()
}

func (a *App) Submission(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage("submission <id>")
	}
	s, err := a.hackathon.Submission(ctx, args[0])
	if err != nil {
		return err
	}
	return a.printSubmission(s)
}

// MySubmission shows the current submission of the caller's team.
func (a *App) MySubmission(ctx context.Context, _ []string) error {
	s, err := a.hackathon.CurrentSubmission(ctx)
	if err != nil {
		return err
	}
	return a.printSubmission(s)
}

// Submit prompts for the submission fields and sends them.
func (a *App) Submit(ctx context.Context, _ []string) error {
	var in models.SubmissionInput
	var err error

	if in.Title, err = getSimpleText(a.reader, "Project title", a.out); err != nil {
		return err
	}
	if in.Description, err = getMultiline(a.reader, "Description", a.out); err != nil {
		return err
	}
	if in.RepoURL, err = getSimpleText(a.reader, "Repository URL", a.out); err != nil {
		return err
	}
	if in.DemoURL, err = getSimpleText(a.reader, "Demo URL (optional)", a.out); err != nil {
		return err
	}
	if in.VideoURL, err = getSimpleText(a.reader, "Video URL (optional)", a.out); err != nil {
		return err
	}

	s, err := a.hackathon.Submit(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Submitted %q (id %s)\n", s.Title, s.ID)
	return nil
}

func (a *App) Leaderboard(ctx context.Context, _ []string) error {
	entries, err := a.hackathon.Leaderboard(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No scored submissions yet.")
		return nil
	}
	w := newTable(a.out)
	row(w, "RANK", "TEAM", "PROJECT", "SCORE")
	for _, e := range entries {
		row(w, e.Rank, e.TeamName, truncate(e.Title, 40), strconv.FormatFloat(e.AIScore, 'f', 1, 64))
	}
	return w.Flush()
}

func (a *App) printSubmission(s *models.Submission) error {
	w := newTable(a.out)
	row(w, "Title", s.Title)
	row(w, "Team", orDash(s.TeamName))
	row(w, "Repository", s.RepoURL)
	row(w, "Demo", orDash(s.DemoURL))
	row(w, "Video", orDash(s.VideoURL))
	row(w, "Submitted", when(s.SubmittedAt))
	row(w, "AI score", score(s.AIScore))
	if err := w.Flush(); err != nil {
		return err
	}
	if s.AIReview != nil && s.AIReview.Summary != "" {
		fmt.Fprintf(a.out, "\n%s\n", s.AIReview.Summary)
	}
	return nil
}

func score(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
