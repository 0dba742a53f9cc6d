package cli

import (
	"context"
	"fmt"
)

// Event prints the hackathon overview. It works offline using the bundled
// config.
func (a *App) Event(ctx context.Context, _ []string) error {
	view := a.hackathon.SiteConfig(ctx)
	c := view.Config

	w := newTable(a.out)
	row(w, "Event", c.Title)
	row(w, "Slug", c.Slug)
	if c.Description != "" {
		row(w, "About", truncate(c.Description, 80))
	}
	row(w, "Registration", when(c.RegistrationStart))
	row(w, "Hacking starts", when(c.HackingStart))
	row(w, "Submissions due", when(c.SubmissionDeadline))
	row(w, "Max team size", c.MaxTeamSize)
	if c.PrizePool != "" {
		row(w, "Prize pool", c.PrizePool)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if !view.Live {
		fmt.Fprintln(a.out, "(offline: showing bundled event details)")
	}
	return nil
}

// Refresh drops the cached event details so the next "event" refetches them.
func (a *App) Refresh(_ context.Context, _ []string) error {
	a.hackathon.Refresh()
	fmt.Fprintln(a.out, "Event details will be refetched.")
	return nil
}

func (a *App) Announcements(ctx context.Context, _ []string) error {
	list, err := a.hackathon.Announcements(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No announcements yet.")
		return nil
	}
	for _, an := range list {
		pin := ""
		if an.IsPinned() {
			pin = "[pinned] "
		}
		fmt.Fprintf(a.out, "%s%s (%s, %s)\n  %s\n", pin, an.Title, orDash(an.AuthorName), when(an.CreatedAt), truncate(an.Content, 200))
	}
	return nil
}

func (a *App) Rounds(ctx context.Context, _ []string) error {
	rounds, err := a.hackathon.Rounds(ctx)
	if err != nil {
		return err
	}
	if len(rounds) == 0 {
		fmt.Fprintln(a.out, "No rounds scheduled.")
		return nil
	}
	w := newTable(a.out)
	row(w, "#", "NAME", "TYPE", "STATUS", "DEADLINE")
	for _, r := range rounds {
		row(w, r.RoundNumber, r.Name, r.Type, r.Status, whenPtr(r.SubmissionDeadline))
	}
	return w.Flush()
}
