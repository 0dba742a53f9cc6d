package cli

import (
	"context"
	"fmt"

	"github.com/devsage/hackclient/internal/client/services"
	"github.com/devsage/hackclient/internal/common"
)

// Login prompts for an email (unless given as the first argument) and a
// password, then signs in. The password is wiped before returning.
func (a *App) Login(ctx context.Context, args []string) error {
	email, err := a.argOrPrompt(args, 0, "Enter email")
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Login(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", a.auth.CurrentUser().DisplayName())
	return nil
}

// Register creates an account and signs in with it.
func (a *App) Register(ctx context.Context, args []string) error {
	email, err := a.argOrPrompt(args, 0, "Enter email")
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Register(ctx, email, name, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", a.auth.CurrentUser().DisplayName())
	return nil
}

// Logout always succeeds locally; the "Signed out." line comes from the
// session subscription.
func (a *App) Logout(ctx context.Context, _ []string) error {
	a.auth.Logout(ctx)
	return nil
}

func (a *App) WhoAmI(_ context.Context, _ []string) error {
	snap := a.auth.Session()
	user := snap.Identity
	if user == nil {
		fmt.Fprintf(a.out, "Not signed in (%s)\n", snap.State)
		return nil
	}
	w := newTable(a.out)
	row(w, "ID", user.ID)
	row(w, "Name", user.Name)
	row(w, "Email", user.Email)
	if user.GitHubUsername != "" {
		row(w, "GitHub", user.GitHubUsername)
	}
	return w.Flush()
}

// OAuthURL prints the address that starts a provider sign-in in the browser.
func (a *App) OAuthURL(_ context.Context, args []string) error {
	provider := "github"
	if len(args) > 0 {
		provider = args[0]
	}
	fmt.Fprintln(a.out, "Open this address in your browser, then paste the final redirect URL into 'oauth':")
	fmt.Fprintln(a.out, a.auth.OAuthStartURL(provider, a.config.OAuthOrigin))
	return nil
}

// OAuth completes a provider sign-in from the pasted redirect URL or token.
func (a *App) OAuth(ctx context.Context, args []string) error {
	raw, err := a.argOrPrompt(args, 0, "Paste the redirect URL")
	if err != nil {
		return err
	}
	token, err := services.ParseOAuthCallback(raw)
	if err != nil {
		return err
	}
	if err := a.auth.HandleOAuthToken(ctx, token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", a.auth.CurrentUser().DisplayName())
	return nil
}

// argOrPrompt returns args[i] when present and asks for it otherwise.
func (a *App) argOrPrompt(args []string, i int, prompt string) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}
