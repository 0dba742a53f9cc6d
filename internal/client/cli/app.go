package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/devsage/hackclient/internal/client/client"
	"github.com/devsage/hackclient/internal/client/config"
	"github.com/devsage/hackclient/internal/client/repositories/metadata"
	"github.com/devsage/hackclient/internal/client/services"
	"github.com/devsage/hackclient/internal/client/session"
	"github.com/devsage/hackclient/internal/filex"
	"github.com/devsage/hackclient/internal/logging"
)

type App struct {
	config    *config.Config
	auth      services.AuthService
	hackathon services.HackathonService
	log       logging.Logger
	reader    *bufio.Reader
	out       io.Writer
	db        *sql.DB
	signedIn  atomic.Bool

	// commandContext derives the context a single command runs under.
	commandContext func(ctx context.Context) (context.Context, context.CancelFunc)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(os.Stderr, c.LogLevel)

	dbPath, err := filex.EnsureParentDir(c.DatabasePath)
	if err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	store := session.NewStore(metadata.NewSQLiteRepository(db), c.AuthMode, log)

	api, err := client.New(client.Config{
		Origin:         c.APIOrigin,
		Mode:           c.AuthMode,
		Tokens:         store,
		Timeout:        c.RequestTimeout,
		RetryAttempts:  c.RetryAttempts,
		RetryBaseDelay: c.RetryBaseDelay,
		Logger:         log,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	auth := services.NewAuthService(api, store, services.AuthOptions{
		Mode:                      c.AuthMode,
		KeepSessionOnNetworkError: c.KeepSessionOnNetworkError,
		Logger:                    log,
	})
	hackathon := services.NewHackathonService(api, services.HackathonOptions{
		Slug:         c.HackathonSlug,
		APIOrigin:    c.APIOrigin,
		FetchTimeout: c.ConfigFetchTimeout,
		Logger:       log,
	})

	return &App{
		config:         c,
		auth:           auth,
		hackathon:      hackathon,
		log:            log,
		reader:         bufio.NewReader(os.Stdin),
		out:            os.Stdout,
		db:             db,
		commandContext: interruptible,
	}, nil
}

// interruptible cancels the command on Ctrl-C instead of killing the process.
func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

func (a *App) withCommandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.commandContext == nil {
		return context.WithCancel(ctx)
	}
	return a.commandContext(ctx)
}

// Run restores and verifies the saved session, then serves the REPL until
// the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "DevSage hackathon CLI (type 'help' for commands)")
	a.startup(ctx)

	a.signedIn.Store(a.isLoggedIn())
	unsubscribe := a.auth.Subscribe(a.sessionChanged)
	defer unsubscribe()

	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader), a.out)
}

func (a *App) startup(ctx context.Context) {
	cmdCtx, stop := a.withCommandContext(ctx)
	defer stop()

	if err := a.auth.Restore(cmdCtx); err != nil {
		a.log.Warn(ctx, "could not restore session", "error", err)
	}
	if err := a.auth.Verify(cmdCtx); err != nil {
		a.log.Warn(ctx, "could not verify session", "error", err)
	}
	if user := a.auth.CurrentUser(); user != nil {
		fmt.Fprintf(a.out, "Signed in as %s\n", user.DisplayName())
	}
}

// sessionChanged tells the user when their session ends, whether by logout
// or because the backend stopped accepting the credential.
func (a *App) sessionChanged(s session.Snapshot) {
	if s.State == session.StateVerifying {
		return
	}
	signedIn := s.State == session.StateAuthenticated
	if a.signedIn.Swap(signedIn) && !signedIn {
		fmt.Fprintln(a.out, "Signed out.")
	}
}

func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(context.Background(), "close database", "error", err)
		}
		a.db = nil
	}
}

func (a *App) isLoggedIn() bool {
	return a.auth.State() == session.StateAuthenticated
}

func (a *App) status() string {
	snap := a.auth.Session()
	if snap.Identity != nil {
		return snap.Identity.DisplayName()
	}
	return snap.State.String()
}
