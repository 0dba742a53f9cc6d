package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/devsage/hackclient/internal/common"
	"github.com/devsage/hackclient/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     backend api origin
//	-s string     hackathon slug
//	-m string     auth mode: token or cookie
//	-d string     path of the local session database
//	-t duration   per-request timeout
//	-l string     log level
//
// Only the flags listed above are looked at; see flagx.FilterArgs.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-m", "-d", "-t", "-l"})

	fs := flag.NewFlagSet("hackclient", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIOrigin, "a", cfg.APIOrigin, "backend api origin")
	fs.StringVar(&cfg.HackathonSlug, "s", cfg.HackathonSlug, "hackathon slug")
	mode := fs.String("m", string(cfg.AuthMode), "auth mode (token|cookie)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "session database path")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	cfg.AuthMode = common.AuthMode(*mode)
	return nil
}
