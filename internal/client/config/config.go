package config

import (
	"fmt"
	"os"
	"time"

	"github.com/devsage/hackclient/internal/client/siteconfig"
	"github.com/devsage/hackclient/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Config holds runtime settings for the hackathon CLI.
//
// Units: all timeouts and delays are time.Duration.
type Config struct {
	APIOrigin     string          `env:"HK_API_ORIGIN"`
	HackathonSlug string          `env:"HK_HACKATHON_SLUG"`
	AuthMode      common.AuthMode `env:"HK_AUTH_MODE"`
	DatabasePath  string          `env:"HK_DB_PATH"`
	// OAuthOrigin is where the backend redirects after a provider sign-in.
	OAuthOrigin string `env:"HK_OAUTH_ORIGIN"`

	RequestTimeout     time.Duration `env:"HK_REQUEST_TIMEOUT"`
	RetryAttempts      uint64        `env:"HK_RETRY_ATTEMPTS"`
	RetryBaseDelay     time.Duration `env:"HK_RETRY_BASE_DELAY"`
	ConfigFetchTimeout time.Duration `env:"HK_CONFIG_FETCH_TIMEOUT"`

	KeepSessionOnNetworkError bool   `env:"HK_KEEP_SESSION_ON_NETWORK_ERROR"`
	LogLevel                  string `env:"HK_LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults. Origin and slug come from
// the bundled site config.
func (c *Config) LoadDefaults() {
	site := siteconfig.Default()
	c.APIOrigin = site.APIOrigin
	c.HackathonSlug = site.Slug
	c.AuthMode = common.AuthModeToken
	c.DatabasePath = "hackclient.db"
	c.OAuthOrigin = "http://localhost:5173"
	c.RequestTimeout = 15 * time.Second
	c.RetryAttempts = 2
	c.RetryBaseDelay = 200 * time.Millisecond
	c.ConfigFetchTimeout = 5 * time.Second
	c.KeepSessionOnNetworkError = false
	c.LogLevel = "warn"
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.APIOrigin, validation.Required, is.URL),
		validation.Field(&c.HackathonSlug, validation.Required),
		validation.Field(&c.AuthMode, validation.Required, validation.In(common.AuthModeToken, common.AuthModeCookie)),
		validation.Field(&c.DatabasePath, validation.Required),
		validation.Field(&c.OAuthOrigin, is.URL),
		validation.Field(&c.RequestTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.RetryAttempts, validation.Max(uint64(10))),
		validation.Field(&c.RetryBaseDelay, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.ConfigFetchTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "warning", "error")),
	)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), environment variables and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
