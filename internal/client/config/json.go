package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/devsage/hackclient/internal/common"
	"github.com/devsage/hackclient/internal/flagx"
	"github.com/devsage/hackclient/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. Absent fields keep the value
// already in Config.
type JsonConfig struct {
	APIOrigin                 string          `json:"api_origin"`
	HackathonSlug             string          `json:"hackathon_slug"`
	AuthMode                  string          `json:"auth_mode"`
	DatabasePath              string          `json:"database_path"`
	OAuthOrigin               string          `json:"oauth_origin"`
	RequestTimeout            *timex.Duration `json:"request_timeout"`
	RetryAttempts             *uint64         `json:"retry_attempts"`
	RetryBaseDelay            *timex.Duration `json:"retry_base_delay"`
	ConfigFetchTimeout        *timex.Duration `json:"config_fetch_timeout"`
	KeepSessionOnNetworkError *bool           `json:"keep_session_on_network_error"`
	LogLevel                  string          `json:"log_level"`
}

// parseJSON overlays cfg with the file named by -c / -config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.APIOrigin, jc.APIOrigin)
	setString(&cfg.HackathonSlug, jc.HackathonSlug)
	if jc.AuthMode != "" {
		cfg.AuthMode = common.AuthMode(jc.AuthMode)
	}
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.OAuthOrigin, jc.OAuthOrigin)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	if jc.RetryAttempts != nil {
		cfg.RetryAttempts = *jc.RetryAttempts
	}
	setDuration(&cfg.RetryBaseDelay, jc.RetryBaseDelay)
	setDuration(&cfg.ConfigFetchTimeout, jc.ConfigFetchTimeout)
	if jc.KeepSessionOnNetworkError != nil {
		cfg.KeepSessionOnNetworkError = *jc.KeepSessionOnNetworkError
	}
	setString(&cfg.LogLevel, jc.LogLevel)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
