// Package config loads runtime configuration for the hackathon CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via flags: -c or -config.
//  3. Environment variables (HK_API_ORIGIN, HK_HACKATHON_SLUG, HK_AUTH_MODE,
//     HK_DB_PATH, HK_OAUTH_ORIGIN, HK_REQUEST_TIMEOUT, HK_RETRY_ATTEMPTS,
//     HK_RETRY_BASE_DELAY, HK_CONFIG_FETCH_TIMEOUT,
//     HK_KEEP_SESSION_ON_NETWORK_ERROR, HK_LOG_LEVEL).
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string     backend api origin
//	-s string     hackathon slug
//	-m string     auth mode: token or cookie
//	-d string     path of the local session database
//	-t duration   per-request timeout
//	-l string     log level
//
// # JSON schema
//
// Durations can be strings like "3s" or integer nanoseconds:
//
//	{
//	  "api_origin": "https://api.devsage.org",
//	  "hackathon_slug": "devsage-spring-2026",
//	  "auth_mode": "token",
//	  "request_timeout": "15s",
//	  "keep_session_on_network_error": false
//	}
//
// The loaded Config is validated before it is returned.
package config
