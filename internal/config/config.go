// Package config loads the server configuration: a JSONC file with
// ${{ .Env.VAR }} templates plus an optional .env file for secrets.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Gateway Gateway `json:"gateway"`
	ClickUp ClickUp `json:"clickup"`
	Consent Consent `json:"consent"`
	Tokens  Tokens  `json:"tokens"`
}

// Gateway holds the HTTP server settings.
type Gateway struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// PublicBaseURL is the externally reachable origin used to build
	// the OAuth redirect URI (e.g. behind a reverse proxy).
	PublicBaseURL string `json:"public_base_url,omitempty"`
}

// ClickUp holds upstream API settings and app credentials.
type ClickUp struct {
	BaseURL      string `json:"base_url,omitempty"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	// AccessToken is used by the stdio MCP mode, where no delegated
	// authorization flow runs.
	AccessToken string `json:"access_token,omitempty"`
	// FanOut bounds concurrent per-workspace fetches.
	FanOut int `json:"fan_out,omitempty"`
}

// Consent configures the signed consent cookie.
type Consent struct {
	// Secret is the HMAC-SHA256 key. Required in HTTP mode.
	Secret string `json:"secret"`
}

// Tokens configures issued-bearer persistence.
type Tokens struct {
	Path string   `json:"path,omitempty"`
	TTL  Duration `json:"ttl,omitempty"`
}

// Duration wraps time.Duration for JSON round trips ("720h" style).
type Duration time.Duration

// Duration returns the wrapped value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalJSON accepts a quoted Go duration string.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON emits the quoted Go duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
