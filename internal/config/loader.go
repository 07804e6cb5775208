package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/marcozac/go-jsonc"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, expands ${{ .Env.VAR }} templates,
// unmarshals it, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Templates live inside strings, so expand before stripping comments.
	expanded := expandEnvTemplates(string(data))

	var cfg Config
	if err := jsonc.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// ApplyDefaults fills zero-value fields. Exported so callers running
// without a config file still get a usable Config.
func ApplyDefaults(cfg *Config) {
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = "127.0.0.1"
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 18427
	}
	if cfg.Gateway.PublicBaseURL == "" {
		cfg.Gateway.PublicBaseURL = fmt.Sprintf("http://%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
	}
	if cfg.ClickUp.BaseURL == "" {
		cfg.ClickUp.BaseURL = "https://api.clickup.com/api/v2"
	}
	if cfg.ClickUp.AccessToken == "" {
		cfg.ClickUp.AccessToken = os.Getenv("CLICKUP_ACCESS_TOKEN")
	}
	if cfg.ClickUp.FanOut <= 0 {
		cfg.ClickUp.FanOut = 4
	}
	if cfg.Consent.Secret == "" {
		cfg.Consent.Secret = os.Getenv("CONSENT_SECRET")
	}
	if cfg.Tokens.Path == "" {
		cfg.Tokens.Path = filepath.Join(DataPath(), "tokens.db")
	}
	if cfg.Tokens.TTL <= 0 {
		cfg.Tokens.TTL = Duration(30 * 24 * time.Hour)
	}
}
