package config

import (
	"os"
	"path/filepath"
)

// DataPath returns the root directory for server data.
// It uses $CLICKUP_MCP_PATH if set, otherwise ~/.clickup-mcp.
func DataPath() string {
	if v := os.Getenv("CLICKUP_MCP_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".clickup-mcp")
	}
	return filepath.Join(home, ".clickup-mcp")
}

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(DataPath(), "config.jsonc")
}

// DotenvPath returns the default .env file path.
func DotenvPath() string {
	return filepath.Join(DataPath(), ".env")
}
