package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mattyatea/ClickUp-MCP/internal/clickup"
	"github.com/mattyatea/ClickUp-MCP/internal/config"
	"github.com/mattyatea/ClickUp-MCP/internal/mcp"
)

// NewMCPServeCommand returns the mcp-serve subcommand: stdio transport
// with a single configured access token.
func NewMCPServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "mcp-serve",
		Usage:  "Serve the ClickUp tools over MCP stdio",
		Action: runMCPServe,
	}
}

func runMCPServe(ctx context.Context, cmd *cli.Command) error {
	// Logging goes to stderr; stdout carries the MCP stdio transport.
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	}

	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Debug("config not found, using defaults", "path", configPath, "error", err)
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}
	if cfg.ClickUp.AccessToken == "" {
		return fmt.Errorf("an access token is required in stdio mode (config clickup.access_token or CLICKUP_ACCESS_TOKEN)")
	}

	client := clickup.New(cfg.ClickUp.BaseURL)
	server := mcp.NewServer(client, mcp.Options{
		StaticToken: cfg.ClickUp.AccessToken,
		FanOut:      cfg.ClickUp.FanOut,
	})
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}
