package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/mattyatea/ClickUp-MCP/internal/clickup"
	"github.com/mattyatea/ClickUp-MCP/internal/config"
	"github.com/mattyatea/ClickUp-MCP/internal/gateway"
	"github.com/mattyatea/ClickUp-MCP/internal/mcp"
	"github.com/mattyatea/ClickUp-MCP/internal/storage"
)

// NewServeCommand returns the serve subcommand: the HTTP gateway with
// the consent flow and the streamable MCP endpoint.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP gateway (consent flow + streamable MCP endpoint)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
		},
		Action: runServe,
	}
}

func runServe(_ context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Warn("config not found, using defaults", "path", configPath, "error", err)
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}

	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = int(cmd.Int("port"))
	}

	if cfg.ClickUp.ClientID == "" || cfg.ClickUp.ClientSecret == "" {
		return fmt.Errorf("clickup client_id and client_secret are required in HTTP mode")
	}
	if cfg.Consent.Secret == "" {
		return fmt.Errorf("consent secret is required in HTTP mode")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tokens, err := storage.Open(cfg.Tokens.Path)
	if err != nil {
		return fmt.Errorf("open token store: %w", err)
	}
	defer tokens.Close()

	client := clickup.New(cfg.ClickUp.BaseURL)
	mcpServer := mcp.NewServer(client, mcp.Options{
		Tokens: tokens,
		FanOut: cfg.ClickUp.FanOut,
	})

	server := gateway.NewServer(gateway.Options{
		Host:          cfg.Gateway.Host,
		Port:          cfg.Gateway.Port,
		PublicBaseURL: cfg.Gateway.PublicBaseURL,
		ClientID:      cfg.ClickUp.ClientID,
		ClientSecret:  cfg.ClickUp.ClientSecret,
		ConsentSecret: []byte(cfg.Consent.Secret),
		TokenTTL:      cfg.Tokens.TTL.Duration(),
		Exchanger:     client,
		Tokens:        tokens,
		MCP:           mcpServer,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
