// Package mcp exposes the ClickUp aggregation engine as MCP tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mattyatea/ClickUp-MCP/internal/clickup"
	"github.com/mattyatea/ClickUp-MCP/internal/hierarchy"
	"github.com/mattyatea/ClickUp-MCP/internal/storage"
)

// serverVersion is reported in the MCP handshake.
const serverVersion = "0.2.0"

// Upstream is the full ClickUp surface the tools consume: the
// aggregation slice plus single-task reads and mutations.
type Upstream interface {
	hierarchy.API
	TaskByID(ctx context.Context, token, taskID string, includeSubtasks bool) (clickup.Task, error)
	TaskComments(ctx context.Context, token, taskID string) ([]clickup.Comment, error)
	CreateTask(ctx context.Context, token, listID string, req clickup.CreateTaskRequest) (clickup.Task, error)
	UpdateTask(ctx context.Context, token, taskID string, req clickup.UpdateTaskRequest) (clickup.Task, error)
}

// Options configures the tool server.
type Options struct {
	// StaticToken serves every call with one delegated token (stdio
	// mode). When empty, tokens resolve through the bearer store.
	StaticToken string
	// Tokens maps issued bearers to delegated tokens (HTTP mode).
	Tokens storage.Store
	// FanOut bounds concurrent per-workspace fetches.
	FanOut int
	Logger *slog.Logger
}

// server carries the shared state behind the tool handlers.
type server struct {
	upstream    Upstream
	walker      *hierarchy.Walker
	aggregator  *hierarchy.Aggregator
	staticToken string
	tokens      storage.Store
	logger      *slog.Logger
}

// NewServer builds the MCP server with every tool registered.
func NewServer(upstream Upstream, opts Options) *mcpsdk.Server {
	s := newToolServer(upstream, opts)
	srv := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "clickup-mcp",
		Version: serverVersion,
	}, nil)
	s.registerTools(srv)
	return srv
}

func newToolServer(upstream Upstream, opts Options) *server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &server{
		upstream:    upstream,
		staticToken: opts.StaticToken,
		tokens:      opts.Tokens,
		logger:      logger,
	}
	s.walker = hierarchy.NewWalker(upstream,
		hierarchy.WithWalkerFanOut(opts.FanOut),
		hierarchy.WithWalkerLogger(logger))
	s.aggregator = hierarchy.NewAggregator(upstream,
		hierarchy.WithAggregatorFanOut(opts.FanOut),
		hierarchy.WithAggregatorLogger(logger))
	return s
}

func (s *server) registerTools(srv *mcpsdk.Server) {
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "get_workspace_hierarchy",
		Description: "List every list reachable from the in-scope workspaces, tagged with its space and folder path.",
	}, s.handleWorkspaceHierarchy)
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "get_task",
		Description: "Fetch one task with its comments and subtasks.",
	}, s.handleGetTask)
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "get_assigned_tasks",
		Description: "List the tasks assigned to the authorized user across the in-scope workspaces.",
	}, s.handleAssignedTasks)
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "search_tasks",
		Description: "Keyword search over task names and descriptions; closed tasks are included.",
	}, s.handleSearchTasks)
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "filter_tasks",
		Description: "Advanced task filter: statuses, priorities, people, tags, date ranges, and custom fields.",
	}, s.handleFilterTasks)
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "create_task",
		Description: "Create a task in a list.",
	}, s.handleCreateTask)
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "update_task",
		Description: "Update the mutable fields of a task.",
	}, s.handleUpdateTask)
}

// resolveToken produces the delegated ClickUp token for a call. In HTTP
// mode the transport has already verified the bearer; here it is mapped
// back to the upstream credential.
func (s *server) resolveToken(ctx context.Context, req *mcpsdk.CallToolRequest) (string, error) {
	if s.staticToken != "" {
		return s.staticToken, nil
	}
	bearer := requestBearer(req)
	if bearer == "" {
		return "", fmt.Errorf("no credential on request")
	}
	if s.tokens == nil {
		return "", fmt.Errorf("no token store configured")
	}
	record, err := s.tokens.Get(ctx, bearer)
	if err != nil {
		return "", fmt.Errorf("resolve credential: %w", err)
	}
	return record.AccessToken, nil
}

func requestBearer(req *mcpsdk.CallToolRequest) string {
	if req == nil || req.Extra == nil || req.Extra.TokenInfo == nil {
		return ""
	}
	return strings.TrimSpace(req.Extra.TokenInfo.UserID)
}
