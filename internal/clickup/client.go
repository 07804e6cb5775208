// Package clickup is a thin client for the ClickUp v2 REST API. It covers
// the authorization exchange plus the read/write surface the tool layer
// aggregates over: teams, spaces, folders, lists, tasks, and comments.
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the production ClickUp API endpoint.
const DefaultBaseURL = "https://api.clickup.com/api/v2"

const httpTimeout = 30 * time.Second

// Client issues ClickUp API calls. The access token is per-call, not
// per-client: one process serves many delegated credentials.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client against baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: httpTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx upstream response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clickup: status %d: %s", e.Status, e.Body)
}

// AuthorizedUser returns the identity behind the access token.
func (c *Client) AuthorizedUser(ctx context.Context, token string) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.get(ctx, token, "/user", nil, &out); err != nil {
		return User{}, fmt.Errorf("fetch authorized user: %w", err)
	}
	return out.User, nil
}

// AuthorizedTeams returns the workspaces visible to the access token.
func (c *Client) AuthorizedTeams(ctx context.Context, token string) ([]Team, error) {
	var out struct {
		Teams []Team `json:"teams"`
	}
	if err := c.get(ctx, token, "/team", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch workspaces: %w", err)
	}
	return out.Teams, nil
}

// SpacesForTeam returns the spaces of a workspace.
func (c *Client) SpacesForTeam(ctx context.Context, token, teamID string, archived bool) ([]Space, error) {
	var out struct {
		Spaces []Space `json:"spaces"`
	}
	if err := c.get(ctx, token, "/team/"+url.PathEscape(teamID)+"/space", archivedQuery(archived), &out); err != nil {
		return nil, fmt.Errorf("fetch spaces for workspace %s: %w", teamID, err)
	}
	return out.Spaces, nil
}

// FoldersForSpace returns the folders of a space.
func (c *Client) FoldersForSpace(ctx context.Context, token, spaceID string, archived bool) ([]Folder, error) {
	var out struct {
		Folders []Folder `json:"folders"`
	}
	if err := c.get(ctx, token, "/space/"+url.PathEscape(spaceID)+"/folder", archivedQuery(archived), &out); err != nil {
		return nil, fmt.Errorf("fetch folders for space %s: %w", spaceID, err)
	}
	return out.Folders, nil
}

// ListsForFolder returns the lists inside a folder.
func (c *Client) ListsForFolder(ctx context.Context, token, folderID string, archived bool) ([]List, error) {
	var out struct {
		Lists []List `json:"lists"`
	}
	if err := c.get(ctx, token, "/folder/"+url.PathEscape(folderID)+"/list", archivedQuery(archived), &out); err != nil {
		return nil, fmt.Errorf("fetch lists for folder %s: %w", folderID, err)
	}
	return out.Lists, nil
}

// ListsForSpace returns the folderless lists directly under a space.
func (c *Client) ListsForSpace(ctx context.Context, token, spaceID string, archived bool) ([]List, error) {
	var out struct {
		Lists []List `json:"lists"`
	}
	if err := c.get(ctx, token, "/space/"+url.PathEscape(spaceID)+"/list", archivedQuery(archived), &out); err != nil {
		return nil, fmt.Errorf("fetch lists for space %s: %w", spaceID, err)
	}
	return out.Lists, nil
}

// TeamTasks queries tasks across a workspace with pre-compiled query
// parameters.
func (c *Client) TeamTasks(ctx context.Context, token, teamID string, params url.Values) (TaskPage, error) {
	var out TaskPage
	if err := c.get(ctx, token, "/team/"+url.PathEscape(teamID)+"/task", params, &out); err != nil {
		return TaskPage{}, fmt.Errorf("fetch tasks for workspace %s: %w", teamID, err)
	}
	return out, nil
}

// TaskByID fetches a single task, including subtask stubs when requested.
func (c *Client) TaskByID(ctx context.Context, token, taskID string, includeSubtasks bool) (Task, error) {
	params := url.Values{}
	if includeSubtasks {
		params.Set("include_subtasks", "true")
	}
	var out Task
	if err := c.get(ctx, token, "/task/"+url.PathEscape(taskID), params, &out); err != nil {
		return Task{}, fmt.Errorf("fetch task %s: %w", taskID, err)
	}
	return out, nil
}

// TaskComments fetches the comments of a task.
func (c *Client) TaskComments(ctx context.Context, token, taskID string) ([]Comment, error) {
	var out struct {
		Comments []Comment `json:"comments"`
	}
	if err := c.get(ctx, token, "/task/"+url.PathEscape(taskID)+"/comment", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch comments for task %s: %w", taskID, err)
	}
	return out.Comments, nil
}

// CreateTaskRequest is the mutable task payload for creation.
type CreateTaskRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	Assignees   []int64  `json:"assignees,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	DueDate     int64    `json:"due_date,omitempty"`
	StartDate   int64    `json:"start_date,omitempty"`
	Parent      string   `json:"parent,omitempty"`
}

// CreateTask creates a task in a list.
func (c *Client) CreateTask(ctx context.Context, token, listID string, req CreateTaskRequest) (Task, error) {
	var out Task
	if err := c.send(ctx, token, http.MethodPost, "/list/"+url.PathEscape(listID)+"/task", req, &out); err != nil {
		return Task{}, fmt.Errorf("create task in list %s: %w", listID, err)
	}
	return out, nil
}

// UpdateTaskRequest carries the fields to change; zero values are omitted
// from the request body so untouched fields keep their upstream value.
type UpdateTaskRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	DueDate     int64  `json:"due_date,omitempty"`
	StartDate   int64  `json:"start_date,omitempty"`
}

// UpdateTask updates a task in place.
func (c *Client) UpdateTask(ctx context.Context, token, taskID string, req UpdateTaskRequest) (Task, error) {
	var out Task
	if err := c.send(ctx, token, http.MethodPut, "/task/"+url.PathEscape(taskID), req, &out); err != nil {
		return Task{}, fmt.Errorf("update task %s: %w", taskID, err)
	}
	return out, nil
}

func archivedQuery(archived bool) url.Values {
	return url.Values{"archived": []string{strconv.FormatBool(archived)}}
}

func (c *Client) get(ctx context.Context, token, path string, params url.Values, out any) error {
	return c.do(ctx, token, http.MethodGet, path, params, nil, out)
}

func (c *Client) send(ctx context.Context, token, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, token, method, path, nil, payload, out)
}

func (c *Client) do(ctx context.Context, token, method, path string, params url.Values, body []byte, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("clickup api error", "method", method, "path", path, "status", resp.StatusCode)
		return &APIError{Status: resp.StatusCode, Body: truncate(string(raw), 200)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
