package mcp

import (
	"context"
	"fmt"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mattyatea/ClickUp-MCP/internal/clickup"
	"github.com/mattyatea/ClickUp-MCP/internal/hierarchy"
)

// taskDetail is the single-task projection: the shared record shape plus
// the fields only worth carrying for a direct fetch.
type taskDetail struct {
	hierarchy.TaskRecord
	Description  string                `json:"description,omitempty"`
	CustomFields []clickup.CustomField `json:"customFields,omitempty"`
	ParentTaskID *string               `json:"parentTaskId,omitempty"`
}

type commentDetail struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	User string `json:"user,omitempty"`
	Date string `json:"date,omitempty"`
}

type getTaskInput struct {
	TaskID string `json:"taskId" jsonschema:"Task id"`
}

type getTaskOutput struct {
	Success  bool            `json:"success"`
	Task     taskDetail      `json:"task"`
	Comments []commentDetail `json:"comments"`
	Subtasks []taskDetail    `json:"subtasks"`
	Warnings []string        `json:"warnings,omitempty"`
}

// handleGetTask fetches the task itself first; that fetch failing is
// fatal. Comments and subtasks are then fetched concurrently and each
// degrades to an empty slice plus a warning.
func (s *server) handleGetTask(ctx context.Context, req *mcpsdk.CallToolRequest, input getTaskInput) (*mcpsdk.CallToolResult, getTaskOutput, error) {
	token, err := s.resolveToken(ctx, req)
	if err != nil {
		return nil, getTaskOutput{}, err
	}
	if input.TaskID == "" {
		return nil, getTaskOutput{}, fmt.Errorf("taskId is required")
	}

	task, err := s.upstream.TaskByID(ctx, token, input.TaskID, false)
	if err != nil {
		return nil, getTaskOutput{}, err
	}

	out := getTaskOutput{
		Success:  true,
		Task:     newTaskDetail(task),
		Comments: []commentDetail{},
		Subtasks: []taskDetail{},
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		warnings []string
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		comments, err := s.upstream.TaskComments(ctx, token, input.TaskID)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			s.logger.Warn("task comments fetch failed", "task", input.TaskID, "error", err)
			warnings = append(warnings, fmt.Sprintf("comments: %v", err))
			return
		}
		for _, c := range comments {
			out.Comments = append(out.Comments, commentDetail{
				ID:   c.ID,
				Text: c.CommentText,
				User: c.User.Username,
				Date: c.Date,
			})
		}
	}()
	go func() {
		defer wg.Done()
		withSubtasks, err := s.upstream.TaskByID(ctx, token, input.TaskID, true)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			s.logger.Warn("subtask fetch failed", "task", input.TaskID, "error", err)
			warnings = append(warnings, fmt.Sprintf("subtasks: %v", err))
			return
		}
		for _, sub := range withSubtasks.Subtasks {
			out.Subtasks = append(out.Subtasks, newTaskDetail(sub))
		}
	}()
	wg.Wait()

	out.Warnings = warnings
	return nil, out, nil
}

type assignedTasksInput struct {
	WorkspaceID     string   `json:"workspaceId,omitempty" jsonschema:"Restrict to one workspace id; all visible workspaces when empty"`
	Statuses        []string `json:"statuses,omitempty" jsonschema:"Only tasks in these statuses"`
	IncludeClosed   bool     `json:"includeClosed,omitempty" jsonschema:"Include closed tasks"`
	IncludeSubtasks bool     `json:"includeSubtasks,omitempty" jsonschema:"Include subtasks"`
	Limit           int      `json:"limit,omitempty" jsonschema:"Page size, default 50"`
	Page            int      `json:"page,omitempty" jsonschema:"Zero-based page number"`
}

func (s *server) handleAssignedTasks(ctx context.Context, req *mcpsdk.CallToolRequest, input assignedTasksInput) (*mcpsdk.CallToolResult, hierarchy.TaskResult, error) {
	token, err := s.resolveToken(ctx, req)
	if err != nil {
		return nil, hierarchy.TaskResult{}, err
	}
	result, err := s.aggregator.AssignedToMe(ctx, token, input.WorkspaceID, hierarchy.TaskQueryOptions{
		Statuses:        input.Statuses,
		IncludeClosed:   input.IncludeClosed,
		IncludeSubtasks: input.IncludeSubtasks,
		Limit:           input.Limit,
		Page:            input.Page,
	})
	if err != nil {
		return nil, hierarchy.TaskResult{}, err
	}
	return nil, *result, nil
}

type searchTasksInput struct {
	Keyword         string   `json:"keyword" jsonschema:"Text matched against task names and descriptions"`
	WorkspaceID     string   `json:"workspaceId,omitempty" jsonschema:"Restrict to one workspace id; all visible workspaces when empty"`
	Statuses        []string `json:"statuses,omitempty" jsonschema:"Only tasks in these statuses"`
	IncludeSubtasks bool     `json:"includeSubtasks,omitempty" jsonschema:"Include subtasks"`
	Limit           int      `json:"limit,omitempty" jsonschema:"Page size, default 50"`
	Page            int      `json:"page,omitempty" jsonschema:"Zero-based page number"`
}

func (s *server) handleSearchTasks(ctx context.Context, req *mcpsdk.CallToolRequest, input searchTasksInput) (*mcpsdk.CallToolResult, hierarchy.TaskResult, error) {
	token, err := s.resolveToken(ctx, req)
	if err != nil {
		return nil, hierarchy.TaskResult{}, err
	}
	if input.Keyword == "" {
		return nil, hierarchy.TaskResult{}, fmt.Errorf("keyword is required")
	}
	result, err := s.aggregator.Search(ctx, token, input.WorkspaceID, input.Keyword, hierarchy.TaskQueryOptions{
		Statuses:        input.Statuses,
		IncludeSubtasks: input.IncludeSubtasks,
		Limit:           input.Limit,
		Page:            input.Page,
	})
	if err != nil {
		return nil, hierarchy.TaskResult{}, err
	}
	return nil, *result, nil
}

type filterTasksInput struct {
	WorkspaceID string `json:"workspaceId,omitempty" jsonschema:"Restrict to one workspace id; all visible workspaces when empty"`
	hierarchy.SearchFilter
}

func (s *server) handleFilterTasks(ctx context.Context, req *mcpsdk.CallToolRequest, input filterTasksInput) (*mcpsdk.CallToolResult, hierarchy.TaskResult, error) {
	token, err := s.resolveToken(ctx, req)
	if err != nil {
		return nil, hierarchy.TaskResult{}, err
	}
	result, err := s.aggregator.Filter(ctx, token, input.WorkspaceID, input.SearchFilter)
	if err != nil {
		return nil, hierarchy.TaskResult{}, err
	}
	return nil, *result, nil
}

func newTaskDetail(task clickup.Task) taskDetail {
	return taskDetail{
		TaskRecord:   hierarchy.NewTaskRecord(task, clickup.Team{}),
		Description:  task.Description,
		CustomFields: task.CustomFields,
		ParentTaskID: task.Parent,
	}
}
