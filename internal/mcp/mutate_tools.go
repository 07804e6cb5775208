package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mattyatea/ClickUp-MCP/internal/clickup"
	"github.com/mattyatea/ClickUp-MCP/internal/hierarchy"
)

type createTaskInput struct {
	ListID       string   `json:"listId" jsonschema:"List to create the task in"`
	Name         string   `json:"name" jsonschema:"Task name"`
	Description  string   `json:"description,omitempty" jsonschema:"Task description"`
	Status       string   `json:"status,omitempty" jsonschema:"Initial status; the list default when empty"`
	Priority     string   `json:"priority,omitempty" jsonschema:"urgent, high, normal or low"`
	AssigneeIDs  []int64  `json:"assigneeIds,omitempty" jsonschema:"Member ids to assign"`
	Tags         []string `json:"tags,omitempty" jsonschema:"Tag names"`
	DueDate      *int64   `json:"dueDate,omitempty" jsonschema:"Due date as Unix milliseconds"`
	StartDate    *int64   `json:"startDate,omitempty" jsonschema:"Start date as Unix milliseconds"`
	ParentTaskID string   `json:"parentTaskId,omitempty" jsonschema:"Create as a subtask of this task"`
}

type mutateTaskOutput struct {
	Success bool       `json:"success"`
	Task    taskDetail `json:"task"`
}

func (s *server) handleCreateTask(ctx context.Context, req *mcpsdk.CallToolRequest, input createTaskInput) (*mcpsdk.CallToolResult, mutateTaskOutput, error) {
	token, err := s.resolveToken(ctx, req)
	if err != nil {
		return nil, mutateTaskOutput{}, err
	}
	if input.ListID == "" {
		return nil, mutateTaskOutput{}, fmt.Errorf("listId is required")
	}
	if input.Name == "" {
		return nil, mutateTaskOutput{}, fmt.Errorf("name is required")
	}

	body := clickup.CreateTaskRequest{
		Name:        input.Name,
		Description: input.Description,
		Status:      input.Status,
		Assignees:   input.AssigneeIDs,
		Tags:        input.Tags,
		Parent:      input.ParentTaskID,
	}
	if input.Priority != "" {
		level, ok := hierarchy.PriorityLevel(input.Priority)
		if !ok {
			return nil, mutateTaskOutput{}, fmt.Errorf("unknown priority %q", input.Priority)
		}
		body.Priority = level
	}
	if input.DueDate != nil {
		body.DueDate = *input.DueDate
	}
	if input.StartDate != nil {
		body.StartDate = *input.StartDate
	}

	task, err := s.upstream.CreateTask(ctx, token, input.ListID, body)
	if err != nil {
		return nil, mutateTaskOutput{}, err
	}
	return nil, mutateTaskOutput{Success: true, Task: newTaskDetail(task)}, nil
}

type updateTaskInput struct {
	TaskID      string `json:"taskId" jsonschema:"Task to update"`
	Name        string `json:"name,omitempty" jsonschema:"New task name"`
	Description string `json:"description,omitempty" jsonschema:"New description"`
	Status      string `json:"status,omitempty" jsonschema:"New status"`
	Priority    string `json:"priority,omitempty" jsonschema:"urgent, high, normal or low"`
	DueDate     *int64 `json:"dueDate,omitempty" jsonschema:"New due date as Unix milliseconds"`
	StartDate   *int64 `json:"startDate,omitempty" jsonschema:"New start date as Unix milliseconds"`
}

func (s *server) handleUpdateTask(ctx context.Context, req *mcpsdk.CallToolRequest, input updateTaskInput) (*mcpsdk.CallToolResult, mutateTaskOutput, error) {
	token, err := s.resolveToken(ctx, req)
	if err != nil {
		return nil, mutateTaskOutput{}, err
	}
	if input.TaskID == "" {
		return nil, mutateTaskOutput{}, fmt.Errorf("taskId is required")
	}

	body := clickup.UpdateTaskRequest{
		Name:        input.Name,
		Description: input.Description,
		Status:      input.Status,
	}
	if input.Priority != "" {
		level, ok := hierarchy.PriorityLevel(input.Priority)
		if !ok {
			return nil, mutateTaskOutput{}, fmt.Errorf("unknown priority %q", input.Priority)
		}
		body.Priority = level
	}
	if input.DueDate != nil {
		body.DueDate = *input.DueDate
	}
	if input.StartDate != nil {
		body.StartDate = *input.StartDate
	}

	task, err := s.upstream.UpdateTask(ctx, token, input.TaskID, body)
	if err != nil {
		return nil, mutateTaskOutput{}, err
	}
	return nil, mutateTaskOutput{Success: true, Task: newTaskDetail(task)}, nil
}
