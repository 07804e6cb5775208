package hierarchy

import (
	"strconv"
	"time"

	"github.com/mattyatea/ClickUp-MCP/internal/clickup"
)

// DefaultPageSize is the page size used when the caller does not name one.
const DefaultPageSize = 50

// TaskRecord is the normalized task projection returned to callers,
// decorated with its originating workspace. Each *Text field is the
// human-readable form of the raw Unix-millisecond value next to it, and
// is nil exactly when the raw value is nil, zero, or unparsable.
type TaskRecord struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Status    string   `json:"status,omitempty"`
	Priority  string   `json:"priority,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
	Tags      []string `json:"tags,omitempty"`

	DueDate     *string `json:"dueDate"`
	DueDateText *string `json:"dueDateText"`
	StartDate   *string `json:"startDate"`
	StartText   *string `json:"startDateText"`
	CreatedAt   *string `json:"createdAt"`
	CreatedText *string `json:"createdAtText"`
	UpdatedAt   *string `json:"updatedAt"`
	UpdatedText *string `json:"updatedAtText"`

	ListName      string `json:"listName,omitempty"`
	FolderName    string `json:"folderName,omitempty"`
	SpaceName     string `json:"spaceName,omitempty"`
	WorkspaceID   string `json:"workspaceId,omitempty"`
	WorkspaceName string `json:"workspaceName,omitempty"`
	URL           string `json:"url,omitempty"`
}

// NewTaskRecord projects an upstream task, tagging it with the workspace
// it came from.
func NewTaskRecord(task clickup.Task, workspace clickup.Team) TaskRecord {
	rec := TaskRecord{
		ID:            task.ID,
		Name:          task.Name,
		Status:        task.Status.Status,
		WorkspaceID:   workspace.ID,
		WorkspaceName: workspace.Name,
		URL:           task.URL,
	}
	if task.Priority != nil {
		rec.Priority = task.Priority.Priority
	}
	for _, user := range task.Assignees {
		rec.Assignees = append(rec.Assignees, user.Username)
	}
	for _, tag := range task.Tags {
		rec.Tags = append(rec.Tags, tag.Name)
	}
	if task.List != nil {
		rec.ListName = task.List.Name
	}
	if task.Folder != nil {
		rec.FolderName = task.Folder.Name
	}
	if task.Space != nil {
		rec.SpaceName = task.Space.Name
	}

	rec.DueDate, rec.DueDateText = timestampPair(task.DueDate)
	rec.StartDate, rec.StartText = timestampPair(task.StartDate)
	rec.CreatedAt, rec.CreatedText = timestampPair(task.DateCreated)
	rec.UpdatedAt, rec.UpdatedText = timestampPair(task.DateUpdated)
	return rec
}

// timestampPair keeps the raw Unix-millisecond string and derives the
// human-readable form. Bad input degrades to nil on both sides; it never
// produces an error.
func timestampPair(raw *string) (*string, *string) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	millis, err := strconv.ParseInt(*raw, 10, 64)
	if err != nil || millis == 0 {
		return nil, nil
	}
	text := time.UnixMilli(millis).UTC().Format(time.RFC3339)
	return raw, &text
}
