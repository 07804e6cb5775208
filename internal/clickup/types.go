package clickup

import "encoding/json"

// Team is the top-level organizational unit ("workspace" in product
// terms, "team" on the wire).
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Space is a containment level directly under a Team.
type Space struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Private  bool   `json:"private,omitempty"`
	Archived bool   `json:"archived,omitempty"`
}

// Folder groups lists inside a space.
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Hidden   bool   `json:"hidden,omitempty"`
	Archived bool   `json:"archived,omitempty"`
}

// List is the immediate parent of tasks. It may live directly under a
// space or inside a folder.
type List struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TaskCount int    `json:"task_count,omitempty"`
	Archived  bool   `json:"archived,omitempty"`
}

// User is a ClickUp member. The API serializes ids as numbers.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Initials string `json:"initials,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Status is a task status value.
type Status struct {
	Status     string `json:"status"`
	Color      string `json:"color,omitempty"`
	Type       string `json:"type,omitempty"`
	Orderindex any    `json:"orderindex,omitempty"`
}

// Priority is a task priority. The wire value is the numeric level as a
// string ("1" = urgent … "4" = low).
type Priority struct {
	ID       string `json:"id,omitempty"`
	Priority string `json:"priority"`
	Color    string `json:"color,omitempty"`
}

// Tag is a task tag.
type Tag struct {
	Name  string `json:"name"`
	TagBg string `json:"tag_bg,omitempty"`
	TagFg string `json:"tag_fg,omitempty"`
}

// CustomField is a task custom field with its current value. Value is
// left raw because its shape depends on the field type.
type CustomField struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Type  string          `json:"type,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// TaskLocation references the containers a task belongs to.
type TaskLocation struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Task is the upstream task shape. Timestamp fields are Unix-millisecond
// values serialized as strings, or null.
type Task struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Status       Status        `json:"status"`
	Priority     *Priority     `json:"priority"`
	Assignees    []User        `json:"assignees,omitempty"`
	Creator      *User         `json:"creator,omitempty"`
	Tags         []Tag         `json:"tags,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
	DueDate      *string       `json:"due_date"`
	StartDate    *string       `json:"start_date"`
	DateCreated  *string       `json:"date_created"`
	DateUpdated  *string       `json:"date_updated"`
	Parent       *string       `json:"parent,omitempty"`
	List         *TaskLocation `json:"list,omitempty"`
	Folder       *TaskLocation `json:"folder,omitempty"`
	Space        *TaskLocation `json:"space,omitempty"`
	URL          string        `json:"url,omitempty"`
	Archived     bool          `json:"archived,omitempty"`
	// Subtasks is only populated when the fetch asked for them.
	Subtasks []Task `json:"subtasks,omitempty"`
}

// CommentText is one fragment of a structured comment.
type CommentText struct {
	Text string `json:"text"`
	Type string `json:"type,omitempty"`
}

// Comment is a task comment.
type Comment struct {
	ID          string        `json:"id"`
	Comment     []CommentText `json:"comment,omitempty"`
	CommentText string        `json:"comment_text"`
	User        User          `json:"user"`
	Date        string        `json:"date"`
	ReplyCount  any           `json:"reply_count,omitempty"`
}

// TaskPage is one page of a team task query. LastPage is only present on
// some endpoints; nil means the server gave no signal.
type TaskPage struct {
	Tasks    []Task `json:"tasks"`
	LastPage *bool  `json:"last_page,omitempty"`
}
