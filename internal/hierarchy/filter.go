package hierarchy

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mattyatea/ClickUp-MCP/internal/clickup"
)

// SearchFilter is the caller-supplied criteria object. Everything except
// CustomFields is pushed into the upstream query string; CustomFields is
// evaluated locally after the page comes back, because the team task
// endpoint cannot filter on them.
type SearchFilter struct {
	SearchTerm  string   `json:"searchTerm,omitempty"`
	Statuses    []string `json:"statuses,omitempty"`
	Priorities  []string `json:"priorities,omitempty"`
	AssigneeIDs []string `json:"assigneeIds,omitempty"`
	CreatorIDs  []string `json:"creatorIds,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	DueDateFrom     *int64 `json:"dueDateFrom,omitempty"`
	DueDateTo       *int64 `json:"dueDateTo,omitempty"`
	StartDateFrom   *int64 `json:"startDateFrom,omitempty"`
	StartDateTo     *int64 `json:"startDateTo,omitempty"`
	CreatedDateFrom *int64 `json:"createdDateFrom,omitempty"`
	CreatedDateTo   *int64 `json:"createdDateTo,omitempty"`
	UpdatedDateFrom *int64 `json:"updatedDateFrom,omitempty"`
	UpdatedDateTo   *int64 `json:"updatedDateTo,omitempty"`

	ParentTaskID    string `json:"parentTaskId,omitempty"`
	OrderBy         string `json:"orderBy,omitempty"`
	IncludeSubtasks bool   `json:"includeSubtasks,omitempty"`
	IncludeArchived bool   `json:"includeArchived,omitempty"`
	IncludeClosed   bool   `json:"includeClosed,omitempty"`

	// CustomFields maps field id to an expected scalar, a set of
	// acceptable values, or a {min,max} numeric range.
	CustomFields map[string]any `json:"customFields,omitempty"`

	Limit int `json:"limit,omitempty"`
	Page  int `json:"page,omitempty"`
}

// priorityLevels maps the symbolic priority names to the upstream
// numeric levels.
var priorityLevels = map[string]int{
	"urgent": 1,
	"high":   2,
	"normal": 3,
	"low":    4,
}

// PriorityLevel resolves a symbolic priority name to its upstream
// numeric level.
func PriorityLevel(name string) (int, bool) {
	level, ok := priorityLevels[name]
	return level, ok
}

// orderByFields are the sort keys the team task endpoint accepts.
var orderByFields = map[string]bool{
	"id":       true,
	"created":  true,
	"updated":  true,
	"due_date": true,
}

// CompiledFilter is the split form of a SearchFilter: remote query
// parameters plus the residual local predicate.
type CompiledFilter struct {
	Params url.Values
	Limit  int
	Page   int

	rules []customFieldRule
}

type customFieldRule struct {
	fieldID string
	match   func(value any) bool
}

// Compile splits the filter. All remote fields are conjunctive; each
// date-range bound is independent, so a missing "from" or "to" simply
// omits that constraint. An unknown priority name is a caller error.
func (f SearchFilter) Compile() (*CompiledFilter, error) {
	params := url.Values{}

	if f.SearchTerm != "" {
		params.Set("search", f.SearchTerm)
	}
	for _, s := range f.Statuses {
		params.Add("statuses[]", s)
	}
	for _, p := range f.Priorities {
		level, ok := priorityLevels[p]
		if !ok {
			return nil, fmt.Errorf("unknown priority %q", p)
		}
		params.Add("priorities[]", strconv.Itoa(level))
	}
	for _, id := range f.AssigneeIDs {
		params.Add("assignees[]", id)
	}
	for _, id := range f.CreatorIDs {
		params.Add("creators[]", id)
	}
	for _, tag := range f.Tags {
		params.Add("tags[]", tag)
	}
	if f.ParentTaskID != "" {
		params.Set("parent", f.ParentTaskID)
	}
	if f.OrderBy != "" {
		if !orderByFields[f.OrderBy] {
			return nil, fmt.Errorf("unknown order_by %q", f.OrderBy)
		}
		params.Set("order_by", f.OrderBy)
	}

	setBound(params, "due_date_gt", f.DueDateFrom)
	setBound(params, "due_date_lt", f.DueDateTo)
	setBound(params, "start_date_gt", f.StartDateFrom)
	setBound(params, "start_date_lt", f.StartDateTo)
	setBound(params, "date_created_gt", f.CreatedDateFrom)
	setBound(params, "date_created_lt", f.CreatedDateTo)
	setBound(params, "date_updated_gt", f.UpdatedDateFrom)
	setBound(params, "date_updated_lt", f.UpdatedDateTo)

	if f.IncludeSubtasks {
		params.Set("subtasks", "true")
	}
	if f.IncludeArchived {
		params.Set("archived", "true")
	}
	params.Set("include_closed", strconv.FormatBool(f.IncludeClosed))

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	page := f.Page
	if page < 0 {
		page = 0
	}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("page", strconv.Itoa(page))

	cf := &CompiledFilter{Params: params, Limit: limit, Page: page}
	for fieldID, expected := range f.CustomFields {
		rule, err := compileCustomFieldRule(fieldID, expected)
		if err != nil {
			return nil, err
		}
		cf.rules = append(cf.rules, rule)
	}
	return cf, nil
}

// Match applies the residual local predicate. A task missing a named
// custom field is excluded, never treated as vacuously matching.
func (cf *CompiledFilter) Match(task clickup.Task) bool {
	for _, rule := range cf.rules {
		value, ok := customFieldValue(task, rule.fieldID)
		if !ok {
			return false
		}
		if !rule.match(value) {
			return false
		}
	}
	return true
}

// Apply retains the tasks matching the local predicate. The input page
// was already cut upstream, so the output can be shorter than the
// requested page size.
func (cf *CompiledFilter) Apply(tasks []clickup.Task) []clickup.Task {
	if len(cf.rules) == 0 {
		return tasks
	}
	out := make([]clickup.Task, 0, len(tasks))
	for _, task := range tasks {
		if cf.Match(task) {
			out = append(out, task)
		}
	}
	return out
}

func setBound(params url.Values, key string, bound *int64) {
	if bound != nil {
		params.Set(key, strconv.FormatInt(*bound, 10))
	}
}

func customFieldValue(task clickup.Task, fieldID string) (any, bool) {
	for _, field := range task.CustomFields {
		if field.ID != fieldID {
			continue
		}
		if len(field.Value) == 0 {
			return nil, false
		}
		var value any
		if err := json.Unmarshal(field.Value, &value); err != nil {
			return nil, false
		}
		if value == nil {
			return nil, false
		}
		return value, true
	}
	return nil, false
}

func compileCustomFieldRule(fieldID string, expected any) (customFieldRule, error) {
	switch want := expected.(type) {
	case map[string]any:
		min, hasMin, err := rangeBound(want, "min")
		if err != nil {
			return customFieldRule{}, fmt.Errorf("custom field %s: %w", fieldID, err)
		}
		max, hasMax, err := rangeBound(want, "max")
		if err != nil {
			return customFieldRule{}, fmt.Errorf("custom field %s: %w", fieldID, err)
		}
		if !hasMin && !hasMax {
			return customFieldRule{}, fmt.Errorf("custom field %s: range needs min or max", fieldID)
		}
		return customFieldRule{fieldID: fieldID, match: func(value any) bool {
			n, ok := asNumber(value)
			if !ok {
				return false
			}
			if hasMin && n < min {
				return false
			}
			if hasMax && n > max {
				return false
			}
			return true
		}}, nil
	case []any:
		members := want
		return customFieldRule{fieldID: fieldID, match: func(value any) bool {
			for _, member := range members {
				if looseEqual(value, member) {
					return true
				}
			}
			return false
		}}, nil
	default:
		return customFieldRule{fieldID: fieldID, match: func(value any) bool {
			return looseEqual(value, expected)
		}}, nil
	}
}

func rangeBound(m map[string]any, key string) (float64, bool, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	n, ok := asNumber(raw)
	if !ok {
		return 0, false, fmt.Errorf("%s bound %v is not numeric", key, raw)
	}
	return n, true, nil
}

// asNumber coerces JSON scalars to float64; upstream often serializes
// numeric field values as strings.
func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(v, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func looseEqual(a, b any) bool {
	if an, ok := asNumber(a); ok {
		if bn, ok := asNumber(b); ok {
			return an == bn
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
