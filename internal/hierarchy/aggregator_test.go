package hierarchy

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/mattyatea/ClickUp-MCP/internal/clickup"
)

func boolp(v bool) *bool { return &v }

func twoTeams() func() ([]clickup.Team, error) {
	return func() ([]clickup.Team, error) {
		return []clickup.Team{{ID: "W1", Name: "One"}, {ID: "W2", Name: "Two"}}, nil
	}
}

func TestAssignedToMeBindsIdentity(t *testing.T) {
	var seen url.Values
	api := &fakeAPI{
		user: func() (clickup.User, error) {
			return clickup.User{ID: 42, Username: "me"}, nil
		},
		teams: func() ([]clickup.Team, error) {
			return []clickup.Team{{ID: "W1", Name: "One"}}, nil
		},
		tasks: func(teamID string, params url.Values) (clickup.TaskPage, error) {
			seen = params
			return clickup.TaskPage{Tasks: []clickup.Task{{ID: "t1", Name: "Mine"}}}, nil
		},
	}

	result, err := NewAggregator(api).AssignedToMe(context.Background(), "tok", "", TaskQueryOptions{})
	if err != nil {
		t.Fatalf("AssignedToMe: %v", err)
	}
	if got := seen["assignees[]"]; len(got) != 1 || got[0] != "42" {
		t.Errorf("assignees param = %v, want [42]", got)
	}
	if result.TotalTasks != 1 || result.Tasks[0].WorkspaceID != "W1" {
		t.Errorf("result = %+v", result)
	}
}

func TestAssignedToMeIdentityFailureFatal(t *testing.T) {
	api := &fakeAPI{
		user:  func() (clickup.User, error) { return clickup.User{}, errBoom("identity") },
		teams: twoTeams(),
	}
	if _, err := NewAggregator(api).AssignedToMe(context.Background(), "tok", "", TaskQueryOptions{}); err == nil {
		t.Fatal("expected error when identity resolution fails")
	}
}

func TestAssignedToMeWorkspaceFailureIsolated(t *testing.T) {
	api := &fakeAPI{
		teams: twoTeams(),
		tasks: func(teamID string, params url.Values) (clickup.TaskPage, error) {
			if teamID == "W2" {
				return clickup.TaskPage{}, &clickup.APIError{Status: 500, Body: "boom"}
			}
			return clickup.TaskPage{Tasks: []clickup.Task{{ID: "t1", Name: "A"}, {ID: "t2", Name: "B"}}}, nil
		},
	}

	result, err := NewAggregator(api).AssignedToMe(context.Background(), "tok", "", TaskQueryOptions{})
	if err != nil {
		t.Fatalf("AssignedToMe: %v", err)
	}
	if !result.Success {
		t.Error("Success = false on partial failure")
	}
	if result.TotalTasks != 2 {
		t.Errorf("TotalTasks = %d, want 2", result.TotalTasks)
	}
	for _, task := range result.Tasks {
		if task.WorkspaceID != "W1" {
			t.Errorf("task from unexpected workspace: %+v", task)
		}
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "W2") {
		t.Errorf("Warnings = %v", result.Warnings)
	}
}

func TestSearchForcesClosedTasks(t *testing.T) {
	var seen url.Values
	api := &fakeAPI{
		teams: func() ([]clickup.Team, error) {
			return []clickup.Team{{ID: "W1", Name: "One"}}, nil
		},
		tasks: func(teamID string, params url.Values) (clickup.TaskPage, error) {
			seen = params
			return clickup.TaskPage{}, nil
		},
	}

	_, err := NewAggregator(api).Search(context.Background(), "tok", "", "deploy", TaskQueryOptions{IncludeClosed: false})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if seen.Get("search") != "deploy" {
		t.Errorf("search = %q", seen.Get("search"))
	}
	if seen.Get("include_closed") != "true" {
		t.Errorf("include_closed = %q, want forced true", seen.Get("include_closed"))
	}
}

func TestFilterAppliesLocalResidual(t *testing.T) {
	match := clickup.Task{ID: "ok", Name: "ok", CustomFields: []clickup.CustomField{
		{ID: "f1", Value: json.RawMessage(`15`)},
	}}
	miss := clickup.Task{ID: "no", Name: "no", CustomFields: []clickup.CustomField{
		{ID: "f1", Value: json.RawMessage(`25`)},
	}}
	api := &fakeAPI{
		teams: func() ([]clickup.Team, error) {
			return []clickup.Team{{ID: "W1", Name: "One"}}, nil
		},
		tasks: func(teamID string, params url.Values) (clickup.TaskPage, error) {
			return clickup.TaskPage{Tasks: []clickup.Task{match, miss}}, nil
		},
	}

	result, err := NewAggregator(api).Filter(context.Background(), "tok", "", SearchFilter{
		CustomFields: map[string]any{"f1": map[string]any{"min": 10.0, "max": 20.0}},
	})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if result.TotalTasks != 1 || result.Tasks[0].ID != "ok" {
		t.Errorf("tasks = %+v", result.Tasks)
	}
}

func TestTaskParamsCarryLimit(t *testing.T) {
	var seen url.Values
	api := &fakeAPI{
		teams: func() ([]clickup.Team, error) {
			return []clickup.Team{{ID: "W1", Name: "One"}}, nil
		},
		tasks: func(teamID string, params url.Values) (clickup.TaskPage, error) {
			seen = params
			return clickup.TaskPage{}, nil
		},
	}
	agg := NewAggregator(api)

	if _, err := agg.Search(context.Background(), "tok", "", "x", TaskQueryOptions{Limit: 10}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if seen.Get("limit") != "10" {
		t.Errorf("limit = %q, want 10", seen.Get("limit"))
	}

	if _, err := agg.Search(context.Background(), "tok", "", "x", TaskQueryOptions{}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if seen.Get("limit") != "50" {
		t.Errorf("default limit = %q, want 50", seen.Get("limit"))
	}
}

func TestMergedPageTrimmedToLimit(t *testing.T) {
	api := &fakeAPI{
		teams: twoTeams(),
		tasks: func(teamID string, params url.Values) (clickup.TaskPage, error) {
			tasks := make([]clickup.Task, 8)
			for i := range tasks {
				tasks[i] = clickup.Task{ID: teamID, Name: "t"}
			}
			return clickup.TaskPage{Tasks: tasks}, nil
		},
	}

	result, err := NewAggregator(api).Search(context.Background(), "tok", "", "x", TaskQueryOptions{Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result.Tasks) != 10 || result.TotalTasks != 10 {
		t.Errorf("merged page = %d tasks (TotalTasks %d), want 10", len(result.Tasks), result.TotalTasks)
	}
	if !result.Pagination.HasMore {
		t.Error("HasMore = false after trimming fetched tasks")
	}
	if result.Pagination.Limit != 10 {
		t.Errorf("Pagination.Limit = %d", result.Pagination.Limit)
	}
}

func TestHasMoreExplicitSignal(t *testing.T) {
	api := &fakeAPI{
		teams: twoTeams(),
		tasks: func(teamID string, params url.Values) (clickup.TaskPage, error) {
			if teamID == "W1" {
				return clickup.TaskPage{Tasks: []clickup.Task{{ID: "t1"}}, LastPage: boolp(false)}, nil
			}
			return clickup.TaskPage{LastPage: boolp(true)}, nil
		},
	}

	result, err := NewAggregator(api).Search(context.Background(), "tok", "", "x", TaskQueryOptions{Limit: 50})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !result.Pagination.HasMore {
		t.Error("HasMore = false despite an explicit last_page=false signal")
	}
	if result.Pagination.NextPage != 1 {
		t.Errorf("NextPage = %d, want 1", result.Pagination.NextPage)
	}
}

func TestHasMoreHeuristicFallback(t *testing.T) {
	makeAPI := func(count int) *fakeAPI {
		return &fakeAPI{
			teams: func() ([]clickup.Team, error) {
				return []clickup.Team{{ID: "W1", Name: "One"}}, nil
			},
			tasks: func(teamID string, params url.Values) (clickup.TaskPage, error) {
				tasks := make([]clickup.Task, count)
				for i := range tasks {
					tasks[i] = clickup.Task{ID: "t"}
				}
				return clickup.TaskPage{Tasks: tasks}, nil
			},
		}
	}

	full, err := NewAggregator(makeAPI(3)).Search(context.Background(), "tok", "", "x", TaskQueryOptions{Limit: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !full.Pagination.HasMore {
		t.Error("full page: HasMore = false")
	}

	short, err := NewAggregator(makeAPI(2)).Search(context.Background(), "tok", "", "x", TaskQueryOptions{Limit: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if short.Pagination.HasMore {
		t.Error("short page: HasMore = true")
	}
}
