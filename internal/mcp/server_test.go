package mcp

import (
	"context"
	"net/url"
	"time"

	mcpauth "github.com/modelcontextprotocol/go-sdk/auth"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mattyatea/ClickUp-MCP/internal/clickup"
	"github.com/mattyatea/ClickUp-MCP/internal/storage"
)

// fakeUpstream implements Upstream with nilable hooks; unset hooks
// return zero values so each test only wires what it exercises.
type fakeUpstream struct {
	authorizedUser  func(ctx context.Context, token string) (clickup.User, error)
	authorizedTeams func(ctx context.Context, token string) ([]clickup.Team, error)
	spacesForTeam   func(ctx context.Context, token, teamID string, archived bool) ([]clickup.Space, error)
	foldersForSpace func(ctx context.Context, token, spaceID string, archived bool) ([]clickup.Folder, error)
	listsForFolder  func(ctx context.Context, token, folderID string, archived bool) ([]clickup.List, error)
	listsForSpace   func(ctx context.Context, token, spaceID string, archived bool) ([]clickup.List, error)
	teamTasks       func(ctx context.Context, token, teamID string, params url.Values) (clickup.TaskPage, error)
	taskByID        func(ctx context.Context, token, taskID string, includeSubtasks bool) (clickup.Task, error)
	taskComments    func(ctx context.Context, token, taskID string) ([]clickup.Comment, error)
	createTask      func(ctx context.Context, token, listID string, req clickup.CreateTaskRequest) (clickup.Task, error)
	updateTask      func(ctx context.Context, token, taskID string, req clickup.UpdateTaskRequest) (clickup.Task, error)
}

func (f *fakeUpstream) AuthorizedUser(ctx context.Context, token string) (clickup.User, error) {
	if f.authorizedUser == nil {
		return clickup.User{ID: 1, Username: "me"}, nil
	}
	return f.authorizedUser(ctx, token)
}

func (f *fakeUpstream) AuthorizedTeams(ctx context.Context, token string) ([]clickup.Team, error) {
	if f.authorizedTeams == nil {
		return []clickup.Team{{ID: "W1", Name: "One"}}, nil
	}
	return f.authorizedTeams(ctx, token)
}

func (f *fakeUpstream) SpacesForTeam(ctx context.Context, token, teamID string, archived bool) ([]clickup.Space, error) {
	if f.spacesForTeam == nil {
		return nil, nil
	}
	return f.spacesForTeam(ctx, token, teamID, archived)
}

func (f *fakeUpstream) FoldersForSpace(ctx context.Context, token, spaceID string, archived bool) ([]clickup.Folder, error) {
	if f.foldersForSpace == nil {
		return nil, nil
	}
	return f.foldersForSpace(ctx, token, spaceID, archived)
}

func (f *fakeUpstream) ListsForFolder(ctx context.Context, token, folderID string, archived bool) ([]clickup.List, error) {
	if f.listsForFolder == nil {
		return nil, nil
	}
	return f.listsForFolder(ctx, token, folderID, archived)
}

func (f *fakeUpstream) ListsForSpace(ctx context.Context, token, spaceID string, archived bool) ([]clickup.List, error) {
	if f.listsForSpace == nil {
		return nil, nil
	}
	return f.listsForSpace(ctx, token, spaceID, archived)
}

func (f *fakeUpstream) TeamTasks(ctx context.Context, token, teamID string, params url.Values) (clickup.TaskPage, error) {
	if f.teamTasks == nil {
		return clickup.TaskPage{}, nil
	}
	return f.teamTasks(ctx, token, teamID, params)
}

func (f *fakeUpstream) TaskByID(ctx context.Context, token, taskID string, includeSubtasks bool) (clickup.Task, error) {
	if f.taskByID == nil {
		return clickup.Task{ID: taskID}, nil
	}
	return f.taskByID(ctx, token, taskID, includeSubtasks)
}

func (f *fakeUpstream) TaskComments(ctx context.Context, token, taskID string) ([]clickup.Comment, error) {
	if f.taskComments == nil {
		return nil, nil
	}
	return f.taskComments(ctx, token, taskID)
}

func (f *fakeUpstream) CreateTask(ctx context.Context, token, listID string, req clickup.CreateTaskRequest) (clickup.Task, error) {
	if f.createTask == nil {
		return clickup.Task{ID: "new", Name: req.Name}, nil
	}
	return f.createTask(ctx, token, listID, req)
}

func (f *fakeUpstream) UpdateTask(ctx context.Context, token, taskID string, req clickup.UpdateTaskRequest) (clickup.Task, error) {
	if f.updateTask == nil {
		return clickup.Task{ID: taskID, Name: req.Name}, nil
	}
	return f.updateTask(ctx, token, taskID, req)
}

// memStore is an in-memory storage.Store for handler tests.
type memStore struct {
	records map[string]storage.TokenRecord
}

func newMemStore() *memStore {
	return &memStore{records: map[string]storage.TokenRecord{}}
}

func (m *memStore) Put(_ context.Context, key string, record storage.TokenRecord, _ time.Duration) error {
	m.records[key] = record
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (storage.TokenRecord, error) {
	record, ok := m.records[key]
	if !ok {
		return storage.TokenRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (m *memStore) List(_ context.Context) ([]string, error) {
	keys := make([]string, 0, len(m.records))
	for key := range m.records {
		keys = append(keys, key)
	}
	return keys, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.records, key)
	return nil
}

func (m *memStore) Close() error { return nil }

func bearerRequest(bearer string) *mcpsdk.CallToolRequest {
	return &mcpsdk.CallToolRequest{
		Extra: &mcpsdk.RequestExtra{TokenInfo: &mcpauth.TokenInfo{UserID: bearer}},
	}
}
