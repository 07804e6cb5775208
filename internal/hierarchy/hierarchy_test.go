package hierarchy

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mattyatea/ClickUp-MCP/internal/clickup"
)

// fakeAPI implements API with per-call hooks; nil hooks return empty.
type fakeAPI struct {
	user    func() (clickup.User, error)
	teams   func() ([]clickup.Team, error)
	spaces  func(teamID string) ([]clickup.Space, error)
	folders func(spaceID string) ([]clickup.Folder, error)
	folderL func(folderID string) ([]clickup.List, error)
	spaceL  func(spaceID string) ([]clickup.List, error)
	tasks   func(teamID string, params url.Values) (clickup.TaskPage, error)
}

func (f *fakeAPI) AuthorizedUser(context.Context, string) (clickup.User, error) {
	if f.user == nil {
		return clickup.User{ID: 7, Username: "me"}, nil
	}
	return f.user()
}

func (f *fakeAPI) AuthorizedTeams(context.Context, string) ([]clickup.Team, error) {
	if f.teams == nil {
		return nil, nil
	}
	return f.teams()
}

func (f *fakeAPI) SpacesForTeam(_ context.Context, _, teamID string, _ bool) ([]clickup.Space, error) {
	if f.spaces == nil {
		return nil, nil
	}
	return f.spaces(teamID)
}

func (f *fakeAPI) FoldersForSpace(_ context.Context, _, spaceID string, _ bool) ([]clickup.Folder, error) {
	if f.folders == nil {
		return nil, nil
	}
	return f.folders(spaceID)
}

func (f *fakeAPI) ListsForFolder(_ context.Context, _, folderID string, _ bool) ([]clickup.List, error) {
	if f.folderL == nil {
		return nil, nil
	}
	return f.folderL(folderID)
}

func (f *fakeAPI) ListsForSpace(_ context.Context, _, spaceID string, _ bool) ([]clickup.List, error) {
	if f.spaceL == nil {
		return nil, nil
	}
	return f.spaceL(spaceID)
}

func (f *fakeAPI) TeamTasks(_ context.Context, _, teamID string, params url.Values) (clickup.TaskPage, error) {
	if f.tasks == nil {
		return clickup.TaskPage{}, nil
	}
	return f.tasks(teamID, params)
}

func errBoom(what string) error { return fmt.Errorf("%s exploded", what) }
