// Package hierarchy walks the ClickUp containment tree (workspace →
// space → folder → list → task) and aggregates per-workspace results
// into flat, location-tagged collections. Branch failures below the
// workspace-enumeration root are isolated: a failed space or folder
// contributes zero entries plus a warning, never an aborted traversal.
package hierarchy

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mattyatea/ClickUp-MCP/internal/clickup"
)

// API is the slice of the ClickUp client the aggregation engine needs.
type API interface {
	AuthorizedUser(ctx context.Context, token string) (clickup.User, error)
	AuthorizedTeams(ctx context.Context, token string) ([]clickup.Team, error)
	SpacesForTeam(ctx context.Context, token, teamID string, archived bool) ([]clickup.Space, error)
	FoldersForSpace(ctx context.Context, token, spaceID string, archived bool) ([]clickup.Folder, error)
	ListsForFolder(ctx context.Context, token, folderID string, archived bool) ([]clickup.List, error)
	ListsForSpace(ctx context.Context, token, spaceID string, archived bool) ([]clickup.List, error)
	TeamTasks(ctx context.Context, token, teamID string, params url.Values) (clickup.TaskPage, error)
}

// defaultFanOut bounds concurrent per-workspace fetches.
const defaultFanOut = 4

// resolveWorkspaces returns the workspace set in scope: the single named
// workspace, or every workspace visible to the token. Enumeration failure
// is fatal; there is nothing to iterate without it. A named workspace
// missing from the visible set is synthesized with a placeholder name
// rather than rejected, since visibility lists can lag behind grants.
func resolveWorkspaces(ctx context.Context, api API, token, workspaceID string) ([]clickup.Team, error) {
	teams, err := api.AuthorizedTeams(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("enumerate workspaces: %w", err)
	}
	if workspaceID == "" {
		return teams, nil
	}
	for _, team := range teams {
		if team.ID == workspaceID {
			return []clickup.Team{team}, nil
		}
	}
	return []clickup.Team{{ID: workspaceID, Name: "Workspace " + workspaceID}}, nil
}
