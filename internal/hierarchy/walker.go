package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// ListLocation tags where a list hangs off its space.
type ListLocation string

const (
	// LocationSpace marks a list directly under a space.
	LocationSpace ListLocation = "space"
	// LocationFolder marks a list inside a folder.
	LocationFolder ListLocation = "folder"
)

// ListEntry is a list flattened out of the tree with its path metadata.
type ListEntry struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Location   ListLocation `json:"location"`
	SpaceID    string       `json:"spaceId"`
	SpaceName  string       `json:"spaceName"`
	FolderID   string       `json:"folderId,omitempty"`
	FolderName string       `json:"folderName,omitempty"`
	TaskCount  int          `json:"taskCount,omitempty"`
}

// WorkspaceLists groups the list entries of one workspace.
type WorkspaceLists struct {
	WorkspaceID   string      `json:"workspaceId"`
	WorkspaceName string      `json:"workspaceName"`
	Lists         []ListEntry `json:"lists"`
}

// TreeResult is the flattened traversal outcome. Success is true once
// workspace enumeration succeeded, even when branches below it failed;
// each failed branch leaves an entry in Warnings.
type TreeResult struct {
	Success    bool             `json:"success"`
	Groups     []WorkspaceLists `json:"workspaces"`
	TotalLists int              `json:"totalLists"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// Walker enumerates every list reachable from the in-scope workspaces.
type Walker struct {
	api    API
	fanOut int
	logger *slog.Logger
}

// WalkerOption customizes a Walker.
type WalkerOption func(*Walker)

// WithWalkerFanOut bounds concurrent workspace traversals.
func WithWalkerFanOut(n int) WalkerOption {
	return func(w *Walker) {
		if n > 0 {
			w.fanOut = n
		}
	}
}

// WithWalkerLogger sets the walker logger.
func WithWalkerLogger(l *slog.Logger) WalkerOption {
	return func(w *Walker) { w.logger = l }
}

// NewWalker creates a Walker over the given API.
func NewWalker(api API, opts ...WalkerOption) *Walker {
	w := &Walker{api: api, fanOut: defaultFanOut, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk traverses the in-scope workspaces depth first. The archived flag
// is passed through uniformly at every level. Workspaces are walked with
// a bounded concurrent fan-out; results merge by set union, so order
// carries no meaning.
func (w *Walker) Walk(ctx context.Context, token, workspaceID string, archived bool) (*TreeResult, error) {
	teams, err := resolveWorkspaces(ctx, w.api, token, workspaceID)
	if err != nil {
		return nil, err
	}

	result := &TreeResult{
		Success: true,
		Groups:  make([]WorkspaceLists, len(teams)),
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, w.fanOut)
	)
	for i, team := range teams {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			lists, warnings := w.walkWorkspace(ctx, token, team.ID, archived)
			mu.Lock()
			result.Groups[i] = WorkspaceLists{
				WorkspaceID:   team.ID,
				WorkspaceName: team.Name,
				Lists:         lists,
			}
			result.Warnings = append(result.Warnings, warnings...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, group := range result.Groups {
		result.TotalLists += len(group.Lists)
	}
	return result, nil
}

// walkWorkspace collects the lists of one workspace. Space and folder
// level failures are isolated: the failed branch contributes nothing and
// a warning, the rest of the traversal continues.
func (w *Walker) walkWorkspace(ctx context.Context, token, teamID string, archived bool) ([]ListEntry, []string) {
	var warnings []string

	spaces, err := w.api.SpacesForTeam(ctx, token, teamID, archived)
	if err != nil {
		w.logger.Warn("space enumeration failed", "workspace", teamID, "error", err)
		return nil, []string{fmt.Sprintf("workspace %s: spaces: %v", teamID, err)}
	}

	entries := []ListEntry{}
	for _, space := range spaces {
		direct, err := w.api.ListsForSpace(ctx, token, space.ID, archived)
		if err != nil {
			w.logger.Warn("space list fetch failed", "space", space.ID, "error", err)
			warnings = append(warnings, fmt.Sprintf("space %s: lists: %v", space.ID, err))
		}
		for _, list := range direct {
			entries = append(entries, ListEntry{
				ID:        list.ID,
				Name:      list.Name,
				Location:  LocationSpace,
				SpaceID:   space.ID,
				SpaceName: space.Name,
				TaskCount: list.TaskCount,
			})
		}

		folders, err := w.api.FoldersForSpace(ctx, token, space.ID, archived)
		if err != nil {
			w.logger.Warn("folder enumeration failed", "space", space.ID, "error", err)
			warnings = append(warnings, fmt.Sprintf("space %s: folders: %v", space.ID, err))
			continue
		}
		for _, folder := range folders {
			lists, err := w.api.ListsForFolder(ctx, token, folder.ID, archived)
			if err != nil {
				w.logger.Warn("folder list fetch failed", "folder", folder.ID, "error", err)
				warnings = append(warnings, fmt.Sprintf("folder %s: lists: %v", folder.ID, err))
				continue
			}
			for _, list := range lists {
				entries = append(entries, ListEntry{
					ID:         list.ID,
					Name:       list.Name,
					Location:   LocationFolder,
					SpaceID:    space.ID,
					SpaceName:  space.Name,
					FolderID:   folder.ID,
					FolderName: folder.Name,
					TaskCount:  list.TaskCount,
				})
			}
		}
	}
	return entries, warnings
}
