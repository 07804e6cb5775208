package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
)

// Pagination describes the merged page handed back to the caller.
// NextPage is only meaningful when HasMore is true.
type Pagination struct {
	Limit    int  `json:"limit"`
	Page     int  `json:"page"`
	HasMore  bool `json:"hasMore"`
	NextPage int  `json:"nextPage,omitempty"`
}

// TaskResult is one merged, paginated task query across the in-scope
// workspaces. As with TreeResult, Success reflects only the root fetch;
// failed workspace branches surface through Warnings.
type TaskResult struct {
	Success    bool         `json:"success"`
	Tasks      []TaskRecord `json:"tasks"`
	TotalTasks int          `json:"totalTasks"`
	Warnings   []string     `json:"warnings,omitempty"`
	Pagination Pagination   `json:"pagination"`
}

// TaskQueryOptions are the pass-through knobs shared by the assigned-to-me
// and keyword-search modes.
type TaskQueryOptions struct {
	Statuses        []string `json:"statuses,omitempty"`
	IncludeClosed   bool     `json:"includeClosed,omitempty"`
	IncludeSubtasks bool     `json:"includeSubtasks,omitempty"`
	Limit           int      `json:"limit,omitempty"`
	Page            int      `json:"page,omitempty"`
}

// Aggregator fans task queries out across workspaces and merges the
// per-workspace pages into one logical page.
type Aggregator struct {
	api    API
	fanOut int
	logger *slog.Logger
}

// AggregatorOption customizes an Aggregator.
type AggregatorOption func(*Aggregator)

// WithAggregatorFanOut bounds concurrent per-workspace task fetches.
func WithAggregatorFanOut(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.fanOut = n
		}
	}
}

// WithAggregatorLogger sets the aggregator logger.
func WithAggregatorLogger(l *slog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = l }
}

// NewAggregator creates an Aggregator over the given API.
func NewAggregator(api API, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{api: api, fanOut: defaultFanOut, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AssignedToMe returns the tasks assigned to the identity behind the
// token. Identity resolution is a root fetch: its failure is fatal.
func (a *Aggregator) AssignedToMe(ctx context.Context, token, workspaceID string, opts TaskQueryOptions) (*TaskResult, error) {
	me, err := a.api.AuthorizedUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}

	params := baseTaskParams(opts)
	params.Add("assignees[]", strconv.FormatInt(me.ID, 10))
	return a.aggregate(ctx, token, workspaceID, params, nil, pageSize(opts.Limit), opts.Page)
}

// Search runs a keyword query. Closed tasks are force-included: history
// is part of what a keyword search is for.
func (a *Aggregator) Search(ctx context.Context, token, workspaceID, keyword string, opts TaskQueryOptions) (*TaskResult, error) {
	params := baseTaskParams(opts)
	params.Set("search", keyword)
	params.Set("include_closed", "true")
	return a.aggregate(ctx, token, workspaceID, params, nil, pageSize(opts.Limit), opts.Page)
}

// Filter runs an advanced filter query: the compiled remote parameters go
// upstream, the custom-field residual is applied to the fetched page.
func (a *Aggregator) Filter(ctx context.Context, token, workspaceID string, filter SearchFilter) (*TaskResult, error) {
	compiled, err := filter.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	return a.aggregate(ctx, token, workspaceID, compiled.Params, compiled, compiled.Limit, compiled.Page)
}

// aggregate is the shared fan-out/merge core. Each workspace page is
// fetched independently; a failed workspace contributes zero tasks and a
// warning. The local filter, when present, runs after upstream
// pagination, so the returned count can undershoot the page size.
func (a *Aggregator) aggregate(ctx context.Context, token, workspaceID string, params url.Values, local *CompiledFilter, limit, page int) (*TaskResult, error) {
	teams, err := resolveWorkspaces(ctx, a.api, token, workspaceID)
	if err != nil {
		return nil, err
	}

	type branch struct {
		tasks    []TaskRecord
		lastPage *bool
		warning  string
		fetched  int
	}
	branches := make([]branch, len(teams))

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, a.fanOut)
	)
	for i, team := range teams {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			taskPage, err := a.api.TeamTasks(ctx, token, team.ID, params)
			if err != nil {
				a.logger.Warn("workspace task fetch failed", "workspace", team.ID, "error", err)
				branches[i] = branch{warning: fmt.Sprintf("workspace %s: tasks: %v", team.ID, err)}
				return
			}

			fetched := len(taskPage.Tasks)
			kept := taskPage.Tasks
			if local != nil {
				kept = local.Apply(kept)
			}
			records := make([]TaskRecord, 0, len(kept))
			for _, task := range kept {
				records = append(records, NewTaskRecord(task, team))
			}
			branches[i] = branch{tasks: records, lastPage: taskPage.LastPage, fetched: fetched}
		}()
	}
	wg.Wait()

	result := &TaskResult{Success: true, Tasks: []TaskRecord{}}
	fetchedTotal := 0
	explicitMore := false
	explicitSignal := false
	for _, b := range branches {
		if b.warning != "" {
			result.Warnings = append(result.Warnings, b.warning)
			continue
		}
		result.Tasks = append(result.Tasks, b.tasks...)
		fetchedTotal += b.fetched
		if b.lastPage != nil {
			explicitSignal = true
			if !*b.lastPage {
				explicitMore = true
			}
		}
	}
	// Prefer the upstream last_page signal; fall back to the
	// fetched-count heuristic, which false-positives when a page is
	// coincidentally full.
	hasMore := fetchedTotal >= limit && limit > 0
	if explicitSignal {
		hasMore = explicitMore
	}

	// Each workspace was queried with the page size, so the merged page
	// can overshoot it; trim to the requested limit. Trimming drops
	// fetched tasks, which is itself a "more available" signal.
	if limit > 0 && len(result.Tasks) > limit {
		result.Tasks = result.Tasks[:limit]
		hasMore = true
	}
	result.TotalTasks = len(result.Tasks)
	result.Pagination = Pagination{Limit: limit, Page: page, HasMore: hasMore}
	if hasMore {
		result.Pagination.NextPage = page + 1
	}
	return result, nil
}

func baseTaskParams(opts TaskQueryOptions) url.Values {
	params := url.Values{}
	for _, s := range opts.Statuses {
		params.Add("statuses[]", s)
	}
	if opts.IncludeSubtasks {
		params.Set("subtasks", "true")
	}
	params.Set("include_closed", strconv.FormatBool(opts.IncludeClosed))
	params.Set("limit", strconv.Itoa(pageSize(opts.Limit)))
	page := opts.Page
	if page < 0 {
		page = 0
	}
	params.Set("page", strconv.Itoa(page))
	return params
}

func pageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	return limit
}
