package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

// WorkspacesInput is the empty request of WorkspacesQuery.
type WorkspacesInput struct{}

type workspaceService interface {
	ListWorkspaces(ctx context.Context) ([]dashboard.Workspace, error)
}

// WorkspacesQuery lists the workspaces visible to the configured token.
type WorkspacesQuery struct {
	service workspaceService
}

// NewWorkspacesQuery builds the query.
func NewWorkspacesQuery(service workspaceService) *WorkspacesQuery {
	return &WorkspacesQuery{service: service}
}

var _ gocommand.Querier[WorkspacesInput, []dashboard.Workspace] = (*WorkspacesQuery)(nil)

// Query fetches the workspace list. A nil list is returned as empty.
func (q *WorkspacesQuery) Query(ctx context.Context, _ WorkspacesInput) ([]dashboard.Workspace, error) {
	workspaces, err := q.service.ListWorkspaces(ctx)
	if workspaces == nil {
		workspaces = []dashboard.Workspace{}
	}
	return workspaces, err
}
