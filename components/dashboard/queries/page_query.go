package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

type pageService interface {
	Render(ctx context.Context, req dashboard.PageRequest) (dashboard.Page, error)
}

// PageQuery executes one read-only render pass.
type PageQuery struct {
	service pageService
}

// NewPageQuery builds the query.
func NewPageQuery(service pageService) *PageQuery {
	return &PageQuery{service: service}
}

var _ gocommand.Querier[dashboard.PageRequest, dashboard.Page] = (*PageQuery)(nil)

// Query resolves every panel for the request.
func (q *PageQuery) Query(ctx context.Context, req dashboard.PageRequest) (dashboard.Page, error) {
	return q.service.Render(ctx, req)
}
