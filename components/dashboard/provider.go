package dashboard

import (
	"context"
	"sync"
)

// Provider fetches data required to render a panel.
type Provider interface {
	Fetch(ctx context.Context, meta PanelContext) (PanelData, error)
}

// ProviderFunc adapts a function into a Provider.
type ProviderFunc func(ctx context.Context, meta PanelContext) (PanelData, error)

// Fetch calls f(ctx, meta).
func (f ProviderFunc) Fetch(ctx context.Context, meta PanelContext) (PanelData, error) {
	return f(ctx, meta)
}

// PanelContext contains the metadata needed by providers. Workspaces are
// shared by every panel of one render pass.
type PanelContext struct {
	Definition PanelDefinition
	Request    PageRequest
	Selected   string

	cycle *renderCycle
}

// Workspaces returns the workspace list for the current render pass. The
// remote catalog is queried at most once per pass; on failure the list is
// empty and the same error is returned to every caller.
func (m PanelContext) Workspaces(ctx context.Context) ([]Workspace, error) {
	if m.cycle == nil {
		return nil, nil
	}
	return m.cycle.workspaces(ctx)
}

// PanelData is an opaque payload passed to templates.
type PanelData map[string]any

type renderCycle struct {
	catalog WorkspaceCatalog

	once  sync.Once
	items []Workspace
	err   error
}

func newRenderCycle(catalog WorkspaceCatalog) *renderCycle {
	return &renderCycle{catalog: catalog}
}

func (c *renderCycle) workspaces(ctx context.Context) ([]Workspace, error) {
	c.once.Do(func() {
		if c.catalog == nil {
			c.err = errMissingClient
			return
		}
		c.items, c.err = c.catalog.ListWorkspaces(ctx)
		if c.err != nil {
			c.items = nil
		}
	})
	return append([]Workspace(nil), c.items...), c.err
}
