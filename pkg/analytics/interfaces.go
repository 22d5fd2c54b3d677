package analytics

import (
	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

// Client is a convenience union for services that implement every analytics
// platform call the dashboard needs. Tests and demos substitute MockClient.
type Client interface {
	dashboard.WorkspaceCatalog
	dashboard.DataSourceCatalog
	dashboard.WorkspaceContent
	dashboard.AIChatClient
	dashboard.ExecutionClient
}

var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*MockClient)(nil)
)
