package analytics

import (
	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

// NewBackends adapts a single analytics client into the per-capability
// collaborators the dashboard service consumes.
func NewBackends(client Client) dashboard.Backends {
	if client == nil {
		return dashboard.Backends{}
	}
	return dashboard.Backends{
		Workspaces:  client,
		DataSources: client,
		Content:     client,
		AI:          client,
		Execution:   client,
	}
}
