// Package dashboard re-exports the dashboard component for host applications
// that embed the GoodData browser in their own router.
package dashboard

import (
	core "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
	"github.com/pavel242242/gd-hackathon-2024/pkg/analytics"
)

// Service exposes the underlying components/dashboard.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// Backends groups the platform collaborators the service calls.
type Backends = core.Backends

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// NewServiceForClient builds a service whose backends are all served by a
// single analytics client. Zero-valued backends in opts are replaced.
func NewServiceForClient(client analytics.Client, opts Options) *Service {
	backends := analytics.NewBackends(client)
	if opts.Workspaces == nil {
		opts.Workspaces = backends.Workspaces
	}
	if opts.DataSources == nil {
		opts.DataSources = backends.DataSources
	}
	if opts.Content == nil {
		opts.Content = backends.Content
	}
	if opts.AI == nil {
		opts.AI = backends.AI
	}
	if opts.Execution == nil {
		opts.Execution = backends.Execution
	}
	return core.NewService(opts)
}
