package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

// RefreshAIInput re-runs the stage-two query for the viewer.
type RefreshAIInput struct {
	Viewer dashboard.ViewerContext        `json:"-"`
	Result *dashboard.VisualizationResult `json:"-"`
}

type refreshService interface {
	RefreshAI(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.VisualizationResult, error)
}

// RefreshAICommand drops the memoized data frame and queries again.
type RefreshAICommand struct {
	service   refreshService
	telemetry Telemetry
}

// NewRefreshAICommand creates the command.
func NewRefreshAICommand(service refreshService, telemetry Telemetry) *RefreshAICommand {
	return &RefreshAICommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshAIInput] = (*RefreshAICommand)(nil)

// Execute invalidates and recomputes stage two.
func (c *RefreshAICommand) Execute(ctx context.Context, msg RefreshAIInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	result, err := c.service.RefreshAI(ctx, msg.Viewer)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = result
	}
	c.telemetry.Record(ctx, "gd.command.ai.refresh", map[string]any{
		"session":  msg.Viewer.SessionID,
		"response": result.ResponseID,
	})
	return nil
}
