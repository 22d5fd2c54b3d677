package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

// ClearAIInput forgets the viewer's AI reply.
type ClearAIInput struct {
	Viewer dashboard.ViewerContext `json:"-"`
}

type clearService interface {
	ClearAI(ctx context.Context, viewer dashboard.ViewerContext) error
}

// ClearAICommand removes stored AI state from the session.
type ClearAICommand struct {
	service   clearService
	telemetry Telemetry
}

// NewClearAICommand creates the command.
func NewClearAICommand(service clearService, telemetry Telemetry) *ClearAICommand {
	return &ClearAICommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ClearAIInput] = (*ClearAICommand)(nil)

// Execute clears the session.
func (c *ClearAICommand) Execute(ctx context.Context, msg ClearAIInput) error {
	if c.service == nil {
		return errors.New("clear command requires service")
	}
	if msg.Viewer.SessionID == "" {
		return badInput("clear command requires session id")
	}
	if err := c.service.ClearAI(ctx, msg.Viewer); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "gd.command.ai.clear", map[string]any{
		"session": msg.Viewer.SessionID,
	})
	return nil
}
