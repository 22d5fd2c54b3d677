package commands

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

// AskAIInput is stage one of the AI flow.
type AskAIInput struct {
	Viewer   dashboard.ViewerContext `json:"-"`
	Question string                  `json:"question"`
	Response *dashboard.ChatResponse `json:"-"`
}

type askService interface {
	AskAI(ctx context.Context, viewer dashboard.ViewerContext, question string) (dashboard.ChatResponse, error)
}

// AskAICommand posts a question and stores the reply in the session.
type AskAICommand struct {
	service   askService
	telemetry Telemetry
}

// NewAskAICommand creates the command.
func NewAskAICommand(service askService, telemetry Telemetry) *AskAICommand {
	return &AskAICommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AskAIInput] = (*AskAICommand)(nil)

// Execute trims the question and forwards it to the service.
func (c *AskAICommand) Execute(ctx context.Context, msg AskAIInput) error {
	if c.service == nil {
		return errors.New("ask command requires service")
	}
	question := strings.TrimSpace(msg.Question)
	if question == "" {
		return badInput("ask command requires question")
	}
	resp, err := c.service.AskAI(ctx, msg.Viewer, question)
	if err != nil {
		return err
	}
	if msg.Response != nil {
		*msg.Response = resp
	}
	c.telemetry.Record(ctx, "gd.command.ai.ask", map[string]any{
		"session":  msg.Viewer.SessionID,
		"response": resp.ID,
	})
	return nil
}
