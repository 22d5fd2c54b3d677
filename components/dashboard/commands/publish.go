package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

// PublishModelInput names the data source to scan, model and publish.
type PublishModelInput struct {
	DataSourceID string                    `json:"data_source_id"`
	Report       *dashboard.PipelineReport `json:"-"`
}

type publishService interface {
	PublishDataSourceModel(ctx context.Context, dataSourceID string) (dashboard.PipelineReport, error)
}

// PublishModelCommand runs the scan, generate and publish pipeline.
type PublishModelCommand struct {
	service   publishService
	telemetry Telemetry
}

// NewPublishModelCommand creates the command.
func NewPublishModelCommand(service publishService, telemetry Telemetry) *PublishModelCommand {
	return &PublishModelCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[PublishModelInput] = (*PublishModelCommand)(nil)

// Execute runs the pipeline. The report is written even when a step fails.
func (c *PublishModelCommand) Execute(ctx context.Context, msg PublishModelInput) error {
	if c.service == nil {
		return errors.New("publish command requires service")
	}
	if msg.DataSourceID == "" {
		return badInput("publish command requires data source id")
	}
	report, err := c.service.PublishDataSourceModel(ctx, msg.DataSourceID)
	if msg.Report != nil {
		*msg.Report = report
	}
	c.telemetry.Record(ctx, "gd.command.model.publish", map[string]any{
		"data_source": msg.DataSourceID,
		"workspace":   report.Workspace,
		"completed":   report.Completed,
	})
	return err
}
