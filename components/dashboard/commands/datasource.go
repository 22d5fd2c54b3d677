package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

// CreateDataSourceInput carries the submitted Snowflake form. Result is
// filled on success and on failure so transports can echo the payload.
type CreateDataSourceInput struct {
	Connector dashboard.SnowflakeConnector `json:"connector"`
	Result    *dashboard.DataSourceResult  `json:"-"`
}

type dataSourceService interface {
	CreateDataSource(ctx context.Context, connector dashboard.SnowflakeConnector) (dashboard.DataSourceResult, error)
}

// CreateDataSourceCommand upserts a Snowflake data source.
type CreateDataSourceCommand struct {
	service   dataSourceService
	telemetry Telemetry
}

// NewCreateDataSourceCommand creates a command instance.
func NewCreateDataSourceCommand(service dataSourceService, telemetry Telemetry) *CreateDataSourceCommand {
	return &CreateDataSourceCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CreateDataSourceInput] = (*CreateDataSourceCommand)(nil)

// Execute delegates to the dashboard service.
func (c *CreateDataSourceCommand) Execute(ctx context.Context, msg CreateDataSourceInput) error {
	if c.service == nil {
		return errors.New("create data source command requires service")
	}
	result, err := c.service.CreateDataSource(ctx, msg.Connector)
	if msg.Result != nil {
		*msg.Result = result
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "gd.command.datasource.create", map[string]any{
		"data_source": msg.Connector.ID,
	})
	return nil
}
