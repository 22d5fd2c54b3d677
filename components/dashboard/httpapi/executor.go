package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
	"github.com/pavel242242/gd-hackathon-2024/components/dashboard/commands"
)

// Executor is the action seam shared by every transport.
type Executor interface {
	CreateDataSource(ctx context.Context, input commands.CreateDataSourceInput) error
	PublishModel(ctx context.Context, input commands.PublishModelInput) error
	AskAI(ctx context.Context, input commands.AskAIInput) error
	RefreshAI(ctx context.Context, input commands.RefreshAIInput) error
	ClearAI(ctx context.Context, input commands.ClearAIInput) error
}

// CommandExecutor dispatches actions to go-command commanders.
type CommandExecutor struct {
	Create  gocommand.Commander[commands.CreateDataSourceInput]
	Publish gocommand.Commander[commands.PublishModelInput]
	Ask     gocommand.Commander[commands.AskAIInput]
	Refresh gocommand.Commander[commands.RefreshAIInput]
	Clear   gocommand.Commander[commands.ClearAIInput]
}

var _ Executor = (*CommandExecutor)(nil)

// ActionService is everything the default commanders need.
type ActionService interface {
	CreateDataSource(ctx context.Context, connector dashboard.SnowflakeConnector) (dashboard.DataSourceResult, error)
	PublishDataSourceModel(ctx context.Context, dataSourceID string) (dashboard.PipelineReport, error)
	AskAI(ctx context.Context, viewer dashboard.ViewerContext, question string) (dashboard.ChatResponse, error)
	RefreshAI(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.VisualizationResult, error)
	ClearAI(ctx context.Context, viewer dashboard.ViewerContext) error
}

// NewCommandExecutor builds the default commanders around service.
func NewCommandExecutor(service ActionService, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		Create:  commands.NewCreateDataSourceCommand(service, telemetry),
		Publish: commands.NewPublishModelCommand(service, telemetry),
		Ask:     commands.NewAskAICommand(service, telemetry),
		Refresh: commands.NewRefreshAICommand(service, telemetry),
		Clear:   commands.NewClearAICommand(service, telemetry),
	}
}

var errNoCommand = errors.New("httpapi: command not configured")

func (e *CommandExecutor) CreateDataSource(ctx context.Context, input commands.CreateDataSourceInput) error {
	if e.Create == nil {
		return errNoCommand
	}
	return e.Create.Execute(ctx, input)
}

func (e *CommandExecutor) PublishModel(ctx context.Context, input commands.PublishModelInput) error {
	if e.Publish == nil {
		return errNoCommand
	}
	return e.Publish.Execute(ctx, input)
}

func (e *CommandExecutor) AskAI(ctx context.Context, input commands.AskAIInput) error {
	if e.Ask == nil {
		return errNoCommand
	}
	return e.Ask.Execute(ctx, input)
}

func (e *CommandExecutor) RefreshAI(ctx context.Context, input commands.RefreshAIInput) error {
	if e.Refresh == nil {
		return errNoCommand
	}
	return e.Refresh.Execute(ctx, input)
}

func (e *CommandExecutor) ClearAI(ctx context.Context, input commands.ClearAIInput) error {
	if e.Clear == nil {
		return errNoCommand
	}
	return e.Clear.Execute(ctx, input)
}
