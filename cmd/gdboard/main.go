package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/pavel242242/gd-hackathon-2024/components/dashboard/queries"
	"github.com/pavel242242/gd-hackathon-2024/pkg/analytics"
	"github.com/pavel242242/gd-hackathon-2024/pkg/config"
	"github.com/pavel242242/gd-hackathon-2024/pkg/observability"
)

const shutdownTimeout = 10 * time.Second

type cli struct {
	Config string `short:"c" type:"path" help:"Path to a YAML configuration file."`

	Serve serveCmd `cmd:"" default:"withargs" help:"Serve the dashboard."`
	Check checkCmd `cmd:"" help:"List workspaces to verify host and token."`
	Demo  demoCmd  `cmd:"" help:"Serve the dashboard against in-memory fixtures."`
	Panel panelCmd `cmd:"" help:"Add or override a panel entry in a manifest."`
}

type serveCmd struct {
	Listen         string `help:"Listen address (overrides listen_addr)."`
	Host           string `help:"Analytics platform host URL."`
	BasePath       string `name:"base-path" help:"Mount path for the dashboard."`
	PanelsManifest string `name:"panels-manifest" type:"path" help:"Panel manifest YAML."`
	MetricsAddr    string `name:"metrics-addr" help:"Listen address for /metrics."`
}

type checkCmd struct {
	Host string `help:"Analytics platform host URL."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var root cli
	kctx := kong.Parse(&root,
		kong.Name("gdboard"),
		kong.Description("Browse GoodData content, publish data source models and ask the AI assistant."),
		kong.UsageOnError(),
		kong.Bind(&root),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run()
	kctx.FatalIfErrorf(err)
}

func (cmd *serveCmd) Run(ctx context.Context, root *cli) error {
	cfg, err := loadConfig(root.Config, map[string]any{
		"listen_addr":     cmd.Listen,
		"host":            cmd.Host,
		"base_path":       cmd.BasePath,
		"panels_manifest": cmd.PanelsManifest,
		"metrics_addr":    cmd.MetricsAddr,
	})
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg, os.Stderr)
	metrics := observability.NewMetrics()

	client, err := analytics.NewHTTPClient(analytics.HTTPConfig{
		BaseURL:  cfg.Host,
		APIToken: cfg.APIToken,
		Timeout:  cfg.HTTPTimeout,
		Logger:   logger,
		Observer: metrics,
	})
	if err != nil {
		return err
	}

	a, err := newApp(cfg, client, logger, metrics)
	if err != nil {
		return err
	}
	return a.run(ctx)
}

func (cmd *checkCmd) Run(ctx context.Context, root *cli) error {
	cfg, err := loadConfig(root.Config, map[string]any{"host": cmd.Host})
	if err != nil {
		return err
	}
	client, err := analytics.NewHTTPClient(analytics.HTTPConfig{
		BaseURL:  cfg.Host,
		APIToken: cfg.APIToken,
		Timeout:  cfg.HTTPTimeout,
		Logger:   observability.NewLogger(cfg, os.Stderr),
	})
	if err != nil {
		return err
	}
	return check(ctx, client, os.Stdout)
}

func check(ctx context.Context, client analytics.Client, out io.Writer) error {
	workspaces, err := queries.NewWorkspacesQuery(client).Query(ctx, queries.WorkspacesInput{})
	if err != nil {
		return fmt.Errorf("gdboard: list workspaces: %w", err)
	}
	fmt.Fprintf(out, "✓ Connected, %d workspace(s) visible\n", len(workspaces))
	for _, ws := range workspaces {
		fmt.Fprintf(out, "  %s\t%s\n", ws.ID, ws.Name)
	}
	return nil
}

func loadConfig(path string, overrides map[string]any) (config.Config, error) {
	cfg, err := config.Load(path, overrides)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
