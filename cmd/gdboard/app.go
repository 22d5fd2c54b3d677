package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	router "github.com/goliatone/go-router"
	"golang.org/x/sync/errgroup"

	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
	"github.com/pavel242242/gd-hackathon-2024/components/dashboard/gorouter"
	"github.com/pavel242242/gd-hackathon-2024/components/dashboard/httpapi"
	"github.com/pavel242242/gd-hackathon-2024/components/dashboard/queries"
	"github.com/pavel242242/gd-hackathon-2024/pkg/analytics"
	"github.com/pavel242242/gd-hackathon-2024/pkg/config"
	dashboardpkg "github.com/pavel242242/gd-hackathon-2024/pkg/dashboard"
	"github.com/pavel242242/gd-hackathon-2024/pkg/observability"
)

// apiPrefix is appended to the base path for the JSON endpoints.
const apiPrefix = "/api"

type app struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	service *dashboard.Service
	server  router.Server[*fiber.App]
	admin   *http.Server
}

// newApp wires the dashboard service, page routes, JSON API and metrics
// around the given analytics client.
func newApp(cfg config.Config, client analytics.Client, logger *slog.Logger, metrics *observability.Metrics) (*app, error) {
	if client == nil {
		return nil, errors.New("gdboard: analytics client is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	registry := dashboard.NewRegistry()
	if cfg.PanelsManifest != "" {
		doc, err := registry.LoadManifestFile(cfg.PanelsManifest)
		if err != nil {
			return nil, err
		}
		logger.Info("panel manifest loaded", "path", cfg.PanelsManifest, "panels", len(doc.Panels))
	}

	var chartOpts []dashboard.FrameChartOption
	if cfg.ChartAssetsHost != "" {
		chartOpts = append(chartOpts, dashboard.WithChartAssetsHost(cfg.ChartAssetsHost))
	}

	telemetry := telemetryFor(metrics, logger)
	service := dashboardpkg.NewServiceForClient(client, dashboard.Options{
		Providers:        registry,
		Sessions:         dashboard.NewInMemorySessionStore(cfg.SessionTTL),
		Telemetry:        telemetry,
		Logger:           logger,
		Chart:            dashboard.NewFrameChart(chartOpts...),
		PublishWorkspace: cfg.PublishWorkspace,
		AIWorkspace:      cfg.AIWorkspace,
		MemoTTL:          cfg.MemoTTL,
	})

	renderer, err := dashboard.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	controller := dashboard.NewController(dashboard.ControllerOptions{
		Service:  service,
		Renderer: renderer,
		BasePath: cfg.BasePath,
	})
	executor := httpapi.NewCommandExecutor(service, telemetry)
	cookies := gorouter.NewSessionCookies(cfg.SessionSecret, cfg.SessionTTL,
		gorouter.WithSecureCookie(strings.HasPrefix(cfg.Host, "https://") && cfg.SessionSecret != ""),
	)
	if cfg.SessionSecret == "" {
		logger.Warn("session_secret not set, sessions will not survive a restart")
	}

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:         server.Router(),
		Controller:     controller,
		API:            executor,
		ViewerResolver: cookies.Resolve,
		BasePath:       cfg.BasePath,
	}); err != nil {
		return nil, fmt.Errorf("gdboard: register routes: %w", err)
	}

	mux := http.NewServeMux()
	api := &httpapi.Handlers{
		Executor:   executor,
		Pages:      queries.NewPageQuery(service),
		Workspaces: queries.NewWorkspacesQuery(service),
	}
	api.Mount(mux, cfg.BasePath+apiPrefix)
	server.WrappedRouter().All(cfg.BasePath+apiPrefix+"/*", adaptor.HTTPHandler(mux))

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		service: service,
		server:  server,
	}
	if cfg.MetricsAddr != "" && metrics != nil {
		adminMux := http.NewServeMux()
		adminMux.Handle("GET /metrics", metrics.Handler())
		a.admin = &http.Server{Addr: cfg.MetricsAddr, Handler: adminMux}
	}
	return a, nil
}

// run serves until ctx is cancelled, then shuts both listeners down.
func (a *app) run(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	if a.admin != nil {
		eg.Go(func() error {
			a.logger.Info("metrics listener starting", "addr", a.cfg.MetricsAddr)
			if err := a.admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("gdboard: metrics listener: %w", err)
			}
			return nil
		})
	}

	eg.Go(func() error {
		a.logger.Info("dashboard listening", "addr", a.cfg.ListenAddr, "base_path", a.cfg.BasePath)
		if err := a.server.Serve(a.cfg.ListenAddr); err != nil {
			return fmt.Errorf("gdboard: serve: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if a.admin != nil {
			errs = append(errs, a.admin.Shutdown(shutdownCtx))
		}
		errs = append(errs, a.server.Shutdown(shutdownCtx))
		a.logger.Info("dashboard stopped")
		return errors.Join(errs...)
	})

	return eg.Wait()
}

func telemetryFor(metrics *observability.Metrics, logger *slog.Logger) dashboard.Telemetry {
	return dashboard.TelemetryFunc(func(ctx context.Context, event string, payload map[string]any) {
		if metrics != nil {
			metrics.Record(ctx, event, payload)
		}
		logger.DebugContext(ctx, "telemetry", "event", event, "payload", payload)
	})
}
