package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	router "github.com/goliatone/go-router"

	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
	"github.com/pavel242242/gd-hackathon-2024/components/dashboard/commands"
	"github.com/pavel242242/gd-hackathon-2024/components/dashboard/httpapi"
)

// ViewerResolver converts a router.Context into a dashboard.ViewerContext.
type ViewerResolver func(router.Context) dashboard.ViewerContext

// Config wires go-router with the dashboard controller and action executor.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *dashboard.Controller
	API            httpapi.Executor
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	HTML        string
	Layout      string
	DataSources string
	Publish     string
	Ask         string
	Refresh     string
	Clear       string
}

// Register mounts the page, its JSON layout and the form actions on a
// go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := cfg.routes()
	base := cfg.BasePath
	if base == "" {
		base = "/gd"
	}
	viewerResolver := cfg.ViewerResolver
	if viewerResolver == nil {
		viewerResolver = defaultViewerResolver
	}
	h := &handlers{controller: cfg.Controller, api: cfg.API, viewer: viewerResolver}

	group := cfg.Router.Group(base)

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		viewer := viewerResolver(ctx)
		return h.renderPage(ctx, dashboard.PageRequestFromValues(viewer, queryValues(ctx)))
	}))

	group.Get(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		viewer := viewerResolver(ctx)
		payload, err := cfg.Controller.LayoutPayload(ctx.Context(), dashboard.PageRequestFromValues(viewer, queryValues(ctx)))
		if err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		return ctx.JSON(http.StatusOK, payload)
	}))

	if cfg.API != nil {
		registerActions(group, h, routes)
	}
	return nil
}

type handlers struct {
	controller *dashboard.Controller
	api        httpapi.Executor
	viewer     ViewerResolver
}

func registerActions[T any](r router.Router[T], h *handlers, routes RouteConfig) {
	r.Post(routes.DataSources, router.WrapHandler(h.createDataSource))
	r.Post(routes.Publish, router.WrapHandler(h.publishModel))
	r.Post(routes.Ask, router.WrapHandler(h.askAI))
	r.Post(routes.Refresh, router.WrapHandler(h.refreshAI))
	r.Post(routes.Clear, router.WrapHandler(h.clearAI))
}

func (h *handlers) createDataSource(ctx router.Context) error {
	viewer := h.viewer(ctx)
	form, err := formValues(ctx)
	if err != nil {
		return respondError(ctx, http.StatusBadRequest, err)
	}
	connector := dashboard.SnowflakeConnector{
		ID:        strings.TrimSpace(form.Get("id")),
		Name:      strings.TrimSpace(form.Get("name")),
		Account:   strings.TrimSpace(form.Get("account")),
		Warehouse: strings.TrimSpace(form.Get("warehouse")),
		Database:  strings.TrimSpace(form.Get("database")),
		Schema:    strings.TrimSpace(form.Get("schema")),
		Username:  strings.TrimSpace(form.Get("username")),
		Password:  form.Get("password"),
	}
	var result dashboard.DataSourceResult
	err = h.api.CreateDataSource(ctx.Context(), commands.CreateDataSourceInput{Connector: connector, Result: &result})
	if err != nil {
		messages := []dashboard.Message{{Level: dashboard.LevelError, Text: "Error creating data source: " + dashboard.ErrorMessage(err)}}
		if result.Echo != nil {
			echo, _ := json.Marshal(result.Echo)
			messages = append(messages, dashboard.Message{Level: dashboard.LevelInfo, Text: "Submitted payload: " + string(echo)})
		}
		return h.respond(ctx, viewer, nil, httpapi.StatusFor(err), map[string]any{
			"error": httpapi.ErrorBody(err).Error,
			"echo":  result.Echo,
		}, messages)
	}
	return h.respond(ctx, viewer, nil, http.StatusCreated, result, []dashboard.Message{{
		Level: dashboard.LevelSuccess,
		Text:  fmt.Sprintf("Data source %s created or updated successfully", result.ID),
	}})
}

func (h *handlers) publishModel(ctx router.Context) error {
	viewer := h.viewer(ctx)
	form, err := formValues(ctx)
	if err != nil {
		return respondError(ctx, http.StatusBadRequest, err)
	}
	id := ctx.Param("id")
	if id == "" {
		return respondError(ctx, http.StatusBadRequest, errors.New("data source id is required"))
	}
	var report dashboard.PipelineReport
	err = h.api.PublishModel(ctx.Context(), commands.PublishModelInput{DataSourceID: id, Report: &report})
	messages := pipelineMessages(report)
	if err != nil {
		if len(report.Steps) == 0 {
			messages = append(messages, dashboard.Message{Level: dashboard.LevelError, Text: dashboard.ErrorMessage(err)})
		}
		return h.respond(ctx, viewer, form, httpapi.StatusFor(err), map[string]any{
			"error":  httpapi.ErrorBody(err).Error,
			"report": report,
		}, messages)
	}
	return h.respond(ctx, viewer, form, http.StatusOK, report, messages)
}

func (h *handlers) askAI(ctx router.Context) error {
	viewer := h.viewer(ctx)
	form, err := formValues(ctx)
	if err != nil {
		return respondError(ctx, http.StatusBadRequest, err)
	}
	var resp dashboard.ChatResponse
	err = h.api.AskAI(ctx.Context(), commands.AskAIInput{Viewer: viewer, Question: form.Get("question"), Response: &resp})
	if err != nil {
		return h.respond(ctx, viewer, form, httpapi.StatusFor(err), httpapi.ErrorBody(err), []dashboard.Message{{
			Level: dashboard.LevelError,
			Text:  "Error generating visualization: " + dashboard.ErrorMessage(err),
		}})
	}
	return h.respond(ctx, viewer, form, http.StatusCreated, resp, []dashboard.Message{{
		Level: dashboard.LevelSuccess,
		Text:  "Visualization generated",
	}})
}

func (h *handlers) refreshAI(ctx router.Context) error {
	viewer := h.viewer(ctx)
	form, err := formValues(ctx)
	if err != nil {
		return respondError(ctx, http.StatusBadRequest, err)
	}
	var result dashboard.VisualizationResult
	if err := h.api.RefreshAI(ctx.Context(), commands.RefreshAIInput{Viewer: viewer, Result: &result}); err != nil {
		return h.respond(ctx, viewer, form, httpapi.StatusFor(err), httpapi.ErrorBody(err), []dashboard.Message{{
			Level: dashboard.LevelError,
			Text:  "Error refreshing visualization: " + dashboard.ErrorMessage(err),
		}})
	}
	return h.respond(ctx, viewer, form, http.StatusOK, result, []dashboard.Message{{
		Level: dashboard.LevelSuccess,
		Text:  "Visualization refreshed",
	}})
}

func (h *handlers) clearAI(ctx router.Context) error {
	viewer := h.viewer(ctx)
	form, err := formValues(ctx)
	if err != nil {
		return respondError(ctx, http.StatusBadRequest, err)
	}
	if err := h.api.ClearAI(ctx.Context(), commands.ClearAIInput{Viewer: viewer}); err != nil {
		return h.respond(ctx, viewer, form, httpapi.StatusFor(err), httpapi.ErrorBody(err), []dashboard.Message{{
			Level: dashboard.LevelError,
			Text:  dashboard.ErrorMessage(err),
		}})
	}
	return h.respond(ctx, viewer, form, http.StatusOK, map[string]string{"status": "cleared"}, []dashboard.Message{{
		Level: dashboard.LevelInfo,
		Text:  "AI session cleared",
	}})
}

// respond writes payload as JSON for API clients and re-renders the page
// with flash messages for browsers. Form values carry panel toggles back.
func (h *handlers) respond(ctx router.Context, viewer dashboard.ViewerContext, form url.Values, status int, payload any, messages []dashboard.Message) error {
	if wantsJSON(ctx) {
		return ctx.JSON(status, payload)
	}
	values := queryValues(ctx)
	for key, vals := range form {
		if _, ok := values[key]; !ok {
			values[key] = vals
		}
	}
	return h.renderPage(ctx, dashboard.PageRequestFromValues(viewer, values), messages...)
}

func (h *handlers) renderPage(ctx router.Context, req dashboard.PageRequest, messages ...dashboard.Message) error {
	var buf bytes.Buffer
	if err := h.controller.RenderTemplate(ctx.Context(), req, &buf, messages...); err != nil {
		return respondError(ctx, http.StatusInternalServerError, err)
	}
	ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
	return ctx.Send(buf.Bytes())
}

func pipelineMessages(report dashboard.PipelineReport) []dashboard.Message {
	messages := make([]dashboard.Message, 0, len(report.Steps))
	for _, step := range report.Steps {
		switch step.Status {
		case dashboard.StepOK:
			messages = append(messages, dashboard.Message{Level: dashboard.LevelSuccess, Text: step.Message})
		case dashboard.StepFailed:
			messages = append(messages, dashboard.Message{
				Level: dashboard.LevelError,
				Text:  fmt.Sprintf("Error during %s for %s: %s", step.Name, report.DataSourceID, step.Message),
			})
		}
	}
	return messages
}

func queryValues(ctx router.Context) url.Values {
	values := url.Values{}
	for key, value := range ctx.Queries() {
		values.Set(key, value)
	}
	return values
}

// formValues decodes url-encoded or JSON request bodies.
func formValues(ctx router.Context) (url.Values, error) {
	body := ctx.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return url.Values{}, nil
	}
	if strings.Contains(ctx.Header("Content-Type"), "application/json") {
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("gorouter: decode json body: %w", err)
		}
		values := url.Values{}
		for key, value := range payload {
			values.Set(key, fmt.Sprint(value))
		}
		return values, nil
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("gorouter: decode form body: %w", err)
	}
	return values, nil
}

func wantsJSON(ctx router.Context) bool {
	return strings.Contains(ctx.Header("Accept"), "application/json")
}

func defaultViewerResolver(ctx router.Context) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Locals("session_id").(string); ok {
		viewer.SessionID = v
	}
	if viewer.SessionID == "" {
		viewer.SessionID = ctx.Header(httpapi.SessionHeader)
	}
	return viewer
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func (cfg Config[T]) routes() RouteConfig {
	return defaultRouteConfig(cfg.Routes)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/"
	}
	if routes.Layout == "" {
		routes.Layout = "/_layout"
	}
	if routes.DataSources == "" {
		routes.DataSources = "/datasources"
	}
	if routes.Publish == "" {
		routes.Publish = "/datasources/:id/publish"
	}
	if routes.Ask == "" {
		routes.Ask = "/ai/ask"
	}
	if routes.Refresh == "" {
		routes.Refresh = "/ai/refresh"
	}
	if routes.Clear == "" {
		routes.Clear = "/ai/clear"
	}
	return routes
}
