package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
	"github.com/pavel242242/gd-hackathon-2024/pkg/analytics"
	"github.com/pavel242242/gd-hackathon-2024/pkg/config"
	"github.com/pavel242242/gd-hackathon-2024/pkg/observability"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("", map[string]any{
		"host":           "https://example.gooddata.com",
		"api_token":      "token",
		"session_secret": "secret",
	})
	require.NoError(t, err)
	return cfg
}

func newTestApp(t *testing.T, client *analytics.MockClient) *app {
	t.Helper()
	a, err := newApp(testConfig(t), client, nil, observability.NewMetrics())
	require.NoError(t, err)
	return a
}

func TestAppRendersPage(t *testing.T) {
	client := analytics.NewMockClient(demoFixtures())
	a := newTestApp(t, client)

	req := httptest.NewRequest(http.MethodGet, "/gd/?show_models=true&model_workspace=sales", nil)
	resp, err := a.server.WrappedRouter().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Browse GoodData Content")
	assert.Contains(t, string(body), "Orders")
	assert.NotEmpty(t, resp.Header.Get("Set-Cookie"), "expected session cookie")
	assert.Equal(t, 1, countCalls(client.Calls(), "ListWorkspaces"))
}

func TestAppJSONAIFlow(t *testing.T) {
	client := analytics.NewMockClient(demoFixtures())
	a := newTestApp(t, client)
	app := a.server.WrappedRouter()

	ask := httptest.NewRequest(http.MethodPost, "/gd/api/ai/ask", strings.NewReader(`{"question":"revenue by region"}`))
	ask.Header.Set("Content-Type", "application/json")
	ask.Header.Set("X-Session-ID", "s1")
	resp, err := app.Test(ask)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	refresh := httptest.NewRequest(http.MethodPost, "/gd/api/ai/refresh", nil)
	refresh.Header.Set("X-Session-ID", "s1")
	resp, err = app.Test(refresh)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result dashboard.VisualizationResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "revenue", result.Spec.MetricID)
	assert.Equal(t, "region", result.Spec.DimensionID)
	require.Len(t, result.Frame.Rows, 3)

	executions := client.Executions()
	require.Len(t, executions, 1)
	assert.Equal(t, [][]string{{"region"}, {dashboard.MeasureGroup}}, executions[0].Dimensions)
}

func TestAppJSONPage(t *testing.T) {
	a := newTestApp(t, analytics.NewMockClient(demoFixtures()))

	req := httptest.NewRequest(http.MethodGet, "/gd/api/page?show_insights=true&insight_workspace=sales", nil)
	resp, err := a.server.WrappedRouter().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page dashboard.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	panel, ok := page.Panel(dashboard.PanelInsights)
	require.True(t, ok)
	assert.True(t, panel.Enabled)
	assert.Equal(t, "sales", panel.Selected)
	assert.Len(t, page.Workspaces, 2)
}

func TestAppRefreshWithoutReply(t *testing.T) {
	a := newTestApp(t, analytics.NewMockClient(demoFixtures()))

	req := httptest.NewRequest(http.MethodPost, "/gd/api/ai/refresh", nil)
	req.Header.Set("X-Session-ID", "fresh")
	resp, err := a.server.WrappedRouter().Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAppPublishRecordsMetrics(t *testing.T) {
	client := analytics.NewMockClient(demoFixtures())
	a := newTestApp(t, client)

	req := httptest.NewRequest(http.MethodPost, "/gd/api/datasources/snowflake_demo/publish", nil)
	resp, err := a.server.WrappedRouter().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report dashboard.PipelineReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.True(t, report.Completed)
	assert.Equal(t, "gd_hackaton", report.Workspace)

	rec := httptest.NewRecorder()
	a.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "gdboard_events_total")
}

func TestAppMetricsListenerOptional(t *testing.T) {
	a := newTestApp(t, analytics.NewMockClient(demoFixtures()))
	assert.Nil(t, a.admin)

	cfg := testConfig(t)
	cfg.MetricsAddr = ":0"
	b, err := newApp(cfg, analytics.NewMockClient(demoFixtures()), nil, observability.NewMetrics())
	require.NoError(t, err)
	require.NotNil(t, b.admin)
}

func TestAppRunStopsWhenListenerFails(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := testConfig(t)
	cfg.ListenAddr = busy.Addr().String()
	a, err := newApp(cfg, analytics.NewMockClient(demoFixtures()), nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = a.run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gdboard: serve")
	assert.NoError(t, ctx.Err(), "run should return on listener failure, not on timeout")
}

func TestTemplateRendererLoadsFromAnyDirectory(t *testing.T) {
	renderer, err := dashboard.NewTemplateRenderer()
	require.NoError(t, err)

	out, err := renderer.Render("dashboard.html", map[string]any{"title": "Browse GoodData Content"})
	require.NoError(t, err)
	assert.Contains(t, out, "Browse GoodData Content")
}

func TestNewAppRequiresClient(t *testing.T) {
	_, err := newApp(testConfig(t), nil, nil, nil)
	require.Error(t, err)
}

func TestNewAppRejectsBadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"9\"\npanels: []\n"), 0o600))
	cfg := testConfig(t)
	cfg.PanelsManifest = path

	_, err := newApp(cfg, analytics.NewMockClient(demoFixtures()), nil, nil)
	require.Error(t, err)
}

func TestCheckListsWorkspaces(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, check(context.Background(), analytics.NewMockClient(demoFixtures()), &out))
	assert.Contains(t, out.String(), "2 workspace(s)")
	assert.Contains(t, out.String(), "gd_hackaton")

	failing := analytics.NewMockClient(demoFixtures())
	failing.FailOn("ListWorkspaces", errors.New("unauthorized"))
	require.Error(t, check(context.Background(), failing, &out))
}

func TestPanelCommandUpsertsManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifests", "panels.yaml")

	cmd := &panelCmd{Code: "acme.panel.sales_pipeline", ManifestPath: path, Position: 0}
	var out bytes.Buffer
	require.NoError(t, cmd.apply(&out))
	assert.Contains(t, out.String(), "Added")

	doc, err := dashboard.ReadManifest(path)
	require.NoError(t, err)
	require.Len(t, doc.Panels, 1)
	assert.Equal(t, "Sales Pipeline", doc.Panels[0].Definition.Name)
	assert.Equal(t, []string{"acme.panel.sales_pipeline"}, doc.Order)

	hide := &panelCmd{Code: dashboard.PanelInsights, ManifestPath: path, Hide: true, Position: 0}
	require.NoError(t, hide.apply(&out))
	doc, err = dashboard.ReadManifest(path)
	require.NoError(t, err)
	require.Len(t, doc.Panels, 2)
	assert.True(t, doc.Panels[1].Definition.Hidden)
	assert.Empty(t, doc.Panels[1].Definition.Name, "built-in name kept")
	assert.Equal(t, []string{dashboard.PanelInsights, "acme.panel.sales_pipeline"}, doc.Order)

	again := &panelCmd{Code: "acme.panel.sales_pipeline", Name: "Pipeline", ManifestPath: path, Position: -1}
	require.NoError(t, again.apply(&out))
	doc, err = dashboard.ReadManifest(path)
	require.NoError(t, err)
	require.Len(t, doc.Panels, 2)
	assert.Equal(t, "Pipeline", doc.Panels[0].Definition.Name)
}

func TestPanelCommandValidatesCode(t *testing.T) {
	cmd := &panelCmd{Code: "nodots", ManifestPath: filepath.Join(t.TempDir(), "p.yaml")}
	require.Error(t, cmd.apply(io.Discard))
}

func countCalls(calls []string, method string) int {
	n := 0
	for _, c := range calls {
		if c == method {
			n++
		}
	}
	return n
}
