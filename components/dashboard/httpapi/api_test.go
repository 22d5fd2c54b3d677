package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
	"github.com/pavel242242/gd-hackathon-2024/components/dashboard/commands"
	"github.com/pavel242242/gd-hackathon-2024/components/dashboard/queries"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
	fill  func(T)
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	if s.fill != nil {
		s.fill(msg)
	}
	return s.err
}

func TestHandleCreateDataSource(t *testing.T) {
	create := &stubCommander[commands.CreateDataSourceInput]{
		fill: func(msg commands.CreateDataSourceInput) {
			*msg.Result = dashboard.DataSourceResult{ID: msg.Connector.ID}
		},
	}
	api := &Handlers{Executor: &CommandExecutor{Create: create}}
	buf, _ := json.Marshal(dashboard.SnowflakeConnector{ID: "snow", Password: "secret"})
	req := httptest.NewRequest(http.MethodPost, "/api/datasources", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleCreateDataSource(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if create.calls != 1 || create.last.Connector.Password != "secret" {
		t.Fatalf("expected create to execute with payload")
	}
}

func TestHandleCreateDataSourceEchoesMaskedPayload(t *testing.T) {
	create := &stubCommander[commands.CreateDataSourceInput]{
		err: dashboard.NewRemoteError("create data source", http.StatusBadRequest, "bad account"),
		fill: func(msg commands.CreateDataSourceInput) {
			echo := msg.Connector.Masked()
			*msg.Result = dashboard.DataSourceResult{ID: msg.Connector.ID, Echo: &echo}
		},
	}
	api := &Handlers{Executor: &CommandExecutor{Create: create}}
	buf, _ := json.Marshal(dashboard.SnowflakeConnector{ID: "snow", Account: "acme", Password: "secret"})
	req := httptest.NewRequest(http.MethodPost, "/api/datasources", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleCreateDataSource(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "secret") {
		t.Fatalf("password leaked in response: %s", body)
	}
	if !strings.Contains(body, "acme") || !strings.Contains(body, "bad account") {
		t.Fatalf("expected echo and remote body, got %s", body)
	}
}

func TestHandlePublishModel(t *testing.T) {
	publish := &stubCommander[commands.PublishModelInput]{}
	api := &Handlers{Executor: &CommandExecutor{Publish: publish}}
	req := httptest.NewRequest(http.MethodPost, "/api/datasources/snow/publish", nil)
	rec := httptest.NewRecorder()
	api.HandlePublishModel(rec, req, "snow")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if publish.last.DataSourceID != "snow" {
		t.Fatalf("expected data source id propagation")
	}
}

func TestHandleAskAIUsesSessionHeader(t *testing.T) {
	ask := &stubCommander[commands.AskAIInput]{}
	api := &Handlers{Executor: &CommandExecutor{Ask: ask}}
	req := httptest.NewRequest(http.MethodPost, "/api/ai/ask", strings.NewReader(`{"question":"revenue"}`))
	req.Header.Set(SessionHeader, "s1")
	rec := httptest.NewRecorder()
	api.HandleAskAI(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if ask.last.Viewer.SessionID != "s1" || ask.last.Question != "revenue" {
		t.Fatalf("expected viewer and question, got %#v", ask.last)
	}
}

func TestHandleRefreshAIWithoutResponse(t *testing.T) {
	refresh := &stubCommander[commands.RefreshAIInput]{err: dashboard.ErrNoAIResponse}
	api := &Handlers{Executor: &CommandExecutor{Refresh: refresh}}
	req := httptest.NewRequest(http.MethodPost, "/api/ai/refresh", nil)
	rec := httptest.NewRecorder()
	api.HandleRefreshAI(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestMountRoutes(t *testing.T) {
	clearCmd := &stubCommander[commands.ClearAIInput]{}
	publish := &stubCommander[commands.PublishModelInput]{}
	mux := http.NewServeMux()
	(&Handlers{Executor: &CommandExecutor{Clear: clearCmd, Publish: publish}}).Mount(mux, "/api")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ai/clear", nil))
	if rec.Code != http.StatusNoContent || clearCmd.calls != 1 {
		t.Fatalf("expected clear to execute, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/datasources/pg/publish", nil))
	if publish.last.DataSourceID != "pg" {
		t.Fatalf("expected path value, got %q", publish.last.DataSourceID)
	}
}

type stubPages struct {
	last dashboard.PageRequest
}

func (s *stubPages) Render(_ context.Context, req dashboard.PageRequest) (dashboard.Page, error) {
	s.last = req
	return dashboard.Page{Panels: []dashboard.Panel{{Code: dashboard.PanelModels, Enabled: true}}}, nil
}

type stubWorkspaces struct {
	err error
}

func (s stubWorkspaces) ListWorkspaces(context.Context) ([]dashboard.Workspace, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []dashboard.Workspace{{ID: "ws1", Name: "Sales"}}, nil
}

func TestHandlePageMapsQuery(t *testing.T) {
	pages := &stubPages{}
	mux := http.NewServeMux()
	(&Handlers{Executor: &CommandExecutor{}, Pages: queries.NewPageQuery(pages)}).Mount(mux, "/api")

	req := httptest.NewRequest(http.MethodGet, "/api/page?show_models=on&model_workspace=ws1", nil)
	req.Header.Set(SessionHeader, "s1")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !pages.last.Toggles["show_models"] || pages.last.Selections["model_workspace"] != "ws1" {
		t.Fatalf("expected toggles and selections, got %#v", pages.last)
	}
	if pages.last.Viewer.SessionID != "s1" {
		t.Fatalf("expected viewer from header, got %#v", pages.last.Viewer)
	}
	if !strings.Contains(rec.Body.String(), dashboard.PanelModels) {
		t.Fatalf("expected panel in body, got %s", rec.Body.String())
	}
}

func TestHandleWorkspaces(t *testing.T) {
	mux := http.NewServeMux()
	(&Handlers{Executor: &CommandExecutor{}, Workspaces: queries.NewWorkspacesQuery(stubWorkspaces{})}).Mount(mux, "/api")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workspaces", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ws1"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	mux = http.NewServeMux()
	remote := dashboard.NewRemoteError("listWorkspaces", http.StatusUnauthorized, "bad token")
	(&Handlers{Executor: &CommandExecutor{}, Workspaces: queries.NewWorkspacesQuery(stubWorkspaces{err: remote})}).Mount(mux, "/api")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workspaces", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for remote failure, got %d", rec.Code)
	}
}

func TestReadRoutesOptional(t *testing.T) {
	mux := http.NewServeMux()
	(&Handlers{Executor: &CommandExecutor{}}).Mount(mux, "/api")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/page", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected page route to be absent, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"nil":           {nil, http.StatusOK},
		"plain":         {errors.New("boom"), http.StatusInternalServerError},
		"missing field": {dashboard.NewMissingFieldError("createdVisualizations"), http.StatusUnprocessableEntity},
		"remote":        {dashboard.NewRemoteError("list", http.StatusNotFound, ""), http.StatusBadGateway},
		"no response":   {dashboard.ErrNoAIResponse, http.StatusConflict},
		"bad input":     {goerrors.New("question is required", goerrors.CategoryBadInput), http.StatusBadRequest},
	}
	for name, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", name, tc.want, got)
		}
	}
}

func TestHandleAskAIRejectsMissingInput(t *testing.T) {
	service := dashboard.NewService(dashboard.Options{})
	api := &Handlers{Executor: NewCommandExecutor(service, nil)}

	cases := map[string]struct {
		session string
		body    string
	}{
		"empty question":  {session: "s1", body: `{"question":""}`},
		"blank question":  {session: "s1", body: `{"question":"   "}`},
		"missing session": {session: "", body: `{"question":"revenue by region"}`},
	}
	for name, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/ai/ask", strings.NewReader(tc.body))
		if tc.session != "" {
			req.Header.Set(SessionHeader, tc.session)
		}
		rec := httptest.NewRecorder()
		api.HandleAskAI(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", name, rec.Code, rec.Body.String())
		}
	}
}

func TestCommandExecutorRequiresCommanders(t *testing.T) {
	exec := &CommandExecutor{}
	if err := exec.AskAI(context.Background(), commands.AskAIInput{}); err == nil {
		t.Fatalf("expected error without commander")
	}
}
