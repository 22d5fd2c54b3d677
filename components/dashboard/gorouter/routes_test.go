package gorouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	router "github.com/goliatone/go-router"

	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
	"github.com/pavel242242/gd-hackathon-2024/components/dashboard/commands"
)

func TestRegisterValidatesConfig(t *testing.T) {
	err := Register(Config[struct{}]{})
	if err == nil {
		t.Fatalf("expected error when router/controller missing")
	}
}

func TestRegisterHTMLRoute(t *testing.T) {
	mock := newMockRouter()
	service := &stubPageService{}
	renderer := &stubRenderer{}
	controller := dashboard.NewController(dashboard.ControllerOptions{
		Service:  service,
		Renderer: renderer,
	})

	cfg := Config[struct{}]{
		Router:     mock,
		Controller: controller,
		API:        &recordingExecutor{},
	}
	if err := Register(cfg); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	h, ok := mock.routes["GET:/gd/"]
	if !ok {
		t.Fatalf("expected dashboard route to be registered")
	}

	ctx := newMockContext()
	ctx.queries["show_models"] = "true"
	ctx.queries["model_workspace"] = "ws1"
	if err := h(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(ctx.body) == 0 {
		t.Fatalf("expected response body")
	}
	if renderer.calls == 0 {
		t.Fatalf("renderer not invoked")
	}
	if !service.lastReq.Toggles["show_models"] || service.lastReq.Selections["model_workspace"] != "ws1" {
		t.Fatalf("expected query mapped to page request, got %#v", service.lastReq)
	}
	for _, key := range []string{"POST:/gd/datasources", "POST:/gd/datasources/:id/publish", "POST:/gd/ai/ask", "POST:/gd/ai/refresh", "POST:/gd/ai/clear", "GET:/gd/_layout"} {
		if _, ok := mock.routes[key]; !ok {
			t.Fatalf("expected route %s", key)
		}
	}
}

func TestCreateDataSourceFormRendersFlash(t *testing.T) {
	mock := newMockRouter()
	renderer := &stubRenderer{}
	exec := &recordingExecutor{createErr: errors.New("unreachable")}
	controller := dashboard.NewController(dashboard.ControllerOptions{Service: &stubPageService{}, Renderer: renderer})
	if err := Register(Config[struct{}]{Router: mock, Controller: controller, API: exec}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	ctx := newMockContext()
	ctx.headers["Content-Type"] = "application/x-www-form-urlencoded"
	ctx.body = []byte("id=snow&name=Snow&account=acme&warehouse=wh&database=db&schema=public&username=bob&password=secret")
	if err := mock.routes["POST:/gd/datasources"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if exec.lastCreate.Connector.Password != "secret" || exec.lastCreate.Connector.Account != "acme" {
		t.Fatalf("expected form decoded into connector, got %#v", exec.lastCreate.Connector)
	}
	messages, _ := renderer.lastPayload["messages"].([]dashboard.Message)
	if len(messages) != 2 {
		t.Fatalf("expected error and echo messages, got %#v", messages)
	}
	if messages[0].Level != dashboard.LevelError {
		t.Fatalf("expected error first, got %#v", messages[0])
	}
	if strings.Contains(messages[1].Text, "secret") || !strings.Contains(messages[1].Text, "acme") {
		t.Fatalf("expected masked echo, got %q", messages[1].Text)
	}
}

func TestPublishReturnsJSONWhenRequested(t *testing.T) {
	mock := newMockRouter()
	exec := &recordingExecutor{}
	controller := dashboard.NewController(dashboard.ControllerOptions{Service: &stubPageService{}, Renderer: &stubRenderer{}})
	if err := Register(Config[struct{}]{Router: mock, Controller: controller, API: exec}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	ctx := newMockContext()
	ctx.headers["Accept"] = "application/json"
	ctx.params["id"] = "snow"
	if err := mock.routes["POST:/gd/datasources/:id/publish"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != http.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.status)
	}
	var report dashboard.PipelineReport
	if err := json.Unmarshal(ctx.body, &report); err != nil {
		t.Fatalf("expected json report: %v", err)
	}
	if report.DataSourceID != "snow" || !report.Completed {
		t.Fatalf("unexpected report %#v", report)
	}
}

func TestAskUsesResolvedViewer(t *testing.T) {
	mock := newMockRouter()
	exec := &recordingExecutor{}
	controller := dashboard.NewController(dashboard.ControllerOptions{Service: &stubPageService{}, Renderer: &stubRenderer{}})
	cookies := NewSessionCookies("test-secret", time.Hour)
	err := Register(Config[struct{}]{
		Router:         mock,
		Controller:     controller,
		API:            exec,
		ViewerResolver: cookies.Resolve,
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	ctx := newMockContext()
	ctx.headers["Accept"] = "application/json"
	ctx.headers["Content-Type"] = "application/json"
	ctx.body = []byte(`{"question":"revenue by region"}`)
	if err := mock.routes["POST:/gd/ai/ask"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if exec.lastAsk.Question != "revenue by region" {
		t.Fatalf("expected question, got %q", exec.lastAsk.Question)
	}
	if exec.lastAsk.Viewer.SessionID == "" {
		t.Fatalf("expected session id issued")
	}
	if ctx.cookie == nil || ctx.cookie.Name != DefaultSessionCookie {
		t.Fatalf("expected session cookie to be set")
	}
	if ctx.status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", ctx.status)
	}
}

func TestSessionCookiesRoundTrip(t *testing.T) {
	cookies := NewSessionCookies("test-secret", time.Hour)
	first := newMockContext()
	viewer := cookies.Resolve(first)
	if first.cookie == nil {
		t.Fatalf("expected cookie issued")
	}

	second := newMockContext()
	second.cookies[DefaultSessionCookie] = first.cookie.Value
	again := cookies.Resolve(second)
	if again.SessionID != viewer.SessionID {
		t.Fatalf("expected same session, got %s and %s", viewer.SessionID, again.SessionID)
	}
	if second.cookie != nil {
		t.Fatalf("expected no new cookie for a valid session")
	}

	tampered := newMockContext()
	tampered.cookies[DefaultSessionCookie] = first.cookie.Value + "x"
	if cookies.Resolve(tampered).SessionID == viewer.SessionID {
		t.Fatalf("expected tampered cookie to be rejected")
	}
}

// --- Test helpers ---

type mockRouter struct {
	router.Router[struct{}]
	prefix string
	routes map[string]router.HandlerFunc
}

func newMockRouter() *mockRouter {
	return &mockRouter{
		routes: map[string]router.HandlerFunc{},
	}
}

func (m *mockRouter) Group(prefix string) router.Router[struct{}] {
	return &mockRouter{
		prefix: m.prefix + prefix,
		routes: m.routes,
	}
}

func (m *mockRouter) record(method, path string, handler router.HandlerFunc) {
	full := m.prefix + path
	m.routes[method+":"+full] = handler
}

func (m *mockRouter) Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.GET), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.POST), path, handler)
	return mockRouteInfo{}
}

type mockRouteInfo struct {
	router.RouteInfo
}

type mockContext struct {
	ctx     context.Context
	headers map[string]string
	body    []byte
	locals  map[any]any
	store   map[string]any
	params  map[string]string
	queries map[string]string
	cookies map[string]string
	cookie  *router.Cookie
	status  int
}

var _ router.Context = (*mockContext)(nil)

func newMockContext() *mockContext {
	return &mockContext{
		ctx:     context.Background(),
		headers: map[string]string{},
		locals:  map[any]any{},
		store:   map[string]any{},
		params:  map[string]string{},
		queries: map[string]string{},
		cookies: map[string]string{},
	}
}

func (m *mockContext) Context() context.Context       { return m.ctx }
func (m *mockContext) SetContext(ctx context.Context) { m.ctx = ctx }
func (m *mockContext) Next() error                    { return nil }
func (m *mockContext) RouteName() string              { return "" }
func (m *mockContext) RouteParams() map[string]string { return m.params }
func (m *mockContext) Bind(v any) error               { return json.Unmarshal(m.body, v) }

func (m *mockContext) Method() string      { return http.MethodGet }
func (m *mockContext) Path() string        { return "/" }
func (m *mockContext) Referer() string     { return m.headers["Referer"] }
func (m *mockContext) OriginalURL() string { return "/" }
func (m *mockContext) IP() string          { return "127.0.0.1" }

func (m *mockContext) Param(name string, defaultValue ...string) string {
	if v, ok := m.params[name]; ok {
		return v
	}
	return firstOr(defaultValue)
}

func (m *mockContext) ParamsInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(m.params[key]); err == nil {
		return v
	}
	return defaultValue
}

func (m *mockContext) Query(name string, defaultValue ...string) string {
	if v, ok := m.queries[name]; ok {
		return v
	}
	return firstOr(defaultValue)
}

func (m *mockContext) QueryValues(name string) []string {
	if v, ok := m.queries[name]; ok {
		return []string{v}
	}
	return nil
}

func (m *mockContext) QueryInt(name string, defaultValue int) int {
	if v, err := strconv.Atoi(m.queries[name]); err == nil {
		return v
	}
	return defaultValue
}

func (m *mockContext) Queries() map[string]string { return m.queries }
func (m *mockContext) Body() []byte               { return m.body }

func (m *mockContext) Locals(key any, value ...any) any {
	if len(value) == 0 {
		return m.locals[key]
	}
	m.locals[key] = value[0]
	return value[0]
}

func (m *mockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	merged, _ := m.locals[key].(map[string]any)
	if merged == nil {
		merged = map[string]any{}
	}
	for k, v := range value {
		merged[k] = v
	}
	m.locals[key] = merged
	return merged
}

func (m *mockContext) Render(string, any, ...string) error { return nil }

func (m *mockContext) Cookie(cookie *router.Cookie) { m.cookie = cookie }

func (m *mockContext) Cookies(key string, defaultValue ...string) string {
	if v, ok := m.cookies[key]; ok {
		return v
	}
	return firstOr(defaultValue)
}

func (m *mockContext) CookieParser(any) error                                   { return nil }
func (m *mockContext) Redirect(string, ...int) error                            { return nil }
func (m *mockContext) RedirectToRoute(string, router.ViewContext, ...int) error { return nil }
func (m *mockContext) RedirectBack(string, ...int) error                        { return nil }
func (m *mockContext) Header(k string) string                                   { return m.headers[k] }

func (m *mockContext) FormFile(string) (*multipart.FileHeader, error) {
	return nil, http.ErrMissingFile
}

func (m *mockContext) FormValue(key string, defaultValue ...string) string {
	values, err := url.ParseQuery(string(m.body))
	if err == nil && values.Has(key) {
		return values.Get(key)
	}
	return firstOr(defaultValue)
}

func (m *mockContext) Status(code int) router.Context {
	m.status = code
	return m
}

func (m *mockContext) Send(b []byte) error {
	m.body = append([]byte{}, b...)
	return nil
}

func (m *mockContext) SendString(body string) error { return m.Send([]byte(body)) }

func (m *mockContext) SendStatus(code int) error {
	m.status = code
	return nil
}

func (m *mockContext) JSON(code int, v any) error {
	m.status = code
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.body = data
	return nil
}

func (m *mockContext) SendStream(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return m.Send(data)
}

func (m *mockContext) NoContent(code int) error { return m.SendStatus(code) }

func (m *mockContext) SetHeader(k, v string) router.Context {
	m.headers[k] = v
	return m
}

func (m *mockContext) Request() *http.Request        { return nil }
func (m *mockContext) Response() http.ResponseWriter { return nil }

func (m *mockContext) Set(key string, value any) { m.store[key] = value }

func (m *mockContext) Get(key string, def any) any {
	if v, ok := m.store[key]; ok {
		return v
	}
	return def
}

func (m *mockContext) GetString(key string, def string) string {
	if v, ok := m.store[key].(string); ok {
		return v
	}
	return def
}

func (m *mockContext) GetInt(key string, def int) int {
	if v, ok := m.store[key].(int); ok {
		return v
	}
	return def
}

func (m *mockContext) GetBool(key string, def bool) bool {
	if v, ok := m.store[key].(bool); ok {
		return v
	}
	return def
}

func firstOr(values []string) string {
	if len(values) > 0 {
		return values[0]
	}
	return ""
}

type stubPageService struct {
	lastReq dashboard.PageRequest
}

func (s *stubPageService) Render(_ context.Context, req dashboard.PageRequest) (dashboard.Page, error) {
	s.lastReq = req
	return dashboard.Page{Panels: []dashboard.Panel{}, Workspaces: []dashboard.Workspace{}}, nil
}

type stubRenderer struct {
	calls       int
	lastPayload map[string]any
}

func (s *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	s.calls++
	if payload, ok := data.(map[string]any); ok {
		s.lastPayload = payload
	}
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("ok"))
	}
	return "ok", nil
}

type recordingExecutor struct {
	createErr  error
	lastCreate commands.CreateDataSourceInput
	lastAsk    commands.AskAIInput
}

func (e *recordingExecutor) CreateDataSource(_ context.Context, input commands.CreateDataSourceInput) error {
	e.lastCreate = input
	if input.Result != nil {
		*input.Result = dashboard.DataSourceResult{ID: input.Connector.ID}
		if e.createErr != nil {
			echo := input.Connector.Masked()
			input.Result.Echo = &echo
		}
	}
	return e.createErr
}

func (e *recordingExecutor) PublishModel(_ context.Context, input commands.PublishModelInput) error {
	if input.Report != nil {
		*input.Report = dashboard.PipelineReport{
			DataSourceID: input.DataSourceID,
			Workspace:    dashboard.DefaultPublishWorkspace,
			Completed:    true,
			Steps:        []dashboard.PipelineStep{{Name: dashboard.StepScan, Status: dashboard.StepOK}},
		}
	}
	return nil
}

func (e *recordingExecutor) AskAI(_ context.Context, input commands.AskAIInput) error {
	e.lastAsk = input
	if input.Response != nil {
		*input.Response = dashboard.ChatResponse{ID: "resp-1"}
	}
	return nil
}

func (e *recordingExecutor) RefreshAI(context.Context, commands.RefreshAIInput) error { return nil }

func (e *recordingExecutor) ClearAI(context.Context, commands.ClearAIInput) error { return nil }
