package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

const (
	jsonContentType    = "application/json"
	jsonAPIContentType = "application/vnd.gooddata.api+json"

	defaultPageSize = 250
	maxErrorBody    = 64 << 10
	scanSeparator   = "__"
	resultOffset    = "0,0"
	resultLimit     = "1000,100"
)

// CallObserver receives the outcome of every remote call. Status is zero
// when the request never produced a response.
type CallObserver interface {
	ObserveCall(operation string, status int, elapsed time.Duration)
}

// HTTPConfig configures the HTTP analytics client.
type HTTPConfig struct {
	BaseURL    string
	APIToken   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	Observer   CallObserver
}

// HTTPClient talks to the analytics platform via its REST endpoints.
type HTTPClient struct {
	baseURL  string
	token    string
	client   *http.Client
	logger   *slog.Logger
	observer CallObserver
}

// NewHTTPClient builds a client capable of hitting the live platform API.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("analytics: base url is required")
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("analytics: api token is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.APIToken,
		client:   httpClient,
		logger:   logger,
		observer: cfg.Observer,
	}, nil
}

// ListWorkspaces pages through the workspace entity collection.
func (c *HTTPClient) ListWorkspaces(ctx context.Context) ([]dashboard.Workspace, error) {
	var out []dashboard.Workspace
	err := c.eachPage(ctx, "list workspaces", "/api/v1/entities/workspaces", func(items []entity) {
		for _, item := range items {
			out = append(out, dashboard.Workspace{ID: item.ID, Name: item.Attributes.Name})
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListDataSources pages through registered data sources.
func (c *HTTPClient) ListDataSources(ctx context.Context) ([]dashboard.DataSource, error) {
	var out []dashboard.DataSource
	err := c.eachPage(ctx, "list data sources", "/api/v1/entities/dataSources", func(items []entity) {
		for _, item := range items {
			out = append(out, dashboard.DataSource{
				ID:       item.ID,
				Name:     item.Attributes.Name,
				Type:     item.Attributes.Type,
				URL:      item.Attributes.URL,
				Schema:   item.Attributes.Schema,
				Username: item.Attributes.Username,
			})
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ScanDataSource reads the physical model of a data source.
func (c *HTTPClient) ScanDataSource(ctx context.Context, dataSourceID string) (dashboard.PhysicalModel, error) {
	req := scanRequest{Separator: scanSeparator, ScanTables: true, ScanViews: false}
	var resp scanResponse
	if err := c.do(ctx, call{
		operation: "scan data source",
		method:    http.MethodPost,
		path:      "/api/v1/actions/dataSources/" + url.PathEscape(dataSourceID) + "/scan",
		payload:   req,
	}, &resp); err != nil {
		return dashboard.PhysicalModel{}, err
	}
	return resp.toModel(), nil
}

// GenerateLogicalModel derives an LDM from a scanned PDM.
func (c *HTTPClient) GenerateLogicalModel(ctx context.Context, dataSourceID string, in dashboard.GenerateModelRequest) (dashboard.LogicalModel, error) {
	req := generateRequest{
		PDM:             in.PDM.Raw,
		Separator:       scanSeparator,
		GrainPrefix:     in.Prefixes.Grain,
		ReferencePrefix: in.Prefixes.Reference,
		FactPrefix:      in.Prefixes.Fact,
	}
	var resp declarativeModel
	if err := c.do(ctx, call{
		operation: "generate logical model",
		method:    http.MethodPost,
		path:      "/api/v1/actions/dataSources/" + url.PathEscape(dataSourceID) + "/generateLogicalModel",
		payload:   req,
	}, &resp); err != nil {
		return dashboard.LogicalModel{}, err
	}
	return resp.toModel()
}

// GetLogicalModel fetches the declarative LDM of a workspace.
func (c *HTTPClient) GetLogicalModel(ctx context.Context, workspaceID string) (dashboard.LogicalModel, error) {
	var resp declarativeModel
	if err := c.do(ctx, call{
		operation: "get logical model",
		method:    http.MethodGet,
		path:      logicalModelPath(workspaceID),
	}, &resp); err != nil {
		return dashboard.LogicalModel{}, err
	}
	return resp.toModel()
}

// PutLogicalModel replaces the declarative LDM of a workspace.
func (c *HTTPClient) PutLogicalModel(ctx context.Context, workspaceID string, model dashboard.LogicalModel) error {
	raw := model.Raw
	if len(raw) == 0 {
		encoded, err := json.Marshal(model)
		if err != nil {
			return fmt.Errorf("analytics: encode logical model: %w", err)
		}
		raw = encoded
	}
	return c.do(ctx, call{
		operation: "put logical model",
		method:    http.MethodPut,
		path:      logicalModelPath(workspaceID),
		payload:   declarativeModel{LDM: raw},
	}, nil)
}

// ListInsights lists visualization objects stored in a workspace.
func (c *HTTPClient) ListInsights(ctx context.Context, workspaceID string) ([]dashboard.Insight, error) {
	var out []dashboard.Insight
	path := "/api/v1/entities/workspaces/" + url.PathEscape(workspaceID) + "/visualizationObjects"
	err := c.eachPage(ctx, "list insights", path, func(items []entity) {
		for _, item := range items {
			out = append(out, dashboard.Insight{ID: item.ID, Title: item.Attributes.Title})
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateOrUpdateDataSource upserts a Snowflake data source keyed by id.
func (c *HTTPClient) CreateOrUpdateDataSource(ctx context.Context, connector dashboard.SnowflakeConnector) error {
	doc := dataSourceDocument{Data: entity{
		ID:   connector.ID,
		Type: "dataSource",
		Attributes: entityAttributes{
			Name:     connector.Name,
			Type:     "SNOWFLAKE",
			URL:      connector.JDBCURL(),
			Schema:   connector.Schema,
			Username: connector.Username,
			Password: connector.Password,
		},
	}}
	err := c.do(ctx, call{
		operation:   "update data source",
		method:      http.MethodPut,
		path:        "/api/v1/entities/dataSources/" + url.PathEscape(connector.ID),
		payload:     doc,
		contentType: jsonAPIContentType,
	}, nil)
	if err == nil || !goerrors.IsNotFound(err) {
		return err
	}
	return c.do(ctx, call{
		operation:   "create data source",
		method:      http.MethodPost,
		path:        "/api/v1/entities/dataSources",
		payload:     doc,
		contentType: jsonAPIContentType,
	}, nil)
}

// PostAIChat posts a question to the workspace AI chat endpoint. Only an
// HTTP 200 counts as success; any other status is returned as an error
// carrying the raw body.
func (c *HTTPClient) PostAIChat(ctx context.Context, workspaceID string, req dashboard.ChatRequest) (dashboard.ChatResponse, error) {
	const operation = "ai chat"
	status, body, err := c.send(ctx, call{
		operation: operation,
		method:    http.MethodPost,
		path:      "/api/v1/actions/workspaces/" + url.PathEscape(workspaceID) + "/ai/chat",
		payload:   req,
	})
	if err != nil {
		return dashboard.ChatResponse{}, err
	}
	if status != http.StatusOK {
		return dashboard.ChatResponse{}, dashboard.NewRemoteError(operation, status, string(body)).
			WithTextCode(dashboard.TextCodeUnexpected)
	}
	if !json.Valid(body) {
		return dashboard.ChatResponse{}, fmt.Errorf("analytics: decode ai chat response: invalid json")
	}
	return dashboard.ChatResponse{Body: json.RawMessage(body)}, nil
}

// FetchDataFrame executes the definition and reads back the first result page.
func (c *HTTPClient) FetchDataFrame(ctx context.Context, def dashboard.ExecutionDefinition) (dashboard.DataFrame, error) {
	basePath := "/api/v1/actions/workspaces/" + url.PathEscape(def.WorkspaceID) + "/execution/afm/execute"
	var exec executeResponse
	if err := c.do(ctx, call{
		operation: "execute",
		method:    http.MethodPost,
		path:      basePath,
		payload:   newExecuteRequest(def),
	}, &exec); err != nil {
		return dashboard.DataFrame{}, err
	}
	resultID := exec.ExecutionResponse.Links.ExecutionResult
	if resultID == "" {
		return dashboard.DataFrame{}, fmt.Errorf("analytics: execution response missing result link")
	}
	query := url.Values{}
	query.Set("offset", resultOffset)
	query.Set("limit", resultLimit)
	var result executionResult
	if err := c.do(ctx, call{
		operation: "read execution result",
		method:    http.MethodGet,
		path:      basePath + "/result/" + url.PathEscape(resultID),
		query:     query,
	}, &result); err != nil {
		return dashboard.DataFrame{}, err
	}
	return result.toFrame(def), nil
}

type call struct {
	operation   string
	method      string
	path        string
	query       url.Values
	payload     any
	contentType string
}

func (c *HTTPClient) eachPage(ctx context.Context, operation, path string, visit func([]entity)) error {
	for page := 0; ; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("size", strconv.Itoa(defaultPageSize))
		var resp entityList
		if err := c.do(ctx, call{
			operation: operation,
			method:    http.MethodGet,
			path:      path,
			query:     query,
		}, &resp); err != nil {
			return err
		}
		visit(resp.Data)
		if len(resp.Data) < defaultPageSize {
			return nil
		}
	}
}

func (c *HTTPClient) do(ctx context.Context, in call, target any) error {
	status, body, err := c.send(ctx, in)
	if err != nil {
		return err
	}
	if status >= 300 {
		return dashboard.NewRemoteError(in.operation, status, string(body))
	}
	if target == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("analytics: decode %s response: %w", in.operation, err)
	}
	return nil
}

func (c *HTTPClient) send(ctx context.Context, in call) (int, []byte, error) {
	var reader io.Reader
	if in.payload != nil {
		body, err := json.Marshal(in.payload)
		if err != nil {
			return 0, nil, fmt.Errorf("analytics: encode payload: %w", err)
		}
		reader = bytes.NewReader(body)
	}
	target := c.baseURL + in.path
	if len(in.query) > 0 {
		target += "?" + in.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, in.method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("analytics: build request: %w", err)
	}
	contentType := in.contentType
	if contentType == "" {
		contentType = jsonContentType
	}
	if reader != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", contentType)
	req.Header.Set("Authorization", "Bearer "+c.token)

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.observe(in.operation, 0, started)
		return 0, nil, goerrors.Wrap(err, goerrors.CategoryExternal, "analytics: "+in.operation+" request failed").
			WithMetadata(map[string]any{"operation": in.operation})
	}
	defer resp.Body.Close()
	c.observe(in.operation, resp.StatusCode, started)

	limit := int64(-1)
	if resp.StatusCode >= 300 {
		limit = maxErrorBody
	}
	body, err := readBody(resp.Body, limit)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("analytics: read %s response: %w", in.operation, err)
	}
	c.logger.DebugContext(ctx, "analytics call",
		slog.String("operation", in.operation),
		slog.String("method", in.method),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(started)),
	)
	return resp.StatusCode, body, nil
}

func (c *HTTPClient) observe(operation string, status int, started time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveCall(operation, status, time.Since(started))
}

func readBody(r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit)
	}
	return io.ReadAll(r)
}

func logicalModelPath(workspaceID string) string {
	return "/api/v1/layout/workspaces/" + url.PathEscape(workspaceID) + "/logicalModel"
}
