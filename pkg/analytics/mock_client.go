package analytics

import (
	"context"
	"encoding/json"
	"sync"

	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

// MockData seeds deterministic platform responses for tests or local demos.
type MockData struct {
	Workspaces  []dashboard.Workspace
	DataSources []dashboard.DataSource
	PDM         dashboard.PhysicalModel
	Models      map[string]dashboard.LogicalModel
	Insights    map[string][]dashboard.Insight
	ChatReply   json.RawMessage
	Frame       dashboard.DataFrame
}

// MockClient implements Client using in-memory fixtures. Errors keyed by
// method name are returned instead of the fixture, and every call is
// recorded in order.
type MockClient struct {
	mu     sync.RWMutex
	data   MockData
	errs   map[string]error
	calls  []string
	stored map[string]dashboard.SnowflakeConnector
	execs  []dashboard.ExecutionDefinition
}

// NewMockClient builds a mock analytics client from the provided fixtures.
func NewMockClient(data MockData) *MockClient {
	if data.Models == nil {
		data.Models = map[string]dashboard.LogicalModel{}
	}
	if data.Insights == nil {
		data.Insights = map[string][]dashboard.Insight{}
	}
	return &MockClient{
		data:   data,
		errs:   map[string]error{},
		stored: map[string]dashboard.SnowflakeConnector{},
	}
}

// FailOn makes the named method return err until cleared with a nil error.
func (c *MockClient) FailOn(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.errs, method)
		return
	}
	c.errs[method] = err
}

// Calls returns the method names invoked so far.
func (c *MockClient) Calls() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.calls...)
}

// Executions returns the execution definitions received by FetchDataFrame.
func (c *MockClient) Executions() []dashboard.ExecutionDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]dashboard.ExecutionDefinition(nil), c.execs...)
}

// DataSource returns a connector stored through CreateOrUpdateDataSource.
func (c *MockClient) DataSource(id string) (dashboard.SnowflakeConnector, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conn, ok := c.stored[id]
	return conn, ok
}

func (c *MockClient) record(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, method)
	return c.errs[method]
}

// ListWorkspaces returns the configured workspaces.
func (c *MockClient) ListWorkspaces(context.Context) ([]dashboard.Workspace, error) {
	if err := c.record("ListWorkspaces"); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]dashboard.Workspace(nil), c.data.Workspaces...), nil
}

// ListDataSources returns the configured data sources plus any upserted ones.
func (c *MockClient) ListDataSources(context.Context) ([]dashboard.DataSource, error) {
	if err := c.record("ListDataSources"); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]dashboard.DataSource(nil), c.data.DataSources...), nil
}

// ScanDataSource returns the configured PDM for any data source.
func (c *MockClient) ScanDataSource(context.Context, string) (dashboard.PhysicalModel, error) {
	if err := c.record("ScanDataSource"); err != nil {
		return dashboard.PhysicalModel{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.PDM, nil
}

// GenerateLogicalModel derives a single dataset whose id carries the grain prefix.
func (c *MockClient) GenerateLogicalModel(_ context.Context, dataSourceID string, req dashboard.GenerateModelRequest) (dashboard.LogicalModel, error) {
	if err := c.record("GenerateLogicalModel"); err != nil {
		return dashboard.LogicalModel{}, err
	}
	return dashboard.LogicalModel{Datasets: []dashboard.Dataset{{
		ID:    req.Prefixes.Grain + "_" + dataSourceID,
		Title: dataSourceID,
	}}}, nil
}

// GetLogicalModel returns the model stored for a workspace.
func (c *MockClient) GetLogicalModel(_ context.Context, workspaceID string) (dashboard.LogicalModel, error) {
	if err := c.record("GetLogicalModel"); err != nil {
		return dashboard.LogicalModel{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Models[workspaceID], nil
}

// PutLogicalModel overwrites the model stored for a workspace.
func (c *MockClient) PutLogicalModel(_ context.Context, workspaceID string, model dashboard.LogicalModel) error {
	if err := c.record("PutLogicalModel"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Models[workspaceID] = model
	return nil
}

// ListInsights returns the configured insights for a workspace.
func (c *MockClient) ListInsights(_ context.Context, workspaceID string) ([]dashboard.Insight, error) {
	if err := c.record("ListInsights"); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]dashboard.Insight(nil), c.data.Insights[workspaceID]...), nil
}

// CreateOrUpdateDataSource stores the connector keyed by id.
func (c *MockClient) CreateOrUpdateDataSource(_ context.Context, connector dashboard.SnowflakeConnector) error {
	if err := c.record("CreateOrUpdateDataSource"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.stored[connector.ID]; !exists {
		c.data.DataSources = append(c.data.DataSources, dashboard.DataSource{
			ID:       connector.ID,
			Name:     connector.Name,
			Type:     "SNOWFLAKE",
			URL:      connector.JDBCURL(),
			Schema:   connector.Schema,
			Username: connector.Username,
		})
	}
	c.stored[connector.ID] = connector
	return nil
}

// PostAIChat returns the configured chat reply.
func (c *MockClient) PostAIChat(context.Context, string, dashboard.ChatRequest) (dashboard.ChatResponse, error) {
	if err := c.record("PostAIChat"); err != nil {
		return dashboard.ChatResponse{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return dashboard.ChatResponse{Body: append(json.RawMessage(nil), c.data.ChatReply...)}, nil
}

// FetchDataFrame records the definition and returns the configured frame.
func (c *MockClient) FetchDataFrame(_ context.Context, def dashboard.ExecutionDefinition) (dashboard.DataFrame, error) {
	if err := c.record("FetchDataFrame"); err != nil {
		return dashboard.DataFrame{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs = append(c.execs, def)
	return cloneFrame(c.data.Frame), nil
}

func cloneFrame(frame dashboard.DataFrame) dashboard.DataFrame {
	out := dashboard.DataFrame{
		IndexName: frame.IndexName,
		Columns:   append([]string(nil), frame.Columns...),
		Rows:      make([]dashboard.FrameRow, len(frame.Rows)),
	}
	for i, row := range frame.Rows {
		out.Rows[i] = dashboard.FrameRow{
			Label:  row.Label,
			Values: append([]*float64(nil), row.Values...),
		}
	}
	return out
}
