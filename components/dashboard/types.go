package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// WorkspaceCatalog lists the workspaces available to the configured token.
type WorkspaceCatalog interface {
	ListWorkspaces(ctx context.Context) ([]Workspace, error)
}

// DataSourceCatalog covers data source listing, scanning, model generation and upserts.
type DataSourceCatalog interface {
	ListDataSources(ctx context.Context) ([]DataSource, error)
	ScanDataSource(ctx context.Context, dataSourceID string) (PhysicalModel, error)
	GenerateLogicalModel(ctx context.Context, dataSourceID string, req GenerateModelRequest) (LogicalModel, error)
	CreateOrUpdateDataSource(ctx context.Context, connector SnowflakeConnector) error
}

// WorkspaceContent reads and writes declarative workspace content.
type WorkspaceContent interface {
	GetLogicalModel(ctx context.Context, workspaceID string) (LogicalModel, error)
	PutLogicalModel(ctx context.Context, workspaceID string, model LogicalModel) error
	ListInsights(ctx context.Context, workspaceID string) ([]Insight, error)
}

// AIChatClient forwards natural-language questions to the hosted AI endpoint.
type AIChatClient interface {
	PostAIChat(ctx context.Context, workspaceID string, req ChatRequest) (ChatResponse, error)
}

// ExecutionClient runs execution definitions and returns their result table.
type ExecutionClient interface {
	FetchDataFrame(ctx context.Context, def ExecutionDefinition) (DataFrame, error)
}

// Workspace is a tenant container in the analytics platform.
type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DataSource is a registered database connection.
type DataSource struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	URL      string `json:"url,omitempty"`
	Schema   string `json:"schema,omitempty"`
	Username string `json:"username,omitempty"`
}

const (
	snowflakeURLTemplate = "jdbc:snowflake://%s.snowflakecomputing.com:443?%s"
	maskedSecret         = "********"
)

// SnowflakeConnector collects the fields needed to register a Snowflake data source.
type SnowflakeConnector struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Account   string `json:"account"`
	Warehouse string `json:"warehouse"`
	Database  string `json:"database"`
	Schema    string `json:"schema"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// JDBCURL builds the connection URL the platform expects for Snowflake.
func (c SnowflakeConnector) JDBCURL() string {
	params := url.Values{}
	params.Set("warehouse", c.Warehouse)
	params.Set("db", c.Database)
	return fmt.Sprintf(snowflakeURLTemplate, c.Account, params.Encode())
}

// Masked returns a copy safe to echo back to the user.
func (c SnowflakeConnector) Masked() SnowflakeConnector {
	if c.Password != "" {
		c.Password = maskedSecret
	}
	return c
}

// Fields exposes the connector as a flat map for validation and display.
func (c SnowflakeConnector) Fields() map[string]any {
	return map[string]any{
		"id":        c.ID,
		"name":      c.Name,
		"account":   c.Account,
		"warehouse": c.Warehouse,
		"database":  c.Database,
		"schema":    c.Schema,
		"username":  c.Username,
		"password":  c.Password,
	}
}

// PhysicalModel is the scanned schema of a data source. The payload is kept
// opaque and handed back to the platform unchanged.
type PhysicalModel struct {
	Raw      json.RawMessage `json:"pdm"`
	Tables   int             `json:"tables"`
	Warnings int             `json:"warnings"`
}

// ModelPrefixes are the naming conventions used when deriving a logical model.
type ModelPrefixes struct {
	Grain     string `json:"grainPrefix"`
	Reference string `json:"referencePrefix"`
	Fact      string `json:"factPrefix"`
}

// DefaultModelPrefixes mirrors the conventions used by the hackathon workspace.
func DefaultModelPrefixes() ModelPrefixes {
	return ModelPrefixes{Grain: "gr", Reference: "r", Fact: "f"}
}

// GenerateModelRequest asks the platform to derive an LDM from a PDM.
type GenerateModelRequest struct {
	PDM      PhysicalModel
	Prefixes ModelPrefixes
}

// LogicalModel is a declarative LDM. Raw carries the full document so a
// generated model can be published without losing fields we do not render.
type LogicalModel struct {
	Datasets []Dataset       `json:"datasets"`
	Raw      json.RawMessage `json:"-"`
}

// Dataset groups attributes and facts.
type Dataset struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Attributes []ModelField `json:"attributes"`
	Facts      []ModelField `json:"facts"`
}

// ModelField is an attribute or fact inside a dataset.
type ModelField struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Insight is a saved visualization.
type Insight struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ChatRequest is the body posted to the AI chat endpoint.
type ChatRequest struct {
	Question    string   `json:"question"`
	DeepSearch  bool     `json:"deepSearch"`
	ObjectTypes []string `json:"objectTypes"`
}

// NewChatRequest applies the defaults used by the visualization flow.
func NewChatRequest(question string) ChatRequest {
	return ChatRequest{
		Question:    question,
		DeepSearch:  true,
		ObjectTypes: []string{"attribute", "fact"},
	}
}

// ChatResponse is the raw reply of a successful AI chat call. ID is assigned
// locally when the reply is stored and identifies it for memoization.
type ChatResponse struct {
	ID         string          `json:"id"`
	Body       json.RawMessage `json:"body"`
	ReceivedAt time.Time       `json:"received_at"`
}

// MeasureGroup is the implicit dimension item holding measures.
const MeasureGroup = "measureGroup"

// ExecutionDefinition describes a one-table query against a workspace.
type ExecutionDefinition struct {
	WorkspaceID string          `json:"workspace_id"`
	Attributes  []AttributeItem `json:"attributes"`
	Measures    []MeasureItem   `json:"measures"`
	Dimensions  [][]string      `json:"dimensions"`
}

// AttributeItem references a label by identifier.
type AttributeItem struct {
	LocalID string `json:"local_id"`
	Label   string `json:"label"`
}

// MeasureItem references an object and the aggregation applied to it.
type MeasureItem struct {
	LocalID     string `json:"local_id"`
	ItemID      string `json:"item_id"`
	ItemType    string `json:"item_type"`
	Aggregation string `json:"aggregation,omitempty"`
}

// DataFrame is a result table indexed by attribute values.
type DataFrame struct {
	IndexName string     `json:"index_name"`
	Columns   []string   `json:"columns"`
	Rows      []FrameRow `json:"rows"`
}

// FrameRow holds one attribute element and its measure values. Nil values
// are nulls in the result.
type FrameRow struct {
	Label  string     `json:"label"`
	Values []*float64 `json:"values"`
}

// Header returns the index name followed by the column names.
func (f DataFrame) Header() []string {
	return append([]string{f.IndexName}, f.Columns...)
}

// Cells formats every row for display. Nulls become empty strings.
func (f DataFrame) Cells() [][]string {
	out := make([][]string, len(f.Rows))
	for i, row := range f.Rows {
		cells := make([]string, 0, len(f.Columns)+1)
		cells = append(cells, row.Label)
		for col := range f.Columns {
			if col < len(row.Values) && row.Values[col] != nil {
				cells = append(cells, strconv.FormatFloat(*row.Values[col], 'f', -1, 64))
				continue
			}
			cells = append(cells, "")
		}
		out[i] = cells
	}
	return out
}

// ViewerContext identifies the browser session a render belongs to.
type ViewerContext struct {
	SessionID string
}
