package dashboard

import (
	"net/url"
	"strings"

	"github.com/ettle/strcase"
)

// Panel codes registered by default.
const (
	PanelWorkspaces     = "gd.panel.workspaces"
	PanelDataSources    = "gd.panel.datasources"
	PanelDataSourceForm = "gd.panel.datasource_form"
	PanelModels         = "gd.panel.models"
	PanelInsights       = "gd.panel.insights"
	PanelAI             = "gd.panel.ai"
)

// PanelDefinition describes a page section. Toggle names the request flag
// that gates the panel; an empty toggle means the panel always renders.
// Selector names the request parameter carrying a workspace choice.
type PanelDefinition struct {
	Code        string         `json:"code" yaml:"code"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string         `json:"category,omitempty" yaml:"category,omitempty"`
	Toggle      string         `json:"toggle,omitempty" yaml:"toggle,omitempty"`
	Selector    string         `json:"selector,omitempty" yaml:"selector,omitempty"`
	Hidden      bool           `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Schema      map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// DOMID derives a stable element id from the panel code.
func (d PanelDefinition) DOMID() string {
	return strcase.ToKebab(d.Code)
}

// PageRequest carries the checkbox and selector state of one render.
type PageRequest struct {
	Viewer     ViewerContext
	Toggles    map[string]bool
	Selections map[string]string
}

// PageRequestFromValues maps request parameters onto panel toggles and
// selectors. Any parameter can select; only truthy ones toggle.
func PageRequestFromValues(viewer ViewerContext, values url.Values) PageRequest {
	req := PageRequest{
		Viewer:     viewer,
		Toggles:    map[string]bool{},
		Selections: map[string]string{},
	}
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		value := vals[len(vals)-1]
		req.Selections[key] = value
		switch strings.ToLower(value) {
		case "true", "on", "1", "yes":
			req.Toggles[key] = true
		}
	}
	return req
}

// Enabled reports whether a gated panel was switched on.
func (r PageRequest) Enabled(def PanelDefinition) bool {
	if def.Toggle == "" {
		return true
	}
	return r.Toggles[def.Toggle]
}

// Selection returns the selector value for a panel.
func (r PageRequest) Selection(def PanelDefinition) string {
	if def.Selector == "" {
		return ""
	}
	return r.Selections[def.Selector]
}

// Panel is a resolved page section.
type Panel struct {
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	DOMID    string    `json:"dom_id"`
	Category string    `json:"category,omitempty"`
	Toggle   string    `json:"toggle,omitempty"`
	Selector string    `json:"selector,omitempty"`
	Enabled  bool      `json:"enabled"`
	Selected string    `json:"selected,omitempty"`
	Data     PanelData `json:"data,omitempty"`
	Error    string    `json:"error,omitempty"`

	Provider *ManifestProvider `json:"provider,omitempty"`
}

// Page is the output of a render pass.
type Page struct {
	Panels     []Panel     `json:"panels"`
	Workspaces []Workspace `json:"workspaces"`
	Error      string      `json:"error,omitempty"`
	Messages   []Message   `json:"messages,omitempty"`
}

// Panel returns the panel with the given code.
func (p Page) Panel(code string) (Panel, bool) {
	for _, panel := range p.Panels {
		if panel.Code == code {
			return panel, true
		}
	}
	return Panel{}, false
}

// Message levels shown above the panels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelError   = "error"
)

// Message is a flash notice produced by an action.
type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// DefaultPanelDefinitions returns the built-in panels in display order.
func DefaultPanelDefinitions() []PanelDefinition {
	return []PanelDefinition{
		{
			Code:        PanelWorkspaces,
			Name:        "Workspaces",
			Description: "Workspaces available to the configured token",
			Category:    "catalog",
		},
		{
			Code:        PanelDataSources,
			Name:        "Data Sources",
			Description: "Registered data sources with a scan, generate and publish action",
			Category:    "catalog",
			Toggle:      "show_datasources",
		},
		{
			Code:        PanelDataSourceForm,
			Name:        "Add Snowflake Data Source",
			Description: "Create or update a Snowflake connection",
			Category:    "datasource",
			Schema:      snowflakeFormSchema(),
		},
		{
			Code:        PanelModels,
			Name:        "Data Models",
			Description: "Datasets, attributes and facts of a workspace",
			Category:    "model",
			Toggle:      "show_models",
			Selector:    "model_workspace",
		},
		{
			Code:        PanelInsights,
			Name:        "Visualizations",
			Description: "Saved insights of a workspace",
			Category:    "model",
			Toggle:      "show_insights",
			Selector:    "insight_workspace",
		},
		{
			Code:        PanelAI,
			Name:        "Generate Visualization",
			Description: "Ask a question and chart the suggested metric",
			Category:    "ai",
		},
	}
}

func snowflakeFormSchema() map[string]any {
	fields := []string{"id", "name", "account", "warehouse", "database", "schema", "username", "password"}
	properties := make(map[string]any, len(fields))
	required := make([]any, 0, len(fields))
	for _, field := range fields {
		properties[field] = map[string]any{"type": "string", "minLength": 1}
		required = append(required, field)
	}
	properties["id"] = map[string]any{
		"type":      "string",
		"minLength": 1,
		"pattern":   "^[A-Za-z0-9_.-]+$",
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}
