package dashboard

import (
	"context"
)

// FormField describes one input of the data source form.
type FormField struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

var snowflakeFormFields = []FormField{
	{Name: "id", Label: "Data Source ID", Type: "text"},
	{Name: "name", Label: "Data Source Name", Type: "text"},
	{Name: "account", Label: "Snowflake Account", Type: "text"},
	{Name: "warehouse", Label: "Snowflake Warehouse", Type: "text"},
	{Name: "database", Label: "Snowflake Database Name", Type: "text"},
	{Name: "schema", Label: "Snowflake Schema", Type: "text"},
	{Name: "username", Label: "Snowflake Username", Type: "text"},
	{Name: "password", Label: "Snowflake Password", Type: "password"},
}

// SnowflakeFormFields returns the ordered inputs of the data source form.
func SnowflakeFormFields() []FormField {
	return append([]FormField(nil), snowflakeFormFields...)
}

func (s *Service) registerDefaultProviders() {
	defaults := map[string]Provider{
		PanelWorkspaces:     ProviderFunc(s.workspacesPanel),
		PanelDataSources:    ProviderFunc(s.dataSourcesPanel),
		PanelDataSourceForm: ProviderFunc(s.dataSourceFormPanel),
		PanelModels:         ProviderFunc(s.modelsPanel),
		PanelInsights:       ProviderFunc(s.insightsPanel),
		PanelAI:             ProviderFunc(s.aiPanel),
	}
	for code, provider := range defaults {
		if _, ok := s.opts.Providers.Provider(code); ok {
			continue
		}
		if _, ok := s.opts.Providers.Definition(code); !ok {
			continue
		}
		_ = s.opts.Providers.RegisterProvider(code, provider)
	}
}

// workspacesPanel never fails: the page reports workspace errors once.
func (s *Service) workspacesPanel(ctx context.Context, meta PanelContext) (PanelData, error) {
	workspaces, _ := meta.Workspaces(ctx)
	if workspaces == nil {
		workspaces = []Workspace{}
	}
	return PanelData{
		"workspaces": workspaces,
		"count":      len(workspaces),
	}, nil
}

func (s *Service) dataSourcesPanel(ctx context.Context, _ PanelContext) (PanelData, error) {
	data := PanelData{
		"data_sources":      []DataSource{},
		"publish_workspace": s.opts.PublishWorkspace,
	}
	if s.opts.DataSources == nil {
		return data, errMissingClient
	}
	sources, err := s.opts.DataSources.ListDataSources(ctx)
	if err != nil {
		return data, err
	}
	if sources != nil {
		data["data_sources"] = sources
	}
	return data, nil
}

func (s *Service) dataSourceFormPanel(context.Context, PanelContext) (PanelData, error) {
	return PanelData{"fields": SnowflakeFormFields()}, nil
}

func (s *Service) modelsPanel(ctx context.Context, meta PanelContext) (PanelData, error) {
	data := PanelData{
		"workspace": meta.Selected,
		"datasets":  []Dataset{},
	}
	if meta.Selected == "" {
		return data, nil
	}
	if s.opts.Content == nil {
		return data, errMissingClient
	}
	model, err := s.opts.Content.GetLogicalModel(ctx, meta.Selected)
	if err != nil {
		return data, err
	}
	if model.Datasets != nil {
		data["datasets"] = model.Datasets
	}
	return data, nil
}

func (s *Service) insightsPanel(ctx context.Context, meta PanelContext) (PanelData, error) {
	data := PanelData{
		"workspace": meta.Selected,
		"insights":  []Insight{},
	}
	if meta.Selected == "" {
		return data, nil
	}
	if s.opts.Content == nil {
		return data, errMissingClient
	}
	insights, err := s.opts.Content.ListInsights(ctx, meta.Selected)
	if err != nil {
		return data, err
	}
	if insights != nil {
		data["insights"] = insights
	}
	return data, nil
}

// aiPanel runs stage two only when the session holds a stage-one reply.
func (s *Service) aiPanel(ctx context.Context, meta PanelContext) (PanelData, error) {
	state, err := s.opts.Sessions.Load(ctx, meta.Request.Viewer)
	if err != nil {
		return PanelData{"has_response": false}, err
	}
	data := PanelData{
		"question":     state.Question,
		"has_response": state.HasAIResponse(),
		"workspace":    s.opts.AIWorkspace,
	}
	if !state.HasAIResponse() {
		return data, nil
	}
	data["response_id"] = state.AIResponse.ID
	result, err := s.visualization(ctx, state)
	if err != nil {
		if field := MissingField(err); field != "" {
			data["missing_field"] = field
		}
		return data, err
	}
	data["metric_id"] = result.Spec.MetricID
	data["aggregation"] = result.Spec.Aggregation
	data["dimension_id"] = result.Spec.DimensionID
	data["frame"] = result.Frame
	data["header"] = result.Frame.Header()
	data["rows"] = result.Frame.Cells()
	data["chart_html"] = result.ChartHTML
	data["cached"] = result.Cached
	data["computed_at"] = result.ComputedAt
	return data, nil
}
