package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultPublishWorkspace receives LDMs generated from data sources.
	DefaultPublishWorkspace = "gd_hackaton"
	// DefaultAIWorkspace hosts the AI chat endpoint and the stage-two query.
	DefaultAIWorkspace = "gd_hackaton"

	defaultMemoTTL    = 15 * time.Minute
	defaultSessionTTL = 12 * time.Hour
)

// ErrNoAIResponse is returned when an action needs a stored AI reply and the
// session has none.
var ErrNoAIResponse = errors.New("dashboard: no ai response in session")

// Backends groups the remote collaborators. A single analytics client
// usually fills every field.
type Backends struct {
	Workspaces  WorkspaceCatalog
	DataSources DataSourceCatalog
	Content     WorkspaceContent
	AI          AIChatClient
	Execution   ExecutionClient
}

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations, typically with
// analytics.MockClient in tests.
type Options struct {
	Backends
	Providers        ProviderRegistry
	FormValidator    FormValidator
	Sessions         SessionStore
	Telemetry        Telemetry
	Logger           *slog.Logger
	Chart            *FrameChart
	PublishWorkspace string
	AIWorkspace      string
	Prefixes         ModelPrefixes
	MemoTTL          time.Duration
}

// Service resolves dashboard panels and runs user actions against the
// analytics platform.
type Service struct {
	opts Options
	memo *Memo[VisualizationResult]
	now  func() time.Time
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Providers == nil {
		opts.Providers = NewRegistry()
	}
	if opts.FormValidator == nil {
		opts.FormValidator = NewJSONSchemaValidator()
	}
	if opts.Sessions == nil {
		opts.Sessions = NewInMemorySessionStore(defaultSessionTTL)
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Chart == nil {
		opts.Chart = NewFrameChart()
	}
	if opts.PublishWorkspace == "" {
		opts.PublishWorkspace = DefaultPublishWorkspace
	}
	if opts.AIWorkspace == "" {
		opts.AIWorkspace = DefaultAIWorkspace
	}
	if opts.Prefixes == (ModelPrefixes{}) {
		opts.Prefixes = DefaultModelPrefixes()
	}
	if opts.MemoTTL == 0 {
		opts.MemoTTL = defaultMemoTTL
	}
	s := &Service{
		opts: opts,
		memo: NewMemo[VisualizationResult](opts.MemoTTL),
		now:  time.Now,
	}
	s.registerDefaultProviders()
	return s
}

// Registry exposes the provider registry so hosts can attach custom panels.
func (s *Service) Registry() ProviderRegistry {
	return s.opts.Providers
}

// PublishWorkspace returns the workspace that receives published models.
func (s *Service) PublishWorkspace() string {
	return s.opts.PublishWorkspace
}

// Render resolves every registered panel in order. Remote failures are
// attached to the panel that hit them and never abort the page.
func (s *Service) Render(ctx context.Context, req PageRequest) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	cycle := newRenderCycle(s.opts.Workspaces)
	page := Page{Panels: []Panel{}}
	for _, def := range s.opts.Providers.Definitions() {
		if def.Hidden {
			continue
		}
		page.Panels = append(page.Panels, s.resolvePanel(ctx, cycle, req, def))
	}
	workspaces, err := cycle.workspaces(ctx)
	if workspaces == nil {
		workspaces = []Workspace{}
	}
	page.Workspaces = workspaces
	if err != nil {
		page.Error = "Error fetching workspaces: " + ErrorMessage(err)
		s.warn(ctx, "list workspaces", err)
		s.recordTelemetry(ctx, "gd.workspaces.fetch_error", map[string]any{"error": err.Error()})
	}
	s.recordTelemetry(ctx, "gd.page.render", map[string]any{
		"session": req.Viewer.SessionID,
		"panels":  len(page.Panels),
	})
	return page, nil
}

func (s *Service) resolvePanel(ctx context.Context, cycle *renderCycle, req PageRequest, def PanelDefinition) Panel {
	panel := Panel{
		Code:     def.Code,
		Name:     def.Name,
		DOMID:    def.DOMID(),
		Category: def.Category,
		Toggle:   def.Toggle,
		Selector: def.Selector,
		Enabled:  req.Enabled(def),
	}
	if source, ok := s.opts.Providers.(providerMetadataSource); ok {
		if info, found := source.ProviderMetadata(def.Code); found {
			panel.Provider = &info
		}
	}
	if !panel.Enabled {
		return panel
	}
	provider, ok := s.opts.Providers.Provider(def.Code)
	if !ok || provider == nil {
		return panel
	}
	meta := PanelContext{
		Definition: def,
		Request:    req,
		Selected:   req.Selection(def),
		cycle:      cycle,
	}
	if def.Selector != "" && meta.Selected == "" {
		if workspaces, _ := cycle.workspaces(ctx); len(workspaces) > 0 {
			meta.Selected = workspaces[0].ID
		}
	}
	panel.Selected = meta.Selected
	data, err := provider.Fetch(ctx, meta)
	panel.Data = data
	if err != nil {
		panel.Error = ErrorMessage(err)
		s.warn(ctx, def.Code, err)
		s.recordTelemetry(ctx, "gd.panel.provider_error", map[string]any{
			"panel": def.Code,
			"error": err.Error(),
		})
	}
	return panel
}

// ListWorkspaces returns the workspaces visible to the configured token.
func (s *Service) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	if s.opts.Workspaces == nil {
		return nil, errMissingClient
	}
	return s.opts.Workspaces.ListWorkspaces(ctx)
}

// Pipeline step names and statuses.
const (
	StepScan     = "scan"
	StepGenerate = "generate"
	StepPublish  = "publish"

	StepOK      = "ok"
	StepFailed  = "failed"
	StepSkipped = "skipped"
)

// PipelineStep reports the outcome of one pipeline stage.
type PipelineStep struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// PipelineReport lists every stage in order. Steps after a failure are
// reported as skipped; completed steps are never rolled back.
type PipelineReport struct {
	DataSourceID string         `json:"data_source_id"`
	Workspace    string         `json:"workspace"`
	Steps        []PipelineStep `json:"steps"`
	Completed    bool           `json:"completed"`
}

// PublishDataSourceModel scans a data source, derives an LDM with the
// configured prefixes and overwrites the publish workspace's model.
func (s *Service) PublishDataSourceModel(ctx context.Context, dataSourceID string) (PipelineReport, error) {
	report := PipelineReport{DataSourceID: dataSourceID, Workspace: s.opts.PublishWorkspace}
	if dataSourceID == "" {
		return report, errMissingSource
	}
	if s.opts.DataSources == nil || s.opts.Content == nil {
		return report, errMissingClient
	}

	var (
		pdm   PhysicalModel
		model LogicalModel
	)
	steps := []struct {
		name string
		run  func() (string, error)
	}{
		{StepScan, func() (string, error) {
			var err error
			pdm, err = s.opts.DataSources.ScanDataSource(ctx, dataSourceID)
			return fmt.Sprintf("Scanned %d tables", pdm.Tables), err
		}},
		{StepGenerate, func() (string, error) {
			var err error
			model, err = s.opts.DataSources.GenerateLogicalModel(ctx, dataSourceID, GenerateModelRequest{
				PDM:      pdm,
				Prefixes: s.opts.Prefixes,
			})
			return fmt.Sprintf("Generated logical model with %d datasets", len(model.Datasets)), err
		}},
		{StepPublish, func() (string, error) {
			err := s.opts.Content.PutLogicalModel(ctx, s.opts.PublishWorkspace, model)
			return "Published logical model to " + s.opts.PublishWorkspace, err
		}},
	}

	var failure error
	for _, step := range steps {
		if failure != nil {
			report.Steps = append(report.Steps, PipelineStep{Name: step.name, Status: StepSkipped})
			continue
		}
		message, err := step.run()
		if err != nil {
			failure = fmt.Errorf("dashboard: %s data source %s: %w", step.name, dataSourceID, err)
			report.Steps = append(report.Steps, PipelineStep{Name: step.name, Status: StepFailed, Message: ErrorMessage(err)})
			s.warn(ctx, "pipeline "+step.name, err)
			continue
		}
		report.Steps = append(report.Steps, PipelineStep{Name: step.name, Status: StepOK, Message: message})
	}
	report.Completed = failure == nil
	s.recordTelemetry(ctx, "gd.pipeline.publish", map[string]any{
		"data_source": dataSourceID,
		"workspace":   s.opts.PublishWorkspace,
		"completed":   report.Completed,
	})
	if failure == nil {
		s.opts.Logger.InfoContext(ctx, "published logical model",
			slog.String("data_source", dataSourceID),
			slog.String("workspace", s.opts.PublishWorkspace),
		)
	}
	return report, failure
}

// DataSourceResult describes a data source submission. Echo is set only on
// failure and carries the submitted fields with the password masked.
type DataSourceResult struct {
	ID   string              `json:"id"`
	Echo *SnowflakeConnector `json:"echo,omitempty"`
}

// CreateDataSource validates the form and upserts the Snowflake connection.
func (s *Service) CreateDataSource(ctx context.Context, connector SnowflakeConnector) (DataSourceResult, error) {
	result := DataSourceResult{ID: connector.ID}
	fail := func(err error) (DataSourceResult, error) {
		echo := connector.Masked()
		result.Echo = &echo
		s.warn(ctx, "create data source", err)
		s.recordTelemetry(ctx, "gd.datasource.upsert_error", map[string]any{
			"data_source": connector.ID,
			"error":       err.Error(),
		})
		return result, err
	}
	if def, ok := s.opts.Providers.Definition(PanelDataSourceForm); ok {
		if err := s.opts.FormValidator.Validate(def, connector.Fields()); err != nil {
			return fail(err)
		}
	}
	if s.opts.DataSources == nil {
		return fail(errMissingClient)
	}
	if err := s.opts.DataSources.CreateOrUpdateDataSource(ctx, connector); err != nil {
		return fail(err)
	}
	s.recordTelemetry(ctx, "gd.datasource.upsert", map[string]any{"data_source": connector.ID})
	s.opts.Logger.InfoContext(ctx, "data source saved", slog.String("data_source", connector.ID))
	return result, nil
}

// AskAI posts the question and stores the reply in the viewer's session.
// Only a successful reply is stored; a failed call leaves the session as it
// was.
func (s *Service) AskAI(ctx context.Context, viewer ViewerContext, question string) (ChatResponse, error) {
	if viewer.SessionID == "" {
		return ChatResponse{}, errMissingSession
	}
	if question == "" {
		return ChatResponse{}, errMissingQuestion
	}
	if s.opts.AI == nil {
		return ChatResponse{}, errMissingClient
	}
	resp, err := s.opts.AI.PostAIChat(ctx, s.opts.AIWorkspace, NewChatRequest(question))
	if err != nil {
		s.warn(ctx, "ai chat", err)
		s.recordTelemetry(ctx, "gd.ai.ask_error", map[string]any{"error": err.Error()})
		return ChatResponse{}, err
	}
	resp.ID = uuid.NewString()
	resp.ReceivedAt = s.now()

	previous, err := s.opts.Sessions.Load(ctx, viewer)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("dashboard: load session: %w", err)
	}
	if previous.HasAIResponse() {
		s.memo.Invalidate(previous.AIResponse.ID)
	}
	if err := s.opts.Sessions.Save(ctx, viewer, SessionState{Question: question, AIResponse: &resp}); err != nil {
		return ChatResponse{}, fmt.Errorf("dashboard: save session: %w", err)
	}
	s.recordTelemetry(ctx, "gd.ai.ask", map[string]any{
		"session":  viewer.SessionID,
		"response": resp.ID,
	})
	return resp, nil
}

// RefreshAI drops the memoized stage-two result and recomputes it.
func (s *Service) RefreshAI(ctx context.Context, viewer ViewerContext) (VisualizationResult, error) {
	state, err := s.opts.Sessions.Load(ctx, viewer)
	if err != nil {
		return VisualizationResult{}, fmt.Errorf("dashboard: load session: %w", err)
	}
	if !state.HasAIResponse() {
		return VisualizationResult{}, ErrNoAIResponse
	}
	s.memo.Invalidate(state.AIResponse.ID)
	return s.visualization(ctx, state)
}

// ClearAI forgets the stored AI reply and its memoized result.
func (s *Service) ClearAI(ctx context.Context, viewer ViewerContext) error {
	state, err := s.opts.Sessions.Load(ctx, viewer)
	if err != nil {
		return fmt.Errorf("dashboard: load session: %w", err)
	}
	if state.HasAIResponse() {
		s.memo.Invalidate(state.AIResponse.ID)
	}
	if err := s.opts.Sessions.Delete(ctx, viewer); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "gd.ai.clear", map[string]any{"session": viewer.SessionID})
	return nil
}

// VisualizationResult is the memoized output of stage two.
type VisualizationResult struct {
	ResponseID string              `json:"response_id"`
	Spec       VisualizationSpec   `json:"spec"`
	Definition ExecutionDefinition `json:"definition"`
	Frame      DataFrame           `json:"frame"`
	ChartHTML  string              `json:"-"`
	ComputedAt time.Time           `json:"computed_at"`
	Cached     bool                `json:"cached"`
}

// Visualization returns the stage-two result for the viewer. The boolean is
// false when the session holds no AI reply, in which case stage two is
// skipped without error.
func (s *Service) Visualization(ctx context.Context, viewer ViewerContext) (VisualizationResult, bool, error) {
	state, err := s.opts.Sessions.Load(ctx, viewer)
	if err != nil {
		return VisualizationResult{}, false, fmt.Errorf("dashboard: load session: %w", err)
	}
	if !state.HasAIResponse() {
		return VisualizationResult{}, false, nil
	}
	result, err := s.visualization(ctx, state)
	return result, true, err
}

func (s *Service) visualization(ctx context.Context, state SessionState) (VisualizationResult, error) {
	resp := state.AIResponse
	result, cached, err := s.memo.GetOrCompute(resp.ID, func() (VisualizationResult, error) {
		return s.runStageTwo(ctx, *resp)
	})
	if err != nil {
		s.warn(ctx, "ai visualization", err)
		return VisualizationResult{}, err
	}
	result.Cached = cached
	return result, nil
}

func (s *Service) runStageTwo(ctx context.Context, resp ChatResponse) (VisualizationResult, error) {
	spec, err := ExtractVisualization(resp.Body)
	if err != nil {
		s.recordTelemetry(ctx, "gd.ai.extract_error", map[string]any{
			"response": resp.ID,
			"field":    MissingField(err),
		})
		return VisualizationResult{}, err
	}
	if s.opts.Execution == nil {
		return VisualizationResult{}, errMissingClient
	}
	def := BuildExecutionDefinition(s.opts.AIWorkspace, spec)
	frame, err := s.opts.Execution.FetchDataFrame(ctx, def)
	if err != nil {
		return VisualizationResult{}, err
	}
	title := spec.Title
	if title == "" {
		title = spec.MetricID + " by " + spec.DimensionID
	}
	chartHTML, err := s.opts.Chart.Render(title, frame)
	if err != nil {
		s.warn(ctx, "render chart", err)
	}
	s.recordTelemetry(ctx, "gd.ai.query", map[string]any{
		"response":  resp.ID,
		"metric":    spec.MetricID,
		"dimension": spec.DimensionID,
		"rows":      len(frame.Rows),
	})
	return VisualizationResult{
		ResponseID: resp.ID,
		Spec:       spec,
		Definition: def,
		Frame:      frame,
		ChartHTML:  chartHTML,
		ComputedAt: s.now(),
	}, nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func (s *Service) warn(ctx context.Context, operation string, err error) {
	s.opts.Logger.WarnContext(ctx, "operation failed",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
