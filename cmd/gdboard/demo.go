package main

import (
	"context"
	"encoding/json"
	"os"

	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
	"github.com/pavel242242/gd-hackathon-2024/pkg/analytics"
	"github.com/pavel242242/gd-hackathon-2024/pkg/config"
	"github.com/pavel242242/gd-hackathon-2024/pkg/observability"
)

type demoCmd struct {
	Listen string `default:":8080" help:"Listen address."`
}

func (cmd *demoCmd) Run(ctx context.Context, root *cli) error {
	cfg, err := loadDemoConfig(root.Config, cmd.Listen)
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg, os.Stderr)
	metrics := observability.NewMetrics()

	a, err := newApp(cfg, analytics.NewMockClient(demoFixtures()), logger, metrics)
	if err != nil {
		return err
	}
	logger.Info("serving in-memory fixtures", "url", "http://localhost"+cfg.ListenAddr+cfg.BasePath+"/")
	return a.run(ctx)
}

func demoFixtures() analytics.MockData {
	salesModel := dashboard.LogicalModel{
		Datasets: []dashboard.Dataset{
			{ID: "orders", Title: "Orders"},
			{ID: "customers", Title: "Customers"},
		},
	}
	return analytics.MockData{
		Workspaces: []dashboard.Workspace{
			{ID: "gd_hackaton", Name: "Hackathon"},
			{ID: "sales", Name: "Sales"},
		},
		DataSources: []dashboard.DataSource{
			{ID: "snowflake_demo", Name: "Snowflake demo", Type: "SNOWFLAKE"},
		},
		PDM: dashboard.PhysicalModel{
			Raw:    json.RawMessage(`{"tables":[{"id":"orders","path":["public","orders"]}]}`),
			Tables: 1,
		},
		Models: map[string]dashboard.LogicalModel{"sales": salesModel},
		Insights: map[string][]dashboard.Insight{
			"sales": {{ID: "revenue_trend", Title: "Revenue trend"}},
		},
		ChatReply: json.RawMessage(`{
  "textResponse": "Here is revenue by region.",
  "createdVisualizations": {
    "objects": [{
      "title": "Revenue by region",
      "metrics": [{"id": "revenue", "type": "fact", "aggFunction": "sum"}],
      "dimensionality": [{"id": "region"}]
    }]
  }
}`),
		Frame: dashboard.DataFrame{
			IndexName: "region",
			Columns:   []string{"revenue"},
			Rows: []dashboard.FrameRow{
				{Label: "EMEA", Values: []*float64{float(120)}},
				{Label: "AMER", Values: []*float64{float(340)}},
				{Label: "APAC", Values: []*float64{float(95)}},
			},
		},
	}
}

func float(v float64) *float64 { return &v }

// loadDemoConfig skips connection validation since no platform is contacted.
func loadDemoConfig(path, listen string) (config.Config, error) {
	cfg, err := config.Load(path, map[string]any{"listen_addr": listen})
	if err != nil {
		return config.Config{}, err
	}
	if cfg.Host == "" {
		cfg.Host = "http://localhost" + cfg.ListenAddr
	}
	return cfg, nil
}
