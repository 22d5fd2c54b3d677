package dashboard

import (
	"fmt"
	"html"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "360px"

// FrameChart renders a data frame as server-side bar chart markup.
type FrameChart struct {
	theme      string
	assetsHost string
	height     string
}

// FrameChartOption customizes chart rendering.
type FrameChartOption func(*FrameChart)

// WithChartTheme sets a static theme (defaults to Westeros).
func WithChartTheme(theme string) FrameChartOption {
	return func(c *FrameChart) {
		c.theme = theme
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) FrameChartOption {
	return func(c *FrameChart) {
		c.assetsHost = ensureTrailingSlash(host)
	}
}

// WithChartHeight overrides the chart height.
func WithChartHeight(height string) FrameChartOption {
	return func(c *FrameChart) {
		c.height = height
	}
}

// NewFrameChart builds a bar chart renderer.
func NewFrameChart(options ...FrameChartOption) *FrameChart {
	c := &FrameChart{
		theme:  types.ThemeWesteros,
		height: defaultChartHeight,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Render plots every frame column as a series over the index labels.
func (c *FrameChart) Render(title string, frame DataFrame) (string, error) {
	if len(frame.Columns) == 0 {
		return "", fmt.Errorf("chart series is required")
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(c.globalChartOptions(title, frame.IndexName)...)
	labels := make([]string, len(frame.Rows))
	for i, row := range frame.Rows {
		labels[i] = row.Label
	}
	bar.SetXAxis(labels)
	for col, name := range frame.Columns {
		bar.AddSeries(name, toBarData(frame, col))
	}
	return renderSnippet(bar), nil
}

// renderSnippet emits the chart element and its script tags for embedding
// into a page that already owns <html> and <head>.
func renderSnippet(bar *charts.Bar) string {
	snippet := bar.RenderSnippet()
	var buf strings.Builder
	for _, asset := range bar.JSAssets.Values {
		fmt.Fprintf(&buf, "<script src=\"%s\"></script>\n", html.EscapeString(asset))
	}
	buf.WriteString(snippet.Element)
	buf.WriteString("\n")
	buf.WriteString(snippet.Script)
	return buf.String()
}

func (c *FrameChart) globalChartOptions(title, subtitle string) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  c.theme,
		Width:  "100%",
		Height: c.height,
	}
	if c.assetsHost != "" {
		initOpts.AssetsHost = c.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithToolboxOpts(opts.Toolbox{Show: opts.Bool(true)}),
	}
}

func ensureTrailingSlash(value string) string {
	if value == "" || strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}

// toBarData leaves nulls as gaps.
func toBarData(frame DataFrame, col int) []opts.BarData {
	data := make([]opts.BarData, len(frame.Rows))
	for i, row := range frame.Rows {
		data[i] = opts.BarData{Name: row.Label}
		if col < len(row.Values) && row.Values[col] != nil {
			data[i].Value = *row.Values[col]
		}
	}
	return data
}
