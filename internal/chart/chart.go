// Package chart turns grouped totals into bar charts: a JSON-friendly
// ChartConfig for API clients and an HTML page drawn with go-echarts.
package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/sozercan/insightbot/apimodels"
)

// ErrChartRender marks aggregation or drawing failures. They never invalidate
// an answer that was already produced.
var ErrChartRender = errors.New("chart render failed")

const (
	TypeBar    = "bar"
	SeriesName = "Ventas totales"
)

// Build describes a single-series bar chart.
func Build(title, xLabel, yLabel string, points []apimodels.ChartPoint) *apimodels.ChartConfig {
	data := make([]apimodels.ChartPoint, len(points))
	copy(data, points)
	return &apimodels.ChartConfig{
		ChartType: TypeBar,
		Title:     title,
		XAxis:     xLabel,
		YAxis:     yLabel,
		Series:    []apimodels.ChartSeries{{Name: SeriesName, Data: data}},
	}
}

// RenderHTML writes a standalone HTML page holding the chart.
func RenderHTML(w io.Writer, cfg *apimodels.ChartConfig) error {
	if cfg == nil || len(cfg.Series) == 0 {
		return fmt.Errorf("%w: nothing to draw", ErrChartRender)
	}
	if cfg.ChartType != TypeBar {
		return fmt.Errorf("%w: unsupported chart type %q", ErrChartRender, cfg.ChartType)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: cfg.Title,
			Width:     "600px",
			Height:    "400px",
		}),
		charts.WithTitleOpts(opts.Title{Title: cfg.Title}),
		charts.WithXAxisOpts(opts.XAxis{Name: cfg.XAxis}),
		charts.WithYAxisOpts(opts.YAxis{Name: cfg.YAxis}),
	)

	series := cfg.Series[0]
	labels := make([]string, 0, len(series.Data))
	values := make([]opts.BarData, 0, len(series.Data))
	for _, p := range series.Data {
		labels = append(labels, p.Label)
		values = append(values, opts.BarData{Value: p.Value})
	}
	bar.SetXAxis(labels).AddSeries(series.Name, values)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("%w: %v", ErrChartRender, err)
	}
	return nil
}
