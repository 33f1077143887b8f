package analyzer

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sozercan/insightbot/apimodels"
	"github.com/sozercan/insightbot/internal/chart"
	"github.com/sozercan/insightbot/internal/dataset"
)

// SalesColumn is the measure summed by every chart.
const SalesColumn = "ventas"

// ChartSpec selects the grouping column of a sales bar chart.
type ChartSpec struct {
	Keyword string
	Column  string
	Title   string
	XLabel  string
	YLabel  string
}

// chartRoutes is checked in order and the first keyword contained in the
// lower-cased question wins. A question naming several keywords always gets the
// earliest one, and keywords also match inside longer words ("promesa").
var chartRoutes = []ChartSpec{
	{Keyword: "mes", Column: "mes", Title: "Ventas por mes", XLabel: "Mes", YLabel: "Ventas totales"},
	{Keyword: "producto", Column: "producto", Title: "Ventas por producto", XLabel: "Producto", YLabel: "Ventas totales"},
	{Keyword: "region", Column: "region", Title: "Ventas por región", XLabel: "Región", YLabel: "Ventas totales"},
}

// Route classifies a question. ok is false when no keyword is present.
func Route(question string) (spec ChartSpec, ok bool) {
	q := strings.ToLower(question)
	for _, r := range chartRoutes {
		if strings.Contains(q, r.Keyword) {
			return r, true
		}
	}
	return ChartSpec{}, false
}

type GroupTotal struct {
	Key   string
	Total float64
}

// GroupSum sums SalesColumn per distinct value of column, ordered by key.
// Blank and NaN sales cells are skipped; infinities and any other non-numeric
// cell are an error.
func GroupSum(table *dataset.Table, column string) ([]GroupTotal, error) {
	keyIdx, ok := table.ColumnIndex(column)
	if !ok {
		return nil, fmt.Errorf("%w: column %q not found", chart.ErrChartRender, column)
	}
	salesIdx, ok := table.ColumnIndex(SalesColumn)
	if !ok {
		return nil, fmt.Errorf("%w: column %q not found", chart.ErrChartRender, SalesColumn)
	}

	totals := make(map[string]float64)
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		key := row[keyIdx]
		if _, seen := totals[key]; !seen {
			totals[key] = 0
		}

		raw := row[salesIdx]
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %q is not a number", chart.ErrChartRender, i+1, raw)
		}
		if math.IsNaN(v) {
			continue
		}
		if math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: row %d: %q is not a finite number", chart.ErrChartRender, i+1, raw)
		}
		totals[key] += v
		if math.IsInf(totals[key], 0) {
			return nil, fmt.Errorf("%w: total for %q overflows", chart.ErrChartRender, key)
		}
	}

	groups := make([]GroupTotal, 0, len(totals))
	for k, v := range totals {
		groups = append(groups, GroupTotal{Key: k, Total: v})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups, nil
}

// PlanChart routes the question and aggregates the table. It returns nil when
// the question asks for no chart.
func PlanChart(table *dataset.Table, question string) (*apimodels.ChartConfig, error) {
	spec, ok := Route(question)
	if !ok {
		return nil, nil
	}
	groups, err := GroupSum(table, spec.Column)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: dataset has no rows to plot", chart.ErrChartRender)
	}

	points := make([]apimodels.ChartPoint, len(groups))
	for i, g := range groups {
		points[i] = apimodels.ChartPoint{Label: g.Key, Value: g.Total}
	}
	return chart.Build(spec.Title, spec.XLabel, spec.YLabel, points), nil
}
