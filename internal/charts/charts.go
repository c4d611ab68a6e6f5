// Package charts turns metric aggregates into renderer-agnostic chart
// specifications. The JSON shape matches what the dashboard front-end feeds
// into Chart.js, but nothing here depends on a rendering library.
package charts

import (
	"sort"
	"time"

	"cruscotto/internal/core"
	"cruscotto/internal/metrics"
)

// Kind names the visual form of a chart.
type Kind string

const (
	KindHorizontalBar Kind = "hbar"
	KindDonut         Kind = "donut"
	KindLine          Kind = "line"
	KindGroupedBar    Kind = "grouped_bar"
)

// Series is one labelled data vector aligned index-by-index with Spec.Labels.
type Series struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// Spec is a complete chart description. Empty input data produces a valid
// spec with empty Labels and Series, never an error.
type Spec struct {
	Kind   Kind     `json:"kind"`
	Title  string   `json:"title"`
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
	XTitle string   `json:"xTitle,omitempty"`
	YTitle string   `json:"yTitle,omitempty"`
}

// maxDonutSlices bounds the client donut; everything past the ninth client
// collapses into a single "Altri" slice.
const maxDonutSlices = 9

// HoursByCollaborator builds a horizontal bar chart of worked hours per
// collaborator, ascending so the longest bar sits on top when rendered.
func HoursByCollaborator(groups []metrics.GroupSummary) Spec {
	sorted := make([]metrics.GroupSummary, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Minutes < sorted[j].Minutes
	})

	spec := Spec{
		Kind:   KindHorizontalBar,
		Title:  "Ore per collaboratore",
		Labels: make([]string, 0, len(sorted)),
		XTitle: "Ore",
	}
	data := make([]float64, 0, len(sorted))
	for _, g := range sorted {
		spec.Labels = append(spec.Labels, g.Key)
		data = append(data, g.Hours())
	}
	spec.Series = []Series{{Label: "Ore", Data: data}}
	return spec
}

// ClientDistribution builds a donut of worked hours per client. Clients are
// ranked by hours; past the top nine the remainder is grouped under "Altri".
// Names go through the dataset's display mapping.
func ClientDistribution(groups []metrics.GroupSummary, ds core.Dataset) Spec {
	sorted := make([]metrics.GroupSummary, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Minutes > sorted[j].Minutes
	})

	spec := Spec{
		Kind:  KindDonut,
		Title: "Distribuzione clienti",
	}
	data := make([]float64, 0, len(sorted))
	var othersMinutes int64
	for i, g := range sorted {
		if i < maxDonutSlices {
			spec.Labels = append(spec.Labels, ds.DisplayClient(g.Key))
			data = append(data, g.Hours())
			continue
		}
		othersMinutes += g.Minutes
	}
	if othersMinutes > 0 {
		spec.Labels = append(spec.Labels, "Altri")
		data = append(data, float64(othersMinutes)/60)
	}
	spec.Series = []Series{{Label: "Ore", Data: data}}
	return spec
}

// ActivityTimeline builds a line chart of monthly hours with one series per
// activity. Months are ascending; activities keep first-appearance order.
func ActivityTimeline(records []core.Record) Spec {
	months := metrics.SummarizeByMonth(records)
	monthIndex := make(map[string]int, len(months))
	labels := make([]string, 0, len(months))
	for i, m := range months {
		label := m.Label()
		monthIndex[label] = i
		labels = append(labels, label)
	}

	activityIndex := make(map[string]int)
	series := make([]Series, 0)
	for _, r := range records {
		i, ok := activityIndex[r.Activity]
		if !ok {
			i = len(series)
			activityIndex[r.Activity] = i
			series = append(series, Series{
				Label: r.Activity,
				Data:  make([]float64, len(labels)),
			})
		}
		label := metrics.MonthSummary{Year: r.Date.Year(), Month: time.Month(r.Date.Month())}.Label()
		series[i].Data[monthIndex[label]] += r.Hours()
	}

	return Spec{
		Kind:   KindLine,
		Title:  "Andamento attività",
		Labels: labels,
		Series: series,
		XTitle: "Mese",
		YTitle: "Ore",
	}
}

// MonthlyBalance builds a grouped bar of revenue, cost and margin per month,
// in euros.
func MonthlyBalance(months []metrics.MonthSummary) Spec {
	spec := Spec{
		Kind:   KindGroupedBar,
		Title:  "Bilancio mensile",
		XTitle: "Mese",
		YTitle: "Euro",
	}
	revenue := make([]float64, 0, len(months))
	cost := make([]float64, 0, len(months))
	margin := make([]float64, 0, len(months))
	for _, m := range months {
		spec.Labels = append(spec.Labels, m.Label())
		revenue = append(revenue, m.Revenue.Euros())
		cost = append(cost, m.Cost.Euros())
		margin = append(margin, m.Margin().Euros())
	}
	spec.Series = []Series{
		{Label: "Fatturato", Data: revenue},
		{Label: "Costi", Data: cost},
		{Label: "Margine", Data: margin},
	}
	return spec
}
