// Package metrics computes dashboard aggregates over filtered logbook
// records: totals, per-group breakdowns and monthly balances. All money
// arithmetic stays in cents; margins are exact differences, never rounded
// products.
package metrics

import (
	"sort"
	"strings"
	"time"

	"cruscotto/internal/core"
)

// Summary holds the headline numbers for a record subset.
type Summary struct {
	Records int
	Minutes int64
	Cost    core.Money
	Revenue core.Money
}

// Margin is revenue minus cost, computed exactly on cents.
func (s Summary) Margin() core.Money {
	return s.Revenue.Sub(s.Cost)
}

// MarginPercent reports margin as a fraction of revenue. The second return
// is false when revenue is zero and no meaningful percentage exists.
func (s Summary) MarginPercent() (float64, bool) {
	if s.Revenue.Cents == 0 {
		return 0, false
	}
	return float64(s.Margin().Cents) / float64(s.Revenue.Cents) * 100, true
}

// Hours converts the summed minutes to decimal hours.
func (s Summary) Hours() float64 {
	return float64(s.Minutes) / 60
}

// GroupSummary is a Summary keyed by a dimension value.
type GroupSummary struct {
	Key string
	Summary
}

// MonthSummary is a Summary for one calendar month.
type MonthSummary struct {
	Year  int
	Month time.Month
	Summary
}

// Label formats the month as "2006-01" for chart axes.
func (m MonthSummary) Label() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// GroupBy selects the dimension used by SummarizeBy.
type GroupBy int

const (
	ByCollaborator GroupBy = iota
	ByDepartment
	ByActivity
	ByClient
)

func (g GroupBy) key(r core.Record) string {
	switch g {
	case ByCollaborator:
		return r.Collaborator
	case ByDepartment:
		return r.Department
	case ByActivity:
		return r.Activity
	case ByClient:
		return r.Client
	}
	return ""
}

// Apply returns the records matching the filter, preserving input order.
// Filtering is conjunctive: every populated criterion must hold.
func Apply(records []core.Record, f core.Filter) []core.Record {
	if f.IsZero() {
		out := make([]core.Record, len(records))
		copy(out, records)
		return out
	}
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Summarize totals a record subset. An empty subset yields an all-zero
// Summary, not an error.
func Summarize(records []core.Record) Summary {
	var s Summary
	for _, r := range records {
		s.Records++
		s.Minutes += r.Minutes
		s.Cost = s.Cost.Add(r.Cost())
		s.Revenue = s.Revenue.Add(r.Billed)
	}
	return s
}

// SummarizeBy groups records on a dimension and totals each group. Groups
// appear in first-appearance order of the input.
func SummarizeBy(records []core.Record, by GroupBy) []GroupSummary {
	index := make(map[string]int)
	out := make([]GroupSummary, 0)
	for _, r := range records {
		key := by.key(r)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, GroupSummary{Key: key})
		}
		g := &out[i]
		g.Records++
		g.Minutes += r.Minutes
		g.Cost = g.Cost.Add(r.Cost())
		g.Revenue = g.Revenue.Add(r.Billed)
	}
	return out
}

// SummarizeByMonth totals records per calendar month, ascending.
func SummarizeByMonth(records []core.Record) []MonthSummary {
	type ym struct {
		year  int
		month time.Month
	}
	index := make(map[ym]int)
	out := make([]MonthSummary, 0)
	for _, r := range records {
		k := ym{r.Date.Year(), time.Month(r.Date.Month())}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, MonthSummary{Year: k.year, Month: k.month})
		}
		m := &out[i]
		m.Records++
		m.Minutes += r.Minutes
		m.Cost = m.Cost.Add(r.Cost())
		m.Revenue = m.Revenue.Add(r.Billed)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// FilterOptions lists the distinct values available for each filter
// dimension, plus the date bounds of the data.
type FilterOptions struct {
	Collaborators []string
	Departments   []string
	Activities    []string
	Clients       []string
	MinDate       time.Time
	MaxDate       time.Time
}

// Options derives the selectable filter values from a dataset. Values are
// sorted case-insensitively; client names go through the display mapping.
func Options(ds core.Dataset) FilterOptions {
	var opts FilterOptions
	collaborators := map[string]struct{}{}
	departments := map[string]struct{}{}
	activities := map[string]struct{}{}
	clients := map[string]struct{}{}

	for _, r := range ds.Records {
		addDistinct(collaborators, r.Collaborator)
		addDistinct(departments, r.Department)
		addDistinct(activities, r.Activity)
		addDistinct(clients, r.Client)
		d := r.Date.Time
		if opts.MinDate.IsZero() || d.Before(opts.MinDate) {
			opts.MinDate = d
		}
		if opts.MaxDate.IsZero() || d.After(opts.MaxDate) {
			opts.MaxDate = d
		}
	}

	opts.Collaborators = sortedKeys(collaborators)
	opts.Departments = sortedKeys(departments)
	opts.Activities = sortedKeys(activities)
	opts.Clients = sortedKeys(clients)
	return opts
}

func addDistinct(set map[string]struct{}, v string) {
	v = strings.TrimSpace(v)
	if v != "" {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// CollaboratorOverview pairs each collaborator's totals with their share of
// the overall worked time, for the dashboard's people table.
type CollaboratorOverview struct {
	GroupSummary
	ShareOfMinutes float64
}

// Overview builds the per-collaborator table rows, sorted by minutes
// descending so the busiest people come first.
func Overview(records []core.Record) []CollaboratorOverview {
	groups := SummarizeBy(records, ByCollaborator)
	var total int64
	for _, g := range groups {
		total += g.Minutes
	}
	out := make([]CollaboratorOverview, 0, len(groups))
	for _, g := range groups {
		row := CollaboratorOverview{GroupSummary: g}
		if total > 0 {
			row.ShareOfMinutes = float64(g.Minutes) / float64(total) * 100
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Minutes > out[j].Minutes
	})
	return out
}
