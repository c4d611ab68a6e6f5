package charts

import (
	"fmt"
	"testing"

	"cruscotto/internal/core"
	"cruscotto/internal/metrics"
)

func TestHoursByCollaboratorAscending(t *testing.T) {
	groups := []metrics.GroupSummary{
		{Key: "Anna", Summary: metrics.Summary{Minutes: 600}},
		{Key: "Bruno", Summary: metrics.Summary{Minutes: 120}},
		{Key: "Carla", Summary: metrics.Summary{Minutes: 300}},
	}
	spec := HoursByCollaborator(groups)

	if spec.Kind != KindHorizontalBar {
		t.Errorf("kind = %q", spec.Kind)
	}
	want := []string{"Bruno", "Carla", "Anna"}
	for i, label := range want {
		if spec.Labels[i] != label {
			t.Errorf("label %d = %q, want %q", i, spec.Labels[i], label)
		}
	}
	if len(spec.Series) != 1 {
		t.Fatalf("expected 1 series, got %d", len(spec.Series))
	}
	if spec.Series[0].Data[0] != 2 || spec.Series[0].Data[2] != 10 {
		t.Errorf("hours data = %v", spec.Series[0].Data)
	}
}

func TestClientDistributionTopNine(t *testing.T) {
	groups := make([]metrics.GroupSummary, 0, 12)
	for i := 0; i < 12; i++ {
		groups = append(groups, metrics.GroupSummary{
			Key:     fmt.Sprintf("Cliente%02d", i),
			Summary: metrics.Summary{Minutes: int64((12 - i) * 60)},
		})
	}
	spec := ClientDistribution(groups, core.Dataset{})

	if len(spec.Labels) != 10 {
		t.Fatalf("expected 9 clients + Altri, got %d labels", len(spec.Labels))
	}
	if spec.Labels[9] != "Altri" {
		t.Errorf("last slice = %q, want Altri", spec.Labels[9])
	}
	// Altri collapses clients 09..11: 3+2+1 hours.
	if got := spec.Series[0].Data[9]; got != 6 {
		t.Errorf("Altri hours = %v, want 6", got)
	}
}

func TestClientDistributionUsesDisplayNames(t *testing.T) {
	groups := []metrics.GroupSummary{
		{Key: "ACME", Summary: metrics.Summary{Minutes: 60}},
	}
	ds := core.Dataset{ClientMap: map[string]string{"ACME": "ACME S.p.A."}}
	spec := ClientDistribution(groups, ds)
	if spec.Labels[0] != "ACME S.p.A." {
		t.Errorf("label = %q", spec.Labels[0])
	}
}

func TestActivityTimeline(t *testing.T) {
	records := []core.Record{
		{Date: core.NewDate(2025, 1, 5), Activity: "Consulenza", Minutes: 120},
		{Date: core.NewDate(2025, 2, 5), Activity: "Consulenza", Minutes: 60},
		{Date: core.NewDate(2025, 1, 20), Activity: "Grafica", Minutes: 30},
	}
	spec := ActivityTimeline(records)

	if spec.Kind != KindLine {
		t.Errorf("kind = %q", spec.Kind)
	}
	if len(spec.Labels) != 2 || spec.Labels[0] != "2025-01" {
		t.Fatalf("labels = %v", spec.Labels)
	}
	if len(spec.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(spec.Series))
	}
	consulenza := spec.Series[0]
	if consulenza.Label != "Consulenza" || consulenza.Data[0] != 2 || consulenza.Data[1] != 1 {
		t.Errorf("consulenza series = %+v", consulenza)
	}
	grafica := spec.Series[1]
	if grafica.Data[0] != 0.5 || grafica.Data[1] != 0 {
		t.Errorf("grafica series = %+v", grafica)
	}
}

func TestMonthlyBalanceSeries(t *testing.T) {
	months := []metrics.MonthSummary{
		{Year: 2025, Month: 1, Summary: metrics.Summary{
			Revenue: core.Money{Cents: 150000},
			Cost:    core.Money{Cents: 100000},
		}},
	}
	spec := MonthlyBalance(months)

	if len(spec.Series) != 3 {
		t.Fatalf("expected 3 series, got %d", len(spec.Series))
	}
	if spec.Series[0].Label != "Fatturato" || spec.Series[1].Label != "Costi" || spec.Series[2].Label != "Margine" {
		t.Errorf("series labels = %v, %v, %v", spec.Series[0].Label, spec.Series[1].Label, spec.Series[2].Label)
	}
	if spec.Series[2].Data[0] != 500 {
		t.Errorf("margin = %v, want 500", spec.Series[2].Data[0])
	}
}

func TestEmptyInputsYieldValidSpecs(t *testing.T) {
	for name, spec := range map[string]Spec{
		"hours":    HoursByCollaborator(nil),
		"clients":  ClientDistribution(nil, core.Dataset{}),
		"timeline": ActivityTimeline(nil),
		"balance":  MonthlyBalance(nil),
	} {
		if spec.Kind == "" {
			t.Errorf("%s: empty kind", name)
		}
		if spec.Labels == nil && len(spec.Labels) != 0 {
			t.Errorf("%s: labels not valid", name)
		}
		for _, s := range spec.Series {
			if len(s.Data) != len(spec.Labels) {
				t.Errorf("%s: series %q misaligned with labels", name, s.Label)
			}
		}
	}
}
