package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cruscotto/internal/amqp"
	"cruscotto/internal/charts"
	"cruscotto/internal/core"
	"cruscotto/internal/sheets"
)

type stubProvider struct {
	mu          sync.Mutex
	ds          core.Dataset
	err         error
	invalidated int
}

func (p *stubProvider) Load(ctx context.Context) (core.Dataset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return core.Dataset{}, p.err
	}
	return p.ds, nil
}

func (p *stubProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidated++
}

type stubPublisher struct {
	mu       sync.Mutex
	messages []*amqp.RefreshMessage
}

func (p *stubPublisher) PublishRefresh(ctx context.Context, msg *amqp.RefreshMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func testDataset() core.Dataset {
	return core.Dataset{
		Records: []core.Record{
			{
				Date: core.NewDate(2025, 1, 10), Collaborator: "Anna", Department: "Sviluppo",
				Activity: "Consulenza", Client: "ACME", Minutes: 600,
				Rate: core.Money{Cents: 1000}, Billed: core.Money{Cents: 10000},
			},
			{
				Date: core.NewDate(2025, 2, 5), Collaborator: "Bruno", Department: "Design",
				Activity: "Grafica", Client: "Beta", Minutes: 300,
				Rate: core.Money{Cents: 1000}, Billed: core.Money{Cents: 5000},
			},
		},
		ClientMap: map[string]string{"ACME": "ACME S.p.A."},
		LoadedAt:  time.Date(2025, 2, 6, 9, 0, 0, 0, time.UTC),
	}
}

func newTestServer(provider DatasetProvider, publisher RefreshPublisher) *Server {
	return NewServer(":0", provider, publisher)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&stubProvider{ds: testDataset()}, nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	provider := &stubProvider{ds: testDataset()}
	s := newTestServer(provider, nil)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready with working provider = %d", rec.Code)
	}

	provider.mu.Lock()
	provider.err = sheets.ErrTransient
	provider.mu.Unlock()

	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready with failing provider = %d", rec.Code)
	}
}

func TestCollaboratorHoursChart(t *testing.T) {
	s := newTestServer(&stubProvider{ds: testDataset()}, nil)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts/collaborator-hours", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var spec charts.Spec
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if spec.Kind != charts.KindHorizontalBar {
		t.Errorf("kind = %q", spec.Kind)
	}
	// Ascending by hours: Bruno (5h) before Anna (10h).
	if len(spec.Labels) != 2 || spec.Labels[0] != "Bruno" {
		t.Errorf("labels = %v", spec.Labels)
	}
}

func TestChartEndpointAppliesFilter(t *testing.T) {
	s := newTestServer(&stubProvider{ds: testDataset()}, nil)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts/collaborator-hours?collaborator=Anna", nil))

	var spec charts.Spec
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(spec.Labels) != 1 || spec.Labels[0] != "Anna" {
		t.Errorf("filtered labels = %v", spec.Labels)
	}
}

func TestClientDistributionUsesDisplayNames(t *testing.T) {
	s := newTestServer(&stubProvider{ds: testDataset()}, nil)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts/client-distribution", nil))

	var spec charts.Spec
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	found := false
	for _, l := range spec.Labels {
		if l == "ACME S.p.A." {
			found = true
		}
	}
	if !found {
		t.Errorf("expected mapped client name, labels = %v", spec.Labels)
	}
}

func TestInvalidFilterIsUnprocessable(t *testing.T) {
	s := newTestServer(&stubProvider{ds: testDataset()}, nil)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts/monthly-balance?from=10/01/2025", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body not JSON: %v", err)
	}
	if resp["error"] == "" {
		t.Error("expected error message in body")
	}
}

func TestSourceErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{sheets.ErrAuthentication, http.StatusBadGateway},
		{sheets.ErrNotFound, http.StatusBadGateway},
		{sheets.ErrTransient, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		s := newTestServer(&stubProvider{err: tt.err}, nil)
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/filters", nil))
		if rec.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.status)
		}
	}
}

func TestFilterOptionsEndpoint(t *testing.T) {
	s := newTestServer(&stubProvider{ds: testDataset()}, nil)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/filters", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Collaborators []string `json:"collaborators"`
		MinDate       string   `json:"minDate"`
		MaxDate       string   `json:"maxDate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Collaborators) != 2 {
		t.Errorf("collaborators = %v", resp.Collaborators)
	}
	if resp.MinDate != "2025-01-10" || resp.MaxDate != "2025-02-05" {
		t.Errorf("date bounds = %s .. %s", resp.MinDate, resp.MaxDate)
	}
}

func TestKPIPartial(t *testing.T) {
	s := newTestServer(&stubProvider{ds: testDataset()}, nil)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ui/kpis", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	// Revenue 150,00 total; cost 150,00; margin 0.
	if !strings.Contains(body, "Fatturato") {
		t.Errorf("kpi partial missing revenue label: %s", body)
	}
}

func TestRefresh(t *testing.T) {
	provider := &stubProvider{ds: testDataset()}
	publisher := &stubPublisher{}
	s := newTestServer(provider, publisher)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if provider.invalidated != 1 {
		t.Errorf("provider not invalidated: %d", provider.invalidated)
	}
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if len(publisher.messages) != 1 || publisher.messages[0].Reason != amqp.ReasonManual {
		t.Errorf("refresh message = %+v", publisher.messages)
	}
}

func TestRefreshRejectsGet(t *testing.T) {
	s := newTestServer(&stubProvider{ds: testDataset()}, nil)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/refresh", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestExportDownload(t *testing.T) {
	s := newTestServer(&stubProvider{ds: testDataset()}, nil)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export.xlsx", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty workbook body")
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(&stubProvider{ds: testDataset()}, nil)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/filters", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options header")
	}
}
