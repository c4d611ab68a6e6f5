package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cruscotto/internal/amqp"
	"cruscotto/internal/charts"
	"cruscotto/internal/export"
	"cruscotto/internal/metrics"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleCollaboratorHoursChart(w http.ResponseWriter, r *http.Request) {
	_, records, _, ok := s.loadFiltered(w, r, true)
	if !ok {
		return
	}
	groups := metrics.SummarizeBy(records, metrics.ByCollaborator)
	writeJSON(w, http.StatusOK, charts.HoursByCollaborator(groups))
}

func (s *Server) handleClientDistributionChart(w http.ResponseWriter, r *http.Request) {
	ds, records, _, ok := s.loadFiltered(w, r, true)
	if !ok {
		return
	}
	groups := metrics.SummarizeBy(records, metrics.ByClient)
	writeJSON(w, http.StatusOK, charts.ClientDistribution(groups, ds))
}

func (s *Server) handleActivityTimelineChart(w http.ResponseWriter, r *http.Request) {
	_, records, _, ok := s.loadFiltered(w, r, true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, charts.ActivityTimeline(records))
}

func (s *Server) handleMonthlyBalanceChart(w http.ResponseWriter, r *http.Request) {
	_, records, _, ok := s.loadFiltered(w, r, true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, charts.MonthlyBalance(metrics.SummarizeByMonth(records)))
}

// handleFilterOptions returns the selectable values for each filter control.
func (s *Server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	ds, _, _, ok := s.loadFiltered(w, r, true)
	if !ok {
		return
	}

	opts := metrics.Options(ds)
	resp := struct {
		Collaborators []string `json:"collaborators"`
		Departments   []string `json:"departments"`
		Activities    []string `json:"activities"`
		Clients       []string `json:"clients"`
		MinDate       string   `json:"minDate,omitempty"`
		MaxDate       string   `json:"maxDate,omitempty"`
	}{
		Collaborators: opts.Collaborators,
		Departments:   opts.Departments,
		Activities:    opts.Activities,
		Clients:       opts.Clients,
	}
	if !opts.MinDate.IsZero() {
		resp.MinDate = opts.MinDate.Format("2006-01-02")
		resp.MaxDate = opts.MaxDate.Format("2006-01-02")
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExport streams the filtered records as an Excel workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ds, records, _, ok := s.loadFiltered(w, r, false)
	if !ok {
		return
	}

	filename := fmt.Sprintf("cruscotto_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := export.WriteXLSX(w, ds, records); err != nil {
		slog.ErrorContext(r.Context(), "Export failed", "error", err, "records", len(records))
	}
}

// handleRefresh invalidates the cached dataset and, when AMQP is configured,
// asks the snapshot worker to refresh too.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.provider.Invalidate()

	if s.publisher != nil {
		msg := amqp.NewRefreshMessage(amqp.ReasonManual, clientOf(r))
		if err := s.publisher.PublishRefresh(r.Context(), msg); err != nil {
			slog.ErrorContext(r.Context(), "Failed to publish refresh", "error", err)
		}
	}

	w.Header().Set("HX-Trigger", `{"dataset:refreshed": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Aggiornamento dati avviato</div>`))
}

func clientOf(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// formatHours renders decimal hours with the Italian comma separator.
func formatHours(h float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(h, 'f', 1, 64), ".", ",")
}

func formatPercent(p float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(p, 'f', 1, 64), ".", ",") + "%"
}
