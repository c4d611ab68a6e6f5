package http

import (
	"log/slog"
	"net/http"
	"time"

	"cruscotto/internal/core"
	"cruscotto/internal/metrics"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ds, _, _, ok := s.loadFiltered(w, r, false)
	if !ok {
		return
	}

	opts := metrics.Options(ds)
	data := struct {
		Collaborators []string
		Departments   []string
		Activities    []string
		Clients       []string
		MinDate       string
		MaxDate       string
		LoadedAt      string
	}{
		Collaborators: opts.Collaborators,
		Departments:   opts.Departments,
		Activities:    opts.Activities,
		Clients:       opts.Clients,
	}
	if !opts.MinDate.IsZero() {
		data.MinDate = opts.MinDate.Format("2006-01-02")
		data.MaxDate = opts.MaxDate.Format("2006-01-02")
	}
	if !ds.LoadedAt.IsZero() {
		data.LoadedAt = ds.LoadedAt.Local().Format("02/01/2006 15:04")
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "dashboard.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleKPIs renders the headline-numbers partial for the current filter.
func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	_, records, _, ok := s.loadFiltered(w, r, false)
	if !ok {
		return
	}

	summary := metrics.Summarize(records)
	data := struct {
		Records   int
		Hours     string
		Cost      string
		Revenue   string
		Margin    string
		MarginPct string
		Negative  bool
	}{
		Records: summary.Records,
		Hours:   formatHours(summary.Hours()),
		Cost:    core.FormatEuros(summary.Cost.Cents),
		Revenue: core.FormatEuros(summary.Revenue.Cents),
		Margin:  core.FormatEuros(summary.Margin().Cents),
	}
	if pct, defined := summary.MarginPercent(); defined {
		data.MarginPct = formatPercent(pct)
	} else {
		data.MarginPct = "—"
	}
	data.Negative = summary.Margin().Cents < 0

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="kpis"><div class="placeholder">Margine: ` + data.Margin + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "kpis.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "kpis.html")
		_, _ = w.Write([]byte(`<section id="kpis"><div class="error">Errore rendering indicatori</div></section>`))
	}
}

// handleCollaborators renders the per-collaborator table partial.
func (s *Server) handleCollaborators(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	_, records, _, ok := s.loadFiltered(w, r, false)
	if !ok {
		return
	}

	type row struct {
		Name    string
		Hours   string
		Cost    string
		Revenue string
		Margin  string
		Share   string
		Width   int
	}
	var data struct {
		Rows []row
	}
	for _, o := range metrics.Overview(records) {
		width := int(o.ShareOfMinutes + 0.5)
		if width > 100 {
			width = 100
		}
		data.Rows = append(data.Rows, row{
			Name:    o.Key,
			Hours:   formatHours(o.Hours()),
			Cost:    core.FormatEuros(o.Cost.Cents),
			Revenue: core.FormatEuros(o.Revenue.Cents),
			Margin:  core.FormatEuros(o.Margin().Cents),
			Share:   formatPercent(o.ShareOfMinutes),
			Width:   width,
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="collaborators"><div class="placeholder">` + time.Now().Format("15:04") + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "collaborators.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "collaborators.html")
		_, _ = w.Write([]byte(`<section id="collaborators"><div class="error">Errore rendering collaboratori</div></section>`))
	}
}
