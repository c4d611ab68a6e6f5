package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cruscotto/internal/core"
	"cruscotto/internal/metrics"
	"cruscotto/internal/sheets"
)

const dataTimeout = 10 * time.Second

// loadFiltered resolves the dataset and applies the request's filter. On
// failure it writes the response itself and reports ok=false.
func (s *Server) loadFiltered(w http.ResponseWriter, r *http.Request, asJSON bool) (core.Dataset, []core.Record, core.Filter, bool) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "Filtri non validi", err, asJSON)
		return core.Dataset{}, nil, core.Filter{}, false
	}

	cctx, cancel := context.WithTimeout(r.Context(), dataTimeout)
	defer cancel()

	ds, err := s.provider.Load(cctx)
	if err != nil {
		status, msg := sourceErrorResponse(err)
		writeError(w, r, status, msg, err, asJSON)
		return core.Dataset{}, nil, core.Filter{}, false
	}

	return ds, metrics.Apply(ds.Records, filter), filter, true
}

// sourceErrorResponse maps source failures to a status and an operator
// message. Credential and missing-sheet problems are configuration errors,
// not outages.
func sourceErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, sheets.ErrAuthentication):
		return http.StatusBadGateway, "Credenziali Google non valide o scadute"
	case errors.Is(err, sheets.ErrNotFound):
		return http.StatusBadGateway, "Foglio di calcolo non trovato"
	case errors.Is(err, sheets.ErrTransient):
		return http.StatusServiceUnavailable, "Origine dati temporaneamente non disponibile, riprovare"
	default:
		return http.StatusInternalServerError, "Errore interno nel caricamento dei dati"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error, asJSON bool) {
	slog.ErrorContext(r.Context(), "Request failed",
		"status", status,
		"message", message,
		"error", err,
		"url", r.URL.Path)

	if asJSON {
		writeJSON(w, status, map[string]string{"error": message})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`<div class="error">` + message + `</div>`))
}
