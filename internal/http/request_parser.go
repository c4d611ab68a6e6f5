// Package http provides the dashboard's HTTP server: the rendered page, the
// HTMX partials and the JSON chart endpoints.
//
// This file parses and validates filter parameters shared by every data
// endpoint.
package http

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"cruscotto/internal/core"
)

const filterDateLayout = "2006-01-02"

// ParseFilter extracts the dashboard filter from query parameters. Dates use
// the from/to params in ISO form; dimension params (collaborator, department,
// activity, client) repeat for multi-select. A malformed date or an inverted
// range is a validation error the caller maps to 422.
func ParseFilter(query url.Values) (core.Filter, error) {
	var f core.Filter

	if v := strings.TrimSpace(query.Get("from")); v != "" {
		d, err := time.Parse(filterDateLayout, v)
		if err != nil {
			return core.Filter{}, fmt.Errorf("%w: data 'from' non valida: %q", core.ErrInvalidDateRange, v)
		}
		f.From = d
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		d, err := time.Parse(filterDateLayout, v)
		if err != nil {
			return core.Filter{}, fmt.Errorf("%w: data 'to' non valida: %q", core.ErrInvalidDateRange, v)
		}
		f.To = d
	}

	f.Collaborators = cleanValues(query["collaborator"])
	f.Departments = cleanValues(query["department"])
	f.Activities = cleanValues(query["activity"])
	f.Clients = cleanValues(query["client"])

	if err := f.Validate(); err != nil {
		return core.Filter{}, err
	}
	return f, nil
}

func cleanValues(values []string) []string {
	var out []string
	for _, v := range values {
		v = sanitizeInput(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
