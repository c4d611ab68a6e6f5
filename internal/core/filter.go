package core

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidDateRange = errors.New("end date must not precede start date")

// Filter is a set of optional predicates applied conjunctively to logbook
// records. A zero From/To leaves that bound open; an empty name set means no
// constraint on that attribute. Applying a Filter is pure, idempotent and
// order-independent: predicates only ever narrow the subset.
type Filter struct {
	From          time.Time
	To            time.Time
	Collaborators []string
	Departments   []string
	Activities    []string
	Clients       []string
}

func (f Filter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return ErrInvalidDateRange
	}
	return nil
}

// IsZero reports whether the filter has no active predicate.
func (f Filter) IsZero() bool {
	return f.From.IsZero() && f.To.IsZero() &&
		len(f.Collaborators) == 0 && len(f.Departments) == 0 &&
		len(f.Activities) == 0 && len(f.Clients) == 0
}

// Match reports whether the record satisfies every active predicate.
func (f Filter) Match(r Record) bool {
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(f.To) {
		return false
	}
	if !inSet(f.Collaborators, r.Collaborator) {
		return false
	}
	if !inSet(f.Departments, r.Department) {
		return false
	}
	if !inSet(f.Activities, r.Activity) {
		return false
	}
	if !inSet(f.Clients, r.Client) {
		return false
	}
	return true
}

func inSet(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}
