package core

import (
	"errors"
	"strings"
	"time"
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Record is one row of business activity from the logbook.
	Record struct {
		Date         Date
		Collaborator string
		Department   string
		Activity     string
		Client       string
		Minutes      int64
		Rate         Money // hourly cost rate
		Billed       Money // billed amount for this row
		Note         string
	}

	// Dataset is the wholesale result of one load: the logbook rows plus the
	// optional client display-name map and the load timestamp.
	Dataset struct {
		Records   []Record
		ClientMap map[string]string
		LoadedAt  time.Time
	}
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrNegativeMinutes   = errors.New("negative minutes")
	ErrNegativeAmount    = errors.New("negative amount")
	ErrEmptyCollaborator = errors.New("empty collaborator")
)

// NewDate creates a new Date from year, month, day (UTC midnight).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (r Record) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Collaborator) == "" {
		return ErrEmptyCollaborator
	}
	if r.Minutes < 0 {
		return ErrNegativeMinutes
	}
	if r.Rate.Cents < 0 || r.Billed.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Cost returns the row cost: minutes at the hourly rate, half-up rounded to cents.
func (r Record) Cost() Money {
	return Money{Cents: (r.Minutes*r.Rate.Cents + 30) / 60}
}

// Hours returns the time worked in hours for display purposes.
// Use Minutes for calculations.
func (r Record) Hours() float64 {
	return float64(r.Minutes) / 60.0
}

// DisplayClient resolves the client name through the dataset's client map.
// Unknown names pass through unchanged.
func (ds Dataset) DisplayClient(name string) string {
	if ds.ClientMap == nil {
		return name
	}
	if mapped, ok := ds.ClientMap[name]; ok && strings.TrimSpace(mapped) != "" {
		return mapped
	}
	return name
}
