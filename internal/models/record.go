package models

import (
	"errors"
	"time"
)

// Record is a single symptom entry from one ingested batch.
// Records are created by ingestion and never modified afterwards.
type Record struct {
	ID       string    `json:"id"`
	Category string    `json:"category"`    // Symptom name, the grouping key
	Date     time.Time `json:"date"`        // Calendar date the entry was logged for
	DayPart  DayPart   `json:"time_of_day"` // Part of the day the entry covers
	Severity uint8     `json:"severity"`
	Label    string    `json:"label"` // Free-text detail as exported
}

// Validate checks that all record fields are valid.
// The day part is not checked here; span derivation reports it.
func (r *Record) Validate() error {
	if r.ID == "" {
		return errors.New("record ID must not be empty")
	}
	if r.Category == "" {
		return errors.New("record category must not be empty")
	}
	if r.Date.IsZero() {
		return errors.New("record date must be set")
	}
	return nil
}

// Span derives the time span the record covers from its date and day part.
func (r *Record) Span() (TimeSpan, error) {
	return r.DayPart.Span(r.Date)
}
