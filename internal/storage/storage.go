// Package storage provides the per-category interval store for one ingested batch.
//
// A Store is built once from a flat slice of records and is read-only
// afterwards. Loading a new batch builds a new Store; Holder publishes it
// by swapping a pointer, so readers of the previous Store are never
// exposed to a half-built index.
package storage

import (
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/symptomscope/internal/index"
	"github.com/rewired-gh/symptomscope/internal/logger"
	"github.com/rewired-gh/symptomscope/internal/models"
)

// SpanDerivationError reports a record whose time span could not be derived.
// It fails the whole build.
type SpanDerivationError struct {
	RecordID string
	Category string
	Date     time.Time
	DayPart  models.DayPart
	Err      error
}

func (e *SpanDerivationError) Error() string {
	return fmt.Sprintf("span derivation failed for record %s (%s on %s, %q): %v",
		e.RecordID, e.Category, e.Date.Format("2006-01-02"), string(e.DayPart), e.Err)
}

func (e *SpanDerivationError) Unwrap() error {
	return e.Err
}

// DateRange is the inclusive range of span starts stored for a category.
type DateRange struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// CategoryStats summarizes one category of a store.
type CategoryStats struct {
	Category     string
	Records      int
	Range        DateRange
	MinSeverity  uint8
	MaxSeverity  uint8
	MeanSeverity float64
}

// Store holds one interval index per category
type Store struct {
	id         string
	builtAt    time.Time
	categories map[string]*index.IntervalIndex[models.Record]
	records    int
	collisions int
}

// Build groups records by category and indexes them by derived span.
// Records whose spans overlap an already indexed record of the same
// category replace it. Any invalid record fails the build and no store
// is returned.
func Build(records []models.Record) (*Store, error) {
	s := &Store{
		id:         uuid.New().String(),
		builtAt:    time.Now(),
		categories: make(map[string]*index.IntervalIndex[models.Record]),
	}

	for i := range records {
		record := records[i]
		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("invalid record at position %d: %w", i, err)
		}

		span, err := record.Span()
		if err != nil {
			return nil, &SpanDerivationError{
				RecordID: record.ID,
				Category: record.Category,
				Date:     record.Date,
				DayPart:  record.DayPart,
				Err:      err,
			}
		}

		ix, exists := s.categories[record.Category]
		if !exists {
			ix = index.New[models.Record]()
			s.categories[record.Category] = ix
		}

		if prev, replaced := ix.Insert(span, record); replaced {
			s.collisions++
			logger.Debug("Record %s (%s %s) replaced overlapping record %s (%s)",
				record.ID, record.Category, span, prev.Value.ID, prev.Span)
		}
	}

	for _, ix := range s.categories {
		s.records += ix.Len()
	}

	logger.Debug("Built store %s: %d records in %d categories (%d collisions)",
		s.id, s.records, len(s.categories), s.collisions)
	return s, nil
}

// ID returns the unique identifier of the batch this store was built from.
func (s *Store) ID() string {
	return s.id
}

// BuiltAt returns the build time.
func (s *Store) BuiltAt() time.Time {
	return s.builtAt
}

// Len returns the number of indexed records across all categories.
func (s *Store) Len() int {
	return s.records
}

// Collisions returns how many records were overwritten by an overlapping
// record of the same category during the build.
func (s *Store) Collisions() int {
	return s.collisions
}

// CategoryNames returns the category keys in lexicographic order.
func (s *Store) CategoryNames() []string {
	names := make([]string, 0, len(s.categories))
	for name := range s.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasCategory reports whether category is present.
func (s *Store) HasCategory(category string) bool {
	_, ok := s.categories[category]
	return ok
}

// DateRange returns the earliest and latest span start of a category.
// It returns false when the category is absent or empty.
func (s *Store) DateRange(category string) (DateRange, bool) {
	ix, ok := s.categories[category]
	if !ok {
		return DateRange{}, false
	}
	lo, ok := ix.Min()
	if !ok {
		return DateRange{}, false
	}
	hi, _ := ix.Max()
	return DateRange{Earliest: lo.Span.Start, Latest: hi.Span.Start}, true
}

// SortedRecords returns the records of a category in ascending span order.
func (s *Store) SortedRecords(category string) (iter.Seq[models.Record], bool) {
	ix, ok := s.categories[category]
	if !ok {
		return nil, false
	}
	return ix.Values(), true
}

// Query returns (span start, severity) points for every record of category
// between the two bound spans, ascending. It returns false only when the
// category is absent; no matches give an empty slice.
func (s *Store) Query(category string, lower, upper models.TimeSpan) ([]models.Point, bool) {
	ix, ok := s.categories[category]
	if !ok {
		return nil, false
	}
	entries := ix.Range(lower, upper)
	points := make([]models.Point, 0, len(entries))
	for _, e := range entries {
		points = append(points, models.Point{X: e.Span.Start, Y: e.Value.Severity})
	}
	return points, true
}

// Stats returns per-category summaries ordered by category name.
func (s *Store) Stats() []CategoryStats {
	stats := make([]CategoryStats, 0, len(s.categories))
	for _, name := range s.CategoryNames() {
		ix := s.categories[name]
		st := CategoryStats{Category: name, Records: ix.Len()}
		st.Range, _ = s.DateRange(name)

		sum := 0
		first := true
		for r := range ix.Values() {
			if first || r.Severity < st.MinSeverity {
				st.MinSeverity = r.Severity
			}
			if first || r.Severity > st.MaxSeverity {
				st.MaxSeverity = r.Severity
			}
			first = false
			sum += int(r.Severity)
		}
		if st.Records > 0 {
			st.MeanSeverity = float64(sum) / float64(st.Records)
		}
		stats = append(stats, st)
	}
	return stats
}
