// Package models defines the core domain entities for symptomscope.
// These models represent symptom records, the time spans they cover, and the
// projected points handed to charting.
//
// Terminology (matching the upstream tracker export):
//   - Record: one symptom entry, rated on a date for a part of the day.
//   - Category: the symptom name records are grouped by.
//   - Day part: the window of the day a record was logged for (pre, am, mid, pm).
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SpanLayout is the text layout of each bound in a TimeSpan string.
const SpanLayout = "2006-01-02T15:04:05"

var (
	// ErrInvalidSpan is returned when a span would end before it starts.
	ErrInvalidSpan = errors.New("span end must not be before start")
	// ErrUnsupportedTimeOfDay is returned for day-part tokens outside the known set.
	ErrUnsupportedTimeOfDay = errors.New("unsupported time of day")
)

// TimeSpan is a closed interval of wall-clock time. Both bounds belong to the span.
type TimeSpan struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeSpan creates a span, rejecting end < start.
func NewTimeSpan(start, end time.Time) (TimeSpan, error) {
	if end.Before(start) {
		return TimeSpan{}, fmt.Errorf("%w: %s > %s", ErrInvalidSpan,
			start.Format(SpanLayout), end.Format(SpanLayout))
	}
	return TimeSpan{Start: start, End: end}, nil
}

// ParseTimeSpan parses "2006-01-02T15:04:05 - 2006-01-02T15:04:05" in UTC.
func ParseTimeSpan(s string) (TimeSpan, error) {
	startText, endText, ok := strings.Cut(s, " - ")
	if !ok {
		return TimeSpan{}, fmt.Errorf("invalid span %q: expected \"start - end\"", s)
	}
	start, err := time.ParseInLocation(SpanLayout, strings.TrimSpace(startText), time.UTC)
	if err != nil {
		return TimeSpan{}, fmt.Errorf("invalid span start: %w", err)
	}
	end, err := time.ParseInLocation(SpanLayout, strings.TrimSpace(endText), time.UTC)
	if err != nil {
		return TimeSpan{}, fmt.Errorf("invalid span end: %w", err)
	}
	return NewTimeSpan(start, end)
}

// Overlaps reports whether the two spans share at least one instant.
// Touching spans overlap.
func (s TimeSpan) Overlaps(o TimeSpan) bool {
	return !(s.End.Before(o.Start) || s.Start.After(o.End))
}

// Compare orders spans by overlap: -1 when s ends before o starts, +1 when
// s starts after o ends, 0 whenever they overlap.
//
// The relation is not transitive. A long span can compare equal to two
// short spans that are ordered against each other, so ordered containers
// keyed by it give path-dependent answers for overlapping keys.
func (s TimeSpan) Compare(o TimeSpan) int {
	switch {
	case s.End.Before(o.Start):
		return -1
	case s.Start.After(o.End):
		return 1
	default:
		return 0
	}
}

// Duration returns End - Start.
func (s TimeSpan) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

func (s TimeSpan) String() string {
	return s.Start.Format(SpanLayout) + " - " + s.End.Format(SpanLayout)
}
