package models

import (
	"fmt"
	"strings"
	"time"
)

// DayPart is a day-part token from the upstream export.
type DayPart string

const (
	DayPartPre    DayPart = "pre"
	DayPartAM     DayPart = "am"
	DayPartMid    DayPart = "mid"
	DayPartPM     DayPart = "pm"
	DayPartAllDay DayPart = "all day"
)

// dayWindow is an inclusive offset window from midnight.
type dayWindow struct {
	from, to time.Duration
}

const lastSecond = time.Second

// Windows are closed at second resolution: each one ends on the last second
// before the next begins, so adjacent parts of the same day never overlap.
var dayWindows = map[DayPart]dayWindow{
	DayPartPre:    {0, 6*time.Hour - lastSecond},
	DayPartAM:     {6 * time.Hour, 12*time.Hour - lastSecond},
	DayPartMid:    {12 * time.Hour, 18*time.Hour - lastSecond},
	DayPartPM:     {18 * time.Hour, 24*time.Hour - lastSecond},
	DayPartAllDay: {0, 24*time.Hour - lastSecond},
}

// ParseDayPart normalizes a raw token. Unknown tokens fail with ErrUnsupportedTimeOfDay.
func ParseDayPart(s string) (DayPart, error) {
	d := normalizeDayPart(s)
	if _, ok := dayWindows[d]; !ok {
		return d, fmt.Errorf("%w: %q", ErrUnsupportedTimeOfDay, s)
	}
	return d, nil
}

func normalizeDayPart(s string) DayPart {
	t := strings.ToLower(strings.TrimSpace(s))
	switch t {
	case "allday", "all-day", "all_day":
		return DayPartAllDay
	}
	return DayPart(t)
}

// Valid reports whether d is a known day part.
func (d DayPart) Valid() bool {
	_, ok := dayWindows[normalizeDayPart(string(d))]
	return ok
}

// Span returns the window of d on the calendar date of date. Only the
// year, month and day of date are used; the span is in UTC.
func (d DayPart) Span(date time.Time) (TimeSpan, error) {
	w, ok := dayWindows[normalizeDayPart(string(d))]
	if !ok {
		return TimeSpan{}, fmt.Errorf("%w: %q", ErrUnsupportedTimeOfDay, string(d))
	}
	midnight := Midnight(date)
	return NewTimeSpan(midnight.Add(w.from), midnight.Add(w.to))
}

// Midnight returns 00:00:00 UTC on the calendar date of t.
func Midnight(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
