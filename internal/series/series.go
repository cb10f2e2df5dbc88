// Package series projects stored symptom records into chartable point series.
//
// A request names a category and an optional calendar window. The window is
// turned into two one-second anchor spans, one at the first second of the
// start date and one at the last seconds of the end date. Because the store
// orders spans by overlap, every record whose span lies between or touches
// the anchors is returned by the range query.
//
// When no category is requested the first category name is used, and
// missing window bounds fall back to the projector's default window.
package series

import (
	"errors"
	"fmt"
	"time"

	"github.com/rewired-gh/symptomscope/internal/logger"
	"github.com/rewired-gh/symptomscope/internal/models"
	"github.com/rewired-gh/symptomscope/internal/storage"
)

// DateLayout is the calendar date layout accepted in requests.
const DateLayout = "2006-01-02"

var (
	// ErrNoData is returned when there is no store or it has no categories.
	ErrNoData = errors.New("no data loaded")
	// ErrUnknownCategory is returned when the requested category is not stored.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrInvalidWindow is returned when the window ends before it starts.
	ErrInvalidWindow = errors.New("window end must not be before start")
)

// Window is an inclusive range of calendar dates.
type Window struct {
	Start time.Time
	End   time.Time
}

// Request selects a category and an optional window. Zero values fall back
// to defaults.
type Request struct {
	Category string
	Start    *time.Time
	End      *time.Time
}

// Series is the projected result of one request.
type Series struct {
	Category string         `json:"category"`
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	Points   []models.Point `json:"points"`
}

// Projector builds point series from a store
type Projector struct {
	defaultWindow Window
}

// New creates a projector with the window used when a request omits bounds.
func New(defaultWindow Window) *Projector {
	return &Projector{
		defaultWindow: Window{
			Start: models.Midnight(defaultWindow.Start),
			End:   models.Midnight(defaultWindow.End),
		},
	}
}

// DefaultWindow returns the window used for missing request bounds.
func (p *Projector) DefaultWindow() Window {
	return p.defaultWindow
}

// StartAnchor returns the span covering the first second of date.
func StartAnchor(date time.Time) models.TimeSpan {
	start := models.Midnight(date)
	return models.TimeSpan{Start: start, End: start.Add(time.Second)}
}

// EndAnchor returns the span covering the last two seconds of date.
func EndAnchor(date time.Time) models.TimeSpan {
	end := models.Midnight(date).Add(24*time.Hour - time.Second)
	return models.TimeSpan{Start: end.Add(-time.Second), End: end}
}

// Project resolves the request against store and returns the points of the
// selected category inside the window, ascending by timestamp. A category
// with no points in the window yields an empty series, not an error.
func (p *Projector) Project(store *storage.Store, req Request) (*Series, error) {
	if store == nil {
		return nil, ErrNoData
	}

	category := req.Category
	if category == "" {
		names := store.CategoryNames()
		if len(names) == 0 {
			return nil, ErrNoData
		}
		category = names[0]
		logger.Debug("No category requested, defaulting to %q", category)
	}

	window := p.resolveWindow(req)
	if window.End.Before(window.Start) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidWindow,
			window.Start.Format(DateLayout), window.End.Format(DateLayout))
	}

	points, ok := store.Query(category, StartAnchor(window.Start), EndAnchor(window.End))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	logger.Debug("Projected %d points for %q between %s and %s",
		len(points), category, window.Start.Format(DateLayout), window.End.Format(DateLayout))

	return &Series{
		Category: category,
		Start:    window.Start,
		End:      window.End,
		Points:   points,
	}, nil
}

func (p *Projector) resolveWindow(req Request) Window {
	w := p.defaultWindow
	if req.Start != nil {
		w.Start = models.Midnight(*req.Start)
	}
	if req.End != nil {
		w.End = models.Midnight(*req.End)
	}
	return w
}

// ParseDate parses an optional YYYY-MM-DD date. Empty input gives nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected %s", s, DateLayout)
	}
	return &t, nil
}
