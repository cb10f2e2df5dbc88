// Package render draws projected symptom series as SVG scatter charts.
package render

import (
	"errors"
	"fmt"
	"io"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/rewired-gh/symptomscope/internal/series"
)

// ErrEmptySeries is returned when a series has no points to draw.
var ErrEmptySeries = errors.New("series has no points")

// Options controls the chart canvas.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions returns the canvas size used when none is configured.
func DefaultOptions() Options {
	return Options{Width: 960, Height: 500}
}

// pointStyle renders dots without connecting lines
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		DotWidth:    4,
		DotColor:    col,
	}
}

// SVG writes s to w as a scatter chart of severity over time.
func SVG(w io.Writer, s *series.Series, opts Options) error {
	if s == nil || len(s.Points) == 0 {
		return ErrEmptySeries
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultOptions()
	}

	xs := make([]time.Time, 0, len(s.Points)+1)
	ys := make([]float64, 0, len(s.Points)+1)
	maxY := 0.0
	for _, p := range s.Points {
		xs = append(xs, p.X)
		y := float64(p.Y)
		ys = append(ys, y)
		if y > maxY {
			maxY = y
		}
	}
	// go-chart needs at least two distinct x values to compute a range
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(time.Second))
		ys = append(ys, ys[0])
	}

	ch := chart.Chart{
		Title:      fmt.Sprintf("%s (%s to %s)", s.Category, s.Start.Format(series.DateLayout), s.End.Format(series.DateLayout)),
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           "Time",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02 15:04"),
		},
		YAxis: chart.YAxis{
			Name:           "Severity",
			Range:          &chart.ContinuousRange{Min: 0, Max: maxY + 1},
			ValueFormatter: chart.IntValueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{Name: s.Category, XValues: xs, YValues: ys, Style: pointStyle(chart.ColorBlue)},
		},
	}

	if err := ch.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
