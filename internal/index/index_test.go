package index

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/symptomscope/internal/models"
)

func daySpan(t *testing.T, date string, part models.DayPart) models.TimeSpan {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	span, err := part.Span(d)
	require.NoError(t, err)
	return span
}

func span(t *testing.T, s string) models.TimeSpan {
	t.Helper()
	sp, err := models.ParseTimeSpan(s)
	require.NoError(t, err)
	return sp
}

func TestInsert_IdenticalSpansKeepLast(t *testing.T) {
	ix := New[string]()
	pre := daySpan(t, "2022-01-05", models.DayPartPre)

	_, replaced := ix.Insert(pre, "first")
	assert.False(t, replaced)

	prev, replaced := ix.Insert(pre, "second")
	assert.True(t, replaced)
	assert.Equal(t, "first", prev.Value)

	require.Equal(t, 1, ix.Len())
	assert.Equal(t, []string{"second"}, slices.Collect(ix.Values()))
}

func TestInsert_AdjacentDayPartsAreDistinct(t *testing.T) {
	ix := New[string]()
	ix.Insert(daySpan(t, "2022-01-05", models.DayPartAM), "am")
	ix.Insert(daySpan(t, "2022-01-05", models.DayPartPre), "pre")

	require.Equal(t, 2, ix.Len())
	assert.Equal(t, []string{"pre", "am"}, slices.Collect(ix.Values()))
}

func TestInsert_OverlapOutcomeDependsOnOrder(t *testing.T) {
	pre := daySpan(t, "2022-01-05", models.DayPartPre)
	pm := daySpan(t, "2022-01-05", models.DayPartPM)
	allDay := daySpan(t, "2022-01-05", models.DayPartAllDay)

	// all day lands on pm and replaces it; pre survives next to it.
	first := New[string]()
	first.Insert(pre, "pre")
	first.Insert(pm, "pm")
	_, replaced := first.Insert(allDay, "all day")
	assert.True(t, replaced)
	assert.Equal(t, []string{"pre", "all day"}, slices.Collect(first.Values()))

	// pre replaces all day, then pm no longer collides with anything.
	second := New[string]()
	second.Insert(allDay, "all day")
	second.Insert(pre, "pre")
	_, replaced = second.Insert(pm, "pm")
	assert.False(t, replaced)
	assert.Equal(t, []string{"pre", "pm"}, slices.Collect(second.Values()))
}

func TestMinMax(t *testing.T) {
	ix := New[int]()
	_, ok := ix.Min()
	assert.False(t, ok)
	_, ok = ix.Max()
	assert.False(t, ok)

	ix.Insert(daySpan(t, "2022-01-07", models.DayPartMid), 3)
	ix.Insert(daySpan(t, "2022-01-05", models.DayPartAM), 1)
	ix.Insert(daySpan(t, "2022-01-06", models.DayPartPM), 2)

	lo, ok := ix.Min()
	require.True(t, ok)
	assert.Equal(t, 1, lo.Value)
	assert.Equal(t, time.Date(2022, 1, 5, 6, 0, 0, 0, time.UTC), lo.Span.Start)

	hi, ok := ix.Max()
	require.True(t, ok)
	assert.Equal(t, 3, hi.Value)
	assert.Equal(t, time.Date(2022, 1, 7, 12, 0, 0, 0, time.UTC), hi.Span.Start)
}

func TestValues_Restartable(t *testing.T) {
	ix := New[int]()
	for i, part := range []models.DayPart{models.DayPartPM, models.DayPartPre, models.DayPartMid} {
		ix.Insert(daySpan(t, "2022-01-05", part), i)
	}

	first := slices.Collect(ix.Values())
	second := slices.Collect(ix.Values())
	assert.Equal(t, []int{1, 2, 0}, first)
	assert.Equal(t, first, second)

	var starts []time.Time
	for sp := range ix.All() {
		starts = append(starts, sp.Start)
	}
	assert.True(t, slices.IsSortedFunc(starts, func(a, b time.Time) int { return a.Compare(b) }))

	// Early break must stop the scan.
	n := 0
	for range ix.Values() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestRange(t *testing.T) {
	ix := New[string]()
	for _, date := range []string{"2022-01-04", "2022-01-05", "2022-01-06"} {
		ix.Insert(daySpan(t, date, models.DayPartPre), date+" pre")
		ix.Insert(daySpan(t, date, models.DayPartPM), date+" pm")
	}

	lower := span(t, "2022-01-05T00:00:00 - 2022-01-05T00:00:01")
	upper := span(t, "2022-01-05T23:59:58 - 2022-01-05T23:59:59")

	var got []string
	for _, e := range ix.Range(lower, upper) {
		got = append(got, e.Value)
	}
	assert.Equal(t, []string{"2022-01-05 pre", "2022-01-05 pm"}, got)

	wide := ix.Range(
		span(t, "2022-01-04T00:00:00 - 2022-01-04T00:00:01"),
		span(t, "2022-01-06T23:59:58 - 2022-01-06T23:59:59"),
	)
	assert.Len(t, wide, 6)
}

func TestRange_IncludesEveryKeyOverlappingLower(t *testing.T) {
	ix := New[string]()
	ix.Insert(daySpan(t, "2022-01-05", models.DayPartPre), "pre")
	ix.Insert(daySpan(t, "2022-01-05", models.DayPartPM), "pm")
	ix.Insert(daySpan(t, "2022-01-05", models.DayPartAllDay), "all day")
	require.Equal(t, []string{"pre", "all day"}, slices.Collect(ix.Values()))

	values := func(entries []Entry[string]) []string {
		var out []string
		for _, e := range entries {
			out = append(out, e.Value)
		}
		return out
	}

	narrow := ix.Range(
		span(t, "2022-01-05T00:00:00 - 2022-01-05T00:00:01"),
		span(t, "2022-01-05T23:59:58 - 2022-01-05T23:59:59"),
	)
	assert.Equal(t, []string{"pre", "all day"}, values(narrow))

	wide := ix.Range(
		span(t, "2022-01-04T00:00:00 - 2022-01-04T00:00:01"),
		span(t, "2022-01-06T23:59:58 - 2022-01-06T23:59:59"),
	)
	assert.Equal(t, values(wide), values(narrow))
}

func TestRange_Empty(t *testing.T) {
	ix := New[string]()
	ix.Insert(daySpan(t, "2022-01-05", models.DayPartPre), "pre")

	gap := ix.Range(
		span(t, "2022-01-05T08:00:00 - 2022-01-05T08:00:01"),
		span(t, "2022-01-05T09:00:00 - 2022-01-05T09:00:01"),
	)
	assert.NotNil(t, gap)
	assert.Empty(t, gap)

	reversed := ix.Range(
		span(t, "2022-01-06T00:00:00 - 2022-01-06T00:00:01"),
		span(t, "2022-01-05T00:00:00 - 2022-01-05T00:00:01"),
	)
	assert.Empty(t, reversed)
}
