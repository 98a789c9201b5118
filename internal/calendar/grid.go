// Package calendar computes month grids, places events on them, and drives
// month navigation and event creation for the dashboard calendar.
package calendar

import (
	"iter"
	"time"

	"crmcal/internal/model"
)

// DayLayout is the normalized calendar-day key format.
const DayLayout = "2006-01-02"

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Cell is one slot of the month grid: either leading padding or a day.
type Cell struct {
	Padding bool
	Day     int
	Date    time.Time
	IsToday bool
	Events  []model.CalendarEvent
}

// NormalizeMonth carries an out-of-range month (0, 13, -1, ...) into the
// adjacent year the same way time.Date does.
func NormalizeMonth(year int, month time.Month) (int, time.Month) {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// DaysInMonth returns the length of the month, computed as day 0 of the
// following month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekdayOffset returns the weekday of the 1st, 0=Sunday..6=Saturday.
func FirstWeekdayOffset(year int, month time.Month) int {
	return int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// LeadingPadding is the number of empty cells before day 1 for a grid whose
// columns start on weekStart.
func LeadingPadding(year int, month time.Month, weekStart time.Weekday) int {
	return (FirstWeekdayOffset(year, month) - int(weekStart) + 7) % 7
}

// WeekdayLabels returns the column headers starting at weekStart.
func WeekdayLabels(weekStart time.Weekday) []string {
	out := make([]string, 7)
	for i := range out {
		out[i] = weekdayLabels[(int(weekStart)+i)%7]
	}
	return out
}

type gridOptions struct {
	loc       *time.Location
	weekStart time.Weekday
	today     time.Time
	index     *Index
}

// GridOption customizes Cells and BuildGrid.
type GridOption func(*gridOptions)

// WithLocation sets the zone in which cell dates are constructed.
func WithLocation(loc *time.Location) GridOption {
	return func(o *gridOptions) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithWeekStart shifts the leading padding so columns start on the given day.
func WithWeekStart(d time.Weekday) GridOption {
	return func(o *gridOptions) { o.weekStart = d }
}

// WithToday marks the cell that falls on t's calendar date.
func WithToday(t time.Time) GridOption {
	return func(o *gridOptions) { o.today = t }
}

// WithIndex fills day cells with events from ix.
func WithIndex(ix *Index) GridOption {
	return func(o *gridOptions) { o.index = ix }
}

// Cells yields the month grid lazily: leading padding cells, then one cell per
// day in order, with no trailing padding. Each range over the sequence starts
// from scratch and yields the same cells for the same inputs.
func Cells(year int, month time.Month, opts ...GridOption) iter.Seq[Cell] {
	o := gridOptions{loc: time.Local, weekStart: time.Sunday}
	for _, opt := range opts {
		opt(&o)
	}
	year, month = NormalizeMonth(year, month)

	todayKey := ""
	if !o.today.IsZero() {
		todayKey = o.today.In(o.loc).Format(DayLayout)
	}

	return func(yield func(Cell) bool) {
		pad := LeadingPadding(year, month, o.weekStart)
		for i := 0; i < pad; i++ {
			if !yield(Cell{Padding: true}) {
				return
			}
		}

		days := DaysInMonth(year, month)
		for day := 1; day <= days; day++ {
			date := time.Date(year, month, day, 0, 0, 0, 0, o.loc)
			cell := Cell{
				Day:     day,
				Date:    date,
				IsToday: todayKey != "" && date.Format(DayLayout) == todayKey,
				Events:  o.index.On(date),
			}
			if !yield(cell) {
				return
			}
		}
	}
}

// BuildGrid collects Cells into a slice.
func BuildGrid(year int, month time.Month, opts ...GridOption) []Cell {
	year, month = NormalizeMonth(year, month)
	out := make([]Cell, 0, 7+DaysInMonth(year, month))
	for c := range Cells(year, month, opts...) {
		out = append(out, c)
	}
	return out
}
