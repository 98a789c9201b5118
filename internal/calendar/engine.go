package calendar

import (
	"context"
	"time"

	"crmcal/internal/model"
	"crmcal/internal/store"
)

// MonthView is everything a renderer needs for one month.
type MonthView struct {
	MonthLabel string
	Year       int
	Month      time.Month
	Weekdays   []string
	Cells      []Cell
}

// Options configures an Engine.
type Options struct {
	Location      *time.Location
	WeekStart     time.Weekday
	Chronological bool
	CreateDelay   time.Duration
	StrictTimes   bool
	Now           Clock
	NewID         func() string
}

// Engine ties the event store, the month cursor and the creation workflow
// together. Grids are never cached; every View rebuilds from the store.
type Engine struct {
	store         *store.EventStore
	nav           *Navigator
	creator       *Creator
	loc           *time.Location
	weekStart     time.Weekday
	chronological bool
	now           Clock
}

func NewEngine(st *store.EventStore, opts Options) *Engine {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	now := func() time.Time { return opts.Now().In(opts.Location) }

	return &Engine{
		store: st,
		nav:   NewNavigator(now),
		creator: NewCreator(st, CreatorOptions{
			Location:    opts.Location,
			Delay:       opts.CreateDelay,
			StrictTimes: opts.StrictTimes,
			NewID:       opts.NewID,
		}),
		loc:           opts.Location,
		weekStart:     opts.WeekStart,
		chronological: opts.Chronological,
		now:           now,
	}
}

// Location is the zone the engine interprets dates in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Seed replaces the store contents with events from a record source and
// reports how many were kept.
func (e *Engine) Seed(events []model.CalendarEvent) int {
	return e.store.Replace(events)
}

// Events returns every stored event in insertion order.
func (e *Engine) Events() []model.CalendarEvent {
	return e.store.All()
}

// View renders the month under the navigation cursor.
func (e *Engine) View() MonthView {
	year, month := e.nav.Current()
	return e.Month(year, month)
}

// Month renders an arbitrary month without moving the cursor.
func (e *Engine) Month(year int, month time.Month) MonthView {
	year, month = NormalizeMonth(year, month)
	ix := NewIndex(e.store.All(), e.loc, e.chronological)

	return MonthView{
		MonthLabel: month.String(),
		Year:       year,
		Month:      month,
		Weekdays:   WeekdayLabels(e.weekStart),
		Cells: BuildGrid(year, month,
			WithLocation(e.loc),
			WithWeekStart(e.weekStart),
			WithToday(e.now()),
			WithIndex(ix),
		),
	}
}

func (e *Engine) Prev() MonthView {
	e.nav.Prev()
	return e.View()
}

func (e *Engine) Next() MonthView {
	e.nav.Next()
	return e.View()
}

func (e *Engine) Today() MonthView {
	e.nav.Today()
	return e.View()
}

// GoTo moves the cursor to year/month and renders it.
func (e *Engine) GoTo(year int, month time.Month) MonthView {
	e.nav.Set(year, month)
	return e.View()
}

// Submit starts the creation workflow; see Creator.Submit.
func (e *Engine) Submit(ctx context.Context, actor model.Actor, in CreateInput) (*Pending, error) {
	return e.creator.Submit(ctx, actor, in)
}

// Create runs the creation workflow to completion.
func (e *Engine) Create(ctx context.Context, actor model.Actor, in CreateInput) (model.CalendarEvent, error) {
	return e.creator.Create(ctx, actor, in)
}
