package main

import (
	"context"
	"time"

	"crmcal/internal/calendar"
	"crmcal/internal/config"
	"crmcal/internal/ics"
	appLog "crmcal/internal/log"
	"crmcal/internal/model"
	"crmcal/internal/seed"
	"crmcal/internal/store"
)

// seedWindow bounds recurring ICS expansion around now.
const seedWindow = 6 // months

// newEngine builds an engine from cfg and seeds it. ICS failures are logged
// and the sources that did load are kept.
func newEngine(ctx context.Context, cfg *config.Config, now time.Time) *calendar.Engine {
	loc, err := cfg.Location()
	if err != nil {
		appLog.Error("invalid timezone; falling back to local", err, "timezone", cfg.Timezone)
	}

	engine := calendar.NewEngine(store.New(), calendar.Options{
		Location:      loc,
		WeekStart:     cfg.FirstWeekday(),
		Chronological: cfg.DayOrder == config.DayOrderChronological,
		CreateDelay:   cfg.CreateDelay,
		StrictTimes:   cfg.StrictTimes,
	})
	engine.Seed(seedEvents(ctx, cfg, loc, now))
	return engine
}

func seedEvents(ctx context.Context, cfg *config.Config, loc *time.Location, now time.Time) []model.CalendarEvent {
	var events []model.CalendarEvent
	if cfg.SeedMock {
		events = append(events, seed.MockEvents(now.In(loc))...)
	}
	if len(cfg.ICS) == 0 {
		return events
	}

	sources := make([]ics.Source, 0, len(cfg.ICS))
	for _, c := range cfg.ICS {
		sources = append(sources, ics.Source{ID: c.ID, URL: c.URL})
	}

	loaded, err := ics.Load(ctx, ics.NewFetcher("", nil), sources, ics.ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      now.AddDate(0, -seedWindow, 0),
		RangeEnd:        now.AddDate(0, seedWindow, 0),
		Owner:           cfg.CurrentUser,
	})
	if err != nil {
		appLog.Error("ics seed incomplete", err, "loaded", len(loaded))
	}
	return append(events, loaded...)
}
