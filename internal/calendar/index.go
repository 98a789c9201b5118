package calendar

import (
	"sort"
	"time"

	"crmcal/internal/model"
)

// Index groups events by the calendar day their start falls on, so each grid
// cell is a single map lookup. The end instant plays no part in placement.
type Index struct {
	loc   *time.Location
	byDay map[string][]model.CalendarEvent
}

// NewIndex groups events once in a single pass. Within a day, events keep the
// order they have in the input unless chronological is set, in which case
// they are stably sorted by start.
func NewIndex(events []model.CalendarEvent, loc *time.Location, chronological bool) *Index {
	if loc == nil {
		loc = time.Local
	}
	ix := &Index{
		loc:   loc,
		byDay: make(map[string][]model.CalendarEvent),
	}
	for _, ev := range events {
		key := ev.Start.In(loc).Format(DayLayout)
		ix.byDay[key] = append(ix.byDay[key], ev)
	}
	if chronological {
		for _, evs := range ix.byDay {
			sort.SliceStable(evs, func(i, j int) bool {
				return evs[i].Start.Before(evs[j].Start)
			})
		}
	}
	return ix
}

// On returns the events whose start falls on date's calendar day. A nil
// Index has no events.
func (ix *Index) On(date time.Time) []model.CalendarEvent {
	if ix == nil {
		return nil
	}
	return ix.byDay[date.In(ix.loc).Format(DayLayout)]
}

// Days reports how many distinct days carry at least one event.
func (ix *Index) Days() int {
	if ix == nil {
		return 0
	}
	return len(ix.byDay)
}
