package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "crmcal/internal/log"
	"crmcal/internal/model"
	"crmcal/internal/store"
)

const defaultMaxOccurrencesPerEvent = 5000

// ExpandConfig controls how parsed events become calendar events.
type ExpandConfig struct {
	// DisplayLocation anchors all-day events and is the zone of the results.
	// Nil means time.Local.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd bound recurring occurrences, inclusive.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps a single RRULE expansion.
	MaxOccurrencesPerEvent int

	// Owner is the participant used when a VEVENT lists no attendees.
	Owner string
}

// ExpandResult holds calendar events in feed order, the UIDs whose
// expansion was truncated, and how many occurrences failed store validation
// (e.g. a VEVENT without SUMMARY).
type ExpandResult struct {
	Events          []model.CalendarEvent
	TruncatedEvents []string
	Skipped         int
}

// Expand turns parsed VEVENTs into calendar events. Non-recurring events
// outside the range are kept (they are seed data, not a query); recurring
// ones are expanded only inside [RangeStart, RangeEnd]. EXDATE removes
// instances and RECURRENCE-ID overrides replace them. Output order follows
// the first appearance of each UID in the input, then occurrence time.
func Expand(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	var order []string
	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)

	for _, ev := range events {
		if _, seen := baseByUID[ev.UID]; !seen {
			if _, seenOv := overridesByUID[ev.UID]; !seenOv {
				order = append(order, ev.UID)
			}
		}
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
		}
	}

	for _, uid := range order {
		ov := overridesByUID[uid]
		for _, ev := range baseByUID[uid] {
			var occ []model.CalendarEvent
			hitCap := false
			if ev.RawRRule == "" {
				occ = []model.CalendarEvent{expandSingle(ev, ov, cfg)}
			} else {
				occ, hitCap = expandRecurring(ev, ov, cfg)
			}
			for _, ce := range occ {
				if err := store.Validate(ce); err != nil {
					result.Skipped++
					appLog.Error("expand: event skipped", err, "uid", uid, "id", ce.ID)
					continue
				}
				result.Events = append(result.Events, ce)
			}

			if hitCap {
				result.TruncatedEvents = append(result.TruncatedEvents, uid)
				appLog.Error("expand: truncated occurrences", errors.New("max occurrences reached"),
					"uid", uid, "cap", cfg.MaxOccurrencesPerEvent)
			}
		}
	}

	return result, nil
}

func expandSingle(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) model.CalendarEvent {
	if o, ok := findOverride(overrides, ev.Start); ok {
		return toCalendarEvent(o, o.Start, o.End, ev.UID, cfg)
	}
	return toCalendarEvent(ev, ev.Start, ev.End, ev.UID, cfg)
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.CalendarEvent, bool) {
	out := make([]model.CalendarEvent, 0)

	// Build from options so BYDAY/BYHOUR defaults derive from DTSTART.
	opt, err := rrule.StrToROption(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: bad RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}
	opt.Dtstart = ev.Start
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		appLog.Error("expand: bad RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	times := set.Between(cfg.RangeStart.In(ev.Start.Location()), cfg.RangeEnd.In(ev.Start.Location()), true)

	hitCap := false
	if len(times) > cfg.MaxOccurrencesPerEvent {
		times = times[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	dur := ev.End.Sub(ev.Start)
	if ev.End.IsZero() || dur < 0 {
		dur = 0
	}

	for _, start := range times {
		id := ev.UID + "@" + start.UTC().Format("20060102T150405Z")
		if o, ok := findOverride(overrides, start); ok {
			out = append(out, toCalendarEvent(o, o.Start, o.End, id, cfg))
			continue
		}
		out = append(out, toCalendarEvent(ev, start, start.Add(dur), id, cfg))
	}

	return out, hitCap
}

// findOverride matches RECURRENCE-ID against an occurrence start by instant.
func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

func toCalendarEvent(ev ParsedEvent, start, end time.Time, id string, cfg ExpandConfig) model.CalendarEvent {
	loc := cfg.DisplayLocation

	if ev.AllDay {
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 1)
	} else {
		start = start.In(loc)
		if end.IsZero() {
			end = start
		}
		end = end.In(loc)
	}

	participants := ev.Attendees
	if len(participants) == 0 && cfg.Owner != "" {
		participants = []string{cfg.Owner}
	}

	if ev.Source.ID != "" {
		id = ev.Source.ID + ":" + id
	}

	return model.CalendarEvent{
		ID:           id,
		Title:        ev.Summary,
		Description:  ev.Description,
		Start:        start,
		End:          end,
		Type:         eventType(ev.Categories),
		Participants: append([]string(nil), participants...),
	}
}

// eventType picks the first category naming a known type; meeting otherwise.
func eventType(categories []string) model.EventType {
	for _, c := range categories {
		if t, ok := model.ParseEventType(c); ok && c != "" {
			return t
		}
	}
	return model.EventTypeMeeting
}
