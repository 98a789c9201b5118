// Package seed provides the demo events the dashboard starts with.
package seed

import (
	"time"

	"crmcal/internal/model"
)

// Demo users referenced by the mock events.
const (
	UserAlex   = "u1"
	UserSarah  = "u2"
	UserJordan = "u3"
)

// MockEvents returns the demo calendar relative to now: a strategy meeting
// today, a client demo call tomorrow and a deadline a week out.
func MockEvents(now time.Time) []model.CalendarEvent {
	now = now.Truncate(time.Minute)
	tomorrow := now.AddDate(0, 0, 1)
	nextWeek := now.AddDate(0, 0, 7)

	return []model.CalendarEvent{
		{
			ID:           "e1",
			Title:        "Q4 Strategy Meeting",
			Description:  "Discussing Q4 targets and roadmap.",
			Start:        now,
			End:          now.Add(time.Hour),
			Type:         model.EventTypeMeeting,
			Participants: []string{UserAlex, UserSarah, UserJordan},
		},
		{
			ID:           "e2",
			Title:        "Client Demo: Acme Corp",
			Description:  "Showcasing the new dashboard features.",
			Start:        tomorrow,
			End:          tomorrow.Add(time.Hour),
			Type:         model.EventTypeCall,
			Participants: []string{UserAlex, UserSarah},
		},
		{
			ID:           "e3",
			Title:        "Project Deadline",
			Start:        nextWeek,
			End:          nextWeek,
			Type:         model.EventTypeDeadline,
			Participants: []string{UserAlex},
		},
	}
}
