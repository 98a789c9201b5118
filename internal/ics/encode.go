package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"crmcal/internal/model"
)

const productID = "-//crmcal//calendar export//EN"

// Encode renders events as an iCalendar document. The event type is written
// as CATEGORIES and participants as ATTENDEE so ParseICS can read it back.
func Encode(events []model.CalendarEvent, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, ev := range events {
		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		ve.AddProperty(ical.ComponentPropertyCategories, string(ev.Type))
		for _, p := range ev.Participants {
			ve.AddAttendee(p)
		}
	}

	return cal.Serialize()
}
