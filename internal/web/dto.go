package web

import (
	"time"

	"crmcal/internal/calendar"
	"crmcal/internal/model"
)

// monthDTO is the JSON shape of a month grid.
type monthDTO struct {
	MonthLabel string    `json:"month_label"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Weekdays   []string  `json:"weekdays"`
	Cells      []cellDTO `json:"cells"`
}

type cellDTO struct {
	Padding bool       `json:"padding"`
	Day     int        `json:"day,omitempty"`
	Date    string     `json:"date,omitempty"`
	IsToday bool       `json:"is_today,omitempty"`
	Events  []eventDTO `json:"events,omitempty"`
}

type eventDTO struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Type         string    `json:"type"`
	Color        string    `json:"color"`
	TimeLabel    string    `json:"time_label"`
	Participants []string  `json:"participants"`
	CreatedBy    string    `json:"created_by,omitempty"`
}

func toMonthDTO(v calendar.MonthView) monthDTO {
	out := monthDTO{
		MonthLabel: v.MonthLabel,
		Year:       v.Year,
		Month:      int(v.Month),
		Weekdays:   v.Weekdays,
		Cells:      make([]cellDTO, 0, len(v.Cells)),
	}
	for _, c := range v.Cells {
		if c.Padding {
			out.Cells = append(out.Cells, cellDTO{Padding: true})
			continue
		}
		cell := cellDTO{
			Day:     c.Day,
			Date:    c.Date.Format(calendar.DayLayout),
			IsToday: c.IsToday,
		}
		for _, ev := range c.Events {
			cell.Events = append(cell.Events, toEventDTO(ev, c.Date.Location()))
		}
		out.Cells = append(out.Cells, cell)
	}
	return out
}

func toEventDTO(ev model.CalendarEvent, loc *time.Location) eventDTO {
	participants := ev.Participants
	if participants == nil {
		participants = []string{}
	}
	return eventDTO{
		ID:           ev.ID,
		Title:        ev.Title,
		Description:  ev.Description,
		Start:        ev.Start,
		End:          ev.End,
		Type:         string(ev.Type),
		Color:        ev.Type.Color(),
		TimeLabel:    ev.Start.In(loc).Format("15:04"),
		Participants: participants,
		CreatedBy:    string(ev.CreatedBy),
	}
}
