package model

import (
	"strings"
	"time"
)

// EventType is the closed set of calendar event kinds. It only controls the
// display color; nothing else branches on it.
type EventType string

const (
	EventTypeMeeting  EventType = "meeting"
	EventTypeCall     EventType = "call"
	EventTypeDeadline EventType = "deadline"
	EventTypePersonal EventType = "personal"
)

// EventTypes lists every valid EventType in display order.
var EventTypes = []EventType{
	EventTypeMeeting,
	EventTypeCall,
	EventTypeDeadline,
	EventTypePersonal,
}

// ParseEventType maps a raw string (case-insensitive) to an EventType.
// An empty string yields the default, meeting.
func ParseEventType(s string) (EventType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return EventTypeMeeting, true
	}
	for _, t := range EventTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Color returns the legend color used by the month view.
func (t EventType) Color() string {
	switch t {
	case EventTypeMeeting:
		return "indigo"
	case EventTypeDeadline:
		return "red"
	default:
		return "emerald"
	}
}

// Actor identifies the user on whose behalf a mutation happens.
type Actor string

// CalendarEvent is a single scheduled item on the calendar.
//
// Events are created through the creation workflow or loaded in bulk from a
// seed source. Once stored they are never edited in place.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Type        EventType `json:"type"`
	// Participants holds user IDs; the creating user is always present.
	Participants []string `json:"participants"`

	// CreatedBy is the actor that added the event to the store.
	CreatedBy Actor `json:"created_by,omitempty"`
}
