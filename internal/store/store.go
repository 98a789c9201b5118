// Package store holds the in-memory event collection for a session.
package store

import (
	"strings"
	"sync"

	appLog "crmcal/internal/log"
	"crmcal/internal/model"
)

// EventStore is an ordered, append-only collection of calendar events.
// Insertion order is preserved and is the order the grid shows within a day.
type EventStore struct {
	mu     sync.RWMutex
	events []model.CalendarEvent
}

func New() *EventStore {
	return &EventStore{}
}

// All returns a copy of the collection in insertion order.
func (s *EventStore) All() []model.CalendarEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CalendarEvent, len(s.events))
	for i, ev := range s.events {
		ev.Participants = append([]string(nil), ev.Participants...)
		out[i] = ev
	}
	return out
}

// Len reports the number of stored events.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Add appends ev on behalf of actor. The event is rejected with a
// *model.ValidationError when its title is blank or either instant is unset.
// end < start is accepted as-is.
func (s *EventStore) Add(actor model.Actor, ev model.CalendarEvent) error {
	if err := Validate(ev); err != nil {
		return err
	}
	if ev.CreatedBy == "" {
		ev.CreatedBy = actor
	}
	ev.Participants = append([]string(nil), ev.Participants...)

	s.mu.Lock()
	s.events = append(s.events, ev)
	n := len(s.events)
	s.mu.Unlock()

	appLog.Debug("store: event added", "id", ev.ID, "actor", string(actor), "count", n)
	return nil
}

// Replace swaps the whole collection, typically with seed data at startup.
// Events failing Validate are dropped and logged; the number stored is
// returned.
func (s *EventStore) Replace(events []model.CalendarEvent) int {
	next := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if err := Validate(ev); err != nil {
			appLog.Error("store: seed event rejected", err, "id", ev.ID)
			continue
		}
		ev.Participants = append([]string(nil), ev.Participants...)
		next = append(next, ev)
	}

	s.mu.Lock()
	s.events = next
	s.mu.Unlock()

	appLog.Info("store: events replaced", "count", len(next), "rejected", len(events)-len(next))
	return len(next)
}

// Validate checks the fields the store itself requires.
func Validate(ev model.CalendarEvent) error {
	if strings.TrimSpace(ev.Title) == "" {
		return model.NewValidationError("title", "is required")
	}
	if ev.Start.IsZero() {
		return model.NewValidationError("start", "is not a valid instant")
	}
	if ev.End.IsZero() {
		return model.NewValidationError("end", "is not a valid instant")
	}
	return nil
}
