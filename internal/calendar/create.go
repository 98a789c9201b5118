package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	appLog "crmcal/internal/log"
	"crmcal/internal/model"
)

const (
	DefaultStartTime = "09:00"
	DefaultEndTime   = "10:00"
)

// ErrCanceled is returned by Pending.Wait when the creation was abandoned
// before the event reached the store.
var ErrCanceled = errors.New("calendar: event creation canceled")

// CreateInput is the raw form submission of the creation workflow.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// Date is a calendar date, YYYY-MM-DD.
	Date string `json:"date"`
	// StartTime and EndTime are times of day, HH:MM. Empty means the defaults.
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Type      string `json:"type"`
}

// Adder is the part of the event store the workflow writes to.
type Adder interface {
	Add(actor model.Actor, ev model.CalendarEvent) error
}

// CreatorOptions configures a Creator.
type CreatorOptions struct {
	// Location is where date and time-of-day are combined into instants.
	Location *time.Location
	// Delay is the artificial latency before the event is stored.
	Delay time.Duration
	// StrictTimes rejects end < start instead of accepting it.
	StrictTimes bool
	// NewID generates event IDs; defaults to random UUIDs.
	NewID func() string
}

// Creator turns CreateInput into stored events.
type Creator struct {
	store  Adder
	loc    *time.Location
	delay  time.Duration
	strict bool
	newID  func() string
}

func NewCreator(store Adder, opts CreatorOptions) *Creator {
	c := &Creator{
		store:  store,
		loc:    opts.Location,
		delay:  opts.Delay,
		strict: opts.StrictTimes,
		newID:  opts.NewID,
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.newID == nil {
		c.newID = func() string { return uuid.NewString() }
	}
	return c
}

// Prepare validates in and builds the event that would be stored. Nothing is
// written. The title is checked before any date or time parsing.
func (c *Creator) Prepare(actor model.Actor, in CreateInput) (model.CalendarEvent, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.CalendarEvent{}, model.NewValidationError("title", "is required")
	}
	if strings.TrimSpace(string(actor)) == "" {
		return model.CalendarEvent{}, model.NewValidationError("actor", "is required")
	}

	date := strings.TrimSpace(in.Date)
	if date == "" {
		return model.CalendarEvent{}, model.NewValidationError("date", "is required")
	}
	if _, err := time.ParseInLocation(DayLayout, date, c.loc); err != nil {
		return model.CalendarEvent{}, model.NewValidationError("date", fmt.Sprintf("invalid date %q", date))
	}
	startTime := orDefault(in.StartTime, DefaultStartTime)
	endTime := orDefault(in.EndTime, DefaultEndTime)

	start, err := combine(date, startTime, c.loc)
	if err != nil {
		return model.CalendarEvent{}, model.NewValidationError("start_time", err.Error())
	}
	end, err := combine(date, endTime, c.loc)
	if err != nil {
		return model.CalendarEvent{}, model.NewValidationError("end_time", err.Error())
	}
	if c.strict && end.Before(start) {
		return model.CalendarEvent{}, model.NewValidationError("end_time", "is before start_time")
	}

	typ, ok := model.ParseEventType(in.Type)
	if !ok {
		return model.CalendarEvent{}, model.NewValidationError("type", "must be one of meeting, call, deadline, personal")
	}

	return model.CalendarEvent{
		ID:           c.newID(),
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		Start:        start,
		End:          end,
		Type:         typ,
		Participants: []string{string(actor)},
		CreatedBy:    actor,
	}, nil
}

// Pending is an in-flight creation. The event is stored only if the delay
// elapses before Cancel is called or the submitting context ends.
type Pending struct {
	cancel context.CancelFunc
	done   chan struct{}
	ev     model.CalendarEvent
	err    error
}

// Done is closed once the creation has either been stored or abandoned.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the creation finishes and returns the stored event.
func (p *Pending) Wait() (model.CalendarEvent, error) {
	<-p.done
	return p.ev, p.err
}

// Cancel abandons the creation if it has not been stored yet.
func (p *Pending) Cancel() {
	p.cancel()
}

// Submit validates synchronously, then stores the event after the configured
// delay on a separate goroutine. Validation errors are returned directly and
// no Pending is created.
func (c *Creator) Submit(ctx context.Context, actor model.Actor, in CreateInput) (*Pending, error) {
	ev, err := c.Prepare(actor, in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pending{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(p.done)
		defer cancel()

		if c.delay > 0 {
			timer := time.NewTimer(c.delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				p.err = ErrCanceled
				appLog.Info("create: canceled before store", "id", ev.ID, "actor", string(actor))
				return
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			p.err = ErrCanceled
			return
		}

		if err := c.store.Add(actor, ev); err != nil {
			p.err = err
			return
		}
		p.ev = ev
		appLog.Info("create: event stored", "id", ev.ID, "actor", string(actor), "start", ev.Start.Format(time.RFC3339))
	}()

	return p, nil
}

// Create is Submit followed by Wait.
func (c *Creator) Create(ctx context.Context, actor model.Actor, in CreateInput) (model.CalendarEvent, error) {
	p, err := c.Submit(ctx, actor, in)
	if err != nil {
		return model.CalendarEvent{}, err
	}
	return p.Wait()
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

// combine joins a calendar date and a time of day into an instant in loc.
// Both HH:MM and HH:MM:SS are accepted.
func combine(date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout+" 15:04", date+" "+clock, loc)
	if err == nil {
		return t, nil
	}
	t, err2 := time.ParseInLocation(DayLayout+" 15:04:05", date+" "+clock, loc)
	if err2 == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time of day %q", clock)
}
