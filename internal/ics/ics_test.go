package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmcal/internal/model"
)

const sampleFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//feed//EN
BEGIN:VEVENT
UID:demo-1
DTSTAMP:20240301T000000Z
SUMMARY:Client Demo
DESCRIPTION:Showcase the dashboard
DTSTART:20240315T090000Z
DTEND:20240315T100000Z
CATEGORIES:call
ATTENDEE:mailto:u1
ATTENDEE:mailto:u2
END:VEVENT
BEGIN:VEVENT
UID:standup
DTSTAMP:20240301T000000Z
SUMMARY:Standup
DTSTART:20240304T083000Z
DTEND:20240304T084500Z
RRULE:FREQ=WEEKLY;COUNT=4
EXDATE:20240311T083000Z
END:VEVENT
BEGIN:VEVENT
UID:standup
DTSTAMP:20240301T000000Z
RECURRENCE-ID:20240318T083000Z
SUMMARY:Standup (moved)
DTSTART:20240318T100000Z
DTEND:20240318T101500Z
END:VEVENT
BEGIN:VEVENT
UID:offsite
DTSTAMP:20240301T000000Z
SUMMARY:Offsite
DTSTART;VALUE=DATE:20240320
CATEGORIES:Personal
END:VEVENT
BEGIN:VEVENT
DTSTAMP:20240301T000000Z
SUMMARY:No UID
DTSTART:20240301T000000Z
END:VEVENT
END:VCALENDAR
`

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func marchConfig() ExpandConfig {
	return ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC),
		Owner:           "u1",
	}
}

func TestParseICS(t *testing.T) {
	t.Parallel()

	events, err := ParseICS(Source{ID: "team"}, crlf(sampleFeed))
	require.NoError(t, err)
	require.Len(t, events, 4, "the VEVENT without UID is skipped")

	demo := events[0]
	assert.Equal(t, "demo-1", demo.UID)
	assert.Equal(t, "Client Demo", demo.Summary)
	assert.Equal(t, []string{"call"}, demo.Categories)
	assert.Equal(t, []string{"u1", "u2"}, demo.Attendees)
	assert.True(t, time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC).Equal(demo.Start))

	standup := events[1]
	assert.Equal(t, "FREQ=WEEKLY;COUNT=4", standup.RawRRule)
	require.Len(t, standup.ExDates, 1)

	assert.True(t, events[2].IsOverride)
	assert.True(t, events[3].AllDay)
}

func TestParseICSRejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := ParseICS(Source{ID: "x"}, nil)
	require.Error(t, err)
}

func TestExpand(t *testing.T) {
	t.Parallel()

	parsed, err := ParseICS(Source{ID: "team"}, crlf(sampleFeed))
	require.NoError(t, err)

	res, err := Expand(parsed, marchConfig())
	require.NoError(t, err)
	require.Len(t, res.Events, 5)
	assert.Empty(t, res.TruncatedEvents)

	titles := make([]string, len(res.Events))
	for i, ev := range res.Events {
		titles[i] = ev.Title
	}
	assert.Equal(t, []string{"Client Demo", "Standup", "Standup (moved)", "Standup", "Offsite"}, titles)

	demo := res.Events[0]
	assert.Equal(t, "team:demo-1", demo.ID)
	assert.Equal(t, model.EventTypeCall, demo.Type)
	assert.Equal(t, []string{"u1", "u2"}, demo.Participants)

	assert.Equal(t, 4, res.Events[1].Start.Day())
	assert.Equal(t, 15*time.Minute, res.Events[1].End.Sub(res.Events[1].Start))
	assert.Equal(t, []string{"u1"}, res.Events[1].Participants)
	assert.Equal(t, "team:standup@20240304T083000Z", res.Events[1].ID)
	assert.Equal(t, 10, res.Events[2].Start.Hour())
	assert.Equal(t, 25, res.Events[3].Start.Day())

	offsite := res.Events[4]
	assert.Equal(t, model.EventTypePersonal, offsite.Type)
	assert.Equal(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), offsite.Start)
	assert.Equal(t, time.Date(2024, 3, 21, 0, 0, 0, 0, time.UTC), offsite.End)
}

const zonedFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//zoned//EN
BEGIN:VEVENT
UID:standup
DTSTAMP:20240301T000000Z
SUMMARY:Standup
DTSTART;TZID=America/New_York:20240311T090000
DTEND;TZID=America/New_York:20240311T091500
RRULE:FREQ=DAILY;COUNT=4
EXDATE;TZID=America/New_York:20240312T090000
END:VEVENT
BEGIN:VEVENT
UID:standup
DTSTAMP:20240301T000000Z
RECURRENCE-ID;TZID=America/New_York:20240313T090000
SUMMARY:Standup (late)
DTSTART;TZID=America/New_York:20240313T110000
DTEND;TZID=America/New_York:20240313T111500
END:VEVENT
BEGIN:VEVENT
UID:blank
DTSTAMP:20240301T000000Z
DTSTART:20240315T090000Z
DTEND:20240315T100000Z
END:VEVENT
END:VCALENDAR
`

func TestExpandHonorsZonedExdateAndOverride(t *testing.T) {
	t.Parallel()

	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	parsed, err := ParseICS(Source{ID: "p"}, crlf(zonedFeed))
	require.NoError(t, err)
	require.Len(t, parsed, 3)
	require.Len(t, parsed[0].ExDates, 1)
	assert.True(t, time.Date(2024, 3, 12, 9, 0, 0, 0, newYork).Equal(parsed[0].ExDates[0]))
	require.NotNil(t, parsed[1].Recurrence)
	assert.True(t, time.Date(2024, 3, 13, 9, 0, 0, 0, newYork).Equal(*parsed[1].Recurrence))

	res, err := Expand(parsed, marchConfig())
	require.NoError(t, err)

	ids := make([]string, len(res.Events))
	titles := make([]string, len(res.Events))
	for i, ev := range res.Events {
		ids[i] = ev.ID
		titles[i] = ev.Title
	}
	// DST starts 2024-03-10 in New York, so 09:00 local is 13:00Z.
	assert.Equal(t, []string{
		"p:standup@20240311T130000Z",
		"p:standup@20240313T130000Z",
		"p:standup@20240314T130000Z",
	}, ids)
	assert.Equal(t, []string{"Standup", "Standup (late)", "Standup"}, titles)
}

func TestExpandSkipsEventsWithoutTitle(t *testing.T) {
	t.Parallel()

	parsed, err := ParseICS(Source{ID: "p"}, crlf(zonedFeed))
	require.NoError(t, err)

	res, err := Expand(parsed, marchConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	for _, ev := range res.Events {
		assert.NotEqual(t, "p:blank", ev.ID)
		assert.NotEmpty(t, ev.Title)
	}
}

func TestExpandCap(t *testing.T) {
	t.Parallel()

	ev := ParsedEvent{
		UID:      "daily",
		Summary:  "Daily",
		Start:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		RawRRule: "FREQ=DAILY",
	}
	cfg := marchConfig()
	cfg.MaxOccurrencesPerEvent = 3

	res, err := Expand([]ParsedEvent{ev}, cfg)
	require.NoError(t, err)
	assert.Len(t, res.Events, 3)
	assert.Equal(t, []string{"daily"}, res.TruncatedEvents)
}

func TestExpandRejectsInvertedRange(t *testing.T) {
	t.Parallel()

	cfg := marchConfig()
	cfg.RangeStart, cfg.RangeEnd = cfg.RangeEnd, cfg.RangeStart
	_, err := Expand(nil, cfg)
	require.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	events := []model.CalendarEvent{{
		ID:           "e1",
		Title:        "Q4 Strategy Meeting",
		Description:  "Discussing Q4 targets",
		Start:        time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Type:         model.EventTypeDeadline,
		Participants: []string{"u1", "u3"},
	}}

	doc := Encode(events, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Contains(t, doc, "BEGIN:VCALENDAR")
	assert.Contains(t, doc, productID)

	parsed, err := ParseICS(Source{}, []byte(doc))
	require.NoError(t, err)
	require.Len(t, parsed, 1)

	res, err := Expand(parsed, marchConfig())
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	got := res.Events[0]
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, "Q4 Strategy Meeting", got.Title)
	assert.Equal(t, model.EventTypeDeadline, got.Type)
	assert.Equal(t, []string{"u1", "u3"}, got.Participants)
	assert.True(t, events[0].Start.Equal(got.Start))
	assert.True(t, events[0].End.Equal(got.End))
}

func TestFetchLocalFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.ics")
	require.NoError(t, os.WriteFile(path, crlf(sampleFeed), 0o600))

	f := NewFetcher(t.TempDir(), nil)
	res, err := f.FetchOne(context.Background(), Source{ID: "local", URL: path})
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.NotEmpty(t, res.Body)

	_, err = f.FetchOne(context.Background(), Source{ID: "missing", URL: filepath.Join(t.TempDir(), "nope.ics")})
	require.ErrorIs(t, err, model.ErrStore)

	_, err = f.FetchOne(context.Background(), Source{ID: "blank"})
	require.ErrorIs(t, err, model.ErrStore)
}

func TestFetchRemoteUsesConditionalCache(t *testing.T) {
	t.Parallel()

	var hits, notModified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write(crlf(sampleFeed))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	src := Source{ID: "remote", URL: srv.URL + "/private/feed.ics?token=secret"}

	first, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Body, second.Body)

	assert.EqualValues(t, 2, hits.Load())
	assert.EqualValues(t, 1, notModified.Load())
}

func TestFetchRemoteFallsBackToCache(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write(crlf(sampleFeed))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	src := Source{ID: "remote", URL: srv.URL + "/feed.ics"}

	_, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)

	fail.Store(true)
	res, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, res.FromCache)

	other := Source{ID: "uncached", URL: srv.URL + "/other.ics"}
	_, err = f.FetchOne(context.Background(), other)
	require.ErrorIs(t, err, model.ErrStore)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.ics")
	require.NoError(t, os.WriteFile(path, crlf(sampleFeed), 0o600))

	sources := []Source{
		{ID: "team", URL: path},
		{ID: "gone", URL: filepath.Join(t.TempDir(), "gone.ics")},
	}
	events, err := Load(context.Background(), NewFetcher(t.TempDir(), nil), sources, marchConfig())
	require.ErrorIs(t, err, model.ErrStore)
	assert.Len(t, events, 5)
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/cal/private.ics?token=abc"))
	assert.Equal(t, "/etc/seed.ics", redactURL("/etc/seed.ics"))
}
