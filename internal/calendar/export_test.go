package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"campus-events/models"

	ical "github.com/arran4/golang-ical"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stamp = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func sampleEvents() []models.Event {
	return []models.Event{
		{ID: "ev-jazz", Title: "Jazz Night", Description: "Live jazz", Location: "Strathmore University",
			StartTime: "2026-10-17T19:00", EndTime: "2026-10-17T22:00", TicketPrice: decimal.NewFromInt(500),
			OpenTo: "everyone", CreatedBy: "events@strathmore.edu", CreatedAt: "2026-10-15T11:10:00.000000"},
		{ID: "ev-hike", Title: "Ngong Hills Hike", University: "Outdoors club",
			StartTime: "2026-10-23T06:00", IsFree: true},
		{ID: "ev-tba", Title: "Date to be announced"},
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleEvents(), Options{Now: func() time.Time { return stamp }}))

	cal, err := ical.ParseCalendar(strings.NewReader(buf.String()))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2, "events without a start time are skipped")

	jazz := events[0]
	assert.Equal(t, "ev-jazz@campus-events", jazz.Id())
	assert.Equal(t, "Jazz Night", jazz.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "Strathmore University", jazz.GetProperty(ical.ComponentPropertyLocation).Value)

	start, err := jazz.GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC)))
	end, err := jazz.GetEndAt()
	require.NoError(t, err)
	assert.True(t, end.Equal(time.Date(2026, 10, 17, 22, 0, 0, 0, time.UTC)))
}

func TestBuild_DefaultsEndAndPlace(t *testing.T) {
	cal := Build(sampleEvents()[1:2], Options{Now: func() time.Time { return stamp }})

	require.Len(t, cal.Events(), 1)
	hike := cal.Events()[0]
	start, err := hike.GetStartAt()
	require.NoError(t, err)
	end, err := hike.GetEndAt()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, end.Sub(start))
	assert.Equal(t, "Outdoors club", hike.GetProperty(ical.ComponentPropertyLocation).Value)
}

func TestDescribe(t *testing.T) {
	events := sampleEvents()
	assert.Equal(t, "Live jazz\nEntry: KES 500\nOpen to: everyone", describe(events[0], "KES"))
	assert.Equal(t, "Entry: free", describe(events[1], "KES"))
}

func TestWrite_CalendarName(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, Options{Name: "My reservations"}))

	out := buf.String()
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "X-WR-CALNAME:My reservations")
	assert.Contains(t, out, "PRODID:-//campus-events//EN")
}
