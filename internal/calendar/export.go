package calendar

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"campus-events/models"

	ical "github.com/arran4/golang-ical"
)

const (
	DefaultName      = "Campus events"
	DefaultProductID = "-//campus-events//EN"
	defaultDuration  = time.Hour
)

type Options struct {
	Name      string
	ProductID string
	Currency  string
	Now       func() time.Time
}

// Build turns events into a VCALENDAR. Events without a readable start
// time are skipped; a missing or earlier end becomes start plus one hour.
func Build(events []models.Event, opts Options) *ical.Calendar {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.ProductID == "" {
		opts.ProductID = DefaultProductID
	}
	if opts.Currency == "" {
		opts.Currency = "KES"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	stamp := opts.Now().UTC()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(opts.ProductID)
	cal.SetXWRCalName(opts.Name)

	for _, ev := range events {
		start, ok := ev.StartAt()
		if !ok {
			slog.Debug("Skipping event without start time", "event_id", ev.ID)
			continue
		}
		end, ok := ev.EndAt()
		if !ok || end.Before(start) {
			end = start.Add(defaultDuration)
		}

		ve := cal.AddEvent(ev.ID + "@campus-events")
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(start)
		ve.SetEndAt(end)
		ve.SetSummary(ev.Title)
		ve.SetLocation(ev.Place())
		ve.SetDescription(describe(ev, opts.Currency))
		if created, ok := models.ParseTime(ev.CreatedAt); ok {
			ve.SetCreatedTime(created)
		}
		if ev.CreatedBy != "" {
			ve.SetOrganizer("mailto:" + ev.CreatedBy)
		}
	}
	return cal
}

// Write serializes the calendar for events to w.
func Write(w io.Writer, events []models.Event, opts Options) error {
	_, err := io.WriteString(w, Build(events, opts).Serialize())
	return err
}

func describe(ev models.Event, currency string) string {
	var lines []string
	if ev.Description != "" {
		lines = append(lines, ev.Description)
	}
	if ev.IsFree || !ev.TicketPrice.IsPositive() {
		lines = append(lines, "Entry: free")
	} else {
		lines = append(lines, fmt.Sprintf("Entry: %s %s", currency, ev.TicketPrice.String()))
	}
	if ev.OpenTo != "" {
		lines = append(lines, "Open to: "+ev.OpenTo)
	}
	return strings.Join(lines, "\n")
}
