package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend reads prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type Event struct {
	ID               string          `json:"_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Location         string          `json:"location"`
	University       string          `json:"university,omitempty"` // set locally from the nearby group
	OpenTo           string          `json:"open_to,omitempty"`
	StartTime        string          `json:"start_time,omitempty"`
	EndTime          string          `json:"end_time,omitempty"`
	TicketPrice      decimal.Decimal `json:"ticket_price"`
	IsFree           bool            `json:"is_free"`
	IsCustomLocation bool            `json:"is_custom_location"`
	ServiceFee       decimal.Decimal `json:"service_fee"`
	TicketsSold      *int            `json:"tickets_sold,omitempty"`
	ImageURL         string          `json:"image_url,omitempty"`
	CreatedBy        string          `json:"created_by,omitempty"`
	CreatedAt        string          `json:"created_at,omitempty"`
	Reserved         bool            `json:"reserved,omitempty"`
}

// timeLayouts covers what the backend emits: RFC3339, naive isoformat with
// or without fractional seconds, and datetime-local form values.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTime parses a backend timestamp. Naive values are read as UTC.
func ParseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (e *Event) StartAt() (time.Time, bool) { return ParseTime(e.StartTime) }

func (e *Event) EndAt() (time.Time, bool) { return ParseTime(e.EndTime) }

// Place is the location shown on a card: the event location, then the
// originating campus.
func (e *Event) Place() string {
	if e.Location != "" {
		return e.Location
	}
	if e.University != "" {
		return e.University
	}
	return "Location TBA"
}

// ShowsCount reports whether the backend sent a reservation counter for
// the event.
func (e *Event) ShowsCount() bool {
	return e.TicketsSold != nil
}

// Haystack is the lower-cased text searched by the feed filter.
func (e *Event) Haystack() string {
	return strings.ToLower(e.Title + " " + e.Description + " " + e.Location)
}
