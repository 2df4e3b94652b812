package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_DecodesBackendPayload(t *testing.T) {
	payload := `{
		"_id": "ev-jazz",
		"title": "Jazz Night",
		"location": "Strathmore University",
		"start_time": "2026-10-17T19:00",
		"ticket_price": 500.5,
		"is_free": false,
		"is_custom_location": true,
		"service_fee": 50,
		"tickets_sold": 12,
		"created_at": "2026-10-15T11:10:00.123456"
	}`

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(payload), &ev))

	assert.Equal(t, "ev-jazz", ev.ID)
	assert.True(t, ev.TicketPrice.Equal(decimal.RequireFromString("500.5")))
	assert.True(t, ev.ServiceFee.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, ev.TicketsSold)
	assert.Equal(t, 12, *ev.TicketsSold)
	assert.True(t, ev.ShowsCount())
}

func TestEvent_EncodesPricesAsNumbers(t *testing.T) {
	data, err := json.Marshal(Event{ID: "ev-1", TicketPrice: decimal.NewFromInt(300), ServiceFee: decimal.Zero})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"ticket_price":300`)
	assert.Contains(t, string(data), `"service_fee":0`)
	assert.NotContains(t, string(data), "tickets_sold")
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2026-10-17T19:00", time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC), true},
		{"2026-10-15T11:10:00", time.Date(2026, 10, 15, 11, 10, 0, 0, time.UTC), true},
		{"2026-10-15T11:10:00.123456", time.Date(2026, 10, 15, 11, 10, 0, 123456000, time.UTC), true},
		{"2026-10-17T19:00:00+03:00", time.Date(2026, 10, 17, 16, 0, 0, 0, time.UTC), true},
		{"  ", time.Time{}, false},
		{"next friday", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseTime(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.True(t, tt.want.Equal(got), "%s parsed as %s", tt.in, got)
		}
	}
}

func TestEvent_Place(t *testing.T) {
	assert.Equal(t, "Ngong Hills", (&Event{Location: "Ngong Hills", University: "Strathmore University"}).Place())
	assert.Equal(t, "Strathmore University", (&Event{University: "Strathmore University"}).Place())
	assert.Equal(t, "Location TBA", (&Event{}).Place())
}

func TestEvent_Haystack(t *testing.T) {
	ev := Event{Title: "Jazz Night", Description: "Live MUSIC", Location: "Quad"}
	assert.Equal(t, "jazz night live music quad", ev.Haystack())
}

func TestSessionIdentity_HasHome(t *testing.T) {
	lat, lng := -1.31, 36.8125

	var nilIdentity *SessionIdentity
	assert.False(t, nilIdentity.HasHome())
	assert.False(t, (&SessionIdentity{Email: "a@b.c", Latitude: &lat}).HasHome())
	assert.True(t, (&SessionIdentity{Email: "a@b.c", Latitude: &lat, Longitude: &lng}).HasHome())
}

func TestSessionIdentity_NullCoordinates(t *testing.T) {
	var s SessionIdentity
	require.NoError(t, json.Unmarshal([]byte(`{"email":"a@b.c","latitude":null,"longitude":null}`), &s))
	assert.False(t, s.HasHome())
}

func BenchmarkEvent_JSONMarshal(b *testing.B) {
	ev := Event{ID: "ev-1", Title: "Jazz Night", TicketPrice: decimal.NewFromInt(500)}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		json.Marshal(ev)
	}
}
