package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campus-events/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newServer(user *models.SessionIdentity) *Server {
	return New(Options{
		User:         user,
		Universities: SeedUniversities(),
		Events:       SeedEvents(now),
		Now:          func() time.Time { return now },
	})
}

func amina() *models.SessionIdentity {
	return &models.SessionIdentity{Email: "amina@strathmore.edu", Name: "Amina", University: "Strathmore University"}
}

func do(t *testing.T, s *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestSession_SignedOut(t *testing.T) {
	rec, body := do(t, newServer(nil), http.MethodGet, "/auth/session", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "user")
	assert.Nil(t, body["user"])
}

func TestNearestWithEvents_Validation(t *testing.T) {
	s := newServer(amina())

	rec, body := do(t, s, http.MethodGet, "/api/universities/nearest_with_events?lat=-1.3", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing lat/lng parameters", body["error"])

	rec, body = do(t, s, http.MethodGet, "/api/universities/nearest_with_events?lat=abc&lng=36.8", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid lat/lng format", body["error"])
}

func TestNearestWithEvents_OrdersByDistance(t *testing.T) {
	s := newServer(amina())
	groups := s.store.nearestWithEvents(-1.3100, 36.8125, 10)

	require.Len(t, groups, maxNearbyCampuses)
	assert.Equal(t, "Strathmore University", groups[0].University.Name)
	assert.Equal(t, "University of Nairobi", groups[1].University.Name)
	assert.Len(t, groups[0].Events, 2)
	require.Len(t, groups[1].Events, 1)
	assert.Equal(t, "ev-career", groups[1].Events[0].ID)
	assert.InDelta(t, 3.4, groups[1].University.DistanceKm, 0.2)
}

func TestCampusKeywords(t *testing.T) {
	assert.Equal(t, []string{"university of nairobi", "nairobi"}, campusKeywords("University of Nairobi"))
	assert.Equal(t, []string{"strathmore university", "strathmore"}, campusKeywords("Strathmore University"))
	assert.Equal(t, []string{"usiu-africa"}, campusKeywords("USIU-Africa"))
}

func TestServiceFee(t *testing.T) {
	assert.True(t, serviceFee(decimal.NewFromInt(1000), false).IsZero())
	assert.Equal(t, "50", serviceFee(decimal.Zero, true).String())
	assert.Equal(t, "50", serviceFee(decimal.NewFromInt(300), true).String())
	assert.Equal(t, "125", serviceFee(decimal.NewFromInt(1250), true).String())
}

func TestEvents_CustomFilterAndLatest(t *testing.T) {
	s := newServer(amina())
	req := httptest.NewRequest(http.MethodGet, "/api/events?is_custom=true&sort=latest&limit=16", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var events []models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, "ev-hike", events[0].ID)
	assert.Equal(t, "ev-rooftop", events[1].ID)
}

func TestReserve(t *testing.T) {
	s := newServer(amina())

	rec, _ := do(t, s, http.MethodPost, "/api/events/ev-jazz/reserve", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := do(t, s, http.MethodPost, "/api/events/missing/reserve", `{"email":"amina@strathmore.edu"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Event not found", body["error"])

	rec, body = do(t, s, http.MethodPost, "/api/events/ev-jazz/reserve", `{"email":"amina@strathmore.edu"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Reservation successful!", body["message"])

	_, body = do(t, s, http.MethodPost, "/api/events/ev-jazz/reserve", `{"email":"amina@strathmore.edu"}`)
	assert.Equal(t, "Already reserved this event.", body["message"])

	_, body = do(t, s, http.MethodGet, "/api/user/optins", "")
	assert.Equal(t, []any{"ev-jazz"}, body["events"])
}

func TestCancelOptIn(t *testing.T) {
	s := newServer(amina())

	rec, body := do(t, s, http.MethodDelete, "/api/user/optins/ev-jazz", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Reservation not found", body["error"])

	do(t, s, http.MethodPost, "/api/events/ev-jazz/reserve", `{"email":"amina@strathmore.edu"}`)
	rec, _ = do(t, s, http.MethodDelete, "/api/user/optins/ev-jazz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.store.optInIDs("amina@strathmore.edu"))

	rec, _ = do(t, newServer(nil), http.MethodGet, "/api/user/optins", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndDeleteEvent(t *testing.T) {
	s := newServer(amina())

	rec, body := do(t, s, http.MethodPost, "/api/events/create", `{"description":"no title"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Title is required", body["error"])

	rec, body = do(t, s, http.MethodPost, "/api/events/create",
		`{"title":"Rooftop Poetry","campus":"Kilimani Rooftop","start_time":"2026-10-18T19:00","ticket_price":1000,"is_free":false,"is_custom_location":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	ev := body["event"].(map[string]any)
	assert.Equal(t, "Kilimani Rooftop", ev["location"])
	assert.Equal(t, "everyone", ev["open_to"])
	assert.Equal(t, float64(100), ev["service_fee"])
	assert.Equal(t, "amina@strathmore.edu", ev["created_by"])
	id := ev["_id"].(string)

	rec, body = do(t, s, http.MethodDelete, "/api/events/ev-jazz", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You can only delete your own events", body["error"])

	rec, _ = do(t, s, http.MethodDelete, "/api/events/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	_, found := s.store.findEvent(id)
	assert.False(t, found)
}

func TestRateLimit(t *testing.T) {
	s := New(Options{Universities: SeedUniversities(), RateLimit: 0.001, Burst: 1})

	rec, _ := do(t, s, http.MethodGet, "/api/universities?search=moi", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, body := do(t, s, http.MethodGet, "/api/universities?search=moi", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, body["message"])
}
