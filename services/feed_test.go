package services

import (
	"context"
	"errors"
	"testing"

	"campus-events/internal/mockapi"
	"campus-events/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleEvents() []models.Event {
	jazz := event("1", "Jazz Night", "Strathmore University")
	jazz.Description = "Live music on the quad"
	hack := event("2", "Campus Hackathon", "Strathmore University")
	hack.Description = "48 hours of building"
	fair := event("3", "Career Fair", "University of Nairobi")
	fair.Description = "Meet employers"
	return []models.Event{jazz, hack, fair}
}

func TestFilter_EmptyQueryReturnsAllInOrder(t *testing.T) {
	all := sampleEvents()

	got := Filter(all, "")

	assert.Equal(t, all, got)
	assert.Equal(t, all, Filter(all, "   "))
}

func TestFilter_CaseInsensitiveMatch(t *testing.T) {
	events := []models.Event{event("1", "Jazz Night", "")}

	assert.Len(t, Filter(events, "jazz"), 1)
	assert.Len(t, Filter(events, "JAZZ night"), 1)
	assert.Empty(t, Filter(events, "xyz"))
}

func TestFilter_AllTokensMustMatch(t *testing.T) {
	all := sampleEvents()

	got := Filter(all, "strathmore music")

	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	assert.Len(t, Filter(all, "strathmore"), 2, "location is searched")
	assert.Len(t, Filter(all, "employers"), 1, "description is searched")
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	all := sampleEvents()
	before := append([]models.Event(nil), all...)

	Filter(all, "career")

	assert.Equal(t, before, all)
}

func TestFeedState_FallbackDroppedAfterNewerLoad(t *testing.T) {
	state := NewFeedState()
	gen := state.Generation()

	state.SetEvents(sampleEvents(), "Latest")
	applied := state.SetEventsIf(gen, []models.Event{event("9", "Stale", "")}, "Latest")

	assert.False(t, applied)
	assert.Len(t, state.Events(), 3)
}

func TestFeedState_PrependKeepsGeneration(t *testing.T) {
	state := NewFeedState()
	gen := state.SetEvents(sampleEvents(), "Strathmore University")

	events := state.PrependEvent(event("new", "New", "Strathmore University"))

	assert.Equal(t, "new", events[0].ID)
	assert.Equal(t, gen, state.Generation())
}

func TestFeedState_MainFeedExcludesCustom(t *testing.T) {
	state := NewFeedState()
	rooftop := event("roof", "Rooftop", "Kilimani")
	rooftop.IsCustomLocation = true

	state.SetEvents(append(sampleEvents(), rooftop), "Latest")
	assert.Len(t, state.Events(), 3)

	events := state.PrependEvent(rooftop)
	assert.Len(t, events, 3)
	_, found := state.Find("roof")
	assert.False(t, found)

	state.SetCustomEvents([]models.Event{rooftop})
	assert.Len(t, state.CustomEvents(), 1)
}

func TestFeedState_PrependCustomCapsDisplay(t *testing.T) {
	state := NewFeedState()
	var custom []models.Event
	for i := 0; i < 16; i++ {
		custom = append(custom, event(string(rune('a'+i)), "c", "x"))
	}
	state.SetCustomEvents(custom)

	shown := state.PrependCustom(event("top", "Top", "Rooftop"), 16)

	assert.Len(t, shown, 16)
	assert.Equal(t, "top", shown[0].ID)
	assert.Len(t, state.CustomEvents(), 17)
}

func TestFeedState_UpdateEventTouchesBothSections(t *testing.T) {
	state := NewFeedState()
	ev := event("1", "Jazz", "x")
	ev.TicketsSold = intPtr(3)
	state.SetEvents([]models.Event{ev}, "")

	found := state.UpdateEvent("1", func(e *models.Event) { e.Reserved = true })

	assert.True(t, found)
	got, ok := state.Find("1")
	require.True(t, ok)
	assert.True(t, got.Reserved)
	assert.False(t, state.UpdateEvent("missing", func(*models.Event) {}))
}

func TestSearchMessage(t *testing.T) {
	assert.Equal(t, `Results for "jazz" in Strathmore University.`, SearchMessage("jazz", "Strathmore University", 2))
	assert.Equal(t, `No matches for "xyz" in these events.`, SearchMessage("xyz", "", 0))
	assert.Equal(t, "Showing latest events in A, B.", ShowingLatestMessage("A, B"))
	assert.Equal(t, "", ShowingMessage(""))
}

func TestFeedService_LoadNearbyTagsCampus(t *testing.T) {
	client := newTestBackend(t, mockapi.Options{})
	svc := NewFeedService(client, nil, nil)

	events, label, err := svc.LoadNearby(context.Background(), -1.3100, 36.8125, 3)

	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, "Strathmore University, University of Nairobi, USIU-Africa", label)
	assert.Equal(t, "Strathmore University", events[0].University)
	for _, ev := range events {
		assert.NotEmpty(t, ev.University)
	}
}

func TestFeedService_LoadNearbyEmpty(t *testing.T) {
	client := newTestBackend(t, mockapi.Options{Universities: []models.University{}})
	svc := NewFeedService(client, nil, nil)

	events, label, err := svc.LoadNearby(context.Background(), -1.3, 36.8, 3)

	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Empty(t, label)
}

func TestFeedService_LoadCustomSwallowsFailures(t *testing.T) {
	backend := new(mockBackend)
	backend.On("Events", mock.Anything, mock.MatchedBy(isCustomQuery)).Return(nil, errors.New("boom"))
	svc := NewFeedService(backend, nil, nil)

	events := svc.LoadCustom(context.Background(), 16)

	assert.Nil(t, events)
	backend.AssertExpectations(t)
}

func TestFeedService_LoadFallback(t *testing.T) {
	client := newTestBackend(t, mockapi.Options{})
	svc := NewFeedService(client, nil, nil)

	events, err := svc.LoadFallback(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "ev-drama", events[0].ID, "newest first")
	for _, ev := range events {
		assert.False(t, ev.IsCustomLocation, ev.ID)
	}
}
