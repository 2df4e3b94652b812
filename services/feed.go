package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"campus-events/internal/api"
	"campus-events/models"
	"campus-events/monitoring"
)

// FeedState is the page's local event state. Main-feed replacements bump a
// generation so that a delayed load started before the replacement can
// detect it is stale. Custom-location events only ever live in the custom
// section.
type FeedState struct {
	mu           sync.RWMutex
	allEvents    []models.Event
	activeLabel  string
	customEvents []models.Event
	generation   uint64
}

func NewFeedState() *FeedState {
	return &FeedState{}
}

func (s *FeedState) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// SetEvents replaces the main feed and its label.
func (s *FeedState) SetEvents(events []models.Event, label string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setEvents(events, label)
	return s.generation
}

// SetEventsIf replaces the main feed only if no replacement happened since
// generation gen.
func (s *FeedState) SetEventsIf(gen uint64, events []models.Event, label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	s.setEvents(events, label)
	return true
}

func (s *FeedState) setEvents(events []models.Event, label string) {
	s.allEvents = withoutCustom(events)
	s.activeLabel = label
	s.generation++
}

func (s *FeedState) Events() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Event(nil), s.allEvents...)
}

func (s *FeedState) ActiveLabel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLabel
}

// PrependEvent adds ev to the top of the main feed. Custom-location events
// are left out.
func (s *FeedState) PrependEvent(ev models.Event) []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ev.IsCustomLocation {
		s.allEvents = append([]models.Event{ev}, s.allEvents...)
	}
	return append([]models.Event(nil), s.allEvents...)
}

func (s *FeedState) SetCustomEvents(events []models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customEvents = append([]models.Event(nil), events...)
}

func (s *FeedState) CustomEvents() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Event(nil), s.customEvents...)
}

// PrependCustom adds ev to the top of the custom section and returns the
// first limit events for display.
func (s *FeedState) PrependCustom(ev models.Event, limit int) []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customEvents = append([]models.Event{ev}, s.customEvents...)
	shown := s.customEvents
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	return append([]models.Event(nil), shown...)
}

// UpdateEvent applies fn to every copy of the event in either section.
func (s *FeedState) UpdateEvent(id string, fn func(*models.Event)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for i := range s.allEvents {
		if s.allEvents[i].ID == id {
			fn(&s.allEvents[i])
			found = true
		}
	}
	for i := range s.customEvents {
		if s.customEvents[i].ID == id {
			fn(&s.customEvents[i])
			found = true
		}
	}
	return found
}

func (s *FeedState) Find(id string) (models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, list := range [][]models.Event{s.allEvents, s.customEvents} {
		for _, ev := range list {
			if ev.ID == id {
				return ev, true
			}
		}
	}
	return models.Event{}, false
}

// Filter returns the events whose title, description and location contain
// every whitespace-separated token of query, case-insensitively. An empty
// query returns all events in their original order. The input slice is
// never modified.
func Filter(events []models.Event, query string) []models.Event {
	tokens := strings.Fields(strings.ToLower(query))
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		hay := ev.Haystack()
		match := true
		for _, t := range tokens {
			if !strings.Contains(hay, t) {
				match = false
				break
			}
		}
		if match {
			out = append(out, ev)
		}
	}
	return out
}

const (
	LatestLabel = "Latest"

	MsgLoading             = "Loading events near you…"
	MsgNoNearby            = "No events nearby. Showing fallback events."
	MsgLocationUnavailable = "Location unavailable. Showing fallback events."
	MsgGeoUnsupported      = "Geolocation not supported. Showing fallback events."
	MsgFallbackFailed      = "Could not load fallback events."
	MsgNearbyFailed        = "Could not load events near you."
)

func ShowingLatestMessage(label string) string {
	return fmt.Sprintf("Showing latest events in %s.", label)
}

func ShowingMessage(label string) string {
	if label == "" {
		return ""
	}
	return fmt.Sprintf("Showing events in %s.", label)
}

func SearchMessage(query, label string, matches int) string {
	where := label
	if where == "" {
		where = "these events"
	}
	if matches == 0 {
		return fmt.Sprintf("No matches for %q in %s.", query, where)
	}
	return fmt.Sprintf("Results for %q in %s.", query, where)
}

// withoutCustom copies the events that belong in the main feed.
func withoutCustom(events []models.Event) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if !ev.IsCustomLocation {
			out = append(out, ev)
		}
	}
	return out
}

// latestQuery selects the newest campus events for the main feed.
func latestQuery(limit int) api.EventQuery {
	custom := false
	return api.EventQuery{Custom: &custom, Limit: limit, Sort: "latest"}
}

// FeedService fetches the three feed sources.
type FeedService struct {
	source  FeedSource
	monitor *monitoring.Monitor
	logger  *slog.Logger
}

func NewFeedService(source FeedSource, monitor *monitoring.Monitor, logger *slog.Logger) *FeedService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedService{source: source, monitor: monitor, logger: logger}
}

// LoadNearby flattens the nearest campuses' events into one list, each
// tagged with its campus, and labels it with the joined campus names.
// Custom-location events are dropped. The list is empty when no campus has
// campus events.
func (f *FeedService) LoadNearby(ctx context.Context, lat, lng float64, limit int) ([]models.Event, string, error) {
	groups, err := f.source.NearestWithEvents(ctx, lat, lng, limit)
	if err != nil {
		f.monitor.TrackFeedLoad("nearby", "error")
		f.logger.Error("Failed to load nearby events", "error", err, "lat", lat, "lng", lng)
		return nil, "", err
	}

	names := make([]string, 0, len(groups))
	var events []models.Event
	for _, g := range groups {
		names = append(names, g.University.Name)
		for _, ev := range withoutCustom(g.Events) {
			ev.University = g.University.Name
			events = append(events, ev)
		}
	}

	f.monitor.TrackFeedLoad("nearby", "ok")
	return events, strings.Join(names, ", "), nil
}

// LoadCustom returns the latest custom-location events. Failures are
// logged and yield nil.
func (f *FeedService) LoadCustom(ctx context.Context, limit int) []models.Event {
	custom := true
	events, err := f.source.Events(ctx, api.EventQuery{Custom: &custom, Limit: limit, Sort: "latest"})
	if err != nil {
		f.monitor.TrackFeedLoad("custom", "error")
		f.logger.Debug("Failed to load custom events", "error", err)
		return nil
	}
	f.monitor.TrackFeedLoad("custom", "ok")
	return events
}

func (f *FeedService) LoadFallback(ctx context.Context, limit int) ([]models.Event, error) {
	events, err := f.source.Events(ctx, latestQuery(limit))
	if err != nil {
		f.monitor.TrackFeedLoad("fallback", "error")
		f.logger.Error("Failed to load fallback events", "error", err)
		return nil, err
	}
	f.monitor.TrackFeedLoad("fallback", "ok")
	return withoutCustom(events), nil
}
