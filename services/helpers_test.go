package services

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"campus-events/internal/api"
	"campus-events/internal/mockapi"
	"campus-events/models"
	"campus-events/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func floatPtr(f float64) *float64 { return &f }

func intPtr(n int) *int { return &n }

func testIdentity() *models.SessionIdentity {
	return &models.SessionIdentity{
		Email:      "amina@strathmore.edu",
		Name:       "Amina",
		University: "Strathmore University",
		Latitude:   floatPtr(-1.3100),
		Longitude:  floatPtr(36.8125),
	}
}

// newTestBackend serves the in-memory backend seeded with the sample data
// unless opts says otherwise.
func newTestBackend(t *testing.T, opts mockapi.Options) *api.Client {
	t.Helper()
	if opts.Universities == nil {
		opts.Universities = mockapi.SeedUniversities()
	}
	if opts.Events == nil {
		opts.Events = mockapi.SeedEvents(testNow)
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	srv := httptest.NewServer(mockapi.New(opts))
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL)
}

type recordingPresenter struct {
	mu       sync.Mutex
	notes    []note
	messages []string
	feeds    [][]models.Event
	customs  [][]models.Event
}

type note struct {
	level   Level
	message string
}

func (p *recordingPresenter) Notify(level Level, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = append(p.notes, note{level, message})
}

func (p *recordingPresenter) SetMessage(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
}

func (p *recordingPresenter) RenderFeed(events []models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.feeds = append(p.feeds, events)
}

func (p *recordingPresenter) RenderCustom(events []models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customs = append(p.customs, events)
}

func (p *recordingPresenter) lastMessage() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.messages) == 0 {
		return ""
	}
	return p.messages[len(p.messages)-1]
}

func (p *recordingPresenter) lastFeed() []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.feeds) == 0 {
		return nil
	}
	return p.feeds[len(p.feeds)-1]
}

func (p *recordingPresenter) lastNote() note {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.notes) == 0 {
		return note{}
	}
	return p.notes[len(p.notes)-1]
}

func (p *recordingPresenter) feedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.feeds)
}

func (p *recordingPresenter) customCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.customs)
}

// manualTimers collects debounce callbacks so tests decide when they fire.
type manualTimers struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (m *manualTimers) AfterFunc(d time.Duration, f func()) utils.TimerHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{delay: d, fn: f}
	m.pending = append(m.pending, t)
	return t
}

// fire runs every timer that was not stopped.
func (m *manualTimers) fire() {
	m.mu.Lock()
	timers := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.fn()
		}
	}
}

func (m *manualTimers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// sleepRecorder replaces the fallback delay and remembers what was asked.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
	before func()
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	before := s.before
	s.mu.Unlock()
	if before != nil {
		before()
	}
	return ctx.Err()
}

func (s *sleepRecorder) calls() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func event(id, title, location string) models.Event {
	return models.Event{ID: id, Title: title, Location: location, TicketPrice: decimal.Zero}
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Session(ctx context.Context) (*models.SessionIdentity, error) {
	args := m.Called(ctx)
	identity, _ := args.Get(0).(*models.SessionIdentity)
	return identity, args.Error(1)
}

func (m *mockBackend) NearestWithEvents(ctx context.Context, lat, lng float64, limit int) ([]models.NearbyGroup, error) {
	args := m.Called(ctx, lat, lng, limit)
	groups, _ := args.Get(0).([]models.NearbyGroup)
	return groups, args.Error(1)
}

func (m *mockBackend) Events(ctx context.Context, query api.EventQuery) ([]models.Event, error) {
	args := m.Called(ctx, query)
	events, _ := args.Get(0).([]models.Event)
	return events, args.Error(1)
}

func (m *mockBackend) OptIns(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockBackend) Reserve(ctx context.Context, eventID, email string) (*models.ActionResult, error) {
	args := m.Called(ctx, eventID, email)
	result, _ := args.Get(0).(*models.ActionResult)
	return result, args.Error(1)
}

func (m *mockBackend) CreateEvent(ctx context.Context, payload map[string]any) (*models.Event, error) {
	args := m.Called(ctx, payload)
	ev, _ := args.Get(0).(*models.Event)
	return ev, args.Error(1)
}

func (m *mockBackend) Universities(ctx context.Context, search string) ([]models.University, error) {
	args := m.Called(ctx, search)
	unis, _ := args.Get(0).([]models.University)
	return unis, args.Error(1)
}

func (m *mockBackend) CancelOptIn(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

func (m *mockBackend) DeleteEvent(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

func isCustomQuery(q api.EventQuery) bool {
	return q.Custom != nil && *q.Custom
}

func isLatestQuery(q api.EventQuery) bool {
	return q.Custom != nil && !*q.Custom && q.Sort == "latest"
}
