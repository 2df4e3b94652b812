package services

import (
	"context"
	"log/slog"
	"sync"

	"campus-events/internal/api"
	"campus-events/internal/status"
	"campus-events/models"
	"campus-events/monitoring"
)

// OptInSet holds the events the user has reserved, plus reservations in
// flight so a second request for the same event is refused.
type OptInSet struct {
	mu       sync.Mutex
	reserved map[string]struct{}
	pending  map[string]struct{}
}

func NewOptInSet(ids ...string) *OptInSet {
	s := &OptInSet{
		reserved: make(map[string]struct{}),
		pending:  make(map[string]struct{}),
	}
	for _, id := range ids {
		s.reserved[id] = struct{}{}
	}
	return s
}

func (s *OptInSet) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reserved[id]
	return ok
}

func (s *OptInSet) Add(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.reserved[id] = struct{}{}
	}
}

func (s *OptInSet) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, id)
}

func (s *OptInSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reserved)
}

func (s *OptInSet) begin(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reserved[id]; ok {
		return status.ErrAlreadyReserved
	}
	if _, ok := s.pending[id]; ok {
		return status.ErrAlreadyReserved
	}
	s.pending[id] = struct{}{}
	return nil
}

func (s *OptInSet) finish(id string, reserved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
	if reserved {
		s.reserved[id] = struct{}{}
	}
}

const (
	MsgReserved      = "Reservation confirmed!"
	MsgReserveFailed = "Error reserving seat"
	MsgCancelled     = "Reservation cancelled"
	MsgCancelFailed  = "Failed to cancel"
	errPrefix        = "⚠️ "
)

type ReservationWorkflow struct {
	backend  ReservationBackend
	optIns   *OptInSet
	feed     *FeedState
	email    string
	notifier Notifier
	monitor  *monitoring.Monitor
	logger   *slog.Logger
}

func NewReservationWorkflow(backend ReservationBackend, optIns *OptInSet, feed *FeedState, email string, notifier Notifier, monitor *monitoring.Monitor, logger *slog.Logger) *ReservationWorkflow {
	if notifier == nil {
		notifier = NopPresenter
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationWorkflow{
		backend:  backend,
		optIns:   optIns,
		feed:     feed,
		email:    email,
		notifier: notifier,
		monitor:  monitor,
		logger:   logger,
	}
}

// Reserve posts a reservation. On success the event joins the opt-in set
// and its displayed counter, if any, goes up by one. On failure nothing
// changes locally.
func (w *ReservationWorkflow) Reserve(ctx context.Context, eventID string) error {
	if err := w.optIns.begin(eventID); err != nil {
		w.monitor.TrackOperation("reserve", "blocked")
		return err
	}

	_, err := w.backend.Reserve(ctx, eventID, w.email)
	w.optIns.finish(eventID, err == nil)
	if err != nil {
		w.monitor.TrackOperation("reserve", "error")
		w.logger.Error("Failed to reserve seat", "error", err, "event_id", eventID)
		w.notifier.Notify(LevelError, errPrefix+api.MessageOf(err, MsgReserveFailed))
		return err
	}

	if w.feed != nil {
		w.feed.UpdateEvent(eventID, func(ev *models.Event) {
			ev.Reserved = true
			if ev.TicketsSold != nil {
				n := *ev.TicketsSold + 1
				ev.TicketsSold = &n
			}
		})
	}
	w.monitor.TrackOperation("reserve", "ok")
	w.notifier.Notify(LevelSuccess, MsgReserved)
	return nil
}

// Cancel deletes the opt-in and drops the event from the set.
func (w *ReservationWorkflow) Cancel(ctx context.Context, eventID string) error {
	if err := w.backend.CancelOptIn(ctx, eventID); err != nil {
		w.monitor.TrackOperation("cancel", "error")
		w.logger.Error("Failed to cancel reservation", "error", err, "event_id", eventID)
		w.notifier.Notify(LevelError, api.MessageOf(err, MsgCancelFailed))
		return err
	}
	w.optIns.Remove(eventID)
	if w.feed != nil {
		w.feed.UpdateEvent(eventID, func(ev *models.Event) { ev.Reserved = false })
	}
	w.monitor.TrackOperation("cancel", "ok")
	w.notifier.Notify(LevelSuccess, MsgCancelled)
	return nil
}
