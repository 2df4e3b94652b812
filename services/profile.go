package services

import (
	"context"
	"log/slog"
	"sync"

	"campus-events/internal/api"
	"campus-events/internal/status"
	"campus-events/models"
	"campus-events/monitoring"

	"golang.org/x/sync/errgroup"
)

const (
	MsgProfileFailed = "Error loading profile"
	MsgDeleted       = "Event deleted"
	MsgDeleteFailed  = "Failed to delete"
)

type Profile struct {
	Reservations []models.Event
	Hosted       []models.Event
}

// ProfileWorkflow lists the signed-in user's reservations and hosted
// events. Both are derived from the session: opt-ins identify
// reservations and created_by identifies hosted events.
type ProfileWorkflow struct {
	backend  ProfileBackend
	identity *models.SessionIdentity
	notifier Notifier
	monitor  *monitoring.Monitor
	logger   *slog.Logger

	mu      sync.Mutex
	profile Profile
}

func NewProfileWorkflow(backend ProfileBackend, identity *models.SessionIdentity, notifier Notifier, monitor *monitoring.Monitor, logger *slog.Logger) *ProfileWorkflow {
	if notifier == nil {
		notifier = NopPresenter
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileWorkflow{
		backend:  backend,
		identity: identity,
		notifier: notifier,
		monitor:  monitor,
		logger:   logger,
	}
}

func (p *ProfileWorkflow) Load(ctx context.Context) (Profile, error) {
	var (
		ids    []string
		events []models.Event
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ids, err = p.backend.OptIns(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = p.backend.Events(gctx, api.EventQuery{})
		return err
	})
	if err := g.Wait(); err != nil {
		p.logger.Error("Failed to load profile", "error", err, "email", p.identity.Email)
		p.notifier.Notify(LevelError, MsgProfileFailed)
		return Profile{}, err
	}

	optIns := NewOptInSet(ids...)
	var profile Profile
	for _, ev := range events {
		if optIns.Has(ev.ID) || ev.Reserved {
			profile.Reservations = append(profile.Reservations, ev)
		}
		if ev.CreatedBy != "" && ev.CreatedBy == p.identity.Email {
			profile.Hosted = append(profile.Hosted, ev)
		}
	}

	p.mu.Lock()
	p.profile = profile
	p.mu.Unlock()
	return p.Profile(), nil
}

func (p *ProfileWorkflow) Profile() Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Profile{
		Reservations: append([]models.Event(nil), p.profile.Reservations...),
		Hosted:       append([]models.Event(nil), p.profile.Hosted...),
	}
}

// CancelReservation deletes the opt-in and removes the card.
func (p *ProfileWorkflow) CancelReservation(ctx context.Context, eventID string) error {
	if err := p.backend.CancelOptIn(ctx, eventID); err != nil {
		p.monitor.TrackOperation("cancel", "error")
		p.logger.Error("Failed to cancel reservation", "error", err, "event_id", eventID)
		p.notifier.Notify(LevelError, api.MessageOf(err, MsgCancelFailed))
		return err
	}

	p.mu.Lock()
	p.profile.Reservations = without(p.profile.Reservations, eventID)
	p.mu.Unlock()

	p.monitor.TrackOperation("cancel", "ok")
	p.notifier.Notify(LevelSuccess, MsgCancelled)
	return nil
}

// DeleteEvent deletes a hosted event once confirm approves it. A nil
// confirm is treated as a refusal.
func (p *ProfileWorkflow) DeleteEvent(ctx context.Context, eventID string, confirm func(models.Event) bool) error {
	ev, ok := p.hosted(eventID)
	if !ok {
		ev = models.Event{ID: eventID}
	}
	if confirm == nil || !confirm(ev) {
		return status.ErrNotConfirmed
	}

	if err := p.backend.DeleteEvent(ctx, eventID); err != nil {
		p.monitor.TrackOperation("delete", "error")
		p.logger.Error("Failed to delete event", "error", err, "event_id", eventID)
		p.notifier.Notify(LevelError, api.MessageOf(err, MsgDeleteFailed))
		return err
	}

	p.mu.Lock()
	p.profile.Hosted = without(p.profile.Hosted, eventID)
	p.profile.Reservations = without(p.profile.Reservations, eventID)
	p.mu.Unlock()

	p.monitor.TrackOperation("delete", "ok")
	p.notifier.Notify(LevelSuccess, MsgDeleted)
	return nil
}

func (p *ProfileWorkflow) hosted(eventID string) (models.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ev := range p.profile.Hosted {
		if ev.ID == eventID {
			return ev, true
		}
	}
	return models.Event{}, false
}

func without(events []models.Event, id string) []models.Event {
	out := events[:0:0]
	for _, ev := range events {
		if ev.ID != id {
			out = append(out, ev)
		}
	}
	return out
}
