package services

import (
	"context"

	"campus-events/internal/api"
	"campus-events/models"
)

type SessionSource interface {
	Session(ctx context.Context) (*models.SessionIdentity, error)
}

type FeedSource interface {
	NearestWithEvents(ctx context.Context, lat, lng float64, limit int) ([]models.NearbyGroup, error)
	Events(ctx context.Context, query api.EventQuery) ([]models.Event, error)
}

type ReservationBackend interface {
	Reserve(ctx context.Context, eventID, email string) (*models.ActionResult, error)
	CancelOptIn(ctx context.Context, eventID string) error
}

type UploadBackend interface {
	CreateEvent(ctx context.Context, payload map[string]any) (*models.Event, error)
	Events(ctx context.Context, query api.EventQuery) ([]models.Event, error)
}

type UniversitySource interface {
	Universities(ctx context.Context, search string) ([]models.University, error)
}

type ProfileBackend interface {
	OptIns(ctx context.Context) ([]string, error)
	Events(ctx context.Context, query api.EventQuery) ([]models.Event, error)
	CancelOptIn(ctx context.Context, eventID string) error
	DeleteEvent(ctx context.Context, eventID string) error
}

// Backend is everything the listing page consumes. *api.Client
// implements it.
type Backend interface {
	SessionSource
	FeedSource
	ReservationBackend
	UploadBackend
	UniversitySource
	OptIns(ctx context.Context) ([]string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

var _ Backend = (*api.Client)(nil)
