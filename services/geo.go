package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"campus-events/internal/status"
	"campus-events/models"
)

var ErrGeoUnsupported = errors.New("geolocation not supported")

// Position is a device fix. Accuracy is in meters.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

type LocatorFunc func(ctx context.Context) (Position, error)

func (f LocatorFunc) Locate(ctx context.Context) (Position, error) { return f(ctx) }

// StaticLocator reports a fixed position, or ErrGeoUnsupported when
// Position is nil.
type StaticLocator struct {
	Position *Position
}

func (s StaticLocator) Locate(ctx context.Context) (Position, error) {
	if s.Position == nil {
		return Position{}, ErrGeoUnsupported
	}
	return *s.Position, nil
}

type CoordinateSource int

const (
	SourceDevice CoordinateSource = iota
	SourceHome
)

type FallbackReason int

const (
	ReasonNone FallbackReason = iota
	ReasonLowAccuracy
	ReasonUnavailable
	ReasonUnsupported
)

type Coordinates struct {
	Latitude  float64
	Longitude float64
	Source    CoordinateSource
	Reason    FallbackReason
}

const (
	DefaultAccuracyThreshold = 1000.0
	DefaultGeoTimeout        = 10 * time.Second
)

type GeoResolver struct {
	locator   Locator
	threshold float64
	timeout   time.Duration
	logger    *slog.Logger
}

type GeoOption func(*GeoResolver)

// WithAccuracyThreshold sets the accuracy in meters above which the home
// campus is preferred over the device fix.
func WithAccuracyThreshold(meters float64) GeoOption {
	return func(g *GeoResolver) { g.threshold = meters }
}

func WithGeoTimeout(d time.Duration) GeoOption {
	return func(g *GeoResolver) { g.timeout = d }
}

func WithGeoLogger(l *slog.Logger) GeoOption {
	return func(g *GeoResolver) { g.logger = l }
}

// NewGeoResolver accepts a nil locator for devices without geolocation.
func NewGeoResolver(locator Locator, opts ...GeoOption) *GeoResolver {
	g := &GeoResolver{
		locator:   locator,
		threshold: DefaultAccuracyThreshold,
		timeout:   DefaultGeoTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Resolve makes a single attempt at a device fix. Poor accuracy, failure
// and missing support fall back to the session's campus coordinates; with
// no campus coordinates a failed fix returns ErrNoLocation.
func (g *GeoResolver) Resolve(ctx context.Context, identity *models.SessionIdentity) (Coordinates, error) {
	pos, err := g.locate(ctx)
	if err != nil {
		reason := ReasonUnavailable
		if errors.Is(err, ErrGeoUnsupported) {
			reason = ReasonUnsupported
		}
		if identity.HasHome() {
			g.logger.Debug("Using home campus coordinates", "reason", err)
			return home(identity, reason), nil
		}
		return Coordinates{Reason: reason}, fmt.Errorf("%w: %w", status.ErrNoLocation, err)
	}

	if pos.Accuracy > g.threshold {
		if identity.HasHome() {
			g.logger.Debug("Device accuracy too low, using home campus", "accuracy", pos.Accuracy, "threshold", g.threshold)
			return home(identity, ReasonLowAccuracy), nil
		}
		return Coordinates{Latitude: pos.Latitude, Longitude: pos.Longitude, Source: SourceDevice, Reason: ReasonLowAccuracy}, nil
	}

	return Coordinates{Latitude: pos.Latitude, Longitude: pos.Longitude, Source: SourceDevice}, nil
}

func (g *GeoResolver) locate(ctx context.Context) (Position, error) {
	if g.locator == nil {
		return Position{}, ErrGeoUnsupported
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type fix struct {
		pos Position
		err error
	}
	done := make(chan fix, 1)
	go func() {
		pos, err := g.locator.Locate(ctx)
		done <- fix{pos, err}
	}()

	select {
	case f := <-done:
		return f.pos, f.err
	case <-ctx.Done():
		return Position{}, ctx.Err()
	}
}

func home(identity *models.SessionIdentity, reason FallbackReason) Coordinates {
	return Coordinates{
		Latitude:  *identity.Latitude,
		Longitude: *identity.Longitude,
		Source:    SourceHome,
		Reason:    reason,
	}
}
