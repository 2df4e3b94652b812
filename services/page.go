package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"campus-events/internal/api"
	"campus-events/internal/status"
	"campus-events/models"
	"campus-events/monitoring"
	"campus-events/utils"

	"golang.org/x/sync/errgroup"
)

type PageConfig struct {
	NearbyLimit          int
	CustomLimit          int
	FallbackLimit        int
	FallbackDelay        time.Duration
	SearchDebounce       time.Duration
	AutocompleteDebounce time.Duration
	AccuracyThreshold    float64
	GeoTimeout           time.Duration
	Currency             string
}

func DefaultPageConfig() PageConfig {
	return PageConfig{
		NearbyLimit:          3,
		CustomLimit:          16,
		FallbackLimit:        8,
		FallbackDelay:        3 * time.Second,
		SearchDebounce:       250 * time.Millisecond,
		AutocompleteDebounce: DefaultAutocompleteDebounce,
		AccuracyThreshold:    DefaultAccuracyThreshold,
		GeoTimeout:           DefaultGeoTimeout,
		Currency:             "KES",
	}
}

// PageSession owns the state of one listing page: the signed-in identity,
// the feed, the opt-in set and the workflows acting on them.
type PageSession struct {
	cfg       PageConfig
	backend   Backend
	presenter Presenter
	geo       *GeoResolver
	feed      *FeedState
	feedSvc   *FeedService
	optIns    *OptInSet
	search    *utils.Debouncer
	campus    *CampusAutocomplete
	announcer Announcer
	cache     UniversityCache
	after     utils.AfterFunc
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
	monitor   *monitoring.Monitor
	logger    *slog.Logger

	mu           sync.RWMutex
	identity     *models.SessionIdentity
	reservations *ReservationWorkflow
	uploads      *UploadWorkflow
}

type PageOption func(*PageSession)

func WithPageConfig(cfg PageConfig) PageOption {
	return func(p *PageSession) { p.cfg = cfg }
}

func WithPageAnnouncer(a Announcer) PageOption {
	return func(p *PageSession) { p.announcer = a }
}

func WithPageCache(c UniversityCache) PageOption {
	return func(p *PageSession) { p.cache = c }
}

// WithTimers replaces the debounce timer and the fallback delay, mostly
// for tests.
func WithTimers(after utils.AfterFunc, sleep func(ctx context.Context, d time.Duration) error) PageOption {
	return func(p *PageSession) {
		if after != nil {
			p.after = after
		}
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

func WithPageClock(now func() time.Time) PageOption {
	return func(p *PageSession) { p.now = now }
}

func WithPageMonitor(m *monitoring.Monitor) PageOption {
	return func(p *PageSession) { p.monitor = m }
}

func WithPageLogger(l *slog.Logger) PageOption {
	return func(p *PageSession) { p.logger = l }
}

func NewPageSession(backend Backend, locator Locator, presenter Presenter, opts ...PageOption) *PageSession {
	if presenter == nil {
		presenter = NopPresenter
	}
	p := &PageSession{
		cfg:       DefaultPageConfig(),
		backend:   backend,
		presenter: presenter,
		feed:      NewFeedState(),
		optIns:    NewOptInSet(),
		after:     utils.DefaultAfterFunc,
		sleep:     sleepContext,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.geo = NewGeoResolver(locator,
		WithAccuracyThreshold(p.cfg.AccuracyThreshold),
		WithGeoTimeout(p.cfg.GeoTimeout),
		WithGeoLogger(p.logger),
	)
	p.feedSvc = NewFeedService(backend, p.monitor, p.logger)
	p.search = utils.NewDebouncer(p.cfg.SearchDebounce, p.after)
	p.campus = NewCampusAutocomplete(backend,
		WithUniversityCache(p.cache),
		WithDebounce(p.cfg.AutocompleteDebounce, p.after),
		WithAutocompleteMonitor(p.monitor),
		WithAutocompleteLogger(p.logger),
	)
	return p
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *PageSession) Feed() *FeedState { return p.feed }

func (p *PageSession) OptIns() *OptInSet { return p.optIns }

func (p *PageSession) Identity() *models.SessionIdentity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity
}

// Start loads the session, resolves a location and then loads opt-ins,
// custom events and the main feed concurrently. Only a missing session is
// an error; every feed failure degrades to a message or fallback data.
func (p *PageSession) Start(ctx context.Context) error {
	identity, err := LoadSession(ctx, p.backend)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.identity = identity
	p.reservations = NewReservationWorkflow(p.backend, p.optIns, p.feed, identity.Email, p.presenter, p.monitor, p.logger)
	p.uploads = NewUploadWorkflow(p.backend, p.feed, p.presenter,
		WithAnnouncer(p.announcer),
		WithUploadLimits(p.cfg.CustomLimit, p.cfg.FallbackLimit),
		WithUploadClock(p.now),
		WithUploadMonitor(p.monitor),
		WithUploadLogger(p.logger),
	)
	p.mu.Unlock()

	p.presenter.SetMessage(MsgLoading)
	coords, geoErr := p.geo.Resolve(ctx, identity)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := p.backend.OptIns(gctx)
		if err != nil {
			p.logger.Warn("Failed to load opt-ins", "error", err)
			return nil
		}
		p.optIns.Add(ids...)
		return nil
	})
	g.Go(func() error {
		custom := p.feedSvc.LoadCustom(gctx, p.cfg.CustomLimit)
		p.seedReserved(custom)
		p.feed.SetCustomEvents(custom)
		p.monitor.TrackFeedSize("custom", len(custom))
		p.presenter.RenderCustom(custom)
		return nil
	})
	g.Go(func() error {
		p.loadMain(gctx, identity, coords, geoErr)
		return nil
	})
	g.Wait()

	return ctx.Err()
}

func (p *PageSession) loadMain(ctx context.Context, identity *models.SessionIdentity, coords Coordinates, geoErr error) {
	gen := p.feed.Generation()

	if geoErr != nil {
		p.presenter.SetMessage(locationMessage(coords.Reason))
		p.loadFallback(ctx, gen)
		return
	}
	if coords.Source == SourceHome && coords.Reason != ReasonLowAccuracy {
		p.presenter.SetMessage(locationMessage(coords.Reason))
	}

	events, label, err := p.feedSvc.LoadNearby(ctx, coords.Latitude, coords.Longitude, p.cfg.NearbyLimit)
	if err != nil {
		switch {
		case api.IsRateLimited(err):
			p.presenter.Notify(LevelError, api.MessageOf(err, api.DefaultRateLimitMessage))
		case api.KindOf(err) != api.KindNetwork:
			p.presenter.Notify(LevelError, api.MessageOf(err, MsgNearbyFailed))
		}
		p.presenter.SetMessage(MsgNearbyFailed)
		p.loadFallback(ctx, gen)
		return
	}
	if len(events) == 0 {
		p.presenter.SetMessage(MsgNoNearby)
		p.loadFallback(ctx, gen)
		return
	}

	p.seedReserved(events)
	if p.feed.SetEventsIf(gen, events, label) {
		shown := p.feed.Events()
		p.monitor.TrackFeedSize("main", len(shown))
		p.presenter.SetMessage(ShowingLatestMessage(label))
		p.presenter.RenderFeed(shown)
	}
	p.logger.Debug("Loaded nearby events", "count", len(events), "campuses", label, "email", identity.Email)
}

// loadFallback shows the latest events after the fallback delay, unless
// the main feed was replaced in the meantime.
func (p *PageSession) loadFallback(ctx context.Context, gen uint64) {
	if err := p.sleep(ctx, p.cfg.FallbackDelay); err != nil {
		return
	}

	events, err := p.feedSvc.LoadFallback(ctx, p.cfg.FallbackLimit)
	if err != nil {
		if api.IsRateLimited(err) {
			p.presenter.Notify(LevelError, api.MessageOf(err, api.DefaultRateLimitMessage))
		}
		p.presenter.SetMessage(MsgFallbackFailed)
		return
	}

	p.seedReserved(events)
	if p.feed.SetEventsIf(gen, events, LatestLabel) {
		shown := p.feed.Events()
		p.monitor.TrackFeedSize("main", len(shown))
		p.presenter.RenderFeed(shown)
	}
}

func (p *PageSession) seedReserved(events []models.Event) {
	for _, ev := range events {
		if ev.Reserved {
			p.optIns.Add(ev.ID)
		}
	}
}

func locationMessage(reason FallbackReason) string {
	if reason == ReasonUnsupported {
		return MsgGeoUnsupported
	}
	return MsgLocationUnavailable
}

// Search filters the feed after the search debounce delay. Only the last
// query of a burst is applied.
func (p *PageSession) Search(query string) {
	p.search.Trigger(func() { p.SearchNow(query) })
}

// SearchNow filters the feed immediately and renders the result.
func (p *PageSession) SearchNow(query string) []models.Event {
	all := p.feed.Events()
	label := p.feed.ActiveLabel()

	if len(all) == 0 {
		p.presenter.SetMessage(MsgLoading)
		return nil
	}
	if strings.TrimSpace(query) == "" {
		p.presenter.SetMessage(ShowingMessage(label))
		p.presenter.RenderFeed(all)
		return all
	}

	filtered := Filter(all, query)
	p.presenter.SetMessage(SearchMessage(query, label, len(filtered)))
	p.presenter.RenderFeed(filtered)
	return filtered
}

func (p *PageSession) Reserve(ctx context.Context, eventID string) error {
	p.mu.RLock()
	w := p.reservations
	p.mu.RUnlock()
	if w == nil {
		return status.ErrLoginRequired
	}
	return w.Reserve(ctx, eventID)
}

// NewUploadDraft starts an upload form whose campus selection feeds the
// draft's surcharge quote.
func (p *PageSession) NewUploadDraft() *UploadDraft {
	return NewUploadDraft(p.cfg.Currency)
}

func (p *PageSession) Upload(ctx context.Context, draft *UploadDraft) (*models.Event, error) {
	p.mu.RLock()
	w := p.uploads
	p.mu.RUnlock()
	if w == nil {
		return nil, status.ErrLoginRequired
	}
	if draft == nil {
		return nil, errors.New("upload: nil draft")
	}
	return w.Submit(ctx, draft)
}

// Campus returns an autocomplete whose selections update draft. A nil
// draft returns the shared autocomplete without a selection callback.
func (p *PageSession) Campus(draft *UploadDraft) *CampusAutocomplete {
	if draft == nil {
		return p.campus
	}
	return NewCampusAutocomplete(p.backend,
		WithUniversityCache(p.cache),
		WithDebounce(p.cfg.AutocompleteDebounce, p.after),
		OnSelect(func(choice CampusChoice) {
			quote := draft.SelectCampus(choice)
			if note := quote.Note(p.cfg.Currency); note != "" {
				p.presenter.Notify(LevelInfo, note)
			}
		}),
		WithAutocompleteMonitor(p.monitor),
		WithAutocompleteLogger(p.logger),
	)
}
