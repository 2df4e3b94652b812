package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"campus-events/models"
	"campus-events/monitoring"
	"campus-events/utils"
)

// UniversityCache stores search results by query.
type UniversityCache interface {
	Get(ctx context.Context, query string) ([]models.University, bool, error)
	Set(ctx context.Context, query string, universities []models.University) error
}

// CampusChoice is what the upload form stores for the selected campus.
type CampusChoice struct {
	Location string
	Custom   bool
}

type CampusOption struct {
	Label  string
	Choice CampusChoice
}

func CustomOption(query string) CampusOption {
	return CampusOption{
		Label:  fmt.Sprintf("Use %q as custom location", query),
		Choice: CampusChoice{Location: query, Custom: true},
	}
}

const DefaultAutocompleteDebounce = 300 * time.Millisecond

// CampusAutocomplete searches universities as the user types. Input is
// debounced, and a response to an older query is never delivered after a
// newer one.
type CampusAutocomplete struct {
	source    UniversitySource
	cache     UniversityCache
	debouncer *utils.Debouncer
	onSelect  func(CampusChoice)
	monitor   *monitoring.Monitor
	logger    *slog.Logger

	mu  sync.Mutex
	seq uint64
}

type AutocompleteOption func(*CampusAutocomplete)

func WithUniversityCache(c UniversityCache) AutocompleteOption {
	return func(a *CampusAutocomplete) { a.cache = c }
}

func WithDebounce(delay time.Duration, after utils.AfterFunc) AutocompleteOption {
	return func(a *CampusAutocomplete) { a.debouncer = utils.NewDebouncer(delay, after) }
}

// OnSelect registers the callback run for every selection. The upload
// form uses it to recompute the surcharge.
func OnSelect(fn func(CampusChoice)) AutocompleteOption {
	return func(a *CampusAutocomplete) { a.onSelect = fn }
}

func WithAutocompleteMonitor(m *monitoring.Monitor) AutocompleteOption {
	return func(a *CampusAutocomplete) { a.monitor = m }
}

func WithAutocompleteLogger(l *slog.Logger) AutocompleteOption {
	return func(a *CampusAutocomplete) { a.logger = l }
}

func NewCampusAutocomplete(source UniversitySource, opts ...AutocompleteOption) *CampusAutocomplete {
	a := &CampusAutocomplete{
		source:    source,
		debouncer: utils.NewDebouncer(DefaultAutocompleteDebounce, nil),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Lookup runs a search immediately. Matches are labelled "Name (Type)";
// no matches yield the single custom-location option.
func (a *CampusAutocomplete) Lookup(ctx context.Context, query string) ([]CampusOption, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	universities, err := a.search(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(universities) == 0 {
		return []CampusOption{CustomOption(query)}, nil
	}
	options := make([]CampusOption, 0, len(universities))
	for _, u := range universities {
		options = append(options, CampusOption{
			Label:  fmt.Sprintf("%s (%s)", u.Name, u.Type),
			Choice: CampusChoice{Location: u.Name},
		})
	}
	return options, nil
}

func (a *CampusAutocomplete) search(ctx context.Context, query string) ([]models.University, error) {
	if a.cache != nil {
		cached, ok, err := a.cache.Get(ctx, query)
		if err != nil {
			a.logger.Warn("Autocomplete cache read failed", "error", err, "query", query)
		} else if ok {
			a.monitor.TrackAutocomplete("hit")
			return cached, nil
		}
	}

	universities, err := a.source.Universities(ctx, query)
	if err != nil {
		a.monitor.TrackAutocomplete("error")
		a.logger.Error("Failed to search universities", "error", err, "query", query)
		return nil, err
	}
	a.monitor.TrackAutocomplete("miss")

	if a.cache != nil {
		if err := a.cache.Set(ctx, query, universities); err != nil {
			a.logger.Warn("Autocomplete cache write failed", "error", err, "query", query)
		}
	}
	return universities, nil
}

// Input handles a keystroke. Blank input cancels any pending search and
// reports no results at once; otherwise the search runs after the
// debounce delay and deliver is called with its results unless a newer
// input arrived in the meantime.
func (a *CampusAutocomplete) Input(ctx context.Context, query string, deliver func([]CampusOption, error)) {
	seq := a.next()
	query = strings.TrimSpace(query)
	if query == "" {
		a.debouncer.Cancel()
		deliver(nil, nil)
		return
	}

	a.debouncer.Trigger(func() {
		options, err := a.Lookup(ctx, query)
		if a.current(seq) {
			deliver(options, err)
		}
	})
}

// Select commits an option and notifies the selection callback.
func (a *CampusAutocomplete) Select(option CampusOption) CampusChoice {
	if a.onSelect != nil {
		a.onSelect(option.Choice)
	}
	return option.Choice
}

func (a *CampusAutocomplete) next() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	return a.seq
}

func (a *CampusAutocomplete) current(seq uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seq == seq
}
