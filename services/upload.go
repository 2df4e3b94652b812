package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"campus-events/internal/api"
	"campus-events/internal/status"
	"campus-events/models"
	"campus-events/monitoring"

	"github.com/shopspring/decimal"
)

const formTimeLayout = "2006-01-02T15:04"

// UploadDraft is an event being filled in. Every change to the price, the
// free flag or the campus choice recomputes the fee quote.
type UploadDraft struct {
	Form   models.UploadForm
	Custom bool

	currency string
	quote    FeeQuote
}

func NewUploadDraft(currency string) *UploadDraft {
	d := &UploadDraft{currency: currency}
	d.recompute()
	return d
}

func (d *UploadDraft) SetPrice(raw string) FeeQuote {
	d.Form.TicketPrice = strings.TrimSpace(raw)
	return d.recompute()
}

// SetFree clears the price when the event becomes free.
func (d *UploadDraft) SetFree(free bool) FeeQuote {
	d.Form.IsFree = free
	if free {
		d.Form.TicketPrice = ""
	}
	return d.recompute()
}

func (d *UploadDraft) SelectCampus(choice CampusChoice) FeeQuote {
	d.Form.Campus = choice.Location
	d.Custom = choice.Custom
	return d.recompute()
}

func (d *UploadDraft) Quote() FeeQuote { return d.quote }

func (d *UploadDraft) Note() string { return d.quote.Note(d.currency) }

func (d *UploadDraft) price() decimal.Decimal {
	if d.Form.IsFree || d.Form.TicketPrice == "" {
		return decimal.Zero
	}
	p, err := decimal.NewFromString(d.Form.TicketPrice)
	if err != nil {
		return decimal.Zero
	}
	return p
}

func (d *UploadDraft) recompute() FeeQuote {
	d.quote = QuoteFee(d.price(), d.Form.IsFree, d.Custom)
	return d.quote
}

// Payload validates the draft and builds the create request: campus is
// sent as location, with the custom flag and the computed service fee.
// Start must be tomorrow or later; an end before the start is moved to
// the start.
func (d *UploadDraft) Payload(now time.Time) (map[string]any, error) {
	f := d.Form
	if strings.TrimSpace(f.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", status.ErrInvalidUpload)
	}
	if strings.TrimSpace(f.Campus) == "" {
		return nil, fmt.Errorf("%w: campus is required", status.ErrInvalidUpload)
	}

	start, err := time.ParseInLocation(formTimeLayout, f.StartTime, now.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: start time must look like 2006-01-02T15:04", status.ErrInvalidUpload)
	}
	y, m, day := now.Date()
	tomorrow := time.Date(y, m, day+1, 0, 0, 0, 0, now.Location())
	if start.Before(tomorrow) {
		return nil, fmt.Errorf("%w: start time must be from tomorrow onwards", status.ErrInvalidUpload)
	}

	end := f.EndTime
	if end != "" {
		endAt, err := time.ParseInLocation(formTimeLayout, end, now.Location())
		if err != nil {
			return nil, fmt.Errorf("%w: end time must look like 2006-01-02T15:04", status.ErrInvalidUpload)
		}
		if endAt.Before(start) {
			end = f.StartTime
		}
	}

	if !f.IsFree && f.TicketPrice != "" {
		if _, err := decimal.NewFromString(f.TicketPrice); err != nil {
			return nil, fmt.Errorf("%w: ticket price must be a number", status.ErrInvalidUpload)
		}
	}

	quote := d.recompute()
	payload := map[string]any{
		"title":              strings.TrimSpace(f.Title),
		"description":        strings.TrimSpace(f.Description),
		"location":           f.Campus,
		"start_time":         f.StartTime,
		"ticket_price":       quote.Price,
		"is_free":            f.IsFree,
		"is_custom_location": d.Custom,
		"service_fee":        quote.Fee,
	}
	if f.OpenTo != "" {
		payload["open_to"] = f.OpenTo
	}
	if end != "" {
		payload["end_time"] = end
	}
	if f.ImageURL != "" {
		payload["image_url"] = f.ImageURL
	}
	return payload, nil
}

// Announcer broadcasts newly created events.
type Announcer interface {
	Announce(ctx context.Context, ev models.Event) error
}

const (
	MsgUploaded     = "Event uploaded!"
	MsgUploadFailed = "Error uploading event"
)

type UploadWorkflow struct {
	backend       UploadBackend
	feed          *FeedState
	presenter     Presenter
	announcer     Announcer
	customLimit   int
	fallbackLimit int
	now           func() time.Time
	monitor       *monitoring.Monitor
	logger        *slog.Logger
}

type UploadOption func(*UploadWorkflow)

func WithAnnouncer(a Announcer) UploadOption {
	return func(w *UploadWorkflow) { w.announcer = a }
}

func WithUploadLimits(custom, fallback int) UploadOption {
	return func(w *UploadWorkflow) {
		w.customLimit = custom
		w.fallbackLimit = fallback
	}
}

func WithUploadClock(now func() time.Time) UploadOption {
	return func(w *UploadWorkflow) { w.now = now }
}

func WithUploadMonitor(m *monitoring.Monitor) UploadOption {
	return func(w *UploadWorkflow) { w.monitor = m }
}

func WithUploadLogger(l *slog.Logger) UploadOption {
	return func(w *UploadWorkflow) { w.logger = l }
}

func NewUploadWorkflow(backend UploadBackend, feed *FeedState, presenter Presenter, opts ...UploadOption) *UploadWorkflow {
	if presenter == nil {
		presenter = NopPresenter
	}
	w := &UploadWorkflow{
		backend:       backend,
		feed:          feed,
		presenter:     presenter,
		customLimit:   16,
		fallbackLimit: 8,
		now:           time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Submit creates the event and reconciles it into the feed. Failures show
// the server's message and leave the feed untouched.
func (w *UploadWorkflow) Submit(ctx context.Context, draft *UploadDraft) (*models.Event, error) {
	payload, err := draft.Payload(w.now())
	if err != nil {
		w.monitor.TrackOperation("upload", "invalid")
		w.presenter.Notify(LevelError, errPrefix+err.Error())
		return nil, err
	}

	ev, err := w.backend.CreateEvent(ctx, payload)
	if err != nil {
		w.monitor.TrackOperation("upload", "error")
		w.logger.Error("Failed to upload event", "error", err, "title", draft.Form.Title)
		w.presenter.Notify(LevelError, errPrefix+api.MessageOf(err, MsgUploadFailed))
		return nil, err
	}

	w.monitor.TrackOperation("upload", "ok")
	w.presenter.Notify(LevelSuccess, MsgUploaded)
	w.reconcile(ctx, *ev)

	if w.announcer != nil {
		if err := w.announcer.Announce(ctx, *ev); err != nil {
			w.logger.Warn("Failed to announce event", "error", err, "event_id", ev.ID)
		}
	}
	return ev, nil
}

func (w *UploadWorkflow) reconcile(ctx context.Context, ev models.Event) {
	if ev.IsCustomLocation {
		w.presenter.RenderCustom(w.feed.PrependCustom(ev, w.customLimit))
		return
	}

	label := w.feed.ActiveLabel()
	if label != "" && ev.Location != "" &&
		strings.Contains(strings.ToLower(label), strings.ToLower(ev.Location)) {
		w.presenter.RenderFeed(w.feed.PrependEvent(ev))
		w.presenter.SetMessage(ShowingMessage(label))
		return
	}

	latest, err := w.backend.Events(ctx, latestQuery(w.fallbackLimit))
	if err != nil {
		w.logger.Error("Failed to refresh latest events", "error", err)
		return
	}
	w.feed.SetEvents(latest, LatestLabel)
	w.presenter.RenderFeed(w.feed.Events())
}
