package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"campus-events/models"
	"campus-events/monitoring"
	"campus-events/utils"

	"github.com/google/uuid"
)

const maxBodyBytes = 4 << 20

// Client talks to the campus-events backend. Every call goes through a
// circuit breaker; there are no automatic retries.
type Client struct {
	baseURL       string
	http          *http.Client
	sessionCookie string
	breaker       *utils.CircuitBreaker
	monitor       *monitoring.Monitor
	logger        *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithSessionCookie sets the session cookie sent on every request. A bare
// value is sent as the "session" cookie.
func WithSessionCookie(cookie string) Option {
	return func(c *Client) { c.sessionCookie = cookie }
}

func WithBreaker(cb *utils.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

func WithMonitor(m *monitoring.Monitor) Option {
	return func(c *Client) { c.monitor = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: utils.NewCircuitBreaker("campus-api"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EventQuery selects events from GET /api/events.
type EventQuery struct {
	Custom *bool
	Limit  int
	Sort   string
	Search string
}

func (q EventQuery) values() url.Values {
	v := url.Values{}
	if q.Custom != nil {
		if *q.Custom {
			v.Set("is_custom", "1")
		} else {
			v.Set("is_custom", "0")
		}
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// Session returns the signed-in identity, or nil when nobody is signed in.
func (c *Client) Session(ctx context.Context) (*models.SessionIdentity, error) {
	var identity models.SessionIdentity
	if err := c.do(ctx, http.MethodGet, "/auth/session", nil, nil, &identity); err != nil {
		return nil, err
	}
	if identity.Email == "" {
		return nil, nil
	}
	return &identity, nil
}

func (c *Client) NearestWithEvents(ctx context.Context, lat, lng float64, limit int) ([]models.NearbyGroup, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("limit", strconv.Itoa(limit))

	var groups []models.NearbyGroup
	if err := c.do(ctx, http.MethodGet, "/api/universities/nearest_with_events", q, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (c *Client) Events(ctx context.Context, query EventQuery) ([]models.Event, error) {
	var events []models.Event
	if err := c.do(ctx, http.MethodGet, "/api/events", query.values(), nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) OptIns(ctx context.Context) ([]string, error) {
	var optIns models.OptIns
	if err := c.do(ctx, http.MethodGet, "/api/user/optins", nil, nil, &optIns); err != nil {
		return nil, err
	}
	return optIns.Events, nil
}

func (c *Client) Reserve(ctx context.Context, eventID, email string) (*models.ActionResult, error) {
	var result models.ActionResult
	path := "/api/events/" + url.PathEscape(eventID) + "/reserve"
	if err := c.do(ctx, http.MethodPost, path, nil, models.ReserveRequest{Email: email}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateEvent posts the prepared upload payload and returns the stored event.
func (c *Client) CreateEvent(ctx context.Context, payload map[string]any) (*models.Event, error) {
	var result models.ActionResult
	if err := c.do(ctx, http.MethodPost, "/api/events/create", nil, payload, &result); err != nil {
		return nil, err
	}
	if result.Event == nil {
		return nil, &Error{Kind: KindNetwork, Err: errors.New("create response carried no event")}
	}
	return result.Event, nil
}

func (c *Client) Universities(ctx context.Context, search string) ([]models.University, error) {
	q := url.Values{}
	q.Set("search", search)

	var universities []models.University
	if err := c.do(ctx, http.MethodGet, "/api/universities", q, nil, &universities); err != nil {
		return nil, err
	}
	return universities, nil
}

func (c *Client) CancelOptIn(ctx context.Context, eventID string) error {
	return c.do(ctx, http.MethodDelete, "/api/user/optins/"+url.PathEscape(eventID), nil, nil, nil)
}

func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	return c.do(ctx, http.MethodDelete, "/api/events/"+url.PathEscape(eventID), nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := monitoring.Endpoint(method, path)
	start := time.Now()

	var result error
	err := c.breaker.Execute(ctx, func() error {
		result = c.roundTrip(ctx, method, path, query, body, out)
		var apiErr *Error
		if errors.As(result, &apiErr) && (apiErr.Kind == KindNetwork || apiErr.StatusCode >= 500) {
			return result
		}
		return nil
	})
	if err != nil && result == nil {
		// Rejected by the breaker before the request was sent.
		result = &Error{Kind: KindNetwork, Err: err}
	}

	status := "ok"
	if result != nil {
		status = KindOf(result).String()
		c.logger.Debug("API request failed", "method", method, "path", path, "error", result)
	}
	c.monitor.TrackRequest(endpoint, status, time.Since(start))
	return result
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessionCookie != "" {
		if strings.Contains(c.sessionCookie, "=") {
			req.Header.Set("Cookie", c.sessionCookie)
		} else {
			req.AddCookie(&http.Cookie{Name: "session", Value: c.sessionCookie})
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Kind: KindNetwork, StatusCode: resp.StatusCode, Err: err}
	}

	var eb errorBody
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		_ = json.Unmarshal(trimmed, &eb)
	}
	if err := classify(resp.StatusCode, eb); err != nil {
		return err
	}

	if out == nil || len(trimmed) == 0 {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &Error{Kind: KindNetwork, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode %s response: %w", path, err)}
	}
	return nil
}
