// Package mockapi is an in-memory campus-events backend for local
// development and tests. It serves the same routes and response shapes as
// the production backend.
package mockapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"campus-events/models"
	"campus-events/security"

	"github.com/labstack/echo/v5"
	"github.com/shopspring/decimal"
)

type Options struct {
	// User is the signed-in identity. Nil serves a signed-out session.
	User         *models.SessionIdentity
	Universities []models.University
	Events       []models.Event
	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit float64
	Burst     int
	Now       func() time.Time
	Logger    *slog.Logger
}

type Server struct {
	store  *store
	user   *models.SessionIdentity
	logger *slog.Logger
	echo   *echo.Echo
}

func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		store:  newStore(opts.Universities, opts.Events, opts.Now),
		user:   opts.User,
		logger: opts.Logger,
		echo:   echo.New(),
	}

	if opts.RateLimit > 0 {
		limiter := security.NewRateLimiter(opts.RateLimit, opts.Burst)
		s.echo.Use(limiter.AntiBotMiddleware())
		s.echo.Use(limiter.Middleware())
	}

	s.echo.GET("/auth/session", s.session)
	s.echo.GET("/api/universities", s.universities)
	s.echo.GET("/api/universities/nearest_with_events", s.nearestWithEvents)
	s.echo.GET("/api/events", s.events)
	s.echo.POST("/api/events/create", s.createEvent)
	s.echo.POST("/api/events/:id/reserve", s.reserve)
	s.echo.DELETE("/api/events/:id", s.deleteEvent)
	s.echo.GET("/api/user/optins", s.optIns)
	s.echo.DELETE("/api/user/optins/:id", s.cancelOptIn)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) email() string {
	if s.user == nil {
		return ""
	}
	return s.user.Email
}

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

func (s *Server) session(c echo.Context) error {
	if s.user == nil {
		return c.JSON(http.StatusOK, map[string]any{"user": nil})
	}
	return c.JSON(http.StatusOK, s.user)
}

func (s *Server) universities(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.searchUniversities(strings.TrimSpace(c.QueryParam("search"))))
}

func (s *Server) nearestWithEvents(c echo.Context) error {
	latStr, lngStr := c.QueryParam("lat"), c.QueryParam("lng")
	if latStr == "" || lngStr == "" {
		return errorJSON(c, http.StatusBadRequest, "Missing lat/lng parameters")
	}
	lat, errLat := strconv.ParseFloat(latStr, 64)
	lng, errLng := strconv.ParseFloat(lngStr, 64)
	if errLat != nil || errLng != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid lat/lng format")
	}
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil {
		limit = maxNearbyCampuses
	}
	return c.JSON(http.StatusOK, s.store.nearestWithEvents(lat, lng, limit))
}

func (s *Server) events(c echo.Context) error {
	f := eventFilter{
		search: strings.TrimSpace(c.QueryParam("search")),
		latest: strings.EqualFold(c.QueryParam("sort"), "latest"),
	}
	if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		f.limit = limit
	}
	raw := c.QueryParam("is_custom")
	if raw == "" {
		raw = c.QueryParam("is_custom_location")
	}
	if raw != "" {
		if custom, ok := parseFlag(raw); ok {
			f.custom = &custom
		}
	}
	return c.JSON(http.StatusOK, s.store.listEvents(f, s.email()))
}

func (s *Server) optIns(c echo.Context) error {
	if s.user == nil {
		return errorJSON(c, http.StatusUnauthorized, "Login required")
	}
	return c.JSON(http.StatusOK, models.OptIns{Events: s.store.optInIDs(s.email())})
}

func (s *Server) reserve(c echo.Context) error {
	var req models.ReserveRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return errorJSON(c, http.StatusBadRequest, "Email required")
	}

	found, already := s.store.reserve(c.PathParam("id"), req.Email)
	switch {
	case !found:
		return errorJSON(c, http.StatusNotFound, "Event not found")
	case already:
		return c.JSON(http.StatusOK, models.ActionResult{Message: "Already reserved this event."})
	}
	s.logger.Debug("Reserved seat", "event_id", c.PathParam("id"), "email", req.Email)
	return c.JSON(http.StatusOK, models.ActionResult{Message: "Reservation successful!"})
}

func (s *Server) cancelOptIn(c echo.Context) error {
	if s.user == nil {
		return errorJSON(c, http.StatusUnauthorized, "Login required")
	}
	if !s.store.cancel(c.PathParam("id"), s.email()) {
		return errorJSON(c, http.StatusNotFound, "Reservation not found")
	}
	return c.JSON(http.StatusOK, models.ActionResult{Message: "Reservation cancelled"})
}

func (s *Server) deleteEvent(c echo.Context) error {
	if s.user == nil {
		return errorJSON(c, http.StatusUnauthorized, "Login required")
	}
	found, owned := s.store.deleteEvent(c.PathParam("id"), s.email())
	switch {
	case !found:
		return errorJSON(c, http.StatusNotFound, "Event not found")
	case !owned:
		return errorJSON(c, http.StatusForbidden, "You can only delete your own events")
	}
	return c.JSON(http.StatusOK, models.ActionResult{Message: "Event deleted"})
}

func (s *Server) createEvent(c echo.Context) error {
	var data map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&data); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid JSON body")
	}

	title := strings.TrimSpace(stringField(data, "title"))
	if title == "" {
		return errorJSON(c, http.StatusBadRequest, "Title is required")
	}

	location := stringField(data, "location")
	if location == "" {
		location = stringField(data, "campus")
	}
	openTo := strings.ToLower(stringField(data, "open_to"))
	if openTo == "" {
		openTo = "everyone"
	}

	isFree, _ := parseFlag(stringField(data, "is_free"))
	price := decimal.Zero
	if !isFree {
		if p, err := decimal.NewFromString(stringField(data, "ticket_price")); err == nil && p.IsPositive() {
			price = p
		}
	}
	isCustom, _ := parseFlag(stringField(data, "is_custom_location"))

	created := s.store.create(models.Event{
		Title:            title,
		Description:      strings.TrimSpace(stringField(data, "description")),
		Location:         location,
		OpenTo:           openTo,
		StartTime:        stringField(data, "start_time"),
		EndTime:          stringField(data, "end_time"),
		TicketPrice:      price,
		IsFree:           isFree,
		IsCustomLocation: isCustom,
		ServiceFee:       serviceFee(price, isCustom),
		ImageURL:         stringField(data, "image_url"),
		CreatedBy:        s.email(),
	})

	s.logger.Info("Event created", "event_id", created.ID, "custom", isCustom)
	return c.JSON(http.StatusCreated, models.ActionResult{Message: "Event created successfully", Event: &created})
}

// stringField renders a JSON value the way a form would submit it.
func stringField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func parseFlag(raw string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off", "":
		return false, true
	}
	return false, false
}
