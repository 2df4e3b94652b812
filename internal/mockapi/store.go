package mockapi

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"campus-events/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	timestampLayout   = "2006-01-02T15:04:05.000000"
	maxNearbyCampuses = 3
	eventsPerCampus   = 10
)

var (
	surchargeRate = decimal.NewFromFloat(0.10)
	minSurcharge  = decimal.NewFromInt(50)
)

type store struct {
	mu           sync.Mutex
	universities []models.University
	events       []models.Event
	optIns       map[string]map[string]struct{}
	now          func() time.Time
}

func newStore(universities []models.University, events []models.Event, now func() time.Time) *store {
	s := &store{
		universities: append([]models.University(nil), universities...),
		optIns:       make(map[string]map[string]struct{}),
		now:          now,
	}
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if ev.CreatedAt == "" {
			ev.CreatedAt = now().UTC().Format(timestampLayout)
		}
		if ev.TicketsSold == nil {
			zero := 0
			ev.TicketsSold = &zero
		}
		s.events = append(s.events, ev)
	}
	return s
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// serviceFee mirrors the client-side surcharge: 10% of the price rounded
// to whole units, never below 50.
func serviceFee(price decimal.Decimal, custom bool) decimal.Decimal {
	if !custom {
		return decimal.Zero
	}
	return decimal.Max(minSurcharge, price.Mul(surchargeRate).Round(0))
}

func (s *store) serialize(ev models.Event, email string) models.Event {
	out := ev
	if ev.TicketsSold != nil {
		n := *ev.TicketsSold
		out.TicketsSold = &n
	}
	if email != "" {
		_, out.Reserved = s.optIns[email][ev.ID]
	}
	return out
}

func (s *store) nearestWithEvents(lat, lng float64, limit int) []models.NearbyGroup {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > maxNearbyCampuses {
		limit = maxNearbyCampuses
	}

	unis := make([]models.University, len(s.universities))
	for i, u := range s.universities {
		u.DistanceKm = haversine(lat, lng, u.Latitude, u.Longitude)
		unis[i] = u
	}
	sort.SliceStable(unis, func(i, j int) bool { return unis[i].DistanceKm < unis[j].DistanceKm })
	if len(unis) > limit {
		unis = unis[:limit]
	}

	groups := make([]models.NearbyGroup, 0, len(unis))
	for _, u := range unis {
		keywords := campusKeywords(u.Name)
		var matched []models.Event
		for _, ev := range s.events {
			loc := strings.ToLower(ev.Location)
			for _, k := range keywords {
				if strings.Contains(loc, k) {
					matched = append(matched, s.serialize(ev, ""))
					break
				}
			}
		}
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].StartTime < matched[j].StartTime })
		if len(matched) > eventsPerCampus {
			matched = matched[:eventsPerCampus]
		}
		groups = append(groups, models.NearbyGroup{University: u, Events: matched})
	}
	return groups
}

var genericCampusWords = map[string]bool{"university": true, "of": true, "the": true, "college": true}

// campusKeywords matches events by the full campus name or its first
// distinctive word ("University of Nairobi" also matches "nairobi").
func campusKeywords(name string) []string {
	name = strings.ToLower(name)
	keywords := []string{name}
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return keywords
	}
	for _, f := range fields {
		if !genericCampusWords[f] {
			return append(keywords, f)
		}
	}
	return keywords
}

type eventFilter struct {
	search string
	custom *bool
	limit  int
	latest bool
}

func (s *store) listEvents(f eventFilter, email string) []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(f.search)
	out := make([]models.Event, 0, len(s.events))
	for _, ev := range s.events {
		if search != "" && !strings.Contains(strings.ToLower(ev.Title), search) {
			continue
		}
		if f.custom != nil && ev.IsCustomLocation != *f.custom {
			continue
		}
		out = append(out, s.serialize(ev, email))
	}

	if f.latest {
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	}
	if f.limit > 0 && len(out) > f.limit {
		out = out[:f.limit]
	}
	return out
}

func (s *store) findEvent(id string) (int, bool) {
	for i, ev := range s.events {
		if ev.ID == id {
			return i, true
		}
	}
	return -1, false
}

// reserve reports whether the event exists and whether the email had
// already reserved it.
func (s *store) reserve(id, email string) (found, already bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findEvent(id)
	if !ok {
		return false, false
	}
	set := s.optIns[email]
	if set == nil {
		set = make(map[string]struct{})
		s.optIns[email] = set
	}
	if _, ok := set[id]; ok {
		return true, true
	}
	set[id] = struct{}{}
	if s.events[i].TicketsSold != nil {
		*s.events[i].TicketsSold++
	}
	return true, false
}

func (s *store) optInIDs(email string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.optIns[email]))
	for _, ev := range s.events {
		if _, ok := s.optIns[email][ev.ID]; ok {
			ids = append(ids, ev.ID)
		}
	}
	return ids
}

func (s *store) cancel(id, email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.optIns[email][id]; !ok {
		return false
	}
	delete(s.optIns[email], id)
	if i, ok := s.findEvent(id); ok && s.events[i].TicketsSold != nil && *s.events[i].TicketsSold > 0 {
		*s.events[i].TicketsSold--
	}
	return true
}

func (s *store) create(ev models.Event) models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev.ID = uuid.NewString()
	ev.CreatedAt = s.now().UTC().Format(timestampLayout)
	zero := 0
	ev.TicketsSold = &zero
	s.events = append(s.events, ev)
	return s.serialize(ev, "")
}

// deleteEvent returns found=false for unknown ids and owned=false when the
// caller did not create the event.
func (s *store) deleteEvent(id, email string) (found, owned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findEvent(id)
	if !ok {
		return false, false
	}
	if s.events[i].CreatedBy != email {
		return true, false
	}
	s.events = append(s.events[:i], s.events[i+1:]...)
	for _, set := range s.optIns {
		delete(set, id)
	}
	return true, true
}

func (s *store) searchUniversities(search string) []models.University {
	s.mu.Lock()
	defer s.mu.Unlock()

	search = strings.ToLower(search)
	out := make([]models.University, 0)
	for _, u := range s.universities {
		if search == "" || strings.Contains(strings.ToLower(u.Name), search) {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
