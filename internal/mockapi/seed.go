package mockapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"campus-events/models"

	"github.com/shopspring/decimal"
)

func SeedUniversities() []models.University {
	return []models.University{
		{ID: "uni-strathmore", Name: "Strathmore University", Type: "Private", Latitude: -1.3100, Longitude: 36.8125},
		{ID: "uni-uon", Name: "University of Nairobi", Type: "Public", Latitude: -1.2796, Longitude: 36.8163},
		{ID: "uni-ku", Name: "Kenyatta University", Type: "Public", Latitude: -1.1804, Longitude: 36.9276},
		{ID: "uni-usiu", Name: "USIU-Africa", Type: "Private", Latitude: -1.2197, Longitude: 36.8796},
		{ID: "uni-jkuat", Name: "Jomo Kenyatta University of Agriculture and Technology", Type: "Public", Latitude: -1.0912, Longitude: 37.0117},
		{ID: "uni-moi", Name: "Moi University", Type: "Public", Latitude: 0.2855, Longitude: 35.2927},
	}
}

// SeedEvents returns sample events starting over the days after now.
func SeedEvents(now time.Time) []models.Event {
	day := func(n, hour int) string {
		d := now.UTC().AddDate(0, 0, n)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC).Format("2006-01-02T15:04")
	}
	created := func(minutesAgo int) string {
		return now.UTC().Add(-time.Duration(minutesAgo) * time.Minute).Format(timestampLayout)
	}
	kes := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

	return []models.Event{
		{ID: "ev-jazz", Title: "Jazz Night", Description: "Live jazz on the quad", Location: "Strathmore University",
			StartTime: day(2, 19), EndTime: day(2, 22), TicketPrice: kes(500), OpenTo: "everyone", CreatedBy: "events@strathmore.edu", CreatedAt: created(50)},
		{ID: "ev-hack", Title: "Campus Hackathon", Description: "48 hours of building", Location: "Strathmore University",
			StartTime: day(5, 9), EndTime: day(7, 17), IsFree: true, OpenTo: "students", CreatedBy: "ict@strathmore.edu", CreatedAt: created(40)},
		{ID: "ev-career", Title: "Career Fair", Description: "Meet employers from across Nairobi", Location: "Nairobi main campus",
			StartTime: day(3, 10), EndTime: day(3, 16), IsFree: true, OpenTo: "everyone", CreatedBy: "careers@uonbi.ac.ke", CreatedAt: created(30)},
		{ID: "ev-drama", Title: "Drama Festival", Description: "Inter-university theatre", Location: "Kenyatta University",
			StartTime: day(4, 14), EndTime: day(4, 20), TicketPrice: kes(300), OpenTo: "everyone", CreatedBy: "arts@ku.ac.ke", CreatedAt: created(20)},
		{ID: "ev-rooftop", Title: "Rooftop Sundowner", Description: "Music and food downtown", Location: "Kilimani Rooftop Lounge",
			StartTime: day(6, 17), EndTime: day(6, 23), TicketPrice: kes(1000), IsCustomLocation: true, ServiceFee: kes(100),
			OpenTo: "everyone", CreatedBy: "social@usiu.ac.ke", CreatedAt: created(10)},
		{ID: "ev-hike", Title: "Ngong Hills Hike", Description: "Morning hike with the outdoors club", Location: "Ngong Hills",
			StartTime: day(8, 6), EndTime: day(8, 13), IsFree: true, IsCustomLocation: true, ServiceFee: kes(50),
			OpenTo: "students", CreatedBy: "outdoors@strathmore.edu", CreatedAt: created(5)},
	}
}

// ListenAndServe serves the backend on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shut down dev backend", "error", err)
		}
	}()

	s.logger.Info("Dev backend listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
