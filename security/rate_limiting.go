package security

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"golang.org/x/time/rate"
)

const RateLimitMessage = "You're making too many requests. Please wait a moment."

type RateLimiter struct {
	store *memoryStore
}

// NewRateLimiter allows perSecond requests per client with the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{store: newMemoryStore(rate.Limit(perSecond), burst, 3*time.Minute)}
}

// Middleware answers over-limit clients with 429 and an {error, message}
// body.
func (r *RateLimiter) Middleware() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: r.store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "Access denied",
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]any{
				"error":   "Too many requests",
				"message": RateLimitMessage,
				"status":  http.StatusTooManyRequests,
			})
		},
	})
}

// AntiBotMiddleware rejects crawler user agents.
func (r *RateLimiter) AntiBotMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isSuspiciousUserAgent(c.Request().Header.Get("User-Agent")) {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "Access denied",
				})
			}
			return next(c)
		}
	}
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// memoryStore keeps one token bucket per client and forgets clients idle
// for longer than expiresIn.
type memoryStore struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	expiresIn time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newMemoryStore(limit rate.Limit, burst int, expiresIn time.Duration) *memoryStore {
	return &memoryStore{
		visitors:  make(map[string]*visitor),
		limit:     limit,
		burst:     burst,
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

func (s *memoryStore) Allow(identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	v, ok := s.visitors[identifier]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[identifier] = v
	}
	v.lastSeen = now

	if now.Sub(s.lastSweep) > s.expiresIn {
		for id, other := range s.visitors {
			if now.Sub(other.lastSeen) > s.expiresIn {
				delete(s.visitors, id)
			}
		}
		s.lastSweep = now
	}

	return v.limiter.AllowN(now, 1), nil
}
