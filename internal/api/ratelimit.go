package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/tphakala/voicedetect/internal/logger"
	"github.com/tphakala/voicedetect/internal/observability/metrics"
)

// slidingWindowStore implements echo's RateLimiterStore with a per-identifier
// log of request timestamps. A request is allowed while fewer than limit
// requests were accepted during the trailing window.
type slidingWindowStore struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	hits      *cache.Cache
	lastSweep time.Time
	now       func() time.Time
}

// newSlidingWindowStore creates a store allowing limit requests per window.
// The cache runs without a janitor goroutine; expired entries are swept
// inline at most once per window.
func newSlidingWindowStore(limit int, window time.Duration) *slidingWindowStore {
	if limit < 1 {
		limit = 1
	}
	return &slidingWindowStore{
		limit:  limit,
		window: window,
		hits:   cache.New(window, 0),
		now:    time.Now,
	}
}

// Allow records a request for identifier and reports whether it is within the limit
func (s *slidingWindowStore) Allow(identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.window {
		s.hits.DeleteExpired()
		s.lastSweep = now
	}

	var stamps []time.Time
	if v, ok := s.hits.Get(identifier); ok {
		stamps, _ = v.([]time.Time)
	}

	cutoff := now.Add(-s.window)
	kept := stamps[:0]
	for _, ts := range stamps {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= s.limit {
		s.hits.Set(identifier, kept, s.window)
		return false, nil
	}

	kept = append(kept, now)
	s.hits.Set(identifier, kept, s.window)
	return true, nil
}

// rateLimitResponse is the body returned with 429 responses
type rateLimitResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	Limit         int    `json:"limit"`
	WindowSeconds int    `json:"windowSeconds"`
}

// newRateLimiter builds the per-IP rate limiting middleware
func newRateLimiter(store *slidingWindowStore, m *metrics.HTTPMetrics, log logger.Logger) echo.MiddlewareFunc {
	deny := func(c echo.Context) error {
		if m != nil {
			m.RecordRateLimited()
		}
		return c.JSON(http.StatusTooManyRequests, rateLimitResponse{
			Status:        statusError,
			Message:       "Rate limit exceeded",
			Limit:         store.limit,
			WindowSeconds: int(store.window / time.Second),
		})
	}

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: echomw.DefaultSkipper,
		Store:   store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			log.Warn("rate limiter identifier extraction failed", logger.Error(err))
			return deny(c)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			log.Debug("rate limit exceeded", logger.String("ip", identifier))
			return deny(c)
		},
	})
}
