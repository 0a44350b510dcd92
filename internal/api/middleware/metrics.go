package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/voicedetect/internal/observability/metrics"
)

// NewMetrics records request count, latency and response size per route.
// The route template is used as the path label to keep cardinality bounded.
func NewMetrics(m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method

			// Errors returned up the chain are rendered after this middleware
			// runs, so their status is taken from the error itself.
			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}

			switch {
			case status >= http.StatusInternalServerError:
				m.RecordHTTPRequestError(method, path, "server")
			case status >= http.StatusBadRequest:
				m.RecordHTTPRequestError(method, path, "client")
			}

			m.RecordHTTPRequest(method, path, status, time.Since(start).Seconds())
			m.RecordHTTPResponseSize(method, path, c.Response().Size)
			return err
		}
	}
}
