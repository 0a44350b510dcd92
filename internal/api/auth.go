package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HeaderAPIKey carries the client API key
const HeaderAPIKey = "x-api-key"

// Auth outcomes recorded in metrics
const (
	authSuccess = "success"
	authMissing = "missing"
	authInvalid = "invalid"
)

// requireAPIKey rejects requests without the configured API key.
// With no key configured every request passes.
func (s *Server) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.config.APIKey == "" {
			return next(c)
		}

		provided := c.Request().Header.Get(HeaderAPIKey)
		if provided == "" {
			s.recordAuth(authMissing)
			return writeError(c, http.StatusUnauthorized, msgMissingAPIKey)
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.config.APIKey)) != 1 {
			s.recordAuth(authInvalid)
			return writeError(c, http.StatusForbidden, msgInvalidAPIKey)
		}

		s.recordAuth(authSuccess)
		return next(c)
	}
}

func (s *Server) recordAuth(status string) {
	if s.metrics != nil {
		s.metrics.HTTP.RecordAuthOperation(status)
	}
}
