package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// requireDebugRoutes hides the debug routes unless they are enabled
func (s *Server) requireDebugRoutes(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.config.EnableDebugRoutes {
			return writeError(c, http.StatusNotFound, msgNotFound)
		}
		return next(c)
	}
}

// debugUpload handles POST /api/v1/_debug/upload and echoes the upload size
func (s *Server) debugUpload(c echo.Context) error {
	up, ok, err := s.readUpload(c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"filename": up.filename,
		"bytes":    len(up.data),
	})
}

// debugFeatures handles POST /api/v1/_debug/features and returns the full feature vector
func (s *Server) debugFeatures(c echo.Context) error {
	lang, ok, err := formLanguage(c, "Unsupported language")
	if !ok {
		return err
	}
	up, ok, err := s.readUpload(c)
	if !ok {
		return err
	}

	vec, err := s.classifier.Features(c.Request().Context(), up.data, up.filename, lang)
	if err != nil {
		return s.handlePipelineError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"features": vec.Map()})
}

// debugInfer handles POST /api/v1/_debug/infer. Duration limits are not applied.
func (s *Server) debugInfer(c echo.Context) error {
	lang, ok, err := formLanguage(c, "Unsupported language")
	if !ok {
		return err
	}
	up, ok, err := s.readUpload(c)
	if !ok {
		return err
	}

	outcome, err := s.classifier.Infer(c.Request().Context(), up.data, up.filename, lang)
	if err != nil {
		return s.handlePipelineError(c, err)
	}
	return c.JSON(http.StatusOK, outcome.Result)
}
