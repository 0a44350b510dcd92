package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/voicedetect/internal/classifier"
	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/language"
	"github.com/tphakala/voicedetect/internal/logger"
)

const (
	statusError   = "error"
	statusSuccess = "success"
)

// Client facing messages
const (
	msgMissingAPIKey    = "Missing API key. Include 'x-api-key' in request headers."
	msgInvalidAPIKey    = "Invalid API key"
	msgMissingFilename  = "Missing filename"
	msgUnsupportedType  = "Only WAV/FLAC/MP3 files are supported"
	msgFileTooLarge     = "File too large"
	msgDecodeFailed     = "Failed to decode audio"
	msgSilentAudio      = "Audio contains no speech above the silence threshold"
	msgExtraction       = "Could not extract audio features"
	msgBusy             = "Detection timed out, try again later"
	msgInternal         = "Internal server error"
	msgNotFound         = "Not found"
	msgInvalidBody      = "Invalid request body"
	msgInvalidBase64    = "audioBase64 is not valid base64"
	msgUnsupportedAudio = "audioFormat must be one of: mp3, wav, flac"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// unsupportedLanguageMessage lists the accepted language names
func unsupportedLanguageMessage() string {
	return "Unsupported language. Must be one of: " + strings.Join(language.Names(), ", ")
}

// fieldRequired mirrors the message shape used for missing request fields
func fieldRequired(field string) string {
	return fmt.Sprintf("Field required: %s", field)
}

// writeError sends an error response with the standard body
func writeError(c echo.Context, code int, message string) error {
	return c.JSON(code, ErrorResponse{Status: statusError, Message: message})
}

// translateError maps a pipeline error to an HTTP status and client message.
// Categories are checked before falling back to a 500.
func (s *Server) translateError(err error) (int, string) {
	limits := s.classifier.Limits()

	switch {
	case errors.Is(err, classifier.ErrTooShort):
		return http.StatusBadRequest, fmt.Sprintf("Audio too short; minimum is %g seconds", limits.MinDuration)
	case errors.Is(err, classifier.ErrTooLong):
		return http.StatusBadRequest, fmt.Sprintf("Audio too long; maximum is %g seconds", limits.MaxDuration)
	}

	switch errors.CategoryOf(err) {
	case errors.CategoryUnsupportedLanguage:
		return http.StatusBadRequest, unsupportedLanguageMessage()
	case errors.CategoryAudioDecode:
		return http.StatusBadRequest, msgDecodeFailed
	case errors.CategorySilentAudio:
		return http.StatusBadRequest, msgSilentAudio
	case errors.CategoryValidation:
		return http.StatusBadRequest, err.Error()
	case errors.CategoryFeatureExtraction:
		return http.StatusUnprocessableEntity, msgExtraction
	case errors.CategoryTimeout, errors.CategoryCancellation:
		return http.StatusServiceUnavailable, msgBusy
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// handlePipelineError logs and renders a classification failure
func (s *Server) handlePipelineError(c echo.Context, err error) error {
	code, message := s.translateError(err)

	log := s.log.WithContext(c.Request().Context())
	fields := []logger.Field{
		logger.Error(err),
		logger.Int("status", code),
		logger.String("category", string(errors.CategoryOf(err))),
		logger.String("path", c.Path()),
	}
	if code >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
	} else {
		log.Info("request rejected", fields...)
	}

	return writeError(c, code, message)
}

// httpErrorHandler renders errors that escape handlers, including those
// raised by echo itself, with the standard error body.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := msgInternal

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch code {
		case http.StatusRequestEntityTooLarge:
			message = msgFileTooLarge
		case http.StatusNotFound:
			message = msgNotFound
		default:
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		}
	} else {
		s.log.Error("unhandled error", logger.Error(err), logger.String("path", c.Request().URL.Path))
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = writeError(c, code, message)
	}
	if writeErr != nil {
		s.log.Error("failed to write error response", logger.Error(writeErr))
	}
}
