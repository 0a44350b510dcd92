package api

import (
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/language"
	"github.com/tphakala/voicedetect/internal/logger"
	"github.com/tphakala/voicedetect/internal/scoring"
)

// Accepted upload extensions and JSON audio formats
var (
	allowedExtensions = map[string]bool{".wav": true, ".flac": true, ".mp3": true}
	allowedFormats    = map[string]bool{"mp3": true, "wav": true, "flac": true}
)

// ServiceInfo is returned by GET /
type ServiceInfo struct {
	Service            string   `json:"service"`
	Version            string   `json:"version"`
	SupportedLanguages []string `json:"supportedLanguages"`
	Docs               string   `json:"docs"`
	APIBase            string   `json:"apiBase"`
}

// LanguagesResponse is returned by GET /api/v1/languages
type LanguagesResponse struct {
	Languages []string `json:"languages"`
}

// ClassifyResponse is returned by POST /api/v1/classify
type ClassifyResponse struct {
	Status               string             `json:"status"`
	Classification       scoring.Label      `json:"classification"`
	ConfidenceScore      float64            `json:"confidenceScore"`
	LanguageDetected     language.Language  `json:"languageDetected"`
	Probabilities        map[string]float64 `json:"probabilities"`
	AudioDurationSeconds float64            `json:"audioDurationSeconds"`
	ProcessingMs         float64            `json:"processingMs"`
	Explanation          string             `json:"explanation"`
}

// VoiceDetectionRequest is the body of POST /api/voice-detection.
// audioBase64Format is accepted as an alias of audioBase64.
type VoiceDetectionRequest struct {
	Language          string `json:"language"`
	AudioFormat       string `json:"audioFormat"`
	AudioBase64       string `json:"audioBase64"`
	AudioBase64Format string `json:"audioBase64Format"`
}

// VoiceDetectionResponse is returned by POST /api/voice-detection
type VoiceDetectionResponse struct {
	Status          string            `json:"status"`
	Language        language.Language `json:"language"`
	Classification  scoring.Label     `json:"classification"`
	ConfidenceScore float64           `json:"confidenceScore"`
	Explanation     string            `json:"explanation"`
}

// root handles GET /
func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, ServiceInfo{
		Service:            "AI Voice Detection API",
		Version:            s.config.Version,
		SupportedLanguages: language.Names(),
		Docs:               "/docs",
		APIBase:            "/api/v1",
	})
}

// languages handles GET /api/v1/languages
func (s *Server) languages(c echo.Context) error {
	return c.JSON(http.StatusOK, LanguagesResponse{Languages: language.Names()})
}

// upload is a validated multipart audio file
type upload struct {
	filename string
	data     []byte
}

// readUpload reads and validates the multipart "file" field. On failure the
// error response has already been written and ok is false.
func (s *Server) readUpload(c echo.Context) (u upload, ok bool, err error) {
	fh, ferr := c.FormFile("file")
	if ferr != nil {
		if errors.Is(ferr, http.ErrMissingFile) {
			return u, false, writeError(c, http.StatusUnprocessableEntity, fieldRequired("file"))
		}
		return u, false, writeError(c, http.StatusBadRequest, msgInvalidBody)
	}

	if fh.Filename == "" {
		return u, false, writeError(c, http.StatusBadRequest, msgMissingFilename)
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(fh.Filename))] {
		return u, false, writeError(c, http.StatusBadRequest, msgUnsupportedType)
	}
	if fh.Size > s.config.MaxUploadBytes {
		return u, false, writeError(c, http.StatusRequestEntityTooLarge, msgFileTooLarge)
	}

	data, rerr := readFormFile(fh)
	if rerr != nil {
		s.log.Warn("failed to read upload", logger.Error(rerr))
		return u, false, writeError(c, http.StatusBadRequest, msgInvalidBody)
	}
	if int64(len(data)) > s.config.MaxUploadBytes {
		return u, false, writeError(c, http.StatusRequestEntityTooLarge, msgFileTooLarge)
	}

	if m := s.httpMetrics(); m != nil {
		m.RecordUploadSize(c.Path(), len(data))
	}
	return upload{filename: fh.Filename, data: data}, true, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// formLanguage reads and validates the "language" form field
func formLanguage(c echo.Context, unsupportedMessage string) (language.Language, bool, error) {
	raw := c.FormValue("language")
	if raw == "" {
		return "", false, writeError(c, http.StatusUnprocessableEntity, fieldRequired("language"))
	}
	lang, err := language.Parse(raw)
	if err != nil {
		return "", false, writeError(c, http.StatusBadRequest, unsupportedMessage)
	}
	return lang, true, nil
}

// classify handles POST /api/v1/classify
func (s *Server) classify(c echo.Context) error {
	lang, ok, err := formLanguage(c, unsupportedLanguageMessage())
	if !ok {
		return err
	}

	up, ok, err := s.readUpload(c)
	if !ok {
		return err
	}

	outcome, err := s.classifier.Classify(c.Request().Context(), up.data, up.filename, lang)
	if err != nil {
		return s.handlePipelineError(c, err)
	}

	res := outcome.Result
	return c.JSON(http.StatusOK, ClassifyResponse{
		Status:               statusSuccess,
		Classification:       res.Label,
		ConfidenceScore:      res.Confidence,
		LanguageDetected:     outcome.Language,
		Probabilities:        res.Probabilities,
		AudioDurationSeconds: outcome.DurationSeconds,
		ProcessingMs:         outcome.ProcessingMs,
		Explanation:          res.Explanation,
	})
}

// voiceDetection handles POST /api/voice-detection with base64 audio in a JSON body
func (s *Server) voiceDetection(c echo.Context) error {
	var req VoiceDetectionRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return writeError(c, http.StatusUnprocessableEntity, msgInvalidBody)
	}

	langName := strings.TrimSpace(req.Language)
	format := strings.TrimSpace(req.AudioFormat)
	payload := strings.TrimSpace(req.AudioBase64)
	if payload == "" {
		payload = strings.TrimSpace(req.AudioBase64Format)
	}

	switch {
	case langName == "":
		return writeError(c, http.StatusUnprocessableEntity, fieldRequired("language"))
	case format == "":
		return writeError(c, http.StatusUnprocessableEntity, fieldRequired("audioFormat"))
	case payload == "":
		return writeError(c, http.StatusUnprocessableEntity, fieldRequired("audioBase64"))
	}

	lang, err := language.Parse(langName)
	if err != nil {
		return writeError(c, http.StatusUnprocessableEntity, unsupportedLanguageMessage())
	}
	if !allowedFormats[format] {
		return writeError(c, http.StatusUnprocessableEntity, msgUnsupportedAudio)
	}

	data, err := decodeBase64Audio(payload)
	if err != nil {
		return writeError(c, http.StatusUnprocessableEntity, msgInvalidBase64)
	}
	if int64(len(data)) > s.config.MaxUploadBytes {
		return writeError(c, http.StatusRequestEntityTooLarge, msgFileTooLarge)
	}
	if m := s.httpMetrics(); m != nil {
		m.RecordUploadSize(c.Path(), len(data))
	}

	outcome, err := s.classifier.Classify(c.Request().Context(), data, "audio."+format, lang)
	if err != nil {
		return s.handlePipelineError(c, err)
	}

	return c.JSON(http.StatusOK, VoiceDetectionResponse{
		Status:          statusSuccess,
		Language:        outcome.Language,
		Classification:  outcome.Result.Label,
		ConfidenceScore: outcome.Result.Confidence,
		Explanation:     outcome.Result.Explanation,
	})
}

// decodeBase64Audio strips an optional data URI prefix and embedded
// whitespace, then decodes padded or unpadded standard base64.
func decodeBase64Audio(payload string) ([]byte, error) {
	if strings.HasPrefix(payload, "data:") {
		if _, rest, found := strings.Cut(payload, ";base64,"); found {
			payload = rest
		}
	}
	payload = strings.Join(strings.Fields(payload), "")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, base64.CorruptInputError(0)
	}
	return data, nil
}
