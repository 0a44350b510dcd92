package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/voicedetect/internal/audio"
	"github.com/tphakala/voicedetect/internal/classifier"
	"github.com/tphakala/voicedetect/internal/detector"
	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/observability"
	vtestutil "github.com/tphakala/voicedetect/internal/testutil"
)

// newTestServer builds a server around the real heuristic pipeline.
// ffmpeg is pointed at a missing binary so fallback decoding fails fast.
func newTestServer(t *testing.T, mutate func(*Config), opts ...ServerOption) *Server {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	if mutate != nil {
		mutate(cfg)
	}

	d, err := detector.New(detector.ModeHeuristic, detector.Deps{})
	require.NoError(t, err)

	m, err := observability.NewMetrics(d.Name())
	require.NoError(t, err)

	missing := t.TempDir() + "/no-ffmpeg"
	dec := audio.NewDecoder(audio.WithFFmpegPath(missing), audio.WithFFprobePath(missing), audio.WithTempDir(t.TempDir()))
	svc := classifier.New(dec, detector.NewPool(d, 2),
		classifier.WithMetrics(m.Detector),
		classifier.WithLimits(classifier.Limits{MinDuration: 0.5, MaxDuration: 3}))

	s, err := New(cfg, append([]ServerOption{WithClassifier(svc), WithMetrics(m)}, opts...)...)
	require.NoError(t, err)
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, path string, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, code int, message string) {
	t.Helper()
	require.Equal(t, code, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	if message != "" {
		assert.Equal(t, message, body["message"])
	}
}

func TestRootAndLanguages(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var info ServiceInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "AI Voice Detection API", info.Service)
	assert.Equal(t, DefaultVersion, info.Version)
	assert.Equal(t, []string{"Tamil", "English", "Hindi", "Malayalam", "Telugu"}, info.SupportedLanguages)
	assert.Equal(t, "/docs", info.Docs)
	assert.Equal(t, "/api/v1", info.APIBase)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/languages", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var langs LanguagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &langs))
	assert.Equal(t, info.SupportedLanguages, langs.Languages)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var h HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "heuristic", h.Detector)
	assert.Equal(t, "auto", h.Device)
	assert.False(t, h.GPU.Available)
	assert.Positive(t, h.CPU.Threads)
	assert.Positive(t, h.CPU.PID)
	assert.True(t, strings.HasPrefix(h.CPU.Go, "go"))
	assert.NotEmpty(t, h.CPU.Platform)
	assert.GreaterOrEqual(t, h.UptimeSeconds, 0.0)
}

func TestClassifyTone(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	req := multipartRequest(t, "/api/v1/classify", map[string]string{"language": "English"}, "tone.wav", vtestutil.SineWAV(t, 220, 1.5))
	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "AI_GENERATED", string(resp.Classification))
	assert.Equal(t, "English", string(resp.LanguageDetected))
	assert.InDelta(t, 1.5, resp.AudioDurationSeconds, 0.01)
	assert.GreaterOrEqual(t, resp.ProcessingMs, 0.0)
	assert.Contains(t, resp.Probabilities, "ai")
	assert.Contains(t, resp.Probabilities, "human")
	assert.InDelta(t, 1.0, resp.Probabilities["ai"]+resp.Probabilities["human"], 1e-9)
	assert.NotEmpty(t, resp.Explanation)
}

func TestClassifyRejections(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *Config) { c.MaxUploadBytes = 40 * 1024 })

	tone := vtestutil.SineWAV(t, 220, 1)

	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		data     []byte
		code     int
		message  string
	}{
		{"unsupported language", map[string]string{"language": "Klingon"}, "a.wav", tone, 400,
			"Unsupported language. Must be one of: Tamil, English, Hindi, Malayalam, Telugu"},
		{"missing language", nil, "a.wav", tone, 422, "Field required: language"},
		{"missing file", map[string]string{"language": "Hindi"}, "", nil, 422, "Field required: file"},
		{"unsupported extension", map[string]string{"language": "Hindi"}, "a.ogg", tone, 400,
			"Only WAV/FLAC/MP3 files are supported"},
		{"too large", map[string]string{"language": "Hindi"}, "a.wav", vtestutil.SineWAV(t, 220, 2), 413, "File too large"},
		{"too short", map[string]string{"language": "Hindi"}, "a.wav", vtestutil.SineWAV(t, 220, 0.3), 400,
			"Audio too short; minimum is 0.5 seconds"},
		{"undecodable", map[string]string{"language": "Hindi"}, "a.mp3", []byte("definitely not audio"), 400,
			"Failed to decode audio"},
		{"silent", map[string]string{"language": "Telugu"}, "a.wav", vtestutil.SilentWAV(t, 1), 400, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(s, multipartRequest(t, "/api/v1/classify", tt.fields, tt.filename, tt.data))
			assertError(t, rec, tt.code, tt.message)
		})
	}
}

func TestClassifyTooLong(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	// The test classifier allows at most 3 seconds
	rec := serve(s, multipartRequest(t, "/api/v1/classify", map[string]string{"language": "Tamil"}, "long.wav", vtestutil.SineWAV(t, 220, 4)))
	assertError(t, rec, http.StatusBadRequest, "Audio too long; maximum is 3 seconds")
}

func TestAPIKey(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *Config) { c.APIKey = "s3cret" })

	newReq := func() *http.Request {
		return multipartRequest(t, "/api/v1/classify", map[string]string{"language": "English"}, "tone.wav", vtestutil.SineWAV(t, 220, 1.5))
	}

	rec := serve(s, newReq())
	assertError(t, rec, http.StatusUnauthorized, "Missing API key. Include 'x-api-key' in request headers.")

	req := newReq()
	req.Header.Set(HeaderAPIKey, "wrong")
	assertError(t, serve(s, req), http.StatusForbidden, "Invalid API key")

	req = newReq()
	req.Header.Set(HeaderAPIKey, "s3cret")
	rec = serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Public routes stay open
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *Config) { c.RateLimitRPM = 2 })

	for range 2 {
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/languages", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/languages", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Rate limit exceeded", body["message"])
	assert.InDelta(t, 2, body["limit"], 0)
	assert.InDelta(t, 60, body["windowSeconds"], 0)

	// Another client is counted separately
	req := httptest.NewRequest(http.MethodGet, "/api/v1/languages", nil)
	req.RemoteAddr = "198.51.100.7:4321"
	assert.Equal(t, http.StatusOK, serve(s, req).Code)
}

func TestVoiceDetection(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	encoded := base64.StdEncoding.EncodeToString(vtestutil.SineWAV(t, 220, 1.5))

	t.Run("plain base64", func(t *testing.T) {
		t.Parallel()
		rec := serve(s, jsonRequest(t, "/api/voice-detection", map[string]string{
			"language":    " English ",
			"audioFormat": "wav ",
			"audioBase64": encoded,
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp VoiceDetectionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "success", resp.Status)
		assert.Equal(t, "English", string(resp.Language))
		assert.Equal(t, "AI_GENERATED", string(resp.Classification))
		assert.NotEmpty(t, resp.Explanation)
	})

	t.Run("data uri under alias field", func(t *testing.T) {
		t.Parallel()
		rec := serve(s, jsonRequest(t, "/api/voice-detection", map[string]string{
			"language":          "Tamil",
			"audioFormat":       "wav",
			"audioBase64Format": "data:audio/wav;base64," + encoded,
		}))
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	rejections := []struct {
		name string
		body any
		code int
	}{
		{"missing fields", map[string]string{"language": "English"}, 422},
		{"unsupported language", map[string]string{"language": "Latin", "audioFormat": "wav", "audioBase64": encoded}, 422},
		{"unsupported format", map[string]string{"language": "English", "audioFormat": "aac", "audioBase64": encoded}, 422},
		{"invalid base64", map[string]string{"language": "English", "audioFormat": "wav", "audioBase64": "%%%not base64%%%"}, 422},
		{"wrong field type", map[string]any{"language": 7}, 422},
		{"undecodable audio", map[string]string{"language": "English", "audioFormat": "mp3", "audioBase64": base64.StdEncoding.EncodeToString([]byte("noise"))}, 400},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assertError(t, serve(s, jsonRequest(t, "/api/voice-detection", tt.body)), tt.code, "")
		})
	}
}

func TestDebugRoutesDisabled(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	for _, route := range []string{"upload", "features", "infer"} {
		req := multipartRequest(t, "/api/v1/_debug/"+route, map[string]string{"language": "English"}, "tone.wav", vtestutil.SineWAV(t, 220, 1))
		assertError(t, serve(s, req), http.StatusNotFound, "Not found")
	}
}

func TestDebugRoutesEnabled(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *Config) { c.EnableDebugRoutes = true })

	tone := vtestutil.SineWAV(t, 300, 1)

	rec := serve(s, multipartRequest(t, "/api/v1/_debug/upload", nil, "tone.wav", tone))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "tone.wav", body["filename"])
	assert.InDelta(t, len(tone), body["bytes"], 0)

	rec = serve(s, multipartRequest(t, "/api/v1/_debug/features", map[string]string{"language": "Malayalam"}, "tone.wav", tone))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var feats struct {
		Features map[string]float64 `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feats))
	assert.Len(t, feats.Features, 12)
	assert.InDelta(t, 300, feats.Features["pitch_mean_hz"], 5)

	rec = serve(s, multipartRequest(t, "/api/v1/_debug/features", map[string]string{"language": "Elvish"}, "tone.wav", tone))
	assertError(t, rec, http.StatusBadRequest, "Unsupported language")

	// Infer skips the duration limits: 4 s exceeds the 3 s maximum
	rec = serve(s, multipartRequest(t, "/api/v1/_debug/infer", map[string]string{"language": "English"}, "long.wav", vtestutil.SineWAV(t, 220, 4)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decodeBody(t, rec)
	assert.Equal(t, "AI_GENERATED", body["classification"])
	assert.Contains(t, body, "confidenceScore")
	assert.Contains(t, body, "probabilities")
	assert.Contains(t, body, "explanation")
	assert.Contains(t, body, "features")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	rec := serve(s, multipartRequest(t, "/api/v1/classify", map[string]string{"language": "English"}, "tone.wav", vtestutil.SineWAV(t, 220, 1.5)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, "voicedetect_detections_total")
	assert.Contains(t, out, `http_requests_total{method="POST",path="/api/v1/classify",status_code="200"} 1`)
	assert.Contains(t, out, "http_upload_size_bytes")
}

func TestMetricsEndpointDisabled(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *Config) { c.MetricsEnabled = false })

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assertError(t, rec, http.StatusNotFound, "Not found")
}

func TestTranslateError(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	build := func(sentinel error, cat errors.ErrorCategory) error {
		return errors.New(fmt.Errorf("%w: detail", sentinel)).Category(cat).Build()
	}

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"too short", build(classifier.ErrTooShort, errors.CategoryValidation), 400},
		{"decode", build(audio.ErrDecode, errors.CategoryAudioDecode), 400},
		{"extraction", build(errors.NewStd("nan"), errors.CategoryFeatureExtraction), 422},
		{"timeout", build(errors.NewStd("slot"), errors.CategoryTimeout), 503},
		{"model", build(errors.NewStd("weights"), errors.CategoryModelLoad), 500},
		{"plain", errors.NewStd("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, msg := s.translateError(tt.err)
			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, msg)
			assert.NotContains(t, msg, "detail")
		})
	}
}

func TestReload(t *testing.T) {
	t.Parallel()

	calls := 0
	s := newTestServer(t, nil, WithReloader(func() error {
		calls++
		if calls > 1 {
			return errors.NewStd("bad file")
		}
		return nil
	}))

	s.Reload()
	s.Reload()
	assert.Equal(t, 2, calls)

	// A server without a reloader ignores the request
	newTestServer(t, nil).Reload()
}

func TestNewRequiresClassifier(t *testing.T) {
	t.Parallel()
	_, err := New(DefaultConfig())
	require.Error(t, err)

	cfg := DefaultConfig()
	cfg.RateLimitRPM = 0
	_, err = New(cfg)
	require.Error(t, err)
}

func TestStartAndShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := newTestServer(t, nil)
	s.Start()

	require.Eventually(t, func() bool { return s.Echo().ListenerAddr() != nil },
		vtestutil.DefaultTestTimeout, 10*time.Millisecond)

	transport := &http.Transport{DisableKeepAlives: true}
	client := &http.Client{Transport: transport, Timeout: vtestutil.DefaultTestTimeout}

	resp, err := client.Get("http://" + s.Echo().ListenerAddr().String() + "/api/v1/languages")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	transport.CloseIdleConnections()

	ctx, cancel := context.WithTimeout(t.Context(), DefaultShutdownTimeout)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}
