// Package audio decodes uploaded audio bytes into mono float32 waveforms
// at a requested sample rate.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/logger"
)

// ErrDecode is returned when audio bytes cannot be turned into samples
var ErrDecode = errors.NewStd("audio decode failed")

// Waveform is a mono signal with its sample rate
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playback length of the waveform
func (w *Waveform) Duration() time.Duration {
	if w == nil || w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}

// Seconds returns the playback length in seconds
func (w *Waveform) Seconds() float64 {
	if w == nil || w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Format identifies a container sniffed from the leading bytes
type Format string

const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatFLAC    Format = "flac"
	FormatMP3     Format = "mp3"
	FormatOgg     Format = "ogg"
)

// Sniff identifies the container from magic bytes
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case len(data) >= 4 && bytes.Equal(data[0:4], []byte("fLaC")):
		return FormatFLAC
	case len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	case len(data) >= 4 && bytes.Equal(data[0:4], []byte("OggS")):
		return FormatOgg
	default:
		return FormatUnknown
	}
}

// pcm is decoded audio before downmixing, laid out [channel][sample]
type pcm struct {
	channels   [][]float32
	sampleRate int
}

// Decoder converts encoded audio to mono waveforms.
// A Decoder is safe for concurrent use.
type Decoder struct {
	ffmpegPath  string
	ffprobePath string
	tempDir     string
	log         logger.Logger
}

// Option configures a Decoder
type Option func(*Decoder)

// WithFFmpegPath sets the ffmpeg binary used for fallback decoding
func WithFFmpegPath(path string) Option {
	return func(d *Decoder) { d.ffmpegPath = path }
}

// WithFFprobePath sets the ffprobe binary used to inspect fallback input
func WithFFprobePath(path string) Option {
	return func(d *Decoder) { d.ffprobePath = path }
}

// WithTempDir sets the directory for fallback temp files
func WithTempDir(dir string) Option {
	return func(d *Decoder) { d.tempDir = dir }
}

// WithLogger sets the decoder logger
func WithLogger(log logger.Logger) Option {
	return func(d *Decoder) { d.log = log }
}

// NewDecoder creates a Decoder
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = GetLogger()
	}
	return d
}

// GetLogger returns the audio package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("audio")
}

// Decode turns encoded bytes into a mono waveform at targetRate.
// WAV and FLAC are decoded in-process; everything else, and anything the
// in-process decoders reject, goes through ffmpeg.
func (d *Decoder) Decode(ctx context.Context, data []byte, filenameHint string, targetRate int) (*Waveform, error) {
	if targetRate <= 0 {
		return nil, decodeError(fmt.Errorf("invalid target sample rate %d", targetRate), filenameHint)
	}
	if len(data) == 0 {
		return nil, decodeError(errors.NewStd("empty input"), filenameHint)
	}

	format := Sniff(data)
	decoded, directErr := d.decodeDirect(data, format)
	if directErr != nil {
		d.log.Debug("in-process decode unavailable, using ffmpeg",
			logger.String("format", string(format)),
			logger.Error(directErr))

		var fallbackErr error
		decoded, fallbackErr = d.decodeFFmpeg(ctx, data, fallbackExtension(filenameHint, format))
		if fallbackErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, decodeError(errors.Join(directErr, fallbackErr), filenameHint)
		}
	}

	mono := averageChannels(decoded.channels)
	if len(mono) == 0 {
		return nil, decodeError(errors.NewStd("no samples decoded"), filenameHint)
	}

	if decoded.sampleRate != targetRate {
		resampled, err := Resample(mono, decoded.sampleRate, targetRate)
		if err != nil {
			return nil, decodeError(err, filenameHint)
		}
		mono = resampled
	}

	return &Waveform{Samples: mono, SampleRate: targetRate}, nil
}

func (d *Decoder) decodeDirect(data []byte, format Format) (*pcm, error) {
	switch format {
	case FormatWAV:
		return decodeWAV(data)
	case FormatFLAC:
		return decodeFLAC(data)
	default:
		return nil, fmt.Errorf("no in-process decoder for %q", format)
	}
}

// fallbackExtension picks the temp file extension ffmpeg uses to probe input
func fallbackExtension(hint string, format Format) string {
	if ext := strings.ToLower(filepath.Ext(hint)); ext != "" && len(ext) <= 6 {
		return ext
	}
	if format != FormatUnknown {
		return "." + string(format)
	}
	return ".bin"
}

func decodeError(cause error, filename string) error {
	return errors.New(fmt.Errorf("%w: %w", ErrDecode, cause)).
		Component("audio").
		Category(errors.CategoryAudioDecode).
		FileContext(filename, 0).
		Build()
}
