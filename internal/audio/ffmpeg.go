package audio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tphakala/voicedetect/internal/logger"
)

// decodeFFmpeg writes data to a temp file, probes it with ffprobe and
// decodes it to interleaved float32 at the native rate and channel count.
func (d *Decoder) decodeFFmpeg(ctx context.Context, data []byte, ext string) (*pcm, error) {
	if d.ffmpegPath == "" {
		return nil, fmt.Errorf("FFmpeg is not available")
	}

	tmp, err := os.CreateTemp(d.tempDir, "voicedetect-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			d.log.Warn("failed to remove temp file", logger.String("path", tmpPath), logger.Error(err))
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	sampleRate, numChans, err := d.probe(ctx, tmpPath)
	if err != nil {
		return nil, err
	}

	// -v error: only errors on stderr
	// -f f32le: raw little-endian float32, interleaved
	cmd := exec.CommandContext(ctx, d.ffmpegPath, //nolint:gosec // G204: binary from configuration, args built internally
		"-v", "error",
		"-nostdin",
		"-i", tmpPath,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(numChans),
		"pipe:1")

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffmpeg canceled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("ffmpeg failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	return interleavedF32ToPCM(out.Bytes(), numChans, sampleRate), nil
}

// probe returns the first audio stream's sample rate and channel count
func (d *Decoder) probe(ctx context.Context, path string) (sampleRate, channels int, err error) {
	if d.ffprobePath == "" {
		return 0, 0, fmt.Errorf("ffprobe is not available")
	}

	cmd := exec.CommandContext(ctx, d.ffprobePath, //nolint:gosec // G204: binary from configuration, args are fixed
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels",
		"-of", "default=noprint_wrappers=1",
		path)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, 0, fmt.Errorf("ffprobe canceled: %w", ctx.Err())
		}
		return 0, 0, fmt.Errorf("ffprobe failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	return parseProbeOutput(out.String())
}

// parseProbeOutput reads `key=value` lines produced by ffprobe
func parseProbeOutput(output string) (sampleRate, channels int, err error) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		n, convErr := strconv.Atoi(value)
		if convErr != nil {
			continue
		}
		switch key {
		case "sample_rate":
			sampleRate = n
		case "channels":
			channels = n
		}
	}
	if sampleRate <= 0 || channels <= 0 {
		return 0, 0, fmt.Errorf("ffprobe found no audio stream")
	}
	return sampleRate, channels, nil
}

func interleavedF32ToPCM(raw []byte, numChans, sampleRate int) *pcm {
	frames := len(raw) / (4 * numChans)
	channels := make([][]float32, numChans)
	for c := range channels {
		channels[c] = make([]float32, frames)
	}
	for i := range frames {
		for c := range numChans {
			off := (i*numChans + c) * 4
			channels[c][i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
		}
	}
	return &pcm{channels: channels, sampleRate: sampleRate}
}
