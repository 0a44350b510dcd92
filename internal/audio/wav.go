package audio

import (
	"bytes"
	"fmt"

	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

func decodeWAV(data []byte) (*pcm, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file format")
	}
	// IEEE float and compressed WAV are left to ffmpeg
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("unsupported WAV audio format %d", decoder.WavAudioFormat)
	}

	bitDepth := int(decoder.BitDepth)
	numChans := int(decoder.NumChans)
	if numChans < 1 {
		return nil, fmt.Errorf("invalid channel count %d", numChans)
	}

	divisor, err := getAudioDivisor(bitDepth)
	if err != nil {
		return nil, err
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("error reading WAV samples: %w", err)
	}

	frames := len(buf.Data) / numChans
	channels := make([][]float32, numChans)
	for c := range channels {
		channels[c] = make([]float32, frames)
	}

	for i := range frames {
		for c := range numChans {
			sample := buf.Data[i*numChans+c]
			// 8-bit WAV is unsigned with a 128 midpoint
			if bitDepth == 8 {
				sample -= 128
			}
			channels[c][i] = float32(sample) / divisor
		}
	}

	return &pcm{channels: channels, sampleRate: int(decoder.SampleRate)}, nil
}

// getAudioDivisor returns the full-scale value for a signed integer bit depth
func getAudioDivisor(bitDepth int) (float32, error) {
	switch bitDepth {
	case 8:
		return 128.0, nil
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported audio bit depth: %d", bitDepth)
	}
}
