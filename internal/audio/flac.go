package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tphakala/flac"
)

func decodeFLAC(data []byte) (*pcm, error) {
	decoder, err := flac.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid FLAC stream: %w", err)
	}

	bitDepth := decoder.BitsPerSample
	numChans := decoder.NChannels
	if numChans < 1 {
		return nil, fmt.Errorf("invalid channel count %d", numChans)
	}

	divisor, err := getAudioDivisor(bitDepth)
	if err != nil {
		return nil, err
	}

	bytesPerSample := bitDepth / 8
	frameBytes := bytesPerSample * numChans
	channels := make([][]float32, numChans)
	if decoder.TotalSamples > 0 {
		for c := range channels {
			channels[c] = make([]float32, 0, int(decoder.TotalSamples))
		}
	}

	for {
		frame, err := decoder.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error decoding FLAC frame: %w", err)
		}

		for i := 0; i+frameBytes <= len(frame); i += frameBytes {
			for c := range numChans {
				off := i + c*bytesPerSample
				channels[c] = append(channels[c], float32(readSample(frame[off:], bitDepth))/divisor)
			}
		}
	}

	return &pcm{channels: channels, sampleRate: decoder.SampleRate}, nil
}

// readSample decodes one little-endian signed sample
func readSample(b []byte, bitDepth int) int32 {
	switch bitDepth {
	case 8:
		return int32(int8(b[0]))
	case 16:
		return int32(int16(binary.LittleEndian.Uint16(b)))
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		// sign-extend from 24 bits
		return v << 8 >> 8
	default:
		return int32(binary.LittleEndian.Uint32(b))
	}
}
