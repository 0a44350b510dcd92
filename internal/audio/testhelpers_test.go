package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// encodeWAV writes interleaved integer samples as a PCM WAV file and returns its bytes
func encodeWAV(t *testing.T, data []int, sampleRate, bitDepth, numChans int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, sampleRate, bitDepth, numChans, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: numChans, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	return out
}

// sineInts returns n samples of a sine at the given fraction of full scale
func sineInts(freq float64, sampleRate, n, bitDepth int, level float64) []int {
	full := math.Pow(2, float64(bitDepth-1)) - 1
	out := make([]int, n)
	for i := range out {
		out[i] = int(math.Round(level * full * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))))
	}
	return out
}
