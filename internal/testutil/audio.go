package testutil

import (
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// TestSampleRate is the rate used by the synthetic fixtures
const TestSampleRate = 16000

// Sine returns seconds of a sine tone at amplitude amp
func Sine(freq, seconds, amp float64, sampleRate int) []float32 {
	n := int(seconds * float64(sampleRate))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

// Noise returns seconds of uniform white noise in [-amp, amp] from a seeded generator
func Noise(seconds, amp float64, sampleRate int, seed uint64) []float32 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // test fixture
	n := int(seconds * float64(sampleRate))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * (rng.Float64()*2 - 1))
	}
	return out
}

// Vibrato returns a tone whose frequency wobbles around freq by depth Hz at rate Hz,
// with a slow amplitude tremolo
func Vibrato(freq, depth, rate, seconds float64, sampleRate int) []float32 {
	n := int(seconds * float64(sampleRate))
	out := make([]float32, n)
	var phase float64
	for i := range out {
		t := float64(i) / float64(sampleRate)
		f := freq + depth*math.Sin(2*math.Pi*rate*t)
		phase += 2 * math.Pi * f / float64(sampleRate)
		amp := 0.5 + 0.2*math.Sin(2*math.Pi*3*t)
		out[i] = float32(amp * math.Sin(phase))
	}
	return out
}

// WAV encodes float samples in [-1, 1] as a 16-bit mono PCM WAV file
func WAV(t testing.TB, samples []float32, sampleRate int) []byte {
	t.Helper()

	ints := make([]int, len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		ints[i] = int(math.Round(v * 32767))
	}

	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           ints,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// SineWAV is WAV of a half-scale sine tone at TestSampleRate
func SineWAV(t testing.TB, freq, seconds float64) []byte {
	t.Helper()
	return WAV(t, Sine(freq, seconds, 0.5, TestSampleRate), TestSampleRate)
}

// SilentWAV is WAV of digital silence at TestSampleRate
func SilentWAV(t testing.TB, seconds float64) []byte {
	t.Helper()
	return WAV(t, make([]float32, int(seconds*TestSampleRate)), TestSampleRate)
}
