package detector

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/language"
	"github.com/tphakala/voicedetect/internal/preprocess"
	"github.com/tphakala/voicedetect/internal/scoring"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testRate = 16000

func sine(freq float64, seconds float64, amp float64) []float32 {
	n := int(seconds * testRate)
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/testRate))
	}
	return out
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"heuristic", ModeHeuristic, false},
		{"", ModeHeuristic, false},
		{" Neural ", ModeNeural, false},
		{"tflite", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewSelectsImplementation(t *testing.T) {
	t.Parallel()

	h, err := New(ModeHeuristic, Deps{})
	require.NoError(t, err)
	assert.Equal(t, "heuristic", h.Name())
	assert.IsType(t, &Heuristic{}, h)

	n, err := New(ModeNeural, Deps{ModelPath: filepath.Join(t.TempDir(), "missing.json")})
	require.NoError(t, err)
	assert.Equal(t, "neural", n.Name())
	assert.IsType(t, &Neural{}, n)

	_, err = New(Mode("svm"), Deps{})
	require.Error(t, err)
}

func TestHeuristicPureToneIsAI(t *testing.T) {
	t.Parallel()

	d, err := New(ModeHeuristic, Deps{})
	require.NoError(t, err)

	res, err := d.Detect(sine(220, 1.5, 0.5), testRate, language.English)
	require.NoError(t, err)

	require.NotNil(t, res.Features)
	assert.Equal(t, scoring.LabelAI, res.Label)
	assert.GreaterOrEqual(t, res.Confidence, 0.5)
	assert.LessOrEqual(t, res.Confidence, 1.0)
	assert.InDelta(t, 1.0, res.Probabilities["human"]+res.Probabilities["ai"], 1e-9)
	assert.Contains(t, res.Explanation, "AI-generated indicators detected: ")
	assert.Contains(t, res.Explanation, "unnaturally consistent pitch")
}

func TestHeuristicPropagatesPreprocessErrors(t *testing.T) {
	t.Parallel()

	d, err := New(ModeHeuristic, Deps{})
	require.NoError(t, err)

	_, err = d.Detect(make([]float32, testRate), testRate, language.Tamil)
	require.Error(t, err)
	require.ErrorIs(t, err, preprocess.ErrSilentAudio)
	assert.True(t, errors.IsCategory(err, errors.CategorySilentAudio))

	_, err = d.Detect(sine(220, 1, 0.5), testRate, language.Language("Klingon"))
	require.Error(t, err)
	require.ErrorIs(t, err, language.ErrUnsupported)
}

func TestHeuristicUsesThresholdTable(t *testing.T) {
	t.Parallel()

	table := scoring.NewTable(scoring.DefaultThresholds())
	d, err := New(ModeHeuristic, Deps{Thresholds: table})
	require.NoError(t, err)

	samples := sine(220, 1.5, 0.5)
	res, err := d.Detect(samples, testRate, language.Hindi)
	require.NoError(t, err)
	require.Equal(t, scoring.LabelAI, res.Label)

	// A decision boundary above any reachable score flips the label
	th := scoring.DefaultThresholds()
	th.Decision = 1
	th.PitchVariance = -1
	table.Store(th)

	res, err = d.Detect(samples, testRate, language.Hindi)
	require.NoError(t, err)
	assert.Equal(t, scoring.LabelHuman, res.Label)
}

func TestNeuralSeededModel(t *testing.T) {
	t.Parallel()

	d, err := New(ModeNeural, Deps{ModelPath: filepath.Join(t.TempDir(), "missing.json")})
	require.NoError(t, err)

	samples := sine(300, 1, 0.5)
	res, err := d.Detect(samples, testRate, language.Telugu)
	require.NoError(t, err)

	assert.Nil(t, res.Features)
	assert.InDelta(t, 1.0, res.Probabilities["human"]+res.Probabilities["ai"], 1e-9)
	if res.Probabilities["ai"] >= 0.5 {
		assert.Equal(t, scoring.LabelAI, res.Label)
		assert.Equal(t, explanationSynthetic, res.Explanation)
		assert.InDelta(t, res.Probabilities["ai"], res.Confidence, 1e-12)
	} else {
		assert.Equal(t, scoring.LabelHuman, res.Label)
		assert.Equal(t, explanationNatural, res.Explanation)
		assert.InDelta(t, res.Probabilities["human"], res.Confidence, 1e-12)
	}

	again, err := d.Detect(samples, testRate, language.Telugu)
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestNeuralMelProfile(t *testing.T) {
	t.Parallel()

	n := NewNeural(preprocess.New(nil), language.DefaultTable(), SeededModel(0))
	profile, err := n.melProfile(sine(1000, 1, 0.5), testRate)
	require.NoError(t, err)
	require.Len(t, profile, DefaultInputDim)

	peak := 0
	for m, v := range profile {
		if v > profile[peak] {
			peak = m
		}
	}
	// HTK mel centre of the peak band must sit near 1 kHz
	minMel := 2595 * math.Log10(1+melFMin/700)
	maxMel := 2595 * math.Log10(1+8000.0/700)
	centre := minMel + (maxMel-minMel)*float64(peak+1)/float64(DefaultInputDim+1)
	centreHz := 700 * (math.Pow(10, centre/2595) - 1)
	assert.InDelta(t, 1000, centreHz, 40)

	_, err = n.melProfile(nil, testRate)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFeatureExtraction))
}

func TestSeededModelDeterministic(t *testing.T) {
	t.Parallel()

	a, b := SeededModel(0), SeededModel(0)
	assert.Equal(t, a, b)
	require.NoError(t, a.Validate())

	bound := 1 / math.Sqrt(DefaultInputDim)
	for _, row := range a.W1 {
		for _, w := range row {
			assert.LessOrEqual(t, math.Abs(w), bound)
		}
	}
	assert.NotEqual(t, a.W1[0][0], SeededModel(1).W1[0][0])
}

func TestModelForward(t *testing.T) {
	t.Parallel()

	m := &Model{
		InputDim:  2,
		HiddenDim: 2,
		OutputDim: 2,
		W1:        [][]float64{{1, 0}, {0, -1}},
		B1:        []float64{0, 0},
		W2:        [][]float64{{1, 1}, {-1, 2}},
		B2:        []float64{0.5, 0},
	}
	require.NoError(t, m.Validate())

	// hidden = relu([3, -4]) = [3, 0]
	logits := m.Forward([]float64{3, 4})
	assert.InDeltaSlice(t, []float64{3.5, -3}, logits, 1e-12)

	probs := Softmax([]float64{0, 0})
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, probs, 1e-12)

	probs = Softmax([]float64{1000, 0})
	assert.InDelta(t, 1.0, probs[0], 1e-12)
	assert.False(t, math.IsNaN(probs[1]))
}

func TestLoadModel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	m := &Model{
		InputDim:  3,
		HiddenDim: 2,
		OutputDim: 2,
		W1:        [][]float64{{1, 2, 3}, {4, 5, 6}},
		B1:        []float64{0.1, 0.2},
		W2:        [][]float64{{1, -1}, {-1, 1}},
		B2:        []float64{0, 0},
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	path := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadModel(path, nil)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)

	missing, err := LoadModel(filepath.Join(dir, "missing.json"), nil)
	require.NoError(t, err)
	assert.Equal(t, SeededModel(0), missing)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadModel(bad, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryModelLoad))

	m.W1 = m.W1[:1]
	data, err = json.Marshal(m)
	require.NoError(t, err)
	shape := filepath.Join(dir, "shape.json")
	require.NoError(t, os.WriteFile(shape, data, 0o600))
	_, err = LoadModel(shape, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryModelLoad))
}
