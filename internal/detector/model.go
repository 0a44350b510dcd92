package detector

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/logger"
)

// Default MLP shape: 256 log-mel bands, one hidden layer, two logits
const (
	DefaultInputDim  = 256
	DefaultHiddenDim = 128
	DefaultOutputDim = 2
)

// Model is a two-layer perceptron with ReLU activation. Weights are row-major [out][in].
type Model struct {
	InputDim  int         `json:"inputDim"`
	HiddenDim int         `json:"hiddenDim"`
	OutputDim int         `json:"outputDim"`
	W1        [][]float64 `json:"w1"`
	B1        []float64   `json:"b1"`
	W2        [][]float64 `json:"w2"`
	B2        []float64   `json:"b2"`
}

// LoadModel reads model weights from a JSON file. A missing file yields the
// seeded default model so the service can start without trained weights.
func LoadModel(path string, log logger.Logger) (*Model, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		if os.IsNotExist(err) || path == "" {
			if log != nil {
				log.Warn("model weights not found, using seeded initialization",
					logger.String("path", path))
			}
			return SeededModel(0), nil
		}
		return nil, errors.New(fmt.Errorf("failed to read model weights: %w", err)).
			Component("detector").
			Category(errors.CategoryModelLoad).
			Context("path", path).
			Build()
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.New(fmt.Errorf("failed to parse model weights: %w", err)).
			Component("detector").
			Category(errors.CategoryModelLoad).
			Context("path", path).
			Build()
	}
	if err := m.Validate(); err != nil {
		return nil, errors.New(err).
			Component("detector").
			Category(errors.CategoryModelLoad).
			Context("path", path).
			Build()
	}

	if log != nil {
		log.Info("model weights loaded",
			logger.String("path", path),
			logger.Int("input_dim", m.InputDim),
			logger.Int("hidden_dim", m.HiddenDim))
	}
	return &m, nil
}

// SeededModel returns a default-shaped model with weights drawn uniformly
// from ±1/sqrt(fan_in) by a PCG generator seeded with seed.
func SeededModel(seed uint64) *Model {
	rng := rand.New(rand.NewPCG(seed, 0)) //nolint:gosec // deterministic weights, not security sensitive

	layer := func(out, in int) ([][]float64, []float64) {
		bound := 1 / math.Sqrt(float64(in))
		w := make([][]float64, out)
		for i := range w {
			w[i] = make([]float64, in)
			for j := range w[i] {
				w[i][j] = (rng.Float64()*2 - 1) * bound
			}
		}
		b := make([]float64, out)
		for i := range b {
			b[i] = (rng.Float64()*2 - 1) * bound
		}
		return w, b
	}

	m := &Model{InputDim: DefaultInputDim, HiddenDim: DefaultHiddenDim, OutputDim: DefaultOutputDim}
	m.W1, m.B1 = layer(DefaultHiddenDim, DefaultInputDim)
	m.W2, m.B2 = layer(DefaultOutputDim, DefaultHiddenDim)
	return m
}

// Validate checks that the weight shapes agree with the declared dimensions
func (m *Model) Validate() error {
	if m.InputDim <= 0 || m.HiddenDim <= 0 || m.OutputDim != DefaultOutputDim {
		return fmt.Errorf("invalid model dimensions %d/%d/%d", m.InputDim, m.HiddenDim, m.OutputDim)
	}
	if err := checkMatrix("w1", m.W1, m.HiddenDim, m.InputDim); err != nil {
		return err
	}
	if err := checkMatrix("w2", m.W2, m.OutputDim, m.HiddenDim); err != nil {
		return err
	}
	if len(m.B1) != m.HiddenDim || len(m.B2) != m.OutputDim {
		return fmt.Errorf("bias lengths %d/%d do not match dimensions", len(m.B1), len(m.B2))
	}
	return nil
}

func checkMatrix(name string, w [][]float64, rows, cols int) error {
	if len(w) != rows {
		return fmt.Errorf("%s has %d rows, want %d", name, len(w), rows)
	}
	for i, row := range w {
		if len(row) != cols {
			return fmt.Errorf("%s row %d has %d columns, want %d", name, i, len(row), cols)
		}
	}
	return nil
}

// Forward returns the output logits for x
func (m *Model) Forward(x []float64) []float64 {
	hidden := make([]float64, m.HiddenDim)
	for i, row := range m.W1 {
		acc := m.B1[i]
		for j, w := range row {
			acc += w * x[j]
		}
		hidden[i] = math.Max(0, acc)
	}

	logits := make([]float64, m.OutputDim)
	for i, row := range m.W2 {
		acc := m.B2[i]
		for j, w := range row {
			acc += w * hidden[j]
		}
		logits[i] = acc
	}
	return logits
}

// Softmax converts logits to probabilities
func Softmax(logits []float64) []float64 {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		maxLogit = math.Max(maxLogit, l)
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
