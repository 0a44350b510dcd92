package scoring

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tphakala/voicedetect/internal/errors"
)

// thresholdsFile is the on-disk YAML layout
type thresholdsFile struct {
	Thresholds Thresholds `yaml:"thresholds"`
}

// LoadThresholdsFile reads thresholds from YAML. Keys missing from the file
// keep their default values.
func LoadThresholdsFile(path string) (Thresholds, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return Thresholds{}, errors.New(fmt.Errorf("failed to read thresholds file: %w", err)).
			Component("scoring").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	file := thresholdsFile{Thresholds: DefaultThresholds()}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Thresholds{}, errors.New(fmt.Errorf("failed to parse thresholds file: %w", err)).
			Component("scoring").
			Category(errors.CategoryConfiguration).
			Context("path", path).
			Build()
	}

	if err := file.Thresholds.Validate(); err != nil {
		return Thresholds{}, err
	}
	return file.Thresholds, nil
}

// SaveThresholdsFile writes thresholds as YAML, replacing path atomically
func SaveThresholdsFile(path string, t Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(thresholdsFile{Thresholds: t})
	if err != nil {
		return fmt.Errorf("failed to encode thresholds: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".thresholds-*.yaml")
	if err != nil {
		return errors.New(fmt.Errorf("failed to create thresholds file: %w", err)).
			Component("scoring").
			Category(errors.CategoryFileIO).
			Build()
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write thresholds file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close thresholds file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.New(fmt.Errorf("failed to replace thresholds file: %w", err)).
			Component("scoring").
			Category(errors.CategoryFileIO).
			Build()
	}
	return nil
}
