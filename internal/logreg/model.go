// Package logreg holds the trained sepsis classifier: a standardised
// logistic regression over temperature, heart rate, respiratory rate and WBC
// count, persisted as JSON.
package logreg

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// FeatureNames is the fixed feature order of every model.
var FeatureNames = []string{"temp", "hr", "rr", "wbc"}

// ErrInvalidModel is returned when a model file is structurally unusable.
var ErrInvalidModel = errors.New("invalid model")

// Model is a fitted logistic regression. It is read-only after Load and safe
// for concurrent use.
type Model struct {
	Features  []string  `json:"features"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	Mean      []float64 `json:"mean"`
	Scale     []float64 `json:"scale"`
	Threshold float64   `json:"threshold"`
}

// Load reads a model saved with Save.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if err := m.check(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &m, nil
}

// Save writes m as indented JSON.
func (m *Model) Save(path string) error {
	if err := m.check(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model %s: %w", path, err)
	}
	return nil
}

func (m *Model) check() error {
	n := len(FeatureNames)
	if len(m.Weights) != n || len(m.Mean) != n || len(m.Scale) != n {
		return fmt.Errorf("%w: want %d weights, means and scales", ErrInvalidModel, n)
	}
	for i, s := range m.Scale {
		if s == 0 || math.IsNaN(s) {
			return fmt.Errorf("%w: zero scale for %s", ErrInvalidModel, FeatureNames[i])
		}
	}
	if m.Threshold <= 0 || m.Threshold >= 1 {
		return fmt.Errorf("%w: threshold %v outside (0,1)", ErrInvalidModel, m.Threshold)
	}
	return nil
}

// Probability returns P(sick) for the raw feature vector x.
func (m *Model) Probability(x []float64) (float64, error) {
	if len(x) != len(m.Weights) {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrInvalidModel, len(x), len(m.Weights))
	}
	z := m.Intercept
	for i, v := range x {
		z += m.Weights[i] * (v - m.Mean[i]) / m.Scale[i]
	}
	p := sigmoid(z)
	if math.IsNaN(p) {
		return 0, fmt.Errorf("%w: non-finite probability", ErrInvalidModel)
	}
	return p, nil
}

// Predict returns 1 (sick) or 0 (healthy).
func (m *Model) Predict(temperature float64, heartRate, respRate int, wbcCount float64) (int, error) {
	p, err := m.Probability([]float64{temperature, float64(heartRate), float64(respRate), wbcCount})
	if err != nil {
		return 0, err
	}
	if p >= m.Threshold {
		return 1, nil
	}
	return 0, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
