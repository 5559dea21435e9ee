package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/fraudguard-io/fraudguard/internal/features"
)

// Bundle is the on-disk model description. A bundle file either contains a
// bundle object directly or a JSON object keyed by model name, selected with
// the configured bundle key.
type Bundle struct {
	// Kind selects the scorer implementation: "logistic" or "threshold".
	Kind    string   `json:"kind"`
	Version string   `json:"version"`
	Columns []string `json:"columns"`

	// Logistic parameters.
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`

	// Threshold parameters: score = dot(weights, features), fraud when
	// score >= cutoff.
	Cutoff float64 `json:"cutoff"`

	Scaler *features.StandardScaler `json:"scaler"`
}

// LoadBundle reads and parses a bundle file. When key is non-empty the file
// is treated as a keyed container and the named bundle is extracted.
func LoadBundle(path, key string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model bundle: %w", err)
	}
	if key != "" {
		var container map[string]json.RawMessage
		if err := json.Unmarshal(data, &container); err != nil {
			return nil, fmt.Errorf("parse model container: %w", err)
		}
		entry, ok := container[key]
		if !ok {
			return nil, fmt.Errorf("model bundle key %q not found", key)
		}
		data = entry
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse model bundle: %w", err)
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Bundle) validate() error {
	switch b.Kind {
	case "logistic", "threshold":
	default:
		return fmt.Errorf("unsupported model kind %q", b.Kind)
	}
	if len(b.Weights) == 0 {
		return fmt.Errorf("model bundle has no weights")
	}
	if len(b.Columns) > 0 && len(b.Columns) != len(b.Weights) {
		return fmt.Errorf("model bundle has %d columns but %d weights", len(b.Columns), len(b.Weights))
	}
	return nil
}

// Build constructs the scorer described by the bundle.
func (b *Bundle) Build() (Scorer, error) {
	switch b.Kind {
	case "logistic":
		return &LogisticScorer{
			columns:   b.Columns,
			weights:   b.Weights,
			intercept: b.Intercept,
			version:   b.Version,
		}, nil
	case "threshold":
		return &ThresholdScorer{
			columns: b.Columns,
			weights: b.Weights,
			cutoff:  b.Cutoff,
			version: b.Version,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported model kind %q", b.Kind)
	}
}

// LogisticScorer is a logistic regression model. It supports class
// probabilities.
type LogisticScorer struct {
	columns   []string
	weights   []float64
	intercept float64
	version   string
}

var _ ProbabilityScorer = (*LogisticScorer)(nil)

func (s *LogisticScorer) Columns() []string { return s.columns }
func (s *LogisticScorer) Version() string   { return s.version }

func (s *LogisticScorer) PredictProba(features []float64) ([]float64, error) {
	if err := checkWidth(len(s.weights), len(features)); err != nil {
		return nil, err
	}
	z := s.intercept
	for i, w := range s.weights {
		z += w * features[i]
	}
	p := 1.0 / (1.0 + math.Exp(-z))
	return []float64{1 - p, p}, nil
}

func (s *LogisticScorer) Predict(features []float64) (float64, error) {
	proba, err := s.PredictProba(features)
	if err != nil {
		return 0, err
	}
	if proba[1] >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

// ThresholdScorer is a weighted-sum rule model. It only emits hard labels.
type ThresholdScorer struct {
	columns []string
	weights []float64
	cutoff  float64
	version string
}

var _ Scorer = (*ThresholdScorer)(nil)

func (s *ThresholdScorer) Columns() []string { return s.columns }
func (s *ThresholdScorer) Version() string   { return s.version }

func (s *ThresholdScorer) Predict(features []float64) (float64, error) {
	if err := checkWidth(len(s.weights), len(features)); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, w := range s.weights {
		sum += w * features[i]
	}
	if sum >= s.cutoff {
		return 1, nil
	}
	return 0, nil
}
