// Package model holds the fraud classifier: the scorer abstraction, the
// JSON bundle loader, the hot-swappable holder and the scoring adapter.
package model

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the scoring path.
var (
	// ErrModelUnavailable means no model is loaded or the scorer failed.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrFeatureMismatch means the feature vector width does not match the
	// loaded model's expected columns.
	ErrFeatureMismatch = errors.New("feature mismatch")
)

// Scorer produces a fraud score for a normalized feature vector. Implementations
// must be safe for concurrent use.
type Scorer interface {
	// Columns reports the feature columns the scorer was trained on, in order.
	Columns() []string
	// Predict returns a binary fraud label as 0 or 1.
	Predict(features []float64) (float64, error)
	// Version identifies the loaded model build.
	Version() string
}

// ProbabilityScorer is implemented by scorers that can emit class
// probabilities instead of a hard label.
type ProbabilityScorer interface {
	Scorer
	// PredictProba returns [P(legit), P(fraud)].
	PredictProba(features []float64) ([]float64, error)
}

func checkWidth(want, got int) error {
	if got != want {
		return fmt.Errorf("%w: got %d features, model expects %d", ErrFeatureMismatch, got, want)
	}
	return nil
}
