package model

import (
	"context"
	"fmt"
	"time"
)

// DefaultScoreTimeout bounds a single scorer invocation.
const DefaultScoreTimeout = 2 * time.Second

// Adapter runs the currently loaded scorer with a bounded timeout and
// normalizes its output to a risk score in [0, 1]. A probability-capable
// model contributes its fraud-class probability; a label-only model
// contributes a hard 0 or 1.
type Adapter struct {
	holder  *Holder
	timeout time.Duration
}

// NewAdapter wraps holder. A timeout of zero or less uses DefaultScoreTimeout.
func NewAdapter(holder *Holder, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultScoreTimeout
	}
	return &Adapter{holder: holder, timeout: timeout}
}

// Score runs the current model against a feature vector. It returns
// ErrModelUnavailable when no model is loaded or the scorer times out, and
// ErrFeatureMismatch when the vector width is wrong. There are no retries.
func (a *Adapter) Score(ctx context.Context, features []float64) (float64, error) {
	l := a.holder.current.Load()
	if l == nil {
		return 0, ErrModelUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	ch := make(chan scoreResult, 1)
	go func() {
		ch <- runScorer(l, features)
	}()

	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %v", ErrModelUnavailable, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return 0, r.err
		}
		return clamp01(r.score), nil
	}
}

type scoreResult struct {
	score float64
	err   error
}

func runScorer(l *loaded, features []float64) (r scoreResult) {
	defer func() {
		if p := recover(); p != nil {
			r = scoreResult{err: fmt.Errorf("%w: scorer panic: %v", ErrModelUnavailable, p)}
		}
	}()
	if l.probable {
		proba, err := l.scorer.(ProbabilityScorer).PredictProba(features)
		if err != nil {
			return scoreResult{err: err}
		}
		if len(proba) < 2 {
			return scoreResult{err: fmt.Errorf("%w: scorer returned %d class probabilities", ErrModelUnavailable, len(proba))}
		}
		return scoreResult{score: proba[1]}
	}
	score, err := l.scorer.Predict(features)
	return scoreResult{score: score, err: err}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
