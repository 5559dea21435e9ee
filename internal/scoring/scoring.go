// Package scoring runs the fraud decision pipeline: feature normalization,
// model scoring, the decision policy, and the recent-decision window.
package scoring

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fraudguard-io/fraudguard/internal/analytics"
	"github.com/fraudguard-io/fraudguard/internal/features"
	"github.com/fraudguard-io/fraudguard/internal/history"
	"github.com/fraudguard-io/fraudguard/internal/idgen"
	"github.com/fraudguard-io/fraudguard/internal/logging"
	"github.com/fraudguard-io/fraudguard/internal/metrics"
	"github.com/fraudguard-io/fraudguard/internal/model"
	"github.com/fraudguard-io/fraudguard/internal/policy"
	"github.com/fraudguard-io/fraudguard/internal/traces"
)

// Prediction is the scoring result returned to callers.
type Prediction struct {
	TransactionID    string    `json:"transactionId"`
	RiskScore        float64   `json:"riskScore"`
	FraudProbability float64   `json:"fraudProbability"` // riskScore as a percentage
	IsFraud          bool      `json:"isFraud"`
	Classification   string    `json:"classification"`
	Confidence       int       `json:"confidence"`
	Status           string    `json:"status"`
	ModelVersion     string    `json:"modelVersion,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Broadcaster publishes decisions to live subscribers. The realtime hub
// satisfies this.
type Broadcaster interface {
	BroadcastDecision(p Prediction)
}

// Service wires the scoring pipeline together.
type Service struct {
	holder      *model.Holder
	adapter     *model.Adapter
	policy      policy.Config
	window      *history.Window
	analytics   *analytics.Builder
	broadcaster Broadcaster
}

// NewService creates a scoring service. broadcaster may be nil.
func NewService(holder *model.Holder, scorerTimeout time.Duration, pol policy.Config, window *history.Window, broadcaster Broadcaster) *Service {
	return &Service{
		holder:      holder,
		adapter:     model.NewAdapter(holder, scorerTimeout),
		policy:      pol,
		window:      window,
		analytics:   analytics.NewBuilder(window, nil),
		broadcaster: broadcaster,
	}
}

// Score runs the full pipeline for one transaction and records the decision
// in the history window.
func (s *Service) Score(ctx context.Context, raw *features.RawTransaction) (*Prediction, error) {
	ctx, span := traces.StartSpan(ctx, "scoring.Score")
	defer span.End()
	started := time.Now()

	score, version, err := s.RiskScore(ctx, raw)
	if err != nil {
		metrics.PredictionErrorsTotal.WithLabelValues(errorReason(err)).Inc()
		return nil, err
	}

	decision := s.policy.Decide(score, raw.IsFraud)

	txnID := strings.TrimSpace(raw.TransactionID)
	if txnID == "" {
		txnID = idgen.ExternalTransaction()
	}

	p := &Prediction{
		TransactionID:    txnID,
		RiskScore:        score,
		FraudProbability: score * 100,
		IsFraud:          decision.IsFraud,
		Classification:   string(decision.Classification),
		Confidence:       decision.Confidence,
		Status:           string(decision.Status),
		ModelVersion:     version,
		Timestamp:        time.Now().UTC(),
	}

	s.window.Append(history.Entry{
		TransactionID:  p.TransactionID,
		RiskScore:      p.RiskScore,
		Classification: p.Classification,
		Timestamp:      p.Timestamp,
	})

	metrics.PredictionsTotal.WithLabelValues(p.Classification).Inc()
	metrics.PredictionDuration.Observe(time.Since(started).Seconds())
	span.SetAttributes(
		traces.TransactionID(p.TransactionID),
		traces.RiskScore(p.RiskScore),
		traces.Classification(p.Classification),
		traces.ModelVersion(version),
	)
	logging.L(ctx).Info("transaction scored",
		"transaction_id", p.TransactionID,
		"risk_score", p.RiskScore,
		"classification", p.Classification,
		"status", p.Status)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastDecision(*p)
	}
	return p, nil
}

// RiskScore normalizes and scores a transaction without recording a decision.
// The transactions service uses it to score records submitted for storage.
func (s *Service) RiskScore(ctx context.Context, raw *features.RawTransaction) (float64, string, error) {
	normalizer := features.New(preprocessor(s.holder.Scaler()))
	vec, err := normalizer.Normalize(raw)
	if err != nil {
		return 0, "", err
	}

	score, err := s.adapter.Score(ctx, vec.Values)
	if err != nil {
		return 0, "", err
	}

	version := ""
	if sc := s.holder.Scorer(); sc != nil {
		version = sc.Version()
	}
	return score, version, nil
}

// History returns the retained decision window, oldest first.
func (s *Service) History() []history.Entry {
	return s.window.Snapshot()
}

// Analytics builds the current analytics report.
func (s *Service) Analytics() analytics.Report {
	return s.analytics.Build()
}

// ModelLoaded reports whether scoring is currently possible.
func (s *Service) ModelLoaded() bool {
	return s.holder.Scorer() != nil
}

// preprocessor keeps a typed nil from sneaking into the Preprocessor
// interface.
func preprocessor(s *features.StandardScaler) features.Preprocessor {
	if s == nil {
		return nil
	}
	return s
}

func errorReason(err error) string {
	var ferr *features.ValidationError
	switch {
	case errors.As(err, &ferr):
		return "validation"
	case errors.Is(err, model.ErrFeatureMismatch):
		return "feature_mismatch"
	case errors.Is(err, model.ErrModelUnavailable):
		return "model_unavailable"
	default:
		return "internal"
	}
}
