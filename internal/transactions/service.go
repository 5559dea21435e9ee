package transactions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fraudguard-io/fraudguard/internal/features"
	"github.com/fraudguard-io/fraudguard/internal/idgen"
	"github.com/fraudguard-io/fraudguard/internal/metrics"
	"github.com/fraudguard-io/fraudguard/internal/policy"
	"github.com/fraudguard-io/fraudguard/internal/traces"
	"github.com/fraudguard-io/fraudguard/internal/validation"
)

// Scorer produces a risk score for a raw transaction when a record arrives
// without one. The scoring service satisfies this.
type Scorer interface {
	RiskScore(ctx context.Context, raw *features.RawTransaction) (score float64, modelVersion string, err error)
}

// Service implements transaction record business logic.
type Service struct {
	store        Store
	scorer       Scorer
	policy       policy.Config
	storeTimeout time.Duration
}

// NewService creates a new transaction service. scorer may be nil, in which
// case records submitted without a risk score are rejected.
func NewService(store Store, scorer Scorer, pol policy.Config, storeTimeout time.Duration) *Service {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Service{
		store:        store,
		scorer:       scorer,
		policy:       pol,
		storeTimeout: storeTimeout,
	}
}

// CreateRequest is the input for storing a transaction record. FraudPrediction
// carries an upstream scoring result; when absent the service scores the
// record itself.
type CreateRequest struct {
	Raw             features.RawTransaction
	FraudPrediction *SuppliedPrediction
}

// SuppliedPrediction is an upstream scoring result attached to a record.
type SuppliedPrediction struct {
	RiskScore    float64 `json:"riskScore"`
	IsFraud      *bool   `json:"isFraud"`
	ModelVersion string  `json:"modelVersion"`
}

// Create validates, scores if needed, decides the status and persists the
// record. The stored status is always derived from the risk score through the
// decision policy, never taken from the caller.
func (s *Service) Create(ctx context.Context, owner string, req CreateRequest) (*Transaction, error) {
	ctx, span := traces.StartSpan(ctx, "transactions.Create", traces.Owner(owner))
	defer span.End()

	raw := req.Raw
	var callerScore *float64
	if req.FraudPrediction != nil {
		callerScore = &req.FraudPrediction.RiskScore
	}
	if errs := validation.Validate(
		validation.ValidExternalID("transactionId", raw.TransactionID),
		validation.MaxLength("location", raw.Location, 120),
		validation.MaxLength("transactionType", raw.TransactionType, 40),
		validation.MaxLength("deviceType", raw.DeviceType, 40),
		validation.MaxLength("merchantCategory", raw.MerchantCategory, 40),
		validation.ValidRiskScore("fraudPrediction.riskScore", callerScore),
	); len(errs) > 0 {
		return nil, errs
	}

	amount, balance, eventTime, err := coerceRaw(&raw)
	if err != nil {
		return nil, err
	}

	var (
		score        float64
		modelVersion string
		source       = SourceManual
	)
	switch {
	case req.FraudPrediction != nil:
		score = req.FraudPrediction.RiskScore
		modelVersion = req.FraudPrediction.ModelVersion
		source = SourceScored
	case s.scorer != nil:
		score, modelVersion, err = s.scorer.RiskScore(ctx, &raw)
		if err != nil {
			return nil, err
		}
	default:
		return nil, validation.ValidationErrors{{
			Field: "fraudPrediction", Message: "is required when scoring is unavailable",
		}}
	}

	var override *bool
	if req.FraudPrediction != nil {
		override = req.FraudPrediction.IsFraud
	} else {
		override = raw.IsFraud
	}
	decision := s.policy.Decide(score, override)

	externalID := strings.TrimSpace(raw.TransactionID)
	if externalID == "" {
		externalID = idgen.ExternalTransaction()
	}

	txn := &Transaction{
		ID:                         idgen.Transaction(),
		ExternalID:                 externalID,
		Owner:                      owner,
		Amount:                     amount,
		AccountBalance:             balance,
		TransactionType:            validation.SanitizeString(raw.TransactionType, 40),
		DeviceType:                 validation.SanitizeString(raw.DeviceType, 40),
		MerchantCategory:           validation.SanitizeString(raw.MerchantCategory, 40),
		Location:                   validation.SanitizeString(raw.Location, 120),
		IPAddressFlag:              raw.IPAddressFlag,
		PreviousFraudulentActivity: raw.PreviousFraudulentActivity,
		EventTime:                  eventTime,
		RiskScore:                  score,
		IsFraud:                    decision.IsFraud,
		Classification:             string(decision.Classification),
		Confidence:                 decision.Confidence,
		Status:                     string(decision.Status),
		ModelVersion:               modelVersion,
		Source:                     source,
		Processed:                  true,
		CreatedAt:                  time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.store.Insert(ctx, txn); err != nil {
		return nil, err
	}

	metrics.TransactionsTotal.WithLabelValues(txn.Status).Inc()
	span.SetAttributes(
		traces.TransactionID(txn.ExternalID),
		traces.RiskScore(txn.RiskScore),
		traces.Classification(txn.Classification),
	)
	return txn, nil
}

// Get returns one of the owner's records by internal or external ID.
func (s *Service) Get(ctx context.Context, owner, id string) (*Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.Get(ctx, owner, id)
}

// List returns a page of the owner's records, newest first, plus the owner's
// total count.
func (s *Service) List(ctx context.Context, owner string, limit, skip int) ([]*Transaction, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.List(ctx, owner, limit, skip)
}

// Delete removes one of the owner's records by internal or external ID.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	deleted, err := s.store.Delete(ctx, owner, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTransactionNotFound
	}
	return nil
}

// Stats aggregates the owner's records. The high risk bucket starts at the
// policy's block threshold.
func (s *Service) Stats(ctx context.Context, owner string) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.Stats(ctx, owner, s.policy.BlockThreshold)
}

func coerceRaw(raw *features.RawTransaction) (amount, balance float64, eventTime *time.Time, err error) {
	// Reuse the feature normalizer's coercion so the transactions API and
	// the scoring API accept the same payload shapes.
	vec, err := features.New(nil).Normalize(raw)
	if err != nil {
		return 0, 0, nil, err
	}
	amount, balance = vec.Values[0], vec.Values[1]

	if raw.Timestamp != "" {
		ts, perr := time.Parse(time.RFC3339, raw.Timestamp)
		if perr != nil {
			ts, perr = time.Parse("2006-01-02T15:04:05", raw.Timestamp)
		}
		if perr != nil {
			return 0, 0, nil, fmt.Errorf("invalid timestamp: %w", perr)
		}
		ts = ts.UTC()
		eventTime = &ts
	}
	return amount, balance, eventTime, nil
}
