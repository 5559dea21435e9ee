package transactions

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudguard-io/fraudguard/internal/features"
	"github.com/fraudguard-io/fraudguard/internal/policy"
	"github.com/fraudguard-io/fraudguard/internal/validation"
)

type stubScorer struct {
	score float64
	err   error
}

func (s *stubScorer) RiskScore(_ context.Context, _ *features.RawTransaction) (float64, string, error) {
	return s.score, "stub-1", s.err
}

func newService(scorer Scorer) *Service {
	return NewService(NewMemoryStore(), scorer, policy.DefaultConfig(), time.Second)
}

func rawTxn(id string) features.RawTransaction {
	return features.RawTransaction{
		TransactionID:   id,
		Amount:          100.0,
		AccountBalance:  5000.0,
		TransactionType: "Purchase",
		DeviceType:      "Mobile",
		Location:        "Chicago",
	}
}

func TestCreateWithSuppliedPrediction(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()

	txn, err := svc.Create(ctx, "alice@example.com", CreateRequest{
		Raw: rawTxn("TXN_A1"),
		FraudPrediction: &SuppliedPrediction{
			RiskScore:    0.85,
			ModelVersion: "fraud-lr-1",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "TXN_A1", txn.ExternalID)
	assert.Equal(t, "blocked", txn.Status)
	assert.Equal(t, "High Risk", txn.Classification)
	assert.True(t, txn.IsFraud)
	assert.Equal(t, SourceScored, txn.Source)
	assert.Equal(t, "fraud-lr-1", txn.ModelVersion)
	assert.NotEmpty(t, txn.ID)
}

func TestCreateStatusDerivedFromScoreNotCaller(t *testing.T) {
	svc := newService(nil)
	notFraud := false

	// Caller claims not fraud; status still follows the risk score.
	txn, err := svc.Create(context.Background(), "alice@example.com", CreateRequest{
		Raw: rawTxn("TXN_A2"),
		FraudPrediction: &SuppliedPrediction{
			RiskScore: 0.95,
			IsFraud:   &notFraud,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "blocked", txn.Status)
	assert.False(t, txn.IsFraud) // override respected for the label only
}

func TestCreateScoresInlineWhenNoPrediction(t *testing.T) {
	svc := newService(&stubScorer{score: 0.25})

	txn, err := svc.Create(context.Background(), "alice@example.com", CreateRequest{
		Raw: rawTxn("TXN_A3"),
	})
	require.NoError(t, err)
	assert.Equal(t, "flagged", txn.Status)
	assert.Equal(t, "Low Risk", txn.Classification)
	assert.Equal(t, SourceManual, txn.Source)
	assert.Equal(t, "stub-1", txn.ModelVersion)
}

func TestCreateRejectsOutOfRangeScore(t *testing.T) {
	svc := newService(nil)

	_, err := svc.Create(context.Background(), "alice@example.com", CreateRequest{
		Raw:             rawTxn("TXN_A4"),
		FraudPrediction: &SuppliedPrediction{RiskScore: 1.2},
	})
	var verrs validation.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "fraudPrediction.riskScore", verrs[0].Field)

	_, err = svc.Create(context.Background(), "alice@example.com", CreateRequest{
		Raw:             rawTxn("TXN_A4"),
		FraudPrediction: &SuppliedPrediction{RiskScore: -0.1},
	})
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "fraudPrediction.riskScore", verrs[0].Field)
}

func TestCreateSanitizesStoredText(t *testing.T) {
	svc := newService(&stubScorer{score: 0.1})
	raw := rawTxn("TXN_A6")
	raw.Location = "  New York\x00  "
	raw.DeviceType = " mobile "

	txn, err := svc.Create(context.Background(), "alice@example.com", CreateRequest{Raw: raw})
	require.NoError(t, err)
	assert.Equal(t, "New York", txn.Location)
	assert.Equal(t, "mobile", txn.DeviceType)
}

func TestCreateRejectsMissingPredictionWithoutScorer(t *testing.T) {
	svc := newService(nil)
	_, err := svc.Create(context.Background(), "alice@example.com", CreateRequest{
		Raw: rawTxn("TXN_A5"),
	})
	var verrs validation.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "fraudPrediction", verrs[0].Field)
}

func TestCreateGeneratesExternalID(t *testing.T) {
	svc := newService(&stubScorer{score: 0.1})
	txn, err := svc.Create(context.Background(), "alice@example.com", CreateRequest{
		Raw: rawTxn(""),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^TXN_[0-9A-F]{12}$`, txn.ExternalID)
}

func TestCreateRejectsBadAmount(t *testing.T) {
	svc := newService(&stubScorer{score: 0.1})
	raw := rawTxn("TXN_A6")
	raw.Amount = "not a number"

	_, err := svc.Create(context.Background(), "alice@example.com", CreateRequest{Raw: raw})
	var ferr *features.ValidationError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "transactionAmount", ferr.Field)
}

func TestOwnerScoping(t *testing.T) {
	svc := newService(&stubScorer{score: 0.5})
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice@example.com", CreateRequest{Raw: rawTxn("TXN_B1")})
	require.NoError(t, err)

	// Owner sees the record by both IDs.
	got, err := svc.Get(ctx, "alice@example.com", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ExternalID, got.ExternalID)

	got, err = svc.Get(ctx, "alice@example.com", "TXN_B1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	// A different owner sees nothing, for get and delete alike.
	_, err = svc.Get(ctx, "mallory@example.com", created.ID)
	assert.True(t, errors.Is(err, ErrTransactionNotFound))

	err = svc.Delete(ctx, "mallory@example.com", created.ID)
	assert.True(t, errors.Is(err, ErrTransactionNotFound))

	// The record survives the foreign delete attempt.
	_, err = svc.Get(ctx, "alice@example.com", created.ID)
	require.NoError(t, err)
}

func TestDuplicateExternalID(t *testing.T) {
	svc := newService(&stubScorer{score: 0.1})
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice@example.com", CreateRequest{Raw: rawTxn("TXN_C1")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "alice@example.com", CreateRequest{Raw: rawTxn("TXN_C1")})
	assert.True(t, errors.Is(err, ErrDuplicateExternalID))

	// The same reference under a different owner is fine.
	_, err = svc.Create(ctx, "bob@example.com", CreateRequest{Raw: rawTxn("TXN_C1")})
	require.NoError(t, err)
}

func TestListNewestFirstWithPaging(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, &stubScorer{score: 0.1}, policy.DefaultConfig(), time.Second)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Insert(ctx, &Transaction{
			ID:         fmt.Sprintf("txn_%d", i),
			ExternalID: fmt.Sprintf("TXN_D%d", i),
			Owner:      "alice@example.com",
			Status:     "approved",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	items, total, err := svc.List(ctx, "alice@example.com", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 2)
	assert.Equal(t, "TXN_D3", items[0].ExternalID)
	assert.Equal(t, "TXN_D2", items[1].ExternalID)

	// Foreign owner gets an empty page, not an error.
	items, total, err = svc.List(ctx, "bob@example.com", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)
}

func TestStatsAggregation(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil, policy.DefaultConfig(), time.Second)
	ctx := context.Background()

	insert := func(id string, amount, score float64, fraud bool, status string) {
		require.NoError(t, store.Insert(ctx, &Transaction{
			ID: id, ExternalID: id, Owner: "alice@example.com",
			Amount: amount, RiskScore: score, IsFraud: fraud, Status: status,
			CreatedAt: time.Now(),
		}))
	}
	insert("t1", 100, 0.1, false, "approved")
	insert("t2", 200, 0.5, false, "flagged")
	insert("t3", 300, 0.8, true, "blocked")
	insert("t4", 400, 0.9, true, "blocked")

	stats, err := svc.Stats(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalTransactions)
	assert.Equal(t, 1000.0, stats.TotalAmount)
	assert.Equal(t, 250.0, stats.AverageAmount)
	assert.Equal(t, 2, stats.FraudCount)
	assert.Equal(t, 0.5, stats.FraudRate)
	assert.Equal(t, 2, stats.HighRiskCount)
	assert.Equal(t, 0.5, stats.HighRiskRate)
	assert.Equal(t, 1, stats.ApprovedCount)
	assert.Equal(t, 0.25, stats.ApprovedRate)
	assert.Equal(t, 1, stats.FlaggedCount)
	assert.Equal(t, 0.25, stats.FlaggedRate)
	assert.Equal(t, 2, stats.BlockedCount)
	assert.Equal(t, 0.5, stats.BlockedRate)

	// The status buckets partition the records, so their rates sum to 1.
	assert.InDelta(t, 1.0, stats.ApprovedRate+stats.FlaggedRate+stats.BlockedRate, 1e-9)
}

func TestStatsEmptyOwnerZeroFilled(t *testing.T) {
	svc := newService(nil)
	stats, err := svc.Stats(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, &Stats{}, stats)
}
