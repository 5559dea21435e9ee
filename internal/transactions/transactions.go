// Package transactions persists scored transaction records, scoped to the
// owner that submitted them.
//
// Every read and delete is filtered by owner. A record that exists but
// belongs to someone else is indistinguishable from one that never existed,
// so lookups cannot be used to probe other owners' data.
package transactions

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTransactionNotFound covers both a genuinely absent record and a
	// record owned by a different caller.
	ErrTransactionNotFound = errors.New("transactions: not found")
	// ErrDuplicateExternalID means the owner already stored a record with
	// this transaction reference.
	ErrDuplicateExternalID = errors.New("transactions: duplicate transaction reference")
)

// Transaction is a stored, scored transaction record.
type Transaction struct {
	ID         string `json:"id"`
	ExternalID string `json:"transactionId"`
	Owner      string `json:"-"`

	Amount                     float64    `json:"transactionAmount"`
	AccountBalance             float64    `json:"accountBalance"`
	TransactionType            string     `json:"transactionType"`
	DeviceType                 string     `json:"deviceType"`
	MerchantCategory           string     `json:"merchantCategory"`
	Location                   string     `json:"location"`
	IPAddressFlag              string     `json:"ipAddressFlag"`
	PreviousFraudulentActivity string     `json:"previousFraudulentActivity"`
	EventTime                  *time.Time `json:"timestamp,omitempty"`

	RiskScore      float64 `json:"riskScore"`
	IsFraud        bool    `json:"isFraud"`
	Classification string  `json:"classification"`
	Confidence     int     `json:"confidence"`
	Status         string  `json:"status"`
	ModelVersion   string  `json:"modelVersion,omitempty"`
	Source         string  `json:"source"`
	Processed      bool    `json:"processed"`

	CreatedAt time.Time `json:"createdAt"`
}

// Record sources.
const (
	SourceScored = "scored" // stored by the scoring pipeline
	SourceManual = "manual" // stored via the transactions API
)

// Stats is the aggregate view of one owner's records. Counts and rates are
// zero-filled when the owner has no records.
type Stats struct {
	TotalTransactions int     `json:"totalTransactions"`
	TotalAmount       float64 `json:"totalAmount"`
	AverageAmount     float64 `json:"averageAmount"`
	FraudCount        int     `json:"fraudCount"`
	FraudRate         float64 `json:"fraudRate"`
	HighRiskCount     int     `json:"highRiskCount"`
	HighRiskRate      float64 `json:"highRiskRate"`
	ApprovedCount     int     `json:"approvedCount"`
	ApprovedRate      float64 `json:"approvedRate"`
	FlaggedCount      int     `json:"flaggedCount"`
	FlaggedRate       float64 `json:"flaggedRate"`
	BlockedCount      int     `json:"blockedCount"`
	BlockedRate       float64 `json:"blockedRate"`
}

// fillRates derives the per-bucket rates from the counts. Rates stay zero when
// the owner has no records.
func (s *Stats) fillRates() {
	if s.TotalTransactions == 0 {
		return
	}
	n := float64(s.TotalTransactions)
	s.FraudRate = float64(s.FraudCount) / n
	s.HighRiskRate = float64(s.HighRiskCount) / n
	s.ApprovedRate = float64(s.ApprovedCount) / n
	s.FlaggedRate = float64(s.FlaggedCount) / n
	s.BlockedRate = float64(s.BlockedCount) / n
}

// Store persists transaction records.
type Store interface {
	// Insert stores a new record. The owner plus external ID pair must be
	// unique.
	Insert(ctx context.Context, txn *Transaction) error
	// Get returns the owner's record whose internal or external ID matches.
	Get(ctx context.Context, owner, id string) (*Transaction, error)
	// List returns the owner's records newest first, plus the owner's total
	// record count before paging.
	List(ctx context.Context, owner string, limit, skip int) ([]*Transaction, int, error)
	// Delete removes the owner's record whose internal or external ID
	// matches, reporting whether anything was removed.
	Delete(ctx context.Context, owner, id string) (bool, error)
	// Stats aggregates the owner's records. highRiskThreshold bounds the
	// high risk bucket from below.
	Stats(ctx context.Context, owner string, highRiskThreshold float64) (*Stats, error)
}
