package transactions

import (
	"context"
	"sort"
	"sync"

	"github.com/fraudguard-io/fraudguard/internal/pagination"
)

// MemoryStore is an in-memory transaction store for demo/development mode.
type MemoryStore struct {
	records map[string]*Transaction // keyed by internal ID
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory transaction store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Transaction),
	}
}

func (m *MemoryStore) Insert(_ context.Context, txn *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.Owner == txn.Owner && r.ExternalID == txn.ExternalID {
			return ErrDuplicateExternalID
		}
	}
	cp := *txn
	m.records[txn.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, owner, id string) (*Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.records {
		if r.Owner == owner && (r.ID == id || r.ExternalID == id) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrTransactionNotFound
}

func (m *MemoryStore) List(_ context.Context, owner string, limit, skip int) ([]*Transaction, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var owned []*Transaction
	for _, r := range m.records {
		if r.Owner == owner {
			cp := *r
			owned = append(owned, &cp)
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	page, total := pagination.Slice(owned, pagination.Page{Limit: limit, Skip: skip})
	return page, total, nil
}

func (m *MemoryStore) Delete(_ context.Context, owner, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, r := range m.records {
		if r.Owner == owner && (r.ID == id || r.ExternalID == id) {
			delete(m.records, key)
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) Stats(_ context.Context, owner string, highRiskThreshold float64) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{}
	for _, r := range m.records {
		if r.Owner != owner {
			continue
		}
		stats.TotalTransactions++
		stats.TotalAmount += r.Amount
		if r.IsFraud {
			stats.FraudCount++
		}
		if r.RiskScore >= highRiskThreshold {
			stats.HighRiskCount++
		}
		switch r.Status {
		case "approved":
			stats.ApprovedCount++
		case "flagged":
			stats.FlaggedCount++
		case "blocked":
			stats.BlockedCount++
		}
	}

	if stats.TotalTransactions > 0 {
		stats.AverageAmount = stats.TotalAmount / float64(stats.TotalTransactions)
	}
	stats.fillRates()
	return stats, nil
}

var _ Store = (*MemoryStore)(nil)
