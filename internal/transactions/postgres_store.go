package transactions

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

// PostgresStore persists transaction records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed transaction store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the transactions table and indexes.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id               VARCHAR(36) PRIMARY KEY,
			external_id      VARCHAR(64) NOT NULL,
			owner            VARCHAR(320) NOT NULL,
			amount           NUMERIC(20,2) NOT NULL CHECK (amount >= 0),
			account_balance  NUMERIC(20,2) NOT NULL,
			transaction_type VARCHAR(40) NOT NULL,
			device_type      VARCHAR(40) NOT NULL,
			merchant_category VARCHAR(40) NOT NULL,
			location         VARCHAR(120) NOT NULL,
			ip_address_flag  VARCHAR(40) NOT NULL,
			previous_fraud   VARCHAR(40) NOT NULL,
			event_time       TIMESTAMPTZ,
			risk_score       DOUBLE PRECISION NOT NULL CHECK (risk_score >= 0 AND risk_score <= 1),
			is_fraud         BOOLEAN NOT NULL,
			classification   VARCHAR(20) NOT NULL,
			confidence       INTEGER NOT NULL,
			status           VARCHAR(20) NOT NULL CHECK (status IN ('approved','flagged','blocked')),
			model_version    VARCHAR(80),
			source           VARCHAR(20) NOT NULL,
			processed        BOOLEAN NOT NULL DEFAULT TRUE,
			created_at       TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (owner, external_id)
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_owner ON transactions (owner, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_transactions_owner_external ON transactions (owner, external_id);
	`)
	return err
}

func (p *PostgresStore) Insert(ctx context.Context, t *Transaction) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, external_id, owner, amount, account_balance,
			transaction_type, device_type, merchant_category, location,
			ip_address_flag, previous_fraud, event_time,
			risk_score, is_fraud, classification, confidence, status,
			model_version, source, processed, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20, $21
		)`,
		t.ID, t.ExternalID, t.Owner, t.Amount, t.AccountBalance,
		t.TransactionType, t.DeviceType, t.MerchantCategory, t.Location,
		t.IPAddressFlag, t.PreviousFraudulentActivity, t.EventTime,
		t.RiskScore, t.IsFraud, t.Classification, t.Confidence, t.Status,
		nullString(t.ModelVersion), t.Source, t.Processed, t.CreatedAt,
	)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrDuplicateExternalID
	}
	return err
}

const selectColumns = `
	id, external_id, owner, amount, account_balance,
	transaction_type, device_type, merchant_category, location,
	ip_address_flag, previous_fraud, event_time,
	risk_score, is_fraud, classification, confidence, status,
	model_version, source, processed, created_at`

func (p *PostgresStore) Get(ctx context.Context, owner, id string) (*Transaction, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM transactions
		WHERE owner = $1 AND (id = $2 OR external_id = $2)`, owner, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	return t, err
}

func (p *PostgresStore) List(ctx context.Context, owner string, limit, skip int) ([]*Transaction, int, error) {
	var total int
	if err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE owner = $1`, owner).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM transactions
		WHERE owner = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, owner, limit, skip)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	result, err := scanTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (p *PostgresStore) Delete(ctx context.Context, owner, id string) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		DELETE FROM transactions
		WHERE owner = $1 AND (id = $2 OR external_id = $2)`, owner, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *PostgresStore) Stats(ctx context.Context, owner string, highRiskThreshold float64) (*Stats, error) {
	stats := &Stats{}
	err := p.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(amount), 0),
			COALESCE(AVG(amount), 0),
			COUNT(*) FILTER (WHERE is_fraud),
			COUNT(*) FILTER (WHERE risk_score >= $2),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'flagged'),
			COUNT(*) FILTER (WHERE status = 'blocked')
		FROM transactions
		WHERE owner = $1`, owner, highRiskThreshold).Scan(
		&stats.TotalTransactions,
		&stats.TotalAmount,
		&stats.AverageAmount,
		&stats.FraudCount,
		&stats.HighRiskCount,
		&stats.ApprovedCount,
		&stats.FlaggedCount,
		&stats.BlockedCount,
	)
	if err != nil {
		return nil, err
	}

	stats.fillRates()
	return stats, nil
}

// --- scanners ---

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(sc scanner) (*Transaction, error) {
	t := &Transaction{}
	var (
		eventTime    sql.NullTime
		modelVersion sql.NullString
	)

	err := sc.Scan(
		&t.ID, &t.ExternalID, &t.Owner, &t.Amount, &t.AccountBalance,
		&t.TransactionType, &t.DeviceType, &t.MerchantCategory, &t.Location,
		&t.IPAddressFlag, &t.PreviousFraudulentActivity, &eventTime,
		&t.RiskScore, &t.IsFraud, &t.Classification, &t.Confidence, &t.Status,
		&modelVersion, &t.Source, &t.Processed, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if eventTime.Valid {
		et := eventTime.Time
		t.EventTime = &et
	}
	t.ModelVersion = modelVersion.String
	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]*Transaction, error) {
	var result []*Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Store = (*PostgresStore)(nil)
