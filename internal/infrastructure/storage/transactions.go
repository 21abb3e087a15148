package storage

import (
	"database/sql"
	"errors"
)

// CreateTransaction inserts a transaction and sets its ID.
func (s *Storage) CreateTransaction(t *Transaction) error {
	if t.Status == "" {
		t.Status = ReconciliationPending
	}

	query := `
	INSERT INTO transactions (statement_id, date, amount, type, description, document, payer_name, payer_tax_id, status, confidence)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		t.StatementID,
		t.Date,
		t.Amount,
		t.Type,
		t.Description,
		t.Document,
		t.PayerName,
		t.PayerTaxID,
		t.Status,
		nullableFloat(t.Confidence),
	)
	if err != nil {
		return err
	}

	t.ID, err = result.LastInsertId()
	return err
}

// GetTransaction retrieves a transaction by ID.
func (s *Storage) GetTransaction(id int64) (*Transaction, error) {
	t, err := scanTransaction(s.db.QueryRow(selectTransaction+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// ListTransactionsByStatement returns a statement's transactions, newest
// date first.
func (s *Storage) ListTransactionsByStatement(statementID int64) ([]*Transaction, error) {
	return s.queryTransactions(selectTransaction+` WHERE statement_id = ? ORDER BY date DESC, id`, statementID)
}

// ListPendingCreditTransactions returns pending credit transactions
// ordered by ID. The fixed order keeps automatic sweeps deterministic
// for a given store snapshot.
func (s *Storage) ListPendingCreditTransactions() ([]*Transaction, error) {
	return s.queryTransactions(selectTransaction+` WHERE status = ? AND type = ? ORDER BY id`,
		ReconciliationPending, TransactionCredit)
}

const selectTransaction = `
	SELECT id, statement_id, date, amount, type, description, document, payer_name, payer_tax_id, status, confidence
	FROM transactions`

func (s *Storage) queryTransactions(query string, args ...interface{}) ([]*Transaction, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var transactions []*Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	t := &Transaction{}
	var confidence sql.NullFloat64

	err := row.Scan(
		&t.ID,
		&t.StatementID,
		&t.Date,
		&t.Amount,
		&t.Type,
		&t.Description,
		&t.Document,
		&t.PayerName,
		&t.PayerTaxID,
		&t.Status,
		&confidence,
	)
	if err != nil {
		return nil, err
	}

	if confidence.Valid {
		t.Confidence = &confidence.Float64
	}

	return t, nil
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
