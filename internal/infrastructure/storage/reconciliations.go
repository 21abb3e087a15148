package storage

import (
	"database/sql"
	"errors"
	"time"
)

// CreateReconciliation links a transaction to a receivable. The record
// insert, the transaction status flip and the receivable status flip
// commit in one database transaction; any failure rolls all three back.
//
// The unique index on receivable_id turns a lost race into
// ErrDuplicateReconciliation instead of a double settlement.
func (s *Storage) CreateReconciliation(rec *Reconciliation) error {
	if rec.ReconciledAt.IsZero() {
		rec.ReconciledAt = time.Now().UTC()
	}
	if rec.ReconciledBy == "" {
		rec.ReconciledBy = "system"
	}

	return s.transact(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO reconciliations (transaction_id, receivable_id, type, confidence, notes, reconciled_by, reconciled_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			rec.TransactionID,
			rec.ReceivableID,
			rec.Type,
			rec.Confidence,
			rec.Notes,
			rec.ReconciledBy,
			rec.ReconciledAt,
		)
		if err != nil {
			if isConstraintViolation(err) {
				return ErrDuplicateReconciliation
			}
			return err
		}

		rec.ID, err = result.LastInsertId()
		if err != nil {
			return err
		}

		result, err = tx.Exec(`
			UPDATE transactions SET status = ?, confidence = ? WHERE id = ?
		`, ReconciliationReconciled, rec.Confidence, rec.TransactionID)
		if err != nil {
			return err
		}
		if err := requireRowsAffected(result); err != nil {
			return err
		}

		result, err = tx.Exec(`
			UPDATE receivables SET status = ? WHERE id = ?
		`, ReceivablePaid, rec.ReceivableID)
		if err != nil {
			return err
		}
		return requireRowsAffected(result)
	})
}

// GetReconciliation retrieves a record by ID.
func (s *Storage) GetReconciliation(id int64) (*Reconciliation, error) {
	query := `
	SELECT id, transaction_id, receivable_id, type, confidence, notes, reconciled_by, reconciled_at
	FROM reconciliations WHERE id = ?
	`

	rec := &Reconciliation{}
	err := s.db.QueryRow(query, id).Scan(
		&rec.ID,
		&rec.TransactionID,
		&rec.ReceivableID,
		&rec.Type,
		&rec.Confidence,
		&rec.Notes,
		&rec.ReconciledBy,
		&rec.ReconciledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// DeleteReconciliation undoes a reconciliation: the record is removed
// and both linked entities revert to pending, with the transaction's
// confidence cleared, all in one database transaction.
func (s *Storage) DeleteReconciliation(id int64) error {
	rec, err := s.GetReconciliation(id)
	if err != nil {
		return err
	}

	return s.transact(func(tx *sql.Tx) error {
		result, err := tx.Exec(`DELETE FROM reconciliations WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if err := requireRowsAffected(result); err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE transactions SET status = ?, confidence = NULL WHERE id = ?
		`, ReconciliationPending, rec.TransactionID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE receivables SET status = ? WHERE id = ?
		`, ReceivablePending, rec.ReceivableID)
		return err
	})
}

// HasReconciliationForReceivable reports whether a receivable already
// carries a live record.
func (s *Storage) HasReconciliationForReceivable(receivableID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reconciliations WHERE receivable_id = ?`, receivableID).Scan(&count)
	return count > 0, err
}

// HasReconciliationForPair reports whether this exact pair is already
// linked.
func (s *Storage) HasReconciliationForPair(transactionID, receivableID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM reconciliations WHERE transaction_id = ? AND receivable_id = ?
	`, transactionID, receivableID).Scan(&count)
	return count > 0, err
}

// ListReconciliations returns all records joined with both linked
// entities, newest first.
func (s *Storage) ListReconciliations() ([]*ReconciliationDetail, error) {
	query := `
	SELECT r.id, r.transaction_id, r.receivable_id, r.type, r.confidence, r.notes, r.reconciled_by, r.reconciled_at,
	       t.id, t.statement_id, t.date, t.amount, t.type, t.description, t.document, t.payer_name, t.payer_tax_id, t.status, t.confidence,
	       c.id, c.order_number, c.client_name, c.client_tax_id, c.expected_amount, c.due_date, c.created_at, c.status, c.notes
	FROM reconciliations r
	JOIN transactions t ON t.id = r.transaction_id
	JOIN receivables c ON c.id = r.receivable_id
	ORDER BY r.reconciled_at DESC, r.id DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var details []*ReconciliationDetail
	for rows.Next() {
		d := &ReconciliationDetail{
			Transaction: &Transaction{},
			Receivable:  &Receivable{},
		}
		var txnConfidence sql.NullFloat64
		var dueDate sql.NullTime

		err := rows.Scan(
			&d.ID, &d.TransactionID, &d.ReceivableID, &d.Type, &d.Confidence, &d.Notes, &d.ReconciledBy, &d.ReconciledAt,
			&d.Transaction.ID, &d.Transaction.StatementID, &d.Transaction.Date, &d.Transaction.Amount,
			&d.Transaction.Type, &d.Transaction.Description, &d.Transaction.Document,
			&d.Transaction.PayerName, &d.Transaction.PayerTaxID, &d.Transaction.Status, &txnConfidence,
			&d.Receivable.ID, &d.Receivable.OrderNumber, &d.Receivable.ClientName, &d.Receivable.ClientTaxID,
			&d.Receivable.ExpectedAmount, &dueDate, &d.Receivable.CreatedAt, &d.Receivable.Status, &d.Receivable.Notes,
		)
		if err != nil {
			return nil, err
		}

		if txnConfidence.Valid {
			d.Transaction.Confidence = &txnConfidence.Float64
		}
		if dueDate.Valid {
			d.Receivable.DueDate = &dueDate.Time
		}

		details = append(details, d)
	}

	return details, rows.Err()
}
