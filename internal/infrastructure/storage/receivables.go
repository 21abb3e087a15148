package storage

import (
	"database/sql"
	"errors"
	"time"
)

// CreateReceivable inserts a receivable and sets its ID.
func (s *Storage) CreateReceivable(r *Receivable) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = ReceivablePending
	}

	query := `
	INSERT INTO receivables (order_number, client_name, client_tax_id, expected_amount, due_date, created_at, status, notes)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		r.OrderNumber,
		r.ClientName,
		r.ClientTaxID,
		r.ExpectedAmount,
		nullableTime(r.DueDate),
		r.CreatedAt,
		r.Status,
		r.Notes,
	)
	if err != nil {
		return err
	}

	r.ID, err = result.LastInsertId()
	return err
}

// GetReceivable retrieves a receivable by ID.
func (s *Storage) GetReceivable(id int64) (*Receivable, error) {
	r, err := scanReceivable(s.db.QueryRow(selectReceivable+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// UpdateReceivable persists all mutable fields of a receivable.
func (s *Storage) UpdateReceivable(r *Receivable) error {
	query := `
	UPDATE receivables
	SET order_number = ?, client_name = ?, client_tax_id = ?, expected_amount = ?, due_date = ?, status = ?, notes = ?
	WHERE id = ?
	`

	result, err := s.db.Exec(query,
		r.OrderNumber,
		r.ClientName,
		r.ClientTaxID,
		r.ExpectedAmount,
		nullableTime(r.DueDate),
		r.Status,
		r.Notes,
		r.ID,
	)
	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// DeleteReceivable removes a receivable.
func (s *Storage) DeleteReceivable(id int64) error {
	result, err := s.db.Exec(`DELETE FROM receivables WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// ListReceivables returns receivables matching the filters, newest
// created first.
func (s *Storage) ListReceivables(filters ReceivableFilters) ([]*Receivable, error) {
	query := selectReceivable + ` WHERE 1=1`
	args := make([]interface{}, 0, 2)

	if filters.Status != "" {
		query += ` AND status = ?`
		args = append(args, filters.Status)
	}
	if filters.Client != "" {
		query += ` AND client_name LIKE ? COLLATE NOCASE`
		args = append(args, "%"+filters.Client+"%")
	}

	query += ` ORDER BY created_at DESC, id DESC`

	return s.queryReceivables(query, args...)
}

// ListPendingReceivables returns pending receivables ordered by due date
// ascending, with undated ones last.
func (s *Storage) ListPendingReceivables() ([]*Receivable, error) {
	query := selectReceivable + ` WHERE status = ? ORDER BY due_date IS NULL, due_date, id`
	return s.queryReceivables(query, ReceivablePending)
}

const selectReceivable = `
	SELECT id, order_number, client_name, client_tax_id, expected_amount, due_date, created_at, status, notes
	FROM receivables`

func (s *Storage) queryReceivables(query string, args ...interface{}) ([]*Receivable, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var receivables []*Receivable
	for rows.Next() {
		r, err := scanReceivable(rows)
		if err != nil {
			return nil, err
		}
		receivables = append(receivables, r)
	}

	return receivables, rows.Err()
}

func scanReceivable(row rowScanner) (*Receivable, error) {
	r := &Receivable{}
	var dueDate sql.NullTime

	err := row.Scan(
		&r.ID,
		&r.OrderNumber,
		&r.ClientName,
		&r.ClientTaxID,
		&r.ExpectedAmount,
		&dueDate,
		&r.CreatedAt,
		&r.Status,
		&r.Notes,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		r.DueDate = &dueDate.Time
	}

	return r, nil
}
