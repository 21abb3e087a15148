package storage

import (
	"database/sql"
	"errors"
	"time"
)

// CreateStatement inserts a statement and sets its ID.
func (s *Storage) CreateStatement(st *Statement) error {
	if st.UploadedAt.IsZero() {
		st.UploadedAt = time.Now().UTC()
	}
	if st.Status == "" {
		st.Status = StatementProcessing
	}

	query := `
	INSERT INTO statements (filename, uploaded_at, bank, account, period_start, period_end, total_transactions, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		st.Filename,
		st.UploadedAt,
		st.Bank,
		st.Account,
		nullableTime(st.PeriodStart),
		nullableTime(st.PeriodEnd),
		st.TotalTransactions,
		st.Status,
	)
	if err != nil {
		return err
	}

	st.ID, err = result.LastInsertId()
	return err
}

// GetStatement retrieves a statement by ID.
func (s *Storage) GetStatement(id int64) (*Statement, error) {
	query := `
	SELECT id, filename, uploaded_at, bank, account, period_start, period_end, total_transactions, status
	FROM statements WHERE id = ?
	`

	st, err := scanStatement(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return st, err
}

// ListStatements returns all statements, newest upload first.
func (s *Storage) ListStatements() ([]*Statement, error) {
	query := `
	SELECT id, filename, uploaded_at, bank, account, period_start, period_end, total_transactions, status
	FROM statements ORDER BY uploaded_at DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var statements []*Statement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		statements = append(statements, st)
	}

	return statements, rows.Err()
}

// FinalizeStatement persists the post-ingestion summary fields.
func (s *Storage) FinalizeStatement(st *Statement) error {
	query := `
	UPDATE statements
	SET status = ?, total_transactions = ?, period_start = ?, period_end = ?
	WHERE id = ?
	`

	result, err := s.db.Exec(query,
		st.Status,
		st.TotalTransactions,
		nullableTime(st.PeriodStart),
		nullableTime(st.PeriodEnd),
		st.ID,
	)
	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// DeleteStatement removes a statement; its transactions go with it via
// the foreign-key cascade.
func (s *Storage) DeleteStatement(id int64) error {
	result, err := s.db.Exec(`DELETE FROM statements WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStatement(row rowScanner) (*Statement, error) {
	st := &Statement{}
	var periodStart, periodEnd sql.NullTime

	err := row.Scan(
		&st.ID,
		&st.Filename,
		&st.UploadedAt,
		&st.Bank,
		&st.Account,
		&periodStart,
		&periodEnd,
		&st.TotalTransactions,
		&st.Status,
	)
	if err != nil {
		return nil, err
	}

	if periodStart.Valid {
		st.PeriodStart = &periodStart.Time
	}
	if periodEnd.Valid {
		st.PeriodEnd = &periodEnd.Time
	}

	return st, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func requireRowsAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
