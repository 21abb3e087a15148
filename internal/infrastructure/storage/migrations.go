package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_matching_rules_table",
		Up:      migration002AddMatchingRulesTable,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// migration001InitialSchema creates the core reconciliation tables.
//
// The unique index on reconciliations(receivable_id) is load-bearing: it
// guarantees a receivable carries at most one live reconciliation even
// when concurrent sweeps race past the application-level check.
func migration001InitialSchema(tx *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS statements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT NOT NULL,
			uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			bank TEXT NOT NULL DEFAULT '',
			account TEXT NOT NULL DEFAULT '',
			period_start DATE,
			period_end DATE,
			total_transactions INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'processing'
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			statement_id INTEGER NOT NULL REFERENCES statements(id) ON DELETE CASCADE,
			date DATE NOT NULL,
			amount REAL NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			document TEXT NOT NULL DEFAULT '',
			payer_name TEXT NOT NULL DEFAULT '',
			payer_tax_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			confidence REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_statement
			ON transactions(statement_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_pending
			ON transactions(status, type)`,
		`CREATE TABLE IF NOT EXISTS receivables (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_number TEXT NOT NULL DEFAULT '',
			client_name TEXT NOT NULL,
			client_tax_id TEXT NOT NULL DEFAULT '',
			expected_amount REAL NOT NULL,
			due_date DATE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			status TEXT NOT NULL DEFAULT 'pending',
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_receivables_status
			ON receivables(status)`,
		`CREATE TABLE IF NOT EXISTS reconciliations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transaction_id INTEGER NOT NULL REFERENCES transactions(id),
			receivable_id INTEGER NOT NULL REFERENCES receivables(id),
			type TEXT NOT NULL,
			confidence REAL NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			reconciled_by TEXT NOT NULL DEFAULT 'system',
			reconciled_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reconciliations_receivable
			ON reconciliations(receivable_id)`,
	}

	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// migration002AddMatchingRulesTable adds the operator-defined rule store.
func migration002AddMatchingRulesTable(tx *sql.Tx) error {
	query := `
	CREATE TABLE IF NOT EXISTS matching_rules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT 1,
		priority INTEGER NOT NULL DEFAULT 1,
		value_criteria TEXT NOT NULL DEFAULT '',
		date_criteria TEXT NOT NULL DEFAULT '',
		text_criteria TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := tx.Exec(query)
	return err
}
