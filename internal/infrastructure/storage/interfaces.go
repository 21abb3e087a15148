package storage

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	StatementRepository
	TransactionRepository
	ReceivableRepository
	ReconciliationRepository
	MatchingRuleRepository
	Close() error
}

// StatementRepository handles uploaded statement batches.
type StatementRepository interface {
	// CreateStatement inserts a statement and sets its ID.
	CreateStatement(st *Statement) error

	// GetStatement retrieves a statement by ID.
	GetStatement(id int64) (*Statement, error)

	// ListStatements returns all statements, newest upload first.
	ListStatements() ([]*Statement, error)

	// FinalizeStatement persists the post-ingestion summary fields:
	// status, transaction count and period bounds.
	FinalizeStatement(st *Statement) error

	// DeleteStatement removes a statement and, by cascade, its
	// transactions.
	DeleteStatement(id int64) error
}

// TransactionRepository handles statement line items.
type TransactionRepository interface {
	// CreateTransaction inserts a transaction and sets its ID.
	CreateTransaction(t *Transaction) error

	// GetTransaction retrieves a transaction by ID.
	GetTransaction(id int64) (*Transaction, error)

	// ListTransactionsByStatement returns a statement's transactions,
	// newest date first.
	ListTransactionsByStatement(statementID int64) ([]*Transaction, error)

	// ListPendingCreditTransactions returns every credit transaction
	// still pending reconciliation, ordered by ID so sweeps iterate
	// deterministically over a store snapshot.
	ListPendingCreditTransactions() ([]*Transaction, error)
}

// ReceivableFilters narrows receivable listings.
type ReceivableFilters struct {
	Status ReceivableStatus // empty = all
	Client string           // case-insensitive substring of client name
}

// ReceivableRepository handles expected receivables.
type ReceivableRepository interface {
	// CreateReceivable inserts a receivable and sets its ID.
	CreateReceivable(r *Receivable) error

	// GetReceivable retrieves a receivable by ID.
	GetReceivable(id int64) (*Receivable, error)

	// UpdateReceivable persists all mutable fields of a receivable.
	UpdateReceivable(r *Receivable) error

	// DeleteReceivable removes a receivable.
	DeleteReceivable(id int64) error

	// ListReceivables returns receivables matching the filters, newest
	// created first.
	ListReceivables(filters ReceivableFilters) ([]*Receivable, error)

	// ListPendingReceivables returns pending receivables ordered by due
	// date ascending, the matcher's candidate pool.
	ListPendingReceivables() ([]*Receivable, error)
}

// ReconciliationRepository handles the transaction/receivable linkage.
// Create and Delete are atomic: the record write and both status flips
// commit together or not at all.
type ReconciliationRepository interface {
	// CreateReconciliation inserts the record, marks the transaction
	// reconciled with the record's confidence, and marks the receivable
	// paid, all in one database transaction. Returns
	// ErrDuplicateReconciliation if the receivable already carries a
	// live record, ErrNotFound if either entity is missing.
	CreateReconciliation(rec *Reconciliation) error

	// GetReconciliation retrieves a record by ID.
	GetReconciliation(id int64) (*Reconciliation, error)

	// DeleteReconciliation removes the record and reverts both linked
	// entities to pending, in one database transaction. The
	// transaction's stored confidence is cleared.
	DeleteReconciliation(id int64) error

	// HasReconciliationForReceivable reports whether a receivable
	// already carries a live record.
	HasReconciliationForReceivable(receivableID int64) (bool, error)

	// HasReconciliationForPair reports whether this exact pair is
	// already linked.
	HasReconciliationForPair(transactionID, receivableID int64) (bool, error)

	// ListReconciliations returns all records joined with both linked
	// entities, newest first.
	ListReconciliations() ([]*ReconciliationDetail, error)
}

// MatchingRuleRepository stores operator-defined matching rules.
type MatchingRuleRepository interface {
	// CreateMatchingRule inserts a rule and sets its ID.
	CreateMatchingRule(rule *MatchingRule) error

	// ListMatchingRules returns all rules, highest priority first.
	ListMatchingRules() ([]*MatchingRule, error)
}
